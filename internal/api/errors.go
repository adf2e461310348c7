package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smartfarm/farmcore/internal/command"
	"github.com/smartfarm/farmcore/internal/device"
	"github.com/smartfarm/farmcore/internal/rule"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeUpstream     = "upstream_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeDomainError maps domain errors onto HTTP responses. Errors without
// a mapping become opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rule.ErrRuleNotFound),
		errors.Is(err, command.ErrCommandNotFound),
		errors.Is(err, device.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, rule.ErrUnauthorized),
		errors.Is(err, command.ErrUnauthorized):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "room access denied")

	case errors.Is(err, rule.ErrInvalidRule),
		errors.Is(err, rule.ErrInvalidParameter),
		errors.Is(err, rule.ErrInvalidComparator),
		errors.Is(err, rule.ErrThresholdOutOfRange),
		errors.Is(err, rule.ErrDeviceRoomMismatch),
		errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, command.ErrMissingParam),
		errors.Is(err, command.ErrInvalidAction),
		errors.Is(err, device.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, rule.ErrRuleExists),
		errors.Is(err, command.ErrCommandExists),
		errors.Is(err, device.ErrDeviceExists),
		errors.Is(err, command.ErrInvalidTransition):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, command.ErrPublishFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
