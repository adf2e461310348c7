package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartfarm/farmcore/internal/command"
)

// defaultStatsWindow bounds room statistics when no window is given.
const defaultStatsWindow = 24 * time.Hour

type sendCommandRequest struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// handleSendCommand issues a command to a device on behalf of the caller.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	var req sendCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	cmd, err := s.commands.Send(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), req.Command, req.Params)
	if err != nil {
		// The command record exists even when broker delivery failed;
		// surface both the error and the record's ID via the mapping.
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cmd)
}

// handleGetCommand returns one command with its current status.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.commands.Get(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handleRetryCommand re-dispatches a failed command.
func (s *Server) handleRetryCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.commands.Retry(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handleCancelCommand marks a pending or sent command as failed.
func (s *Server) handleCancelCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.commands.Cancel(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handleListDeviceCommands returns a device's command history, newest first.
func (s *Server) handleListDeviceCommands(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	cmds, err := s.commands.ListByDevice(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cmds == nil {
		cmds = []command.Command{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

// handleListRoomCommands returns command history across a room's devices.
func (s *Server) handleListRoomCommands(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	var cmds []command.Command
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		cmds, err = s.commands.ListByRoomStatus(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "roomID"), command.Status(status), limit)
	} else {
		cmds, err = s.commands.ListByRoom(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "roomID"), limit)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cmds == nil {
		cmds = []command.Command{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

// handleRoomCommandStats returns aggregate command counts for a room over
// the last ?hours= window (24 by default).
func (s *Server) handleRoomCommandStats(w http.ResponseWriter, r *http.Request) {
	window := defaultStatsWindow
	if hours := queryInt(r, "hours", 0); hours > 0 {
		window = time.Duration(hours) * time.Hour
	}
	since := time.Now().UTC().Add(-window)

	stats, err := s.commands.RoomStatistics(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "roomID"), since)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
