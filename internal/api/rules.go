package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartfarm/farmcore/internal/rule"
)

// ruleRequest is the request body for creating or updating a rule.
type ruleRequest struct {
	Name           string  `json:"name"`
	Parameter      string  `json:"parameter"`
	Comparator     string  `json:"comparison"`
	Threshold      float64 `json:"threshold"`
	Action         string  `json:"action"`
	TargetDeviceID string  `json:"target_device_id"`
	Enabled        *bool   `json:"enabled"`
}

func (req *ruleRequest) toRule() *rule.Rule {
	r := &rule.Rule{
		Name:           req.Name,
		Parameter:      rule.Parameter(req.Parameter),
		Comparator:     rule.Comparator(req.Comparator),
		Threshold:      req.Threshold,
		ActionCommand:  req.Action,
		ActionDeviceID: req.TargetDeviceID,
		Enabled:        true,
	}
	if req.Enabled != nil {
		r.Enabled = *req.Enabled
	}
	return r
}

// handleListRoomRules returns all rules in a room.
func (s *Server) handleListRoomRules(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var rules []rule.Rule
	var err error
	if param := r.URL.Query().Get("parameter"); param != "" {
		rules, err = s.rules.ListByParameter(r.Context(), userIDFrom(r.Context()), roomID, rule.Parameter(param))
	} else {
		rules, err = s.rules.ListByRoom(r.Context(), userIDFrom(r.Context()), roomID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rules == nil {
		rules = []rule.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// handleCreateRule creates a new rule in a room.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	newRule := req.toRule()
	newRule.RoomID = chi.URLParam(r, "roomID")

	created, err := s.rules.Create(r.Context(), userIDFrom(r.Context()), newRule)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetRule returns a single rule.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	got, err := s.rules.Get(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// handleUpdateRule replaces a rule's mutable fields.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	updated := req.toRule()
	updated.ID = chi.URLParam(r, "id")

	got, err := s.rules.Update(r.Context(), userIDFrom(r.Context()), updated)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// handleDeleteRule removes a rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Delete(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEnableRule turns a rule on.
func (s *Server) handleEnableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, true)
}

// handleDisableRule turns a rule off.
func (s *Server) handleDisableRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleEnabled(w, r, false)
}

func (s *Server) setRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	got, err := s.rules.SetEnabled(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// handleListRuleExecutions returns a rule's recent firings, newest first.
func (s *Server) handleListRuleExecutions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	execs, err := s.rules.ListExecutions(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if execs == nil {
		execs = []rule.Execution{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": execs})
}

// queryInt parses an integer query parameter, returning def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
