package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGrantRoomAccess grants a user access to a room. Admin only.
func (s *Server) handleGrantRoomAccess(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	userID := chi.URLParam(r, "userID")

	if err := s.access.Grant(r.Context(), userID, roomID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "room_id": roomID, "granted": true})
}

// handleRevokeRoomAccess removes a user's access to a room. Admin only.
func (s *Server) handleRevokeRoomAccess(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	userID := chi.URLParam(r, "userID")

	if err := s.access.Revoke(r.Context(), userID, roomID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
