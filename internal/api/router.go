package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)

				r.Group(func(r chi.Router) {
					r.Use(s.adminOnlyMiddleware)
					r.Post("/", s.handleCreateDevice)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Get("/commands", s.handleListDeviceCommands)
					r.Post("/commands", s.handleSendCommand)

					r.Group(func(r chi.Router) {
						r.Use(s.adminOnlyMiddleware)
						r.Delete("/", s.handleDeleteDevice)
					})
				})
			})

			// Rule endpoints
			r.Route("/rules", func(r chi.Router) {
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRule)
					r.Put("/", s.handleUpdateRule)
					r.Delete("/", s.handleDeleteRule)
					r.Post("/enable", s.handleEnableRule)
					r.Post("/disable", s.handleDisableRule)
					r.Get("/executions", s.handleListRuleExecutions)
				})
			})

			// Command endpoints
			r.Route("/commands", func(r chi.Router) {
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetCommand)
					r.Post("/retry", s.handleRetryCommand)
					r.Post("/cancel", s.handleCancelCommand)
				})
			})

			// Room-scoped endpoints
			r.Route("/rooms/{roomID}", func(r chi.Router) {
				r.Get("/devices", s.handleListRoomDevices)
				r.Get("/rules", s.handleListRoomRules)
				r.Post("/rules", s.handleCreateRule)
				r.Get("/commands", s.handleListRoomCommands)
				r.Get("/commands/stats", s.handleRoomCommandStats)

				// Access grants (admin only)
				r.Group(func(r chi.Router) {
					r.Use(s.adminOnlyMiddleware)
					r.Post("/access/{userID}", s.handleGrantRoomAccess)
					r.Delete("/access/{userID}", s.handleRevokeRoomAccess)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
