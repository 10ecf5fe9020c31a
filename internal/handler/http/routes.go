package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/ping", h.ping)
		r.Get("/version", h.getHubVersion)
		// ingest is authorized by the shared broadcast key, not a user token
		r.Post("/api/realtime/broadcast", h.broadcast)
	})

	// routes behind token authentication
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/api/realtime/ws", h.realtimeWS)
		r.Get("/api/realtime/sse", h.realtimeSSE)
		r.Get("/api/data/changes", h.changes)
	})

	return router
}
