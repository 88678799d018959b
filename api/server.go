/*
server.go - HTTP router and middleware configuration

Wires URLs to handlers with chi. The middleware stack is request logging,
panic recovery, request ids, and CORS for the shopper portal frontend.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/transactions", h.IngestTransaction)
		r.Get("/shoppers/{id}", h.GetShopper)
		r.Post("/redeem", h.Redeem)
		r.Get("/stats", h.GetStats)
		r.Get("/rewards", h.ListRewards)
	})

	return r
}
