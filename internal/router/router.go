package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/localscout/discovery/internal/api/discovery"
)

// Config contains dependencies needed for the router setup
type Config struct {
	DiscoveryHandler *discovery.HandlerImpl
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1/discovery", func(r chi.Router) {
		r.Post("/search", cfg.DiscoveryHandler.Search)
		r.Get("/suggest", cfg.DiscoveryHandler.Suggest)
		r.Get("/viewport", cfg.DiscoveryHandler.GetViewportPlaces)
		r.Get("/places/{id}", cfg.DiscoveryHandler.GetPlaceDetails)
		r.Post("/live-status", cfg.DiscoveryHandler.GetLiveStatus)
	})

	return r
}
