package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/travelglobe/travelglobe-go/internal/middleware"
)

// RouterConfig wires handlers into the HTTP surface. Auth and Travel are
// nil when account storage is unavailable; their routes then answer 503.
type RouterConfig struct {
	Auth       *AuthHandler
	Travel     *TravelHandler
	Enrichment *EnrichmentHandler

	Verifier middleware.TokenVerifier
	Users    middleware.UserLoader

	// Metrics serves /metrics when set.
	Metrics http.Handler

	AuthRateLimit func(http.Handler) http.Handler
}

// NewRouter builds the chi router for the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	accounts := cfg.Auth != nil && cfg.Travel != nil && cfg.Users != nil

	r.Route("/api", func(r chi.Router) {
		if !accounts {
			r.HandleFunc("/auth/*", StorageUnavailable)
			r.HandleFunc("/visited", StorageUnavailable)
			r.HandleFunc("/visited/*", StorageUnavailable)
			r.HandleFunc("/wishlist", StorageUnavailable)
			r.HandleFunc("/wishlist/*", StorageUnavailable)
			r.HandleFunc("/travel", StorageUnavailable)
		} else {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimit != nil {
					r.Use(cfg.AuthRateLimit)
				}
				r.Post("/auth/register", cfg.Auth.HandleRegister)
				r.Post("/auth/login", cfg.Auth.HandleLogin)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.Verifier, cfg.Users))
				r.Get("/auth/me", cfg.Auth.HandleMe)

				r.Get("/travel", cfg.Travel.HandleState)
				r.Get("/visited", cfg.Travel.HandleListVisited)
				r.Post("/visited/{iso2}", cfg.Travel.HandleMarkVisited)
				r.Delete("/visited/{iso2}", cfg.Travel.HandleUnmarkVisited)
				r.Get("/wishlist", cfg.Travel.HandleListWishlist)
				r.Post("/wishlist/{iso2}", cfg.Travel.HandleAddToWishlist)
				r.Delete("/wishlist/{iso2}", cfg.Travel.HandleRemoveFromWishlist)
			})
		}

		r.Group(func(r chi.Router) {
			if accounts {
				r.Use(middleware.OptionalAuth(cfg.Verifier, cfg.Users))
			}
			r.Get("/country-info/{iso2}", cfg.Enrichment.HandleCountryInfo)
			r.Get("/country-news/{iso2}", cfg.Enrichment.HandleCountryNews)
		})
	})

	return r
}
