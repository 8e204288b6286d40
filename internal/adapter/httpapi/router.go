package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tradepost/listing-service/internal/adapter/httpapi/middleware"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

// NewRouter wires the web API. The feed is public; everything under
// /api requires a valid token from the identity layer.
func NewRouter(h *Handler, jwtSecret string, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log))

	r.Get("/feed", h.EventFeed)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret, log))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", h.SearchListings)
			r.Post("/", h.CreateListing)
			r.Get("/{id}", h.GetListing)
			r.Patch("/{id}", h.EditListing)
			r.Post("/{id}/hide", h.HideListing)
			r.Post("/{id}/images/{imageID}/hide", h.HideImage)
			r.Get("/{id}/issues", h.ListingIssues)
		})
		r.Get("/images/{id}", h.GetImage)
	})

	return r
}
