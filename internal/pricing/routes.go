package pricing

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the deal pricing endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deals", h.List)
	r.Post("/deals", h.Create)
	r.Get("/deals/{id}", h.Get)
	r.Post("/deals/{id}/extend", h.Extend)
	r.Post("/deals/{id}/reprice", h.Reprice)
	r.Post("/deals/resolve-price", h.Resolve)
}
