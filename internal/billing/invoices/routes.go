package invoices

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the billing endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Create)
	r.Get("/invoices/{id}", h.Get)
	r.Post("/invoices/{id}/credit-note", h.CreateCreditNote)
	r.Post("/invoices/{id}/comments", h.UpdateComments)
	r.Post("/invoices/{id}/delivery-instructions", h.UpdateDeliveryInstructions)
}
