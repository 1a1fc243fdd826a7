package orders

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the sales order endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/assign-picker", h.AssignPicker)
	r.Post("/orders/{id}/unassign-picker", h.UnassignPicker)
	r.Post("/orders/{id}/complete-picking", h.CompletePicking)
	r.Post("/orders/{id}/reopen-picking", h.ReopenPicking)
	r.Post("/orders/{id}/salesperson", h.UpdateSalesperson)
	r.Post("/orders/{id}/backorder-policy", h.UpdateBackorderPolicy)
	r.Post("/orders/{id}/backorder", h.CreateBackorder)
	r.Post("/orders/{id}/lines/{lineID}/pick", h.RecordPick)
	r.Post("/orders/{id}/lines/{lineID}/adjust-pick", h.AdjustPick)
	r.Post("/orders/{id}/lines/{lineID}/complete-picking", h.CompleteLinePicking)
	r.Post("/orders/{id}/lines/{lineID}/reopen-picking", h.ReopenLinePicking)
	r.Post("/orders/{id}/lines/{lineID}/quantity", h.UpdateLineQuantity)
	r.Post("/orders/{id}/lines/{lineID}/unit-price", h.UpdateLineUnitPrice)
}
