package receivables

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the AR ledger endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transactions/invoices", h.RecordInvoice)
	r.Post("/transactions/payments", h.RecordPayment)
	r.Post("/transactions/credit-notes", h.RecordCreditNote)
	r.Get("/transactions/{id}", h.Get)
	r.Post("/transactions/{id}/finalize", h.Finalize)
	r.Post("/transactions/{id}/unfinalize", h.Unfinalize)
	r.Post("/transactions/{id}/apply-payment", h.ApplyPayment)
	r.Post("/transactions/{id}/balance", h.UpdateBalance)
	r.Post("/transactions/{id}/link-invoice", h.LinkInvoice)
	r.Post("/transactions/{id}/unlink-invoice", h.UnlinkInvoice)
	r.Post("/transactions/{id}/payment-method", h.ChangePaymentMethod)
	r.Get("/customers/{customerID}/transactions", h.ListByCustomer)
	r.Get("/aging", h.Aging)
}
