package receivables

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler serves the AR ledger API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the receivables handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) RecordInvoice(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req recordInvoiceRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.RecordInvoice(r.Context(), req.CustomerID, req.InvoiceID,
		req.TransactionDate, req.AmountExcludingTax, req.TaxRate, actor)
	if err != nil {
		h.logger.Error("record invoice transaction failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transactionToResponse(txn))
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req recordPaymentRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.RecordPayment(r.Context(), req.CustomerID, req.TransactionDate,
		req.Amount, req.PaymentMethodID, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transactionToResponse(txn))
}

func (h *Handler) RecordCreditNote(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req recordCreditNoteRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.RecordCreditNote(r.Context(), req.CustomerID, req.InvoiceID,
		req.TransactionDate, req.Amount, req.TaxRate, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transactionToResponse(txn))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionToResponse(txn))
}

func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.IDParam(chi.URLParam(r, "customerID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	txns, total, err := h.service.ListByCustomer(r.Context(), customerID, shared.NewPagination(page, perPage, 0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	resp := listTransactionsResponse{
		Transactions: make([]transactionResponse, 0, len(txns)),
		Pagination:   shared.NewPagination(page, perPage, total),
	}
	for _, txn := range txns {
		resp.Transactions = append(resp.Transactions, transactionToResponse(txn))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		var req finalizeRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.Finalize(r.Context(), id, req.Date, actor)
	})
}

func (h *Handler) Unfinalize(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		return h.service.Unfinalize(r.Context(), id, actor)
	})
}

func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		var req applyPaymentRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.ApplyPayment(r.Context(), id, req.Amount, actor)
	})
}

func (h *Handler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		var req updateBalanceRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateOutstandingBalance(r.Context(), id, req.Balance, actor)
	})
}

func (h *Handler) LinkInvoice(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		var req linkInvoiceRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.LinkInvoice(r.Context(), id, req.InvoiceID, actor)
	})
}

func (h *Handler) UnlinkInvoice(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		return h.service.UnlinkInvoice(r.Context(), id, actor)
	})
}

func (h *Handler) ChangePaymentMethod(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
		var req changePaymentMethodRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.ChangePaymentMethod(r.Context(), id, req.PaymentMethodID, actor)
	})
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("as_of", "expected YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	bucket, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		h.logger.Error("aging report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="ar-aging.csv"`)
		if err := WriteAgingCSV(w, bucket, asOf); err != nil {
			h.logger.Error("aging csv export failed", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return shared.NewValidationError("body", "invalid JSON body")
	}
	if err := h.validate.Struct(target); err != nil {
		return shared.NewValidationError("body", err.Error())
	}
	return nil
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(id int64, actor shared.ActorContext) (*CustomerTransaction, error)) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := fn(id, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionToResponse(txn))
}
