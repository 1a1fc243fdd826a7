package orders

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

// Handler serves the sales order API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the orders handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	order, err := h.service.Create(r.Context(), req.toInput(), actor)
	if err != nil {
		h.logger.Error("create order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, orderToResponse(order))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderToResponse(order))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	resp := listOrdersResponse{
		Orders:     make([]orderResponse, 0, len(orders)),
		Pagination: shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, orderToResponse(o))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func listFilterFromQuery(r *http.Request) (ListFilter, error) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	filter := ListFilter{Page: shared.NewPagination(page, perPage, 0)}

	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := httpx.IDParam(raw)
		if err != nil {
			return ListFilter{}, shared.NewValidationError("customer_id", "must be a positive integer")
		}
		filter.CustomerID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := OrderStatus(raw)
		switch status {
		case OrderStatusPending, OrderStatusPicking, OrderStatusPicked:
			filter.Status = &status
		default:
			return ListFilter{}, shared.NewValidationError("status", "unknown order status")
		}
	}
	if raw := r.URL.Query().Get("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListFilter{}, shared.NewValidationError("date_from", "expected YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListFilter{}, shared.NewValidationError("date_to", "expected YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	return filter, nil
}

func (h *Handler) AssignPicker(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		var req assignPickerRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.AssignPicker(r.Context(), orderID, req.PersonID, actor)
	})
}

func (h *Handler) UnassignPicker(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		return h.service.UnassignPicker(r.Context(), orderID, actor)
	})
}

func (h *Handler) CompletePicking(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		var req completePickingRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.CompletePicking(r.Context(), orderID, req.When, actor)
	})
}

func (h *Handler) ReopenPicking(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		return h.service.ReopenPicking(r.Context(), orderID, actor)
	})
}

func (h *Handler) UpdateSalesperson(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		var req updateSalespersonRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateSalesperson(r.Context(), orderID, req.PersonID, actor)
	})
}

func (h *Handler) UpdateBackorderPolicy(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(orderID int64, actor shared.ActorContext) (*Order, error) {
		var req updateBackorderPolicyRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateBackorderPolicy(r.Context(), orderID, req.UndersupplyBackordered, actor)
	})
}

func (h *Handler) CreateBackorder(w http.ResponseWriter, r *http.Request) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	orderID, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	backorder, err := h.service.CreateBackorder(r.Context(), orderID, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, orderToResponse(backorder))
}

func (h *Handler) RecordPick(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		var req recordPickRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.RecordPick(r.Context(), orderID, lineID, req.Delta, actor)
	})
}

func (h *Handler) AdjustPick(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		var req adjustPickRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.AdjustPick(r.Context(), orderID, lineID, req.NewTotal, req.Reason, actor)
	})
}

func (h *Handler) CompleteLinePicking(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		var req completePickingRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.CompleteLinePicking(r.Context(), orderID, lineID, req.When, actor)
	})
}

func (h *Handler) ReopenLinePicking(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		return h.service.ReopenLinePicking(r.Context(), orderID, lineID, actor)
	})
}

func (h *Handler) UpdateLineQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		var req updateLineQuantityRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateLineQuantity(r.Context(), orderID, lineID, req.Quantity, actor)
	})
}

func (h *Handler) UpdateLineUnitPrice(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
		var req updateLineUnitPriceRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.service.UpdateLineUnitPrice(r.Context(), orderID, lineID, req.UnitPrice, actor)
	})
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

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(orderID int64, actor shared.ActorContext) (*Order, error)) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	orderID, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := fn(orderID, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderToResponse(order))
}

func (h *Handler) mutateLine(w http.ResponseWriter, r *http.Request, fn func(orderID, lineID int64, actor shared.ActorContext) (*Order, error)) {
	actor, err := httpx.Actor(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	orderID, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lineID, err := httpx.IDParam(chi.URLParam(r, "lineID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := fn(orderID, lineID, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderToResponse(order))
}
