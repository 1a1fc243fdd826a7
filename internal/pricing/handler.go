package pricing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler serves the deal pricing API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the pricing handler.
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

	var req createDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	deal, err := h.service.CreateDeal(r.Context(), input, actor)
	if err != nil {
		h.logger.Error("create deal failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dealToResponse(deal))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	deal, err := h.service.GetDeal(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dealToResponse(deal))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	deals, total, err := h.service.ListDeals(r.Context(), shared.NewPagination(page, perPage, 0))
	if err != nil {
		h.logger.Error("list deals failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	resp := listDealsResponse{
		Deals:      make([]dealResponse, 0, len(deals)),
		Pagination: shared.NewPagination(page, perPage, total),
	}
	for _, d := range deals {
		resp.Deals = append(resp.Deals, dealToResponse(d))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Extend(w http.ResponseWriter, r *http.Request) {
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

	var req extendDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	deal, err := h.service.ExtendDeal(r.Context(), id, req.EndDate, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dealToResponse(deal))
}

func (h *Handler) Reprice(w http.ResponseWriter, r *http.Request) {
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

	var req repriceDealRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	dealPricing, err := ReconstructDealPricing(req.PricingKind, req.PricingValue)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	deal, err := h.service.RepriceDeal(r.Context(), id, dealPricing, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dealToResponse(deal))
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolvePriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resolution, err := h.service.ResolvePrice(r.Context(), DealContext{
		CustomerID:         req.CustomerID,
		CustomerCategoryID: req.CustomerCategoryID,
		BuyingGroupID:      req.BuyingGroupID,
		StockItemID:        req.StockItemID,
		StockGroupID:       req.StockGroupID,
	}, req.BasePrice)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	resp := resolvePriceResponse{
		BasePrice:      req.BasePrice,
		EffectivePrice: resolution.EffectivePrice,
		Savings:        resolution.Savings,
	}
	if resolution.Deal != nil {
		if id, ok := resolution.Deal.ID().Value(); ok {
			resp.DealID = &id
		}
		desc := resolution.Deal.Description()
		resp.Description = &desc
	}
	httpx.JSON(w, http.StatusOK, resp)
}
