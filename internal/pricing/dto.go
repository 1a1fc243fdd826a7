package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type createDealRequest struct {
	Description        string          `json:"description" validate:"required,max=100"`
	CustomerID         *int64          `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	BuyingGroupID      *int64          `json:"buying_group_id,omitempty" validate:"omitempty,gt=0"`
	CustomerCategoryID *int64          `json:"customer_category_id,omitempty" validate:"omitempty,gt=0"`
	StockItemID        *int64          `json:"stock_item_id,omitempty" validate:"omitempty,gt=0"`
	StockGroupID       *int64          `json:"stock_group_id,omitempty" validate:"omitempty,gt=0"`
	StartDate          time.Time       `json:"start_date" validate:"required"`
	EndDate            time.Time       `json:"end_date" validate:"required"`
	PricingKind        DealKind        `json:"pricing_kind" validate:"required,oneof=FIXED_DISCOUNT PERCENTAGE_DISCOUNT SPECIAL_PRICE"`
	PricingValue       decimal.Decimal `json:"pricing_value" validate:"required"`
}

// toInput maps the request onto domain targets, enforcing at most one field
// per targeting axis.
func (r createDealRequest) toInput() (CreateDealInput, error) {
	customer := AllCustomers()
	customerFields := 0
	var err error
	if r.CustomerID != nil {
		customerFields++
		if customer, err = ForCustomer(*r.CustomerID); err != nil {
			return CreateDealInput{}, err
		}
	}
	if r.BuyingGroupID != nil {
		customerFields++
		if customer, err = ForBuyingGroup(*r.BuyingGroupID); err != nil {
			return CreateDealInput{}, err
		}
	}
	if r.CustomerCategoryID != nil {
		customerFields++
		if customer, err = ForCustomerCategory(*r.CustomerCategoryID); err != nil {
			return CreateDealInput{}, err
		}
	}
	if customerFields > 1 {
		return CreateDealInput{}, shared.NewValidationError("customer targeting",
			"at most one of customer_id, buying_group_id, customer_category_id")
	}

	stock := AllStock()
	if r.StockItemID != nil && r.StockGroupID != nil {
		return CreateDealInput{}, shared.NewValidationError("stock targeting",
			"at most one of stock_item_id, stock_group_id")
	}
	if r.StockItemID != nil {
		if stock, err = ForStockItem(*r.StockItemID); err != nil {
			return CreateDealInput{}, err
		}
	}
	if r.StockGroupID != nil {
		if stock, err = ForStockGroup(*r.StockGroupID); err != nil {
			return CreateDealInput{}, err
		}
	}

	dealPricing, err := ReconstructDealPricing(r.PricingKind, r.PricingValue)
	if err != nil {
		return CreateDealInput{}, err
	}

	return CreateDealInput{
		Description: r.Description,
		Customer:    customer,
		Stock:       stock,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Pricing:     dealPricing,
	}, nil
}

type extendDealRequest struct {
	EndDate time.Time `json:"end_date" validate:"required"`
}

type repriceDealRequest struct {
	PricingKind  DealKind        `json:"pricing_kind" validate:"required,oneof=FIXED_DISCOUNT PERCENTAGE_DISCOUNT SPECIAL_PRICE"`
	PricingValue decimal.Decimal `json:"pricing_value" validate:"required"`
}

type resolvePriceRequest struct {
	CustomerID         int64           `json:"customer_id" validate:"required,gt=0"`
	CustomerCategoryID *int64          `json:"customer_category_id,omitempty" validate:"omitempty,gt=0"`
	BuyingGroupID      *int64          `json:"buying_group_id,omitempty" validate:"omitempty,gt=0"`
	StockItemID        int64           `json:"stock_item_id" validate:"required,gt=0"`
	StockGroupID       *int64          `json:"stock_group_id,omitempty" validate:"omitempty,gt=0"`
	BasePrice          decimal.Decimal `json:"base_price"`
}

type dealResponse struct {
	ID                 int64           `json:"id"`
	Description        string          `json:"description"`
	CustomerKind       string          `json:"customer_kind"`
	CustomerTargetID   *int64          `json:"customer_target_id,omitempty"`
	StockKind          string          `json:"stock_kind"`
	StockTargetID      *int64          `json:"stock_target_id,omitempty"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	PricingKind        DealKind        `json:"pricing_kind"`
	PricingValue       decimal.Decimal `json:"pricing_value"`
	SpecificityLevel   int             `json:"specificity_level"`
	LastEditedBy       int64           `json:"last_edited_by"`
	LastEditedWhen     time.Time       `json:"last_edited_when"`
}

func dealToResponse(d *SpecialDeal) dealResponse {
	resp := dealResponse{
		Description:      d.Description(),
		CustomerKind:     string(d.Customer().Kind()),
		StockKind:        string(d.Stock().Kind()),
		StartDate:        d.StartDate(),
		EndDate:          d.EndDate(),
		PricingKind:      d.Pricing().Kind(),
		PricingValue:     d.Pricing().Value(),
		SpecificityLevel: d.SpecificityLevel(),
		LastEditedBy:     d.LastEditedBy(),
		LastEditedWhen:   d.LastEditedWhen(),
	}
	if id, ok := d.ID().Value(); ok {
		resp.ID = id
	}
	if id, ok := d.Customer().TargetID(); ok {
		resp.CustomerTargetID = &id
	}
	if id, ok := d.Stock().TargetID(); ok {
		resp.StockTargetID = &id
	}
	return resp
}

type resolvePriceResponse struct {
	DealID         *int64          `json:"deal_id,omitempty"`
	Description    *string         `json:"description,omitempty"`
	BasePrice      decimal.Decimal `json:"base_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Savings        decimal.Decimal `json:"savings"`
}

type listDealsResponse struct {
	Deals      []dealResponse    `json:"deals"`
	Pagination shared.Pagination `json:"pagination"`
}
