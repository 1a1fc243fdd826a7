package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// dealRecord is the flat row shape shared by the pgx repository and the
// redis cache. Targeting axes flatten to kind+id pairs; rehydration always
// goes back through the domain constructors.
type dealRecord struct {
	ID             int64              `json:"id"`
	Description    string             `json:"description"`
	CustomerKind   CustomerTargetKind `json:"customer_kind"`
	CustomerID     int64              `json:"customer_id,omitempty"`
	StockKind      StockTargetKind    `json:"stock_kind"`
	StockID        int64              `json:"stock_id,omitempty"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	PricingKind    DealKind           `json:"pricing_kind"`
	PricingValue   decimal.Decimal    `json:"pricing_value"`
	LastEditedBy   int64              `json:"last_edited_by"`
	LastEditedWhen time.Time          `json:"last_edited_when"`
}

func recordFromDeal(d *SpecialDeal) dealRecord {
	rec := dealRecord{
		Description:    d.Description(),
		CustomerKind:   d.Customer().Kind(),
		StockKind:      d.Stock().Kind(),
		StartDate:      d.StartDate(),
		EndDate:        d.EndDate(),
		PricingKind:    d.Pricing().Kind(),
		PricingValue:   d.Pricing().Value(),
		LastEditedBy:   d.LastEditedBy(),
		LastEditedWhen: d.LastEditedWhen(),
	}
	if id, ok := d.ID().Value(); ok {
		rec.ID = id
	}
	if id, ok := d.Customer().TargetID(); ok {
		rec.CustomerID = id
	}
	if id, ok := d.Stock().TargetID(); ok {
		rec.StockID = id
	}
	return rec
}

func (r dealRecord) toDeal() (*SpecialDeal, error) {
	customer, err := customerTargetFrom(r.CustomerKind, r.CustomerID)
	if err != nil {
		return nil, err
	}
	stock, err := stockTargetFrom(r.StockKind, r.StockID)
	if err != nil {
		return nil, err
	}
	dealPricing, err := ReconstructDealPricing(r.PricingKind, r.PricingValue)
	if err != nil {
		return nil, err
	}
	return ReconstructSpecialDeal(r.ID, r.Description, customer, stock, r.StartDate, r.EndDate, dealPricing, r.LastEditedBy, r.LastEditedWhen)
}

func customerTargetFrom(kind CustomerTargetKind, id int64) (CustomerTarget, error) {
	switch kind {
	case CustomerTargetCustomer:
		return ForCustomer(id)
	case CustomerTargetGroup:
		return ForBuyingGroup(id)
	case CustomerTargetCategory:
		return ForCustomerCategory(id)
	default:
		return AllCustomers(), nil
	}
}

func stockTargetFrom(kind StockTargetKind, id int64) (StockTarget, error) {
	switch kind {
	case StockTargetItem:
		return ForStockItem(id)
	case StockTargetGroup:
		return ForStockGroup(id)
	default:
		return AllStock(), nil
	}
}
