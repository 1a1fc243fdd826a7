// Package pricing implements special-deal pricing: a tagged pricing strategy,
// deal targeting over customer and stock axes, and resolution of the most
// specific deal applying to a sales context.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DealKind names the pricing strategy carried by a deal.
type DealKind string

const (
	DealKindFixedDiscount      DealKind = "FIXED_DISCOUNT"
	DealKindPercentageDiscount DealKind = "PERCENTAGE_DISCOUNT"
	DealKindSpecialPrice       DealKind = "SPECIAL_PRICE"
)

var hundred = decimal.NewFromInt(100)

// DealPricing is a tagged union over the three mutually exclusive pricing
// strategies. The tag makes "exactly one strategy set" structural; the
// constructors only need to range-check their single parameter.
type DealPricing struct {
	kind  DealKind
	value decimal.Decimal
}

func newDealPricing(kind DealKind, value decimal.Decimal) (DealPricing, error) {
	switch kind {
	case DealKindFixedDiscount:
		if !value.IsPositive() {
			return DealPricing{}, shared.NewValidationError("discountAmount", "must be positive")
		}
	case DealKindPercentageDiscount:
		if !value.IsPositive() || value.GreaterThanOrEqual(hundred) {
			return DealPricing{}, shared.NewValidationError("discountPercentage", "must be between 0 and 100 exclusive")
		}
	case DealKindSpecialPrice:
		if !value.IsPositive() {
			return DealPricing{}, shared.NewValidationError("unitPrice", "must be positive")
		}
	default:
		return DealPricing{}, shared.NewValidationError("pricing", "no pricing strategy set")
	}
	return DealPricing{kind: kind, value: value}, nil
}

// NewFixedDiscount builds a per-unit fixed amount discount.
func NewFixedDiscount(amount decimal.Decimal) (DealPricing, error) {
	return newDealPricing(DealKindFixedDiscount, amount)
}

// NewPercentageDiscount builds a percentage discount in (0,100).
func NewPercentageDiscount(percentage decimal.Decimal) (DealPricing, error) {
	return newDealPricing(DealKindPercentageDiscount, percentage)
}

// NewSpecialPrice builds an absolute replacement price.
func NewSpecialPrice(unitPrice decimal.Decimal) (DealPricing, error) {
	return newDealPricing(DealKindSpecialPrice, unitPrice)
}

// ReconstructDealPricing rehydrates a stored strategy through the same
// validation path as the constructors.
func ReconstructDealPricing(kind DealKind, value decimal.Decimal) (DealPricing, error) {
	return newDealPricing(kind, value)
}

// Kind returns the strategy tag.
func (p DealPricing) Kind() DealKind { return p.kind }

// Value returns the strategy's single parameter: the discount amount, the
// discount percentage, or the special price, depending on Kind.
func (p DealPricing) Value() decimal.Decimal { return p.value }

// IsSpecialPrice reports whether the strategy replaces the base price
// outright. Special prices are never group-wide, so SpecialDeal requires a
// specific stock item for them.
func (p DealPricing) IsSpecialPrice() bool { return p.kind == DealKindSpecialPrice }

// CalculateEffectivePrice applies the strategy to a base unit price.
// Fixed discounts floor at zero; special prices ignore the base entirely.
func (p DealPricing) CalculateEffectivePrice(basePrice decimal.Decimal) (decimal.Decimal, error) {
	if basePrice.IsNegative() {
		return decimal.Decimal{}, shared.NewValidationError("basePrice", "cannot be negative")
	}
	switch p.kind {
	case DealKindFixedDiscount:
		effective := basePrice.Sub(p.value)
		if effective.IsNegative() {
			return decimal.Zero, nil
		}
		return effective, nil
	case DealKindPercentageDiscount:
		return basePrice.Mul(hundred.Sub(p.value)).Div(hundred), nil
	case DealKindSpecialPrice:
		return p.value, nil
	default:
		// unreachable when built through the constructors
		return decimal.Decimal{}, shared.NewValidationError("pricing", "no pricing strategy set")
	}
}

// CalculateSavings returns how much the strategy saves against the base
// price, floored at zero for special prices above the base.
func (p DealPricing) CalculateSavings(basePrice decimal.Decimal) (decimal.Decimal, error) {
	effective, err := p.CalculateEffectivePrice(basePrice)
	if err != nil {
		return decimal.Decimal{}, err
	}
	savings := basePrice.Sub(effective)
	if savings.IsNegative() {
		return decimal.Zero, nil
	}
	return savings, nil
}
