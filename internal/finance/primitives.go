// Package finance holds the immutable financial value objects shared by
// order lines, invoice lines and ledger transactions. All monetary math uses
// shopspring decimals; nothing here touches storage or the clock.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// moneyTolerance is the maximum drift allowed when rehydrating stored
	// derived amounts.
	moneyTolerance = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
)

// ValidateQuantity guards the positive integer quantity used on order and
// invoice lines.
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}
	return nil
}

// StockQuantity is a signed movement quantity with at most three decimal
// places; the sign encodes direction.
type StockQuantity struct {
	value decimal.Decimal
}

// NewStockQuantity validates scale and rejects zero movements.
func NewStockQuantity(value decimal.Decimal) (StockQuantity, error) {
	if value.IsZero() {
		return StockQuantity{}, shared.NewValidationError("quantity", "movement quantity cannot be zero")
	}
	if value.Exponent() < -3 {
		return StockQuantity{}, shared.NewValidationError("quantity", "at most three decimal places")
	}
	return StockQuantity{value: value}, nil
}

// Value returns the signed quantity.
func (q StockQuantity) Value() decimal.Decimal { return q.value }

// IsInbound reports whether the movement increases stock on hand.
func (q StockQuantity) IsInbound() bool { return q.value.IsPositive() }

// ValidateTaxRate guards a percentage rate in [0,100].
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return shared.NewValidationError("taxRate", "must be between 0 and 100")
	}
	return nil
}

// ValidateUnitPrice guards an optional unit price. A nil price means the item
// is given free of charge.
func ValidateUnitPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return shared.NewValidationError("unitPrice", "cannot be negative")
	}
	return nil
}

// ValidateCostPrice guards a non-negative cost price.
func ValidateCostPrice(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewValidationError("costPrice", "cannot be negative")
	}
	return nil
}

// effectiveUnitPrice treats an absent price as zero.
func effectiveUnitPrice(price *decimal.Decimal) decimal.Decimal {
	if price == nil {
		return decimal.Zero
	}
	return *price
}

// taxOn computes rate percent of the given amount.
func taxOn(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// withinTolerance reports |a-b| <= 0.01.
func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(moneyTolerance)
}
