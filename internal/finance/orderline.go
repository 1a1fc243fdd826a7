package finance

import (
	"github.com/shopspring/decimal"
)

// OrderLineFinancials is the pricing and tax calculation for an order line.
// Unlike LineFinancials it tracks no cost or profit and stores nothing
// derived: extended price and tax are computed on read, so there is no
// consistency invariant to re-check on rehydration.
type OrderLineFinancials struct {
	quantity  int64
	unitPrice *decimal.Decimal
	taxRate   decimal.Decimal
}

// CalculateOrderLine validates and builds order line financials.
func CalculateOrderLine(quantity int64, unitPrice *decimal.Decimal, taxRate decimal.Decimal) (OrderLineFinancials, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return OrderLineFinancials{}, err
	}
	if err := ValidateUnitPrice(unitPrice); err != nil {
		return OrderLineFinancials{}, err
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return OrderLineFinancials{}, err
	}

	var priceCopy *decimal.Decimal
	if unitPrice != nil {
		p := *unitPrice
		priceCopy = &p
	}
	return OrderLineFinancials{quantity: quantity, unitPrice: priceCopy, taxRate: taxRate}, nil
}

// CalculateFreeOrderLine builds financials for a free-of-charge order line.
func CalculateFreeOrderLine(quantity int64) (OrderLineFinancials, error) {
	return CalculateOrderLine(quantity, nil, decimal.Zero)
}

// WithQuantity returns a new instance with the quantity replaced.
func (f OrderLineFinancials) WithQuantity(quantity int64) (OrderLineFinancials, error) {
	return CalculateOrderLine(quantity, f.unitPrice, f.taxRate)
}

// WithUnitPrice returns a new instance with the unit price replaced.
func (f OrderLineFinancials) WithUnitPrice(unitPrice *decimal.Decimal) (OrderLineFinancials, error) {
	return CalculateOrderLine(f.quantity, unitPrice, f.taxRate)
}

// WithTaxRate returns a new instance with the tax rate replaced.
func (f OrderLineFinancials) WithTaxRate(taxRate decimal.Decimal) (OrderLineFinancials, error) {
	return CalculateOrderLine(f.quantity, f.unitPrice, taxRate)
}

// Quantity returns the ordered quantity.
func (f OrderLineFinancials) Quantity() int64 { return f.quantity }

// UnitPrice returns the unit price and whether one was supplied.
func (f OrderLineFinancials) UnitPrice() (decimal.Decimal, bool) {
	if f.unitPrice == nil {
		return decimal.Zero, false
	}
	return *f.unitPrice, true
}

// EffectiveUnitPrice treats an absent price as zero.
func (f OrderLineFinancials) EffectiveUnitPrice() decimal.Decimal {
	return effectiveUnitPrice(f.unitPrice)
}

// IsFreeOfCharge reports whether the line carries no charge.
func (f OrderLineFinancials) IsFreeOfCharge() bool {
	return f.unitPrice == nil || f.unitPrice.IsZero()
}

// TaxRate returns the applied percentage rate.
func (f OrderLineFinancials) TaxRate() decimal.Decimal { return f.taxRate }

// ExtendedPrice is effective unit price times quantity, computed on read.
func (f OrderLineFinancials) ExtendedPrice() decimal.Decimal {
	return f.EffectiveUnitPrice().Mul(decimal.NewFromInt(f.quantity))
}

// TaxAmount is the tax due on the extended price, computed on read.
func (f OrderLineFinancials) TaxAmount() decimal.Decimal {
	return taxOn(f.ExtendedPrice(), f.taxRate)
}

// TotalIncludingTax is extended price plus tax.
func (f OrderLineFinancials) TotalIncludingTax() decimal.Decimal {
	return f.ExtendedPrice().Add(f.TaxAmount())
}
