package finance

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LineFinancials is the pricing, tax and profit calculation for an invoice
// line. Instances are immutable; every update path recomputes through
// CalculateLine so the derived amounts can never drift from their inputs.
type LineFinancials struct {
	quantity      int64
	unitPrice     *decimal.Decimal
	taxRate       decimal.Decimal
	costPrice     decimal.Decimal
	extendedPrice decimal.Decimal
	taxAmount     decimal.Decimal
	lineProfit    decimal.Decimal
}

// CalculateLine derives all amounts from the raw inputs. A nil unitPrice
// means the line is free of charge.
func CalculateLine(quantity int64, unitPrice *decimal.Decimal, taxRate decimal.Decimal, costPrice decimal.Decimal) (LineFinancials, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return LineFinancials{}, err
	}
	if err := ValidateUnitPrice(unitPrice); err != nil {
		return LineFinancials{}, err
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return LineFinancials{}, err
	}
	if err := ValidateCostPrice(costPrice); err != nil {
		return LineFinancials{}, err
	}

	qty := decimal.NewFromInt(quantity)
	extended := effectiveUnitPrice(unitPrice).Mul(qty)

	var priceCopy *decimal.Decimal
	if unitPrice != nil {
		p := *unitPrice
		priceCopy = &p
	}

	return LineFinancials{
		quantity:      quantity,
		unitPrice:     priceCopy,
		taxRate:       taxRate,
		costPrice:     costPrice,
		extendedPrice: extended,
		taxAmount:     taxOn(extended, taxRate),
		lineProfit:    extended.Sub(costPrice.Mul(qty)),
	}, nil
}

// CalculateFreeLine builds financials for goods given away free of charge:
// no unit price, no tax, profit is the negated cost.
func CalculateFreeLine(quantity int64, costPrice decimal.Decimal) (LineFinancials, error) {
	return CalculateLine(quantity, nil, decimal.Zero, costPrice)
}

// ReconstructLine rehydrates stored financials, re-checking that the stored
// derived amounts are consistent with the inputs within a cent. Drift means
// the row was corrupted outside this package and is rejected.
func ReconstructLine(quantity int64, unitPrice *decimal.Decimal, taxRate, costPrice, extendedPrice, taxAmount, lineProfit decimal.Decimal) (LineFinancials, error) {
	lf, err := CalculateLine(quantity, unitPrice, taxRate, costPrice)
	if err != nil {
		return LineFinancials{}, err
	}
	if !withinTolerance(lf.extendedPrice, extendedPrice) {
		return LineFinancials{}, shared.Validationf("extendedPrice",
			"stored %s does not match computed %s", extendedPrice, lf.extendedPrice)
	}
	if !withinTolerance(lf.taxAmount, taxAmount) {
		return LineFinancials{}, shared.Validationf("taxAmount",
			"stored %s does not match computed %s", taxAmount, lf.taxAmount)
	}
	if !withinTolerance(lf.lineProfit, lineProfit) {
		return LineFinancials{}, shared.Validationf("lineProfit",
			"stored %s does not match computed %s", lineProfit, lf.lineProfit)
	}
	return lf, nil
}

// WithQuantity returns a new instance recomputed for the new quantity.
func (f LineFinancials) WithQuantity(quantity int64) (LineFinancials, error) {
	return CalculateLine(quantity, f.unitPrice, f.taxRate, f.costPrice)
}

// WithUnitPrice returns a new instance recomputed for the new unit price.
func (f LineFinancials) WithUnitPrice(unitPrice *decimal.Decimal) (LineFinancials, error) {
	return CalculateLine(f.quantity, unitPrice, f.taxRate, f.costPrice)
}

// WithTaxRate returns a new instance recomputed for the new tax rate.
func (f LineFinancials) WithTaxRate(taxRate decimal.Decimal) (LineFinancials, error) {
	return CalculateLine(f.quantity, f.unitPrice, taxRate, f.costPrice)
}

// Quantity returns the line quantity.
func (f LineFinancials) Quantity() int64 { return f.quantity }

// UnitPrice returns the unit price and whether one was supplied.
func (f LineFinancials) UnitPrice() (decimal.Decimal, bool) {
	if f.unitPrice == nil {
		return decimal.Zero, false
	}
	return *f.unitPrice, true
}

// EffectiveUnitPrice treats an absent price as zero.
func (f LineFinancials) EffectiveUnitPrice() decimal.Decimal {
	return effectiveUnitPrice(f.unitPrice)
}

// IsFreeOfCharge reports whether the line carries no charge.
func (f LineFinancials) IsFreeOfCharge() bool {
	return f.unitPrice == nil || f.unitPrice.IsZero()
}

// TaxRate returns the applied percentage rate.
func (f LineFinancials) TaxRate() decimal.Decimal { return f.taxRate }

// CostPrice returns the per-unit cost used for profit.
func (f LineFinancials) CostPrice() decimal.Decimal { return f.costPrice }

// ExtendedPrice is effective unit price times quantity.
func (f LineFinancials) ExtendedPrice() decimal.Decimal { return f.extendedPrice }

// TaxAmount is the tax due on the extended price.
func (f LineFinancials) TaxAmount() decimal.Decimal { return f.taxAmount }

// LineProfit is extended price minus total cost. Negative for loss-making
// lines, including free items with a real cost.
func (f LineFinancials) LineProfit() decimal.Decimal { return f.lineProfit }

// TotalIncludingTax is extended price plus tax.
func (f LineFinancials) TotalIncludingTax() decimal.Decimal {
	return f.extendedPrice.Add(f.taxAmount)
}

// ProfitMarginPercentage returns profit as a percentage of the extended
// price. The second return is false when the extended price is zero, where
// the margin is undefined.
func (f LineFinancials) ProfitMarginPercentage() (decimal.Decimal, bool) {
	if f.extendedPrice.IsZero() {
		return decimal.Zero, false
	}
	return f.lineProfit.Div(f.extendedPrice).Mul(hundred), true
}
