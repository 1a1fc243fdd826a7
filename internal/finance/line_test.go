package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCalculateLineDerivedAmounts(t *testing.T) {
	lf, err := CalculateLine(10, decPtr("32.50"), dec("15"), dec("20"))
	require.NoError(t, err)

	require.True(t, lf.ExtendedPrice().Equal(dec("325")), "extended price %s", lf.ExtendedPrice())
	require.True(t, lf.TaxAmount().Equal(dec("48.75")), "tax %s", lf.TaxAmount())
	require.True(t, lf.TotalIncludingTax().Equal(dec("373.75")))
	require.True(t, lf.LineProfit().Equal(dec("125")))

	margin, ok := lf.ProfitMarginPercentage()
	require.True(t, ok)
	require.InDelta(t, 38.46, margin.InexactFloat64(), 0.01)
}

func TestCalculateLineRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int64
		unitPrice *decimal.Decimal
		taxRate   decimal.Decimal
		costPrice decimal.Decimal
	}{
		{"zero quantity", 0, decPtr("10"), dec("15"), decimal.Zero},
		{"negative quantity", -3, decPtr("10"), dec("15"), decimal.Zero},
		{"negative unit price", 5, decPtr("-1"), dec("15"), decimal.Zero},
		{"tax rate above 100", 5, decPtr("10"), dec("100.01"), decimal.Zero},
		{"negative tax rate", 5, decPtr("10"), dec("-0.01"), decimal.Zero},
		{"negative cost", 5, decPtr("10"), dec("15"), dec("-2")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CalculateLine(tc.quantity, tc.unitPrice, tc.taxRate, tc.costPrice)
			require.Error(t, err)
			require.True(t, shared.IsValidation(err))
		})
	}
}

func TestFreeLineHasNoChargeAndNoMargin(t *testing.T) {
	lf, err := CalculateFreeLine(4, dec("7.50"))
	require.NoError(t, err)

	require.True(t, lf.IsFreeOfCharge())
	require.True(t, lf.ExtendedPrice().IsZero())
	require.True(t, lf.TaxAmount().IsZero())
	require.True(t, lf.LineProfit().Equal(dec("-30")))

	_, ok := lf.ProfitMarginPercentage()
	require.False(t, ok, "margin undefined for zero extended price")
}

func TestWithQuantityRecomputesEverything(t *testing.T) {
	lf, err := CalculateLine(10, decPtr("32.50"), dec("15"), dec("20"))
	require.NoError(t, err)

	doubled, err := lf.WithQuantity(20)
	require.NoError(t, err)
	require.True(t, doubled.ExtendedPrice().Equal(dec("650")))
	require.True(t, doubled.TaxAmount().Equal(dec("97.5")))

	// original untouched
	require.True(t, lf.ExtendedPrice().Equal(dec("325")))

	_, err = lf.WithQuantity(0)
	require.Error(t, err)
}

func TestWithUnitPriceToFree(t *testing.T) {
	lf, err := CalculateLine(3, decPtr("9.99"), dec("10"), decimal.Zero)
	require.NoError(t, err)

	free, err := lf.WithUnitPrice(nil)
	require.NoError(t, err)
	require.True(t, free.IsFreeOfCharge())
	require.True(t, free.TaxAmount().IsZero())
}

func TestReconstructLineRejectsDrift(t *testing.T) {
	_, err := ReconstructLine(10, decPtr("32.50"), dec("15"), dec("20"), dec("325"), dec("48.75"), dec("125"))
	require.NoError(t, err)

	// drift within a cent survives rounding done by older writers
	_, err = ReconstructLine(10, decPtr("32.50"), dec("15"), dec("20"), dec("325.009"), dec("48.75"), dec("125"))
	require.NoError(t, err)

	_, err = ReconstructLine(10, decPtr("32.50"), dec("15"), dec("20"), dec("326"), dec("48.75"), dec("125"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestOrderLineFinancialsDerivedOnRead(t *testing.T) {
	olf, err := CalculateOrderLine(6, decPtr("12.25"), dec("20"))
	require.NoError(t, err)

	require.True(t, olf.ExtendedPrice().Equal(dec("73.5")))
	require.True(t, olf.TaxAmount().Equal(dec("14.7")))
	require.True(t, olf.TotalIncludingTax().Equal(dec("88.2")))

	reduced, err := olf.WithQuantity(2)
	require.NoError(t, err)
	require.True(t, reduced.ExtendedPrice().Equal(dec("24.5")))
}

func TestOrderLineFreeOfCharge(t *testing.T) {
	olf, err := CalculateFreeOrderLine(5)
	require.NoError(t, err)
	require.True(t, olf.IsFreeOfCharge())
	require.True(t, olf.TotalIncludingTax().IsZero())

	_, err = CalculateOrderLine(5, decPtr("-0.01"), decimal.Zero)
	require.Error(t, err)
}

func TestStockQuantityScale(t *testing.T) {
	q, err := NewStockQuantity(dec("-2.125"))
	require.NoError(t, err)
	require.False(t, q.IsInbound())

	_, err = NewStockQuantity(dec("0"))
	require.Error(t, err)

	_, err = NewStockQuantity(dec("1.0001"))
	require.Error(t, err)
}
