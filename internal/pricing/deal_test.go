package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPercentageDiscountEffectivePrice(t *testing.T) {
	p, err := NewPercentageDiscount(dec("15"))
	require.NoError(t, err)

	effective, err := p.CalculateEffectivePrice(dec("100"))
	require.NoError(t, err)
	require.True(t, effective.Equal(dec("85")), "got %s", effective)

	savings, err := p.CalculateSavings(dec("100"))
	require.NoError(t, err)
	require.True(t, savings.Equal(dec("15")))
}

func TestFixedDiscountFloorsAtZero(t *testing.T) {
	p, err := NewFixedDiscount(dec("10"))
	require.NoError(t, err)

	effective, err := p.CalculateEffectivePrice(dec("5"))
	require.NoError(t, err)
	require.True(t, effective.IsZero(), "got %s", effective)

	savings, err := p.CalculateSavings(dec("5"))
	require.NoError(t, err)
	require.True(t, savings.Equal(dec("5")), "savings capped at the base price")
}

func TestSpecialPriceIgnoresBase(t *testing.T) {
	p, err := NewSpecialPrice(dec("49.99"))
	require.NoError(t, err)

	effective, err := p.CalculateEffectivePrice(dec("200"))
	require.NoError(t, err)
	require.True(t, effective.Equal(dec("49.99")))

	// special price above the base saves nothing, never a negative saving
	effective, err = p.CalculateEffectivePrice(dec("10"))
	require.NoError(t, err)
	require.True(t, effective.Equal(dec("49.99")))
	savings, err := p.CalculateSavings(dec("10"))
	require.NoError(t, err)
	require.True(t, savings.IsZero())
}

func TestDealPricingConstructorRanges(t *testing.T) {
	_, err := NewFixedDiscount(dec("0"))
	require.Error(t, err)

	_, err = NewPercentageDiscount(dec("0"))
	require.Error(t, err)
	_, err = NewPercentageDiscount(dec("100"))
	require.Error(t, err)
	_, err = NewPercentageDiscount(dec("99.99"))
	require.NoError(t, err)

	_, err = NewSpecialPrice(dec("-1"))
	require.Error(t, err)
}

func TestZeroValuePricingIsRejected(t *testing.T) {
	var p DealPricing
	_, err := p.CalculateEffectivePrice(dec("100"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	_, err = ReconstructDealPricing("", dec("10"))
	require.Error(t, err)
}

func TestEffectivePriceRejectsNegativeBase(t *testing.T) {
	p, err := NewPercentageDiscount(dec("20"))
	require.NoError(t, err)

	_, err = p.CalculateEffectivePrice(dec("-0.01"))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}
