package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testActor(t *testing.T) shared.ActorContext {
	t.Helper()
	actor, err := shared.NewActor(9, date(2024, time.January, 1))
	require.NoError(t, err)
	return actor
}

func i64(v int64) *int64 { return &v }

func mustDeal(t *testing.T, customer CustomerTarget, stock StockTarget) *SpecialDeal {
	t.Helper()
	pricing, err := NewPercentageDiscount(dec("10"))
	require.NoError(t, err)
	deal, err := NewSpecialDeal("January promotion", customer, stock,
		date(2024, time.January, 1), date(2024, time.January, 31), pricing, testActor(t))
	require.NoError(t, err)
	return deal
}

func TestDealActivityWindow(t *testing.T) {
	deal := mustDeal(t, AllCustomers(), AllStock())

	require.True(t, deal.IsActiveOn(date(2024, time.January, 15)))
	require.True(t, deal.IsActiveOn(date(2024, time.January, 1)), "start date inclusive")
	require.True(t, deal.IsActiveOn(date(2024, time.January, 31)), "end date inclusive")
	require.False(t, deal.IsActiveOn(date(2024, time.February, 1)))
	require.False(t, deal.IsActiveOn(date(2023, time.December, 31)))
}

func TestCustomerTargetingMatches(t *testing.T) {
	target, err := ForCustomer(5)
	require.NoError(t, err)
	deal := mustDeal(t, target, AllStock())
	on := date(2024, time.January, 15)

	require.True(t, deal.AppliesToCustomer(on, 5, nil, nil))
	require.False(t, deal.AppliesToCustomer(on, 7, nil, nil))
	require.False(t, deal.AppliesToCustomer(date(2024, time.February, 1), 5, nil, nil),
		"inactive deal applies to nobody")
}

func TestBuyingGroupAndCategoryTargeting(t *testing.T) {
	on := date(2024, time.January, 15)

	group, err := ForBuyingGroup(3)
	require.NoError(t, err)
	groupDeal := mustDeal(t, group, AllStock())
	require.True(t, groupDeal.AppliesToCustomer(on, 99, nil, i64(3)))
	require.False(t, groupDeal.AppliesToCustomer(on, 99, nil, i64(4)))
	require.False(t, groupDeal.AppliesToCustomer(on, 99, nil, nil))

	category, err := ForCustomerCategory(8)
	require.NoError(t, err)
	catDeal := mustDeal(t, category, AllStock())
	require.True(t, catDeal.AppliesToCustomer(on, 99, i64(8), nil))
	require.False(t, catDeal.AppliesToCustomer(on, 99, i64(9), nil))
}

func TestStockTargetingMatches(t *testing.T) {
	on := date(2024, time.January, 15)

	item, err := ForStockItem(42)
	require.NoError(t, err)
	itemDeal := mustDeal(t, AllCustomers(), item)
	require.True(t, itemDeal.AppliesToStock(on, 42, nil))
	require.False(t, itemDeal.AppliesToStock(on, 43, nil))

	group, err := ForStockGroup(6)
	require.NoError(t, err)
	groupDeal := mustDeal(t, AllCustomers(), group)
	require.True(t, groupDeal.AppliesToStock(on, 42, i64(6)))
	require.False(t, groupDeal.AppliesToStock(on, 42, nil))
}

func TestAppliesToContextIsConjunction(t *testing.T) {
	customer, err := ForCustomer(5)
	require.NoError(t, err)
	item, err := ForStockItem(42)
	require.NoError(t, err)
	deal := mustDeal(t, customer, item)
	on := date(2024, time.January, 15)

	require.True(t, deal.AppliesToContext(on, DealContext{CustomerID: 5, StockItemID: 42}))
	require.False(t, deal.AppliesToContext(on, DealContext{CustomerID: 5, StockItemID: 43}))
	require.False(t, deal.AppliesToContext(on, DealContext{CustomerID: 6, StockItemID: 42}))
}

func TestSpecificityLevels(t *testing.T) {
	customer, _ := ForCustomer(1)
	group, _ := ForBuyingGroup(1)
	category, _ := ForCustomerCategory(1)
	item, _ := ForStockItem(1)
	stockGroup, _ := ForStockGroup(1)

	require.Equal(t, 0, mustDeal(t, AllCustomers(), AllStock()).SpecificityLevel())
	require.Equal(t, 100, mustDeal(t, customer, AllStock()).SpecificityLevel())
	require.Equal(t, 50, mustDeal(t, group, AllStock()).SpecificityLevel())
	require.Equal(t, 25, mustDeal(t, category, AllStock()).SpecificityLevel())
	require.Equal(t, 110, mustDeal(t, customer, item).SpecificityLevel())
	require.Equal(t, 105, mustDeal(t, customer, stockGroup).SpecificityLevel())
	require.Equal(t, 5, mustDeal(t, AllCustomers(), stockGroup).SpecificityLevel())
}

func TestSpecialPriceRequiresSpecificStockItem(t *testing.T) {
	price, err := NewSpecialPrice(dec("9.99"))
	require.NoError(t, err)

	_, err = NewSpecialDeal("special", AllCustomers(), AllStock(),
		date(2024, time.January, 1), date(2024, time.January, 31), price, testActor(t))
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))

	group, err := ForStockGroup(3)
	require.NoError(t, err)
	_, err = NewSpecialDeal("special", AllCustomers(), group,
		date(2024, time.January, 1), date(2024, time.January, 31), price, testActor(t))
	require.Error(t, err)

	item, err := ForStockItem(42)
	require.NoError(t, err)
	_, err = NewSpecialDeal("special", AllCustomers(), item,
		date(2024, time.January, 1), date(2024, time.January, 31), price, testActor(t))
	require.NoError(t, err)
}

func TestDealConstructionValidation(t *testing.T) {
	pricing, err := NewFixedDiscount(dec("5"))
	require.NoError(t, err)

	_, err = NewSpecialDeal("  ", AllCustomers(), AllStock(),
		date(2024, time.January, 1), date(2024, time.January, 31), pricing, testActor(t))
	require.Error(t, err, "blank description")

	_, err = NewSpecialDeal("promo", AllCustomers(), AllStock(),
		date(2024, time.January, 31), date(2024, time.January, 1), pricing, testActor(t))
	require.Error(t, err, "end before start")

	_, err = NewSpecialDeal("promo", AllCustomers(), AllStock(),
		date(2024, time.January, 1), date(2024, time.January, 1), pricing, testActor(t))
	require.Error(t, err, "end equal to start")
}

func TestExtendValidityForwardOnly(t *testing.T) {
	deal := mustDeal(t, AllCustomers(), AllStock())
	actor := testActor(t)

	err := deal.ExtendValidity(date(2024, time.January, 15), actor)
	require.Error(t, err, "cannot shrink the window")

	require.NoError(t, deal.ExtendValidity(date(2024, time.February, 29), actor))
	require.True(t, deal.IsActiveOn(date(2024, time.February, 15)))
}

func TestRepricingSpecialPriceOnBroadDealFails(t *testing.T) {
	deal := mustDeal(t, AllCustomers(), AllStock())
	price, err := NewSpecialPrice(dec("5"))
	require.NoError(t, err)

	err = deal.UpdatePricing(price, testActor(t))
	require.Error(t, err)

	discount, err := NewFixedDiscount(dec("2"))
	require.NoError(t, err)
	require.NoError(t, deal.UpdatePricing(discount, testActor(t)))
	require.Equal(t, DealKindFixedDiscount, deal.Pricing().Kind())
}

func TestRecordRoundTrip(t *testing.T) {
	customer, err := ForBuyingGroup(3)
	require.NoError(t, err)
	item, err := ForStockItem(42)
	require.NoError(t, err)
	deal := mustDeal(t, customer, item)
	require.NoError(t, deal.ID().Assign(17))

	rec := recordFromDeal(deal)
	back, err := rec.toDeal()
	require.NoError(t, err)

	id, ok := back.ID().Value()
	require.True(t, ok)
	require.Equal(t, int64(17), id)
	require.Equal(t, deal.SpecificityLevel(), back.SpecificityLevel())
	require.Equal(t, deal.Description(), back.Description())
	require.True(t, back.Pricing().Value().Equal(deal.Pricing().Value()))
}
