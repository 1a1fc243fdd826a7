package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryOrderRepo struct {
	orders     map[int64]*Order
	nextID     int64
	nextLineID int64
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[int64]*Order)}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryOrderRepo) Create(ctx context.Context, order *Order) (int64, error) {
	r.nextID++
	r.orders[r.nextID] = order
	return r.nextID, nil
}

func (r *memoryOrderRepo) InsertLine(ctx context.Context, orderID int64, line *OrderLine) (int64, error) {
	if _, ok := r.orders[orderID]; !ok {
		return 0, shared.ErrNotFound
	}
	r.nextLineID++
	return r.nextLineID, nil
}

func (r *memoryOrderRepo) Get(ctx context.Context, id int64) (*Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (r *memoryOrderRepo) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	var out []*Order
	for id := int64(1); id <= r.nextID; id++ {
		order, ok := r.orders[id]
		if !ok {
			continue
		}
		if filter.CustomerID != nil && order.CustomerID() != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && order.Status() != *filter.Status {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

func (r *memoryOrderRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*Order, error) {
	var out []*Order
	for id := int64(1); id <= r.nextID; id++ {
		if order, ok := r.orders[id]; ok && order.IsDeliveryOverdue(asOf) {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *memoryOrderRepo) UpdateHeader(ctx context.Context, order *Order) error {
	id, ok := order.ID().Value()
	if !ok {
		return shared.NewStateError("update order", "order has no assigned id")
	}
	if _, exists := r.orders[id]; !exists {
		return shared.ErrNotFound
	}
	r.orders[id] = order
	return nil
}

func (r *memoryOrderRepo) UpdateLine(ctx context.Context, orderID int64, line *OrderLine) error {
	if _, ok := r.orders[orderID]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

type stubResolver struct {
	deal           *pricing.SpecialDeal
	effectivePrice decimal.Decimal
	calls          int
}

func (s *stubResolver) ResolvePrice(ctx context.Context, dealCtx pricing.DealContext, basePrice decimal.Decimal) (pricing.PriceResolution, error) {
	s.calls++
	if s.deal == nil {
		return pricing.PriceResolution{EffectivePrice: basePrice}, nil
	}
	return pricing.PriceResolution{
		Deal:           s.deal,
		EffectivePrice: s.effectivePrice,
		Savings:        basePrice.Sub(s.effectivePrice),
	}, nil
}

func testDeal(t *testing.T) *pricing.SpecialDeal {
	t.Helper()
	discount, err := pricing.NewPercentageDiscount(dec("10"))
	require.NoError(t, err)
	deal, err := pricing.ReconstructSpecialDeal(5, "winter promo", pricing.AllCustomers(), pricing.AllStock(),
		date(2024, time.January, 1), date(2024, time.December, 31), discount, 42, time.Now())
	require.NoError(t, err)
	return deal
}

func createInput() CreateOrderInput {
	price := dec("10.00")
	return CreateOrderInput{
		CustomerID:           3,
		SalespersonPersonID:  8,
		OrderDate:            date(2024, time.June, 1),
		ExpectedDeliveryDate: date(2024, time.June, 4),
		UndersupplyBackordered: true,
		Lines: []LineInput{
			{StockItemID: 100, Description: "chilli chocolate", PackageTypeID: 7, Quantity: 10, UnitPrice: &price, TaxRate: dec("15")},
		},
	}
}

func TestCreateAppliesResolvedDealPrice(t *testing.T) {
	repo := newMemoryOrderRepo()
	resolver := &stubResolver{deal: testDeal(t), effectivePrice: dec("9.00")}
	svc := NewService(repo, resolver, nil)

	order, err := svc.Create(context.Background(), createInput(), testActor(t))
	require.NoError(t, err)
	require.Equal(t, 1, resolver.calls)

	require.Len(t, order.Lines(), 1)
	unitPrice, ok := order.Lines()[0].Financials().UnitPrice()
	require.True(t, ok)
	require.True(t, unitPrice.Equal(dec("9.00")), "got %s", unitPrice)
	require.True(t, order.TotalExcludingTax().Equal(dec("90")), "got %s", order.TotalExcludingTax())

	id, assigned := order.ID().Value()
	require.True(t, assigned)
	require.Equal(t, int64(1), id)
	lineID, assigned := order.Lines()[0].ID().Value()
	require.True(t, assigned)
	require.Equal(t, int64(1), lineID)
}

func TestCreateSkipsResolutionForFreeLines(t *testing.T) {
	repo := newMemoryOrderRepo()
	resolver := &stubResolver{deal: testDeal(t), effectivePrice: dec("9.00")}
	svc := NewService(repo, resolver, nil)

	input := createInput()
	input.Lines[0].UnitPrice = nil

	order, err := svc.Create(context.Background(), input, testActor(t))
	require.NoError(t, err)
	require.Equal(t, 0, resolver.calls)
	require.True(t, order.Lines()[0].Financials().ExtendedPrice().IsZero())
}

func TestCreateWithoutResolverKeepsListPrice(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil)

	order, err := svc.Create(context.Background(), createInput(), testActor(t))
	require.NoError(t, err)
	unitPrice, ok := order.Lines()[0].Financials().UnitPrice()
	require.True(t, ok)
	require.True(t, unitPrice.Equal(dec("10.00")))
}

func TestPickingWorkflowThroughService(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	actor := testActor(t)

	order, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	orderID, _ := order.ID().Value()
	lineID, _ := order.Lines()[0].ID().Value()

	_, err = svc.AssignPicker(ctx, orderID, 15, actor)
	require.NoError(t, err)

	_, err = svc.RecordPick(ctx, orderID, lineID, 6, actor)
	require.NoError(t, err)

	_, err = svc.RecordPick(ctx, orderID, 999, 1, actor)
	require.ErrorIs(t, err, shared.ErrNotFound)

	updated, err := svc.CompletePicking(ctx, orderID, actor.At, actor)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPicked, updated.Status())

	_, err = svc.RecordPick(ctx, orderID, lineID, 1, actor)
	require.NoError(t, err)
}

func TestCreateBackorderCarriesRemainingQuantities(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	actor := testActor(t)

	order, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	orderID, _ := order.ID().Value()
	lineID, _ := order.Lines()[0].ID().Value()

	_, err = svc.AssignPicker(ctx, orderID, 15, actor)
	require.NoError(t, err)
	_, err = svc.RecordPick(ctx, orderID, lineID, 6, actor)
	require.NoError(t, err)

	_, err = svc.CreateBackorder(ctx, orderID, actor)
	require.True(t, shared.IsState(err), "uncompleted order cannot be backordered")

	_, err = svc.CompletePicking(ctx, orderID, actor.At, actor)
	require.NoError(t, err)

	backorder, err := svc.CreateBackorder(ctx, orderID, actor)
	require.NoError(t, err)
	require.Len(t, backorder.Lines(), 1)
	require.Equal(t, int64(4), backorder.Lines()[0].Quantity())

	original, err := svc.Get(ctx, orderID)
	require.NoError(t, err)
	linked, ok := original.BackorderOrderID()
	require.True(t, ok)
	backorderID, _ := backorder.ID().Value()
	require.Equal(t, backorderID, linked)

	_, err = svc.CreateBackorder(ctx, orderID, actor)
	require.True(t, shared.IsState(err), "backorder link is write-once")
}

func TestCreateBackorderRequiresPolicyAndShortfall(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	actor := testActor(t)

	input := createInput()
	input.UndersupplyBackordered = false
	order, err := svc.Create(ctx, input, actor)
	require.NoError(t, err)
	orderID, _ := order.ID().Value()

	_, err = svc.AssignPicker(ctx, orderID, 15, actor)
	require.NoError(t, err)
	_, err = svc.CompletePicking(ctx, orderID, actor.At, actor)
	require.NoError(t, err)

	_, err = svc.CreateBackorder(ctx, orderID, actor)
	require.True(t, shared.IsState(err), "policy forbids backorders")

	fully, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	fullyID, _ := fully.ID().Value()
	fullyLineID, _ := fully.Lines()[0].ID().Value()
	_, err = svc.AssignPicker(ctx, fullyID, 15, actor)
	require.NoError(t, err)
	_, err = svc.RecordPick(ctx, fullyID, fullyLineID, 10, actor)
	require.NoError(t, err)
	_, err = svc.CompletePicking(ctx, fullyID, actor.At, actor)
	require.NoError(t, err)

	_, err = svc.CreateBackorder(ctx, fullyID, actor)
	require.True(t, shared.IsState(err), "nothing left to supply")
}

func TestListOverdueOmitsPickedOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	actor := testActor(t)

	first, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)

	firstID, _ := first.ID().Value()
	_, err = svc.AssignPicker(ctx, firstID, 15, actor)
	require.NoError(t, err)
	_, err = svc.CompletePicking(ctx, firstID, actor.At, actor)
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(ctx, date(2024, time.June, 10))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, OrderStatusPending, overdue[0].Status())
}
