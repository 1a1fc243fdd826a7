package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryDealRepo struct {
	deals  map[int64]*SpecialDeal
	nextID int64
	lists  int
}

func newMemoryDealRepo() *memoryDealRepo {
	return &memoryDealRepo{deals: make(map[int64]*SpecialDeal)}
}

func (r *memoryDealRepo) Create(ctx context.Context, deal *SpecialDeal) (int64, error) {
	r.nextID++
	rec := recordFromDeal(deal)
	rec.ID = r.nextID
	stored, err := rec.toDeal()
	if err != nil {
		return 0, err
	}
	r.deals[r.nextID] = stored
	return r.nextID, nil
}

func (r *memoryDealRepo) Get(ctx context.Context, id int64) (*SpecialDeal, error) {
	deal, ok := r.deals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return deal, nil
}

func (r *memoryDealRepo) List(ctx context.Context, page shared.Pagination) ([]*SpecialDeal, int, error) {
	var out []*SpecialDeal
	for _, d := range r.deals {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memoryDealRepo) ListActiveOn(ctx context.Context, on time.Time) ([]*SpecialDeal, error) {
	r.lists++
	var out []*SpecialDeal
	for id := int64(1); id <= r.nextID; id++ {
		if d, ok := r.deals[id]; ok && d.IsActiveOn(on) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryDealRepo) ListExpiredBefore(ctx context.Context, on time.Time) ([]*SpecialDeal, error) {
	var out []*SpecialDeal
	for id := int64(1); id <= r.nextID; id++ {
		if d, ok := r.deals[id]; ok && d.EndDate().Before(on) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memoryDealRepo) Update(ctx context.Context, deal *SpecialDeal) error {
	id, ok := deal.ID().Value()
	if !ok {
		return shared.NewStateError("update deal", "deal has no assigned id")
	}
	if _, exists := r.deals[id]; !exists {
		return shared.ErrNotFound
	}
	r.deals[id] = deal
	return nil
}

func fixedClock(on time.Time) func() time.Time {
	return func() time.Time { return on }
}

func createDeal(t *testing.T, svc *Service, customer CustomerTarget, stock StockTarget, p DealPricing) *SpecialDeal {
	t.Helper()
	deal, err := svc.CreateDeal(context.Background(), CreateDealInput{
		Description: "promo",
		Customer:    customer,
		Stock:       stock,
		StartDate:   date(2024, time.January, 1),
		EndDate:     date(2024, time.December, 31),
		Pricing:     p,
	}, testActor(t))
	require.NoError(t, err)
	return deal
}

func TestResolvePricePicksMostSpecificDeal(t *testing.T) {
	repo := newMemoryDealRepo()
	svc := NewService(repo, nil, nil).WithClock(fixedClock(date(2024, time.June, 1)))
	ctx := context.Background()

	broad, err := NewPercentageDiscount(dec("5"))
	require.NoError(t, err)
	createDeal(t, svc, AllCustomers(), AllStock(), broad)

	customer, err := ForCustomer(7)
	require.NoError(t, err)
	narrow, err := NewPercentageDiscount(dec("20"))
	require.NoError(t, err)
	createDeal(t, svc, customer, AllStock(), narrow)

	res, err := svc.ResolvePrice(ctx, DealContext{CustomerID: 7, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.NotNil(t, res.Deal)
	require.Equal(t, 100, res.Deal.SpecificityLevel())
	require.True(t, res.EffectivePrice.Equal(dec("80")))
	require.True(t, res.Savings.Equal(dec("20")))

	// another customer only gets the broad deal
	res, err = svc.ResolvePrice(ctx, DealContext{CustomerID: 8, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.True(t, res.EffectivePrice.Equal(dec("95")))
}

func TestResolvePriceTieBreaksOnLowestID(t *testing.T) {
	repo := newMemoryDealRepo()
	svc := NewService(repo, nil, nil).WithClock(fixedClock(date(2024, time.June, 1)))

	customer, err := ForCustomer(7)
	require.NoError(t, err)

	first, err := NewPercentageDiscount(dec("10"))
	require.NoError(t, err)
	createDeal(t, svc, customer, AllStock(), first)

	second, err := NewPercentageDiscount(dec("30"))
	require.NoError(t, err)
	createDeal(t, svc, customer, AllStock(), second)

	res, err := svc.ResolvePrice(context.Background(), DealContext{CustomerID: 7, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.NotNil(t, res.Deal)
	id, _ := res.Deal.ID().Value()
	require.Equal(t, int64(1), id, "equal specificity resolves to the lowest id")
	require.True(t, res.EffectivePrice.Equal(dec("90")))
}

func TestResolvePriceWithoutMatchingDeal(t *testing.T) {
	repo := newMemoryDealRepo()
	svc := NewService(repo, nil, nil).WithClock(fixedClock(date(2025, time.June, 1)))

	broad, err := NewPercentageDiscount(dec("5"))
	require.NoError(t, err)
	createDeal(t, svc, AllCustomers(), AllStock(), broad) // expired by the clock date

	res, err := svc.ResolvePrice(context.Background(), DealContext{CustomerID: 1, StockItemID: 1}, dec("42"))
	require.NoError(t, err)
	require.Nil(t, res.Deal)
	require.True(t, res.EffectivePrice.Equal(dec("42")))
	require.True(t, res.Savings.IsZero())
}

func TestResolvePriceValidatesContext(t *testing.T) {
	svc := NewService(newMemoryDealRepo(), nil, nil)

	_, err := svc.ResolvePrice(context.Background(), DealContext{CustomerID: 0, StockItemID: 1}, dec("10"))
	require.Error(t, err)

	_, err = svc.ResolvePrice(context.Background(), DealContext{CustomerID: 1, StockItemID: 1}, dec("-1"))
	require.Error(t, err)
}

func TestExtendDealPersistsAndForwardOnly(t *testing.T) {
	repo := newMemoryDealRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	broad, err := NewPercentageDiscount(dec("5"))
	require.NoError(t, err)
	deal := createDeal(t, svc, AllCustomers(), AllStock(), broad)
	id, _ := deal.ID().Value()

	_, err = svc.ExtendDeal(ctx, id, date(2024, time.June, 1), testActor(t))
	require.Error(t, err, "earlier than current end date")

	updated, err := svc.ExtendDeal(ctx, id, date(2025, time.June, 1), testActor(t))
	require.NoError(t, err)
	require.Equal(t, date(2025, time.June, 1), updated.EndDate())

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.June, 1), stored.EndDate())
}

func TestDealCacheServesRepositoryMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewDealCache(client, time.Minute)

	repo := newMemoryDealRepo()
	on := date(2024, time.June, 1)
	svc := NewService(repo, cache, nil).WithClock(fixedClock(on))
	ctx := context.Background()

	broad, err := NewPercentageDiscount(dec("5"))
	require.NoError(t, err)
	createDeal(t, svc, AllCustomers(), AllStock(), broad)

	_, err = svc.ResolvePrice(ctx, DealContext{CustomerID: 1, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.Equal(t, 1, repo.lists)

	// second resolution is served from the cache
	res, err := svc.ResolvePrice(ctx, DealContext{CustomerID: 1, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.Equal(t, 1, repo.lists)
	require.True(t, res.EffectivePrice.Equal(dec("95")))

	// a write invalidates, resolution goes back to the repository
	better, err := NewPercentageDiscount(dec("50"))
	require.NoError(t, err)
	createDeal(t, svc, AllCustomers(), AllStock(), better)

	res, err = svc.ResolvePrice(ctx, DealContext{CustomerID: 1, StockItemID: 1}, dec("100"))
	require.NoError(t, err)
	require.Equal(t, 2, repo.lists)
	require.True(t, res.EffectivePrice.Equal(dec("95")), "equal specificity keeps the older deal")
}
