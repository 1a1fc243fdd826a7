package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for special deals.
type Repository interface {
	Create(ctx context.Context, deal *SpecialDeal) (int64, error)
	Get(ctx context.Context, id int64) (*SpecialDeal, error)
	List(ctx context.Context, page shared.Pagination) ([]*SpecialDeal, int, error)
	ListActiveOn(ctx context.Context, on time.Time) ([]*SpecialDeal, error)
	ListExpiredBefore(ctx context.Context, on time.Time) ([]*SpecialDeal, error)
	Update(ctx context.Context, deal *SpecialDeal) error
}

// Service owns deal lifecycle and price resolution.
type Service struct {
	repo   Repository
	cache  *DealCache
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds a Service. cache may be nil, in which case every
// resolution hits the repository.
func NewService(repo Repository, cache *DealCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests and replay.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// CreateDealInput carries the validated request to create a deal.
type CreateDealInput struct {
	Description string
	Customer    CustomerTarget
	Stock       StockTarget
	StartDate   time.Time
	EndDate     time.Time
	Pricing     DealPricing
}

// CreateDeal validates, persists and returns the new deal.
func (s *Service) CreateDeal(ctx context.Context, input CreateDealInput, actor shared.ActorContext) (*SpecialDeal, error) {
	deal, err := NewSpecialDeal(input.Description, input.Customer, input.Stock, input.StartDate, input.EndDate, input.Pricing, actor)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, deal)
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	if err := deal.ID().Assign(id); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return deal, nil
}

// GetDeal loads one deal.
func (s *Service) GetDeal(ctx context.Context, id int64) (*SpecialDeal, error) {
	return s.repo.Get(ctx, id)
}

// ListDeals loads a page of deals.
func (s *Service) ListDeals(ctx context.Context, page shared.Pagination) ([]*SpecialDeal, int, error) {
	return s.repo.List(ctx, page)
}

// ListExpired returns deals whose validity ended before the given instant.
func (s *Service) ListExpired(ctx context.Context, before time.Time) ([]*SpecialDeal, error) {
	return s.repo.ListExpiredBefore(ctx, before)
}

// ExtendDeal moves a deal's end date forward.
func (s *Service) ExtendDeal(ctx context.Context, id int64, newEndDate time.Time, actor shared.ActorContext) (*SpecialDeal, error) {
	deal, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}
	if err := deal.ExtendValidity(newEndDate, actor); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	s.invalidate(ctx)
	return deal, nil
}

// RepriceDeal replaces a deal's pricing strategy.
func (s *Service) RepriceDeal(ctx context.Context, id int64, dealPricing DealPricing, actor shared.ActorContext) (*SpecialDeal, error) {
	deal, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}
	if err := deal.UpdatePricing(dealPricing, actor); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	s.invalidate(ctx)
	return deal, nil
}

// PriceResolution is the outcome of resolving a price for a sales context.
// Deal is nil when no active deal applies and the base price stands.
type PriceResolution struct {
	Deal           *SpecialDeal
	EffectivePrice decimal.Decimal
	Savings        decimal.Decimal
}

// ResolvePrice finds the most specific active deal for the context and
// applies it to the base price.
func (s *Service) ResolvePrice(ctx context.Context, dealCtx DealContext, basePrice decimal.Decimal) (PriceResolution, error) {
	if basePrice.IsNegative() {
		return PriceResolution{}, shared.NewValidationError("basePrice", "cannot be negative")
	}
	if err := shared.RequireID("customerID", dealCtx.CustomerID); err != nil {
		return PriceResolution{}, err
	}
	if err := shared.RequireID("stockItemID", dealCtx.StockItemID); err != nil {
		return PriceResolution{}, err
	}

	on := s.clock()
	deals, err := s.activeDeals(ctx, on)
	if err != nil {
		return PriceResolution{}, err
	}

	best, ok := BestDeal(deals, on, dealCtx)
	if !ok {
		return PriceResolution{EffectivePrice: basePrice, Savings: decimal.Zero}, nil
	}

	effective, err := best.Pricing().CalculateEffectivePrice(basePrice)
	if err != nil {
		return PriceResolution{}, err
	}
	savings, err := best.Pricing().CalculateSavings(basePrice)
	if err != nil {
		return PriceResolution{}, err
	}
	return PriceResolution{Deal: best, EffectivePrice: effective, Savings: savings}, nil
}

// BestDeal picks the applicable deal with the highest specificity level.
// Ties break on the lowest deal id so resolution is deterministic and stable
// across replays.
func BestDeal(deals []*SpecialDeal, on time.Time, dealCtx DealContext) (*SpecialDeal, bool) {
	var best *SpecialDeal
	for _, d := range deals {
		if !d.AppliesToContext(on, dealCtx) {
			continue
		}
		if best == nil {
			best = d
			continue
		}
		switch {
		case d.SpecificityLevel() > best.SpecificityLevel():
			best = d
		case d.SpecificityLevel() == best.SpecificityLevel() && dealID(d) < dealID(best):
			best = d
		}
	}
	return best, best != nil
}

func dealID(d *SpecialDeal) int64 {
	id, ok := d.ID().Value()
	if !ok {
		return 1<<63 - 1
	}
	return id
}

func (s *Service) activeDeals(ctx context.Context, on time.Time) ([]*SpecialDeal, error) {
	if s.cache != nil {
		if deals, ok := s.cache.GetActive(ctx, on); ok {
			return deals, nil
		}
	}
	deals, err := s.repo.ListActiveOn(ctx, on)
	if err != nil {
		return nil, fmt.Errorf("list active deals: %w", err)
	}
	if s.cache != nil {
		s.cache.SetActive(ctx, on, deals)
	}
	return deals, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("deal cache invalidate failed", slog.Any("error", err))
	}
}
