package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, order *Order) (int64, error)
	InsertLine(ctx context.Context, orderID int64, line *OrderLine) (int64, error)
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Order, error)
	UpdateHeader(ctx context.Context, order *Order) error
	UpdateLine(ctx context.Context, orderID int64, line *OrderLine) error
}

// ListFilter narrows order listings.
type ListFilter struct {
	CustomerID *int64
	Status     *OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       shared.Pagination
}

// PriceResolver finds the effective unit price for a sales context. The
// pricing service satisfies it.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, dealCtx pricing.DealContext, basePrice decimal.Decimal) (pricing.PriceResolution, error)
}

// Service owns the order picking workflow.
type Service struct {
	repo     Repository
	resolver PriceResolver
	logger   *slog.Logger
}

// NewService builds the orders service. resolver may be nil when deal
// pricing is not wired, in which case list prices are taken as given.
func NewService(repo Repository, resolver PriceResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

// LineInput is a requested order line before pricing.
type LineInput struct {
	StockItemID   int64
	StockGroupID  *int64
	Description   string
	PackageTypeID int64
	Quantity      int64
	UnitPrice     *decimal.Decimal
	TaxRate       decimal.Decimal
}

// CreateOrderInput carries a validated order creation request. The category
// and buying group ids feed deal resolution only; they are never stored.
type CreateOrderInput struct {
	CustomerID             int64
	CustomerCategoryID     *int64
	BuyingGroupID          *int64
	SalespersonPersonID    int64
	OrderDate              time.Time
	ExpectedDeliveryDate   time.Time
	CustomerPurchaseOrder  string
	UndersupplyBackordered bool
	Comments               string
	DeliveryInstructions   string
	Lines                  []LineInput
}

// Create builds the order, prices each line through the deal resolver, and
// persists everything in one transaction.
func (s *Service) Create(ctx context.Context, input CreateOrderInput, actor shared.ActorContext) (*Order, error) {
	order, err := NewOrder(input.CustomerID, input.SalespersonPersonID, input.OrderDate,
		input.ExpectedDeliveryDate, input.CustomerPurchaseOrder, input.UndersupplyBackordered, actor)
	if err != nil {
		return nil, err
	}
	if input.Comments != "" {
		if err := order.UpdateComments(input.Comments, actor); err != nil {
			return nil, err
		}
	}
	if input.DeliveryInstructions != "" {
		if err := order.UpdateDeliveryInstructions(input.DeliveryInstructions, actor); err != nil {
			return nil, err
		}
	}

	for _, lineInput := range input.Lines {
		line, err := s.buildLine(ctx, input, lineInput, actor)
		if err != nil {
			return nil, err
		}
		if err := order.AddLine(line, actor); err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := order.ID().Assign(id); err != nil {
			return err
		}
		for _, line := range order.Lines() {
			lineID, err := repo.InsertLine(ctx, id, line)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
			if err := line.ID().Assign(lineID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) buildLine(ctx context.Context, input CreateOrderInput, lineInput LineInput, actor shared.ActorContext) (*OrderLine, error) {
	unitPrice := lineInput.UnitPrice
	if s.resolver != nil && unitPrice != nil {
		resolution, err := s.resolver.ResolvePrice(ctx, pricing.DealContext{
			CustomerID:         input.CustomerID,
			CustomerCategoryID: input.CustomerCategoryID,
			BuyingGroupID:      input.BuyingGroupID,
			StockItemID:        lineInput.StockItemID,
			StockGroupID:       lineInput.StockGroupID,
		}, *unitPrice)
		if err != nil {
			return nil, fmt.Errorf("resolve price: %w", err)
		}
		if resolution.Deal != nil {
			effective := resolution.EffectivePrice
			unitPrice = &effective
			if dealID, ok := resolution.Deal.ID().Value(); ok {
				s.logger.Info("special deal applied",
					slog.Int64("stock_item_id", lineInput.StockItemID),
					slog.Int64("deal_id", dealID),
					slog.String("savings", resolution.Savings.String()))
			}
		}
	}

	financials, err := finance.CalculateOrderLine(lineInput.Quantity, unitPrice, lineInput.TaxRate)
	if err != nil {
		return nil, err
	}
	return NewOrderLine(lineInput.StockItemID, lineInput.Description, lineInput.PackageTypeID, financials, actor)
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List loads a filtered page of orders.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	return s.repo.List(ctx, filter)
}

// ListOverdue returns uncompleted orders past their expected delivery date.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]*Order, error) {
	return s.repo.ListOverdue(ctx, asOf)
}

// AssignPicker assigns a warehouse picker to the order.
func (s *Service) AssignPicker(ctx context.Context, orderID, personID int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.AssignPicker(personID, actor)
	})
}

// UnassignPicker releases the order back to the pool.
func (s *Service) UnassignPicker(ctx context.Context, orderID int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.UnassignPicker(actor)
	})
}

// CompletePicking marks the whole order picked.
func (s *Service) CompletePicking(ctx context.Context, orderID int64, when time.Time, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.CompletePicking(when, actor)
	})
}

// ReopenPicking reopens a completed order.
func (s *Service) ReopenPicking(ctx context.Context, orderID int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.ReopenPicking(actor)
	})
}

// UpdateSalesperson reassigns the responsible salesperson.
func (s *Service) UpdateSalesperson(ctx context.Context, orderID, personID int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.UpdateSalesperson(personID, actor)
	})
}

// UpdateBackorderPolicy toggles the undersupply backorder flag.
func (s *Service) UpdateBackorderPolicy(ctx context.Context, orderID int64, backordered bool, actor shared.ActorContext) (*Order, error) {
	return s.mutateHeader(ctx, orderID, func(o *Order) error {
		return o.UpdateBackorderPolicy(backordered, actor)
	})
}

// RecordPick adds picked units on a line.
func (s *Service) RecordPick(ctx context.Context, orderID, lineID, delta int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.RecordPickedQuantity(delta, actor)
	})
}

// AdjustPick corrects the picked total on a line.
func (s *Service) AdjustPick(ctx context.Context, orderID, lineID, newTotal int64, reason string, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.AdjustPickedQuantity(newTotal, reason, actor)
	})
}

// CompleteLinePicking freezes one line.
func (s *Service) CompleteLinePicking(ctx context.Context, orderID, lineID int64, when time.Time, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.CompletePicking(when, actor)
	})
}

// ReopenLinePicking reopens a completed line.
func (s *Service) ReopenLinePicking(ctx context.Context, orderID, lineID int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.ReopenPicking(actor)
	})
}

// UpdateLineQuantity changes the ordered quantity on a line.
func (s *Service) UpdateLineQuantity(ctx context.Context, orderID, lineID, newQuantity int64, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.UpdateQuantity(newQuantity, actor)
	})
}

// UpdateLineUnitPrice changes the unit price on a line.
func (s *Service) UpdateLineUnitPrice(ctx context.Context, orderID, lineID int64, unitPrice *decimal.Decimal, actor shared.ActorContext) (*Order, error) {
	return s.mutateLine(ctx, orderID, lineID, func(l *OrderLine) error {
		return l.UpdateUnitPrice(unitPrice, actor)
	})
}

// CreateBackorder derives a follow-up order carrying the quantities that
// were not picked, and links it to the original. Only a completed order
// whose policy allows backorders and which still has unsupplied demand can
// be backordered, and only once.
func (s *Service) CreateBackorder(ctx context.Context, orderID int64, actor shared.ActorContext) (*Order, error) {
	original, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !original.IsPickingCompleted() {
		return nil, shared.NewStateError("create backorder", "order picking not completed")
	}
	if !original.IsUndersupplyBackordered() {
		return nil, shared.NewStateError("create backorder", "order does not allow backorders")
	}
	if _, linked := original.BackorderOrderID(); linked {
		return nil, shared.NewStateError("create backorder", "backorder already linked")
	}
	if original.IsFullyPicked() {
		return nil, shared.NewStateError("create backorder", "nothing left to supply")
	}

	backorder, err := NewOrder(original.CustomerID(), original.SalespersonPersonID(), actor.At,
		original.ExpectedDeliveryDate(), original.CustomerPurchaseOrder(), original.IsUndersupplyBackordered(), actor)
	if err != nil {
		return nil, err
	}
	for _, line := range original.Lines() {
		remaining := line.RemainingQuantity()
		if remaining == 0 {
			continue
		}
		financials, err := line.Financials().WithQuantity(remaining)
		if err != nil {
			return nil, err
		}
		boLine, err := NewOrderLine(line.StockItemID(), line.Description(), line.PackageTypeID(), financials, actor)
		if err != nil {
			return nil, err
		}
		if err := backorder.AddLine(boLine, actor); err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, backorder)
		if err != nil {
			return fmt.Errorf("create backorder: %w", err)
		}
		if err := backorder.ID().Assign(id); err != nil {
			return err
		}
		for _, line := range backorder.Lines() {
			lineID, err := repo.InsertLine(ctx, id, line)
			if err != nil {
				return fmt.Errorf("insert backorder line: %w", err)
			}
			if err := line.ID().Assign(lineID); err != nil {
				return err
			}
		}
		if err := original.LinkBackorder(id, actor); err != nil {
			return err
		}
		if err := repo.UpdateHeader(ctx, original); err != nil {
			return fmt.Errorf("link backorder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backorder, nil
}

func (s *Service) mutateHeader(ctx context.Context, orderID int64, mutate func(*Order) error) (*Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := mutate(order); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateHeader(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

func (s *Service) mutateLine(ctx context.Context, orderID, lineID int64, mutate func(*OrderLine) error) (*Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	var target *OrderLine
	for _, line := range order.Lines() {
		if id, ok := line.ID().Value(); ok && id == lineID {
			target = line
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("order line %d: %w", lineID, shared.ErrNotFound)
	}
	if err := mutate(target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLine(ctx, orderID, target); err != nil {
		return nil, fmt.Errorf("update order line: %w", err)
	}
	return order, nil
}
