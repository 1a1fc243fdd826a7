package pricing

import (
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// CustomerTargetKind names the customer axis a deal is targeted at.
type CustomerTargetKind string

const (
	CustomerTargetAll      CustomerTargetKind = "ALL"
	CustomerTargetCustomer CustomerTargetKind = "CUSTOMER"
	CustomerTargetGroup    CustomerTargetKind = "BUYING_GROUP"
	CustomerTargetCategory CustomerTargetKind = "CATEGORY"
)

// CustomerTarget is a sum type over the mutually exclusive customer-axis
// targeting options. The zero value targets all customers.
type CustomerTarget struct {
	kind CustomerTargetKind
	id   int64
}

// AllCustomers targets every customer.
func AllCustomers() CustomerTarget {
	return CustomerTarget{kind: CustomerTargetAll}
}

// ForCustomer targets one specific customer.
func ForCustomer(customerID int64) (CustomerTarget, error) {
	if err := shared.RequireID("customerID", customerID); err != nil {
		return CustomerTarget{}, err
	}
	return CustomerTarget{kind: CustomerTargetCustomer, id: customerID}, nil
}

// ForBuyingGroup targets all customers in a buying group.
func ForBuyingGroup(buyingGroupID int64) (CustomerTarget, error) {
	if err := shared.RequireID("buyingGroupID", buyingGroupID); err != nil {
		return CustomerTarget{}, err
	}
	return CustomerTarget{kind: CustomerTargetGroup, id: buyingGroupID}, nil
}

// ForCustomerCategory targets all customers in a category.
func ForCustomerCategory(categoryID int64) (CustomerTarget, error) {
	if err := shared.RequireID("categoryID", categoryID); err != nil {
		return CustomerTarget{}, err
	}
	return CustomerTarget{kind: CustomerTargetCategory, id: categoryID}, nil
}

// Kind returns the targeting tag.
func (t CustomerTarget) Kind() CustomerTargetKind {
	if t.kind == "" {
		return CustomerTargetAll
	}
	return t.kind
}

// TargetID returns the targeted id and whether the axis is restricted.
func (t CustomerTarget) TargetID() (int64, bool) {
	return t.id, t.Kind() != CustomerTargetAll
}

func (t CustomerTarget) specificity() int {
	switch t.Kind() {
	case CustomerTargetCustomer:
		return 100
	case CustomerTargetGroup:
		return 50
	case CustomerTargetCategory:
		return 25
	default:
		return 0
	}
}

// matches reports whether the customer context falls under the target.
func (t CustomerTarget) matches(customerID int64, categoryID, buyingGroupID *int64) bool {
	switch t.Kind() {
	case CustomerTargetCustomer:
		return t.id == customerID
	case CustomerTargetGroup:
		return buyingGroupID != nil && t.id == *buyingGroupID
	case CustomerTargetCategory:
		return categoryID != nil && t.id == *categoryID
	default:
		return true
	}
}

// StockTargetKind names the stock axis a deal is targeted at.
type StockTargetKind string

const (
	StockTargetAll   StockTargetKind = "ALL"
	StockTargetItem  StockTargetKind = "STOCK_ITEM"
	StockTargetGroup StockTargetKind = "STOCK_GROUP"
)

// StockTarget is the stock-axis analogue of CustomerTarget.
type StockTarget struct {
	kind StockTargetKind
	id   int64
}

// AllStock targets every stock item.
func AllStock() StockTarget {
	return StockTarget{kind: StockTargetAll}
}

// ForStockItem targets one specific stock item.
func ForStockItem(stockItemID int64) (StockTarget, error) {
	if err := shared.RequireID("stockItemID", stockItemID); err != nil {
		return StockTarget{}, err
	}
	return StockTarget{kind: StockTargetItem, id: stockItemID}, nil
}

// ForStockGroup targets all items in a stock group.
func ForStockGroup(stockGroupID int64) (StockTarget, error) {
	if err := shared.RequireID("stockGroupID", stockGroupID); err != nil {
		return StockTarget{}, err
	}
	return StockTarget{kind: StockTargetGroup, id: stockGroupID}, nil
}

// Kind returns the targeting tag.
func (t StockTarget) Kind() StockTargetKind {
	if t.kind == "" {
		return StockTargetAll
	}
	return t.kind
}

// TargetID returns the targeted id and whether the axis is restricted.
func (t StockTarget) TargetID() (int64, bool) {
	return t.id, t.Kind() != StockTargetAll
}

// IsSpecificItem reports whether the target names a single stock item.
func (t StockTarget) IsSpecificItem() bool { return t.Kind() == StockTargetItem }

func (t StockTarget) specificity() int {
	switch t.Kind() {
	case StockTargetItem:
		return 10
	case StockTargetGroup:
		return 5
	default:
		return 0
	}
}

func (t StockTarget) matches(stockItemID int64, stockGroupID *int64) bool {
	switch t.Kind() {
	case StockTargetItem:
		return t.id == stockItemID
	case StockTargetGroup:
		return stockGroupID != nil && t.id == *stockGroupID
	default:
		return true
	}
}

const maxDescriptionLen = 100

// SpecialDeal is a time-bounded pricing deal targeted at a slice of the
// customer and stock axes. After construction only the description, the
// pricing and a forward extension of the validity window may change.
type SpecialDeal struct {
	id             shared.Identity
	description    string
	customer       CustomerTarget
	stock          StockTarget
	startDate      time.Time
	endDate        time.Time
	pricing        DealPricing
	lastEditedBy   int64
	lastEditedWhen time.Time
	span           shared.TemporalSpan
}

// NewSpecialDeal validates and assembles a deal. Special-price deals must
// target a specific stock item; replacement prices are never group-wide.
func NewSpecialDeal(description string, customer CustomerTarget, stock StockTarget, startDate, endDate time.Time, dealPricing DealPricing, actor shared.ActorContext) (*SpecialDeal, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewValidationError("description", "cannot be blank")
	}
	if len(description) > maxDescriptionLen {
		return nil, shared.Validationf("description", "cannot exceed %d characters", maxDescriptionLen)
	}
	if !endDate.After(startDate) {
		return nil, shared.NewValidationError("endDate", "must be after startDate")
	}
	if dealPricing.Kind() == "" {
		return nil, shared.NewValidationError("pricing", "no pricing strategy set")
	}
	if dealPricing.IsSpecialPrice() && !stock.IsSpecificItem() {
		return nil, shared.NewValidationError("stockItemID", "special price deals require a specific stock item")
	}
	return &SpecialDeal{
		description:    description,
		customer:       customer,
		stock:          stock,
		startDate:      startDate,
		endDate:        endDate,
		pricing:        dealPricing,
		lastEditedBy:   actor.PersonID,
		lastEditedWhen: actor.At,
	}, nil
}

// ReconstructSpecialDeal rehydrates a stored deal through the constructor
// validation path and assigns its persisted identity.
func ReconstructSpecialDeal(id int64, description string, customer CustomerTarget, stock StockTarget, startDate, endDate time.Time, dealPricing DealPricing, lastEditedBy int64, lastEditedWhen time.Time) (*SpecialDeal, error) {
	actor := shared.ActorContext{PersonID: lastEditedBy, At: lastEditedWhen}
	d, err := NewSpecialDeal(description, customer, stock, startDate, endDate, dealPricing, actor)
	if err != nil {
		return nil, err
	}
	d.id = shared.PersistedIdentity(id)
	return d, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (d *SpecialDeal) ID() *shared.Identity { return &d.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (d *SpecialDeal) Temporal() *shared.TemporalSpan { return &d.span }

// Description returns the deal description.
func (d *SpecialDeal) Description() string { return d.description }

// Customer returns the customer-axis target.
func (d *SpecialDeal) Customer() CustomerTarget { return d.customer }

// Stock returns the stock-axis target.
func (d *SpecialDeal) Stock() StockTarget { return d.stock }

// StartDate returns the first day the deal is active.
func (d *SpecialDeal) StartDate() time.Time { return d.startDate }

// EndDate returns the last day the deal is active.
func (d *SpecialDeal) EndDate() time.Time { return d.endDate }

// Pricing returns the pricing strategy.
func (d *SpecialDeal) Pricing() DealPricing { return d.pricing }

// LastEditedBy returns the last editor.
func (d *SpecialDeal) LastEditedBy() int64 { return d.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (d *SpecialDeal) LastEditedWhen() time.Time { return d.lastEditedWhen }

// IsActiveOn reports whether the date falls inside [startDate, endDate].
func (d *SpecialDeal) IsActiveOn(on time.Time) bool {
	return !on.Before(d.startDate) && !on.After(d.endDate)
}

// AppliesToCustomer reports whether the deal is active on the date and the
// customer context matches its customer-axis target.
func (d *SpecialDeal) AppliesToCustomer(on time.Time, customerID int64, categoryID, buyingGroupID *int64) bool {
	return d.IsActiveOn(on) && d.customer.matches(customerID, categoryID, buyingGroupID)
}

// AppliesToStock reports whether the deal is active on the date and the
// stock context matches its stock-axis target.
func (d *SpecialDeal) AppliesToStock(on time.Time, stockItemID int64, stockGroupID *int64) bool {
	return d.IsActiveOn(on) && d.stock.matches(stockItemID, stockGroupID)
}

// AppliesToContext is the conjunction of both axes.
func (d *SpecialDeal) AppliesToContext(on time.Time, ctx DealContext) bool {
	return d.AppliesToCustomer(on, ctx.CustomerID, ctx.CustomerCategoryID, ctx.BuyingGroupID) &&
		d.AppliesToStock(on, ctx.StockItemID, ctx.StockGroupID)
}

// SpecificityLevel scores how narrowly the deal targets: customer-specific
// 100, buying group 50, category 25, plus stock item 10 or stock group 5.
// Higher wins when multiple deals match the same context.
func (d *SpecialDeal) SpecificityLevel() int {
	return d.customer.specificity() + d.stock.specificity()
}

// UpdateDescription replaces the description.
func (d *SpecialDeal) UpdateDescription(description string, actor shared.ActorContext) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewValidationError("description", "cannot be blank")
	}
	if len(description) > maxDescriptionLen {
		return shared.Validationf("description", "cannot exceed %d characters", maxDescriptionLen)
	}
	d.description = description
	d.stamp(actor)
	return nil
}

// UpdatePricing replaces the pricing strategy, re-checking the special-price
// stock-item requirement.
func (d *SpecialDeal) UpdatePricing(dealPricing DealPricing, actor shared.ActorContext) error {
	if dealPricing.Kind() == "" {
		return shared.NewValidationError("pricing", "no pricing strategy set")
	}
	if dealPricing.IsSpecialPrice() && !d.stock.IsSpecificItem() {
		return shared.NewValidationError("stockItemID", "special price deals require a specific stock item")
	}
	d.pricing = dealPricing
	d.stamp(actor)
	return nil
}

// ExtendValidity moves the end date forward. Shrinking the window would
// retroactively invalidate prices already quoted, so it is not allowed.
func (d *SpecialDeal) ExtendValidity(newEndDate time.Time, actor shared.ActorContext) error {
	if !newEndDate.After(d.endDate) {
		return shared.NewValidationError("endDate", "can only be extended forward")
	}
	d.endDate = newEndDate
	d.stamp(actor)
	return nil
}

func (d *SpecialDeal) stamp(actor shared.ActorContext) {
	d.lastEditedBy = actor.PersonID
	d.lastEditedWhen = actor.At
}

// DealContext is the customer/stock context a price is being resolved for.
type DealContext struct {
	CustomerID         int64
	CustomerCategoryID *int64
	BuyingGroupID      *int64
	StockItemID        int64
	StockGroupID       *int64
}
