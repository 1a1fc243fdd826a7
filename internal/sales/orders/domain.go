// Package orders models sales orders and their picking workflow: picker
// assignment, partial picking per line, completion and reopening, with the
// quantity and balance invariants enforced on every transition.
package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OrderLineStatus describes how far picking has progressed on a line.
type OrderLineStatus string

const (
	LineStatusPending         OrderLineStatus = "PENDING"
	LineStatusPartiallyPicked OrderLineStatus = "PARTIALLY_PICKED"
	LineStatusFullyPicked     OrderLineStatus = "FULLY_PICKED"
	LineStatusCompleted       OrderLineStatus = "COMPLETED"
)

// OrderStatus mirrors the line lifecycle at order granularity.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPicking OrderStatus = "PICKING"
	OrderStatusPicked  OrderStatus = "PICKED"
)

// DeliveryUrgency buckets an order by days until its expected delivery.
type DeliveryUrgency string

const (
	UrgencyOverdue     DeliveryUrgency = "OVERDUE"
	UrgencyDueToday    DeliveryUrgency = "DUE_TODAY"
	UrgencyUrgent      DeliveryUrgency = "URGENT"
	UrgencyNormal      DeliveryUrgency = "NORMAL"
	UrgencyLowPriority DeliveryUrgency = "LOW_PRIORITY"
)

// Completion timestamps may lag the wall clock by a shift or lead it by a
// few minutes of clock skew, nothing more.
const (
	completionMaxLag  = 24 * time.Hour
	completionMaxLead = 5 * time.Minute
)

func validateCompletionInstant(op string, when, now time.Time) error {
	if when.Before(now.Add(-completionMaxLag)) {
		return shared.NewValidationError("when", "completion time more than a day in the past")
	}
	if when.After(now.Add(completionMaxLead)) {
		return shared.NewValidationError("when", "completion time too far in the future")
	}
	_ = op
	return nil
}

// OrderLine is one ordered stock item and its picking progress. Once picking
// is completed the line is frozen except for ReopenPicking.
type OrderLine struct {
	id                   shared.Identity
	stockItemID          int64
	description          string
	packageTypeID        int64
	financials           finance.OrderLineFinancials
	pickedQuantity       int64
	pickingCompletedWhen *time.Time
	lastEditedBy         int64
	lastEditedWhen       time.Time
	span                 shared.TemporalSpan
}

// NewOrderLine builds a line with nothing picked yet.
func NewOrderLine(stockItemID int64, description string, packageTypeID int64, financials finance.OrderLineFinancials, actor shared.ActorContext) (*OrderLine, error) {
	if err := shared.RequireID("stockItemID", stockItemID); err != nil {
		return nil, err
	}
	if err := shared.RequireID("packageTypeID", packageTypeID); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewValidationError("description", "cannot be blank")
	}
	return &OrderLine{
		stockItemID:    stockItemID,
		description:    description,
		packageTypeID:  packageTypeID,
		financials:     financials,
		lastEditedBy:   actor.PersonID,
		lastEditedWhen: actor.At,
	}, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (l *OrderLine) ID() *shared.Identity { return &l.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (l *OrderLine) Temporal() *shared.TemporalSpan { return &l.span }

// StockItemID returns the ordered stock item.
func (l *OrderLine) StockItemID() int64 { return l.stockItemID }

// Description returns the line description.
func (l *OrderLine) Description() string { return l.description }

// PackageTypeID returns the packaging reference.
func (l *OrderLine) PackageTypeID() int64 { return l.packageTypeID }

// Financials returns the line's pricing calculation.
func (l *OrderLine) Financials() finance.OrderLineFinancials { return l.financials }

// Quantity returns the ordered quantity.
func (l *OrderLine) Quantity() int64 { return l.financials.Quantity() }

// PickedQuantity returns how many units have been picked so far.
func (l *OrderLine) PickedQuantity() int64 { return l.pickedQuantity }

// RemainingQuantity returns how many units still need picking.
func (l *OrderLine) RemainingQuantity() int64 {
	remaining := l.Quantity() - l.pickedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PickingCompletedWhen returns the completion timestamp, if completed.
func (l *OrderLine) PickingCompletedWhen() (time.Time, bool) {
	if l.pickingCompletedWhen == nil {
		return time.Time{}, false
	}
	return *l.pickingCompletedWhen, true
}

// IsPickingCompleted reports whether the line has been completed.
func (l *OrderLine) IsPickingCompleted() bool { return l.pickingCompletedWhen != nil }

// IsFullyPicked reports whether the whole ordered quantity is picked.
func (l *OrderLine) IsFullyPicked() bool { return l.pickedQuantity >= l.Quantity() }

// Status derives the lifecycle state from picked quantity and completion.
func (l *OrderLine) Status() OrderLineStatus {
	switch {
	case l.IsPickingCompleted():
		return LineStatusCompleted
	case l.IsFullyPicked():
		return LineStatusFullyPicked
	case l.pickedQuantity > 0:
		return LineStatusPartiallyPicked
	default:
		return LineStatusPending
	}
}

// LastEditedBy returns the last editor.
func (l *OrderLine) LastEditedBy() int64 { return l.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (l *OrderLine) LastEditedWhen() time.Time { return l.lastEditedWhen }

// RecordPickedQuantity adds delta units to the picked total. Picking can
// never exceed the ordered quantity.
func (l *OrderLine) RecordPickedQuantity(delta int64, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("record pick", "line picking already completed")
	}
	if delta <= 0 {
		return shared.NewValidationError("delta", "must be positive")
	}
	if l.pickedQuantity+delta > l.Quantity() {
		return shared.NewStateError("record pick", "would exceed ordered quantity")
	}
	l.pickedQuantity += delta
	l.stamp(actor)
	return nil
}

// AdjustPickedQuantity sets the picked total outright. This is the
// correction path: unlike RecordPickedQuantity it may decrease the total,
// and it requires a reason for the audit trail.
func (l *OrderLine) AdjustPickedQuantity(newTotal int64, reason string, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("adjust pick", "line picking already completed")
	}
	if newTotal < 0 {
		return shared.NewValidationError("newTotal", "cannot be negative")
	}
	if newTotal > l.Quantity() {
		return shared.NewValidationError("newTotal", "cannot exceed ordered quantity")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("reason", "cannot be blank")
	}
	l.pickedQuantity = newTotal
	l.stamp(actor)
	return nil
}

// CompletePicking freezes the line. The timestamp is checked against the
// actor's instant so a stale client cannot backdate beyond a day.
func (l *OrderLine) CompletePicking(when time.Time, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("complete picking", "line picking already completed")
	}
	if err := validateCompletionInstant("complete picking", when, actor.At); err != nil {
		return err
	}
	l.pickingCompletedWhen = &when
	l.stamp(actor)
	return nil
}

// ReopenPicking clears the completion timestamp; the picked quantity is
// retained.
func (l *OrderLine) ReopenPicking(actor shared.ActorContext) error {
	if !l.IsPickingCompleted() {
		return shared.NewStateError("reopen picking", "line picking not completed")
	}
	l.pickingCompletedWhen = nil
	l.stamp(actor)
	return nil
}

// UpdateQuantity changes the ordered quantity. It can never drop below what
// has already been picked.
func (l *OrderLine) UpdateQuantity(newQuantity int64, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("update quantity", "line picking already completed")
	}
	if newQuantity < l.pickedQuantity {
		return shared.NewStateError("update quantity", "cannot reduce below picked quantity")
	}
	financials, err := l.financials.WithQuantity(newQuantity)
	if err != nil {
		return err
	}
	l.financials = financials
	l.stamp(actor)
	return nil
}

// UpdateUnitPrice changes the unit price; nil makes the line free of charge.
func (l *OrderLine) UpdateUnitPrice(unitPrice *decimal.Decimal, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("update unit price", "line picking already completed")
	}
	financials, err := l.financials.WithUnitPrice(unitPrice)
	if err != nil {
		return err
	}
	l.financials = financials
	l.stamp(actor)
	return nil
}

// UpdateTaxRate changes the applied tax rate.
func (l *OrderLine) UpdateTaxRate(taxRate decimal.Decimal, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("update tax rate", "line picking already completed")
	}
	financials, err := l.financials.WithTaxRate(taxRate)
	if err != nil {
		return err
	}
	l.financials = financials
	l.stamp(actor)
	return nil
}

// UpdatePackageType changes the packaging reference.
func (l *OrderLine) UpdatePackageType(packageTypeID int64, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("update package type", "line picking already completed")
	}
	if err := shared.RequireID("packageTypeID", packageTypeID); err != nil {
		return err
	}
	l.packageTypeID = packageTypeID
	l.stamp(actor)
	return nil
}

// UpdateFinancials replaces the whole pricing calculation. The new quantity
// must still cover what has been picked.
func (l *OrderLine) UpdateFinancials(financials finance.OrderLineFinancials, actor shared.ActorContext) error {
	if l.IsPickingCompleted() {
		return shared.NewStateError("update financials", "line picking already completed")
	}
	if financials.Quantity() < l.pickedQuantity {
		return shared.NewStateError("update financials", "cannot reduce below picked quantity")
	}
	l.financials = financials
	l.stamp(actor)
	return nil
}

func (l *OrderLine) stamp(actor shared.ActorContext) {
	l.lastEditedBy = actor.PersonID
	l.lastEditedWhen = actor.At
}

// Order is the aggregate root of the picking workflow. It owns its lines;
// picker assignment and completion are tracked here, picking progress per
// line.
type Order struct {
	id                    shared.Identity
	customerID            int64
	salespersonPersonID   int64
	orderDate             time.Time
	expectedDeliveryDate  time.Time
	customerPurchaseOrder string
	undersupplyBackordered bool
	backorderOrderID      *int64
	comments              string
	deliveryInstructions  string
	pickedByPersonID      *int64
	pickingCompletedWhen  *time.Time
	lines                 []*OrderLine
	lastEditedBy          int64
	lastEditedWhen        time.Time
	span                  shared.TemporalSpan
}

// NewOrder builds an order with no lines and no picker.
func NewOrder(customerID, salespersonPersonID int64, orderDate, expectedDeliveryDate time.Time, customerPurchaseOrder string, undersupplyBackordered bool, actor shared.ActorContext) (*Order, error) {
	if err := shared.RequireID("customerID", customerID); err != nil {
		return nil, err
	}
	if err := shared.RequireID("salespersonPersonID", salespersonPersonID); err != nil {
		return nil, err
	}
	if expectedDeliveryDate.Before(orderDate) {
		return nil, shared.NewValidationError("expectedDeliveryDate", "cannot precede order date")
	}
	return &Order{
		customerID:             customerID,
		salespersonPersonID:    salespersonPersonID,
		orderDate:              orderDate,
		expectedDeliveryDate:   expectedDeliveryDate,
		customerPurchaseOrder:  customerPurchaseOrder,
		undersupplyBackordered: undersupplyBackordered,
		lastEditedBy:           actor.PersonID,
		lastEditedWhen:         actor.At,
	}, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (o *Order) ID() *shared.Identity { return &o.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (o *Order) Temporal() *shared.TemporalSpan { return &o.span }

// CustomerID returns the ordering customer.
func (o *Order) CustomerID() int64 { return o.customerID }

// SalespersonPersonID returns the responsible salesperson.
func (o *Order) SalespersonPersonID() int64 { return o.salespersonPersonID }

// OrderDate returns when the order was taken.
func (o *Order) OrderDate() time.Time { return o.orderDate }

// ExpectedDeliveryDate returns the promised delivery date.
func (o *Order) ExpectedDeliveryDate() time.Time { return o.expectedDeliveryDate }

// CustomerPurchaseOrder returns the customer's PO reference.
func (o *Order) CustomerPurchaseOrder() string { return o.customerPurchaseOrder }

// IsUndersupplyBackordered reports whether unsupplied demand rolls into a
// backorder.
func (o *Order) IsUndersupplyBackordered() bool { return o.undersupplyBackordered }

// BackorderOrderID returns the follow-up order, if one was created.
func (o *Order) BackorderOrderID() (int64, bool) {
	if o.backorderOrderID == nil {
		return 0, false
	}
	return *o.backorderOrderID, true
}

// Comments returns free-form order comments.
func (o *Order) Comments() string { return o.comments }

// DeliveryInstructions returns courier-facing instructions.
func (o *Order) DeliveryInstructions() string { return o.deliveryInstructions }

// Lines returns the order's lines.
func (o *Order) Lines() []*OrderLine { return o.lines }

// PickedByPersonID returns the assigned picker, if any.
func (o *Order) PickedByPersonID() (int64, bool) {
	if o.pickedByPersonID == nil {
		return 0, false
	}
	return *o.pickedByPersonID, true
}

// IsPickerAssigned reports whether a picker is assigned.
func (o *Order) IsPickerAssigned() bool { return o.pickedByPersonID != nil }

// PickingCompletedWhen returns the completion timestamp, if completed.
func (o *Order) PickingCompletedWhen() (time.Time, bool) {
	if o.pickingCompletedWhen == nil {
		return time.Time{}, false
	}
	return *o.pickingCompletedWhen, true
}

// IsPickingCompleted reports whether order picking has been completed.
func (o *Order) IsPickingCompleted() bool { return o.pickingCompletedWhen != nil }

// Status derives the order lifecycle state.
func (o *Order) Status() OrderStatus {
	switch {
	case o.IsPickingCompleted():
		return OrderStatusPicked
	case o.IsPickerAssigned():
		return OrderStatusPicking
	default:
		return OrderStatusPending
	}
}

// LastEditedBy returns the last editor.
func (o *Order) LastEditedBy() int64 { return o.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (o *Order) LastEditedWhen() time.Time { return o.lastEditedWhen }

// AddLine appends a line to an uncompleted order.
func (o *Order) AddLine(line *OrderLine, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("add line", "order picking already completed")
	}
	if line == nil {
		return shared.NewValidationError("line", "cannot be nil")
	}
	o.lines = append(o.lines, line)
	o.stamp(actor)
	return nil
}

// AssignPicker hands the order to a warehouse picker.
func (o *Order) AssignPicker(personID int64, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("assign picker", "order picking already completed")
	}
	if err := shared.RequireID("personID", personID); err != nil {
		return err
	}
	o.pickedByPersonID = &personID
	o.stamp(actor)
	return nil
}

// UnassignPicker releases the order back to the pool.
func (o *Order) UnassignPicker(actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("unassign picker", "order picking already completed")
	}
	if !o.IsPickerAssigned() {
		return shared.NewStateError("unassign picker", "no picker assigned")
	}
	o.pickedByPersonID = nil
	o.stamp(actor)
	return nil
}

// CompletePicking marks the order picked. A picker must be assigned and the
// timestamp must be plausible against the actor's instant.
func (o *Order) CompletePicking(when time.Time, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("complete picking", "order picking already completed")
	}
	if !o.IsPickerAssigned() {
		return shared.NewStateError("complete picking", "no picker assigned")
	}
	if err := validateCompletionInstant("complete picking", when, actor.At); err != nil {
		return err
	}
	o.pickingCompletedWhen = &when
	o.stamp(actor)
	return nil
}

// ReopenPicking clears the completion timestamp. Picker and per-line
// progress are retained.
func (o *Order) ReopenPicking(actor shared.ActorContext) error {
	if !o.IsPickingCompleted() {
		return shared.NewStateError("reopen picking", "order picking not completed")
	}
	o.pickingCompletedWhen = nil
	o.stamp(actor)
	return nil
}

// UpdateSalesperson reassigns the responsible salesperson.
func (o *Order) UpdateSalesperson(personID int64, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("update salesperson", "order picking already completed")
	}
	if err := shared.RequireID("personID", personID); err != nil {
		return err
	}
	o.salespersonPersonID = personID
	o.stamp(actor)
	return nil
}

// UpdateBackorderPolicy toggles whether undersupply rolls into a backorder.
func (o *Order) UpdateBackorderPolicy(undersupplyBackordered bool, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("update backorder policy", "order picking already completed")
	}
	o.undersupplyBackordered = undersupplyBackordered
	o.stamp(actor)
	return nil
}

// UpdateComments replaces the free-form comments.
func (o *Order) UpdateComments(comments string, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("update comments", "order picking already completed")
	}
	o.comments = comments
	o.stamp(actor)
	return nil
}

// UpdateDeliveryInstructions replaces the courier instructions.
func (o *Order) UpdateDeliveryInstructions(instructions string, actor shared.ActorContext) error {
	if o.IsPickingCompleted() {
		return shared.NewStateError("update delivery instructions", "order picking already completed")
	}
	o.deliveryInstructions = instructions
	o.stamp(actor)
	return nil
}

// LinkBackorder records the follow-up order created for unsupplied demand.
// The link is written once.
func (o *Order) LinkBackorder(backorderOrderID int64, actor shared.ActorContext) error {
	if o.backorderOrderID != nil {
		return shared.NewStateError("link backorder", "backorder already linked")
	}
	if err := shared.RequireID("backorderOrderID", backorderOrderID); err != nil {
		return err
	}
	o.backorderOrderID = &backorderOrderID
	o.stamp(actor)
	return nil
}

// IsFullyPicked reports whether every line is fully picked. An order with
// no lines has nothing to pick.
func (o *Order) IsFullyPicked() bool {
	for _, line := range o.lines {
		if !line.IsFullyPicked() {
			return false
		}
	}
	return true
}

// IsDeliveryOverdue reports whether the promised date has passed without
// the order being picked.
func (o *Order) IsDeliveryOverdue(today time.Time) bool {
	return today.After(o.expectedDeliveryDate) && !o.IsPickingCompleted()
}

// DeliveryUrgencyOn buckets the order by days remaining until delivery.
func (o *Order) DeliveryUrgencyOn(today time.Time) DeliveryUrgency {
	days := daysUntil(today, o.expectedDeliveryDate)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days == 0:
		return UrgencyDueToday
	case days <= 1:
		return UrgencyUrgent
	case days <= 3:
		return UrgencyNormal
	default:
		return UrgencyLowPriority
	}
}

// TotalExcludingTax sums line extended prices.
func (o *Order) TotalExcludingTax() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.lines {
		total = total.Add(line.Financials().ExtendedPrice())
	}
	return total
}

// TotalIncludingTax sums line totals with tax.
func (o *Order) TotalIncludingTax() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.lines {
		total = total.Add(line.Financials().TotalIncludingTax())
	}
	return total
}

func (o *Order) stamp(actor shared.ActorContext) {
	o.lastEditedBy = actor.PersonID
	o.lastEditedWhen = actor.At
}

func daysUntil(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
