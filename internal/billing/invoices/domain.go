// Package invoices models billing documents. An invoice owns its lines with
// full cost and profit tracking; a credit note is derived from an existing
// invoice and can never itself be credited.
package invoices

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const maxCreditNoteReasonLen = 200

// InvoiceLine is one billed stock item with its pricing and profit.
type InvoiceLine struct {
	id             shared.Identity
	stockItemID    int64
	description    string
	packageTypeID  int64
	financials     finance.LineFinancials
	lastEditedBy   int64
	lastEditedWhen time.Time
	span           shared.TemporalSpan
}

// NewInvoiceLine builds a billed line.
func NewInvoiceLine(stockItemID int64, description string, packageTypeID int64, financials finance.LineFinancials, actor shared.ActorContext) (*InvoiceLine, error) {
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
	return &InvoiceLine{
		stockItemID:    stockItemID,
		description:    description,
		packageTypeID:  packageTypeID,
		financials:     financials,
		lastEditedBy:   actor.PersonID,
		lastEditedWhen: actor.At,
	}, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (l *InvoiceLine) ID() *shared.Identity { return &l.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (l *InvoiceLine) Temporal() *shared.TemporalSpan { return &l.span }

// StockItemID returns the billed stock item.
func (l *InvoiceLine) StockItemID() int64 { return l.stockItemID }

// Description returns the line description.
func (l *InvoiceLine) Description() string { return l.description }

// PackageTypeID returns the packaging reference.
func (l *InvoiceLine) PackageTypeID() int64 { return l.packageTypeID }

// Financials returns the line's pricing calculation.
func (l *InvoiceLine) Financials() finance.LineFinancials { return l.financials }

// LastEditedBy returns the last editor.
func (l *InvoiceLine) LastEditedBy() int64 { return l.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (l *InvoiceLine) LastEditedWhen() time.Time { return l.lastEditedWhen }

// copyFor clones the line for a derived document, with an unassigned id.
func (l *InvoiceLine) copyFor(actor shared.ActorContext) *InvoiceLine {
	return &InvoiceLine{
		stockItemID:    l.stockItemID,
		description:    l.description,
		packageTypeID:  l.packageTypeID,
		financials:     l.financials,
		lastEditedBy:   actor.PersonID,
		lastEditedWhen: actor.At,
	}
}

// Invoice is a billing document. Credit notes share the shape but are
// flagged and carry the reason they were raised.
type Invoice struct {
	id                   shared.Identity
	customerID           int64
	orderID              *int64
	invoiceDate          time.Time
	customerPurchaseOrder string
	isCreditNote         bool
	creditNoteReason     string
	comments             string
	deliveryInstructions string
	lines                []*InvoiceLine
	lastEditedBy         int64
	lastEditedWhen       time.Time
	span                 shared.TemporalSpan
}

// NewInvoice builds an invoice with no lines.
func NewInvoice(customerID int64, orderID *int64, invoiceDate time.Time, customerPurchaseOrder string, actor shared.ActorContext) (*Invoice, error) {
	if err := shared.RequireID("customerID", customerID); err != nil {
		return nil, err
	}
	if err := shared.OptionalID("orderID", orderID); err != nil {
		return nil, err
	}
	if invoiceDate.IsZero() {
		return nil, shared.NewValidationError("invoiceDate", "cannot be zero")
	}
	inv := &Invoice{
		customerID:            customerID,
		invoiceDate:           invoiceDate,
		customerPurchaseOrder: customerPurchaseOrder,
		lastEditedBy:          actor.PersonID,
		lastEditedWhen:        actor.At,
	}
	if orderID != nil {
		v := *orderID
		inv.orderID = &v
	}
	return inv, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (i *Invoice) ID() *shared.Identity { return &i.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (i *Invoice) Temporal() *shared.TemporalSpan { return &i.span }

// CustomerID returns the billed customer.
func (i *Invoice) CustomerID() int64 { return i.customerID }

// OrderID returns the originating sales order, if any.
func (i *Invoice) OrderID() (int64, bool) {
	if i.orderID == nil {
		return 0, false
	}
	return *i.orderID, true
}

// InvoiceDate returns the document date.
func (i *Invoice) InvoiceDate() time.Time { return i.invoiceDate }

// CustomerPurchaseOrder returns the customer's PO reference.
func (i *Invoice) CustomerPurchaseOrder() string { return i.customerPurchaseOrder }

// IsCreditNote reports whether the document is a credit note.
func (i *Invoice) IsCreditNote() bool { return i.isCreditNote }

// CreditNoteReason returns why the credit note was raised.
func (i *Invoice) CreditNoteReason() string { return i.creditNoteReason }

// Comments returns free-form document comments.
func (i *Invoice) Comments() string { return i.comments }

// DeliveryInstructions returns courier-facing instructions.
func (i *Invoice) DeliveryInstructions() string { return i.deliveryInstructions }

// Lines returns the billed lines.
func (i *Invoice) Lines() []*InvoiceLine { return i.lines }

// LastEditedBy returns the last editor.
func (i *Invoice) LastEditedBy() int64 { return i.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (i *Invoice) LastEditedWhen() time.Time { return i.lastEditedWhen }

// AddLine appends a billed line.
func (i *Invoice) AddLine(line *InvoiceLine, actor shared.ActorContext) error {
	if line == nil {
		return shared.NewValidationError("line", "cannot be nil")
	}
	i.lines = append(i.lines, line)
	i.stamp(actor)
	return nil
}

// UpdateComments replaces the free-form comments.
func (i *Invoice) UpdateComments(comments string, actor shared.ActorContext) {
	i.comments = comments
	i.stamp(actor)
}

// UpdateDeliveryInstructions replaces the courier instructions.
func (i *Invoice) UpdateDeliveryInstructions(instructions string, actor shared.ActorContext) {
	i.deliveryInstructions = instructions
	i.stamp(actor)
}

// CreateCreditNote derives a credit note from this invoice. The credit note
// copies the customer, order, reference, and line detail, but is dated from
// the actor's instant. A credit note cannot be credited again.
func (i *Invoice) CreateCreditNote(reason string, actor shared.ActorContext) (*Invoice, error) {
	if i.isCreditNote {
		return nil, shared.NewStateError("create credit note", "document is already a credit note")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "cannot be blank")
	}
	if len(reason) > maxCreditNoteReasonLen {
		return nil, shared.Validationf("reason", "longer than %d characters", maxCreditNoteReasonLen)
	}

	note := &Invoice{
		customerID:            i.customerID,
		invoiceDate:           actor.At.Truncate(24 * time.Hour),
		customerPurchaseOrder: i.customerPurchaseOrder,
		isCreditNote:          true,
		creditNoteReason:      reason,
		comments:              i.comments,
		deliveryInstructions:  i.deliveryInstructions,
		lastEditedBy:          actor.PersonID,
		lastEditedWhen:        actor.At,
	}
	if i.orderID != nil {
		v := *i.orderID
		note.orderID = &v
	}
	for _, line := range i.lines {
		note.lines = append(note.lines, line.copyFor(actor))
	}
	return note, nil
}

// TotalExcludingTax sums line extended prices.
func (i *Invoice) TotalExcludingTax() decimal.Decimal {
	total := decimal.Zero
	for _, line := range i.lines {
		total = total.Add(line.Financials().ExtendedPrice())
	}
	return total
}

// TotalTax sums line tax amounts.
func (i *Invoice) TotalTax() decimal.Decimal {
	total := decimal.Zero
	for _, line := range i.lines {
		total = total.Add(line.Financials().TaxAmount())
	}
	return total
}

// TotalIncludingTax sums line totals with tax.
func (i *Invoice) TotalIncludingTax() decimal.Decimal {
	return i.TotalExcludingTax().Add(i.TotalTax())
}

// TotalProfit sums line profits.
func (i *Invoice) TotalProfit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range i.lines {
		total = total.Add(line.Financials().LineProfit())
	}
	return total
}

func (i *Invoice) stamp(actor shared.ActorContext) {
	i.lastEditedBy = actor.PersonID
	i.lastEditedWhen = actor.At
}
