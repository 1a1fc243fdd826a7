// Package receivables keeps the accounts receivable ledger. Each customer
// transaction owns its amount breakdown and outstanding balance; once a
// transaction is finalized every mutator fails until it is unfinalized.
package receivables

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// CustomerTransaction is one AR ledger entry: an invoice charge, a payment,
// or a credit note, classified by the signs of its amounts.
type CustomerTransaction struct {
	id               shared.Identity
	customerID       int64
	invoiceID        *int64
	paymentMethodID  *int64
	transactionDate  time.Time
	financials       finance.TransactionFinancials
	finalizationDate *time.Time
	lastEditedBy     int64
	lastEditedWhen   time.Time
	span             shared.TemporalSpan
}

// NewCustomerTransaction builds an unfinalized ledger entry.
func NewCustomerTransaction(customerID int64, transactionDate time.Time, financials finance.TransactionFinancials, actor shared.ActorContext) (*CustomerTransaction, error) {
	if err := shared.RequireID("customerID", customerID); err != nil {
		return nil, err
	}
	if transactionDate.IsZero() {
		return nil, shared.NewValidationError("transactionDate", "cannot be zero")
	}
	return &CustomerTransaction{
		customerID:      customerID,
		transactionDate: transactionDate,
		financials:      financials,
		lastEditedBy:    actor.PersonID,
		lastEditedWhen:  actor.At,
	}, nil
}

// ID exposes the one-shot surrogate key for the persistence layer.
func (t *CustomerTransaction) ID() *shared.Identity { return &t.id }

// Temporal exposes the system-versioning span for the persistence layer.
func (t *CustomerTransaction) Temporal() *shared.TemporalSpan { return &t.span }

// CustomerID returns the ledger customer.
func (t *CustomerTransaction) CustomerID() int64 { return t.customerID }

// InvoiceID returns the linked invoice, if any.
func (t *CustomerTransaction) InvoiceID() (int64, bool) {
	if t.invoiceID == nil {
		return 0, false
	}
	return *t.invoiceID, true
}

// PaymentMethodID returns the payment method, if any.
func (t *CustomerTransaction) PaymentMethodID() (int64, bool) {
	if t.paymentMethodID == nil {
		return 0, false
	}
	return *t.paymentMethodID, true
}

// TransactionDate returns the ledger date of the entry.
func (t *CustomerTransaction) TransactionDate() time.Time { return t.transactionDate }

// Financials returns the amount breakdown.
func (t *CustomerTransaction) Financials() finance.TransactionFinancials { return t.financials }

// Category classifies the entry from its amount signs.
func (t *CustomerTransaction) Category() finance.TransactionCategory { return t.financials.Category() }

// FinalizationDate returns when the entry was finalized, if it was.
func (t *CustomerTransaction) FinalizationDate() (time.Time, bool) {
	if t.finalizationDate == nil {
		return time.Time{}, false
	}
	return *t.finalizationDate, true
}

// IsFinalized reports whether the entry has been finalized.
func (t *CustomerTransaction) IsFinalized() bool { return t.finalizationDate != nil }

// LastEditedBy returns the last editor.
func (t *CustomerTransaction) LastEditedBy() int64 { return t.lastEditedBy }

// LastEditedWhen returns the last edit instant.
func (t *CustomerTransaction) LastEditedWhen() time.Time { return t.lastEditedWhen }

func (t *CustomerTransaction) guardMutable(op string) error {
	if t.IsFinalized() {
		return shared.NewStateError(op, "transaction already finalized")
	}
	return nil
}

// FinalizeTransaction closes the entry. The finalization date cannot precede
// the transaction date.
func (t *CustomerTransaction) FinalizeTransaction(date time.Time, actor shared.ActorContext) error {
	if t.IsFinalized() {
		return shared.NewStateError("finalize transaction", "transaction already finalized")
	}
	if date.Before(t.transactionDate) {
		return shared.NewValidationError("date", "cannot precede transaction date")
	}
	t.finalizationDate = &date
	t.stamp(actor)
	return nil
}

// UnfinalizeTransaction reopens a finalized entry.
func (t *CustomerTransaction) UnfinalizeTransaction(actor shared.ActorContext) error {
	if !t.IsFinalized() {
		return shared.NewStateError("unfinalize transaction", "transaction not finalized")
	}
	t.finalizationDate = nil
	t.stamp(actor)
	return nil
}

// ApplyPayment reduces the outstanding balance.
func (t *CustomerTransaction) ApplyPayment(amount decimal.Decimal, actor shared.ActorContext) error {
	if err := t.guardMutable("apply payment"); err != nil {
		return err
	}
	if t.financials.IsSettled() {
		return shared.NewStateError("apply payment", "no outstanding balance")
	}
	financials, err := t.financials.ApplyPayment(amount)
	if err != nil {
		return err
	}
	t.financials = financials
	t.stamp(actor)
	return nil
}

// UpdateOutstandingBalance sets the balance outright, for reconciliation.
func (t *CustomerTransaction) UpdateOutstandingBalance(balance decimal.Decimal, actor shared.ActorContext) error {
	if err := t.guardMutable("update outstanding balance"); err != nil {
		return err
	}
	financials, err := t.financials.WithOutstandingBalance(balance)
	if err != nil {
		return err
	}
	t.financials = financials
	t.stamp(actor)
	return nil
}

// LinkInvoice attaches the entry to an invoice.
func (t *CustomerTransaction) LinkInvoice(invoiceID int64, actor shared.ActorContext) error {
	if err := t.guardMutable("link invoice"); err != nil {
		return err
	}
	if err := shared.RequireID("invoiceID", invoiceID); err != nil {
		return err
	}
	t.invoiceID = &invoiceID
	t.stamp(actor)
	return nil
}

// UnlinkInvoice detaches the entry from its invoice.
func (t *CustomerTransaction) UnlinkInvoice(actor shared.ActorContext) error {
	if err := t.guardMutable("unlink invoice"); err != nil {
		return err
	}
	if t.invoiceID == nil {
		return shared.NewStateError("unlink invoice", "no invoice linked")
	}
	t.invoiceID = nil
	t.stamp(actor)
	return nil
}

// ChangePaymentMethod records how the entry was settled.
func (t *CustomerTransaction) ChangePaymentMethod(paymentMethodID int64, actor shared.ActorContext) error {
	if err := t.guardMutable("change payment method"); err != nil {
		return err
	}
	if err := shared.RequireID("paymentMethodID", paymentMethodID); err != nil {
		return err
	}
	t.paymentMethodID = &paymentMethodID
	t.stamp(actor)
	return nil
}

func (t *CustomerTransaction) stamp(actor shared.ActorContext) {
	t.lastEditedBy = actor.PersonID
	t.lastEditedWhen = actor.At
}

// DaysOutstanding returns whole days between the transaction date and asOf.
func (t *CustomerTransaction) DaysOutstanding(asOf time.Time) int {
	return int(asOf.Sub(t.transactionDate).Hours() / 24)
}
