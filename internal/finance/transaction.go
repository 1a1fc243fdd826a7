package finance

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TransactionCategory classifies a ledger entry purely from the signs of its
// amounts. It is derived on read and never stored.
type TransactionCategory string

const (
	CategoryInvoice    TransactionCategory = "INVOICE"
	CategoryPayment    TransactionCategory = "PAYMENT"
	CategoryCreditNote TransactionCategory = "CREDIT_NOTE"
	CategoryOther      TransactionCategory = "OTHER"
)

// TransactionFinancials tracks the amounts and outstanding balance of a
// customer ledger entry. Positive amounts are charges (invoices); negative
// amounts are payments and credits, which never carry an outstanding balance.
type TransactionFinancials struct {
	amountExcludingTax decimal.Decimal
	taxAmount          decimal.Decimal
	transactionAmount  decimal.Decimal
	outstandingBalance decimal.Decimal
}

// CalculateTransaction builds an invoice-type entry. When outstanding is nil
// the full transaction amount is outstanding.
func CalculateTransaction(amountExcludingTax decimal.Decimal, taxRate decimal.Decimal, outstanding *decimal.Decimal) (TransactionFinancials, error) {
	if err := ValidateTaxRate(taxRate); err != nil {
		return TransactionFinancials{}, err
	}

	tax := taxOn(amountExcludingTax, taxRate)
	total := amountExcludingTax.Add(tax)

	balance := total
	if outstanding != nil {
		balance = *outstanding
	}

	t := TransactionFinancials{
		amountExcludingTax: amountExcludingTax,
		taxAmount:          tax,
		transactionAmount:  total,
	}
	return t.WithOutstandingBalance(balance)
}

// NewPayment builds a fully negative, zero-outstanding payment entry.
func NewPayment(amount decimal.Decimal) (TransactionFinancials, error) {
	if !amount.IsPositive() {
		return TransactionFinancials{}, shared.NewValidationError("amount", "payment amount must be positive")
	}
	return TransactionFinancials{
		amountExcludingTax: amount.Neg(),
		taxAmount:          decimal.Zero,
		transactionAmount:  amount.Neg(),
		outstandingBalance: decimal.Zero,
	}, nil
}

// NewCredit builds a fully negative credit entry with negative tax.
func NewCredit(amount decimal.Decimal, taxRate decimal.Decimal) (TransactionFinancials, error) {
	if !amount.IsPositive() {
		return TransactionFinancials{}, shared.NewValidationError("amount", "credit amount must be positive")
	}
	if err := ValidateTaxRate(taxRate); err != nil {
		return TransactionFinancials{}, err
	}
	excl := amount.Neg()
	tax := taxOn(excl, taxRate)
	return TransactionFinancials{
		amountExcludingTax: excl,
		taxAmount:          tax,
		transactionAmount:  excl.Add(tax),
		outstandingBalance: decimal.Zero,
	}, nil
}

// ReconstructTransaction rehydrates stored amounts, re-checking that the
// total matches its parts within a cent and that the balance invariant holds.
func ReconstructTransaction(amountExcludingTax, taxAmount, transactionAmount, outstandingBalance decimal.Decimal) (TransactionFinancials, error) {
	if !withinTolerance(transactionAmount, amountExcludingTax.Add(taxAmount)) {
		return TransactionFinancials{}, shared.Validationf("transactionAmount",
			"stored %s does not match %s + %s", transactionAmount, amountExcludingTax, taxAmount)
	}
	t := TransactionFinancials{
		amountExcludingTax: amountExcludingTax,
		taxAmount:          taxAmount,
		transactionAmount:  transactionAmount,
	}
	return t.WithOutstandingBalance(outstandingBalance)
}

// WithOutstandingBalance returns a new instance with the balance replaced.
// This is the single enforcement point for the sign-dependent invariant:
// charges keep a balance within [0, transactionAmount], payments and credits
// keep exactly zero.
func (t TransactionFinancials) WithOutstandingBalance(balance decimal.Decimal) (TransactionFinancials, error) {
	if balance.IsNegative() {
		return TransactionFinancials{}, shared.NewValidationError("outstandingBalance", "cannot be negative")
	}
	if t.transactionAmount.IsPositive() {
		if balance.GreaterThan(t.transactionAmount) {
			return TransactionFinancials{}, shared.Validationf("outstandingBalance",
				"%s exceeds transaction amount %s", balance, t.transactionAmount)
		}
	} else if !balance.IsZero() {
		return TransactionFinancials{}, shared.NewValidationError("outstandingBalance",
			"must be zero for payment and credit entries")
	}
	t.outstandingBalance = balance
	return t, nil
}

// ApplyPayment reduces the outstanding balance by amount.
func (t TransactionFinancials) ApplyPayment(amount decimal.Decimal) (TransactionFinancials, error) {
	if amount.IsNegative() {
		return TransactionFinancials{}, shared.NewValidationError("amount", "payment cannot be negative")
	}
	if amount.GreaterThan(t.outstandingBalance) {
		return TransactionFinancials{}, shared.Validationf("amount",
			"payment %s exceeds outstanding balance %s", amount, t.outstandingBalance)
	}
	return t.WithOutstandingBalance(t.outstandingBalance.Sub(amount))
}

// AmountExcludingTax returns the net amount.
func (t TransactionFinancials) AmountExcludingTax() decimal.Decimal { return t.amountExcludingTax }

// TaxAmount returns the tax portion.
func (t TransactionFinancials) TaxAmount() decimal.Decimal { return t.taxAmount }

// TransactionAmount returns the gross amount.
func (t TransactionFinancials) TransactionAmount() decimal.Decimal { return t.transactionAmount }

// OutstandingBalance returns the unpaid portion.
func (t TransactionFinancials) OutstandingBalance() decimal.Decimal { return t.outstandingBalance }

// IsSettled reports whether nothing remains outstanding.
func (t TransactionFinancials) IsSettled() bool { return t.outstandingBalance.IsZero() }

// Category classifies the entry from the signs of its amounts.
func (t TransactionFinancials) Category() TransactionCategory {
	switch {
	case t.transactionAmount.IsPositive():
		return CategoryInvoice
	case t.transactionAmount.IsNegative() && t.taxAmount.IsNegative():
		return CategoryCreditNote
	case t.transactionAmount.IsNegative():
		return CategoryPayment
	default:
		return CategoryOther
	}
}
