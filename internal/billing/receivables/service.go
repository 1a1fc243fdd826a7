package receivables

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for ledger entries.
type Repository interface {
	Create(ctx context.Context, txn *CustomerTransaction) (int64, error)
	Get(ctx context.Context, id int64) (*CustomerTransaction, error)
	ListByCustomer(ctx context.Context, customerID int64, page shared.Pagination) ([]*CustomerTransaction, int, error)
	ListOutstanding(ctx context.Context) ([]*CustomerTransaction, error)
	Update(ctx context.Context, txn *CustomerTransaction) error
}

// Service owns the AR ledger workflow.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds the receivables service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// RecordInvoice posts an invoice charge to the ledger. The whole amount
// starts outstanding.
func (s *Service) RecordInvoice(ctx context.Context, customerID int64, invoiceID *int64, transactionDate time.Time, amountExcludingTax, taxRate decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	financials, err := finance.CalculateTransaction(amountExcludingTax, taxRate, nil)
	if err != nil {
		return nil, err
	}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if invoiceID != nil {
		if err := txn.LinkInvoice(*invoiceID, actor); err != nil {
			return nil, err
		}
	}
	return s.persist(ctx, txn)
}

// RecordPayment posts a customer payment. Payments carry no balance of
// their own; settling the charges they cover is a separate ApplyPayment.
func (s *Service) RecordPayment(ctx context.Context, customerID int64, transactionDate time.Time, amount decimal.Decimal, paymentMethodID *int64, actor shared.ActorContext) (*CustomerTransaction, error) {
	financials, err := finance.NewPayment(amount)
	if err != nil {
		return nil, err
	}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if paymentMethodID != nil {
		if err := txn.ChangePaymentMethod(*paymentMethodID, actor); err != nil {
			return nil, err
		}
	}
	return s.persist(ctx, txn)
}

// RecordCreditNote posts a credit against the customer's account.
func (s *Service) RecordCreditNote(ctx context.Context, customerID int64, invoiceID *int64, transactionDate time.Time, amount, taxRate decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	financials, err := finance.NewCredit(amount, taxRate)
	if err != nil {
		return nil, err
	}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if invoiceID != nil {
		if err := txn.LinkInvoice(*invoiceID, actor); err != nil {
			return nil, err
		}
	}
	return s.persist(ctx, txn)
}

// PostInvoice posts an invoice charge from amounts computed upstream.
// Billing totals mix per-line tax rates, so the tax arrives as an amount
// rather than a rate.
func (s *Service) PostInvoice(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	total := amountExcludingTax.Add(taxAmount)
	financials, err := finance.ReconstructTransaction(amountExcludingTax, taxAmount, total, total)
	if err != nil {
		return nil, err
	}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if err := txn.LinkInvoice(invoiceID, actor); err != nil {
		return nil, err
	}
	return s.persist(ctx, txn)
}

// PostCreditNote posts the negative counterpart of an invoice's amounts.
func (s *Service) PostCreditNote(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	net := amountExcludingTax.Neg()
	tax := taxAmount.Neg()
	financials, err := finance.ReconstructTransaction(net, tax, net.Add(tax), decimal.Zero)
	if err != nil {
		return nil, err
	}
	txn, err := NewCustomerTransaction(customerID, transactionDate, financials, actor)
	if err != nil {
		return nil, err
	}
	if err := txn.LinkInvoice(invoiceID, actor); err != nil {
		return nil, err
	}
	return s.persist(ctx, txn)
}

func (s *Service) persist(ctx context.Context, txn *CustomerTransaction) (*CustomerTransaction, error) {
	id, err := s.repo.Create(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if err := txn.ID().Assign(id); err != nil {
		return nil, err
	}
	s.logger.Info("ledger entry recorded",
		slog.Int64("transaction_id", id),
		slog.Int64("customer_id", txn.CustomerID()),
		slog.String("category", string(txn.Category())),
		slog.String("amount", txn.Financials().TransactionAmount().String()))
	return txn, nil
}

// Get loads one ledger entry.
func (s *Service) Get(ctx context.Context, id int64) (*CustomerTransaction, error) {
	return s.repo.Get(ctx, id)
}

// ListByCustomer loads a customer's ledger page.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, page shared.Pagination) ([]*CustomerTransaction, int, error) {
	if err := shared.RequireID("customerID", customerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByCustomer(ctx, customerID, page)
}

// Finalize closes a ledger entry.
func (s *Service) Finalize(ctx context.Context, id int64, date time.Time, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.FinalizeTransaction(date, actor)
	})
}

// Unfinalize reopens a closed entry.
func (s *Service) Unfinalize(ctx context.Context, id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.UnfinalizeTransaction(actor)
	})
}

// ApplyPayment settles part of an entry's outstanding balance.
func (s *Service) ApplyPayment(ctx context.Context, id int64, amount decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.ApplyPayment(amount, actor)
	})
}

// UpdateOutstandingBalance sets an entry's balance for reconciliation.
func (s *Service) UpdateOutstandingBalance(ctx context.Context, id int64, balance decimal.Decimal, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.UpdateOutstandingBalance(balance, actor)
	})
}

// LinkInvoice attaches an entry to an invoice.
func (s *Service) LinkInvoice(ctx context.Context, id, invoiceID int64, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.LinkInvoice(invoiceID, actor)
	})
}

// UnlinkInvoice detaches an entry from its invoice.
func (s *Service) UnlinkInvoice(ctx context.Context, id int64, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.UnlinkInvoice(actor)
	})
}

// ChangePaymentMethod records how an entry was settled.
func (s *Service) ChangePaymentMethod(ctx context.Context, id, paymentMethodID int64, actor shared.ActorContext) (*CustomerTransaction, error) {
	return s.mutate(ctx, id, func(t *CustomerTransaction) error {
		return t.ChangePaymentMethod(paymentMethodID, actor)
	})
}

// Aging buckets every outstanding balance by age as of the given date.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	open, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return AgingBucket{}, fmt.Errorf("list outstanding: %w", err)
	}
	return CalculateAging(open, asOf), nil
}

func (s *Service) mutate(ctx context.Context, id int64, mutate func(*CustomerTransaction) error) (*CustomerTransaction, error) {
	txn, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if err := mutate(txn); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return txn, nil
}
