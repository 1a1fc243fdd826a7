package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/billing/receivables"
	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines data access for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, invoice *Invoice) (int64, error)
	InsertLine(ctx context.Context, invoiceID int64, line *InvoiceLine) (int64, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, int, error)
	UpdateHeader(ctx context.Context, invoice *Invoice) error
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	CustomerID  *int64
	CreditNotes *bool
	Page        shared.Pagination
}

// Ledger posts billing documents to the AR ledger. The receivables service
// satisfies it.
type Ledger interface {
	PostInvoice(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*receivables.CustomerTransaction, error)
	PostCreditNote(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*receivables.CustomerTransaction, error)
}

// Service owns the billing workflow.
type Service struct {
	repo   Repository
	ledger Ledger
	logger *slog.Logger
}

// NewService builds the invoices service. ledger may be nil when AR posting
// is not wired; documents are then created without ledger entries.
func NewService(repo Repository, ledger Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, logger: logger}
}

// LineInput is a requested invoice line.
type LineInput struct {
	StockItemID   int64
	Description   string
	PackageTypeID int64
	Quantity      int64
	UnitPrice     *decimal.Decimal
	TaxRate       decimal.Decimal
	CostPrice     decimal.Decimal
}

// CreateInvoiceInput carries a validated invoice creation request.
type CreateInvoiceInput struct {
	CustomerID            int64
	OrderID               *int64
	InvoiceDate           time.Time
	CustomerPurchaseOrder string
	Comments              string
	DeliveryInstructions  string
	Lines                 []LineInput
}

// Create builds the invoice, persists it with its lines in one transaction,
// and posts the charge to the AR ledger.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput, actor shared.ActorContext) (*Invoice, error) {
	invoice, err := NewInvoice(input.CustomerID, input.OrderID, input.InvoiceDate, input.CustomerPurchaseOrder, actor)
	if err != nil {
		return nil, err
	}
	if input.Comments != "" {
		invoice.UpdateComments(input.Comments, actor)
	}
	if input.DeliveryInstructions != "" {
		invoice.UpdateDeliveryInstructions(input.DeliveryInstructions, actor)
	}

	for _, lineInput := range input.Lines {
		financials, err := finance.CalculateLine(lineInput.Quantity, lineInput.UnitPrice, lineInput.TaxRate, lineInput.CostPrice)
		if err != nil {
			return nil, err
		}
		line, err := NewInvoiceLine(lineInput.StockItemID, lineInput.Description, lineInput.PackageTypeID, financials, actor)
		if err != nil {
			return nil, err
		}
		if err := invoice.AddLine(line, actor); err != nil {
			return nil, err
		}
	}

	if err := s.persist(ctx, invoice); err != nil {
		return nil, err
	}

	if s.ledger != nil {
		id, _ := invoice.ID().Value()
		if _, err := s.ledger.PostInvoice(ctx, invoice.CustomerID(), id, invoice.InvoiceDate(),
			invoice.TotalExcludingTax(), invoice.TotalTax(), actor); err != nil {
			return nil, fmt.Errorf("post invoice to ledger: %w", err)
		}
	}
	return invoice, nil
}

// CreateCreditNote derives and persists a credit note from an invoice, and
// posts the matching negative entry to the AR ledger.
func (s *Service) CreateCreditNote(ctx context.Context, invoiceID int64, reason string, actor shared.ActorContext) (*Invoice, error) {
	original, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	note, err := original.CreateCreditNote(reason, actor)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, note); err != nil {
		return nil, err
	}

	if s.ledger != nil {
		id, _ := note.ID().Value()
		if _, err := s.ledger.PostCreditNote(ctx, note.CustomerID(), id, note.InvoiceDate(),
			note.TotalExcludingTax(), note.TotalTax(), actor); err != nil {
			return nil, fmt.Errorf("post credit note to ledger: %w", err)
		}
	}

	s.logger.Info("credit note raised",
		slog.Int64("invoice_id", invoiceID),
		slog.String("reason", note.CreditNoteReason()))
	return note, nil
}

func (s *Service) persist(ctx context.Context, invoice *Invoice) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, invoice)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := invoice.ID().Assign(id); err != nil {
			return err
		}
		for _, line := range invoice.Lines() {
			lineID, err := repo.InsertLine(ctx, id, line)
			if err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
			if err := line.ID().Assign(lineID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads one invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List loads a filtered page of invoices.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdateComments replaces an invoice's comments.
func (s *Service) UpdateComments(ctx context.Context, id int64, comments string, actor shared.ActorContext) (*Invoice, error) {
	return s.mutate(ctx, id, func(inv *Invoice) error {
		inv.UpdateComments(comments, actor)
		return nil
	})
}

// UpdateDeliveryInstructions replaces an invoice's courier instructions.
func (s *Service) UpdateDeliveryInstructions(ctx context.Context, id int64, instructions string, actor shared.ActorContext) (*Invoice, error) {
	return s.mutate(ctx, id, func(inv *Invoice) error {
		inv.UpdateDeliveryInstructions(instructions, actor)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id int64, mutate func(*Invoice) error) (*Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := mutate(invoice); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateHeader(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return invoice, nil
}
