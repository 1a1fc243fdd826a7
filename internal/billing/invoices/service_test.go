package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/billing/receivables"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices   map[int64]*Invoice
	nextID     int64
	nextLineID int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[int64]*Invoice)}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, invoice *Invoice) (int64, error) {
	r.nextID++
	r.invoices[r.nextID] = invoice
	return r.nextID, nil
}

func (r *memoryInvoiceRepo) InsertLine(ctx context.Context, invoiceID int64, line *InvoiceLine) (int64, error) {
	if _, ok := r.invoices[invoiceID]; !ok {
		return 0, shared.ErrNotFound
	}
	r.nextLineID++
	return r.nextLineID, nil
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return invoice, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, filter ListFilter) ([]*Invoice, int, error) {
	var out []*Invoice
	for id := int64(1); id <= r.nextID; id++ {
		invoice, ok := r.invoices[id]
		if !ok {
			continue
		}
		if filter.CustomerID != nil && invoice.CustomerID() != *filter.CustomerID {
			continue
		}
		if filter.CreditNotes != nil && invoice.IsCreditNote() != *filter.CreditNotes {
			continue
		}
		out = append(out, invoice)
	}
	return out, len(out), nil
}

func (r *memoryInvoiceRepo) UpdateHeader(ctx context.Context, invoice *Invoice) error {
	id, ok := invoice.ID().Value()
	if !ok {
		return shared.NewStateError("update invoice", "invoice has no assigned id")
	}
	if _, exists := r.invoices[id]; !exists {
		return shared.ErrNotFound
	}
	r.invoices[id] = invoice
	return nil
}

type posting struct {
	customerID, invoiceID int64
	date                  time.Time
	amountExcludingTax    decimal.Decimal
	taxAmount             decimal.Decimal
}

type stubLedger struct {
	invoices    []posting
	creditNotes []posting
}

func (l *stubLedger) PostInvoice(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*receivables.CustomerTransaction, error) {
	l.invoices = append(l.invoices, posting{customerID, invoiceID, transactionDate, amountExcludingTax, taxAmount})
	return nil, nil
}

func (l *stubLedger) PostCreditNote(ctx context.Context, customerID, invoiceID int64, transactionDate time.Time, amountExcludingTax, taxAmount decimal.Decimal, actor shared.ActorContext) (*receivables.CustomerTransaction, error) {
	l.creditNotes = append(l.creditNotes, posting{customerID, invoiceID, transactionDate, amountExcludingTax, taxAmount})
	return nil, nil
}

func createInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		CustomerID:  3,
		InvoiceDate: date(2024, time.June, 1),
		Lines: []LineInput{
			{StockItemID: 100, Description: "chilli chocolate", PackageTypeID: 7,
				Quantity: 10, UnitPrice: decPtr("4.50"), TaxRate: dec("15"), CostPrice: dec("3.00")},
		},
	}
}

func TestCreatePostsLedgerCharge(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	ledger := &stubLedger{}
	svc := NewService(repo, ledger, nil)

	invoice, err := svc.Create(context.Background(), createInput(), testActor(t))
	require.NoError(t, err)

	id, assigned := invoice.ID().Value()
	require.True(t, assigned)
	require.Equal(t, int64(1), id)

	require.Len(t, ledger.invoices, 1)
	post := ledger.invoices[0]
	require.Equal(t, int64(3), post.customerID)
	require.Equal(t, id, post.invoiceID)
	require.True(t, post.amountExcludingTax.Equal(dec("45")))
	require.True(t, post.taxAmount.Equal(dec("6.75")))
}

func TestCreateCreditNotePostsNegativeEntry(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	ledger := &stubLedger{}
	svc := NewService(repo, ledger, nil)
	ctx := context.Background()
	actor := testActor(t)

	invoice, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	invoiceID, _ := invoice.ID().Value()

	note, err := svc.CreateCreditNote(ctx, invoiceID, "damaged in transit", actor)
	require.NoError(t, err)
	noteID, assigned := note.ID().Value()
	require.True(t, assigned)
	require.NotEqual(t, invoiceID, noteID)

	require.Len(t, ledger.creditNotes, 1)
	post := ledger.creditNotes[0]
	require.Equal(t, noteID, post.invoiceID)
	require.True(t, post.amountExcludingTax.Equal(dec("45")))

	_, err = svc.CreateCreditNote(ctx, noteID, "again", actor)
	require.True(t, shared.IsState(err))
}

func TestLedgerRoundTripThroughReceivables(t *testing.T) {
	invoiceRepo := newMemoryInvoiceRepo()
	ledgerRepo := newMemoryLedgerRepo()
	ledger := receivables.NewService(ledgerRepo, nil)
	svc := NewService(invoiceRepo, ledger, nil)
	ctx := context.Background()
	actor := testActor(t)

	invoice, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)

	bucket, err := ledger.Aging(ctx, date(2024, time.June, 10))
	require.NoError(t, err)
	require.True(t, bucket.Total().Equal(invoice.TotalIncludingTax()))

	invoiceID, _ := invoice.ID().Value()
	_, err = svc.CreateCreditNote(ctx, invoiceID, "damaged in transit", actor)
	require.NoError(t, err)

	txns, _, err := ledger.ListByCustomer(ctx, 3, shared.NewPagination(1, 20, 0))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	net := decimal.Zero
	for _, txn := range txns {
		net = net.Add(txn.Financials().TransactionAmount())
	}
	require.True(t, net.IsZero(), "credit note offsets the invoice, net %s", net)
}

func TestUpdateCommentsPersists(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	actor := testActor(t)

	invoice, err := svc.Create(ctx, createInput(), actor)
	require.NoError(t, err)
	id, _ := invoice.ID().Value()

	updated, err := svc.UpdateComments(ctx, id, "call ahead", actor)
	require.NoError(t, err)
	require.Equal(t, "call ahead", updated.Comments())

	_, err = svc.UpdateComments(ctx, 99, "missing", actor)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

type memoryLedgerRepo struct {
	txns   map[int64]*receivables.CustomerTransaction
	nextID int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{txns: make(map[int64]*receivables.CustomerTransaction)}
}

func (r *memoryLedgerRepo) Create(ctx context.Context, txn *receivables.CustomerTransaction) (int64, error) {
	r.nextID++
	r.txns[r.nextID] = txn
	return r.nextID, nil
}

func (r *memoryLedgerRepo) Get(ctx context.Context, id int64) (*receivables.CustomerTransaction, error) {
	txn, ok := r.txns[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return txn, nil
}

func (r *memoryLedgerRepo) ListByCustomer(ctx context.Context, customerID int64, page shared.Pagination) ([]*receivables.CustomerTransaction, int, error) {
	var out []*receivables.CustomerTransaction
	for id := int64(1); id <= r.nextID; id++ {
		if txn, ok := r.txns[id]; ok && txn.CustomerID() == customerID {
			out = append(out, txn)
		}
	}
	return out, len(out), nil
}

func (r *memoryLedgerRepo) ListOutstanding(ctx context.Context) ([]*receivables.CustomerTransaction, error) {
	var out []*receivables.CustomerTransaction
	for id := int64(1); id <= r.nextID; id++ {
		if txn, ok := r.txns[id]; ok && !txn.Financials().IsSettled() {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) Update(ctx context.Context, txn *receivables.CustomerTransaction) error {
	id, ok := txn.ID().Value()
	if !ok {
		return shared.NewStateError("update transaction", "transaction has no assigned id")
	}
	if _, exists := r.txns[id]; !exists {
		return shared.ErrNotFound
	}
	r.txns[id] = txn
	return nil
}
