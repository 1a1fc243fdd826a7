package receivables

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const transactionColumns = `id, customer_id, invoice_id, payment_method_id, transaction_date,
	amount_excluding_tax, tax_amount, transaction_amount, outstanding_balance,
	finalization_date, last_edited_by, last_edited_when`

func (r *repository) Create(ctx context.Context, txn *CustomerTransaction) (int64, error) {
	var invoiceID, paymentMethodID *int64
	if v, ok := txn.InvoiceID(); ok {
		invoiceID = &v
	}
	if v, ok := txn.PaymentMethodID(); ok {
		paymentMethodID = &v
	}
	var finalized *time.Time
	if when, ok := txn.FinalizationDate(); ok {
		finalized = &when
	}

	fin := txn.Financials()
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customer_transactions (customer_id, invoice_id, payment_method_id, transaction_date,
			amount_excluding_tax, tax_amount, transaction_amount, outstanding_balance,
			finalization_date, last_edited_by, last_edited_when)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		txn.CustomerID(), invoiceID, paymentMethodID, txn.TransactionDate(),
		fin.AmountExcludingTax(), fin.TaxAmount(), fin.TransactionAmount(), fin.OutstandingBalance(),
		finalized, txn.LastEditedBy(), txn.LastEditedWhen(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*CustomerTransaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM customer_transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return txn, err
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64, page shared.Pagination) ([]*CustomerTransaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customer_transactions WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM customer_transactions
		WHERE customer_id = $1
		ORDER BY transaction_date DESC, id DESC
		LIMIT $2 OFFSET $3`, customerID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	txns, err := scanTransactions(rows)
	return txns, total, err
}

func (r *repository) ListOutstanding(ctx context.Context) ([]*CustomerTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM customer_transactions
		WHERE outstanding_balance <> 0
		ORDER BY transaction_date`)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *repository) Update(ctx context.Context, txn *CustomerTransaction) error {
	id, ok := txn.ID().Value()
	if !ok {
		return shared.NewStateError("update transaction", "transaction has no assigned id")
	}
	var invoiceID, paymentMethodID *int64
	if v, has := txn.InvoiceID(); has {
		invoiceID = &v
	}
	if v, has := txn.PaymentMethodID(); has {
		paymentMethodID = &v
	}
	var finalized *time.Time
	if when, has := txn.FinalizationDate(); has {
		finalized = &when
	}

	fin := txn.Financials()
	tag, err := r.pool.Exec(ctx, `
		UPDATE customer_transactions
		SET invoice_id = $2, payment_method_id = $3, outstanding_balance = $4,
			finalization_date = $5, last_edited_by = $6, last_edited_when = $7
		WHERE id = $1`,
		id, invoiceID, paymentMethodID, fin.OutstandingBalance(), finalized,
		txn.LastEditedBy(), txn.LastEditedWhen())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*CustomerTransaction, error) {
	var (
		id, customerID, lastEditedBy                             int64
		invoiceID, paymentMethodID                               *int64
		transactionDate, lastEditedWhen                          time.Time
		amountExcludingTax, taxAmount, amount, outstanding       decimal.Decimal
		finalizationDate                                         *time.Time
	)
	if err := row.Scan(&id, &customerID, &invoiceID, &paymentMethodID, &transactionDate,
		&amountExcludingTax, &taxAmount, &amount, &outstanding,
		&finalizationDate, &lastEditedBy, &lastEditedWhen); err != nil {
		return nil, err
	}
	financials, err := finance.ReconstructTransaction(amountExcludingTax, taxAmount, amount, outstanding)
	if err != nil {
		return nil, err
	}
	return ReconstructTransaction(id, customerID, invoiceID, paymentMethodID, transactionDate,
		financials, finalizationDate, lastEditedBy, lastEditedWhen)
}

func scanTransactions(rows pgx.Rows) ([]*CustomerTransaction, error) {
	defer rows.Close()
	var txns []*CustomerTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
