package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed invoice repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceColumns = `id, customer_id, order_id, invoice_date, customer_purchase_order,
	is_credit_note, credit_note_reason, comments, delivery_instructions,
	last_edited_by, last_edited_when`

func (r *repository) Create(ctx context.Context, invoice *Invoice) (int64, error) {
	var orderID *int64
	if v, ok := invoice.OrderID(); ok {
		orderID = &v
	}

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (customer_id, order_id, invoice_date, customer_purchase_order,
			is_credit_note, credit_note_reason, comments, delivery_instructions,
			last_edited_by, last_edited_when)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		invoice.CustomerID(), orderID, invoice.InvoiceDate(), invoice.CustomerPurchaseOrder(),
		invoice.IsCreditNote(), invoice.CreditNoteReason(), invoice.Comments(), invoice.DeliveryInstructions(),
		invoice.LastEditedBy(), invoice.LastEditedWhen(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertLine(ctx context.Context, invoiceID int64, line *InvoiceLine) (int64, error) {
	fin := line.Financials()
	var unitPrice *decimal.Decimal
	if price, ok := fin.UnitPrice(); ok {
		unitPrice = &price
	}

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_lines (invoice_id, stock_item_id, description, package_type_id,
			quantity, unit_price, tax_rate, cost_price, extended_price, tax_amount, line_profit,
			last_edited_by, last_edited_when)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		invoiceID, line.StockItemID(), line.Description(), line.PackageTypeID(),
		fin.Quantity(), unitPrice, fin.TaxRate(), fin.CostPrice(),
		fin.ExtendedPrice(), fin.TaxAmount(), fin.LineProfit(),
		line.LastEditedBy(), line.LastEditedWhen(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	invoice, err := r.scanInvoice(ctx, row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return invoice, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	arg := 0
	next := func(v interface{}) string {
		arg++
		args = append(args, v)
		return fmt.Sprintf("$%d", arg)
	}

	if filter.CustomerID != nil {
		where += ` AND customer_id = ` + next(*filter.CustomerID)
	}
	if filter.CreditNotes != nil {
		where += ` AND is_credit_note = ` + next(*filter.CreditNotes)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY id LIMIT ` + next(filter.Page.PerPage) + ` OFFSET ` + next(filter.Page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	type header struct {
		id, customerID, lastEditedBy     int64
		orderID                          *int64
		invoiceDate, lastEditedWhen      time.Time
		po, reason, comments, deliverTo  string
		isCreditNote                     bool
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.customerID, &h.orderID, &h.invoiceDate, &h.po,
			&h.isCreditNote, &h.reason, &h.comments, &h.deliverTo, &h.lastEditedBy, &h.lastEditedWhen); err != nil {
			rows.Close()
			return nil, 0, err
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var invoices []*Invoice
	for _, h := range headers {
		lines, err := r.loadLines(ctx, h.id)
		if err != nil {
			return nil, 0, err
		}
		invoice, err := ReconstructInvoice(h.id, h.customerID, h.orderID, h.invoiceDate, h.po,
			h.isCreditNote, h.reason, h.comments, h.deliverTo, lines, h.lastEditedBy, h.lastEditedWhen)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, total, nil
}

func (r *repository) UpdateHeader(ctx context.Context, invoice *Invoice) error {
	id, ok := invoice.ID().Value()
	if !ok {
		return shared.NewStateError("update invoice", "invoice has no assigned id")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET comments = $2, delivery_instructions = $3, last_edited_by = $4, last_edited_when = $5
		WHERE id = $1`,
		id, invoice.Comments(), invoice.DeliveryInstructions(),
		invoice.LastEditedBy(), invoice.LastEditedWhen())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) scanInvoice(ctx context.Context, row pgx.Row) (*Invoice, error) {
	var (
		id, customerID, lastEditedBy    int64
		orderID                         *int64
		invoiceDate, lastEditedWhen     time.Time
		po, reason, comments, deliverTo string
		isCreditNote                    bool
	)
	if err := row.Scan(&id, &customerID, &orderID, &invoiceDate, &po,
		&isCreditNote, &reason, &comments, &deliverTo, &lastEditedBy, &lastEditedWhen); err != nil {
		return nil, err
	}
	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReconstructInvoice(id, customerID, orderID, invoiceDate, po,
		isCreditNote, reason, comments, deliverTo, lines, lastEditedBy, lastEditedWhen)
}

func (r *repository) loadLines(ctx context.Context, invoiceID int64) ([]*InvoiceLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, stock_item_id, description, package_type_id, quantity, unit_price, tax_rate,
			cost_price, extended_price, tax_amount, line_profit, last_edited_by, last_edited_when
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*InvoiceLine
	for rows.Next() {
		var (
			id, stockItemID, packageTypeID, lastEditedBy  int64
			description                                   string
			quantity                                      int64
			unitPrice                                     *decimal.Decimal
			taxRate, costPrice, extended, tax, profit     decimal.Decimal
			lastEditedWhen                                time.Time
		)
		if err := rows.Scan(&id, &stockItemID, &description, &packageTypeID, &quantity, &unitPrice,
			&taxRate, &costPrice, &extended, &tax, &profit, &lastEditedBy, &lastEditedWhen); err != nil {
			return nil, err
		}
		financials, err := finance.ReconstructLine(quantity, unitPrice, taxRate, costPrice, extended, tax, profit)
		if err != nil {
			return nil, err
		}
		line, err := ReconstructInvoiceLine(id, stockItemID, description, packageTypeID, financials, lastEditedBy, lastEditedWhen)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
