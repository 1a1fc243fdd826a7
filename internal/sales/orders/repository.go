package orders

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

// NewRepository builds the pgx-backed order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Create(ctx context.Context, order *Order) (int64, error) {
	var backorderID *int64
	if id, ok := order.BackorderOrderID(); ok {
		backorderID = &id
	}
	var pickerID *int64
	if id, ok := order.PickedByPersonID(); ok {
		pickerID = &id
	}
	var completedWhen *time.Time
	if when, ok := order.PickingCompletedWhen(); ok {
		completedWhen = &when
	}

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (customer_id, salesperson_person_id, order_date, expected_delivery_date,
			customer_purchase_order, undersupply_backordered, backorder_order_id, comments,
			delivery_instructions, picked_by_person_id, picking_completed_when, last_edited_by, last_edited_when)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		order.CustomerID(), order.SalespersonPersonID(), order.OrderDate(), order.ExpectedDeliveryDate(),
		order.CustomerPurchaseOrder(), order.IsUndersupplyBackordered(), backorderID, order.Comments(),
		order.DeliveryInstructions(), pickerID, completedWhen, order.LastEditedBy(), order.LastEditedWhen(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertLine(ctx context.Context, orderID int64, line *OrderLine) (int64, error) {
	var unitPrice *decimal.Decimal
	if price, ok := line.Financials().UnitPrice(); ok {
		unitPrice = &price
	}
	var completedWhen *time.Time
	if when, ok := line.PickingCompletedWhen(); ok {
		completedWhen = &when
	}

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_order_lines (order_id, stock_item_id, description, package_type_id,
			quantity, unit_price, tax_rate, picked_quantity, picking_completed_when,
			last_edited_by, last_edited_when)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		orderID, line.StockItemID(), line.Description(), line.PackageTypeID(),
		line.Quantity(), unitPrice, line.Financials().TaxRate(), line.PickedQuantity(), completedWhen,
		line.LastEditedBy(), line.LastEditedWhen(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const orderColumns = `id, customer_id, salesperson_person_id, order_date, expected_delivery_date,
	customer_purchase_order, undersupply_backordered, backorder_order_id, comments,
	delivery_instructions, picked_by_person_id, picking_completed_when, last_edited_by, last_edited_when`

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id)
	order, err := r.scanOrder(ctx, row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return order, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
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
	if filter.Status != nil {
		switch *filter.Status {
		case OrderStatusPicked:
			where += ` AND picking_completed_when IS NOT NULL`
		case OrderStatusPicking:
			where += ` AND picking_completed_when IS NULL AND picked_by_person_id IS NOT NULL`
		case OrderStatusPending:
			where += ` AND picking_completed_when IS NULL AND picked_by_person_id IS NULL`
		}
	}
	if filter.DateFrom != nil {
		where += ` AND order_date >= ` + next(*filter.DateFrom)
	}
	if filter.DateTo != nil {
		where += ` AND order_date <= ` + next(*filter.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM sales_orders` + where +
		` ORDER BY id LIMIT ` + next(filter.Page.PerPage) + ` OFFSET ` + next(filter.Page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := r.collectOrders(ctx, rows)
	return orders, total, err
}

func (r *repository) ListOverdue(ctx context.Context, asOf time.Time) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM sales_orders
		WHERE picking_completed_when IS NULL AND expected_delivery_date < $1
		ORDER BY expected_delivery_date`, asOf)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

func (r *repository) UpdateHeader(ctx context.Context, order *Order) error {
	id, ok := order.ID().Value()
	if !ok {
		return shared.NewStateError("update order", "order has no assigned id")
	}
	var backorderID *int64
	if v, has := order.BackorderOrderID(); has {
		backorderID = &v
	}
	var pickerID *int64
	if v, has := order.PickedByPersonID(); has {
		pickerID = &v
	}
	var completedWhen *time.Time
	if when, has := order.PickingCompletedWhen(); has {
		completedWhen = &when
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders
		SET salesperson_person_id = $2, undersupply_backordered = $3, backorder_order_id = $4,
			comments = $5, delivery_instructions = $6, picked_by_person_id = $7,
			picking_completed_when = $8, last_edited_by = $9, last_edited_when = $10
		WHERE id = $1`,
		id, order.SalespersonPersonID(), order.IsUndersupplyBackordered(), backorderID,
		order.Comments(), order.DeliveryInstructions(), pickerID, completedWhen,
		order.LastEditedBy(), order.LastEditedWhen())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateLine(ctx context.Context, orderID int64, line *OrderLine) error {
	id, ok := line.ID().Value()
	if !ok {
		return shared.NewStateError("update order line", "line has no assigned id")
	}
	var unitPrice *decimal.Decimal
	if price, has := line.Financials().UnitPrice(); has {
		unitPrice = &price
	}
	var completedWhen *time.Time
	if when, has := line.PickingCompletedWhen(); has {
		completedWhen = &when
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE sales_order_lines
		SET description = $3, package_type_id = $4, quantity = $5, unit_price = $6, tax_rate = $7,
			picked_quantity = $8, picking_completed_when = $9, last_edited_by = $10, last_edited_when = $11
		WHERE id = $1 AND order_id = $2`,
		id, orderID, line.Description(), line.PackageTypeID(), line.Quantity(), unitPrice,
		line.Financials().TaxRate(), line.PickedQuantity(), completedWhen,
		line.LastEditedBy(), line.LastEditedWhen())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) scanOrder(ctx context.Context, row pgx.Row) (*Order, error) {
	var (
		id, customerID, salespersonID, lastEditedBy  int64
		orderDate, expectedDelivery, lastEditedWhen  time.Time
		customerPO, comments, deliveryInstructions   string
		undersupplyBackordered                       bool
		backorderID, pickerID                        *int64
		completedWhen                                *time.Time
	)
	if err := row.Scan(&id, &customerID, &salespersonID, &orderDate, &expectedDelivery,
		&customerPO, &undersupplyBackordered, &backorderID, &comments,
		&deliveryInstructions, &pickerID, &completedWhen, &lastEditedBy, &lastEditedWhen); err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReconstructOrder(id, customerID, salespersonID, orderDate, expectedDelivery,
		customerPO, undersupplyBackordered, backorderID, comments, deliveryInstructions,
		pickerID, completedWhen, lines, lastEditedBy, lastEditedWhen)
}

func (r *repository) loadLines(ctx context.Context, orderID int64) ([]*OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, stock_item_id, description, package_type_id, quantity, unit_price, tax_rate,
			picked_quantity, picking_completed_when, last_edited_by, last_edited_when
		FROM sales_order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*OrderLine
	for rows.Next() {
		var (
			id, stockItemID, packageTypeID, lastEditedBy int64
			description                                  string
			quantity, pickedQuantity                     int64
			unitPrice                                    *decimal.Decimal
			taxRate                                      decimal.Decimal
			completedWhen                                *time.Time
			lastEditedWhen                               time.Time
		)
		if err := rows.Scan(&id, &stockItemID, &description, &packageTypeID, &quantity, &unitPrice,
			&taxRate, &pickedQuantity, &completedWhen, &lastEditedBy, &lastEditedWhen); err != nil {
			return nil, err
		}
		financials, err := finance.CalculateOrderLine(quantity, unitPrice, taxRate)
		if err != nil {
			return nil, err
		}
		line, err := ReconstructOrderLine(id, stockItemID, description, packageTypeID, financials,
			pickedQuantity, completedWhen, lastEditedBy, lastEditedWhen)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) collectOrders(ctx context.Context, rows pgx.Rows) ([]*Order, error) {
	type header struct {
		id, customerID, salespersonID, lastEditedBy int64
		orderDate, expectedDelivery, lastEditedWhen time.Time
		customerPO, comments, deliveryInstructions  string
		undersupplyBackordered                      bool
		backorderID, pickerID                       *int64
		completedWhen                               *time.Time
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.customerID, &h.salespersonID, &h.orderDate, &h.expectedDelivery,
			&h.customerPO, &h.undersupplyBackordered, &h.backorderID, &h.comments,
			&h.deliveryInstructions, &h.pickerID, &h.completedWhen, &h.lastEditedBy, &h.lastEditedWhen); err != nil {
			rows.Close()
			return nil, err
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var orders []*Order
	for _, h := range headers {
		lines, err := r.loadLines(ctx, h.id)
		if err != nil {
			return nil, err
		}
		order, err := ReconstructOrder(h.id, h.customerID, h.salespersonID, h.orderDate, h.expectedDelivery,
			h.customerPO, h.undersupplyBackordered, h.backorderID, h.comments, h.deliveryInstructions,
			h.pickerID, h.completedWhen, lines, h.lastEditedBy, h.lastEditedWhen)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
