package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed deal repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const dealColumns = `id, description, customer_kind, customer_target_id, stock_kind, stock_target_id,
	start_date, end_date, pricing_kind, pricing_value, last_edited_by, last_edited_when`

func (r *repository) Create(ctx context.Context, deal *SpecialDeal) (int64, error) {
	rec := recordFromDeal(deal)
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO special_deals (description, customer_kind, customer_target_id, stock_kind, stock_target_id,
			start_date, end_date, pricing_kind, pricing_value, last_edited_by, last_edited_when)
		VALUES ($1, $2, NULLIF($3, 0), $4, NULLIF($5, 0), $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		rec.Description, rec.CustomerKind, rec.CustomerID, rec.StockKind, rec.StockID,
		rec.StartDate, rec.EndDate, rec.PricingKind, rec.PricingValue, rec.LastEditedBy, rec.LastEditedWhen,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*SpecialDeal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM special_deals WHERE id = $1`, id)
	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return deal, err
}

func (r *repository) List(ctx context.Context, page shared.Pagination) ([]*SpecialDeal, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM special_deals`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+dealColumns+` FROM special_deals ORDER BY id LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	deals, err := scanDeals(rows)
	return deals, total, err
}

func (r *repository) ListActiveOn(ctx context.Context, on time.Time) ([]*SpecialDeal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+` FROM special_deals
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY id`, on)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func (r *repository) ListExpiredBefore(ctx context.Context, on time.Time) ([]*SpecialDeal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+` FROM special_deals
		WHERE end_date < $1
		ORDER BY end_date`, on)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func (r *repository) Update(ctx context.Context, deal *SpecialDeal) error {
	id, ok := deal.ID().Value()
	if !ok {
		return shared.NewStateError("update deal", "deal has no assigned id")
	}
	rec := recordFromDeal(deal)
	tag, err := r.pool.Exec(ctx, `
		UPDATE special_deals
		SET description = $2, end_date = $3, pricing_kind = $4, pricing_value = $5,
			last_edited_by = $6, last_edited_when = $7
		WHERE id = $1`,
		id, rec.Description, rec.EndDate, rec.PricingKind, rec.PricingValue, rec.LastEditedBy, rec.LastEditedWhen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanDeal(row pgx.Row) (*SpecialDeal, error) {
	var rec dealRecord
	var customerID, stockID *int64
	if err := row.Scan(&rec.ID, &rec.Description, &rec.CustomerKind, &customerID, &rec.StockKind, &stockID,
		&rec.StartDate, &rec.EndDate, &rec.PricingKind, &rec.PricingValue, &rec.LastEditedBy, &rec.LastEditedWhen); err != nil {
		return nil, err
	}
	if customerID != nil {
		rec.CustomerID = *customerID
	}
	if stockID != nil {
		rec.StockID = *stockID
	}
	return rec.toDeal()
}

func scanDeals(rows pgx.Rows) ([]*SpecialDeal, error) {
	var deals []*SpecialDeal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}
