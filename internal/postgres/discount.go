package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// DiscountStore implements domain.DiscountStore on PostgreSQL.
type DiscountStore struct {
	pool *pgxpool.Pool
}

var _ domain.DiscountStore = (*DiscountStore)(nil)

func NewDiscountStore(pool *pgxpool.Pool) *DiscountStore {
	return &DiscountStore{pool: pool}
}

const selectDiscount = `
	SELECT id, name, discount_type, value, min_order_cents, max_discount_cents,
	       starts_at, ends_at, product_ids, categories, usage_limit, used_count,
	       active, created_at, updated_at
	FROM discounts`

func (s *DiscountStore) Create(ctx context.Context, d *domain.Discount) error {
	const op = "discount.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO discounts (
			id, name, discount_type, value, min_order_cents, max_discount_cents,
			starts_at, ends_at, product_ids, categories, usage_limit, used_count,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, now(), now())`,
		d.ID, d.Name, d.DiscountType, d.Value, d.MinOrderCents, d.MaxDiscountCents,
		d.StartsAt, d.EndsAt, d.ProductIDs, d.Categories, d.UsageLimit, d.Active)
	if err != nil {
		return domain.Internal(err, op, "failed to create discount")
	}
	return nil
}

func (s *DiscountStore) Update(ctx context.Context, d *domain.Discount) error {
	const op = "discount.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE discounts
		SET name = $2, discount_type = $3, value = $4, min_order_cents = $5,
		    max_discount_cents = $6, starts_at = $7, ends_at = $8,
		    product_ids = $9, categories = $10, usage_limit = $11,
		    active = $12, updated_at = now()
		WHERE id = $1`,
		d.ID, d.Name, d.DiscountType, d.Value, d.MinOrderCents,
		d.MaxDiscountCents, d.StartsAt, d.EndsAt,
		d.ProductIDs, d.Categories, d.UsageLimit, d.Active)
	if err != nil {
		return domain.Internal(err, op, "failed to update discount")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

func (s *DiscountStore) Delete(ctx context.Context, id string) error {
	const op = "discount.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete discount")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

func (s *DiscountStore) Get(ctx context.Context, id string) (*domain.Discount, error) {
	const op = "discount.get"

	d, err := scanDiscount(s.pool.QueryRow(ctx, selectDiscount+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDiscountNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get discount")
	}
	return d, nil
}

func (s *DiscountStore) List(ctx context.Context) ([]domain.Discount, error) {
	return s.list(ctx, "discount.list", ` ORDER BY created_at DESC`)
}

func (s *DiscountStore) ListActive(ctx context.Context, now time.Time) ([]domain.Discount, error) {
	return s.list(ctx, "discount.list_active",
		` WHERE active AND starts_at <= $1 AND ends_at >= $1 ORDER BY created_at DESC`, now)
}

func (s *DiscountStore) list(ctx context.Context, op, clause string, args ...any) ([]domain.Discount, error) {
	rows, err := s.pool.Query(ctx, selectDiscount+clause, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list discounts")
	}
	defer rows.Close()

	var out []domain.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan discount")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read discounts")
	}
	return out, nil
}

func (s *DiscountStore) IncrementUsage(ctx context.Context, id string) error {
	const op = "discount.increment_usage"

	tag, err := s.pool.Exec(ctx,
		`UPDATE discounts SET used_count = used_count + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to increment discount usage")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

func scanDiscount(row pgx.Row) (*domain.Discount, error) {
	var (
		d        domain.Discount
		minOrder *int64
		maxDisc  *int64
		limit    *int64
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.DiscountType, &d.Value, &minOrder, &maxDisc,
		&d.StartsAt, &d.EndsAt, &d.ProductIDs, &d.Categories, &limit, &d.UsedCount,
		&d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if minOrder != nil {
		d.MinOrderCents = *minOrder
	}
	if maxDisc != nil {
		d.MaxDiscountCents = *maxDisc
	}
	if limit != nil {
		d.UsageLimit = *limit
	}
	return &d, nil
}
