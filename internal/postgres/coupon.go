package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// CouponStore implements domain.CouponStore on PostgreSQL. Codes are
// stored upper-cased; lookups normalize the same way.
type CouponStore struct {
	pool *pgxpool.Pool
}

var _ domain.CouponStore = (*CouponStore)(nil)

func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

const selectCoupon = `
	SELECT id, code, discount_type, value, expires_at, created_at
	FROM coupons`

func (s *CouponStore) Create(ctx context.Context, c *domain.Coupon) error {
	const op = "coupon.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO coupons (id, code, discount_type, value, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		c.ID, strings.ToUpper(c.Code), c.DiscountType, c.Value, c.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCoupon
		}
		return domain.Internal(err, op, "failed to create coupon")
	}
	return nil
}

func (s *CouponStore) Update(ctx context.Context, c *domain.Coupon) error {
	const op = "coupon.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE coupons
		SET code = $2, discount_type = $3, value = $4, expires_at = $5
		WHERE id = $1`,
		c.ID, strings.ToUpper(c.Code), c.DiscountType, c.Value, c.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCoupon
		}
		return domain.Internal(err, op, "failed to update coupon")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (s *CouponStore) Delete(ctx context.Context, id string) error {
	const op = "coupon.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete coupon")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (s *CouponStore) Get(ctx context.Context, id string) (*domain.Coupon, error) {
	return s.one(ctx, "coupon.get", ` WHERE id = $1`, id)
}

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.one(ctx, "coupon.get_by_code", ` WHERE code = $1`, strings.ToUpper(code))
}

func (s *CouponStore) one(ctx context.Context, op, clause string, arg any) (*domain.Coupon, error) {
	var c domain.Coupon
	err := s.pool.QueryRow(ctx, selectCoupon+clause, arg).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get coupon")
	}
	return &c, nil
}

func (s *CouponStore) List(ctx context.Context) ([]domain.Coupon, error) {
	const op = "coupon.list"

	rows, err := s.pool.Query(ctx, selectCoupon+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list coupons")
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, domain.Internal(err, op, "failed to scan coupon")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read coupons")
	}
	return out, nil
}

func (s *CouponStore) HasRedeemed(ctx context.Context, couponID, userID string) (bool, error) {
	const op = "coupon.has_redeemed"

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2
		)`, couponID, userID).Scan(&exists)
	if err != nil {
		return false, domain.Internal(err, op, "failed to check coupon redemption")
	}
	return exists, nil
}
