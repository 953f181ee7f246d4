package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// OrderStore implements domain.OrderStore on PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// WithinTx runs fn inside a single database transaction. pgx.BeginTxFunc
// commits on nil return and rolls back on error or panic, which is what
// makes mid-creation reservation failures undo everything before them.
func (s *OrderStore) WithinTx(ctx context.Context, fn func(tx domain.OrderTx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	const op = "order.get"

	o, err := scanOrder(s.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get order")
	}

	if err := s.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	return o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.list(ctx, "order.list_by_user", ` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	return s.list(ctx, "order.list", ` ORDER BY created_at DESC`)
}

func (s *OrderStore) list(ctx context.Context, op, clause string, args ...any) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, selectOrder+clause, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan order")
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read orders")
	}

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out, nil
}

// loadItems fills Items for the given orders in one query.
func (s *OrderStore) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := s.pool.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return err
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

const selectOrder = `
	SELECT id, user_id, status,
	       subtotal_cents, shipping_cents, discount_cents, total_cents,
	       coupon_id,
	       ship_name, ship_line1, ship_city, ship_postal_code, ship_country, ship_contact,
	       payment_id, payment_status,
	       proof_url, proof_submitted_at,
	       created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		couponID  *string
		payID     *string
		payStatus *string
		proofURL  *string
		proofAt   *time.Time
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status,
		&o.SubtotalCents, &o.ShippingCents, &o.DiscountCents, &o.TotalCents,
		&couponID,
		&o.ShippingAddress.Name, &o.ShippingAddress.Line1, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country, &o.ShippingAddress.ContactNumber,
		&payID, &payStatus,
		&proofURL, &proofAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if couponID != nil {
		o.CouponID = *couponID
	}
	if payID != nil && payStatus != nil {
		o.Payment = &domain.PaymentDetails{PaymentID: *payID, Status: *payStatus}
	}
	if proofURL != nil && proofAt != nil {
		o.Proof = &domain.PaymentProof{ScreenshotURL: *proofURL, SubmittedAt: *proofAt}
	}
	return &o, nil
}

// orderTx implements domain.OrderTx on a live pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

var _ domain.OrderTx = (*orderTx)(nil)

func (t *orderTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	const op = "order.insert"

	var couponID *string
	if o.CouponID != "" {
		couponID = &o.CouponID
	}

	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, status,
			subtotal_cents, shipping_cents, discount_cents, total_cents,
			coupon_id,
			ship_name, ship_line1, ship_city, ship_postal_code, ship_country, ship_contact,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		o.ID, o.UserID, o.Status,
		o.SubtotalCents, o.ShippingCents, o.DiscountCents, o.TotalCents,
		couponID,
		o.ShippingAddress.Name, o.ShippingAddress.Line1, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country, o.ShippingAddress.ContactNumber,
		o.CreatedAt)
	if err != nil {
		return domain.Internal(err, op, "failed to insert order")
	}

	for _, item := range o.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents, line_total_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, item.ProductID, item.Quantity, item.PriceCents, item.PriceCents*item.Quantity)
		if err != nil {
			return domain.Internal(err, op, "failed to insert order item")
		}
	}
	return nil
}

func (t *orderTx) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	const op = "order.update_status"

	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		orderID, from, to)
	if err != nil {
		return domain.Internal(err, op, "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		// Either the order is gone or another request moved it first.
		var current domain.OrderStatus
		err := t.tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Internal(err, op, "failed to check order status")
		}
		return domain.ErrOrderConflict
	}
	return nil
}

func (t *orderTx) SetPaymentDetails(ctx context.Context, orderID string, d domain.PaymentDetails) error {
	const op = "order.set_payment"

	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET payment_id = $2, payment_status = $3, updated_at = now() WHERE id = $1`,
		orderID, d.PaymentID, d.Status)
	if err != nil {
		return domain.Internal(err, op, "failed to save payment details")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (t *orderTx) SetPaymentProof(ctx context.Context, orderID string, p domain.PaymentProof) error {
	const op = "order.set_proof"

	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET proof_url = $2, proof_submitted_at = $3, updated_at = now() WHERE id = $1`,
		orderID, p.ScreenshotURL, p.SubmittedAt)
	if err != nil {
		return domain.Internal(err, op, "failed to save payment proof")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (t *orderTx) ReserveStock(ctx context.Context, productID string, qty int64) error {
	return reserveStock(ctx, t.tx, productID, qty)
}

func (t *orderTx) CommitStock(ctx context.Context, productID string, qty int64) error {
	return commitStock(ctx, t.tx, productID, qty)
}

func (t *orderTx) ReleaseStock(ctx context.Context, productID string, qty int64) error {
	return releaseStock(ctx, t.tx, productID, qty)
}

func (t *orderTx) RedeemCoupon(ctx context.Context, couponID, userID string) error {
	const op = "order.redeem_coupon"

	_, err := t.tx.Exec(ctx,
		`INSERT INTO coupon_redemptions (coupon_id, user_id, redeemed_at) VALUES ($1, $2, now())`,
		couponID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCouponAlreadyUsed
		}
		return domain.Internal(err, op, "failed to record coupon redemption")
	}
	return nil
}
