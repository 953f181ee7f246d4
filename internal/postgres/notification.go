package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// StockAlertStore implements domain.StockAlertStore on PostgreSQL. The
// unique (product_id, email) pair keeps one pending alert per subscriber.
type StockAlertStore struct {
	pool *pgxpool.Pool
}

var _ domain.StockAlertStore = (*StockAlertStore)(nil)

func NewStockAlertStore(pool *pgxpool.Pool) *StockAlertStore {
	return &StockAlertStore{pool: pool}
}

const selectAlert = `
	SELECT id, product_id, email, user_id, status, notified_at, created_at
	FROM stock_alerts`

func (s *StockAlertStore) Create(ctx context.Context, a *domain.StockAlert) error {
	const op = "stock_alert.create"

	var userID *string
	if a.UserID != "" {
		userID = &a.UserID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO stock_alerts (id, product_id, email, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		a.ID, a.ProductID, strings.ToLower(a.Email), userID, a.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAlert
		}
		return domain.Internal(err, op, "failed to create stock alert")
	}
	return nil
}

func (s *StockAlertStore) Get(ctx context.Context, id string) (*domain.StockAlert, error) {
	const op = "stock_alert.get"

	a, err := scanAlert(s.pool.QueryRow(ctx, selectAlert+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get stock alert")
	}
	return a, nil
}

func (s *StockAlertStore) ListByEmail(ctx context.Context, email string) ([]domain.StockAlert, error) {
	return s.list(ctx, "stock_alert.list_by_email",
		` WHERE email = $1 ORDER BY created_at DESC`, strings.ToLower(email))
}

func (s *StockAlertStore) ListPendingByProduct(ctx context.Context, productID string) ([]domain.StockAlert, error) {
	return s.list(ctx, "stock_alert.list_pending",
		` WHERE product_id = $1 AND status = 'pending' ORDER BY created_at`, productID)
}

func (s *StockAlertStore) List(ctx context.Context) ([]domain.StockAlert, error) {
	return s.list(ctx, "stock_alert.list", ` ORDER BY created_at DESC`)
}

func (s *StockAlertStore) list(ctx context.Context, op, clause string, args ...any) ([]domain.StockAlert, error) {
	rows, err := s.pool.Query(ctx, selectAlert+clause, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list stock alerts")
	}
	defer rows.Close()

	var out []domain.StockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan stock alert")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read stock alerts")
	}
	return out, nil
}

func (s *StockAlertStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	const op = "stock_alert.mark_sent"

	tag, err := s.pool.Exec(ctx, `
		UPDATE stock_alerts
		SET status = 'sent', notified_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at)
	if err != nil {
		return domain.Internal(err, op, "failed to mark stock alert sent")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

func (s *StockAlertStore) Cancel(ctx context.Context, id string) error {
	const op = "stock_alert.cancel"

	tag, err := s.pool.Exec(ctx, `
		UPDATE stock_alerts
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to cancel stock alert")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

func scanAlert(row pgx.Row) (*domain.StockAlert, error) {
	var (
		a      domain.StockAlert
		userID *string
	)
	err := row.Scan(&a.ID, &a.ProductID, &a.Email, &userID, &a.Status, &a.NotifiedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		a.UserID = *userID
	}
	return &a, nil
}
