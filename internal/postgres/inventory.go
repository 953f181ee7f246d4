package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meghkala/api/internal/domain"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// ledger statements run against either.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Each ledger operation is a single conditional UPDATE. The WHERE clause
// carries the invariant; zero rows affected means the precondition did not
// hold at the moment of execution, and the row's state is untouched.

func reserveStock(ctx context.Context, db DBTX, productID string, qty int64) error {
	const op = "inventory.reserve"

	tag, err := db.Exec(ctx, `
		UPDATE products
		SET reserved = reserved + $2, updated_at = now()
		WHERE id = $1
		  AND availability = 'IN_STOCK'
		  AND quantity - reserved >= $2`,
		productID, qty)
	if err != nil {
		return domain.Internal(err, op, "failed to reserve stock")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	return classifyLedgerFailure(ctx, db, op, productID, domain.ErrInsufficientStock)
}

func commitStock(ctx context.Context, db DBTX, productID string, qty int64) error {
	const op = "inventory.commit"

	tag, err := db.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, reserved = reserved - $2, updated_at = now()
		WHERE id = $1
		  AND availability = 'IN_STOCK'
		  AND reserved >= $2
		  AND quantity >= $2`,
		productID, qty)
	if err != nil {
		return domain.Internal(err, op, "failed to commit stock")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	return classifyLedgerFailure(ctx, db, op, productID,
		domain.Errorf(domain.EINTERNAL, op, "reservation missing for product %s", productID))
}

func releaseStock(ctx context.Context, db DBTX, productID string, qty int64) error {
	const op = "inventory.release"

	tag, err := db.Exec(ctx, `
		UPDATE products
		SET reserved = reserved - $2, updated_at = now()
		WHERE id = $1
		  AND availability = 'IN_STOCK'
		  AND reserved >= $2`,
		productID, qty)
	if err != nil {
		return domain.Internal(err, op, "failed to release stock")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	return classifyLedgerFailure(ctx, db, op, productID,
		domain.Errorf(domain.EINTERNAL, op, "reservation missing for product %s", productID))
}

// classifyLedgerFailure disambiguates a zero-row conditional update: the
// product may not exist, may be MADE_TO_ORDER (a no-op, not an error), or
// may genuinely fail the guard.
func classifyLedgerFailure(ctx context.Context, db DBTX, op, productID string, guardErr error) error {
	var availability string
	err := db.QueryRow(ctx,
		`SELECT availability FROM products WHERE id = $1`, productID,
	).Scan(&availability)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Internal(err, op, "failed to inspect product")
	}
	if availability == string(domain.AvailabilityMadeToOrder) {
		return nil
	}
	return guardErr
}
