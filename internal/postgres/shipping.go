package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// ShippingStore implements domain.ShippingStore on PostgreSQL. Absent
// configuration falls back to the built-in defaults rather than erroring.
type ShippingStore struct {
	pool *pgxpool.Pool
}

var _ domain.ShippingStore = (*ShippingStore)(nil)

func NewShippingStore(pool *pgxpool.Pool) *ShippingStore {
	return &ShippingStore{pool: pool}
}

func (s *ShippingStore) GetActive(ctx context.Context) (domain.ShippingConfig, error) {
	const op = "shipping.get_active"

	var cfg domain.ShippingConfig
	err := s.pool.QueryRow(ctx, `
		SELECT id, charge_cents, free_threshold_cents, active
		FROM shipping_config
		WHERE active
		ORDER BY updated_at DESC
		LIMIT 1`).Scan(&cfg.ID, &cfg.ChargeCents, &cfg.FreeThresholdCents, &cfg.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultShippingConfig(), nil
	}
	if err != nil {
		return domain.ShippingConfig{}, domain.Internal(err, op, "failed to get shipping config")
	}
	return cfg, nil
}

func (s *ShippingStore) Upsert(ctx context.Context, cfg domain.ShippingConfig) error {
	const op = "shipping.upsert"

	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE shipping_config SET active = false WHERE active`); err != nil {
			return domain.Internal(err, op, "failed to deactivate shipping config")
		}

		id := cfg.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO shipping_config (id, charge_cents, free_threshold_cents, active, updated_at)
			VALUES ($1, $2, $3, true, now())
			ON CONFLICT (id) DO UPDATE
			SET charge_cents = EXCLUDED.charge_cents,
			    free_threshold_cents = EXCLUDED.free_threshold_cents,
			    active = true,
			    updated_at = now()`,
			id, cfg.ChargeCents, cfg.FreeThresholdCents)
		if err != nil {
			return domain.Internal(err, op, "failed to save shipping config")
		}
		return nil
	})
}
