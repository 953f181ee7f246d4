package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

type fakeShipping struct {
	mu  sync.Mutex
	cfg *domain.ShippingConfig
}

func (f *fakeShipping) GetActive(ctx context.Context) (domain.ShippingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil {
		return domain.DefaultShippingConfig(), nil
	}
	return *f.cfg, nil
}

func (f *fakeShipping) Upsert(ctx context.Context, cfg domain.ShippingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = &cfg
	return nil
}

func TestShippingQuote(t *testing.T) {
	svc := NewShippingService(&fakeShipping{})

	t.Run("below threshold pays the flat charge", func(t *testing.T) {
		q, err := svc.Quote(context.Background(), 40_000)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultShippingChargeCents, q.ShippingCents)
		assert.False(t, q.FreeShipping)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		q, err := svc.Quote(context.Background(), domain.DefaultFreeThresholdCents)
		require.NoError(t, err)
		assert.Equal(t, int64(0), q.ShippingCents)
		assert.True(t, q.FreeShipping)
	})

	t.Run("negative subtotal is rejected", func(t *testing.T) {
		_, err := svc.Quote(context.Background(), -1)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}

func TestShippingSetConfig(t *testing.T) {
	store := &fakeShipping{}
	svc := NewShippingService(store)

	err := svc.SetConfig(context.Background(), domain.ShippingConfig{
		ChargeCents: 700, FreeThresholdCents: 25_000,
	})
	require.NoError(t, err)

	cfg, err := svc.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(700), cfg.ChargeCents)
	assert.True(t, cfg.Active)

	q, err := svc.Quote(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(700), q.ShippingCents)

	t.Run("negative amounts are rejected", func(t *testing.T) {
		err := svc.SetConfig(context.Background(), domain.ShippingConfig{ChargeCents: -1})
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}
