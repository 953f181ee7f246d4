package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

type fakeDiscounts struct {
	mu        sync.Mutex
	discounts map[string]*domain.Discount
}

func newFakeDiscounts() *fakeDiscounts {
	return &fakeDiscounts{discounts: make(map[string]*domain.Discount)}
}

func (f *fakeDiscounts) Create(ctx context.Context, d *domain.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discounts[d.ID] = d
	return nil
}

func (f *fakeDiscounts) Update(ctx context.Context, d *domain.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.discounts[d.ID]; !ok {
		return domain.ErrDiscountNotFound
	}
	f.discounts[d.ID] = d
	return nil
}

func (f *fakeDiscounts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.discounts[id]; !ok {
		return domain.ErrDiscountNotFound
	}
	delete(f.discounts, id)
	return nil
}

func (f *fakeDiscounts) Get(ctx context.Context, id string) (*domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.discounts[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDiscountNotFound
}

func (f *fakeDiscounts) List(ctx context.Context) ([]domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Discount, 0, len(f.discounts))
	for _, d := range f.discounts {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDiscounts) ListActive(ctx context.Context, now time.Time) ([]domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Discount
	for _, d := range f.discounts {
		if d.Active && !now.Before(d.StartsAt) && !now.After(d.EndsAt) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDiscounts) IncrementUsage(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.discounts[id]; ok {
		d.UsedCount++
		return nil
	}
	return domain.ErrDiscountNotFound
}

func seedDiscount(store *fakeDiscounts, d domain.Discount) {
	store.discounts[d.ID] = &d
}

func TestDiscountListActive(t *testing.T) {
	store := newFakeDiscounts()
	svc := NewDiscountService(store)
	now := time.Now()

	seedDiscount(store, domain.Discount{
		ID: "d-live", Name: "Festival", DiscountType: domain.DiscountPercentage, Value: 10,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	})
	seedDiscount(store, domain.Discount{
		ID: "d-inactive", Name: "Paused", DiscountType: domain.DiscountPercentage, Value: 20,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: false,
	})
	seedDiscount(store, domain.Discount{
		ID: "d-ended", Name: "Old", DiscountType: domain.DiscountFixed, Value: 500,
		StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-24 * time.Hour), Active: true,
	})
	seedDiscount(store, domain.Discount{
		ID: "d-spent", Name: "Limited", DiscountType: domain.DiscountFixed, Value: 300,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
		UsageLimit: 5, UsedCount: 5,
	})

	live, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "d-live", live[0].ID)
}

func TestDiscountCreate(t *testing.T) {
	store := newFakeDiscounts()
	svc := NewDiscountService(store)
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		d, err := svc.Create(context.Background(), DiscountInput{
			Name: "  Festival  ", DiscountType: "Percentage", Value: 15,
			StartsAt: now, EndsAt: now.Add(24 * time.Hour), Active: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Festival", d.Name)
		assert.NotEmpty(t, d.ID)
	})

	t.Run("percentage above 100 is rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), DiscountInput{
			Name: "Bad", DiscountType: "Percentage", Value: 101,
			StartsAt: now, EndsAt: now.Add(time.Hour),
		})
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("window must have positive length", func(t *testing.T) {
		_, err := svc.Create(context.Background(), DiscountInput{
			Name: "Bad", DiscountType: "Fixed", Value: 100,
			StartsAt: now, EndsAt: now,
		})
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}

func TestDiscountUpdatePreservesUsedCount(t *testing.T) {
	store := newFakeDiscounts()
	svc := NewDiscountService(store)
	now := time.Now()
	seedDiscount(store, domain.Discount{
		ID: "d1", Name: "Festival", DiscountType: domain.DiscountPercentage, Value: 10,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
		UsedCount: 3,
	})

	updated, err := svc.Update(context.Background(), "d1", DiscountInput{
		Name: "Festival Extended", DiscountType: "Percentage", Value: 12,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(48 * time.Hour), Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.Value)
	assert.Equal(t, int64(3), updated.UsedCount)
}
