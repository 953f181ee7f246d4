package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

type fakeCoupons struct {
	mu          sync.Mutex
	coupons     map[string]*domain.Coupon
	redemptions map[string]bool
}

func newFakeCoupons() *fakeCoupons {
	return &fakeCoupons{
		coupons:     make(map[string]*domain.Coupon),
		redemptions: make(map[string]bool),
	}
}

func (f *fakeCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.coupons {
		if existing.Code == c.Code {
			return domain.ErrDuplicateCoupon
		}
	}
	f.coupons[c.ID] = c
	return nil
}

func (f *fakeCoupons) Update(ctx context.Context, c *domain.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.coupons[c.ID]; !ok {
		return domain.ErrCouponNotFound
	}
	f.coupons[c.ID] = c
	return nil
}

func (f *fakeCoupons) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.coupons[id]; !ok {
		return domain.ErrCouponNotFound
	}
	delete(f.coupons, id)
	return nil
}

func (f *fakeCoupons) Get(ctx context.Context, id string) (*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.coupons[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCouponNotFound
}

func (f *fakeCoupons) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.Code == strings.ToUpper(code) {
			return c, nil
		}
	}
	return nil, domain.ErrCouponNotFound
}

func (f *fakeCoupons) List(ctx context.Context) ([]domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Coupon, 0, len(f.coupons))
	for _, c := range f.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCoupons) HasRedeemed(ctx context.Context, couponID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redemptions[couponID+"/"+userID], nil
}

func seedCoupon(store *fakeCoupons, id, code string, typ domain.DiscountType, value int64, expires time.Time) *domain.Coupon {
	c := &domain.Coupon{
		ID:           id,
		Code:         code,
		DiscountType: typ,
		Value:        value,
		ExpiresAt:    expires,
	}
	store.coupons[id] = c
	return c
}

func TestCouponValidate(t *testing.T) {
	store := newFakeCoupons()
	svc := NewCouponService(store)
	future := time.Now().Add(24 * time.Hour)
	seedCoupon(store, "c1", "SAVE10", domain.DiscountPercentage, 10, future)
	seedCoupon(store, "c2", "EXPIRED", domain.DiscountFixed, 500, time.Now().Add(-time.Hour))

	t.Run("valid code", func(t *testing.T) {
		c, err := svc.Validate(context.Background(), "save10")
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), "NOPE")
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})

	t.Run("expired code", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), "EXPIRED")
		assert.ErrorIs(t, err, domain.ErrCouponExpired)
	})
}

func TestCouponApply(t *testing.T) {
	store := newFakeCoupons()
	svc := NewCouponService(store)
	future := time.Now().Add(24 * time.Hour)
	seedCoupon(store, "c1", "SAVE10", domain.DiscountPercentage, 10, future)
	seedCoupon(store, "c2", "FLAT500", domain.DiscountFixed, 500, future)

	t.Run("percentage quote", func(t *testing.T) {
		q, err := svc.Apply(context.Background(), "SAVE10", "user-1", 10_000)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000), q.DiscountCents)
		assert.Equal(t, int64(9_000), q.FinalCents)
	})

	t.Run("fixed discount is capped at the base amount", func(t *testing.T) {
		q, err := svc.Apply(context.Background(), "FLAT500", "user-1", 300)
		require.NoError(t, err)
		assert.Equal(t, int64(300), q.DiscountCents)
		assert.Equal(t, int64(0), q.FinalCents)
	})

	t.Run("already redeemed", func(t *testing.T) {
		store.redemptions["c1/user-2"] = true
		_, err := svc.Apply(context.Background(), "SAVE10", "user-2", 10_000)
		assert.ErrorIs(t, err, domain.ErrCouponAlreadyUsed)
	})
}

func TestCouponCreate(t *testing.T) {
	store := newFakeCoupons()
	svc := NewCouponService(store)
	future := time.Now().Add(24 * time.Hour)

	t.Run("code is upper-cased", func(t *testing.T) {
		c, err := svc.Create(context.Background(), CouponInput{
			Code: " welcome10 ", DiscountType: "Percentage", Value: 10, ExpiresAt: future,
		})
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", c.Code)
		assert.NotEmpty(t, c.ID)
	})

	t.Run("percentage above 100 is rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CouponInput{
			Code: "TOOMUCH", DiscountType: "Percentage", Value: 150, ExpiresAt: future,
		})
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CouponInput{
			Code: "WELCOME10", DiscountType: "Fixed", Value: 500, ExpiresAt: future,
		})
		assert.True(t, domain.IsCode(err, domain.ECONFLICT))
	})
}

func TestCouponUpdateAndDelete(t *testing.T) {
	store := newFakeCoupons()
	svc := NewCouponService(store)
	future := time.Now().Add(24 * time.Hour)
	seedCoupon(store, "c1", "SAVE10", domain.DiscountPercentage, 10, future)

	updated, err := svc.Update(context.Background(), "c1", CouponInput{
		Code: "save15", DiscountType: "Percentage", Value: 15, ExpiresAt: future,
	})
	require.NoError(t, err)
	assert.Equal(t, "SAVE15", updated.Code)
	assert.Equal(t, int64(15), updated.Value)

	_, err = svc.Update(context.Background(), "missing", CouponInput{
		Code: "X", DiscountType: "Fixed", Value: 100, ExpiresAt: future,
	})
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	_, err = svc.Validate(context.Background(), "SAVE15")
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}
