package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{Product: &domain.Product{PriceCents: 2500}, Quantity: 2},
		{Product: &domain.Product{PriceCents: 10000}, Quantity: 1},
	}
	assert.Equal(t, int64(15000), Subtotal(lines))
	assert.Equal(t, int64(0), Subtotal(nil))
}

func TestShippingCost(t *testing.T) {
	cfg := domain.ShippingConfig{ChargeCents: 5000, FreeThresholdCents: 100000}

	assert.Equal(t, int64(5000), ShippingCost(99999, cfg))
	assert.Equal(t, int64(0), ShippingCost(100000, cfg), "threshold is inclusive")
	assert.Equal(t, int64(0), ShippingCost(250000, cfg))
}

func TestCouponDiscount_Fixed(t *testing.T) {
	c := &domain.Coupon{DiscountType: domain.DiscountFixed, Value: 2000, ExpiresAt: now.Add(time.Hour)}

	got, err := CouponDiscount(10000, c, false, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got)

	// Fixed value larger than the base caps at the base.
	got, err = CouponDiscount(1500, c, false, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got)
}

func TestCouponDiscount_Percentage(t *testing.T) {
	c := &domain.Coupon{DiscountType: domain.DiscountPercentage, Value: 15, ExpiresAt: now.Add(time.Hour)}

	got, err := CouponDiscount(10000, c, false, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got)
}

func TestCouponDiscount_Errors(t *testing.T) {
	_, err := CouponDiscount(10000, nil, false, now)
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)

	expired := &domain.Coupon{DiscountType: domain.DiscountFixed, Value: 500, ExpiresAt: now.Add(-time.Minute)}
	_, err = CouponDiscount(10000, expired, false, now)
	assert.ErrorIs(t, err, domain.ErrCouponExpired)

	used := &domain.Coupon{DiscountType: domain.DiscountFixed, Value: 500, ExpiresAt: now.Add(time.Hour)}
	_, err = CouponDiscount(10000, used, true, now)
	assert.ErrorIs(t, err, domain.ErrCouponAlreadyUsed)
}

func TestTotal_FloorsAtZero(t *testing.T) {
	assert.Equal(t, int64(10500), Total(10000, 1000, 500))
	// Fixed 500-cent coupon against a 150-cent base charges nothing, never
	// a negative amount.
	assert.Equal(t, int64(0), Total(100, 50, 500))
}

func TestBestDiscount_PicksHighestValue(t *testing.T) {
	p := &domain.Product{ID: "p1", Category: "paintings", PriceCents: 10000}
	discounts := []domain.Discount{
		{
			Name: "spring", DiscountType: domain.DiscountPercentage, Value: 10,
			Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		},
		{
			Name: "paintings-sale", DiscountType: domain.DiscountPercentage, Value: 25,
			Categories: []string{"paintings"},
			Active:     true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		},
	}

	q := BestDiscount(p, discounts, now)
	assert.True(t, q.HasDiscount)
	assert.Equal(t, int64(2500), q.DiscountCents)
	assert.Equal(t, int64(7500), q.FinalCents)
	assert.Equal(t, int64(25), q.DiscountPercent)
	require.NotNil(t, q.Discount)
	assert.Equal(t, "paintings-sale", q.Discount.Name)
}

func TestBestDiscount_MaxCap(t *testing.T) {
	p := &domain.Product{ID: "p1", PriceCents: 100000}
	discounts := []domain.Discount{
		{
			DiscountType: domain.DiscountPercentage, Value: 50, MaxDiscountCents: 10000,
			Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		},
	}

	q := BestDiscount(p, discounts, now)
	assert.Equal(t, int64(10000), q.DiscountCents)
	assert.Equal(t, int64(90000), q.FinalCents)
	assert.Equal(t, int64(10), q.DiscountPercent)
}

func TestBestDiscount_SkipsIneligible(t *testing.T) {
	p := &domain.Product{ID: "p1", Category: "prints", PriceCents: 4000}
	discounts := []domain.Discount{
		// Inactive.
		{DiscountType: domain.DiscountFixed, Value: 1000, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
		// Window not started.
		{DiscountType: domain.DiscountFixed, Value: 1000, Active: true, StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)},
		// Wrong scope.
		{DiscountType: domain.DiscountFixed, Value: 1000, Active: true, Categories: []string{"paintings"}, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
		// Minimum order above the price.
		{DiscountType: domain.DiscountFixed, Value: 1000, Active: true, MinOrderCents: 5000, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
		// Usage limit exhausted.
		{DiscountType: domain.DiscountFixed, Value: 1000, Active: true, UsageLimit: 3, UsedCount: 3, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)},
	}

	q := BestDiscount(p, discounts, now)
	assert.False(t, q.HasDiscount)
	assert.Equal(t, p.PriceCents, q.FinalCents)
	assert.Nil(t, q.Discount)
}

func TestBestDiscount_NeverBelowZero(t *testing.T) {
	p := &domain.Product{ID: "p1", PriceCents: 500}
	discounts := []domain.Discount{
		{
			DiscountType: domain.DiscountFixed, Value: 2000,
			Active: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		},
	}

	q := BestDiscount(p, discounts, now)
	assert.Equal(t, int64(500), q.DiscountCents)
	assert.Equal(t, int64(0), q.FinalCents)
}
