package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

func newTestCatalog() (*CatalogService, *fakeStore, *fakeDiscounts) {
	store := newFakeStore()
	discounts := newFakeDiscounts()
	return NewCatalogService(store, discounts), store, discounts
}

func TestCatalogGet_QuotesBestDiscount(t *testing.T) {
	svc, store, discounts := newTestCatalog()
	seedProduct(store, "p1", 10_000, 5, 0)
	now := time.Now()

	seedDiscount(discounts, domain.Discount{
		ID: "d-small", Name: "Small", DiscountType: domain.DiscountPercentage, Value: 5,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	})
	seedDiscount(discounts, domain.Discount{
		ID: "d-big", Name: "Big", DiscountType: domain.DiscountPercentage, Value: 20,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	})
	seedDiscount(discounts, domain.Discount{
		ID: "d-scoped", Name: "Elsewhere", DiscountType: domain.DiscountPercentage, Value: 50,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
		Categories: []string{"sculptures"},
	})

	view, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, view.Pricing.HasDiscount)
	assert.Equal(t, "d-big", view.Pricing.Discount.ID)
	assert.Equal(t, int64(2_000), view.Pricing.DiscountCents)
	assert.Equal(t, int64(8_000), view.Pricing.FinalCents)

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "missing")
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})
}

func TestCatalogGet_MaxDiscountCap(t *testing.T) {
	svc, store, discounts := newTestCatalog()
	seedProduct(store, "p1", 10_000, 5, 0)
	now := time.Now()

	seedDiscount(discounts, domain.Discount{
		ID: "d-capped", Name: "Capped", DiscountType: domain.DiscountPercentage, Value: 50,
		MaxDiscountCents: 1_500,
		StartsAt:         now.Add(-time.Hour), EndsAt: now.Add(time.Hour), Active: true,
	})

	view, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1_500), view.Pricing.DiscountCents)
	assert.Equal(t, int64(8_500), view.Pricing.FinalCents)
}

func TestCatalogList(t *testing.T) {
	svc, store, _ := newTestCatalog()
	seedProduct(store, "p1", 2_500, 5, 0)
	seedProduct(store, "p2", 5_000, 0, 0)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.False(t, v.Pricing.HasDiscount)
		assert.Equal(t, v.PriceCents, v.Pricing.FinalCents)
	}
}

func TestCatalogCreateAndUpdate(t *testing.T) {
	svc, store, _ := newTestCatalog()

	p, err := svc.Create(context.Background(), CreateProductInput{
		Title:        "  Madhubani Painting ",
		PriceCents:   12_500,
		Category:     "paintings",
		SKU:          " mp-001 ",
		Availability: "IN_STOCK",
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Madhubani Painting", p.Title)
	assert.Equal(t, "MP-001", p.SKU)

	t.Run("update does not touch reserved", func(t *testing.T) {
		store.products[p.ID].Reserved = 2

		updated, err := svc.Update(context.Background(), p.ID, CreateProductInput{
			Title:        "Madhubani Painting",
			PriceCents:   13_000,
			Category:     "paintings",
			SKU:          "MP-001",
			Availability: "IN_STOCK",
			Quantity:     10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(13_000), updated.PriceCents)
		assert.Equal(t, int64(2), store.products[p.ID].Reserved)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(context.Background(), p.ID))
		_, err := svc.Get(context.Background(), p.ID)
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})
}
