package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

// fakeReviews is an in-memory domain.ReviewStore enforcing the one
// review per user per product rule.
type fakeReviews struct {
	mu      sync.Mutex
	reviews map[string]*domain.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{reviews: make(map[string]*domain.Review)}
}

func (f *fakeReviews) Create(ctx context.Context, rv *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.ProductID == rv.ProductID && existing.UserID == rv.UserID {
			return domain.ErrAlreadyReviewed
		}
	}
	c := *rv
	f.reviews[rv.ID] = &c
	return nil
}

func (f *fakeReviews) Update(ctx context.Context, rv *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[rv.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	c := *rv
	f.reviews[rv.ID] = &c
	return nil
}

func (f *fakeReviews) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviews) Get(ctx context.Context, id string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	c := *rv
	return &c, nil
}

func (f *fakeReviews) ListByProduct(ctx context.Context, productID string, page domain.ReviewPage) ([]domain.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []domain.Review
	for _, rv := range f.reviews {
		if rv.ProductID == productID {
			all = append(all, *rv)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		switch page.Sort {
		case domain.ReviewSortOldest:
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		case domain.ReviewSortRatingHigh:
			return all[i].Rating > all[j].Rating
		case domain.ReviewSortRatingLow:
			return all[i].Rating < all[j].Rating
		default:
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
	})

	total := int64(len(all))
	start := (page.Page - 1) * page.Limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeReviews) Summary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum domain.RatingSummary
	var points int64
	for _, rv := range f.reviews {
		if rv.ProductID == productID {
			sum.Count++
			points += int64(rv.Rating)
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(points) / float64(sum.Count)
	}
	return sum, nil
}

func newTestReviews() (*ReviewService, *fakeReviews, *fakeStore) {
	store := newFakeStore()
	reviews := newFakeReviews()
	return NewReviewService(reviews, store, ordersView{store}), reviews, store
}

func TestReviewCreate(t *testing.T) {
	svc, _, store := newTestReviews()
	seedProduct(store, "p1", 10_000, 5, 0)

	rv, err := svc.Create(context.Background(), "u1", "p1", CreateReviewInput{
		Rating: 4, Title: "  Lovely piece ", Comment: "Exactly as pictured.",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rv.Rating)
	assert.Equal(t, "Lovely piece", rv.Title)
	assert.False(t, rv.Verified, "no order for the product yet")

	t.Run("second review rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "u1", "p1", CreateReviewInput{
			Rating: 2, Title: "Changed my mind", Comment: "Meh.",
		})
		assert.True(t, domain.IsCode(err, domain.ECONFLICT))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "u1", "missing", CreateReviewInput{
			Rating: 5, Title: "t", Comment: "c",
		})
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "u2", "p1", CreateReviewInput{
			Rating: 6, Title: "t", Comment: "c",
		})
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}

func TestReviewCreate_VerifiedPurchase(t *testing.T) {
	svc, _, store := newTestReviews()
	seedProduct(store, "p1", 10_000, 5, 0)
	seedProduct(store, "p2", 5_000, 5, 0)
	seedOrder(store, "o1", "u1", domain.StatusDelivered,
		domain.OrderItem{ProductID: "p1", Quantity: 1, PriceCents: 10_000})
	seedOrder(store, "o2", "u1", domain.StatusCancelled,
		domain.OrderItem{ProductID: "p2", Quantity: 1, PriceCents: 5_000})

	rv, err := svc.Create(context.Background(), "u1", "p1", CreateReviewInput{
		Rating: 5, Title: "Great", Comment: "Arrived safely.",
	})
	require.NoError(t, err)
	assert.True(t, rv.Verified)

	// A cancelled order does not make a purchase.
	rv, err = svc.Create(context.Background(), "u1", "p2", CreateReviewInput{
		Rating: 3, Title: "Never got it", Comment: "Order fell through.",
	})
	require.NoError(t, err)
	assert.False(t, rv.Verified)
}

func TestReviewListByProduct(t *testing.T) {
	svc, reviews, store := newTestReviews()
	seedProduct(store, "p1", 10_000, 5, 0)

	base := time.Now()
	for i, rating := range []int{5, 3, 1, 4} {
		reviews.reviews[string(rune('a'+i))] = &domain.Review{
			ID: string(rune('a' + i)), ProductID: "p1", UserID: "u" + string(rune('1'+i)),
			Rating: rating, Title: "t", Comment: "c",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	result, err := svc.ListByProduct(context.Background(), "p1", domain.ReviewPage{
		Page: 1, Limit: 2, Sort: domain.ReviewSortRatingHigh,
	})
	require.NoError(t, err)
	require.Len(t, result.Reviews, 2)
	assert.Equal(t, 5, result.Reviews[0].Rating)
	assert.Equal(t, 4, result.Reviews[1].Rating)
	assert.Equal(t, int64(4), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.InDelta(t, 3.25, result.Summary.Average, 0.001)
	assert.Equal(t, int64(4), result.Summary.Count)

	t.Run("page and limit clamped", func(t *testing.T) {
		result, err := svc.ListByProduct(context.Background(), "p1", domain.ReviewPage{Page: -3, Limit: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Len(t, result.Reviews, 4)
	})
}

func TestReviewUpdateAndDelete_OwnerOnly(t *testing.T) {
	svc, _, store := newTestReviews()
	seedProduct(store, "p1", 10_000, 5, 0)

	rv, err := svc.Create(context.Background(), "u1", "p1", CreateReviewInput{
		Rating: 2, Title: "Early thoughts", Comment: "Not sure yet.",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "u2", rv.ID, CreateReviewInput{
		Rating: 5, Title: "Hijacked", Comment: "x",
	})
	assert.True(t, domain.IsCode(err, domain.EFORBIDDEN))

	updated, err := svc.Update(context.Background(), "u1", rv.ID, CreateReviewInput{
		Rating: 4, Title: "Grew on me", Comment: "Better with time.",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Grew on me", updated.Title)

	err = svc.Delete(context.Background(), "u2", rv.ID)
	assert.True(t, domain.IsCode(err, domain.EFORBIDDEN))
	require.NoError(t, svc.Delete(context.Background(), "u1", rv.ID))
	err = svc.Delete(context.Background(), "u1", rv.ID)
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}
