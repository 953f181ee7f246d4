package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
)

const (
	defaultReviewPageSize = 10
	maxReviewPageSize     = 50
)

// CreateReviewInput is the customer payload for a new review.
type CreateReviewInput struct {
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Title   string   `json:"title" validate:"required,max=100"`
	Comment string   `json:"comment" validate:"required,max=1000"`
	Images  []string `json:"images"`
}

// ReviewListResult is one page of a product's reviews with the rating
// aggregate over all of them.
type ReviewListResult struct {
	Reviews    []domain.Review      `json:"reviews"`
	Summary    domain.RatingSummary `json:"summary"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
	Total      int64                `json:"totalReviews"`
}

// ReviewService handles product reviews: one per customer per product,
// marked verified when the reviewer has ordered the product.
type ReviewService struct {
	reviews  domain.ReviewStore
	products domain.ProductStore
	orders   domain.OrderStore
	now      func() time.Time
}

func NewReviewService(reviews domain.ReviewStore, products domain.ProductStore, orders domain.OrderStore) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, orders: orders, now: time.Now}
}

// Create adds a review for the product on behalf of the user. A second
// review of the same product by the same user is rejected.
func (s *ReviewService) Create(ctx context.Context, userID, productID string, in CreateReviewInput) (*domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	verified, err := s.hasOrdered(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rv := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
		Images:    in.Images,
		Verified:  verified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return s.reviews.Get(ctx, rv.ID)
}

// ListByProduct returns one page of the product's reviews plus the
// rating aggregate. Page and limit are clamped to sane values.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string, page domain.ReviewPage) (*ReviewListResult, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = defaultReviewPageSize
	}
	if page.Limit > maxReviewPageSize {
		page.Limit = maxReviewPageSize
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page)
	if err != nil {
		return nil, err
	}
	summary, err := s.reviews.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	return &ReviewListResult{
		Reviews:    reviews,
		Summary:    summary,
		Page:       page.Page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Update rewrites the user's own review. Touching someone else's review
// is forbidden regardless of whether it exists.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, in CreateReviewInput) (*domain.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	rv, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv.UserID != userID {
		return nil, domain.ErrNotReviewAuthor
	}

	rv.Rating = in.Rating
	rv.Title = strings.TrimSpace(in.Title)
	rv.Comment = strings.TrimSpace(in.Comment)
	rv.Images = in.Images
	rv.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// Delete removes the user's own review.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	rv, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.UserID != userID {
		return domain.ErrNotReviewAuthor
	}
	return s.reviews.Delete(ctx, reviewID)
}

// hasOrdered reports whether any of the user's non-cancelled orders
// contains the product.
func (s *ReviewService) hasOrdered(ctx context.Context, userID, productID string) (bool, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for i := range orders {
		if orders[i].Status == domain.StatusCancelled {
			continue
		}
		for _, item := range orders[i].Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}
