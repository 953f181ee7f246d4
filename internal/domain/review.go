package domain

import (
	"context"
	"time"
)

// Review-related domain errors.
var (
	ErrReviewNotFound   = &Error{Code: ENOTFOUND, Message: "Review not found"}
	ErrAlreadyReviewed  = &Error{Code: ECONFLICT, Message: "You have already reviewed this product"}
	ErrNotReviewAuthor  = &Error{Code: EFORBIDDEN, Message: "You can only modify your own reviews"}
	ErrInvalidRating    = &Error{Code: EINVALID, Message: "Rating must be between 1 and 5"}
)

// Review is a customer's rating of a product. One review per user per
// product; the store enforces the pair uniqueness.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Images    []string  `json:"images"`
	// Verified means the reviewer had an order containing the product
	// at the time the review was written.
	Verified  bool      `json:"isVerified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewSort orders a product's review listing.
type ReviewSort string

const (
	ReviewSortNewest     ReviewSort = "newest"
	ReviewSortOldest     ReviewSort = "oldest"
	ReviewSortRatingHigh ReviewSort = "rating-high"
	ReviewSortRatingLow  ReviewSort = "rating-low"
)

// ReviewPage selects a window of a product's reviews.
type ReviewPage struct {
	Page  int
	Limit int
	Sort  ReviewSort
}

// RatingSummary aggregates a product's reviews. Average is 0 when
// Count is 0.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, rv *Review) error
	Update(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Review, error)
	// ListByProduct returns one page of reviews plus the total count
	// across all pages.
	ListByProduct(ctx context.Context, productID string, page ReviewPage) ([]Review, int64, error)
	Summary(ctx context.Context, productID string) (RatingSummary, error)
}
