package domain

import (
	"context"
	"time"
)

// Category-related domain errors.
var (
	ErrCategoryNotFound = &Error{Code: ENOTFOUND, Message: "Category not found"}
	ErrCategoryInUse    = &Error{Code: ECONFLICT, Message: "Category is in use by products and cannot be deleted"}
)

// Category is a catalog grouping. Categories form a two-level-or-deeper
// tree through ParentID; "" means a root category.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ParentID    string    `json:"parentCategory,omitempty"`
	Active      bool      `json:"isActive"`
	Image       string    `json:"image,omitempty"`
	SortOrder   int64     `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryStore persists categories. Listings return active categories
// ordered by sort order, then name.
type CategoryStore interface {
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Category, error)
	// List returns active categories; rootOnly restricts it to those
	// without a parent.
	List(ctx context.Context, rootOnly bool) ([]Category, error)
	// Subcategories returns the active children of parentID.
	Subcategories(ctx context.Context, parentID string) ([]Category, error)
}
