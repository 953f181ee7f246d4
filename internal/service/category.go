package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
)

// CreateCategoryInput is the admin payload for a new category.
type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ParentID    string `json:"parentCategory"`
	Image       string `json:"image"`
	SortOrder   int64  `json:"sortOrder"`
}

// CategoryService manages the category tree behind the catalog.
type CategoryService struct {
	categories domain.CategoryStore
	products   domain.ProductStore
	now        func() time.Time
}

func NewCategoryService(categories domain.CategoryStore, products domain.ProductStore) *CategoryService {
	return &CategoryService{categories: categories, products: products, now: time.Now}
}

// Create adds a category, optionally under an existing parent.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	if in.ParentID != "" {
		if _, err := s.categories.Get(ctx, in.ParentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	c := &domain.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ParentID:    in.ParentID,
		Active:      true,
		Image:       in.Image,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the active categories; rootOnly limits it to top-level
// ones.
func (s *CategoryService) List(ctx context.Context, rootOnly bool) ([]domain.Category, error) {
	return s.categories.List(ctx, rootOnly)
}

// Subcategories returns the active children of a category.
func (s *CategoryService) Subcategories(ctx context.Context, parentID string) ([]domain.Category, error) {
	if _, err := s.categories.Get(ctx, parentID); err != nil {
		return nil, err
	}
	return s.categories.Subcategories(ctx, parentID)
}

// Delete removes a category unless products still reference it.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.products.CountByCategory(ctx, c.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrCategoryInUse
	}
	return s.categories.Delete(ctx, id)
}
