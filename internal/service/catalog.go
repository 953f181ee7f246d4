package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/pricing"
)

// ProductView is a product joined with its best automatic discount quote.
type ProductView struct {
	domain.Product
	Pricing pricing.Quote `json:"pricing"`
}

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	PriceCents   int64    `json:"priceCents" validate:"gte=0"`
	Images       []string `json:"images"`
	Category     string   `json:"category" validate:"required"`
	SKU          string   `json:"sku" validate:"required"`
	Availability string   `json:"availability" validate:"required,oneof=IN_STOCK MADE_TO_ORDER"`
	Quantity     int64    `json:"quantity" validate:"gte=0"`
	IsFeatured   bool     `json:"isFeatured"`
	Tags         []string `json:"tags"`
}

// CatalogService serves the product catalog with discount quotes and the
// admin CRUD behind it.
type CatalogService struct {
	products  domain.ProductStore
	discounts domain.DiscountStore
	now       func() time.Time
}

func NewCatalogService(products domain.ProductStore, discounts domain.DiscountStore) *CatalogService {
	return &CatalogService{products: products, discounts: discounts, now: time.Now}
}

// List returns all products with their best-discount quotes applied.
func (s *CatalogService) List(ctx context.Context) ([]ProductView, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.discounts.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = ProductView{
			Product: products[i],
			Pricing: pricing.BestDiscount(&products[i], active, s.now()),
		}
	}
	return views, nil
}

// Get returns one product with its best-discount quote.
func (s *CatalogService) Get(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active, err := s.discounts.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return &ProductView{Product: *p, Pricing: pricing.BestDiscount(p, active, s.now())}, nil
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	now := s.now()
	p := &domain.Product{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PriceCents:   in.PriceCents,
		Images:       in.Images,
		Category:     in.Category,
		SKU:          strings.ToUpper(strings.TrimSpace(in.SKU)),
		Availability: domain.Availability(in.Availability),
		Quantity:     in.Quantity,
		IsFeatured:   in.IsFeatured,
		Tags:         in.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update overwrites a product's catalog fields. Reserved counts are not
// writable here; only the ledger moves them.
func (s *CatalogService) Update(ctx context.Context, id string, in CreateProductInput) (*domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.PriceCents = in.PriceCents
	p.Images = in.Images
	p.Category = in.Category
	p.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	p.Availability = domain.Availability(in.Availability)
	p.Quantity = in.Quantity
	p.IsFeatured = in.IsFeatured
	p.Tags = in.Tags
	p.UpdatedAt = s.now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
