package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
)

// DiscountInput is the admin payload for creating or updating an
// automatic discount.
type DiscountInput struct {
	Name             string    `json:"name" validate:"required"`
	DiscountType     string    `json:"discountType" validate:"required,oneof=Fixed Percentage"`
	Value            int64     `json:"value" validate:"required,gt=0"`
	MinOrderCents    int64     `json:"minOrderCents" validate:"gte=0"`
	MaxDiscountCents int64     `json:"maxDiscountCents" validate:"gte=0"`
	StartsAt         time.Time `json:"startsAt" validate:"required"`
	EndsAt           time.Time `json:"endsAt" validate:"required"`
	ProductIDs       []string  `json:"productIds"`
	Categories       []string  `json:"categories"`
	UsageLimit       int64     `json:"usageLimit" validate:"gte=0"`
	Active           bool      `json:"active"`
}

// DiscountService manages automatic discounts.
type DiscountService struct {
	discounts domain.DiscountStore
	now       func() time.Time
}

func NewDiscountService(discounts domain.DiscountStore) *DiscountService {
	return &DiscountService{discounts: discounts, now: time.Now}
}

// ListActive returns discounts currently offerable, with usage limits
// enforced.
func (s *DiscountService) ListActive(ctx context.Context) ([]domain.Discount, error) {
	now := s.now()
	active, err := s.discounts.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	live := active[:0]
	for _, d := range active {
		if d.Live(now) {
			live = append(live, d)
		}
	}
	return live, nil
}

// List returns every discount, for admins.
func (s *DiscountService) List(ctx context.Context) ([]domain.Discount, error) {
	return s.discounts.List(ctx)
}

// Get returns one discount.
func (s *DiscountService) Get(ctx context.Context, id string) (*domain.Discount, error) {
	return s.discounts.Get(ctx, id)
}

// Create adds a discount.
func (s *DiscountService) Create(ctx context.Context, in DiscountInput) (*domain.Discount, error) {
	if err := validateDiscountInput(in); err != nil {
		return nil, err
	}
	now := s.now()
	d := &domain.Discount{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		DiscountType:     domain.DiscountType(in.DiscountType),
		Value:            in.Value,
		MinOrderCents:    in.MinOrderCents,
		MaxDiscountCents: in.MaxDiscountCents,
		StartsAt:         in.StartsAt,
		EndsAt:           in.EndsAt,
		ProductIDs:       in.ProductIDs,
		Categories:       in.Categories,
		UsageLimit:       in.UsageLimit,
		Active:           in.Active,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.discounts.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update overwrites a discount's fields. UsedCount is not writable.
func (s *DiscountService) Update(ctx context.Context, id string, in DiscountInput) (*domain.Discount, error) {
	if err := validateDiscountInput(in); err != nil {
		return nil, err
	}
	d, err := s.discounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = strings.TrimSpace(in.Name)
	d.DiscountType = domain.DiscountType(in.DiscountType)
	d.Value = in.Value
	d.MinOrderCents = in.MinOrderCents
	d.MaxDiscountCents = in.MaxDiscountCents
	d.StartsAt = in.StartsAt
	d.EndsAt = in.EndsAt
	d.ProductIDs = in.ProductIDs
	d.Categories = in.Categories
	d.UsageLimit = in.UsageLimit
	d.Active = in.Active
	d.UpdatedAt = s.now()
	if err := s.discounts.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a discount.
func (s *DiscountService) Delete(ctx context.Context, id string) error {
	return s.discounts.Delete(ctx, id)
}

func validateDiscountInput(in DiscountInput) error {
	if domain.DiscountType(in.DiscountType) == domain.DiscountPercentage && in.Value > 100 {
		return domain.Invalid("discount.validate", "Percentage value cannot exceed 100")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return domain.Invalid("discount.validate", "Discount must end after it starts")
	}
	return nil
}
