package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/pricing"
)

// CouponInput is the admin payload for creating or updating a coupon.
type CouponInput struct {
	Code         string    `json:"code" validate:"required"`
	DiscountType string    `json:"discountType" validate:"required,oneof=Fixed Percentage"`
	Value        int64     `json:"value" validate:"required,gt=0"`
	ExpiresAt    time.Time `json:"expiryDate" validate:"required"`
}

// CouponQuote is the result of applying a coupon to an amount.
type CouponQuote struct {
	Coupon        *domain.Coupon `json:"coupon"`
	DiscountCents int64          `json:"discountCents"`
	FinalCents    int64          `json:"finalCents"`
}

// CouponService validates and quotes coupon codes outside the order flow.
// Redemption itself only happens inside order creation.
type CouponService struct {
	coupons domain.CouponStore
	now     func() time.Time
}

func NewCouponService(coupons domain.CouponStore) *CouponService {
	return &CouponService{coupons: coupons, now: time.Now}
}

// Validate checks a code for existence and expiry without reference to a
// user or an amount.
func (s *CouponService) Validate(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon.Expired(s.now()) {
		return nil, domain.ErrCouponExpired
	}
	return coupon, nil
}

// Apply quotes the discount a user would get on the given base amount
// (subtotal plus shipping), enforcing expiry and single use.
func (s *CouponService) Apply(ctx context.Context, code, userID string, baseCents int64) (*CouponQuote, error) {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	used, err := s.coupons.HasRedeemed(ctx, coupon.ID, userID)
	if err != nil {
		return nil, err
	}
	discount, err := pricing.CouponDiscount(baseCents, coupon, used, s.now())
	if err != nil {
		return nil, err
	}
	return &CouponQuote{
		Coupon:        coupon,
		DiscountCents: discount,
		FinalCents:    pricing.Total(baseCents, 0, discount),
	}, nil
}

// Create adds a coupon. Percentage values above 100 are rejected.
func (s *CouponService) Create(ctx context.Context, in CouponInput) (*domain.Coupon, error) {
	if err := validateCouponValue(in); err != nil {
		return nil, err
	}
	c := &domain.Coupon{
		ID:           uuid.NewString(),
		Code:         strings.ToUpper(strings.TrimSpace(in.Code)),
		DiscountType: domain.DiscountType(in.DiscountType),
		Value:        in.Value,
		ExpiresAt:    in.ExpiresAt,
		CreatedAt:    s.now(),
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update overwrites a coupon's fields. Past redemptions keep their
// recorded discount.
func (s *CouponService) Update(ctx context.Context, id string, in CouponInput) (*domain.Coupon, error) {
	if err := validateCouponValue(in); err != nil {
		return nil, err
	}
	c, err := s.coupons.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	c.DiscountType = domain.DiscountType(in.DiscountType)
	c.Value = in.Value
	c.ExpiresAt = in.ExpiresAt
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a coupon.
func (s *CouponService) Delete(ctx context.Context, id string) error {
	return s.coupons.Delete(ctx, id)
}

// List returns every coupon, for admins.
func (s *CouponService) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.coupons.List(ctx)
}

func validateCouponValue(in CouponInput) error {
	if domain.DiscountType(in.DiscountType) == domain.DiscountPercentage && in.Value > 100 {
		return domain.Invalid("coupon.validate", "Percentage value cannot exceed 100")
	}
	return nil
}
