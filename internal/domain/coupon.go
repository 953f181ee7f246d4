package domain

import (
	"context"
	"time"
)

// DiscountType selects how a coupon or discount value is interpreted:
// Fixed values are cents, Percentage values are whole percents.
type DiscountType string

const (
	DiscountFixed      DiscountType = "Fixed"
	DiscountPercentage DiscountType = "Percentage"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercentage
}

// Coupon-related domain errors.
var (
	ErrCouponNotFound    = &Error{Code: ENOTFOUND, Message: "Invalid coupon code"}
	ErrCouponExpired     = &Error{Code: EINVALID, Message: "This coupon has expired"}
	ErrCouponAlreadyUsed = &Error{Code: EINVALID, Message: "You have already used this coupon"}
	ErrDuplicateCoupon   = &Error{Code: ECONFLICT, Message: "A coupon with this code already exists"}
)

// Coupon is a code-entered, single-use-per-user discount. Codes are
// normalized to upper case on write and lookup.
type Coupon struct {
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discountType"`
	Value        int64        `json:"value"`
	ExpiresAt    time.Time    `json:"expiryDate"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Expired reports whether the coupon's expiry date has passed.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// CouponStore persists coupons and their per-user redemptions.
type CouponStore interface {
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	HasRedeemed(ctx context.Context, couponID, userID string) (bool, error)
}
