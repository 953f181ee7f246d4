// Package pricing computes order money amounts. All functions are pure;
// amounts are int64 cents and every subtraction floors at zero.
package pricing

import (
	"math"
	"time"

	"github.com/meghkala/api/internal/domain"
)

// Line pairs a product with a requested quantity for subtotal calculation.
type Line struct {
	Product  *domain.Product
	Quantity int64
}

// Subtotal sums unit price times quantity over the lines using current
// product prices.
func Subtotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Product.PriceCents * l.Quantity
	}
	return total
}

// ShippingCost returns the flat shipping charge for a subtotal. Orders at
// or above the free threshold ship free.
func ShippingCost(subtotalCents int64, cfg domain.ShippingConfig) int64 {
	if subtotalCents >= cfg.FreeThresholdCents {
		return 0
	}
	return cfg.ChargeCents
}

// CouponDiscount validates the coupon against its expiry and single-use
// rule and returns the discount amount off the base (subtotal plus
// shipping). Fixed coupons never exceed the base; percentage coupons take
// value percent of it.
func CouponDiscount(baseCents int64, c *domain.Coupon, usedAlready bool, now time.Time) (int64, error) {
	if c == nil {
		return 0, domain.ErrCouponNotFound
	}
	if c.Expired(now) {
		return 0, domain.ErrCouponExpired
	}
	if usedAlready {
		return 0, domain.ErrCouponAlreadyUsed
	}

	switch c.DiscountType {
	case domain.DiscountFixed:
		if c.Value > baseCents {
			return baseCents, nil
		}
		return c.Value, nil
	case domain.DiscountPercentage:
		return baseCents * c.Value / 100, nil
	default:
		return 0, domain.Errorf(domain.EINVALID, "pricing.coupon", "unknown discount type %q", c.DiscountType)
	}
}

// Total combines the parts into the amount charged, floored at zero.
func Total(subtotalCents, shippingCents, discountCents int64) int64 {
	total := subtotalCents + shippingCents - discountCents
	if total < 0 {
		return 0
	}
	return total
}

// Quote is the result of applying the best automatic discount to a
// product's listed price.
type Quote struct {
	OriginalCents   int64            `json:"originalPriceCents"`
	FinalCents      int64            `json:"finalPriceCents"`
	DiscountCents   int64            `json:"discountAmountCents"`
	DiscountPercent int64            `json:"discountPercentage"`
	HasDiscount     bool             `json:"hasDiscount"`
	Discount        *domain.Discount `json:"discount,omitempty"`
}

// BestDiscount picks the live, in-scope discount with the highest raw
// value and quotes the product's price under it. Minimum-order thresholds
// are checked against the product price itself, matching how listings show
// per-item pricing. The quote never mutates discount usage counters.
func BestDiscount(p *domain.Product, discounts []domain.Discount, now time.Time) Quote {
	q := Quote{OriginalCents: p.PriceCents, FinalCents: p.PriceCents}

	var best *domain.Discount
	for i := range discounts {
		d := &discounts[i]
		if !d.Live(now) || !d.AppliesTo(p) {
			continue
		}
		if d.MinOrderCents > 0 && p.PriceCents < d.MinOrderCents {
			continue
		}
		if best == nil || d.Value > best.Value {
			best = d
		}
	}
	if best == nil {
		return q
	}

	var amount int64
	switch best.DiscountType {
	case domain.DiscountFixed:
		amount = best.Value
	case domain.DiscountPercentage:
		amount = p.PriceCents * best.Value / 100
	}
	if best.MaxDiscountCents > 0 && amount > best.MaxDiscountCents {
		amount = best.MaxDiscountCents
	}
	if amount > p.PriceCents {
		amount = p.PriceCents
	}

	q.DiscountCents = amount
	q.FinalCents = p.PriceCents - amount
	q.HasDiscount = amount > 0
	q.Discount = best
	if p.PriceCents > 0 {
		q.DiscountPercent = int64(math.Round(float64(amount) / float64(p.PriceCents) * 100))
	}
	return q
}
