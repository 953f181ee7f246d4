package domain

import (
	"context"
	"time"
)

// Discount-related domain errors.
var ErrDiscountNotFound = &Error{Code: ENOTFOUND, Message: "Discount not found"}

// Discount is an automatic, admin-managed price reduction. Scope is the
// union of ProductIDs and Categories; a discount with neither applies to
// the whole catalog.
type Discount struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	DiscountType     DiscountType `json:"discountType"`
	Value            int64        `json:"value"`
	MinOrderCents    int64        `json:"minOrderCents,omitempty"`
	MaxDiscountCents int64        `json:"maxDiscountCents,omitempty"`
	StartsAt         time.Time    `json:"startsAt"`
	EndsAt           time.Time    `json:"endsAt"`
	ProductIDs       []string     `json:"productIds,omitempty"`
	Categories       []string     `json:"categories,omitempty"`
	UsageLimit       int64        `json:"usageLimit,omitempty"`
	UsedCount        int64        `json:"usedCount"`
	Active           bool         `json:"active"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Live reports whether the discount can be offered at the given time:
// active flag set, inside the schedule window, and usage below the limit
// when a limit is set.
func (d *Discount) Live(now time.Time) bool {
	if !d.Active {
		return false
	}
	if now.Before(d.StartsAt) || now.After(d.EndsAt) {
		return false
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return false
	}
	return true
}

// AppliesTo reports whether the discount's scope covers the product.
func (d *Discount) AppliesTo(p *Product) bool {
	if len(d.ProductIDs) == 0 && len(d.Categories) == 0 {
		return true
	}
	for _, id := range d.ProductIDs {
		if id == p.ID {
			return true
		}
	}
	for _, c := range d.Categories {
		if c == p.Category {
			return true
		}
	}
	return false
}

// DiscountStore persists automatic discounts.
type DiscountStore interface {
	Create(ctx context.Context, d *Discount) error
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Discount, error)
	List(ctx context.Context) ([]Discount, error)
	// ListActive returns discounts whose active flag is set and whose
	// window contains now. Usage limits are still checked by the caller.
	ListActive(ctx context.Context, now time.Time) ([]Discount, error)
	// IncrementUsage bumps used_count once per confirmed redemption.
	IncrementUsage(ctx context.Context, id string) error
}
