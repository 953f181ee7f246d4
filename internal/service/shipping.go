package service

import (
	"context"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/pricing"
)

// ShippingQuote is the shipping cost for a given subtotal.
type ShippingQuote struct {
	SubtotalCents      int64 `json:"subtotalCents"`
	ShippingCents      int64 `json:"shippingCents"`
	FreeThresholdCents int64 `json:"freeThresholdCents"`
	FreeShipping       bool  `json:"freeShipping"`
}

// ShippingService exposes the flat-rate shipping configuration and
// quotes shipping cost for cart subtotals.
type ShippingService struct {
	shipping domain.ShippingStore
}

func NewShippingService(shipping domain.ShippingStore) *ShippingService {
	return &ShippingService{shipping: shipping}
}

// Config returns the active shipping configuration.
func (s *ShippingService) Config(ctx context.Context) (domain.ShippingConfig, error) {
	return s.shipping.GetActive(ctx)
}

// SetConfig replaces the active shipping configuration.
func (s *ShippingService) SetConfig(ctx context.Context, cfg domain.ShippingConfig) error {
	if cfg.ChargeCents < 0 || cfg.FreeThresholdCents < 0 {
		return domain.Invalid("shipping.set_config", "Shipping amounts cannot be negative")
	}
	cfg.Active = true
	return s.shipping.Upsert(ctx, cfg)
}

// Quote computes the shipping cost for a subtotal under the active
// configuration.
func (s *ShippingService) Quote(ctx context.Context, subtotalCents int64) (*ShippingQuote, error) {
	if subtotalCents < 0 {
		return nil, domain.Invalid("shipping.quote", "Subtotal cannot be negative")
	}
	cfg, err := s.shipping.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	cost := pricing.ShippingCost(subtotalCents, cfg)
	return &ShippingQuote{
		SubtotalCents:      subtotalCents,
		ShippingCents:      cost,
		FreeThresholdCents: cfg.FreeThresholdCents,
		FreeShipping:       cost == 0,
	}, nil
}
