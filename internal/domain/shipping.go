package domain

import "context"

// Default shipping parameters used when no active config row exists.
const (
	DefaultShippingChargeCents int64 = 5000
	DefaultFreeThresholdCents  int64 = 100000
)

// ShippingConfig is the flat-rate shipping setup. A single active row wins;
// absent configuration falls back to the defaults above.
type ShippingConfig struct {
	ID                 string `json:"id,omitempty"`
	ChargeCents        int64  `json:"chargeCents"`
	FreeThresholdCents int64  `json:"freeThresholdCents"`
	Active             bool   `json:"active"`
}

// DefaultShippingConfig returns the built-in fallback configuration.
func DefaultShippingConfig() ShippingConfig {
	return ShippingConfig{
		ChargeCents:        DefaultShippingChargeCents,
		FreeThresholdCents: DefaultFreeThresholdCents,
		Active:             true,
	}
}

// ShippingStore persists the shipping configuration.
type ShippingStore interface {
	// GetActive returns the active config, or the defaults when none is set.
	GetActive(ctx context.Context) (ShippingConfig, error)
	// Upsert replaces the active configuration.
	Upsert(ctx context.Context, cfg ShippingConfig) error
}
