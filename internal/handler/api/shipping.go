package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/service"
)

// ShippingHandler exposes the shipping configuration and cost quotes.
type ShippingHandler struct {
	shipping *service.ShippingService
	logger   *slog.Logger
}

func NewShippingHandler(shipping *service.ShippingService, logger *slog.Logger) *ShippingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShippingHandler{shipping: shipping, logger: logger}
}

type calculateShippingRequest struct {
	SubtotalCents int64 `json:"subtotalCents" validate:"gte=0"`
}

type shippingConfigRequest struct {
	ChargeCents        int64 `json:"chargeCents" validate:"gte=0"`
	FreeThresholdCents int64 `json:"freeThresholdCents" validate:"gte=0"`
}

// Config handles GET /api/shipping
func (h *ShippingHandler) Config(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.shipping.Config(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"shipping": cfg})
}

// Calculate handles POST /api/shipping/calculate
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var in calculateShippingRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	quote, err := h.shipping.Quote(r.Context(), in.SubtotalCents)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// SetConfig handles PUT /api/shipping
func (h *ShippingHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var in shippingConfigRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	cfg := domain.ShippingConfig{
		ChargeCents:        in.ChargeCents,
		FreeThresholdCents: in.FreeThresholdCents,
		Active:             true,
	}
	if err := h.shipping.SetConfig(r.Context(), cfg); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"shipping": cfg})
}
