package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/service"
)

// CouponHandler exposes coupon validation, quoting, and admin CRUD.
type CouponHandler struct {
	coupons *service.CouponService
	logger  *slog.Logger
}

func NewCouponHandler(coupons *service.CouponService, logger *slog.Logger) *CouponHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CouponHandler{coupons: coupons, logger: logger}
}

type applyCouponRequest struct {
	Code      string `json:"code" validate:"required"`
	BaseCents int64  `json:"baseCents" validate:"gte=0"`
}

// Validate handles GET /api/coupons/validate?code=
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, r, domain.Invalid("coupon.validate", "code query parameter is required"))
		return
	}

	coupon, err := h.coupons.Validate(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"coupon": coupon})
}

// Apply handles POST /api/coupons/apply
// Quotes the discount for the caller without redeeming the coupon.
func (h *CouponHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var in applyCouponRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	quote, err := h.coupons.Apply(r.Context(), in.Code, user.ID, in.BaseCents)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// List handles GET /api/coupons
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"coupons": coupons})
}

// Create handles POST /api/coupons
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CouponInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	coupon, err := h.coupons.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"coupon": coupon})
}

// Update handles PUT /api/coupons/{id}
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.CouponInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	coupon, err := h.coupons.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"coupon": coupon})
}

// Delete handles DELETE /api/coupons/{id}
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Coupon deleted"})
}
