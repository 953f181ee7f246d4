package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/service"
)

// DiscountHandler exposes automatic discounts: the public active list
// and the admin CRUD.
type DiscountHandler struct {
	discounts *service.DiscountService
	logger    *slog.Logger
}

func NewDiscountHandler(discounts *service.DiscountService, logger *slog.Logger) *DiscountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscountHandler{discounts: discounts, logger: logger}
}

// ListActive handles GET /api/discounts/active
func (h *DiscountHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discounts.ListActive(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"discounts": discounts})
}

// List handles GET /api/discounts
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discounts.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"discounts": discounts})
}

// Get handles GET /api/discounts/{id}
func (h *DiscountHandler) Get(w http.ResponseWriter, r *http.Request) {
	discount, err := h.discounts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"discount": discount})
}

// Create handles POST /api/discounts
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DiscountInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	discount, err := h.discounts.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"discount": discount})
}

// Update handles PUT /api/discounts/{id}
func (h *DiscountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.DiscountInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	discount, err := h.discounts.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"discount": discount})
}

// Delete handles DELETE /api/discounts/{id}
func (h *DiscountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.discounts.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Discount deleted"})
}
