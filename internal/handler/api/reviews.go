package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/service"
)

// ReviewHandler exposes the product review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// Create handles POST /api/products/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	review, err := h.reviews.Create(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"review": review})
}

// ListByProduct handles GET /api/products/{id}/reviews
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := domain.ReviewPage{
		Page:  atoiOrZero(q.Get("page")),
		Limit: atoiOrZero(q.Get("limit")),
		Sort:  domain.ReviewSort(q.Get("sort")),
	}

	result, err := h.reviews.ListByProduct(r.Context(), r.PathValue("id"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Update handles PUT /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.CreateReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	review, err := h.reviews.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"review": review})
}

// Delete handles DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if err := h.reviews.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// atoiOrZero parses a query parameter, treating garbage as unset. The
// service clamps zeros to its defaults.
func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
