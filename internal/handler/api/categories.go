package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/service"
)

// CategoryHandler exposes the category tree endpoints.
type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryHandler{categories: categories, logger: logger}
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCategoryInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	category, err := h.categories.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"category": category})
}

// List handles GET /api/categories. ?parentOnly=true limits the listing
// to root categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rootOnly := r.URL.Query().Get("parentOnly") == "true"

	categories, err := h.categories.List(r.Context(), rootOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Subcategories handles GET /api/categories/{id}/subcategories
func (h *CategoryHandler) Subcategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.Subcategories(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Delete handles DELETE /api/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
