package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/service"
)

// StockAlertHandler exposes back-in-stock alert subscriptions.
type StockAlertHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewStockAlertHandler(notifications *service.NotificationService, logger *slog.Logger) *StockAlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockAlertHandler{notifications: notifications, logger: logger}
}

type subscribeRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// Subscribe handles POST /api/stock-alerts
// Works for guests too; authenticated callers get the alert linked to
// their account.
func (h *StockAlertHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	var userID string
	if user := middleware.GetUserFromContext(r.Context()); user != nil {
		userID = user.ID
	}

	alert, err := h.notifications.Subscribe(r.Context(), in.ProductID, in.Email, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"alert": alert})
}

// ListMine handles GET /api/stock-alerts
func (h *StockAlertHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	alerts, err := h.notifications.ListMine(r.Context(), user.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// ListAll handles GET /api/stock-alerts/all
func (h *StockAlertHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.notifications.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// Cancel handles DELETE /api/stock-alerts/{id}
func (h *StockAlertHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if err := h.notifications.Cancel(r.Context(), r.PathValue("id"), user.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Alert cancelled"})
}

// NotifyRestock handles POST /api/stock-alerts/notify/{productId}
// Emails every pending subscriber of the product.
func (h *StockAlertHandler) NotifyRestock(w http.ResponseWriter, r *http.Request) {
	sent, err := h.notifications.NotifyRestock(r.Context(), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sent": sent})
}
