package api

import (
	"log/slog"
	"net/http"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/service"
)

// OrderHandler exposes the order lifecycle endpoints.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{orders: orders, logger: logger}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type fulfillPaymentRequest struct {
	PaymentID     string `json:"paymentId" validate:"required"`
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var in service.CreateOrderInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"order": order})
}

// ListMine handles GET /api/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// ListAll handles GET /api/orders/all
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get handles GET /api/orders/{id}
// Customers can only read their own orders; admins can read any.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	order, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		respondError(w, r, domain.Forbidden("order.get", "You can only view your own orders"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}

// UpdateStatus handles PUT /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in updateStatusRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), domain.OrderStatus(in.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}

// FulfillPayment handles POST /api/orders/{id}/fulfill-payment
func (h *OrderHandler) FulfillPayment(w http.ResponseWriter, r *http.Request) {
	var in fulfillPaymentRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.FulfillPayment(r.Context(), r.PathValue("id"), in.PaymentID, in.PaymentStatus)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}

// UploadScreenshot handles POST /api/orders/{id}/upload-screenshot
// Expects a multipart form with a "screenshot" file field.
func (h *OrderHandler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(service.MaxScreenshotBytes); err != nil {
		respondError(w, r, domain.Invalid("order.upload", "Invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("screenshot")
	if err != nil {
		respondError(w, r, domain.Invalid("order.upload", "screenshot file is required"))
		return
	}
	defer file.Close()

	order, err := h.orders.AttachPaymentProof(
		r.Context(),
		r.PathValue("id"),
		user.ID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}
