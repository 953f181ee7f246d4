// Package routes wires handlers onto the router with their middleware.
package routes

import (
	"net/http"

	"github.com/meghkala/api/internal/handler/api"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/router"
)

// Deps contains the handlers for the API routes.
type Deps struct {
	Auth        *api.AuthHandler
	Products    *api.ProductHandler
	Categories  *api.CategoryHandler
	Reviews     *api.ReviewHandler
	Orders      *api.OrderHandler
	Coupons     *api.CouponHandler
	Discounts   *api.DiscountHandler
	Shipping    *api.ShippingHandler
	StockAlerts *api.StockAlertHandler

	// MetricsHandler serves GET /metrics (Prometheus).
	MetricsHandler http.Handler

	// UploadsDir, when set, serves stored files under /uploads for the
	// local storage backend.
	UploadsDir string
}

// Register mounts every API route. Admin routes get RequireAdmin;
// customer routes get RequireAuth; the rest are public.
func Register(r *router.Router, deps Deps) {
	authed := r.Group(middleware.RequireAuth)
	admin := r.Group(middleware.RequireAdmin)

	// One limiter shared across the credential endpoints
	strict := middleware.RateLimit(middleware.StrictRateLimiterConfig())

	// Auth
	r.Post("/api/auth/signup", deps.Auth.Signup, strict)
	r.Post("/api/auth/login", deps.Auth.Login, strict)
	r.Post("/api/auth/otp", deps.Auth.RequestOTP, strict)
	r.Post("/api/auth/otp/verify", deps.Auth.VerifyOTP, strict)
	r.Post("/api/auth/logout", deps.Auth.Logout)
	authed.Get("/api/auth/me", deps.Auth.Me)

	// Catalog
	r.Get("/api/products", deps.Products.List)
	r.Get("/api/products/{id}", deps.Products.Get)
	admin.Post("/api/products", deps.Products.Create)
	admin.Put("/api/products/{id}", deps.Products.Update)
	admin.Delete("/api/products/{id}", deps.Products.Delete)

	// Categories
	r.Get("/api/categories", deps.Categories.List)
	r.Get("/api/categories/{id}/subcategories", deps.Categories.Subcategories)
	admin.Post("/api/categories", deps.Categories.Create)
	admin.Delete("/api/categories/{id}", deps.Categories.Delete)

	// Reviews
	r.Get("/api/products/{id}/reviews", deps.Reviews.ListByProduct)
	authed.Post("/api/products/{id}/reviews", deps.Reviews.Create)
	authed.Put("/api/reviews/{id}", deps.Reviews.Update)
	authed.Delete("/api/reviews/{id}", deps.Reviews.Delete)

	// Orders
	authed.Post("/api/orders", deps.Orders.Create)
	authed.Get("/api/orders", deps.Orders.ListMine)
	admin.Get("/api/orders/all", deps.Orders.ListAll)
	authed.Get("/api/orders/{id}", deps.Orders.Get)
	admin.Put("/api/orders/{id}/status", deps.Orders.UpdateStatus)
	admin.Post("/api/orders/{id}/fulfill-payment", deps.Orders.FulfillPayment)
	authed.Post("/api/orders/{id}/upload-screenshot", deps.Orders.UploadScreenshot,
		middleware.MaxBodySize(middleware.LargeMaxBodySize))

	// Coupons
	r.Get("/api/coupons/validate", deps.Coupons.Validate)
	authed.Post("/api/coupons/apply", deps.Coupons.Apply)
	admin.Get("/api/coupons", deps.Coupons.List)
	admin.Post("/api/coupons", deps.Coupons.Create)
	admin.Put("/api/coupons/{id}", deps.Coupons.Update)
	admin.Delete("/api/coupons/{id}", deps.Coupons.Delete)

	// Discounts
	r.Get("/api/discounts/active", deps.Discounts.ListActive)
	admin.Get("/api/discounts", deps.Discounts.List)
	admin.Get("/api/discounts/{id}", deps.Discounts.Get)
	admin.Post("/api/discounts", deps.Discounts.Create)
	admin.Put("/api/discounts/{id}", deps.Discounts.Update)
	admin.Delete("/api/discounts/{id}", deps.Discounts.Delete)

	// Shipping
	r.Get("/api/shipping", deps.Shipping.Config)
	r.Post("/api/shipping/calculate", deps.Shipping.Calculate)
	admin.Put("/api/shipping", deps.Shipping.SetConfig)

	// Stock alerts
	r.Post("/api/stock-alerts", deps.StockAlerts.Subscribe)
	authed.Get("/api/stock-alerts", deps.StockAlerts.ListMine)
	admin.Get("/api/stock-alerts/all", deps.StockAlerts.ListAll)
	authed.Delete("/api/stock-alerts/{id}", deps.StockAlerts.Cancel)
	admin.Post("/api/stock-alerts/notify/{productId}", deps.StockAlerts.NotifyRestock)

	// Operational endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.MetricsHandler != nil {
		r.Handle(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.UploadsDir != "" {
		r.Static("/uploads", deps.UploadsDir)
	}
}
