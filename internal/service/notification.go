package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/email"
	"github.com/meghkala/api/internal/telemetry"
)

// NotificationService manages back-in-stock alerts: subscription,
// cancellation, and the admin-triggered send once a product is restocked.
type NotificationService struct {
	alerts   domain.StockAlertStore
	products domain.ProductStore
	mail     *email.Service
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewNotificationService(alerts domain.StockAlertStore, products domain.ProductStore, mail *email.Service, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		alerts:   alerts,
		products: products,
		mail:     mail,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe registers an alert for a product. userID may be empty for
// guest subscriptions.
func (s *NotificationService) Subscribe(ctx context.Context, productID, emailAddr, userID string) (*domain.StockAlert, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	alert := &domain.StockAlert{
		ID:        uuid.NewString(),
		ProductID: productID,
		Email:     strings.ToLower(strings.TrimSpace(emailAddr)),
		UserID:    userID,
		Status:    domain.AlertPending,
		CreatedAt: s.now(),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StockAlertsCreated.Inc()
	}
	return alert, nil
}

// ListMine returns the caller's alerts by email.
func (s *NotificationService) ListMine(ctx context.Context, emailAddr string) ([]domain.StockAlert, error) {
	return s.alerts.ListByEmail(ctx, emailAddr)
}

// ListAll returns every alert, for admins.
func (s *NotificationService) ListAll(ctx context.Context) ([]domain.StockAlert, error) {
	return s.alerts.List(ctx)
}

// Cancel withdraws a pending alert. Only the subscriber may cancel it.
func (s *NotificationService) Cancel(ctx context.Context, alertID, emailAddr string) error {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(alert.Email, emailAddr) {
		return domain.Forbidden("stock_alert.cancel", "You can only cancel your own alerts")
	}
	return s.alerts.Cancel(ctx, alertID)
}

// NotifyRestock emails every pending subscriber of a product and marks
// their alerts sent. Individual send failures skip the mark so the next
// run retries them.
func (s *NotificationService) NotifyRestock(ctx context.Context, productID string) (int, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product.Availability == domain.AvailabilityInStock && product.AvailableQuantity() <= 0 {
		return 0, domain.Invalid("stock_alert.notify", "Product has no available stock")
	}

	pending, err := s.alerts.ListPendingByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, alert := range pending {
		if s.mail != nil {
			s.mail.SendStockAlert(ctx, alert.Email, product)
		}
		if err := s.alerts.MarkSent(ctx, alert.ID, s.now()); err != nil {
			s.logger.Warn("failed to mark stock alert sent", "alert_id", alert.ID, "error", err)
			continue
		}
		sent++
	}

	if s.metrics != nil {
		s.metrics.StockAlertsSent.Add(float64(sent))
	}
	s.logger.Info("stock alerts dispatched", "product_id", productID, "sent", sent)
	return sent, nil
}
