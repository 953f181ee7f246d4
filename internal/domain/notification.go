package domain

import (
	"context"
	"time"
)

// StockAlertStatus tracks the lifecycle of a back-in-stock request.
type StockAlertStatus string

const (
	AlertPending   StockAlertStatus = "pending"
	AlertSent      StockAlertStatus = "sent"
	AlertCancelled StockAlertStatus = "cancelled"
)

// Stock-alert domain errors.
var (
	ErrAlertNotFound  = &Error{Code: ENOTFOUND, Message: "Stock alert not found"}
	ErrDuplicateAlert = &Error{Code: ECONFLICT, Message: "You already have an alert for this product"}
)

// StockAlert is a request to be emailed when a product comes back in stock.
// UserID is empty for guest subscriptions.
type StockAlert struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"productId"`
	Email      string           `json:"email"`
	UserID     string           `json:"userId,omitempty"`
	Status     StockAlertStatus `json:"status"`
	NotifiedAt *time.Time       `json:"notifiedAt,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// StockAlertStore persists stock alerts.
type StockAlertStore interface {
	Create(ctx context.Context, a *StockAlert) error
	Get(ctx context.Context, id string) (*StockAlert, error)
	ListByEmail(ctx context.Context, email string) ([]StockAlert, error)
	ListPendingByProduct(ctx context.Context, productID string) ([]StockAlert, error)
	List(ctx context.Context) ([]StockAlert, error)
	// MarkSent stamps notified_at and flips status to sent.
	MarkSent(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string) error
}
