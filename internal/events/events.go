// Package events publishes order lifecycle events. Publishing is
// fire-and-forget: a broker outage is logged and never fails the
// operation that produced the event.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/meghkala/api/internal/domain"
)

// Subjects for order lifecycle events.
const (
	SubjectOrderCreated       = "orders.created"
	SubjectOrderStatusChanged = "orders.status_changed"
)

// OrderEvent is the payload published on order subjects.
type OrderEvent struct {
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Status     domain.OrderStatus `json:"status"`
	PrevStatus domain.OrderStatus `json:"prevStatus,omitempty"`
	TotalCents int64              `json:"totalCents"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// Publisher emits order events.
type Publisher interface {
	OrderCreated(o *domain.Order)
	OrderStatusChanged(o *domain.Order, prev domain.OrderStatus)
}

// NATSPublisher publishes events to NATS subjects as JSON.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSPublisher(conn *nats.Conn, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, logger: logger}
}

func (p *NATSPublisher) OrderCreated(o *domain.Order) {
	p.publish(SubjectOrderCreated, OrderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NATSPublisher) OrderStatusChanged(o *domain.Order, prev domain.OrderStatus) {
	p.publish(SubjectOrderStatusChanged, OrderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		PrevStatus: prev,
		TotalCents: o.TotalCents,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NATSPublisher) publish(subject string, ev OrderEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("events: marshal failed", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("events: publish failed", "subject", subject, "error", err)
	}
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(*domain.Order) {}

func (NopPublisher) OrderStatusChanged(*domain.Order, domain.OrderStatus) {}
