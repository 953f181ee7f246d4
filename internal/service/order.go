// Package service implements the business workflows on top of the domain
// stores. Services own transaction boundaries; handlers only translate
// HTTP to service calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/email"
	"github.com/meghkala/api/internal/events"
	"github.com/meghkala/api/internal/pricing"
	"github.com/meghkala/api/internal/storage"
	"github.com/meghkala/api/internal/telemetry"
)

// MaxScreenshotBytes caps payment proof uploads.
const MaxScreenshotBytes = 20 << 20

// CreateOrderItem is one requested line in a new order.
type CreateOrderItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	Items           []CreateOrderItem      `json:"items" validate:"required,min=1,dive"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress" validate:"required"`
	CouponCode      string                 `json:"couponCode"`
	// ManualPayment starts the order in Awaiting Manual Payment instead of
	// Pending Confirmation.
	ManualPayment bool `json:"manualPayment"`
}

// OrderService implements the order lifecycle: creation with stock
// reservation, status transitions with their ledger effects, payment
// fulfillment, and proof upload.
type OrderService struct {
	orders   domain.OrderStore
	products domain.ProductStore
	coupons  domain.CouponStore
	shipping domain.ShippingStore
	users    domain.UserStore

	files   storage.Storage
	events  events.Publisher
	mail    *email.Service
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// OrderServiceDeps bundles the collaborators for NewOrderService. Mail,
// events, files, and metrics are optional; nil means the side effect is
// skipped.
type OrderServiceDeps struct {
	Orders   domain.OrderStore
	Products domain.ProductStore
	Coupons  domain.CouponStore
	Shipping domain.ShippingStore
	Users    domain.UserStore
	Files    storage.Storage
	Events   events.Publisher
	Mail     *email.Service
	Metrics  *telemetry.BusinessMetrics
	Logger   *slog.Logger
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &OrderService{
		orders:   deps.Orders,
		products: deps.Products,
		coupons:  deps.Coupons,
		shipping: deps.Shipping,
		users:    deps.Users,
		files:    deps.Files,
		events:   deps.Events,
		mail:     deps.Mail,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Create places an order. Pricing uses current product prices; the unit
// price written to each line is a permanent snapshot. Reservation, order
// insert, and coupon redemption happen in one transaction, so a failure
// on any line leaves no trace.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	const op = "order.create"

	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	merged, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(merged))
	items := make([]domain.OrderItem, 0, len(merged))
	for id, qty := range merged {
		p, ok := products[id]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		lines = append(lines, pricing.Line{Product: p, Quantity: qty})
		items = append(items, domain.OrderItem{
			ProductID:  id,
			Quantity:   qty,
			PriceCents: p.PriceCents,
		})
	}

	subtotal := pricing.Subtotal(lines)

	cfg, err := s.shipping.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	shippingCost := pricing.ShippingCost(subtotal, cfg)

	now := s.now()
	var coupon *domain.Coupon
	var discount int64
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		coupon, err = s.coupons.GetByCode(ctx, code)
		if err != nil {
			s.countCouponRejection(err)
			return nil, err
		}
		used, err := s.coupons.HasRedeemed(ctx, coupon.ID, userID)
		if err != nil {
			return nil, err
		}
		discount, err = pricing.CouponDiscount(subtotal+shippingCost, coupon, used, now)
		if err != nil {
			s.countCouponRejection(err)
			return nil, err
		}
	}

	status := domain.StatusPendingConfirmation
	if in.ManualPayment {
		status = domain.StatusAwaitingManualPayment
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		SubtotalCents:   subtotal,
		ShippingCents:   shippingCost,
		DiscountCents:   discount,
		TotalCents:      pricing.Total(subtotal, shippingCost, discount),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if coupon != nil {
		order.CouponID = coupon.ID
	}

	err = s.orders.WithinTx(ctx, func(tx domain.OrderTx) error {
		for _, item := range order.Items {
			if products[item.ProductID].Availability != domain.AvailabilityInStock {
				continue
			}
			if err := tx.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
				if s.metrics != nil && domain.IsCode(err, domain.EINVALID) {
					s.metrics.ReservationFailures.WithLabelValues(item.ProductID).Inc()
				}
				return err
			}
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if coupon != nil {
			return tx.RedeemCoupon(ctx, coupon.ID, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"user_id", userID,
		"status", order.Status,
		"total_cents", order.TotalCents,
		"items", len(order.Items),
	)
	if s.metrics != nil {
		s.metrics.OrdersCreated.WithLabelValues(string(order.Status)).Inc()
		s.metrics.OrderValue.WithLabelValues(string(order.Status)).Observe(float64(order.TotalCents))
		s.metrics.OrderItemCount.Observe(float64(len(order.Items)))
		if coupon != nil {
			s.metrics.CouponsRedeemed.WithLabelValues(coupon.Code).Inc()
		}
		var reserved int64
		for _, item := range order.Items {
			if products[item.ProductID].Availability == domain.AvailabilityInStock {
				reserved += item.Quantity
			}
		}
		s.metrics.StockReserved.Add(float64(reserved))
	}
	s.events.OrderCreated(order)
	s.notify(ctx, order, func(addr string) {
		s.mail.SendOrderConfirmation(ctx, addr, order)
	})

	return order, nil
}

// UpdateStatus moves an order to the target status, applying the ledger
// effect the transition table prescribes. Requesting the current status is
// an idempotent no-op that touches nothing.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	const op = "order.update_status"

	if !target.Valid() {
		return nil, domain.Errorf(domain.EINVALID, op, "unknown order status %q", target)
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return order, nil
	}

	effect, err := domain.NextEffect(order.Status, target)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, order, target, effect, nil); err != nil {
		// A concurrent request won the compare-and-set. If it moved the
		// order to the same target, this request is a duplicate.
		if errors.Is(err, domain.ErrOrderConflict) {
			if current, gerr := s.orders.Get(ctx, orderID); gerr == nil && current.Status == target {
				return current, nil
			}
		}
		return nil, err
	}
	return order, nil
}

// FulfillPayment records a completed gateway payment and dispatches the
// order. Anything other than a completed payment is rejected.
func (s *OrderService) FulfillPayment(ctx context.Context, orderID, paymentID, paymentStatus string) (*domain.Order, error) {
	const op = "order.fulfill_payment"

	if paymentStatus != "completed" {
		return nil, domain.Errorf(domain.EINVALID, op, "payment not completed: %s", paymentStatus)
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Gateways retry callbacks; a repeat of an already recorded payment is
	// a no-op rather than an invalid transition.
	if alreadyFulfilled(order, paymentID) {
		return order, nil
	}

	effect, err := domain.NextEffect(order.Status, domain.StatusDispatched)
	if err != nil {
		return nil, err
	}

	details := domain.PaymentDetails{PaymentID: paymentID, Status: paymentStatus}
	err = s.transition(ctx, order, domain.StatusDispatched, effect, func(tx domain.OrderTx) error {
		return tx.SetPaymentDetails(ctx, order.ID, details)
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderConflict) {
			if current, gerr := s.orders.Get(ctx, orderID); gerr == nil && alreadyFulfilled(current, paymentID) {
				return current, nil
			}
		}
		return nil, err
	}
	order.Payment = &details
	return order, nil
}

func alreadyFulfilled(o *domain.Order, paymentID string) bool {
	return o.Status == domain.StatusDispatched && o.Payment != nil && o.Payment.PaymentID == paymentID
}

// AttachPaymentProof stores an uploaded payment screenshot for the
// order's owner and moves the order to Pending Verification.
func (s *OrderService) AttachPaymentProof(ctx context.Context, orderID, userID, filename, contentType string, size int64, content io.Reader) (*domain.Order, error) {
	const op = "order.attach_proof"

	if size > MaxScreenshotBytes {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "screenshot exceeds the 20MB limit")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.Errorf(domain.EINVALID, op, "screenshot must be an image")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.Forbidden(op, "You can only upload payment proof for your own orders")
	}

	effect, err := domain.NextEffect(order.Status, domain.StatusPendingVerification)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("payments/%s/%s%s", order.ID, uuid.NewString(), path.Ext(filename))
	url, err := s.files.Put(ctx, key, io.LimitReader(content, MaxScreenshotBytes), contentType)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store screenshot")
	}

	proof := domain.PaymentProof{ScreenshotURL: url, SubmittedAt: s.now()}
	err = s.transition(ctx, order, domain.StatusPendingVerification, effect, func(tx domain.OrderTx) error {
		return tx.SetPaymentProof(ctx, order.ID, proof)
	})
	if err != nil {
		return nil, err
	}
	order.Proof = &proof
	return order, nil
}

// Get returns the order. Ownership checks belong to the caller.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListByUser returns the user's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// transition applies the ledger effect for each IN_STOCK line and the
// status write in one transaction, then emits the side effects. extra, if
// set, runs inside the same transaction. On success the order's Status and
// UpdatedAt are refreshed in place.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, target domain.OrderStatus, effect domain.LedgerEffect, extra func(tx domain.OrderTx) error) error {
	availability, err := s.itemAvailability(ctx, order)
	if err != nil {
		return err
	}

	err = s.orders.WithinTx(ctx, func(tx domain.OrderTx) error {
		var moved int64
		for _, item := range order.Items {
			if availability[item.ProductID] != domain.AvailabilityInStock {
				continue
			}
			switch effect {
			case domain.EffectCommit:
				if err := tx.CommitStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
				moved += item.Quantity
			case domain.EffectRelease:
				if err := tx.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
				moved += item.Quantity
			}
		}
		if s.metrics != nil {
			switch effect {
			case domain.EffectCommit:
				s.metrics.StockCommitted.Add(float64(moved))
			case domain.EffectRelease:
				s.metrics.StockReleased.Add(float64(moved))
			}
		}
		if extra != nil {
			if err := extra(tx); err != nil {
				return err
			}
		}
		return tx.UpdateStatus(ctx, order.ID, order.Status, target)
	})
	if err != nil {
		return err
	}

	prev := order.Status
	order.Status = target
	order.UpdatedAt = s.now()

	s.logger.Info("order status changed",
		"order_id", order.ID,
		"from", prev,
		"to", target,
	)
	if s.metrics != nil {
		s.metrics.OrderTransitions.WithLabelValues(string(prev), string(target)).Inc()
	}
	s.events.OrderStatusChanged(order, prev)
	s.notify(ctx, order, func(addr string) {
		s.mail.SendOrderStatusUpdate(ctx, addr, order)
	})
	return nil
}

// itemAvailability resolves each line's current availability, so ledger
// effects skip MADE_TO_ORDER products. Missing products (deleted since
// purchase) are treated as out of ledger scope.
func (s *OrderService) itemAvailability(ctx context.Context, order *domain.Order) (map[string]domain.Availability, error) {
	ids := make([]string, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Availability, len(products))
	for id, p := range products {
		out[id] = p.Availability
	}
	return out, nil
}

// notify emails the order's owner, best-effort.
func (s *OrderService) notify(ctx context.Context, order *domain.Order, send func(addr string)) {
	if s.mail == nil {
		return
	}
	user, err := s.users.Get(ctx, order.UserID)
	if err != nil {
		s.logger.Warn("order email skipped", "order_id", order.ID, "error", err)
		return
	}
	send(user.Email)
}

func (s *OrderService) countCouponRejection(err error) {
	if s.metrics == nil {
		return
	}
	reason := "not_found"
	switch {
	case err == domain.ErrCouponExpired:
		reason = "expired"
	case err == domain.ErrCouponAlreadyUsed:
		reason = "already_used"
	}
	s.metrics.CouponRejected.WithLabelValues(reason).Inc()
}

// mergeItems collapses duplicate product lines and validates quantities.
func mergeItems(items []CreateOrderItem) (map[string]int64, error) {
	merged := make(map[string]int64, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			return nil, domain.Invalid("order.create", "order item missing product id")
		}
		if item.Quantity <= 0 {
			return nil, domain.Errorf(domain.EINVALID, "order.create", "quantity must be positive, got %d", item.Quantity)
		}
		merged[item.ProductID] += item.Quantity
	}
	return merged, nil
}
