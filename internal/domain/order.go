package domain

import (
	"context"
	"time"
)

// OrderStatus is the lifecycle state of an order. The string values are
// stored verbatim and shown to customers.
type OrderStatus string

const (
	StatusAwaitingManualPayment OrderStatus = "Awaiting Manual Payment"
	StatusPendingConfirmation   OrderStatus = "Pending Confirmation"
	StatusAwaitingPayment       OrderStatus = "Awaiting Payment"
	StatusPendingVerification   OrderStatus = "Pending Verification"
	StatusDispatched            OrderStatus = "Dispatched"
	StatusDelivered             OrderStatus = "Delivered"
	StatusCancelled             OrderStatus = "Cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusAwaitingManualPayment, StatusPendingConfirmation,
		StatusAwaitingPayment, StatusPendingVerification,
		StatusDispatched, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// LedgerEffect is the inventory operation a status transition triggers.
// Each effect is applied exactly once per line item per transition.
type LedgerEffect int

const (
	EffectNone LedgerEffect = iota
	EffectCommit
	EffectRelease
)

// validNext is the consolidated transition table. Every status change goes
// through here; handlers never branch on statuses themselves.
//
// Commit happens on the transition into Dispatched while the reservation is
// still held. After Dispatched the stock decrement is permanent, so a
// post-dispatch cancellation releases nothing.
var validNext = map[OrderStatus]map[OrderStatus]LedgerEffect{
	StatusAwaitingManualPayment: {
		StatusPendingVerification: EffectNone,
		StatusDispatched:          EffectCommit,
		StatusCancelled:           EffectRelease,
	},
	StatusPendingConfirmation: {
		StatusAwaitingPayment:     EffectNone,
		StatusPendingVerification: EffectNone,
		StatusDispatched:          EffectCommit,
		StatusCancelled:           EffectRelease,
	},
	StatusAwaitingPayment: {
		StatusPendingVerification: EffectNone,
		StatusDispatched:          EffectCommit,
		StatusCancelled:           EffectRelease,
	},
	StatusPendingVerification: {
		StatusDispatched: EffectCommit,
		StatusCancelled:  EffectRelease,
	},
	StatusDispatched: {
		StatusDelivered: EffectNone,
		StatusCancelled: EffectNone,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Order-related domain errors.
var (
	ErrOrderNotFound     = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptyOrder        = &Error{Code: EINVALID, Message: "No order items provided"}
	ErrInvalidTransition = &Error{Code: EINVALID, Message: "Order cannot be moved to the requested status"}
	ErrOrderConflict     = &Error{Code: ECONFLICT, Message: "Order was modified concurrently, please retry"}
)

// NextEffect returns the ledger effect of moving from one status to
// another, or ErrInvalidTransition when the move is not allowed. A
// same-status move is the caller's responsibility to short-circuit as an
// idempotent no-op before consulting the table.
func NextEffect(from, to OrderStatus) (LedgerEffect, error) {
	next, ok := validNext[from]
	if !ok {
		return EffectNone, ErrInvalidTransition
	}
	effect, ok := next[to]
	if !ok {
		return EffectNone, ErrInvalidTransition
	}
	return effect, nil
}

// OrderItem is a line item with the unit price captured at purchase time.
// PriceCents is an immutable snapshot; live product price changes never
// retroactively reprice an order.
type OrderItem struct {
	ProductID  string `json:"productId"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"priceAtPurchaseCents"`
}

// ShippingAddress is the delivery destination, embedded in the order.
type ShippingAddress struct {
	Name          string `json:"name"`
	Line1         string `json:"line1"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	ContactNumber string `json:"contactNumber"`
}

// PaymentDetails records a completed gateway payment.
type PaymentDetails struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// PaymentProof records a manually uploaded payment screenshot.
type PaymentProof struct {
	ScreenshotURL string    `json:"screenshotUrl"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Order is the aggregate persisted per checkout. Only Status, payment
// details and the payment proof change after creation; orders are never
// deleted.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	SubtotalCents   int64           `json:"subtotalCents"`
	ShippingCents   int64           `json:"shippingCents"`
	DiscountCents   int64           `json:"discountCents"`
	TotalCents      int64           `json:"totalCents"`
	CouponID        string          `json:"couponId,omitempty"`
	Status          OrderStatus     `json:"status"`
	Payment         *PaymentDetails `json:"paymentDetails,omitempty"`
	Proof           *PaymentProof   `json:"manualPaymentDetails,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderTx is the transactional scope for order mutations. All operations
// issued through one OrderTx commit or roll back together; a failed
// reservation on item N therefore undoes reservations 1..N-1 and the order
// insert in the same breath.
type OrderTx interface {
	InsertOrder(ctx context.Context, o *Order) error

	// UpdateStatus is a compare-and-set on the status column: it only
	// writes when the order is still at from, and fails with
	// ErrOrderConflict otherwise. The ledger effects issued on the same
	// OrderTx roll back with it, so a lost race applies no effect.
	UpdateStatus(ctx context.Context, orderID string, from, to OrderStatus) error
	SetPaymentDetails(ctx context.Context, orderID string, d PaymentDetails) error
	SetPaymentProof(ctx context.Context, orderID string, p PaymentProof) error

	// Inventory ledger operations. Each is a single atomic conditional
	// update; Reserve fails with ErrInsufficientStock when fewer than qty
	// units are available at the moment of the check.
	ReserveStock(ctx context.Context, productID string, qty int64) error
	CommitStock(ctx context.Context, productID string, qty int64) error
	ReleaseStock(ctx context.Context, productID string, qty int64) error

	// RedeemCoupon records single-use-per-user redemption. Rolled back
	// with the rest of the transaction, so an aborted order does not burn
	// the coupon.
	RedeemCoupon(ctx context.Context, couponID, userID string) error
}

// OrderStore persists orders.
type OrderStore interface {
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)

	// WithinTx runs fn inside a single all-or-nothing transaction.
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}
