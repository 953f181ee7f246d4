package domain

import (
	"context"
	"time"
)

// Availability determines whether a product participates in stock
// reservation bookkeeping. MADE_TO_ORDER products are produced on demand
// and never have their counters touched by the inventory ledger.
type Availability string

const (
	AvailabilityInStock     Availability = "IN_STOCK"
	AvailabilityMadeToOrder Availability = "MADE_TO_ORDER"
)

// Product-related domain errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrDuplicateSKU    = &Error{Code: ECONFLICT, Message: "A product with this SKU already exists"}

	// ErrInsufficientStock is returned when a reservation would exceed the
	// available (quantity - reserved) units of an IN_STOCK product.
	ErrInsufficientStock = &Error{Code: EINVALID, Message: "Insufficient stock for one or more items"}
)

// Product is a catalog entry. Quantity and Reserved are mutated exclusively
// through the inventory ledger; every other field is plain catalog data.
type Product struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PriceCents   int64        `json:"priceCents"`
	Images       []string     `json:"images"`
	Category     string       `json:"category"`
	SKU          string       `json:"sku"`
	Availability Availability `json:"availability"`
	Quantity     int64        `json:"quantity"`
	Reserved     int64        `json:"reserved"`
	IsFeatured   bool         `json:"isFeatured"`
	Tags         []string     `json:"tags"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// AvailableQuantity is the number of units that can still be reserved.
// Invariant: never negative for IN_STOCK products.
func (p *Product) AvailableQuantity() int64 {
	return p.Quantity - p.Reserved
}

// ProductStore persists products. Implementations must never mutate
// Quantity/Reserved outside the inventory ledger operations.
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Product, error)
	// GetByIDs returns the products found, keyed by ID. Callers are
	// responsible for treating missing IDs as not-found.
	GetByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	List(ctx context.Context) ([]Product, error)
	// CountByCategory reports how many products carry the category name.
	CountByCategory(ctx context.Context, category string) (int64, error)
}
