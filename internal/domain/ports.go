package domain

import (
	"context"
	"time"
)

// UnitOfWork runs fn inside a single storage transaction. Calls nested within fn
// join the outer transaction.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SequenceAllocator hands out gap-free, strictly increasing numbers per tenant and series.
// The first value returned for a new (tenant, series) pair is 1.
type SequenceAllocator interface {
	Next(ctx context.Context, tenantID string, series Series) (int64, error)
}

// SequenceSeeder reports the highest number already issued for a series, so an
// allocator starting from an empty counter can continue after it.
type SequenceSeeder interface {
	Highest(ctx context.Context, tenantID string, series Series) (int64, error)
}

// InventoryLedger owns product quantities. Every change is a single atomic
// conditional read-modify-write in the store.
type InventoryLedger interface {
	TryDecrement(ctx context.Context, tenantID, productID string, amount int64) (int64, error)
	Increment(ctx context.Context, tenantID, productID string, amount int64) (int64, error)
	BatchTryDecrement(ctx context.Context, tenantID string, lines []StockLine) error
}

// ProductRepository defines the persistence contract for catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product Product) error
	GetByID(ctx context.Context, tenantID, id string) (Product, error)
	List(ctx context.Context, tenantID string, filter ProductFilter) ([]Product, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// ProductFilter holds optional criteria for listing products.
type ProductFilter struct {
	// MaxQuantity selects products at or below the given quantity.
	MaxQuantity *int64
	Limit       int
	Offset      int
}

// CustomerRepository defines the persistence contract for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) error
	GetByID(ctx context.Context, tenantID, id string) (Customer, error)
	List(ctx context.Context, tenantID string, filter CustomerFilter) ([]Customer, error)
}

// CustomerFilter holds optional criteria for listing customers.
type CustomerFilter struct {
	// Search matches name, phone or code as a substring.
	Search string
	Limit  int
	Offset int
}

// OrderRepository defines the persistence contract for orders.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	GetByNumber(ctx context.Context, tenantID, orderNumber string) (Order, error)
	List(ctx context.Context, tenantID string, filter OrderFilter) ([]Order, error)
	// UpdateStatus moves the order from one status to another only if it is still in from.
	// It returns ErrStatusConflict when the stored status no longer matches.
	UpdateStatus(ctx context.Context, tenantID, orderNumber string, from, to Status) error
}

// OrderFilter holds optional criteria for listing orders.
type OrderFilter struct {
	Status     *Status
	CustomerID string
	Limit      int
	Offset     int
}

// TransitionValidator checks an order lifecycle change and returns the resulting status.
// A change to the current status is accepted as a no-op.
type TransitionValidator interface {
	Validate(ctx context.Context, current, target Status) (Status, error)
}

// Locker serializes work on a key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// EventPublisher defines the contract for emitting ledger events.
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}
