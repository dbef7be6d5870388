package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/retailledger/internal/adapter/fsm"
	"github.com/neomorfeo/retailledger/internal/adapter/sqlite"
	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

const tenantID = "owner-ab12"

// --- Mocks ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.LedgerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockPublisher) kinds() []domain.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventKind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind
	}
	return out
}

type mockLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (m *mockLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.keys = append(m.keys, key)
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released++
		return nil
	}, nil
}

// --- Fixture ---

type fixture struct {
	store     *sqlite.Store
	orders    *app.OrderService
	customers *app.CustomerService
	catalog   *app.CatalogService
	sequences *app.SequenceService
	publisher *mockPublisher
}

func newFixture(t *testing.T, opts ...func(*app.OrderServiceDeps)) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pub := &mockPublisher{}
	deps := app.OrderServiceDeps{
		UnitOfWork: store,
		Orders:     store.Orders(),
		Products:   store.Products(),
		Customers:  store.Customers(),
		Ledger:     store.Inventory(),
		Sequences:  store.Sequences(),
		Validator:  fsm.New(),
		Publisher:  pub,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	orders, err := app.NewOrderService(deps)
	require.NoError(t, err)

	return &fixture{
		store:     store,
		orders:    orders,
		customers: app.NewCustomerService(store, store.Customers(), store.Sequences()),
		catalog:   app.NewCatalogService(store.Products(), store.Inventory(), 0, nil),
		sequences: app.NewSequenceService(store.Sequences()),
		publisher: pub,
	}
}

func (f *fixture) product(t *testing.T, sku string, price string, qty int64) domain.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), app.CreateProductCommand{
		TenantID: tenantID,
		SKU:      sku,
		Name:     "Product " + sku,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T, name string) domain.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), app.CreateCustomerCommand{
		TenantID: tenantID,
		Name:     name,
		Phone:    "98450 00000",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) quantity(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), tenantID, productID)
	require.NoError(t, err)
	return p.Quantity
}
