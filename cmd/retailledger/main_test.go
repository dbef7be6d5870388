package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	handler "github.com/neomorfeo/retailledger/internal/adapter/http"
	"github.com/neomorfeo/retailledger/internal/adapter/fsm"
	"github.com/neomorfeo/retailledger/internal/adapter/sqlite"
	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// testPublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type testPublisher struct{}

func (p *testPublisher) Publish(_ context.Context, _ domain.LedgerEvent) error {
	return nil
}

func ownerRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("X-Principal-ID", "owner-ab12")
	req.Header.Set("X-Principal-Role", "owner")
	return req
}

// discardStdout silences the stdout telemetry exporter and JSON logs.
func discardStdout(t *testing.T) {
	t.Helper()
	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// TestSmoke wires the full stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	dbPath := t.TempDir() + "/test.db"

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	orders, err := app.NewOrderService(app.OrderServiceDeps{
		UnitOfWork: store,
		Orders:     store.Orders(),
		Products:   store.Products(),
		Customers:  store.Customers(),
		Ledger:     store.Inventory(),
		Sequences:  store.Sequences(),
		Validator:  fsm.New(),
		Publisher:  &testPublisher{},
	})
	if err != nil {
		t.Fatalf("order service: %v", err)
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("retailledger", "0.1.0"))
	handler.Register(api, handler.Services{
		Orders:    orders,
		Catalog:   app.NewCatalogService(store.Products(), store.Inventory(), 0, nil),
		Customers: app.NewCustomerService(store, store.Customers(), store.Sequences()),
		Sequences: app.NewSequenceService(store.Sequences()),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.DefaultClient.Do(ownerRequest(t, srv.URL+"/api/v1/orders"))
	if err != nil {
		t.Fatalf("GET /api/v1/orders failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var orderList []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&orderList); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(orderList) != 0 {
		t.Errorf("got %d orders, want 0 (empty database)", len(orderList))
	}
}

// TestRun exercises the real run() function end-to-end: OTel, River, HTTP
// server, and graceful shutdown.
func TestRun(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_PATH", "test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	t.Setenv("SEQUENCE_BACKEND", "sqlite")
	t.Setenv("ORDER_LOCKS", "false")
	discardStdout(t)

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		resp, reqErr := http.DefaultClient.Do(ownerRequest(t, serverURL+"/api/v1/tenant"))
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	resp, err := http.DefaultClient.Do(ownerRequest(t, serverURL+"/api/v1/products"))
	if err != nil {
		t.Fatalf("GET /api/v1/products failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("OTEL_EXPORTER", "none")
	discardStdout(t)

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_InvalidConfig verifies run() rejects a Redis backend without an address.
func TestRun_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEQUENCE_BACKEND", "redis")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("OTEL_EXPORTER", "none")

	if err := run(); err == nil {
		t.Fatal("expected error for redis backend without address, got nil")
	}
}
