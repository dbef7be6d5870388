package otel_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/retailledger/internal/adapter/otel"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.LedgerEvent
}

func (m *mockPublisher) Publish(_ context.Context, e domain.LedgerEvent) error {
	m.events = append(m.events, e)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.LedgerEvent) error {
	return fmt.Errorf("publish failed")
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	event := domain.NewLedgerEvent(domain.KindOrderCreated, "t-1", "INV-0001-t-1", nil)
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.kind", "order.created")
	assertAttribute(t, spans[0], "tenant.id", "t-1")
	assertAttribute(t, spans[0], "event.reference", "INV-0001-t-1")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	err := pub.Publish(context.Background(), domain.NewLedgerEvent(domain.KindStockLow, "t-1", "p-1", nil))
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
