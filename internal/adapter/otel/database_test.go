package otel_test

import (
	"context"
	"testing"

	adapter "github.com/neomorfeo/retailledger/internal/adapter/otel"
	"github.com/neomorfeo/retailledger/internal/adapter/sqlite"
	"github.com/neomorfeo/retailledger/internal/domain"
)

func TestOpenDB_TracesStoreQueries(t *testing.T) {
	exporter := setupTestTracer(t)
	setupTestMeter(t)

	db, err := adapter.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		t.Fatalf("NewFromDB: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exporter.Reset()
	if _, err := store.Sequences().Next(context.Background(), "t-1", domain.SeriesOrder); err != nil {
		t.Fatalf("Next: %v", err)
	}

	if len(exporter.GetSpans()) == 0 {
		t.Error("expected spans from the instrumented database")
	}
}
