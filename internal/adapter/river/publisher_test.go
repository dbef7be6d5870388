package river_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/retailledger/internal/adapter/river"
	"github.com/neomorfeo/retailledger/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func startClient(t *testing.T, db *sql.DB) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()

	client, err := riveradapter.Setup(context.Background(), db, zap.NewNop(), riveradapter.Options{})
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	events, cancel := client.Subscribe(goriver.EventKindJobCompleted)
	t.Cleanup(cancel)

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, events
}

func TestPublisher_Publish_EnqueuesJob(t *testing.T) {
	db := setupTestDB(t)
	client, events := startClient(t, db)

	pub := riveradapter.NewPublisher(client)
	event := domain.NewLedgerEvent(domain.KindOrderCreated, "owner-ab12", "INV-0001-ab12", nil)

	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Wait for the worker to process the job.
	select {
	case ev := <-events:
		if ev.Job.Kind != "ledger.event" {
			t.Errorf("job kind = %q, want %q", ev.Job.Kind, "ledger.event")
		}
		if ev.Job.Queue != riveradapter.QueueLedgerEvents {
			t.Errorf("queue = %q, want %q", ev.Job.Queue, riveradapter.QueueLedgerEvents)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestPublisher_Publish_PreservesEventData(t *testing.T) {
	db := setupTestDB(t)
	client, events := startClient(t, db)

	pub := riveradapter.NewPublisher(client)
	event := domain.NewLedgerEvent(domain.KindOrderStatusChanged, "owner-ab12", "INV-0042-ab12", map[string]string{
		"from": "Completed",
		"to":   "Cancelled",
	})

	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case ev := <-events:
		var args riveradapter.LedgerEventArgs
		if err := json.Unmarshal(ev.Job.EncodedArgs, &args); err != nil {
			t.Fatalf("decoding args: %v", err)
		}
		if args.EventKind != "order.status_changed" {
			t.Errorf("kind = %q", args.EventKind)
		}
		if args.TenantID != "owner-ab12" || args.Reference != "INV-0042-ab12" {
			t.Errorf("args = %+v", args)
		}
		if args.Attributes["to"] != "Cancelled" {
			t.Errorf("attributes = %v", args.Attributes)
		}
		if !args.OccurredAt.Equal(event.OccurredAt) {
			t.Errorf("occurred_at = %v, want %v", args.OccurredAt, event.OccurredAt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestLedgerEventArgs_JobKindIsSeparateFromEventKind(t *testing.T) {
	args := riveradapter.LedgerEventArgs{EventKind: string(domain.KindStockLow), TenantID: "owner-ab12"}

	if got := args.Kind(); got != "ledger.event" {
		t.Errorf("Kind() = %q, want %q", got, "ledger.event")
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("encoding args: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("decoding args: %v", err)
	}
	if raw["kind"] != "stock.low" {
		t.Errorf(`"kind" = %v, want %q`, raw["kind"], "stock.low")
	}
}
