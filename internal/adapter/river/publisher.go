package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// LedgerEventArgs carries a ledger event to the async worker. River stores it
// as JSON in its job table, so the worker never needs to query the ledger.
type LedgerEventArgs struct {
	EventKind  string            `json:"kind"`
	TenantID   string            `json:"tenant_id"`
	Reference  string            `json:"reference"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (LedgerEventArgs) Kind() string { return "ledger.event" }

// InsertOpts places ledger events on their own queue.
func (LedgerEventArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueLedgerEvents, MaxAttempts: 5}
}

// QueueLedgerEvents is the queue ledger events are processed on.
const QueueLedgerEvents = "ledger_events"

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a ledger event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	_, err := p.client.Insert(ctx, LedgerEventArgs{
		EventKind:  string(event.Kind),
		TenantID:   event.TenantID,
		Reference:  event.Reference,
		Attributes: event.Attributes,
		OccurredAt: event.OccurredAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing %s job: %w", event.Kind, err)
	}
	return nil
}
