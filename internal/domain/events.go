package domain

import "time"

// EventKind identifies what happened in the ledger.
type EventKind string

const (
	KindOrderCreated       EventKind = "order.created"
	KindOrderStatusChanged EventKind = "order.status_changed"
	KindStockLow           EventKind = "stock.low"
)

// LedgerEvent is a notification emitted after a committed change.
type LedgerEvent struct {
	Kind       EventKind
	TenantID   string
	Reference  string
	Attributes map[string]string
	OccurredAt time.Time
}

// NewLedgerEvent stamps an event with the current time.
func NewLedgerEvent(kind EventKind, tenantID, reference string, attrs map[string]string) LedgerEvent {
	return LedgerEvent{
		Kind:       kind,
		TenantID:   tenantID,
		Reference:  reference,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}
