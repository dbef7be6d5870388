package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus accepts the three enumerated statuses, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Event is the lifecycle trigger that moves an order towards a target status.
type Event string

const (
	EventHold     Event = "hold"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// EventFor returns the trigger that targets the given status.
func EventFor(target Status) Event {
	switch target {
	case StatusPending:
		return EventHold
	case StatusCompleted:
		return EventComplete
	default:
		return EventCancel
	}
}

// Effect is the inventory side effect of a transition.
type Effect string

const (
	EffectNone    Effect = "none"
	EffectConsume Effect = "consume"
	EffectRestock Effect = "restock"
)

// Transition defines a valid state change and the inventory effect it carries.
// Src == Dst entries are accepted as no-ops.
type Transition struct {
	Event  Event
	Src    Status
	Dst    Status
	Effect Effect
}

// Transitions is the order lifecycle. Cancelled is terminal.
var Transitions = []Transition{
	{Event: EventHold, Src: StatusPending, Dst: StatusPending, Effect: EffectNone},
	{Event: EventComplete, Src: StatusPending, Dst: StatusCompleted, Effect: EffectConsume},
	{Event: EventComplete, Src: StatusCompleted, Dst: StatusCompleted, Effect: EffectNone},
	{Event: EventCancel, Src: StatusPending, Dst: StatusCancelled, Effect: EffectNone},
	{Event: EventCancel, Src: StatusCompleted, Dst: StatusCancelled, Effect: EffectRestock},
}

// InitialEffect returns the inventory effect of creating an order directly in the given status.
func InitialEffect(s Status) (Effect, error) {
	switch s {
	case StatusPending:
		return EffectNone, nil
	case StatusCompleted:
		return EffectConsume, nil
	case StatusCancelled:
		return "", &TransitionError{To: s}
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// EffectOf looks up the inventory effect of moving from src to dst.
func EffectOf(src, dst Status) (Effect, error) {
	for _, t := range Transitions {
		if t.Src == src && t.Dst == dst {
			return t.Effect, nil
		}
	}
	return "", &TransitionError{From: src, To: dst}
}

// PaymentMethod is how the customer settled the order.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentCard  PaymentMethod = "Card"
	PaymentUPI   PaymentMethod = "UPI"
	PaymentOther PaymentMethod = "Other"
)

// OrderItem is a line of an order. PriceAtPurchase is the catalog price when the order was built.
type OrderItem struct {
	ProductID       string
	Quantity        int64
	PriceAtPurchase decimal.Decimal
}

// Subtotal is Quantity × PriceAtPurchase.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is an immutable sale record; only Status changes after creation.
type Order struct {
	ID            string
	TenantID      string
	OrderNumber   string
	CustomerID    string
	Items         []OrderItem
	TotalAmount   decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder assembles an order and computes its total once from the price snapshots.
func NewOrder(id, tenantID, orderNumber, customerID string, items []OrderItem, payment PaymentMethod, status Status) Order {
	now := time.Now().UTC()
	lines := make([]OrderItem, len(items))
	copy(lines, items)
	return Order{
		ID:            id,
		TenantID:      tenantID,
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		Items:         lines,
		TotalAmount:   OrderTotal(lines),
		Status:        status,
		PaymentMethod: payment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// OrderTotal sums the subtotals of the given lines.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// StockLines converts order items into ledger lines.
func (o Order) StockLines() []StockLine {
	out := make([]StockLine, len(o.Items))
	for i, it := range o.Items {
		out[i] = StockLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// StatusChange is the outcome of a status transition. Unrestocked lists products that
// no longer exist and therefore could not be restocked on cancellation.
type StatusChange struct {
	Order       Order
	Previous    Status
	Unrestocked []string
}
