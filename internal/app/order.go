package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// DefaultLockTTL bounds how long a status change may hold its order lock.
const DefaultLockTTL = 10 * time.Second

// OrderLine is a requested product and quantity.
type OrderLine struct {
	ProductID string `validate:"required"`
	Quantity  int64  `validate:"gte=1"`
}

// CreateOrderCommand is the input of order creation. An empty Status means Completed.
type CreateOrderCommand struct {
	TenantID      string      `validate:"required"`
	CustomerID    string      `validate:"required"`
	Items         []OrderLine `validate:"required,min=1,dive"`
	PaymentMethod string      `validate:"required,oneof=Cash Card UPI Other"`
	Status        string
}

// CreatedOrder is the persisted order plus the tenant's low-stock products after it was placed.
type CreatedOrder struct {
	Order    domain.Order
	LowStock []domain.Product
}

// OrderServiceDeps wires the collaborators of an OrderService.
type OrderServiceDeps struct {
	UnitOfWork domain.UnitOfWork
	Orders     domain.OrderRepository
	Products   domain.ProductRepository
	Customers  domain.CustomerRepository
	Ledger     domain.InventoryLedger
	Sequences  domain.SequenceAllocator
	Validator  domain.TransitionValidator
	Publisher  domain.EventPublisher

	// Locker is optional; when set, status changes hold a per-order lock.
	Locker  domain.Locker
	LockTTL time.Duration

	LowStockThreshold int64
	Logger            *zap.Logger
}

// OrderService builds orders and drives them through their lifecycle.
type OrderService struct {
	uow       domain.UnitOfWork
	orders    domain.OrderRepository
	products  domain.ProductRepository
	customers domain.CustomerRepository
	ledger    domain.InventoryLedger
	sequences domain.SequenceAllocator
	validator domain.TransitionValidator
	publisher domain.EventPublisher
	locker    domain.Locker
	lockTTL   time.Duration
	threshold int64
	logger    *zap.Logger
}

// NewOrderService wires dependencies into an OrderService.
func NewOrderService(deps OrderServiceDeps) (*OrderService, error) {
	switch {
	case deps.UnitOfWork == nil:
		return nil, errors.New("order service: unit of work is required")
	case deps.Orders == nil || deps.Products == nil || deps.Customers == nil:
		return nil, errors.New("order service: repositories are required")
	case deps.Ledger == nil:
		return nil, errors.New("order service: inventory ledger is required")
	case deps.Sequences == nil:
		return nil, errors.New("order service: sequence allocator is required")
	case deps.Validator == nil:
		return nil, errors.New("order service: transition validator is required")
	case deps.Publisher == nil:
		return nil, errors.New("order service: event publisher is required")
	}

	svc := &OrderService{
		uow:       deps.UnitOfWork,
		orders:    deps.Orders,
		products:  deps.Products,
		customers: deps.Customers,
		ledger:    deps.Ledger,
		sequences: deps.Sequences,
		validator: deps.Validator,
		publisher: deps.Publisher,
		locker:    deps.Locker,
		lockTTL:   deps.LockTTL,
		threshold: deps.LowStockThreshold,
		logger:    deps.Logger,
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = DefaultLockTTL
	}
	if svc.threshold <= 0 {
		svc.threshold = domain.DefaultLowStockThreshold
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

// Create validates the command, snapshots prices, consumes stock for completed
// orders and persists the order under a freshly minted order number. Everything
// happens in one transaction: a rejected order changes no stock and consumes no number.
func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (CreatedOrder, error) {
	if err := validateCommand(cmd); err != nil {
		return CreatedOrder{}, err
	}

	status := domain.StatusCompleted
	if cmd.Status != "" {
		var err error
		if status, err = domain.ParseStatus(cmd.Status); err != nil {
			return CreatedOrder{}, err
		}
	}
	effect, err := domain.InitialEffect(status)
	if err != nil {
		return CreatedOrder{}, err
	}

	var order domain.Order
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetByID(ctx, cmd.TenantID, cmd.CustomerID); err != nil {
			return err
		}

		items, err := s.snapshot(ctx, cmd.TenantID, cmd.Items)
		if err != nil {
			return err
		}

		if effect == domain.EffectConsume {
			if err := s.ledger.BatchTryDecrement(ctx, cmd.TenantID, stockLines(cmd.Items)); err != nil {
				return err
			}
		}

		return withFreshCode(ctx, s.sequences, cmd.TenantID, domain.SeriesOrder, func(number string) error {
			order = domain.NewOrder(generateID(), cmd.TenantID, number, cmd.CustomerID, items,
				domain.PaymentMethod(cmd.PaymentMethod), status)
			return s.orders.Create(ctx, order)
		})
	})
	if err != nil {
		return CreatedOrder{}, err
	}

	s.logger.Info("order created",
		zap.String("tenant_id", order.TenantID),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
		zap.String("total", order.TotalAmount.String()),
	)
	s.publish(ctx, domain.NewLedgerEvent(domain.KindOrderCreated, order.TenantID, order.OrderNumber, map[string]string{
		"customer_id": order.CustomerID,
		"status":      string(order.Status),
		"total":       order.TotalAmount.String(),
	}))

	low, err := lowStock(ctx, s.products, order.TenantID, s.threshold)
	if err != nil {
		s.logger.Warn("low stock lookup failed", zap.String("tenant_id", order.TenantID), zap.Error(err))
		return CreatedOrder{Order: order}, nil
	}
	if effect == domain.EffectConsume {
		s.publishLowStock(ctx, order, low)
	}

	return CreatedOrder{Order: order, LowStock: low}, nil
}

// snapshot loads every product of the order and freezes its current price.
func (s *OrderService) snapshot(ctx context.Context, tenantID string, lines []OrderLine) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.GetByID(ctx, tenantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID:       product.ID,
			Quantity:        line.Quantity,
			PriceAtPurchase: product.Price,
		})
	}
	return items, nil
}

// ChangeStatus moves an order to a new status and applies the inventory effect of
// the transition in the same transaction. Requesting the current status is a no-op.
func (s *OrderService) ChangeStatus(ctx context.Context, tenantID, orderNumber, status string) (domain.StatusChange, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return domain.StatusChange{}, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lockKey(tenantID, orderNumber), s.lockTTL)
		if err != nil {
			return domain.StatusChange{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("releasing order lock failed", zap.String("order_number", orderNumber), zap.Error(err))
			}
		}()
	}

	var change domain.StatusChange
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByNumber(ctx, tenantID, orderNumber)
		if err != nil {
			return err
		}
		change = domain.StatusChange{Order: order, Previous: order.Status}

		next, err := s.validator.Validate(ctx, order.Status, target)
		if err != nil {
			return err
		}
		if next == order.Status {
			return nil
		}

		effect, err := domain.EffectOf(order.Status, next)
		if err != nil {
			return err
		}

		// The conditional update is the gate: of two concurrent requests for the
		// same transition only one sees the expected previous status.
		if err := s.orders.UpdateStatus(ctx, tenantID, orderNumber, order.Status, next); err != nil {
			return err
		}

		switch effect {
		case domain.EffectConsume:
			if err := s.ledger.BatchTryDecrement(ctx, tenantID, order.StockLines()); err != nil {
				return err
			}
		case domain.EffectRestock:
			missing, err := s.restock(ctx, tenantID, order)
			if err != nil {
				return err
			}
			change.Unrestocked = missing
		}

		change.Order.Status = next
		change.Order.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.StatusChange{}, err
	}

	if change.Previous != change.Order.Status {
		s.logger.Info("order status changed",
			zap.String("tenant_id", tenantID),
			zap.String("order_number", orderNumber),
			zap.String("from", string(change.Previous)),
			zap.String("to", string(change.Order.Status)),
		)
		s.publish(ctx, domain.NewLedgerEvent(domain.KindOrderStatusChanged, tenantID, orderNumber, map[string]string{
			"from": string(change.Previous),
			"to":   string(change.Order.Status),
		}))
	}
	return change, nil
}

// restock returns each line to stock. Products deleted since the order was placed
// are skipped and reported.
func (s *OrderService) restock(ctx context.Context, tenantID string, order domain.Order) ([]string, error) {
	var missing []string
	for _, item := range order.Items {
		_, err := s.ledger.Increment(ctx, tenantID, item.ProductID, item.Quantity)
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn("restock skipped for missing product",
				zap.String("tenant_id", tenantID),
				zap.String("order_number", order.OrderNumber),
				zap.String("product_id", item.ProductID),
				zap.Int64("quantity", item.Quantity),
			)
			missing = append(missing, item.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("restocking %s: %w", item.ProductID, err)
		}
	}
	return missing, nil
}

// Get returns an order by its number.
func (s *OrderService) Get(ctx context.Context, tenantID, orderNumber string) (domain.Order, error) {
	return s.orders.GetByNumber(ctx, tenantID, orderNumber)
}

// List returns the tenant's orders matching the filter.
func (s *OrderService) List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	return s.orders.List(ctx, tenantID, filter)
}

// ListByCustomer returns the orders of a single customer, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, tenantID, customerID string, filter domain.OrderFilter) ([]domain.Order, error) {
	if _, err := s.customers.GetByID(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	filter.CustomerID = customerID
	return s.orders.List(ctx, tenantID, filter)
}

// publish emits an event for a committed change. The change stands even if
// the event is lost, so failures are logged rather than returned.
func (s *OrderService) publish(ctx context.Context, event domain.LedgerEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publishing ledger event failed",
			zap.String("kind", string(event.Kind)),
			zap.String("tenant_id", event.TenantID),
			zap.String("reference", event.Reference),
			zap.Error(err),
		)
	}
}

// publishLowStock emits stock.low for the order's products that are now at or below the threshold.
func (s *OrderService) publishLowStock(ctx context.Context, order domain.Order, low []domain.Product) {
	inOrder := make(map[string]bool, len(order.Items))
	for _, item := range order.Items {
		inOrder[item.ProductID] = true
	}
	for _, p := range low {
		if !inOrder[p.ID] {
			continue
		}
		s.publish(ctx, domain.NewLedgerEvent(domain.KindStockLow, order.TenantID, p.ID, map[string]string{
			"sku":      p.SKU,
			"quantity": strconv.FormatInt(p.Quantity, 10),
		}))
	}
}

func stockLines(lines []OrderLine) []domain.StockLine {
	out := make([]domain.StockLine, len(lines))
	for i, l := range lines {
		out[i] = domain.StockLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

func lockKey(tenantID, orderNumber string) string {
	return "order:" + tenantID + ":" + orderNumber
}
