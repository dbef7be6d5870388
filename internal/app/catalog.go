package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// CreateProductCommand describes a new catalog entry with its opening stock.
type CreateProductCommand struct {
	TenantID string `validate:"required"`
	SKU      string `validate:"required"`
	Name     string `validate:"required"`
	Price    decimal.Decimal
	Quantity int64 `validate:"gte=0"`
}

// CatalogService manages products and stock receipts.
type CatalogService struct {
	products  domain.ProductRepository
	ledger    domain.InventoryLedger
	threshold int64
	logger    *zap.Logger
}

// NewCatalogService creates a catalog service. A non-positive threshold falls
// back to domain.DefaultLowStockThreshold.
func NewCatalogService(products domain.ProductRepository, ledger domain.InventoryLedger, threshold int64, logger *zap.Logger) *CatalogService {
	if threshold <= 0 {
		threshold = domain.DefaultLowStockThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{products: products, ledger: ledger, threshold: threshold, logger: logger}
}

// CreateProduct adds a product to the tenant's catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Product{}, err
	}
	if cmd.Price.IsNegative() {
		return domain.Product{}, &domain.ValidationError{Field: "Price", Reason: "must not be negative"}
	}

	product := domain.NewProduct(generateID(), cmd.TenantID, cmd.SKU, cmd.Name, cmd.Price, cmd.Quantity)
	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, fmt.Errorf("creating product: %w", err)
	}
	return product, nil
}

// GetProduct returns a product of the tenant.
func (s *CatalogService) GetProduct(ctx context.Context, tenantID, id string) (domain.Product, error) {
	return s.products.GetByID(ctx, tenantID, id)
}

// ListProducts returns the tenant's products matching the filter.
func (s *CatalogService) ListProducts(ctx context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, tenantID, filter)
}

// DeleteProduct removes a product. Orders keep their line items and price snapshots.
func (s *CatalogService) DeleteProduct(ctx context.Context, tenantID, id string) error {
	return s.products.Delete(ctx, tenantID, id)
}

// ReceiveStock adds delivered units to a product and returns the new quantity.
func (s *CatalogService) ReceiveStock(ctx context.Context, tenantID, productID string, amount int64) (int64, error) {
	quantity, err := s.ledger.Increment(ctx, tenantID, productID, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Info("stock received",
		zap.String("tenant_id", tenantID),
		zap.String("product_id", productID),
		zap.Int64("amount", amount),
		zap.Int64("quantity", quantity),
	)
	return quantity, nil
}

// LowStock returns products at or below the configured threshold, lowest first.
func (s *CatalogService) LowStock(ctx context.Context, tenantID string) ([]domain.Product, error) {
	return lowStock(ctx, s.products, tenantID, s.threshold)
}

// Threshold is the low-stock quantity limit in effect.
func (s *CatalogService) Threshold() int64 { return s.threshold }

func lowStock(ctx context.Context, products domain.ProductRepository, tenantID string, threshold int64) ([]domain.Product, error) {
	limit := threshold
	out, err := products.List(ctx, tenantID, domain.ProductFilter{MaxQuantity: &limit})
	if err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}
	return out, nil
}
