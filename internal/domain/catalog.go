package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is the quantity at or below which a product is reported as low stock.
const DefaultLowStockThreshold int64 = 5

// Product is a catalog entry. Quantity is owned by the inventory ledger.
type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	Price     decimal.Decimal
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a catalog entry with an opening quantity.
func NewProduct(id, tenantID, sku, name string, price decimal.Decimal, quantity int64) Product {
	now := time.Now().UTC()
	return Product{
		ID:        id,
		TenantID:  tenantID,
		SKU:       sku,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StockLine is a requested quantity of a single product.
type StockLine struct {
	ProductID string
	Quantity  int64
}

// Customer is a tenant's customer record. Code is the formatted CUST sequence.
type Customer struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer creates a customer record.
func NewCustomer(id, tenantID, code, name, phone, email, address string) Customer {
	now := time.Now().UTC()
	return Customer{
		ID:        id,
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Phone:     phone,
		Email:     email,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
