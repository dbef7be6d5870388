package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// ProductResponse is the API representation of a product.
type ProductResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	SKU       string `json:"sku" doc:"Stock keeping unit, unique per tenant"`
	Name      string `json:"name"`
	Price     string `json:"price" doc:"Decimal price"`
	Quantity  int64  `json:"quantity" doc:"Units in stock"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price.String(),
		Quantity:  p.Quantity,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	resp := make([]ProductResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	return resp
}

// --- Create Product ---

// CreateProductInput is the request to add a product to the catalog.
type CreateProductInput struct {
	PrincipalHeaders
	Body struct {
		SKU      string `json:"sku" minLength:"1" maxLength:"100" doc:"Stock keeping unit"`
		Name     string `json:"name" minLength:"1" maxLength:"255"`
		Price    string `json:"price" pattern:"^[0-9]+(\\.[0-9]+)?$" doc:"Decimal price, e.g. 12.50"`
		Quantity int64  `json:"quantity,omitempty" minimum:"0" doc:"Opening stock"`
	}
}

// ProductOutput wraps a single product.
type ProductOutput struct {
	Body ProductResponse
}

// --- Get / Delete Product ---

// ProductPathInput addresses one product by ID.
type ProductPathInput struct {
	PrincipalHeaders
	ID string `path:"id" doc:"Product ID"`
}

// --- List Products ---

// ListProductsInput pages through the tenant catalog.
type ListProductsInput struct {
	PrincipalHeaders
	LowStock bool `query:"low_stock" required:"false" doc:"Only products at or below the low-stock threshold"`
	Limit    int  `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int  `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

// ListProductsOutput is one page of products.
type ListProductsOutput struct {
	Body []ProductResponse
}

// --- Receive Stock ---

// ReceiveStockInput adds received units to a product.
type ReceiveStockInput struct {
	PrincipalHeaders
	ID   string `path:"id" doc:"Product ID"`
	Body struct {
		Amount int64 `json:"amount" minimum:"1" doc:"Units received"`
	}
}

// ReceiveStockOutput reports the stock level after a receipt.
type ReceiveStockOutput struct {
	Body struct {
		ProductID string `json:"product_id"`
		Quantity  int64  `json:"quantity" doc:"Units in stock after the receipt"`
	}
}

func registerProducts(api huma.API, svc *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-product",
		Method:        http.MethodPost,
		Path:          basePath + "/products",
		Summary:       "Add a product to the catalog",
		Tags:          []string{"Products"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateProductInput) (*ProductOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		price, err := decimal.NewFromString(input.Body.Price)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid price", err)
		}

		product, err := svc.CreateProduct(ctx, app.CreateProductCommand{
			TenantID: tenantID,
			SKU:      input.Body.SKU,
			Name:     input.Body.Name,
			Price:    price,
			Quantity: input.Body.Quantity,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: toProductResponse(product)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        basePath + "/products",
		Summary:     "List products",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *ListProductsInput) (*ListProductsOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		filter := domain.ProductFilter{Limit: input.Limit, Offset: input.Offset}
		if input.LowStock {
			threshold := svc.Threshold()
			filter.MaxQuantity = &threshold
		}

		products, err := svc.ListProducts(ctx, tenantID, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListProductsOutput{Body: toProductResponses(products)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        basePath + "/products/{id}",
		Summary:     "Get a product by ID",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *ProductPathInput) (*ProductOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		product, err := svc.GetProduct(ctx, tenantID, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: toProductResponse(product)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Method:        http.MethodDelete,
		Path:          basePath + "/products/{id}",
		Summary:       "Remove a product from the catalog",
		Tags:          []string{"Products"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ProductPathInput) (*struct{}, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		if err := svc.DeleteProduct(ctx, tenantID, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "receive-stock",
		Method:      http.MethodPost,
		Path:        basePath + "/products/{id}/stock",
		Summary:     "Record received stock",
		Tags:        []string{"Products"},
	}, func(ctx context.Context, input *ReceiveStockInput) (*ReceiveStockOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		quantity, err := svc.ReceiveStock(ctx, tenantID, input.ID, input.Body.Amount)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ReceiveStockOutput{}
		out.Body.ProductID = input.ID
		out.Body.Quantity = quantity
		return out, nil
	})
}
