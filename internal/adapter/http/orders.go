package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// OrderItemResponse is a line of an order.
type OrderItemResponse struct {
	ProductID       string `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase" doc:"Catalog price when the order was placed"`
	Subtotal        string `json:"subtotal"`
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID            string              `json:"id" doc:"Unique identifier"`
	OrderNumber   string              `json:"order_number" doc:"Invoice number, e.g. INV-0001-ab12"`
	CustomerID    string              `json:"customer_id"`
	Items         []OrderItemResponse `json:"items"`
	TotalAmount   string              `json:"total_amount"`
	Status        string              `json:"status" enum:"Pending,Completed,Cancelled"`
	PaymentMethod string              `json:"payment_method" enum:"Cash,Card,UPI,Other"`
	CreatedAt     string              `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt     string              `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
			Subtotal:        it.Subtotal().StringFixed(2),
		}
	}
	return OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Items:         items,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

// --- Create Order ---

// OrderLineRequest asks for a quantity of one product.
type OrderLineRequest struct {
	ProductID string `json:"product_id" minLength:"1"`
	Quantity  int64  `json:"quantity" minimum:"1"`
}

// CreateOrderInput places an order for a customer.
type CreateOrderInput struct {
	PrincipalHeaders
	Body struct {
		CustomerID    string             `json:"customer_id" minLength:"1"`
		Items         []OrderLineRequest `json:"items" minItems:"1"`
		PaymentMethod string             `json:"payment_method" enum:"Cash,Card,UPI,Other"`
		Status        string             `json:"status,omitempty" doc:"Initial status, Completed when omitted"`
	}
}

// CreateOrderOutput returns the placed order and any low-stock warnings.
type CreateOrderOutput struct {
	Body struct {
		Order         OrderResponse     `json:"order"`
		LowStockAlert []ProductResponse `json:"low_stock_alert" doc:"Products at or below the low-stock threshold after this order"`
	}
}

// --- Get Order ---

// GetOrderInput addresses one order by its order number.
type GetOrderInput struct {
	PrincipalHeaders
	OrderNumber string `path:"orderNumber" doc:"Order number"`
}

// OrderOutput wraps a single order.
type OrderOutput struct {
	Body OrderResponse
}

// --- List Orders ---

// ListOrdersInput pages through the tenant orders, filtered by status or customer.
type ListOrdersInput struct {
	PrincipalHeaders
	Status     string `query:"status" required:"false" doc:"Filter by status"`
	CustomerID string `query:"customer_id" required:"false" doc:"Filter by customer"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

// ListOrdersOutput is one page of orders.
type ListOrdersOutput struct {
	Body []OrderResponse
}

// --- Change Status ---

// ChangeStatusInput moves an order to a new status.
type ChangeStatusInput struct {
	PrincipalHeaders
	OrderNumber string `path:"orderNumber" doc:"Order number"`
	Body        struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

// ChangeStatusOutput reports the order after the transition.
type ChangeStatusOutput struct {
	Body struct {
		Order          OrderResponse `json:"order"`
		PreviousStatus string        `json:"previous_status"`
		Unrestocked    []string      `json:"unrestocked,omitempty" doc:"Products that no longer exist and were not restocked"`
	}
}

func registerOrders(api huma.API, svc *app.OrderService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Method:        http.MethodPost,
		Path:          basePath + "/orders",
		Summary:       "Place an order",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateOrderInput) (*CreateOrderOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		lines := make([]app.OrderLine, len(input.Body.Items))
		for i, it := range input.Body.Items {
			lines[i] = app.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
		}

		created, err := svc.Create(ctx, app.CreateOrderCommand{
			TenantID:      tenantID,
			CustomerID:    input.Body.CustomerID,
			Items:         lines,
			PaymentMethod: input.Body.PaymentMethod,
			Status:        input.Body.Status,
		})
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &CreateOrderOutput{}
		out.Body.Order = toOrderResponse(created.Order)
		out.Body.LowStockAlert = toProductResponses(created.LowStock)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        basePath + "/orders",
		Summary:     "List orders",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		filter := domain.OrderFilter{
			CustomerID: input.CustomerID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			status, err := domain.ParseStatus(input.Status)
			if err != nil {
				return nil, toHumaError(err)
			}
			filter.Status = &status
		}

		orders, err := svc.List(ctx, tenantID, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOrdersOutput{Body: toOrderResponses(orders)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        basePath + "/orders/{orderNumber}",
		Summary:     "Get an order by number",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*OrderOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		order, err := svc.Get(ctx, tenantID, input.OrderNumber)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-order-status",
		Method:      http.MethodPatch,
		Path:        basePath + "/orders/{orderNumber}/status",
		Summary:     "Move an order to another status",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ChangeStatusInput) (*ChangeStatusOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		change, err := svc.ChangeStatus(ctx, tenantID, input.OrderNumber, input.Body.Status)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ChangeStatusOutput{}
		out.Body.Order = toOrderResponse(change.Order)
		out.Body.PreviousStatus = string(change.Previous)
		out.Body.Unrestocked = change.Unrestocked
		return out, nil
	})
}
