package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// CustomerResponse is the API representation of a customer.
type CustomerResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Code      string `json:"code" doc:"Customer code, e.g. CUST-0001-ab12"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

// --- Create Customer ---

// CreateCustomerInput is the request to register a customer.
type CreateCustomerInput struct {
	PrincipalHeaders
	Body struct {
		Name    string `json:"name" minLength:"1" maxLength:"255"`
		Phone   string `json:"phone,omitempty" maxLength:"32"`
		Email   string `json:"email,omitempty" maxLength:"255"`
		Address string `json:"address,omitempty"`
	}
}

// CustomerOutput wraps a single customer.
type CustomerOutput struct {
	Body CustomerResponse
}

// --- Get Customer ---

// GetCustomerInput addresses one customer by ID.
type GetCustomerInput struct {
	PrincipalHeaders
	ID string `path:"id" doc:"Customer ID"`
}

// --- List Customers ---

// ListCustomersInput pages through the tenant customers.
type ListCustomersInput struct {
	PrincipalHeaders
	Search string `query:"search" required:"false" doc:"Match on name, phone or code"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

// ListCustomersOutput is one page of customers.
type ListCustomersOutput struct {
	Body []CustomerResponse
}

// --- Customer Orders ---

// ListCustomerOrdersInput pages through one customer's orders.
type ListCustomerOrdersInput struct {
	PrincipalHeaders
	ID     string `path:"id" doc:"Customer ID"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

func registerCustomers(api huma.API, svc *app.CustomerService, orders *app.OrderService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-customer",
		Method:        http.MethodPost,
		Path:          basePath + "/customers",
		Summary:       "Register a customer",
		Tags:          []string{"Customers"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCustomerInput) (*CustomerOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		customer, err := svc.Create(ctx, app.CreateCustomerCommand{
			TenantID: tenantID,
			Name:     input.Body.Name,
			Phone:    input.Body.Phone,
			Email:    input.Body.Email,
			Address:  input.Body.Address,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CustomerOutput{Body: toCustomerResponse(customer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-customers",
		Method:      http.MethodGet,
		Path:        basePath + "/customers",
		Summary:     "List customers",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *ListCustomersInput) (*ListCustomersOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		customers, err := svc.List(ctx, tenantID, domain.CustomerFilter{
			Search: input.Search,
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]CustomerResponse, len(customers))
		for i, c := range customers {
			resp[i] = toCustomerResponse(c)
		}
		return &ListCustomersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-customer",
		Method:      http.MethodGet,
		Path:        basePath + "/customers/{id}",
		Summary:     "Get a customer by ID",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *GetCustomerInput) (*CustomerOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		customer, err := svc.Get(ctx, tenantID, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CustomerOutput{Body: toCustomerResponse(customer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-customer-orders",
		Method:      http.MethodGet,
		Path:        basePath + "/customers/{id}/orders",
		Summary:     "List the orders of a customer",
		Tags:        []string{"Customers", "Orders"},
	}, func(ctx context.Context, input *ListCustomerOrdersInput) (*ListOrdersOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		list, err := orders.ListByCustomer(ctx, tenantID, input.ID, domain.OrderFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOrdersOutput{Body: toOrderResponses(list)}, nil
	})
}
