package http

import (
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/domain"
)

const basePath = "/api/v1"

// Services bundles the application services exposed over HTTP.
type Services struct {
	Orders    *app.OrderService
	Catalog   *app.CatalogService
	Customers *app.CustomerService
	Sequences *app.SequenceService
}

// Register adds all ledger API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerTenant(api)
	registerSequences(api, svc.Sequences)
	registerProducts(api, svc.Catalog)
	registerCustomers(api, svc.Customers, svc.Orders)
	registerOrders(api, svc.Orders)
}

// PrincipalHeaders carries the acting identity set by the authenticating gateway.
// Every input embeds it; operations are scoped to the tenant it resolves to.
type PrincipalHeaders struct {
	PrincipalID   string `header:"X-Principal-ID" required:"true" doc:"Authenticated account id"`
	PrincipalRole string `header:"X-Principal-Role" required:"true" doc:"owner, staff or admin"`
	OwnerID       string `header:"X-Principal-Owner" required:"false" doc:"Owning account of a staff principal"`
}

func (h PrincipalHeaders) principal() domain.Principal {
	return domain.Principal{
		ID:      h.PrincipalID,
		Role:    domain.Role(h.PrincipalRole),
		OwnerID: h.OwnerID,
	}
}

func (h PrincipalHeaders) tenant() (string, error) {
	tenantID, err := domain.ResolveTenant(h.principal())
	if err != nil {
		return "", toHumaError(err)
	}
	return tenantID, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorizedRole), errors.Is(err, domain.ErrDanglingStaffAccount):
		return huma.Error403Forbidden(err.Error())

	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return huma.Error404NotFound(err.Error())

	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateIdentifier),
		errors.Is(err, domain.ErrStatusConflict):
		return huma.Error409Conflict(err.Error())

	case errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error422UnprocessableEntity(err.Error())

	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
