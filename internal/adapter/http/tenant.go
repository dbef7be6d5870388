package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ResolveTenantInput carries the caller headers for GET /tenants/current.
type ResolveTenantInput struct {
	PrincipalHeaders
}

// ResolveTenantOutput reports the tenant the headers resolved to.
type ResolveTenantOutput struct {
	Body struct {
		TenantID    string `json:"tenant_id" doc:"Tenant all operations of this principal are scoped to"`
		PrincipalID string `json:"principal_id"`
		Role        string `json:"role"`
	}
}

func registerTenant(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-tenant",
		Method:      http.MethodGet,
		Path:        basePath + "/tenant",
		Summary:     "Resolve the tenant of the calling principal",
		Tags:        []string{"Tenant"},
	}, func(ctx context.Context, input *ResolveTenantInput) (*ResolveTenantOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}
		out := &ResolveTenantOutput{}
		out.Body.TenantID = tenantID
		out.Body.PrincipalID = input.PrincipalID
		out.Body.Role = input.PrincipalRole
		return out, nil
	})
}
