package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/retailledger/internal/app"
)

// NextSequenceInput names the series to draw the next number from.
type NextSequenceInput struct {
	PrincipalHeaders
	Series string `path:"series" pattern:"^[a-z0-9_]+$" doc:"Counter name, e.g. order or customer"`
}

// NextSequenceOutput holds an allocated number and its formatted code.
type NextSequenceOutput struct {
	Body struct {
		Series string `json:"series"`
		Value  int64  `json:"value" doc:"Allocated number, starting at 1"`
		Code   string `json:"code" doc:"Formatted identifier, e.g. INV-0007-ab12"`
	}
}

func registerSequences(api huma.API, svc *app.SequenceService) {
	huma.Register(api, huma.Operation{
		OperationID: "next-sequence",
		Method:      http.MethodPost,
		Path:        basePath + "/sequences/{series}/next",
		Summary:     "Allocate the next number of a series",
		Tags:        []string{"Sequences"},
	}, func(ctx context.Context, input *NextSequenceInput) (*NextSequenceOutput, error) {
		tenantID, err := input.tenant()
		if err != nil {
			return nil, err
		}

		code, value, err := svc.NextCode(ctx, tenantID, input.Series)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &NextSequenceOutput{}
		out.Body.Series = input.Series
		out.Body.Value = value
		out.Body.Code = code
		return out, nil
	})
}
