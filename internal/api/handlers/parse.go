package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/card-price-tracker/pkg/query"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// ParseInput is the request body for the parse endpoint.
type ParseInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Free-text card query" example:"2023 Panini Prizm CJ Stroud #339 Silver PSA 10"`
	}
}

// ParseOutput is the normalized form of a free-text query.
type ParseOutput struct {
	Body struct {
		Query    domain.StructuredQuery   `json:"query"             doc:"Structured query the search would use"`
		Locked   domain.LockedConstraints `json:"locked"            doc:"Fields stated explicitly in the text"`
		Tokens   []string                 `json:"tokens"            doc:"Normalized tokens"`
		Describe string                   `json:"description"       doc:"Human-readable form of the query"`
		Line     string                   `json:"line,omitempty"    doc:"Detected product line slug"`
	}
}

// Parse normalizes a free-text query without searching.
func Parse(_ context.Context, input *ParseInput) (*ParseOutput, error) {
	p := query.Parse(input.Body.Query)

	out := &ParseOutput{}
	out.Body.Query = p.Query
	out.Body.Locked = p.Locked
	out.Body.Tokens = p.Tokens
	if out.Body.Tokens == nil {
		out.Body.Tokens = []string{}
	}
	out.Body.Describe = p.Query.Describe()
	out.Body.Line = p.Query.Line
	return out, nil
}

// RegisterParseRoutes registers the parse endpoint with the Huma API.
func RegisterParseRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "parse-query",
		Method:      http.MethodPost,
		Path:        "/api/v1/parse",
		Summary:     "Parse a card query",
		Description: "Returns the structured query and locked constraints derived from free text.",
		Tags:        []string{"lookup"},
	}, Parse)
}
