package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/engine"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// Looker prices a card.
type Looker interface {
	Lookup(ctx context.Context, req domain.LookupRequest) (*domain.LookupResult, error)
}

// LookupHandler serves card lookups.
type LookupHandler struct {
	engine Looker
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(e Looker) *LookupHandler {
	return &LookupHandler{engine: e}
}

// LookupInput is the request body for the lookup endpoint.
type LookupInput struct {
	Body domain.LookupRequest
}

// LookupQueryInput is the query-string form of a free-text lookup.
type LookupQueryInput struct {
	Q     string `query:"q"     required:"true" minLength:"1" doc:"Free-text card query" example:"2023 Prizm CJ Stroud Silver PSA 10"`
	Limit int    `query:"limit" minimum:"0"   maximum:"100"            doc:"Maximum items returned"`
}

// LookupOutput is the response body for the lookup endpoints.
type LookupOutput struct {
	Body *domain.LookupResult
}

// Lookup prices the card described by the request body.
func (h *LookupHandler) Lookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	return h.lookup(ctx, input.Body)
}

// LookupQuery prices a free-text query.
func (h *LookupHandler) LookupQuery(ctx context.Context, input *LookupQueryInput) (*LookupOutput, error) {
	return h.lookup(ctx, domain.LookupRequest{Query: input.Q, Limit: input.Limit})
}

func (h *LookupHandler) lookup(ctx context.Context, req domain.LookupRequest) (*LookupOutput, error) {
	res, err := h.engine.Lookup(ctx, req)
	if err != nil {
		return nil, lookupError(err)
	}
	return &LookupOutput{Body: res}, nil
}

// lookupError maps engine errors onto HTTP statuses. No-data conditions
// never reach here; they come back as an unavailable estimate.
func lookupError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNoPlayer):
		return huma.Error400BadRequest("lookup needs a player name, in the player field or the free-text query")
	case ebay.IsConfigError(err):
		return huma.Error503ServiceUnavailable("marketplace search is not configured", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return huma.Error504GatewayTimeout("lookup did not finish in time")
	default:
		return huma.Error500InternalServerError("lookup failed", err)
	}
}

// RegisterLookupRoutes registers lookup endpoints with the Huma API.
func RegisterLookupRoutes(api huma.API, h *LookupHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "lookup-card",
		Method:      http.MethodPost,
		Path:        "/api/v1/lookup",
		Summary:     "Look up a card's market value",
		Description: "Searches active listings for the card, ranks them by relevance and estimates a sale range. " +
			"Missing data yields an unavailable estimate with a reason, not an error.",
		Tags:   []string{"lookup"},
		Errors: []int{http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}, h.Lookup)

	huma.Register(api, huma.Operation{
		OperationID: "lookup-card-query",
		Method:      http.MethodGet,
		Path:        "/api/v1/lookup",
		Summary:     "Look up a card from free text",
		Description: "Same as the POST form with only the free-text query set.",
		Tags:        []string{"lookup"},
		Errors:      []int{http.StatusBadRequest, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}, h.LookupQuery)
}
