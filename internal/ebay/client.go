// Package ebay provides the eBay Browse API client, the OAuth token exchange
// and the backoff controller shared by every outbound listing source. The
// client is abstracted behind interfaces for testability.
package ebay

import (
	"context"

	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// SearchRequest defines the parameters for an eBay search.
type SearchRequest struct {
	Query      string
	CategoryID string
	Limit      int
	Offset     int
	Filters    map[string]string
}

// SearchResponse holds the results of an eBay search.
type SearchResponse struct {
	Items   []ItemSummary
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}

// Searcher runs one raw search against the Browse API.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// TokenProvider defines the interface for obtaining OAuth2 tokens.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// QuotaSyncer refreshes a controller's Browse counter from an authoritative
// source. The HTTP quota endpoint and the scheduler both use it.
type QuotaSyncer interface {
	SyncBrowseQuota(ctx context.Context, ctrl *Controller) (*QuotaState, error)
}

// tokenInvalidator is implemented by providers that can drop a token the
// API has rejected.
type tokenInvalidator interface {
	Invalidate()
}

// ListingSource fetches filtered candidates for a structured query. The
// Browse API and the HTML scrape both implement it.
type ListingSource interface {
	Name() string
	Fetch(ctx context.Context, q domain.StructuredQuery) ([]domain.ListingCandidate, error)
}
