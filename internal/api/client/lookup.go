package client

import (
	"context"
	"net/url"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// ParseResponse is the normalized form of a free-text query.
type ParseResponse struct {
	Query       domain.StructuredQuery   `json:"query"`
	Locked      domain.LockedConstraints `json:"locked"`
	Tokens      []string                 `json:"tokens"`
	Description string                   `json:"description"`
	Line        string                   `json:"line,omitempty"`
}

// QuotaResponse holds per-upstream limiter state.
type QuotaResponse struct {
	Limiters []ebay.LimiterState `json:"limiters"`
	Synced   bool                `json:"synced"`
}

// Lookup prices a card described by req.
func (c *Client) Lookup(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error) {
	var res domain.LookupResult
	if err := c.post(ctx, "/api/v1/lookup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Parse normalizes free text without searching.
func (c *Client) Parse(ctx context.Context, text string) (*ParseResponse, error) {
	body := map[string]string{"query": text}
	var res ParseResponse
	if err := c.post(ctx, "/api/v1/parse", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Quota returns limiter and backoff state. With refresh set the server
// first syncs the Browse counter from the Analytics API.
func (c *Client) Quota(ctx context.Context, refresh bool) (*QuotaResponse, error) {
	path := "/api/v1/quota"
	if refresh {
		path += "?" + url.Values{"refresh": {"true"}}.Encode()
	}
	var res QuotaResponse
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
