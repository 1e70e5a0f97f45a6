package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

const (
	defaultAnalyticsURL = "https://api.ebay.com/developer/analytics/v1_beta/rate_limit/"

	// browseResource is the Analytics resource that item_summary/search
	// calls are counted against.
	browseResource = "buy.browse"

	dailyWindow = 24 * time.Hour
)

// QuotaState is eBay's own view of one resource's call quota.
type QuotaState struct {
	Count      int64         `json:"count"`
	Limit      int64         `json:"limit"`
	Remaining  int64         `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	TimeWindow time.Duration `json:"time_window"`
}

// Analytics rate_limit response, trimmed to what quota sync reads.
type (
	analyticsBody struct {
		RateLimits []struct {
			Resources []analyticsResource `json:"resources"`
		} `json:"rateLimits"`
	}

	analyticsResource struct {
		Name  string          `json:"name"`
		Rates []analyticsRate `json:"rates"`
	}

	analyticsRate struct {
		Count      int64  `json:"count"`
		Limit      int64  `json:"limit"`
		Remaining  int64  `json:"remaining"`
		Reset      string `json:"reset"`
		TimeWindow int64  `json:"timeWindow"` // seconds
	}
)

// AnalyticsClient reads call quotas from the eBay Developer Analytics API.
// Analytics calls are not counted against the Browse quota, so they bypass
// the Controller.
type AnalyticsClient struct {
	tokens  TokenProvider
	baseURL string
	client  *http.Client
}

// AnalyticsOption configures the AnalyticsClient.
type AnalyticsOption func(*AnalyticsClient)

// WithAnalyticsURL overrides the rate_limit endpoint.
func WithAnalyticsURL(u string) AnalyticsOption {
	return func(c *AnalyticsClient) {
		c.baseURL = u
	}
}

// WithAnalyticsHTTPClient overrides the default HTTP client.
func WithAnalyticsHTTPClient(hc *http.Client) AnalyticsOption {
	return func(c *AnalyticsClient) {
		c.client = hc
	}
}

// NewAnalyticsClient creates an AnalyticsClient authenticating with tokens.
func NewAnalyticsClient(tokens TokenProvider, opts ...AnalyticsOption) *AnalyticsClient {
	c := &AnalyticsClient{
		tokens:  tokens,
		baseURL: defaultAnalyticsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBrowseQuota returns eBay's count for the Browse search resource. When
// the resource reports several windows the daily one is used.
func (c *AnalyticsClient) GetBrowseQuota(ctx context.Context) (*QuotaState, error) {
	ctx, span := tracer.Start(ctx, "ebay.GetBrowseQuota")
	defer span.End()

	body, err := c.fetch(ctx, "buy", "browse")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rates, err := findResource(body, browseResource)
	if err != nil {
		return nil, err
	}
	q, err := pickDaily(rates).state()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("quota.count", q.Count),
		attribute.Int64("quota.limit", q.Limit),
	)
	return q, nil
}

var _ QuotaSyncer = (*AnalyticsClient)(nil)

// SyncBrowseQuota overwrites the controller's KeyBrowse daily counter with
// eBay's count so the local tally cannot drift.
func (c *AnalyticsClient) SyncBrowseQuota(ctx context.Context, ctrl *Controller) (*QuotaState, error) {
	q, err := c.GetBrowseQuota(ctx)
	if err != nil {
		return nil, err
	}
	ctrl.SyncDaily(KeyBrowse, q.Count, q.ResetAt)
	metrics.EbayDailyUsage.Set(float64(q.Count))
	return q, nil
}

func (c *AnalyticsClient) fetch(ctx context.Context, apiContext, apiName string) (*analyticsBody, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing analytics URL: %w", err)
	}
	params := u.Query()
	params.Set("api_context", apiContext)
	params.Set("api_name", apiName)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating analytics request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing analytics request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading analytics response: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analytics API error (status %d): %s",
			statusError(resp.StatusCode), resp.StatusCode, truncate(raw, 512))
	}

	var body analyticsBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: parsing analytics response: %w", ErrUpstream, err)
	}
	return &body, nil
}

func findResource(body *analyticsBody, name string) ([]analyticsRate, error) {
	for _, rl := range body.RateLimits {
		for _, res := range rl.Resources {
			if res.Name != name {
				continue
			}
			if len(res.Rates) == 0 {
				return nil, fmt.Errorf("no rates found for resource %q", name)
			}
			return res.Rates, nil
		}
	}
	return nil, fmt.Errorf("resource %q not found in analytics response", name)
}

// pickDaily prefers the 24h window; rates is never empty.
func pickDaily(rates []analyticsRate) analyticsRate {
	for _, r := range rates {
		if time.Duration(r.TimeWindow)*time.Second == dailyWindow {
			return r
		}
	}
	return rates[0]
}

func (r analyticsRate) state() (*QuotaState, error) {
	resetAt, err := time.Parse(time.RFC3339, r.Reset)
	if err != nil {
		return nil, fmt.Errorf("parsing reset time %q: %w", r.Reset, err)
	}
	return &QuotaState{
		Count:      r.Count,
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		ResetAt:    resetAt,
		TimeWindow: time.Duration(r.TimeWindow) * time.Second,
	}, nil
}
