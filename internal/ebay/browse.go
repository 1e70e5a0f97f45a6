package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

const (
	defaultBrowseURL   = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	defaultMarketplace = "EBAY_US"
	defaultLimit       = 50

	// rawCaptureLimit bounds raw bodies written to the debug log.
	rawCaptureLimit = 4096
)

var tracer = otel.Tracer("github.com/donaldgifford/card-price-tracker/internal/ebay")

// BrowseClient implements Searcher using the eBay Browse API.
type BrowseClient struct {
	tokens      TokenProvider
	browseURL   string
	marketplace string
	client      *http.Client
	controller  *Controller
	log         *slog.Logger
	captureRaw  bool
}

// BrowseOption configures the BrowseClient.
type BrowseOption func(*BrowseClient)

// WithBrowseURL overrides the default Browse API endpoint.
func WithBrowseURL(u string) BrowseOption {
	return func(c *BrowseClient) {
		c.browseURL = u
	}
}

// WithMarketplace overrides the default marketplace.
func WithMarketplace(m string) BrowseOption {
	return func(c *BrowseClient) {
		c.marketplace = m
	}
}

// WithBrowseHTTPClient overrides the default HTTP client.
func WithBrowseHTTPClient(hc *http.Client) BrowseOption {
	return func(c *BrowseClient) {
		c.client = hc
	}
}

// WithController routes every Search through the shared backoff controller
// under KeyBrowse. Outcomes are reported back so failures open a backoff
// window for all callers.
func WithController(ctrl *Controller) BrowseOption {
	return func(c *BrowseClient) {
		c.controller = ctrl
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BrowseOption {
	return func(c *BrowseClient) {
		c.log = l
	}
}

// WithRawCapture logs raw response bodies at debug level.
func WithRawCapture(on bool) BrowseOption {
	return func(c *BrowseClient) {
		c.captureRaw = on
	}
}

// NewBrowseClient creates a new eBay Browse API client.
func NewBrowseClient(tokens TokenProvider, opts ...BrowseOption) *BrowseClient {
	c := &BrowseClient{
		tokens:      tokens,
		browseURL:   defaultBrowseURL,
		marketplace: defaultMarketplace,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type browseAPIResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
	Offset        int           `json:"offset"`
	Limit         int           `json:"limit"`
	Next          string        `json:"next"`
}

// Search implements Searcher.Search by querying the Browse API.
func (c *BrowseClient) Search(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	ctx, span := tracer.Start(ctx, "ebay.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("ebay.query", req.Query),
		attribute.Int("ebay.limit", req.Limit),
	)

	resp, err := c.search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("ebay.items", len(resp.Items)))
	return resp, nil
}

func (c *BrowseClient) search(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	if c.controller != nil {
		if err := c.controller.Wait(ctx, KeyBrowse); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, c.fail(ctx, fmt.Errorf("getting auth token: %w", err))
	}

	u := c.buildSearchURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	httpReq.Header.Set("Content-Type", "application/json")

	metrics.UpstreamCallsTotal.WithLabelValues(KeyBrowse).Inc()
	start := time.Now()
	resp, err := c.client.Do(httpReq)
	metrics.UpstreamDuration.WithLabelValues(KeyBrowse).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("executing search request: %w", ctx.Err())
		}
		return nil, c.fail(ctx, fmt.Errorf("%w: executing search request: %w", ErrUpstream, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, fmt.Errorf("%w: reading response body: %w", ErrUpstream, err))
	}

	if c.captureRaw {
		c.log.Debug("raw browse response",
			"status", resp.StatusCode,
			"query", req.Query,
			"body", truncate(body, rawCaptureLimit),
		)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.tokens.(tokenInvalidator); ok {
			inv.Invalidate()
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(ctx, fmt.Errorf(
			"%w: eBay API error (status %d): %s",
			statusError(resp.StatusCode),
			resp.StatusCode,
			truncate(body, 512),
		))
	}

	var apiResp browseAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, c.fail(ctx, fmt.Errorf("%w: parsing search response: %w", ErrUpstream, err))
	}

	if c.controller != nil {
		c.controller.Success(KeyBrowse)
	}

	return &SearchResponse{
		Items:   apiResp.ItemSummaries,
		Total:   apiResp.Total,
		Offset:  apiResp.Offset,
		Limit:   apiResp.Limit,
		HasMore: apiResp.Next != "",
	}, nil
}

// fail records err against the controller and metrics. Configuration errors
// and cancellation do not open a backoff window.
func (c *BrowseClient) fail(ctx context.Context, err error) error {
	metrics.UpstreamErrorsTotal.WithLabelValues(KeyBrowse, errorKind(err)).Inc()
	if IsConfigError(err) || ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return err
	}
	if c.controller != nil {
		d := c.controller.Failure(KeyBrowse, err)
		c.log.Warn("browse request failed, backing off", "backoff", d, "error", err)
	}
	return err
}

func (c *BrowseClient) buildSearchURL(req SearchRequest) string {
	params := url.Values{}
	params.Set("q", req.Query)

	if req.CategoryID != "" {
		params.Set("category_ids", req.CategoryID)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	if req.Offset > 0 {
		params.Set("offset", strconv.Itoa(req.Offset))
	}

	for k, v := range req.Filters {
		params.Set(k, v)
	}

	return c.browseURL + "?" + params.Encode()
}

func statusError(status int) error {
	switch status {
	case http.StatusTooManyRequests, http.StatusForbidden:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
