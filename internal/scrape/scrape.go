// Package scrape is the degraded listing source: it fetches the public eBay
// search results page and parses offers out of the HTML. It is only used
// when the Browse API fails, and it shares the backoff controller with it
// under its own key.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/metrics"
	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// ErrBotChallenge is returned when the response is a CAPTCHA or bot check
// page. The page is never parsed for partial results.
var ErrBotChallenge = errors.New("scrape: bot challenge page")

const (
	defaultSearchURL = "https://www.ebay.com/sch/i.html"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodyBytes     = 5 << 20
)

// Client implements ebay.ListingSource over the HTML search page.
type Client struct {
	searchURL  string
	userAgent  string
	categoryID string
	client     *http.Client
	controller *ebay.Controller
	log        *slog.Logger
	captureRaw bool
}

// Option configures the Client.
type Option func(*Client)

// WithSearchURL overrides the search page URL.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		c.searchURL = u
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithController gates requests through the shared controller under
// ebay.KeyScrape.
func WithController(ctrl *ebay.Controller) Option {
	return func(c *Client) {
		c.controller = ctrl
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithRawCapture logs raw page bodies at debug level.
func WithRawCapture(on bool) Option {
	return func(c *Client) {
		c.captureRaw = on
	}
}

// New creates a scrape client.
func New(opts ...Option) *Client {
	c := &Client{
		searchURL:  defaultSearchURL,
		userAgent:  defaultUserAgent,
		categoryID: ebay.DefaultCategoryID,
		client:     &http.Client{Timeout: 20 * time.Second},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements ebay.ListingSource.
func (*Client) Name() string { return string(domain.SourceScrape) }

// Fetch implements ebay.ListingSource. Results pass the same ingestion
// filters as the API path.
func (c *Client) Fetch(
	ctx context.Context,
	q domain.StructuredQuery,
) ([]domain.ListingCandidate, error) {
	if c.controller != nil {
		if err := c.controller.Wait(ctx, ebay.KeyScrape); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	cands, err := c.fetch(ctx, q)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(ebay.KeyScrape, kind(err)).Inc()
		if c.controller != nil && ctx.Err() == nil {
			d := c.controller.Failure(ebay.KeyScrape, err)
			c.log.Warn("scrape failed, backing off", "backoff", d, "error", err)
		}
		return nil, err
	}
	if c.controller != nil {
		c.controller.Success(ebay.KeyScrape)
	}
	return ebay.FilterCandidates(cands, q), nil
}

func (c *Client) fetch(
	ctx context.Context,
	q domain.StructuredQuery,
) ([]domain.ListingCandidate, error) {
	u, err := c.buildURL(ebay.BuildQuery(q, taxonomy.ExcludeTerms(q.Line)))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating scrape request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	metrics.UpstreamCallsTotal.WithLabelValues(ebay.KeyScrape).Inc()
	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamDuration.WithLabelValues(ebay.KeyScrape).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("executing scrape request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: executing scrape request: %w", ebay.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading scrape response: %w", ebay.ErrUpstream, err)
	}

	if c.captureRaw {
		c.log.Debug("raw scrape response", "status", resp.StatusCode, "bytes", len(body))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: scrape status %d", ebay.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		if IsChallenge(body) {
			return nil, ErrBotChallenge
		}
		return nil, fmt.Errorf("%w: scrape status %d", ebay.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: scrape status %d", ebay.ErrUpstream, resp.StatusCode)
	}

	if IsChallenge(body) {
		return nil, ErrBotChallenge
	}

	cands, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ebay.ErrUpstream, err)
	}
	return cands, nil
}

func (c *Client) buildURL(query string) (string, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return "", fmt.Errorf("parsing search URL: %w", err)
	}
	params := u.Query()
	params.Set("_nkw", query)
	params.Set("_sacat", c.categoryID)
	params.Set("LH_BIN", "1")
	params.Set("_ipg", "240")
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func kind(err error) string {
	switch {
	case errors.Is(err, ErrBotChallenge):
		return "bot_challenge"
	case errors.Is(err, ebay.ErrRateLimited):
		return "rate_limited"
	default:
		return "upstream"
	}
}
