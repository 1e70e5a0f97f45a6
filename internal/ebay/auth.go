package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/card-price-tracker/internal/cache"
	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

const (
	defaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token" //nolint:gosec // not a credential
	defaultScope    = "https://api.ebay.com/oauth/api_scope"

	// Tokens are dropped this long before eBay expires them.
	expiryMargin = 60 * time.Second

	// sourceOAuth labels token exchanges in the upstream metrics.
	sourceOAuth = "ebay-oauth"
)

// OAuthTokenProvider exchanges the app's client credentials for an
// application token. The token lives in a cache.Store keyed by app id; one
// mutex serializes exchanges so concurrent lookups share a single call.
type OAuthTokenProvider struct {
	appID    string
	certID   string
	tokenURL string
	scope    string
	client   *http.Client
	now      func() time.Time

	mu     sync.Mutex
	tokens *cache.Store[string]
}

// OAuthOption configures the OAuthTokenProvider.
type OAuthOption func(*OAuthTokenProvider)

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.tokenURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.client = c
	}
}

// WithNowFunc overrides the clock of the default token cache.
func WithNowFunc(f func() time.Time) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.now = f
	}
}

// WithTokenCache shares a token store, for example with the cache sweeper.
func WithTokenCache(s *cache.Store[string]) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.tokens = s
	}
}

// NewOAuthTokenProvider creates a provider for the given credentials. Empty
// credentials are accepted here and reported by Token, so the server can
// start and report itself unready.
func NewOAuthTokenProvider(appID, certID string, opts ...OAuthOption) *OAuthTokenProvider {
	p := &OAuthTokenProvider{
		appID:    appID,
		certID:   certID,
		tokenURL: defaultTokenURL,
		scope:    defaultScope,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tokens == nil {
		p.tokens = NewTokenCache(cache.WithClock(p.now))
	}
	return p
}

// NewTokenCache builds the bearer-token store. It has no stale window: an
// expired token is useless.
func NewTokenCache(opts ...cache.Option) *cache.Store[string] {
	base := []cache.Option{cache.WithStaleTTL(0), cache.WithMaxEntries(8)}
	return cache.New[string]("token", append(base, opts...)...)
}

// Configured reports whether both credentials are set.
func (p *OAuthTokenProvider) Configured() bool {
	return p.appID != "" && p.certID != ""
}

// Invalidate drops the cached token so the next Token call exchanges
// credentials again. The Browse client calls it when a token is rejected.
func (p *OAuthTokenProvider) Invalidate() {
	p.tokens.Delete(p.appID)
}

// Token returns a cached application token, exchanging credentials for a
// new one when the cached token is missing or about to expire.
func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	if !p.Configured() {
		return "", ErrMissingCredentials
	}
	if tok, st := p.tokens.Get(p.appID); st == cache.Fresh {
		return tok, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if tok, st := p.tokens.Get(p.appID); st == cache.Fresh {
		return tok, nil
	}

	ctx, span := tracer.Start(ctx, "ebay.Token")
	defer span.End()

	start := time.Now()
	metrics.UpstreamCallsTotal.WithLabelValues(sourceOAuth).Inc()
	grant, err := p.exchange(ctx)
	metrics.UpstreamDuration.WithLabelValues(sourceOAuth).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.UpstreamErrorsTotal.WithLabelValues(sourceOAuth, errorKind(err)).Inc()
		return "", err
	}

	if ttl := time.Duration(grant.ExpiresIn)*time.Second - expiryMargin; ttl > 0 {
		p.tokens.SetWithTTL(p.appID, grant.AccessToken, ttl)
	}
	return grant.AccessToken, nil
}

type tokenGrant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	TokenType   string `json:"token_type"`
}

type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (p *OAuthTokenProvider) exchange(ctx context.Context) (*tokenGrant, error) {
	form := url.Values{"grant_type": {"client_credentials"}, "scope": {p.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.appID, p.certID)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("executing token request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: executing token request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %w", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		var te tokenError
		_ = json.Unmarshal(body, &te) //nolint:errcheck // error bodies are best effort
		return nil, fmt.Errorf("%w: token request failed (status %d): %s - %s",
			tokenStatusError(resp.StatusCode), resp.StatusCode, te.Error, te.Description)
	}

	var grant tokenGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, fmt.Errorf("%w: parsing token response: %w", ErrUpstream, err)
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", ErrUpstream)
	}
	return &grant, nil
}

// tokenStatusError maps token endpoint statuses. 400 and 401 mean the
// credentials are wrong, which no retry fixes.
func tokenStatusError(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusTooManyRequests, http.StatusForbidden:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}
