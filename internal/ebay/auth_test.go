package ebay_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/card-price-tracker/internal/cache"
	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

// tokenJSON is a token grant as the identity endpoint returns it.
func tokenJSON(token string) []byte {
	return fmt.Appendf(nil,
		`{"access_token":%q,"expires_in":7200,"token_type":"Application Access Token"}`, token)
}

// tokenServer counts exchanges and answers each with respond.
func tokenServer(t *testing.T, respond http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func grant(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(tokenJSON(token))
	}
}

func TestOAuthTokenProvider_Token(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantToken string
		wantErrIs error
		wantMsg   string
		config    bool
	}{
		{
			name:      "grant",
			status:    http.StatusOK,
			body:      string(tokenJSON("v^1.1#i^1#tok")),
			wantToken: "v^1.1#i^1#tok",
		},
		{
			name:      "bad client is a config error",
			status:    http.StatusUnauthorized,
			body:      `{"error":"invalid_client","error_description":"client authentication failed"}`,
			wantErrIs: ebay.ErrInvalidCredentials,
			wantMsg:   "status 401): invalid_client - client authentication failed",
			config:    true,
		},
		{
			name:      "bad request is a config error",
			status:    http.StatusBadRequest,
			body:      `{"error":"invalid_scope"}`,
			wantErrIs: ebay.ErrInvalidCredentials,
			wantMsg:   "status 400",
			config:    true,
		},
		{
			name:      "throttled",
			status:    http.StatusTooManyRequests,
			wantErrIs: ebay.ErrRateLimited,
			wantMsg:   "status 429",
		},
		{
			name:      "server error",
			status:    http.StatusBadGateway,
			wantErrIs: ebay.ErrUpstream,
			wantMsg:   "status 502",
		},
		{
			name:      "undecodable grant",
			status:    http.StatusOK,
			body:      "<html>maintenance</html>",
			wantErrIs: ebay.ErrUpstream,
			wantMsg:   "parsing token response",
		},
		{
			name:      "grant without token",
			status:    http.StatusOK,
			body:      `{"expires_in":7200}`,
			wantErrIs: ebay.ErrUpstream,
			wantMsg:   "no access_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := tokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			p := ebay.NewOAuthTokenProvider("app", "cert", ebay.WithTokenURL(srv.URL))

			tok, err := p.Token(context.Background())
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				assert.Contains(t, err.Error(), tt.wantMsg)
				assert.Equal(t, tt.config, ebay.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, tok)
		})
	}
}

func TestOAuthTokenProvider_MissingCredentials(t *testing.T) {
	t.Parallel()

	srv, calls := tokenServer(t, grant("unused"))

	for _, creds := range [][2]string{{"", "cert"}, {"app", ""}, {"", ""}} {
		p := ebay.NewOAuthTokenProvider(creds[0], creds[1], ebay.WithTokenURL(srv.URL))
		assert.False(t, p.Configured())

		_, err := p.Token(context.Background())
		require.ErrorIs(t, err, ebay.ErrMissingCredentials)
		assert.True(t, ebay.IsConfigError(err))
	}
	assert.Zero(t, calls.Load(), "no exchange without credentials")
}

func TestOAuthTokenProvider_Lifetime(t *testing.T) {
	t.Parallel()

	srv, calls := tokenServer(t, grant("app-token"))

	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	store := ebay.NewTokenCache(cache.WithClock(clock))
	p := ebay.NewOAuthTokenProvider("app", "cert", ebay.WithTokenURL(srv.URL), ebay.WithTokenCache(store))

	steps := []struct {
		after     time.Duration
		wantCalls int32
	}{
		{after: 0, wantCalls: 1},
		{after: time.Hour, wantCalls: 1},
		// 7200s grant less the 60s margin: expired at 7140s.
		{after: 7139*time.Second - time.Hour, wantCalls: 1},
		{after: 2 * time.Second, wantCalls: 2},
	}
	for i, s := range steps {
		advance(s.after)
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "app-token", tok)
		assert.Equal(t, s.wantCalls, calls.Load(), "step %d", i)
	}

	cached, status := store.Get("app")
	assert.Equal(t, cache.Fresh, status)
	assert.Equal(t, "app-token", cached)
}

func TestOAuthTokenProvider_Invalidate(t *testing.T) {
	t.Parallel()

	srv, calls := tokenServer(t, grant("app-token"))
	store := ebay.NewTokenCache()
	p := ebay.NewOAuthTokenProvider("app", "cert", ebay.WithTokenURL(srv.URL), ebay.WithTokenCache(store))

	_, err := p.Token(context.Background())
	require.NoError(t, err)
	p.Invalidate()

	_, status := store.Get("app")
	assert.Equal(t, cache.Miss, status)

	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOAuthTokenProvider_ConcurrentCallersShareExchange(t *testing.T) {
	t.Parallel()

	srv, calls := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		grant("shared")(w, r)
	})
	p := ebay.NewOAuthTokenProvider("app", "cert", ebay.WithTokenURL(srv.URL))

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			tok, err := p.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", tok)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestOAuthTokenProvider_RequestFormat(t *testing.T) {
	t.Parallel()

	srv, _ := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "my-app-id", user)
		assert.Equal(t, "my-cert-id", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "https://api.ebay.com/oauth/api_scope", r.FormValue("scope"))

		grant("ok")(w, r)
	})

	p := ebay.NewOAuthTokenProvider("my-app-id", "my-cert-id", ebay.WithTokenURL(srv.URL))
	_, err := p.Token(context.Background())
	require.NoError(t, err)
}

func TestOAuthTokenProvider_CountsExchanges(t *testing.T) {
	t.Parallel()

	srv, _ := tokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	p := ebay.NewOAuthTokenProvider("metrics-app", "cert", ebay.WithTokenURL(srv.URL))

	calls := testutil.ToFloat64(metrics.UpstreamCallsTotal.WithLabelValues("ebay-oauth"))
	errs := testutil.ToFloat64(metrics.UpstreamErrorsTotal.WithLabelValues("ebay-oauth", "upstream"))

	_, err := p.Token(context.Background())
	require.ErrorIs(t, err, ebay.ErrUpstream)

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.UpstreamCallsTotal.WithLabelValues("ebay-oauth")), calls+1)
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.UpstreamErrorsTotal.WithLabelValues("ebay-oauth", "upstream")), errs+1)
}
