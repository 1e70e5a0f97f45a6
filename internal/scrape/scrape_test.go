package scrape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/scrape"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

const resultsPage = `<!DOCTYPE html>
<html><head><title>2023 prizm cj stroud silver | eBay</title></head>
<body>
<ul class="srp-results">
  <li class="s-item">
    <a class="s-item__link" href="https://ebay.com/itm/123456"><div class="s-item__title"><span>Shop on eBay</span></div></a>
    <span class="s-item__price">$20.00</span>
  </li>
  <li class="s-item s-item__pl-on-bottom">
    <div class="s-item__image"><img src="https://i.ebayimg.com/a.jpg"></div>
    <a class="s-item__link" href="https://www.ebay.com/itm/2023-prizm-stroud/334455667788?hash=x">
      <div class="s-item__title"><span class="LIGHT_HIGHLIGHT">New Listing</span>2023 Panini Prizm CJ Stroud #339 Silver Prizm RC</div>
    </a>
    <div class="s-item__subtitle"><span class="SECONDARY_INFO">Ungraded</span></div>
    <span class="s-item__price">$1,045.50</span>
    <span class="s-item__shipping s-item__logisticsCost">+$4.99 shipping</span>
  </li>
  <li class="s-item">
    <a class="s-item__link" href="https://www.ebay.com/itm/998877665544">
      <div class="s-item__title">2023 Panini Prizm CJ Stroud Silver Prizm PSA 10</div>
    </a>
    <span class="s-item__price">$250.00</span>
    <span class="s-item__shipping">Free shipping</span>
    <span class="s-item__bids">3 bids</span>
  </li>
  <li class="s-item">
    <a class="s-item__link" href="https://www.ebay.com/itm/111122223333">
      <div class="s-item__title">2023 Panini Prizm Silver Pick Your Player</div>
    </a>
    <span class="s-item__price">$5.00 to $40.00</span>
  </li>
  <li class="s-item">
    <a class="s-item__link" href="https://www.ebay.com/itm/444455556666">
      <div class="s-item__title">2023 Panini Select CJ Stroud Silver Prizm</div>
    </a>
    <span class="s-item__price">$60.00</span>
  </li>
</ul>
</body></html>`

const challengePage = `<!DOCTYPE html>
<html><head><title>Pardon Our Interruption...</title></head>
<body><form id="challenge-form" action="/splashui/challenge"><div class="g-recaptcha"></div></form></body></html>`

func stroud() domain.StructuredQuery {
	return domain.StructuredQuery{
		Player:   "CJ Stroud",
		Year:     2023,
		Set:      "Panini Prizm",
		Line:     "prizm",
		Parallel: "Silver Prizm",
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	got, err := scrape.Parse(strings.NewReader(resultsPage))
	require.NoError(t, err)
	require.Len(t, got, 3, "placeholder and price-range rows are skipped")

	first := got[0]
	assert.Equal(t, "334455667788", first.ID)
	assert.Equal(t, "2023 Panini Prizm CJ Stroud #339 Silver Prizm RC", first.Title)
	assert.InDelta(t, 1045.50, first.Price, 0.001)
	assert.Equal(t, "USD", first.Currency)
	require.NotNil(t, first.ShippingCost)
	assert.InDelta(t, 4.99, *first.ShippingCost, 0.001)
	assert.Equal(t, "Ungraded", first.Condition)
	assert.Equal(t, "https://i.ebayimg.com/a.jpg", first.ImageURL)
	assert.Equal(t, domain.SourceScrape, first.Source)
	assert.Equal(t, domain.ListingBuyItNow, first.ListingType)
	assert.Equal(t, "339", first.Attributes.CardNumber)

	second := got[1]
	require.NotNil(t, second.ShippingCost)
	assert.Zero(t, *second.ShippingCost)
	assert.Equal(t, domain.ListingAuction, second.ListingType)
	assert.Equal(t, domain.Grade{Grader: "PSA", Value: 10}, second.Attributes.Grade)
}

func TestIsChallenge(t *testing.T) {
	t.Parallel()

	assert.True(t, scrape.IsChallenge([]byte(challengePage)))
	assert.True(t, scrape.IsChallenge([]byte("<p>Please verify you are a human</p>")))
	assert.False(t, scrape.IsChallenge([]byte(resultsPage)))
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("_nkw"), "CJ Stroud")
		assert.Equal(t, ebay.DefaultCategoryID, r.URL.Query().Get("_sacat"))
		assert.Equal(t, "1", r.URL.Query().Get("LH_BIN"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	ctrl := ebay.NewController(ebay.WithPolicy(ebay.KeyScrape, ebay.Policy{}))
	c := scrape.New(
		scrape.WithSearchURL(srv.URL),
		scrape.WithUserAgent("test-agent"),
		scrape.WithController(ctrl),
	)
	assert.Equal(t, "scrape", c.Name())

	got, err := c.Fetch(context.Background(), stroud())
	require.NoError(t, err)
	require.Len(t, got, 2, "the Select listing is filtered out")
	for _, cand := range got {
		assert.Contains(t, cand.Title, "Prizm")
	}
	assert.Equal(t, int64(1), ctrl.Snapshot(ebay.KeyScrape).DailyCount)
}

func TestClient_Fetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantErrIs error
	}{
		{name: "challenge page with 200", status: http.StatusOK, body: challengePage, wantErrIs: scrape.ErrBotChallenge},
		{name: "challenge page with 403", status: http.StatusForbidden, body: challengePage, wantErrIs: scrape.ErrBotChallenge},
		{name: "plain 403", status: http.StatusForbidden, body: "denied", wantErrIs: ebay.ErrRateLimited},
		{name: "429", status: http.StatusTooManyRequests, wantErrIs: ebay.ErrRateLimited},
		{name: "503", status: http.StatusServiceUnavailable, wantErrIs: ebay.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ctrl := ebay.NewController(ebay.WithPolicy(ebay.KeyScrape, ebay.Policy{
				BackoffBase: time.Second,
				BackoffMax:  time.Minute,
			}))
			c := scrape.New(scrape.WithSearchURL(srv.URL), scrape.WithController(ctrl))

			got, err := c.Fetch(context.Background(), stroud())
			require.ErrorIs(t, err, tt.wantErrIs)
			assert.Nil(t, got)

			st := ctrl.Snapshot(ebay.KeyScrape)
			assert.Equal(t, 1, st.ConsecutiveErrors)
			assert.False(t, st.BlockedUntil.IsZero())
		})
	}
}

func TestClient_Fetch_Canceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctrl := ebay.NewController(ebay.WithPolicy(ebay.KeyScrape, ebay.Policy{}))
	c := scrape.New(scrape.WithSearchURL(srv.URL), scrape.WithController(ctrl))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, stroud())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, ctrl.Snapshot(ebay.KeyScrape).ConsecutiveErrors)
}
