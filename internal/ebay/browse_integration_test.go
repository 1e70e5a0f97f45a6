//go:build integration

package ebay_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/pkg/query"
)

// TestBrowseSource_Integration requires live eBay API credentials.
// Run with: go test -tags=integration -run TestBrowseSource_Integration ./internal/ebay/...
//
// Required environment variables:
//   - EBAY_APP_ID: eBay application ID (client ID)
//   - EBAY_CERT_ID: eBay certificate ID (client secret)
func TestBrowseSource_Integration(t *testing.T) {
	appID := os.Getenv("EBAY_APP_ID")
	certID := os.Getenv("EBAY_CERT_ID")

	if appID == "" || certID == "" {
		t.Skip("EBAY_APP_ID and EBAY_CERT_ID must be set for integration tests")
	}

	tokens := ebay.NewOAuthTokenProvider(appID, certID)
	source := ebay.NewBrowseSource(ebay.NewBrowseClient(tokens), ebay.WithPageSize(50))

	parsed := query.Parse("2023 Panini Prizm CJ Stroud")
	cands, err := source.Fetch(context.Background(), parsed.Query)
	require.NoError(t, err)

	for _, c := range cands {
		assert.NotEmpty(t, c.ID)
		assert.Positive(t, c.Price)
		assert.True(t, query.MatchPlayer(c.Title, "CJ Stroud"), c.Title)
	}
}
