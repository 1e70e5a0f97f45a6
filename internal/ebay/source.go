package ebay

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

const (
	// DefaultCategoryID is eBay's "Sports Trading Card Singles" category.
	DefaultCategoryID = "261328"

	// DefaultPageSize is the raw page requested per search. It is larger
	// than any result returned to callers to leave room for filtering.
	DefaultPageSize = 200

	fixedPriceFilter = "buyingOptions:{FIXED_PRICE}"
)

// BrowseSource adapts a Searcher to ListingSource.
type BrowseSource struct {
	search     Searcher
	categoryID string
	pageSize   int
	log        *slog.Logger
}

// SourceOption configures a BrowseSource.
type SourceOption func(*BrowseSource)

// WithCategoryID overrides the search category.
func WithCategoryID(id string) SourceOption {
	return func(s *BrowseSource) {
		s.categoryID = id
	}
}

// WithPageSize overrides the raw page size.
func WithPageSize(n int) SourceOption {
	return func(s *BrowseSource) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *BrowseSource) {
		s.log = l
	}
}

// NewBrowseSource creates a ListingSource backed by the Browse API.
func NewBrowseSource(search Searcher, opts ...SourceOption) *BrowseSource {
	s := &BrowseSource{
		search:     search,
		categoryID: DefaultCategoryID,
		pageSize:   DefaultPageSize,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements ListingSource.
func (*BrowseSource) Name() string { return string(domain.SourceAPI) }

// Fetch builds the search string for q, runs one fixed-price search and
// returns the candidates that survive ToCandidates.
func (s *BrowseSource) Fetch(
	ctx context.Context,
	q domain.StructuredQuery,
) ([]domain.ListingCandidate, error) {
	query := BuildQuery(q, taxonomy.ExcludeTerms(q.Line))

	resp, err := s.search.Search(ctx, SearchRequest{
		Query:      query,
		CategoryID: s.categoryID,
		Limit:      s.pageSize,
		Filters:    map[string]string{"filter": fixedPriceFilter},
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	cands := ToCandidates(resp.Items, q)
	s.log.Debug("browse fetch",
		"query", query,
		"raw", len(resp.Items),
		"kept", len(cands),
	)
	return cands, nil
}

// BuildQuery renders the search string: player, year, set, grade, card
// number, parallel, serial and flags, then "-term" for each exclusion.
// Words are emitted once; an exclusion already present in the positive
// terms is dropped.
func BuildQuery(q domain.StructuredQuery, exclude []string) string {
	var b queryBuilder
	b.add(q.Player)
	if q.Year > 0 {
		b.add(strconv.Itoa(q.Year))
	}
	b.add(q.Set)
	if !q.Grade.IsZero() {
		b.add(q.Grade.String())
	}
	if q.CardNumber != "" {
		b.add("#" + strings.TrimLeft(q.CardNumber, "#"))
	}
	b.add(q.Parallel)
	b.add(q.SerialNumber)
	b.add(q.Variation)
	if q.Autograph {
		b.add("auto")
	}
	if q.Relic {
		b.add("relic")
	}
	for _, k := range q.Keywords {
		b.add(k)
	}
	for _, t := range exclude {
		if _, dup := b.seen[strings.ToLower(t)]; dup || t == "" {
			continue
		}
		b.words = append(b.words, "-"+t)
	}
	return strings.Join(b.words, " ")
}

type queryBuilder struct {
	words []string
	seen  map[string]struct{}
}

func (b *queryBuilder) add(text string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	for _, w := range strings.Fields(text) {
		k := strings.ToLower(w)
		if _, dup := b.seen[k]; dup {
			continue
		}
		b.seen[k] = struct{}{}
		b.words = append(b.words, w)
	}
}
