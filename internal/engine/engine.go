// Package engine runs card lookups: normalize the query, search through the
// pass cascade, rank the candidates and estimate a price range.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/card-price-tracker/internal/cache"
	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/metrics"
	"github.com/donaldgifford/card-price-tracker/pkg/estimate"
	"github.com/donaldgifford/card-price-tracker/pkg/query"
	score "github.com/donaldgifford/card-price-tracker/pkg/scorer"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// DefaultLimit caps the listings returned when the request sets no limit.
const DefaultLimit = 20

// ErrNoPlayer is returned when neither the player field nor the free-text
// query names a player.
var ErrNoPlayer = errors.New("lookup needs a player name")

const instrumentation = "github.com/donaldgifford/card-price-tracker/internal/engine"

var (
	tracer = otel.Tracer(instrumentation)

	// Pushed over OTLP when telemetry is configured, alongside the
	// prometheus histogram.
	lookupSeconds, _ = otel.Meter(instrumentation).Float64Histogram(
		"cpt.lookup.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of card lookups."),
	)
)

// Engine answers lookups. It holds the process-wide listings cache and the
// singleflight group; the rate limiter lives inside the listing sources.
type Engine struct {
	primary   ebay.ListingSource
	secondary ebay.ListingSource
	listings  *cache.Store[[]domain.ListingCandidate]
	group     singleflight.Group
	log       *slog.Logger

	minResults   int
	defaultLimit int
	timeout      time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithFallbackSource sets the source tried when the primary source fails.
func WithFallbackSource(s ebay.ListingSource) EngineOption {
	return func(e *Engine) {
		e.secondary = s
	}
}

// WithListingsCache replaces the default listings cache.
func WithListingsCache(c *cache.Store[[]domain.ListingCandidate]) EngineOption {
	return func(e *Engine) {
		e.listings = c
	}
}

// WithMinResults sets how many candidates end the pass cascade.
func WithMinResults(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.minResults = n
		}
	}
}

// WithDefaultLimit sets the listing cap used when a request sets none.
func WithDefaultLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithFetchTimeout bounds each upstream fetch. Zero leaves only the caller's
// deadline.
func WithFetchTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// NewEngine creates an Engine searching primary.
func NewEngine(primary ebay.ListingSource, opts ...EngineOption) *Engine {
	eng := &Engine{
		primary:      primary,
		log:          slog.Default(),
		minResults:   DefaultMinResults,
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.listings == nil {
		eng.listings = NewListingsCache()
	}
	return eng
}

// NewListingsCache builds the listings store with the default TTL, stale
// window and capacity.
func NewListingsCache(opts ...cache.Option) *cache.Store[[]domain.ListingCandidate] {
	return cache.New[[]domain.ListingCandidate]("listings", opts...)
}

// Listings returns the listings cache, for the scheduler.
func (eng *Engine) Listings() *cache.Store[[]domain.ListingCandidate] {
	return eng.listings
}

// Parse normalizes free text without searching.
func (eng *Engine) Parse(text string) query.Parsed {
	return query.Parse(text)
}

// Lookup prices one card. Upstream failures degrade to an unavailable
// estimate; only configuration errors, cancellation and a missing player
// are returned as errors.
func (eng *Engine) Lookup(ctx context.Context, req domain.LookupRequest) (*domain.LookupResult, error) {
	ctx, span := tracer.Start(ctx, "engine.Lookup")
	defer span.End()

	start := time.Now()
	outcome := "error"
	defer func() {
		d := time.Since(start).Seconds()
		metrics.LookupsTotal.WithLabelValues(outcome).Inc()
		metrics.LookupDuration.Observe(d)
		if lookupSeconds != nil {
			lookupSeconds.Record(ctx, d, metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}()

	parsed := query.FromRequest(req)
	q := parsed.Query
	if strings.TrimSpace(q.Player) == "" {
		return nil, ErrNoPlayer
	}
	span.SetAttributes(
		attribute.String("query.player", q.Player),
		attribute.String("query.line", q.Line),
	)

	res, err := eng.runPasses(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching listings: %w", err)
	}

	ranked := score.Rank(q, parsed.Locked, res.Candidates)
	metrics.LadderLevelTotal.WithLabelValues(ranked.Level.String()).Inc()

	kept := make([]domain.ListingCandidate, 0, len(ranked.Candidates))
	for i := range ranked.Candidates {
		metrics.RelevanceScore.Observe(float64(ranked.Candidates[i].Score))
		kept = append(kept, ranked.Candidates[i].Candidate)
	}

	est := estimate.Estimate(kept, estimate.SignalsFrom(q))
	outcome = "unavailable"
	if est.Available {
		outcome = "priced"
		metrics.EstimateConfidenceTotal.WithLabelValues(string(est.Confidence)).Inc()
	}

	limit := q.Limit
	if limit <= 0 {
		limit = eng.defaultLimit
	}

	out := &domain.LookupResult{
		Query:              describe(req, &q),
		NormalizedQuery:    q,
		Locked:             parsed.Locked,
		ForSale:            forSale(kept, limit),
		EstimatedSaleRange: est,
		PassUsed:           res.Pass,
		TotalPasses:        res.Attempted,
		LadderLevel:        int(ranked.Level),
		ExactCount:         len(ranked.Exact),
		CloseCount:         len(ranked.Close),
		Exact:              buckets(ranked.Exact, limit),
		Close:              buckets(ranked.Close, limit),
		Stale:              res.Stale,
	}
	out.Disclaimers = disclaimers(out, res.Source)

	span.SetAttributes(
		attribute.String("pass", res.Pass),
		attribute.Int("candidates", len(kept)),
		attribute.Bool("priced", est.Available),
	)
	eng.log.Info("lookup complete",
		"query", out.Query,
		"pass", res.Pass,
		"passes", res.Attempted,
		"level", ranked.Level.String(),
		"candidates", len(kept),
		"exact", len(ranked.Exact),
		"priced", est.Available,
		"stale", res.Stale,
	)
	return out, nil
}

// forSale summarizes asking prices over every ranked candidate and returns
// the best limit of them.
func forSale(cands []domain.ListingCandidate, limit int) domain.ForSale {
	fs := domain.ForSale{Count: len(cands), Items: []domain.ListingCandidate{}}
	if len(cands) == 0 {
		return fs
	}

	prices := make([]float64, len(cands))
	for i := range cands {
		prices[i] = cands[i].Price
	}
	slices.Sort(prices)
	fs.Low = estimate.Round(prices[0])
	fs.Median = estimate.Round(estimate.Percentile(prices, 0.5))
	fs.High = estimate.Round(prices[len(prices)-1])
	fs.Items = slices.Clone(cands[:min(limit, len(cands))])
	return fs
}

// buckets returns at most limit scored candidates, never nil.
func buckets(sc []domain.ScoredCandidate, limit int) []domain.ScoredCandidate {
	n := min(limit, len(sc))
	return append(make([]domain.ScoredCandidate, 0, n), sc[:n]...)
}

func describe(req domain.LookupRequest, q *domain.StructuredQuery) string {
	if s := strings.TrimSpace(req.Query); s != "" && strings.TrimSpace(req.Player) == "" {
		return s
	}
	return q.Describe()
}

// disclaimers always carries the active-listings caveat, followed by the
// data-quality notes that apply.
func disclaimers(r *domain.LookupResult, source string) []string {
	d := []string{estimate.ActiveListingsDisclaimer}
	if r.Stale {
		d = append(d, "Live search was unavailable; showing cached listings that may be out of date.")
	}
	if source == string(domain.SourceScrape) {
		d = append(d, "Listings were read from the public search page because the API was unavailable.")
	}
	switch r.PassUsed {
	case PassBroad:
		d = append(d, "Too few listings matched the exact year; results include other years.")
	case PassMinimal:
		d = append(d, "Too few listings matched the full query; results use only player, set, grade, parallel and card number.")
	}
	if r.ForSale.Count == 0 {
		return d
	}
	switch score.Level(r.LadderLevel) {
	case score.LevelNoCardNumber:
		d = append(d, "No listing matched the card number; listings with other numbers are included.")
	case score.LevelNoGrade:
		d = append(d, "No listing matched the grade; listings with other grades are included.")
	case score.LevelNoInsertExclusion:
		d = append(d, "Only insert or sub-set listings matched; they may price differently from the base card.")
	}
	if r.ExactCount == 0 {
		d = append(d, "No listing matched every detail you specified; showing close matches.")
	}
	return d
}
