package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/card-price-tracker/internal/cache"
	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/metrics"
	"github.com/donaldgifford/card-price-tracker/pkg/fallback"
	"github.com/donaldgifford/card-price-tracker/pkg/query"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// Pass names, strictest first.
const (
	PassStrict  = "strict"
	PassBroad   = "broad"
	PassMinimal = "minimal"
)

// DefaultMinResults is how many candidates a pass needs to end the cascade.
const DefaultMinResults = 3

// Pass is one search attempt with its own copy of the query.
type Pass struct {
	Name  string
	Query domain.StructuredQuery
}

// Passes derives the cascade for q: the full query, the query without its
// year, and the identity fields only (player, line, grade, parallel, card
// number).
func Passes(q domain.StructuredQuery) []Pass {
	broad := q
	broad.Year = 0

	minimal := domain.StructuredQuery{
		Player:     q.Player,
		Set:        q.Set,
		Line:       q.Line,
		Brand:      q.Brand,
		Grade:      q.Grade,
		Parallel:   q.Parallel,
		CardNumber: q.CardNumber,
		Limit:      q.Limit,
	}

	return []Pass{
		{Name: PassStrict, Query: q},
		{Name: PassBroad, Query: broad},
		{Name: PassMinimal, Query: minimal},
	}
}

// fetchResult is what one pass produced.
type fetchResult struct {
	Candidates []domain.ListingCandidate
	Stale      bool
	Source     string
}

// cascade is the outcome of the pass cascade.
type cascade struct {
	fetchResult
	Pass      string
	Attempted int
}

// runPasses runs the cascade through fallback.Run: the first pass with at
// least minResults candidates wins, otherwise the pass with the most
// candidates, otherwise the strict pass.
func (eng *Engine) runPasses(ctx context.Context, q domain.StructuredQuery) (cascade, error) {
	passes := Passes(q)
	results := make([]fetchResult, len(passes))

	levels := make([]fallback.Level[[]domain.ListingCandidate], 0, len(passes))
	for i, p := range passes {
		levels = append(levels, fallback.Level[[]domain.ListingCandidate]{
			Name: p.Name,
			Run: func(ctx context.Context) ([]domain.ListingCandidate, error) {
				metrics.SearchPassesTotal.WithLabelValues(p.Name).Inc()
				res, err := eng.runPass(ctx, p)
				if err != nil {
					return nil, err
				}
				results[i] = res
				return res.Candidates, nil
			},
		})
	}

	out, err := fallback.Run(ctx, levels, fallback.Policy[[]domain.ListingCandidate]{
		Accept: fallback.AtLeast[domain.ListingCandidate](eng.minResults),
		Better: fallback.MoreItems[domain.ListingCandidate],
	})
	if err != nil {
		return cascade{}, err
	}

	return cascade{
		fetchResult: results[out.Index],
		Pass:        out.Name,
		Attempted:   out.Attempted,
	}, nil
}

// runPass serves one pass from the listings cache or the listing sources.
// Only configuration errors and cancellation are returned; every other
// failure degrades to the stale cache entry, or to an empty result.
func (eng *Engine) runPass(ctx context.Context, p Pass) (fetchResult, error) {
	ctx, span := tracer.Start(ctx, "engine.pass")
	defer span.End()
	span.SetAttributes(attribute.String("pass", p.Name))

	// Raw fetches do not depend on the output limit.
	key := query.CacheKey(p.Query, 0)

	cached, status := eng.listings.Get(key)
	span.SetAttributes(attribute.String("cache.status", status.String()))
	if status == cache.Fresh {
		return fetchResult{Candidates: cached, Source: "cache"}, nil
	}

	ch := eng.group.DoChan(key, func() (any, error) {
		return eng.fetch(ctx, p)
	})

	select {
	case <-ctx.Done():
		return fetchResult{}, ctx.Err()
	case r := <-ch:
		if r.Err == nil {
			res := r.Val.(fetchResult)
			eng.listings.Set(key, res.Candidates)
			span.SetAttributes(attribute.Int("candidates", len(res.Candidates)))
			return res, nil
		}
		if ebay.IsConfigError(r.Err) {
			span.RecordError(r.Err)
			span.SetStatus(codes.Error, r.Err.Error())
			return fetchResult{}, r.Err
		}
		if err := ctx.Err(); err != nil {
			return fetchResult{}, err
		}
		eng.log.Warn("search pass degraded",
			"pass", p.Name,
			"stale_available", status == cache.Stale,
			"error", r.Err,
		)
		span.RecordError(r.Err)
	}

	if status == cache.Stale {
		return fetchResult{Candidates: cached, Stale: true, Source: "cache"}, nil
	}
	return fetchResult{}, nil
}

// fetch asks the primary source, then the fallback source when the primary
// failed for a reason other than configuration. Concurrent passes for the
// same key share one fetch through singleflight; it runs under the first
// caller's context, so another caller's cancellation only degrades the pass
// for the callers still waiting.
func (eng *Engine) fetch(ctx context.Context, p Pass) (fetchResult, error) {
	if eng.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.timeout)
		defer cancel()
	}

	cands, err := eng.primary.Fetch(ctx, p.Query)
	if err == nil {
		return fetchResult{Candidates: cands, Source: eng.primary.Name()}, nil
	}
	if ebay.IsConfigError(err) || eng.secondary == nil {
		return fetchResult{}, fmt.Errorf("%s: %w", eng.primary.Name(), err)
	}

	eng.log.Info("primary source failed, trying fallback source",
		"pass", p.Name,
		"primary", eng.primary.Name(),
		"fallback", eng.secondary.Name(),
		"error", err,
	)
	cands, ferr := eng.secondary.Fetch(ctx, p.Query)
	if ferr != nil {
		return fetchResult{}, errors.Join(
			fmt.Errorf("%s: %w", eng.primary.Name(), err),
			fmt.Errorf("%s: %w", eng.secondary.Name(), ferr),
		)
	}
	return fetchResult{Candidates: cands, Source: eng.secondary.Name()}, nil
}
