// Package estimate turns ranked listing candidates into a directional price
// range. Inputs are active asking prices, so the range is discounted toward
// where sales plausibly settle.
package estimate

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/donaldgifford/card-price-tracker/pkg/query"
	score "github.com/donaldgifford/card-price-tracker/pkg/scorer"
	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// Discount model. The total discount is BaseDiscount plus the spread, size
// and auction components, clamped to [MinDiscount, MaxDiscount].
const (
	BaseDiscount      = 0.12
	MaxSpreadDiscount = 0.12 // reached at a spread ratio of 1
	MaxSizeDiscount   = 0.08 // reached at SizeSaturation listings
	SizeSaturation    = 50
	AuctionDiscount   = 0.05 // applied when auctions exceed AuctionShare
	AuctionShare      = 0.5
	MinDiscount       = 0.10
	MaxDiscount       = 0.30

	// RangeHalfWidth is the distance of low and high from the discounted
	// median, as a fraction of the median.
	RangeHalfWidth = 0.05
)

// Data guards and outlier rules.
const (
	MinListings     = 2
	IQRMinSample    = 8
	IQRMultiplier   = 1.5
	MedianBandLow   = 0.3
	MedianBandHigh  = 3.0
	LowPercentile   = 0.20
	HighPercentile  = 0.80
	CurrencyDecimal = 2
)

// Confidence tiers and the widening applied to each.
const (
	HighMinCount       = 5
	HighMaxSpread      = 0.4
	MediumMinCount     = 3
	MediumMaxSpread    = 0.7
	MediumWidening     = 1.2
	LowWidening        = 2.0
	ThinSampleNoteSize = 5
)

// ActiveListingsDisclaimer accompanies every lookup result.
const ActiveListingsDisclaimer = "Estimated from active listings (asking prices), not completed sales. " +
	"Actual sale prices are typically lower."

const broadenNote = "Try removing the card number, grade or parallel to broaden the search."

// Signals are the query fields the estimator re-checks candidates against.
type Signals struct {
	Player   string
	Year     int
	Line     string
	Parallel string
	Grade    domain.Grade
	Rookie   bool
}

// SignalsFrom copies the relevant fields of q.
func SignalsFrom(q domain.StructuredQuery) Signals {
	return Signals{
		Player:   q.Player,
		Year:     q.Year,
		Line:     q.Line,
		Parallel: q.Parallel,
		Grade:    q.Grade,
		Rookie:   q.Rookie,
	}
}

// Estimate prices cands. It never fails: insufficient data yields an
// unavailable estimate with a reason.
func Estimate(cands []domain.ListingCandidate, sig Signals) domain.PriceEstimate {
	relevant := Relevant(cands, sig)
	if len(relevant) == 0 {
		return Unavailable("no relevant listings found", broadenNote)
	}

	bucket, graded := split(relevant, sig.Grade)
	if len(bucket) < MinListings {
		reason := fmt.Sprintf("only %d relevant listing(s); at least %d needed", len(bucket), MinListings)
		if !sig.Grade.IsZero() && len(bucket) == 0 {
			reason = fmt.Sprintf("no %s listings found", sig.Grade)
		}
		return Unavailable(reason, broadenNote)
	}

	prices := make([]float64, len(bucket))
	auctions := 0
	for i := range bucket {
		prices[i] = bucket[i].Price
		if bucket[i].ListingType == domain.ListingAuction {
			auctions++
		}
	}

	cleaned := RemoveOutliers(prices)
	if len(cleaned) < MinListings {
		return Unavailable(
			fmt.Sprintf("only %d listing(s) left after removing outliers; at least %d needed", len(cleaned), MinListings),
			broadenNote,
		)
	}

	median := Percentile(cleaned, 0.5)
	p20 := Percentile(cleaned, LowPercentile)
	p80 := Percentile(cleaned, HighPercentile)
	spread := (p80 - p20) / median

	auctionHeavy := float64(auctions)/float64(len(bucket)) > AuctionShare
	discount := Discount(spread, len(cleaned), auctionHeavy)
	tier := Tier(len(cleaned), spread)
	low, high := Range(median, discount, tier)

	var notes []string
	notes = append(notes, fmt.Sprintf("Based on %d active listing(s).", len(cleaned)))
	if removed := len(prices) - len(cleaned); removed > 0 {
		notes = append(notes, fmt.Sprintf("Excluded %d outlier price(s).", removed))
	}
	if graded && sig.Grade.IsZero() {
		notes = append(notes, "No raw listings found; the range uses graded copies.")
	}
	if auctionHeavy {
		notes = append(notes, "Most listings are auctions; current bids may understate final prices.")
	}
	if len(cleaned) < ThinSampleNoteSize {
		notes = append(notes, "Few listings available; treat the range as rough.")
	}

	return Available(domain.MarketAsk{
		Count:  len(cleaned),
		Median: Round(median),
		P20:    Round(p20),
		P80:    Round(p80),
	}, low, high, discount, tier, notes...)
}

// Available builds an available estimate. Money fields are rounded to
// currency precision.
func Available(
	m domain.MarketAsk,
	low, high, discount float64,
	tier domain.ConfidenceTier,
	notes ...string,
) domain.PriceEstimate {
	return domain.PriceEstimate{
		Available:   true,
		Market:      &m,
		Low:         Round(low),
		High:        Round(high),
		DiscountPct: math.Round(discount*10000) / 100,
		Confidence:  tier,
		Notes:       append([]string{}, notes...),
	}
}

// Unavailable builds an estimate carrying only a reason and notes.
func Unavailable(reason string, notes ...string) domain.PriceEstimate {
	return domain.PriceEstimate{
		Reason: reason,
		Notes:  append([]string{}, notes...),
	}
}

// Relevant re-applies the identity checks to cands: junk, player, year
// conflict, product line, parallel and the rookie requirement.
func Relevant(cands []domain.ListingCandidate, sig Signals) []domain.ListingCandidate {
	var profile taxonomy.Profile
	hasLine := false
	if sig.Line != "" {
		profile, hasLine = taxonomy.ProfileFor(sig.Line)
	}

	out := make([]domain.ListingCandidate, 0, len(cands))
	for i := range cands {
		c := cands[i]
		attrs := attributes(&c)
		switch {
		case score.IsJunk(c.Title):
		case !query.MatchPlayer(c.Title, sig.Player):
		case sig.Year > 0 && attrs.Year != 0 && attrs.Year != sig.Year:
		case hasLine && !profile.Matches(c.Title):
		case !taxonomy.MatchParallel(c.Title, sig.Parallel):
		case sig.Rookie && !attrs.Rookie:
		default:
			out = append(out, c)
		}
	}
	return out
}

// split returns the bucket to price and whether it is the graded one. With
// a target grade only exact-grade listings qualify.
func split(cands []domain.ListingCandidate, target domain.Grade) ([]domain.ListingCandidate, bool) {
	var raw, graded []domain.ListingCandidate
	for i := range cands {
		g := attributes(&cands[i]).Grade
		switch {
		case g.IsZero():
			raw = append(raw, cands[i])
		case target.IsZero() || g.Equal(target):
			graded = append(graded, cands[i])
		}
	}
	if !target.IsZero() {
		return graded, true
	}
	if len(raw) > 0 {
		return raw, false
	}
	return graded, true
}

// RemoveOutliers drops extreme prices: an IQR fence for IQRMinSample or more
// prices, a band around the median below that. The filter repeats until
// nothing changes, so its output is a fixed point. The input is not
// modified and the output is sorted.
func RemoveOutliers(prices []float64) []float64 {
	cur := slices.Clone(prices)
	slices.Sort(cur)
	for len(cur) >= MinListings {
		next := outlierPass(cur)
		if len(next) == len(cur) {
			break
		}
		cur = next
	}
	return cur
}

func outlierPass(sorted []float64) []float64 {
	var lo, hi float64
	if len(sorted) >= IQRMinSample {
		q1 := Percentile(sorted, 0.25)
		q3 := Percentile(sorted, 0.75)
		iqr := q3 - q1
		lo, hi = q1-IQRMultiplier*iqr, q3+IQRMultiplier*iqr
	} else {
		m := Percentile(sorted, 0.5)
		lo, hi = MedianBandLow*m, MedianBandHigh*m
	}

	out := make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if p >= lo && p <= hi {
			out = append(out, p)
		}
	}
	return out
}

// Percentile returns the p-th percentile (0..1) of sorted prices using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return lerp(rank, float64(lo), float64(hi), sorted[lo], sorted[hi])
}

// Discount is the ask-to-sale discount for a sample.
func Discount(spread float64, n int, auctionHeavy bool) float64 {
	d := BaseDiscount
	d += MaxSpreadDiscount * clamp(spread, 0, 1)
	d += MaxSizeDiscount * float64(min(n, SizeSaturation)) / SizeSaturation
	if auctionHeavy {
		d += AuctionDiscount
	}
	return clamp(d, MinDiscount, MaxDiscount)
}

// Tier grades how far the range can be trusted.
func Tier(n int, spread float64) domain.ConfidenceTier {
	switch {
	case n < HighMinCount:
		return domain.ConfidenceLow
	case spread < HighMaxSpread:
		return domain.ConfidenceHigh
	case n >= MediumMinCount && spread < MediumMaxSpread:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// Range builds the estimated sale range around the discounted median and
// widens it about its midpoint for lower tiers.
func Range(median, discount float64, tier domain.ConfidenceTier) (float64, float64) {
	low := median * (1 - discount - RangeHalfWidth)
	high := median * (1 - discount + RangeHalfWidth)

	factor := 1.0
	switch tier {
	case domain.ConfidenceMedium:
		factor = MediumWidening
	case domain.ConfidenceLow:
		factor = LowWidening
	}
	mid := (low + high) / 2
	half := (high - low) / 2 * factor
	return Round(math.Max(0, mid-half)), Round(mid + half)
}

func attributes(c *domain.ListingCandidate) domain.CandidateAttributes {
	if c.Attributes != (domain.CandidateAttributes{}) {
		return c.Attributes
	}
	return query.Attributes(c.Title)
}

// Round rounds v to currency precision.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(CurrencyDecimal).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// lerp linearly interpolates between two boundaries.
func lerp(val, minVal, maxVal, minOut, maxOut float64) float64 {
	if maxVal == minVal {
		return minOut
	}
	t := (val - minVal) / (maxVal - minVal)
	return minOut + t*(maxOut-minOut)
}
