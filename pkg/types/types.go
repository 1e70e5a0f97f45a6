// Package domain defines the core business types for the card price tracker.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ListingType represents the marketplace listing format.
type ListingType string

// Listing type constants.
const (
	ListingAuction   ListingType = "auction"
	ListingBuyItNow  ListingType = "buy_it_now"
	ListingBestOffer ListingType = "best_offer"
)

// Source identifies where a candidate listing came from.
type Source string

// Source constants.
const (
	SourceAPI    Source = "api"
	SourceScrape Source = "scrape"
)

// Grade is a professional grading result such as "PSA 10" or "BGS 9.5".
type Grade struct {
	Grader string  `json:"grader"`
	Value  float64 `json:"value"`
}

// IsZero reports whether the grade is unset.
func (g Grade) IsZero() bool {
	return g.Grader == "" && g.Value == 0
}

// String renders the grade in canonical form ("PSA 10", "BGS 9.5").
func (g Grade) String() string {
	if g.IsZero() {
		return ""
	}
	return strings.ToUpper(g.Grader) + " " + strconv.FormatFloat(g.Value, 'f', -1, 64)
}

// Equal compares grader and value case-insensitively.
func (g Grade) Equal(o Grade) bool {
	return strings.EqualFold(g.Grader, o.Grader) && g.Value == o.Value
}

// StructuredQuery is a card lookup after normalization. It is a value type;
// each search pass works on its own copy.
type StructuredQuery struct {
	Player       string   `json:"player"`
	Year         int      `json:"year,omitempty"`
	Set          string   `json:"set,omitempty"`
	Line         string   `json:"line,omitempty"` // taxonomy slug resolved from Set
	Brand        string   `json:"brand,omitempty"`
	Grade        Grade    `json:"grade,omitzero"`
	CardNumber   string   `json:"card_number,omitempty"`
	Parallel     string   `json:"parallel,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Variation    string   `json:"variation,omitempty"`
	Autograph    bool     `json:"autograph,omitempty"`
	Relic        bool     `json:"relic,omitempty"`
	Rookie       bool     `json:"rookie,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// Constraint names one lockable query field.
type Constraint string

// Constraint constants.
const (
	ConstraintYear       Constraint = "year"
	ConstraintBrand      Constraint = "brand"
	ConstraintLine       Constraint = "line"
	ConstraintPlayer     Constraint = "player"
	ConstraintCardNumber Constraint = "card_number"
	ConstraintParallel   Constraint = "parallel"
	ConstraintGrader     Constraint = "grader"
	ConstraintGrade      Constraint = "grade"
)

// LockedConstraints records which fields the user stated explicitly.
// Unlocked fields are advisory only.
type LockedConstraints struct {
	Year       bool `json:"year"`
	Brand      bool `json:"brand"`
	Line       bool `json:"line"`
	Player     bool `json:"player"`
	CardNumber bool `json:"card_number"`
	Parallel   bool `json:"parallel"`
	Grader     bool `json:"grader"`
	Grade      bool `json:"grade"`
}

// Has reports whether c is locked.
func (l LockedConstraints) Has(c Constraint) bool {
	switch c {
	case ConstraintYear:
		return l.Year
	case ConstraintBrand:
		return l.Brand
	case ConstraintLine:
		return l.Line
	case ConstraintPlayer:
		return l.Player
	case ConstraintCardNumber:
		return l.CardNumber
	case ConstraintParallel:
		return l.Parallel
	case ConstraintGrader:
		return l.Grader
	case ConstraintGrade:
		return l.Grade
	default:
		return false
	}
}

// CandidateAttributes are extracted from a listing title at ingestion or
// during classification.
type CandidateAttributes struct {
	Year       int    `json:"year,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Line       string `json:"line,omitempty"`
	Parallel   string `json:"parallel,omitempty"`
	Grade      Grade  `json:"grade,omitzero"`
	CardNumber string `json:"card_number,omitempty"`
	Player     string `json:"player,omitempty"`
	Rookie     bool   `json:"rookie,omitempty"`
}

// ListingCandidate is one marketplace offer. It lives only for the duration
// of a single lookup.
type ListingCandidate struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Price        float64             `json:"price"`
	Currency     string              `json:"currency"`
	ShippingCost *float64            `json:"shipping_cost,omitempty"`
	Condition    string              `json:"condition,omitempty"`
	URL          string              `json:"url"`
	ImageURL     string              `json:"image_url,omitempty"`
	ListingType  ListingType         `json:"listing_type"`
	Source       Source              `json:"source"`
	Attributes   CandidateAttributes `json:"attributes"`
}

// TotalPrice returns the price including shipping.
func (c *ListingCandidate) TotalPrice() float64 {
	total := c.Price
	if c.ShippingCost != nil {
		total += *c.ShippingCost
	}
	return total
}

// ScoredCandidate is a candidate with its relevance score.
type ScoredCandidate struct {
	Candidate  ListingCandidate `json:"candidate"`
	Score      int              `json:"score"`
	Confidence float64          `json:"confidence"`
	Violations []Constraint     `json:"violations,omitempty"`
}

// Exact reports whether no locked constraint is violated.
func (s *ScoredCandidate) Exact() bool {
	return len(s.Violations) == 0
}

// ConfidenceTier is the coarse reliability of a price estimate.
type ConfidenceTier string

// Confidence tier constants.
const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// MarketAsk summarizes cleaned active asking prices.
type MarketAsk struct {
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	P20    float64 `json:"p20"`
	P80    float64 `json:"p80"`
}

// PriceEstimate is the terminal pricing output. Either Available with the
// market and range fields set, or unavailable with a Reason.
type PriceEstimate struct {
	Available   bool           `json:"pricing_available"`
	Market      *MarketAsk     `json:"market_ask,omitempty"`
	Low         float64        `json:"low,omitempty"`
	High        float64        `json:"high,omitempty"`
	DiscountPct float64        `json:"discount_pct,omitempty"`
	Confidence  ConfidenceTier `json:"confidence,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Notes       []string       `json:"notes"`
}

// Midpoint returns the center of the estimated range (the CMV).
func (p *PriceEstimate) Midpoint() float64 {
	if !p.Available {
		return 0
	}
	return (p.Low + p.High) / 2
}

// LookupRequest is the inbound card lookup.
type LookupRequest struct {
	Query        string   `json:"query,omitempty"        doc:"Free-text card query; parsed when player is empty" example:"2023 Panini Prizm CJ Stroud Silver PSA 10"`
	Player       string   `json:"player,omitempty"       doc:"Player name"                                       example:"CJ Stroud"`
	Year         string   `json:"year,omitempty"         doc:"Card year or season"                               example:"2023"`
	Set          string   `json:"set,omitempty"          doc:"Product line / set name"                           example:"Panini Prizm"`
	Grade        string   `json:"grade,omitempty"        doc:"Grader and grade"                                  example:"PSA 10"`
	CardNumber   string   `json:"card_number,omitempty"  doc:"Card number"                                       example:"339"`
	ParallelType string   `json:"parallel_type,omitempty" doc:"Parallel or variant"                              example:"Silver Prizm"`
	SerialNumber string   `json:"serial_number,omitempty" doc:"Print run, e.g. /99"`
	Variation    string   `json:"variation,omitempty"    doc:"Variation name"`
	Autograph    bool     `json:"autograph,omitempty"    doc:"Autographed card"`
	Relic        bool     `json:"relic,omitempty"        doc:"Memorabilia card"`
	Rookie       bool     `json:"rookie,omitempty"       doc:"Require a rookie designation"`
	Keywords     []string `json:"keywords,omitempty"     doc:"Extra search keywords"`
	Limit        int      `json:"limit,omitempty"        doc:"Maximum items returned" minimum:"0" maximum:"100"`
}

// ForSale summarizes the listings shown to the user.
type ForSale struct {
	Count  int                `json:"count"`
	Low    float64            `json:"low"`
	Median float64            `json:"median"`
	High   float64            `json:"high"`
	Items  []ListingCandidate `json:"items"`
}

// LookupResult is the complete response shape for a lookup. It is always
// fully populated, even when no listings were found.
type LookupResult struct {
	Query              string            `json:"query"`
	NormalizedQuery    StructuredQuery   `json:"normalized_query"`
	Locked             LockedConstraints `json:"locked"`
	ForSale            ForSale           `json:"for_sale"`
	EstimatedSaleRange PriceEstimate     `json:"estimated_sale_range"`
	Disclaimers        []string          `json:"disclaimers"`
	PassUsed           string            `json:"pass_used"`
	TotalPasses        int               `json:"total_passes"`
	LadderLevel        int               `json:"ladder_level"`
	ExactCount         int               `json:"exact_count"`
	CloseCount         int               `json:"close_count"`
	// Exact holds the best listings violating no locked constraint, Close
	// the best violating at least one. Each is capped at the item limit.
	Exact              []ScoredCandidate `json:"exact"`
	Close              []ScoredCandidate `json:"close"`
	Stale              bool              `json:"stale"`
}

// Describe renders a compact human-readable form of the query.
func (q *StructuredQuery) Describe() string {
	parts := make([]string, 0, 6)
	if q.Year > 0 {
		parts = append(parts, strconv.Itoa(q.Year))
	}
	if q.Set != "" {
		parts = append(parts, q.Set)
	}
	parts = append(parts, q.Player)
	if q.Parallel != "" {
		parts = append(parts, q.Parallel)
	}
	if q.CardNumber != "" {
		parts = append(parts, fmt.Sprintf("#%s", q.CardNumber))
	}
	if !q.Grade.IsZero() {
		parts = append(parts, q.Grade.String())
	}
	return strings.Join(parts, " ")
}
