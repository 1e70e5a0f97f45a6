// Package query turns free-text and structured card lookups into a
// domain.StructuredQuery plus the set of constraints the user stated
// explicitly.
//
// Free text runs through an ordered pipeline of rules (year, brand and line,
// grade, card number, parallel, flags, player). Each rule consumes the
// tokens it recognizes so later rules never see them twice.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// Parsed is the normalizer output.
type Parsed struct {
	Query  domain.StructuredQuery   `json:"query"`
	Locked domain.LockedConstraints `json:"locked"`
	Tokens []string                 `json:"tokens"`
}

type rule struct {
	name  string
	apply func(*state)
}

// pipeline is the free-text rule order. Later rules only see what earlier
// rules left behind.
var pipeline = []rule{
	{name: "year", apply: ruleYear},
	{name: "brand_line", apply: ruleBrandLine},
	{name: "grade", apply: ruleGrade},
	{name: "card_number", apply: ruleCardNumber},
	{name: "parallel", apply: ruleParallel},
	{name: "flags", apply: ruleFlags},
	{name: "player", apply: rulePlayer},
}

// Parse normalizes free text.
func Parse(text string) Parsed {
	s := newState(text)
	for _, r := range pipeline {
		r.apply(s)
	}
	return s.parsed()
}

// FromRequest normalizes a structured lookup. When the request carries no
// player but has a free-text query, the query is parsed first and the
// structured fields are layered on top. Structured fields lock only when
// their text passes the same explicit-token rule as free text.
func FromRequest(req domain.LookupRequest) Parsed {
	var s *state
	if strings.TrimSpace(req.Player) == "" && strings.TrimSpace(req.Query) != "" {
		s = newState(req.Query)
		for _, r := range pipeline {
			r.apply(s)
		}
	} else {
		s = newState("")
	}

	if p := collapse(req.Player); p != "" {
		s.q.Player = p
		s.locked.Player = true
	}
	if req.Year != "" {
		applyField(s, req.Year, ruleYear)
	}
	if req.Set != "" {
		applyField(s, req.Set, ruleBrandLine)
		if s.q.Set == "" {
			s.q.Set = titleCase(collapse(req.Set))
		}
	}
	if req.Grade != "" {
		applyField(s, req.Grade, ruleGrade)
	}
	if n := strings.TrimSpace(req.CardNumber); n != "" {
		applyField(s, "#"+strings.TrimLeft(n, "# "), ruleCardNumber)
	}
	if req.ParallelType != "" {
		applyField(s, req.ParallelType, ruleParallel)
		if s.q.Parallel == "" {
			s.q.Parallel = titleCase(taxonomy.NormalizeParallel(req.ParallelType))
		}
	}

	if req.SerialNumber != "" {
		s.q.SerialNumber = normalizeSerial(req.SerialNumber)
	}
	if req.Variation != "" {
		s.q.Variation = collapse(req.Variation)
	}
	s.q.Autograph = s.q.Autograph || req.Autograph
	s.q.Relic = s.q.Relic || req.Relic
	s.q.Rookie = s.q.Rookie || req.Rookie
	for _, k := range req.Keywords {
		if k = collapse(k); k != "" && !slices.Contains(s.q.Keywords, k) {
			s.q.Keywords = append(s.q.Keywords, k)
		}
	}
	if req.Limit > 0 {
		s.q.Limit = req.Limit
	}

	tokens := s.tokens
	for _, f := range []string{req.Player, req.Year, req.Set, req.Grade, req.CardNumber, req.ParallelType} {
		tokens = append(tokens, strings.Fields(taxonomy.Normalize(f))...)
	}
	s.tokens = tokens
	return s.parsed()
}

// applyField runs one rule over a single structured field, keeping whatever
// the rule extracted on the shared state.
func applyField(s *state, text string, fn func(*state)) {
	field := newState(text)
	field.q = s.q
	field.locked = s.locked
	fn(field)
	s.q = field.q
	s.locked = field.locked
}

// CacheKey derives a stable key for a query and result limit: a canonical
// lowercase field-ordered string, hashed.
func CacheKey(q domain.StructuredQuery, limit int) string {
	sum := sha256.Sum256([]byte(Canonical(q, limit)))
	return hex.EncodeToString(sum[:])
}

// Canonical renders the unhashed cache key.
func Canonical(q domain.StructuredQuery, limit int) string {
	year := ""
	if q.Year > 0 {
		year = strconv.Itoa(q.Year)
	}
	kw := make([]string, 0, len(q.Keywords))
	for _, k := range q.Keywords {
		kw = append(kw, taxonomy.Normalize(k))
	}
	slices.Sort(kw)

	return strings.Join([]string{
		"player=" + taxonomy.Normalize(q.Player),
		"year=" + year,
		"set=" + taxonomy.Normalize(q.Set),
		"grade=" + strings.ToLower(q.Grade.String()),
		"parallel=" + taxonomy.NormalizeParallel(q.Parallel),
		"number=" + strings.ToLower(strings.TrimLeft(q.CardNumber, "#")),
		"keywords=" + strings.Join(kw, ","),
		"serial=" + strings.TrimLeft(q.SerialNumber, "/"),
		"flags=" + flags(q),
		fmt.Sprintf("limit=%d", limit),
	}, "|")
}

func flags(q domain.StructuredQuery) string {
	var f []string
	if q.Autograph {
		f = append(f, "auto")
	}
	if q.Relic {
		f = append(f, "relic")
	}
	if q.Rookie {
		f = append(f, "rookie")
	}
	if q.Variation != "" {
		f = append(f, taxonomy.Normalize(q.Variation))
	}
	return strings.Join(f, ",")
}

// Attributes extracts listing attributes from a title with the same rules
// used for queries. The line comes from classifying the whole title, which
// honors forbidden terms, rather than from the keyword dictionary.
func Attributes(title string) domain.CandidateAttributes {
	p := Parse(title)
	return domain.CandidateAttributes{
		Year:       p.Query.Year,
		Brand:      p.Query.Brand,
		Line:       taxonomy.Slug(title),
		Parallel:   p.Query.Parallel,
		Grade:      p.Query.Grade,
		CardNumber: p.Query.CardNumber,
		Player:     p.Query.Player,
		Rookie:     p.Query.Rookie,
	}
}

// titleCase builds a Caser per call; Casers are stateful and not safe to
// share between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MatchPlayer reports whether every token of player appears in title as a
// whole word. Initials written with periods ("C.J.") match the compact
// form ("CJ").
func MatchPlayer(title, player string) bool {
	want := joinInitials(taxonomy.Normalize(player))
	if want == "" {
		return true
	}
	norm := joinInitials(taxonomy.Normalize(title))
	for _, tok := range strings.Fields(want) {
		if !taxonomy.ContainsTerm(norm, tok) {
			return false
		}
	}
	return true
}

// joinInitials merges runs of single-letter words: "c j stroud" becomes
// "cj stroud".
func joinInitials(norm string) string {
	fields := strings.Fields(norm)
	out := make([]string, 0, len(fields))
	run := ""
	for _, f := range fields {
		if len([]rune(f)) == 1 {
			run += f
			continue
		}
		if run != "" {
			out = append(out, run)
			run = ""
		}
		out = append(out, f)
	}
	if run != "" {
		out = append(out, run)
	}
	return strings.Join(out, " ")
}
