// Package score filters listing candidates against a structured query and
// ranks the survivors.
//
// Filtering runs as a relaxation ladder. Product line, parallel and player
// are identity-defining and enforced at every level; card number, grade and
// the insert exclusion are dropped one at a time, and the ladder stops at the
// first level with any survivor.
package score

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/donaldgifford/card-price-tracker/pkg/fallback"
	"github.com/donaldgifford/card-price-tracker/pkg/query"
	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// Rubric points. Positive entries only count when the query asks for the
// matching field.
const (
	PointsGrade         = 10
	PointsLine          = 8
	PointsCardNumber    = 6
	PenaltyNoCardNumber = -3
	PointsParallel      = 5
	PointsRookie        = 4
	PenaltyConfusable   = -8
	PenaltyJunk         = -5
)

// MaxPoints is the rubric total when every field is requested.
const MaxPoints = PointsGrade + PointsLine + PointsCardNumber + PointsParallel + PointsRookie

// ExactMatchConfidence is the confidence an exact match reaches. Candidates
// violating a locked constraint are capped just below it.
const ExactMatchConfidence = 0.8

const violationCap = ExactMatchConfidence - 0.01

// Level is one rung of the relaxation ladder.
type Level int

// Ladder levels, strictest first.
const (
	LevelStrict            Level = iota // line, parallel, card number, grade, inserts
	LevelNoCardNumber                   // card number relaxed
	LevelNoGrade                        // grade relaxed
	LevelNoInsertExclusion              // insert exclusion relaxed
)

var levelNames = [...]string{"L0", "L1", "L2", "L3"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

var (
	junkTerms   = []string{"lot", "lots", "break", "breaks", "digital", "custom", "reprint", "facsimile", "proxy", "novelty"}
	rookieTerms = []string{"rc", "rookie", "rated rookie", "1st bowman", "first bowman"}
)

// Ranked is the ranker output.
type Ranked struct {
	// Candidates holds every survivor, best first.
	Candidates []domain.ScoredCandidate
	// Exact violates no locked constraint; Close violates at least one.
	Exact []domain.ScoredCandidate
	Close []domain.ScoredCandidate
	Level Level
}

// Rank filters cands through the ladder and scores the survivors of the
// first level that keeps any. Ties keep their input order.
func Rank(
	q domain.StructuredQuery,
	locked domain.LockedConstraints,
	cands []domain.ListingCandidate,
) Ranked {
	f := newFilter(q)

	levels := make([]fallback.Level[[]domain.ListingCandidate], 0, len(levelNames))
	for l := LevelStrict; l <= LevelNoInsertExclusion; l++ {
		levels = append(levels, fallback.Level[[]domain.ListingCandidate]{
			Name: l.String(),
			Run: func(context.Context) ([]domain.ListingCandidate, error) {
				return f.apply(cands, l), nil
			},
		})
	}

	out, _ := fallback.Run(context.Background(), levels, fallback.Policy[[]domain.ListingCandidate]{
		Accept: fallback.AtLeast[domain.ListingCandidate](1),
	})

	r := Ranked{Level: Level(out.Attempted - 1)}
	r.Candidates = make([]domain.ScoredCandidate, 0, len(out.Value))
	for i := range out.Value {
		r.Candidates = append(r.Candidates, Score(q, locked, out.Value[i]))
	}
	slices.SortStableFunc(r.Candidates, func(a, b domain.ScoredCandidate) int {
		return b.Score - a.Score
	})
	for _, sc := range r.Candidates {
		if sc.Exact() {
			r.Exact = append(r.Exact, sc)
		} else {
			r.Close = append(r.Close, sc)
		}
	}
	return r
}

// Score applies the rubric to one candidate and records locked-constraint
// violations.
func Score(
	q domain.StructuredQuery,
	locked domain.LockedConstraints,
	c domain.ListingCandidate,
) domain.ScoredCandidate {
	attrs := attributes(&c)
	norm := taxonomy.Normalize(c.Title)

	s := 0
	if !q.Grade.IsZero() && attrs.Grade.Equal(q.Grade) {
		s += PointsGrade
	}
	if q.Line != "" {
		if p, ok := taxonomy.ProfileFor(q.Line); ok && p.Matches(c.Title) {
			s += PointsLine
		}
		if attrs.Line != "" && attrs.Line != q.Line && taxonomy.Confusable(attrs.Line, q.Line) {
			s += PenaltyConfusable
		}
	}
	if q.CardNumber != "" {
		switch {
		case attrs.CardNumber == "":
			s += PenaltyNoCardNumber
		case sameNumber(attrs.CardNumber, q.CardNumber):
			s += PointsCardNumber
		}
	}
	if q.Parallel != "" && taxonomy.MatchParallel(c.Title, q.Parallel) {
		s += PointsParallel
	}
	if q.Rookie && containsAny(norm, rookieTerms) {
		s += PointsRookie
	}
	if IsJunk(c.Title) {
		s += PenaltyJunk
	}

	v := Violations(q, locked, c)
	conf := confidence(s, MaxScore(q))
	if len(v) > 0 && conf > violationCap {
		conf = violationCap
	}

	return domain.ScoredCandidate{
		Candidate:  c,
		Score:      s,
		Confidence: conf,
		Violations: v,
	}
}

// MaxScore is the best rubric total reachable for q.
func MaxScore(q domain.StructuredQuery) int {
	m := 0
	if !q.Grade.IsZero() {
		m += PointsGrade
	}
	if q.Line != "" {
		m += PointsLine
	}
	if q.CardNumber != "" {
		m += PointsCardNumber
	}
	if q.Parallel != "" {
		m += PointsParallel
	}
	if q.Rookie {
		m += PointsRookie
	}
	return m
}

// confidence maps a score onto [0, 1]. A query that requests nothing the
// rubric rewards starts at full confidence and only loses to penalties.
func confidence(score, maxScore int) float64 {
	var c float64
	if maxScore > 0 {
		c = float64(score) / float64(maxScore)
	} else {
		c = 1 + float64(score)/float64(MaxPoints)
	}
	return math.Max(0, math.Min(1, c))
}

// Violations lists the locked constraints c conflicts with. A field the
// title does not mention is not a conflict, except for grade: an ungraded
// listing never satisfies a locked grade.
func Violations(
	q domain.StructuredQuery,
	locked domain.LockedConstraints,
	c domain.ListingCandidate,
) []domain.Constraint {
	attrs := attributes(&c)
	var v []domain.Constraint

	if locked.Year && q.Year > 0 && attrs.Year != 0 && attrs.Year != q.Year {
		v = append(v, domain.ConstraintYear)
	}
	if locked.Brand && q.Brand != "" && attrs.Brand != "" && !strings.EqualFold(attrs.Brand, q.Brand) {
		v = append(v, domain.ConstraintBrand)
	}
	if locked.Line && q.Line != "" && attrs.Line != "" && attrs.Line != q.Line {
		v = append(v, domain.ConstraintLine)
	}
	if locked.Player && !query.MatchPlayer(c.Title, q.Player) {
		v = append(v, domain.ConstraintPlayer)
	}
	if locked.CardNumber && q.CardNumber != "" && attrs.CardNumber != "" && !sameNumber(attrs.CardNumber, q.CardNumber) {
		v = append(v, domain.ConstraintCardNumber)
	}
	if locked.Parallel && !taxonomy.MatchParallel(c.Title, q.Parallel) {
		v = append(v, domain.ConstraintParallel)
	}
	if locked.Grader && q.Grade.Grader != "" && !strings.EqualFold(attrs.Grade.Grader, q.Grade.Grader) {
		v = append(v, domain.ConstraintGrader)
	}
	if locked.Grade && !q.Grade.IsZero() && !attrs.Grade.Equal(q.Grade) {
		v = append(v, domain.ConstraintGrade)
	}
	return v
}

// IsJunk reports whether a title carries lot, break, digital, custom or
// reprint vocabulary. Words inside a catalog parallel name ("Fast Break")
// do not count.
func IsJunk(title string) bool {
	return containsAny(taxonomy.StripParallels(title), junkTerms)
}

// filter holds the per-query state of the hard checks.
type filter struct {
	q         domain.StructuredQuery
	profile   taxonomy.Profile
	hasLine   bool
	requested string // normalized text of everything the user asked for
}

func newFilter(q domain.StructuredQuery) *filter {
	f := &filter{q: q}
	if q.Line != "" {
		f.profile, f.hasLine = taxonomy.ProfileFor(q.Line)
	}
	f.requested = taxonomy.Normalize(strings.Join(
		append([]string{q.Set, q.Variation, q.Parallel}, q.Keywords...), " "))
	return f
}

func (f *filter) apply(cands []domain.ListingCandidate, l Level) []domain.ListingCandidate {
	var out []domain.ListingCandidate
	for i := range cands {
		if f.keep(&cands[i], l) {
			out = append(out, cands[i])
		}
	}
	return out
}

func (f *filter) keep(c *domain.ListingCandidate, l Level) bool {
	if !query.MatchPlayer(c.Title, f.q.Player) {
		return false
	}
	if f.hasLine && !f.profile.Matches(c.Title) {
		return false
	}
	if !taxonomy.MatchParallel(c.Title, f.q.Parallel) {
		return false
	}

	attrs := attributes(c)
	if l < LevelNoCardNumber && f.q.CardNumber != "" &&
		attrs.CardNumber != "" && !sameNumber(attrs.CardNumber, f.q.CardNumber) {
		return false
	}
	if l < LevelNoGrade && !f.q.Grade.IsZero() && !attrs.Grade.Equal(f.q.Grade) {
		return false
	}
	if l < LevelNoInsertExclusion && f.unrequestedInsert(c.Title) {
		return false
	}
	return true
}

func (f *filter) unrequestedInsert(title string) bool {
	norm := taxonomy.Normalize(title)
	for _, t := range taxonomy.InsertTerms() {
		if taxonomy.ContainsTerm(norm, t) && !taxonomy.ContainsTerm(f.requested, t) {
			return true
		}
	}
	return false
}

// attributes returns the candidate's extracted attributes, extracting them
// from the title when the source did not.
func attributes(c *domain.ListingCandidate) domain.CandidateAttributes {
	if c.Attributes != (domain.CandidateAttributes{}) {
		return c.Attributes
	}
	return query.Attributes(c.Title)
}

func sameNumber(a, b string) bool {
	return strings.EqualFold(strings.TrimLeft(a, "#"), strings.TrimLeft(b, "#"))
}

func containsAny(norm string, terms []string) bool {
	for _, t := range terms {
		if taxonomy.ContainsTerm(norm, t) {
			return true
		}
	}
	return false
}
