package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/card-price-tracker/pkg/query"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

func cand(id, title string) domain.ListingCandidate {
	return domain.ListingCandidate{
		ID:         id,
		Title:      title,
		Price:      10,
		Attributes: query.Attributes(title),
	}
}

func stroudQuery(t *testing.T) query.Parsed {
	t.Helper()
	p := query.FromRequest(domain.LookupRequest{
		Player:       "CJ Stroud",
		Set:          "Panini Prizm",
		ParallelType: "Silver Prizm",
		Grade:        "PSA 10",
	})
	require.Equal(t, "prizm", p.Query.Line)
	return p
}

func TestRank_StroudScenario(t *testing.T) {
	t.Parallel()

	p := stroudQuery(t)
	cands := []domain.ListingCandidate{
		cand("phoenix", "2023 Panini Phoenix CJ Stroud Silver Prizm"),
		cand("prizm", "2023 Panini Prizm CJ Stroud Silver Prizm PSA 10"),
	}

	r := Rank(p.Query, p.Locked, cands)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, LevelStrict, r.Level)

	top := r.Candidates[0]
	assert.Equal(t, "prizm", top.Candidate.ID)
	assert.GreaterOrEqual(t, top.Confidence, ExactMatchConfidence)
	assert.Equal(t, PointsGrade+PointsLine+PointsParallel, top.Score)
	assert.Len(t, r.Exact, 1)
	assert.Empty(t, r.Close)
}

func TestRank_DifferentLineRejectedAtEveryLevel(t *testing.T) {
	t.Parallel()

	p := stroudQuery(t)
	r := Rank(p.Query, p.Locked, []domain.ListingCandidate{
		cand("phoenix", "2023 Panini Phoenix CJ Stroud Silver Prizm PSA 10"),
		cand("prizmatic", "2023 Prizmatic CJ Stroud Silver PSA 10"),
	})
	assert.Empty(t, r.Candidates)
	assert.Equal(t, LevelNoInsertExclusion, r.Level, "all levels attempted")
}

func TestRank_LockedYearExactBucket(t *testing.T) {
	t.Parallel()

	p := query.Parse("2023 Panini Prizm CJ Stroud")
	require.True(t, p.Locked.Year)

	r := Rank(p.Query, p.Locked, []domain.ListingCandidate{
		cand("match", "2023 Panini Prizm CJ Stroud RC"),
		cand("conflict", "2024 Panini Prizm CJ Stroud"),
		cand("none", "Panini Prizm CJ Stroud Rookie"),
	})
	require.Len(t, r.Candidates, 3)

	for _, sc := range r.Exact {
		y := sc.Candidate.Attributes.Year
		assert.True(t, y == 0 || y == 2023, "exact bucket holds %q", sc.Candidate.Title)
	}
	require.Len(t, r.Close, 1)
	assert.Equal(t, "conflict", r.Close[0].Candidate.ID)
	assert.Equal(t, []domain.Constraint{domain.ConstraintYear}, r.Close[0].Violations)
	assert.Less(t, r.Close[0].Confidence, ExactMatchConfidence)
}

func TestRank_LadderStopsAtFirstSurvivingLevel(t *testing.T) {
	t.Parallel()

	q := domain.StructuredQuery{
		Player:     "CJ Stroud",
		Line:       "prizm",
		CardNumber: "339",
		Grade:      domain.Grade{Grader: "PSA", Value: 10},
	}

	strict := cand("strict", "2023 Prizm CJ Stroud #339 PSA 10")
	wrongNumber := cand("number", "2023 Prizm CJ Stroud #12 PSA 10")
	wrongGrade := cand("grade", "2023 Prizm CJ Stroud #12 PSA 9")
	insert := cand("insert", "2023 Prizm Kaboom CJ Stroud #12 PSA 9")

	tests := []struct {
		name      string
		cands     []domain.ListingCandidate
		wantLevel Level
		wantIDs   []string
	}{
		{
			name:      "strict survivor hides looser matches",
			cands:     []domain.ListingCandidate{wrongNumber, strict, wrongGrade, insert},
			wantLevel: LevelStrict,
			wantIDs:   []string{"strict"},
		},
		{
			name:      "card number relaxed",
			cands:     []domain.ListingCandidate{wrongGrade, wrongNumber, insert},
			wantLevel: LevelNoCardNumber,
			wantIDs:   []string{"number"},
		},
		{
			name:      "grade relaxed",
			cands:     []domain.ListingCandidate{insert, wrongGrade},
			wantLevel: LevelNoGrade,
			wantIDs:   []string{"grade"},
		},
		{
			name:      "insert exclusion relaxed",
			cands:     []domain.ListingCandidate{insert},
			wantLevel: LevelNoInsertExclusion,
			wantIDs:   []string{"insert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Rank(q, domain.LockedConstraints{}, tt.cands)
			assert.Equal(t, tt.wantLevel, r.Level)

			ids := make([]string, 0, len(r.Candidates))
			for _, sc := range r.Candidates {
				ids = append(ids, sc.Candidate.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRank_RequestedInsertIsNotExcluded(t *testing.T) {
	t.Parallel()

	q := domain.StructuredQuery{Player: "CJ Stroud", Line: "prizm", Keywords: []string{"Kaboom"}}
	r := Rank(q, domain.LockedConstraints{}, []domain.ListingCandidate{
		cand("insert", "2023 Prizm Kaboom CJ Stroud"),
	})
	assert.Equal(t, LevelStrict, r.Level)
	assert.Len(t, r.Candidates, 1)
}

func TestRank_SortIsStableDescending(t *testing.T) {
	t.Parallel()

	q := domain.StructuredQuery{Player: "CJ Stroud", Parallel: "Silver"}
	r := Rank(q, domain.LockedConstraints{}, []domain.ListingCandidate{
		cand("a", "CJ Stroud Silver Lot"),
		cand("b", "CJ Stroud Silver"),
		cand("c", "CJ Stroud Silver Prizm"),
	})

	ids := make([]string, 0, 3)
	for _, sc := range r.Candidates {
		ids = append(ids, sc.Candidate.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestScore_Rubric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		q     domain.StructuredQuery
		title string
		want  int
	}{
		{
			name:  "grade exact",
			q:     domain.StructuredQuery{Player: "A B", Grade: domain.Grade{Grader: "PSA", Value: 10}},
			title: "A B PSA 10",
			want:  PointsGrade,
		},
		{
			name:  "grade different",
			q:     domain.StructuredQuery{Player: "A B", Grade: domain.Grade{Grader: "PSA", Value: 10}},
			title: "A B PSA 9",
			want:  0,
		},
		{
			name:  "card number exact",
			q:     domain.StructuredQuery{Player: "A B", CardNumber: "#12"},
			title: "A B #12",
			want:  PointsCardNumber,
		},
		{
			name:  "card number missing",
			q:     domain.StructuredQuery{Player: "A B", CardNumber: "12"},
			title: "A B",
			want:  PenaltyNoCardNumber,
		},
		{
			name:  "parallel with prism spelling",
			q:     domain.StructuredQuery{Player: "A B", Parallel: "Silver Prizm"},
			title: "A B Silver Prism",
			want:  PointsParallel,
		},
		{
			name:  "rookie requested",
			q:     domain.StructuredQuery{Player: "A B", Rookie: true},
			title: "A B RC",
			want:  PointsRookie,
		},
		{
			name:  "rookie not requested",
			q:     domain.StructuredQuery{Player: "A B"},
			title: "A B RC",
			want:  0,
		},
		{
			name:  "confusable sub-line",
			q:     domain.StructuredQuery{Player: "A B", Line: "prizm"},
			title: "2023 Prizm Draft Picks A B",
			want:  PointsLine + PenaltyConfusable,
		},
		{
			name:  "junk",
			q:     domain.StructuredQuery{Player: "A B"},
			title: "A B custom card",
			want:  PenaltyJunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tt.q, domain.LockedConstraints{}, cand("x", tt.title))
			assert.Equal(t, tt.want, got.Score)
		})
	}
}

func TestScore_ViolationCapsConfidence(t *testing.T) {
	t.Parallel()

	q := domain.StructuredQuery{
		Player: "CJ Stroud",
		Year:   2023,
		Line:   "prizm",
		Grade:  domain.Grade{Grader: "PSA", Value: 10},
	}
	locked := domain.LockedConstraints{Year: true, Grade: true, Grader: true}

	sc := Score(q, locked, cand("x", "2022 Prizm CJ Stroud PSA 10"))
	assert.Equal(t, PointsGrade+PointsLine, sc.Score)
	assert.Equal(t, []domain.Constraint{domain.ConstraintYear}, sc.Violations)
	assert.InDelta(t, ExactMatchConfidence-0.01, sc.Confidence, 1e-9)

	raw := Score(q, locked, cand("y", "2023 Prizm CJ Stroud"))
	assert.ElementsMatch(t,
		[]domain.Constraint{domain.ConstraintGrader, domain.ConstraintGrade},
		raw.Violations)
}

func TestScore_AttributesExtractedWhenMissing(t *testing.T) {
	t.Parallel()

	q := domain.StructuredQuery{Player: "CJ Stroud", CardNumber: "339"}
	sc := Score(q, domain.LockedConstraints{}, domain.ListingCandidate{Title: "CJ Stroud #339"})
	assert.Equal(t, PointsCardNumber, sc.Score)
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, confidence(23, 23), 1e-9)
	assert.InDelta(t, 0.5, confidence(5, 10), 1e-9)
	assert.InDelta(t, 0.0, confidence(-3, 10), 1e-9)
	assert.InDelta(t, 1.0, confidence(0, 0), 1e-9)
	assert.Less(t, confidence(PenaltyJunk, 0), 1.0)
}

func TestIsJunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  bool
	}{
		{title: "CJ Stroud Prizm REPRINT", want: true},
		{title: "Live break spot", want: true},
		{title: "Digital card NFT", want: true},
		{title: "2023 Prizm CJ Stroud Breakaway", want: false},
		{title: "2023 Panini Prizm CJ Stroud Fast Break", want: false},
		{title: "2023 Prizm CJ Stroud Fast Break Prizm RC", want: false},
		{title: "2023 Prizm CJ Stroud Fast Break lot of 3", want: true},
		{title: "2023 Prizm Fast Break case break CJ Stroud", want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsJunk(tt.title), tt.title)
	}
}

func TestScore_ParallelNameIsNotJunk(t *testing.T) {
	t.Parallel()

	parsed := query.Parse("2023 Panini Prizm CJ Stroud Fast Break")
	require.Equal(t, "prizm", parsed.Query.Line)

	sc := Score(parsed.Query, parsed.Locked, domain.ListingCandidate{
		ID:    "fb-1",
		Title: "2023 Panini Prizm CJ Stroud Fast Break",
		Price: 12,
	})
	assert.Empty(t, sc.Violations)
	assert.Equal(t, PointsLine+PointsParallel, sc.Score)
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "L0", LevelStrict.String())
	assert.Equal(t, "L3", LevelNoInsertExclusion.String())
	assert.Equal(t, "unknown", Level(9).String())
}
