package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantQuery  domain.StructuredQuery
		wantLocked domain.LockedConstraints
	}{
		{
			name: "full prizm query",
			text: "2023 Panini Prizm CJ Stroud Silver Prizm PSA 10",
			wantQuery: domain.StructuredQuery{
				Player:   "CJ Stroud",
				Year:     2023,
				Set:      "Panini Prizm",
				Line:     "prizm",
				Brand:    "panini",
				Grade:    domain.Grade{Grader: "PSA", Value: 10},
				Parallel: "Silver Prizm",
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Brand: true, Line: true, Player: true,
				Parallel: true, Grader: true, Grade: true,
			},
		},
		{
			name: "season year, taxonomy line, card number and rookie flag",
			text: "2023-24 Hoops Victor Wembanyama #136 RC",
			wantQuery: domain.StructuredQuery{
				Player:     "Victor Wembanyama",
				Year:       2023,
				Set:        "Hoops",
				Line:       "hoops",
				Brand:      "panini",
				CardNumber: "136",
				Rookie:     true,
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true, CardNumber: true,
			},
		},
		{
			name: "compact grade and alphanumeric card number",
			text: "Shohei Ohtani 2018 Topps Chrome Update PSA10 #HMT1",
			wantQuery: domain.StructuredQuery{
				Player:     "Shohei Ohtani",
				Year:       2018,
				Set:        "Topps Chrome Update",
				Line:       "topps-chrome-update",
				Brand:      "topps",
				Grade:      domain.Grade{Grader: "PSA", Value: 10},
				CardNumber: "HMT1",
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Brand: true, Line: true, Player: true,
				CardNumber: true, Grader: true, Grade: true,
			},
		},
		{
			name: "half grade and card keyword",
			text: "Luka Doncic 2018 Prizm Card 280 BGS 9.5",
			wantQuery: domain.StructuredQuery{
				Player:     "Luka Doncic",
				Year:       2018,
				Set:        "Panini Prizm",
				Line:       "prizm",
				Brand:      "panini",
				Grade:      domain.Grade{Grader: "BGS", Value: 9.5},
				CardNumber: "280",
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true,
				CardNumber: true, Grader: true, Grade: true,
			},
		},
		{
			name: "year-like card number is not a card number",
			text: "2020 Prizm Justin Herbert #1999",
			wantQuery: domain.StructuredQuery{
				Player: "Justin Herbert",
				Year:   2020,
				Set:    "Panini Prizm",
				Line:   "prizm",
				Brand:  "panini",
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true,
			},
		},
		{
			name: "optic with flags and serial",
			text: "2021 Donruss Optic Ja'Marr Chase Holo Rated Rookie Auto /99",
			wantQuery: domain.StructuredQuery{
				Player:       "Ja'Marr Chase",
				Year:         2021,
				Set:          "Donruss Optic",
				Line:         "optic",
				Brand:        "panini",
				Parallel:     "Holo",
				SerialNumber: "/99",
				Autograph:    true,
				Rookie:       true,
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true, Parallel: true,
			},
		},
		{
			name: "color surname is not a parallel",
			text: "2021 Prizm Jalen Green PSA 10",
			wantQuery: domain.StructuredQuery{
				Player: "Jalen Green",
				Year:   2021,
				Set:    "Panini Prizm",
				Line:   "prizm",
				Brand:  "panini",
				Grade:  domain.Grade{Grader: "PSA", Value: 10},
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true, Grader: true, Grade: true,
			},
		},
		{
			name: "color surname with a real parallel",
			text: "2021 Prizm Jalen Green Silver PSA 10",
			wantQuery: domain.StructuredQuery{
				Player:   "Jalen Green",
				Year:     2021,
				Set:      "Panini Prizm",
				Line:     "prizm",
				Brand:    "panini",
				Parallel: "Silver",
				Grade:    domain.Grade{Grader: "PSA", Value: 10},
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true, Parallel: true, Grader: true, Grade: true,
			},
		},
		{
			name: "color after a two-word name stays a parallel",
			text: "2019 Prizm Ja Morant Green RC",
			wantQuery: domain.StructuredQuery{
				Player:   "Ja Morant",
				Year:     2019,
				Set:      "Panini Prizm",
				Line:     "prizm",
				Brand:    "panini",
				Parallel: "Green",
				Rookie:   true,
			},
			wantLocked: domain.LockedConstraints{
				Year: true, Line: true, Player: true, Parallel: true,
			},
		},
		{
			name: "parallel vocabulary alone does not set a line",
			text: "cj stroud silver prizm",
			wantQuery: domain.StructuredQuery{
				Player:   "Cj Stroud",
				Parallel: "Silver Prizm",
			},
			wantLocked: domain.LockedConstraints{
				Player: true, Parallel: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Parse(tt.text)
			assert.Equal(t, tt.wantQuery, got.Query)
			assert.Equal(t, tt.wantLocked, got.Locked)
			assert.NotEmpty(t, got.Tokens)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	got := Parse("   ")
	assert.Equal(t, domain.StructuredQuery{}, got.Query)
	assert.Equal(t, domain.LockedConstraints{}, got.Locked)
	assert.NotNil(t, got.Tokens)
}

func TestRulesInIsolation(t *testing.T) {
	t.Parallel()

	t.Run("year", func(t *testing.T) {
		t.Parallel()

		s := newState("Stroud 2023 rookie")
		ruleYear(s)
		assert.Equal(t, 2023, s.q.Year)
		assert.True(t, s.locked.Year)
		assert.NotContains(t, s.rest, "2023")

		s = newState("Stroud 1899")
		ruleYear(s)
		assert.Zero(t, s.q.Year)
		assert.False(t, s.locked.Year)
	})

	t.Run("grade", func(t *testing.T) {
		t.Parallel()

		for text, want := range map[string]domain.Grade{
			"psa 10":   {Grader: "PSA", Value: 10},
			"PSA10":    {Grader: "PSA", Value: 10},
			"bgs 9.5":  {Grader: "BGS", Value: 9.5},
			"SGC-9":    {Grader: "SGC", Value: 9},
			"cgc 8.5 ": {Grader: "CGC", Value: 8.5},
		} {
			s := newState(text)
			ruleGrade(s)
			assert.Equal(t, want, s.q.Grade, text)
			assert.True(t, s.locked.Grade, text)
		}

		s := newState("PSA 100")
		ruleGrade(s)
		assert.True(t, s.q.Grade.IsZero())
		assert.False(t, s.locked.Grader)
	})

	t.Run("card number", func(t *testing.T) {
		t.Parallel()

		for text, want := range map[string]string{
			"#339":     "339",
			"No. 12":   "12",
			"no 7":     "7",
			"Card 280": "280",
			"#RC-12":   "RC-12",
		} {
			s := newState(text)
			ruleCardNumber(s)
			assert.Equal(t, want, s.q.CardNumber, text)
			assert.True(t, s.locked.CardNumber, text)
		}

		s := newState("#2021")
		ruleCardNumber(s)
		assert.Empty(t, s.q.CardNumber)
		assert.False(t, s.locked.CardNumber)
	})

	t.Run("brand without line", func(t *testing.T) {
		t.Parallel()

		s := newState("Topps Mike Trout")
		ruleBrandLine(s)
		assert.Equal(t, "topps", s.q.Brand)
		assert.True(t, s.locked.Brand)
		assert.Equal(t, "topps", s.q.Line)
		assert.NotContains(t, s.rest, "Topps")
	})

	t.Run("inferred brand does not lock", func(t *testing.T) {
		t.Parallel()

		s := newState("Mosaic Stroud")
		ruleBrandLine(s)
		assert.Equal(t, "mosaic", s.q.Line)
		assert.Equal(t, "panini", s.q.Brand)
		assert.True(t, s.locked.Line)
		assert.False(t, s.locked.Brand)
	})

	t.Run("parallel", func(t *testing.T) {
		t.Parallel()

		s := newState("Stroud Silver Prism")
		ruleParallel(s)
		assert.Equal(t, "Silver Prizm", s.q.Parallel)
		assert.True(t, s.locked.Parallel)
		assert.Equal(t, " Stroud ", s.rest)
	})

	t.Run("flags", func(t *testing.T) {
		t.Parallel()

		s := newState("Stroud RPA /25 SSP Kaboom")
		ruleFlags(s)
		assert.True(t, s.q.Rookie)
		assert.True(t, s.q.Autograph)
		assert.True(t, s.q.Relic)
		assert.Equal(t, "/25", s.q.SerialNumber)
		assert.Equal(t, "SSP", s.q.Variation)
		assert.Equal(t, []string{"kaboom"}, s.q.Keywords)
	})
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("structured prizm lookup", func(t *testing.T) {
		t.Parallel()

		got := FromRequest(domain.LookupRequest{
			Player:       "CJ Stroud",
			Set:          "Panini Prizm",
			ParallelType: "Silver Prizm",
			Grade:        "PSA 10",
		})

		assert.Equal(t, "CJ Stroud", got.Query.Player)
		assert.Equal(t, "prizm", got.Query.Line)
		assert.Equal(t, "Panini Prizm", got.Query.Set)
		assert.Equal(t, "Silver Prizm", got.Query.Parallel)
		assert.Equal(t, domain.Grade{Grader: "PSA", Value: 10}, got.Query.Grade)
		assert.Zero(t, got.Query.Year)

		assert.True(t, got.Locked.Player)
		assert.True(t, got.Locked.Line)
		assert.True(t, got.Locked.Brand)
		assert.True(t, got.Locked.Parallel)
		assert.True(t, got.Locked.Grade)
		assert.False(t, got.Locked.Year)
		assert.False(t, got.Locked.CardNumber)
	})

	t.Run("fields lock only through explicit rules", func(t *testing.T) {
		t.Parallel()

		got := FromRequest(domain.LookupRequest{
			Player:       "Victor Wembanyama",
			Year:         "2023-24",
			Grade:        "10",
			CardNumber:   "#RC-12",
			ParallelType: "Laser",
			SerialNumber: "numbered to 99",
			Keywords:     []string{"case hit", " case hit "},
			Limit:        25,
		})

		assert.Equal(t, 2023, got.Query.Year)
		assert.True(t, got.Locked.Year)
		assert.True(t, got.Query.Grade.IsZero())
		assert.False(t, got.Locked.Grade)
		assert.Equal(t, "RC-12", got.Query.CardNumber)
		assert.True(t, got.Locked.CardNumber)
		assert.Equal(t, "Laser", got.Query.Parallel)
		assert.False(t, got.Locked.Parallel)
		assert.Equal(t, "/99", got.Query.SerialNumber)
		assert.Equal(t, []string{"case hit"}, got.Query.Keywords)
		assert.Equal(t, 25, got.Query.Limit)
	})

	t.Run("free text when player is empty", func(t *testing.T) {
		t.Parallel()

		got := FromRequest(domain.LookupRequest{
			Query: "2023 Panini Prizm CJ Stroud PSA 10",
			Limit: 20,
		})
		assert.Equal(t, "CJ Stroud", got.Query.Player)
		assert.Equal(t, 2023, got.Query.Year)
		assert.Equal(t, "prizm", got.Query.Line)
		assert.Equal(t, 20, got.Query.Limit)
		assert.True(t, got.Locked.Year)
	})

	t.Run("unknown set keeps the text", func(t *testing.T) {
		t.Parallel()

		got := FromRequest(domain.LookupRequest{Player: "Mike Trout", Set: "Gypsy Queen"})
		assert.Equal(t, "Gypsy Queen", got.Query.Set)
		assert.Empty(t, got.Query.Line)
		assert.False(t, got.Locked.Line)
	})
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	base := domain.StructuredQuery{
		Player:   "CJ Stroud",
		Year:     2023,
		Set:      "Panini Prizm",
		Grade:    domain.Grade{Grader: "PSA", Value: 10},
		Parallel: "Silver Prizm",
	}

	key := CacheKey(base, 20)
	require.Len(t, key, 64)

	same := base
	same.Player = "cj  STROUD"
	same.Parallel = "silver prism"
	assert.Equal(t, key, CacheKey(same, 20))

	noYear := base
	noYear.Year = 0
	assert.NotEqual(t, key, CacheKey(noYear, 20))
	assert.NotEqual(t, key, CacheKey(base, 50))

	numbered := base
	numbered.CardNumber = "#339"
	other := base
	other.CardNumber = "339"
	assert.Equal(t, CacheKey(numbered, 20), CacheKey(other, 20))

	assert.Equal(t,
		"player=cj stroud|year=2023|set=panini prizm|grade=psa 10|parallel=silver prizm|number=|keywords=|serial=|flags=|limit=20",
		Canonical(base, 20))

	auto := base
	auto.Autograph = true
	assert.NotEqual(t, key, CacheKey(auto, 20))
}

func TestAttributes(t *testing.T) {
	t.Parallel()

	got := Attributes("2023 Panini Prizm CJ Stroud #339 Silver Prizm RC PSA 10")
	assert.Equal(t, 2023, got.Year)
	assert.Equal(t, "panini", got.Brand)
	assert.Equal(t, "prizm", got.Line)
	assert.Equal(t, "Silver Prizm", got.Parallel)
	assert.Equal(t, domain.Grade{Grader: "PSA", Value: 10}, got.Grade)
	assert.Equal(t, "339", got.CardNumber)
	assert.True(t, got.Rookie)

	phoenix := Attributes("2023 Panini Phoenix CJ Stroud Silver Prizm")
	assert.Equal(t, "phoenix", phoenix.Line)
}

func TestMatchPlayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title, player string
		want          bool
	}{
		{"2023 Prizm CJ Stroud", "CJ Stroud", true},
		{"2023 Prizm C.J. Stroud", "CJ Stroud", true},
		{"2023 Prizm CJ Stroud", "C.J. Stroud", true},
		{"Ja'Marr Chase Optic", "Ja'Marr Chase", true},
		{"Stroud Prizm", "CJ Stroud", false},
		{"Anything", "", true},
		{"Michael Jordanson", "Michael Jordan", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPlayer(tt.title, tt.player), "%q vs %q", tt.title, tt.player)
	}
}
