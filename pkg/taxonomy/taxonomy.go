// Package taxonomy maps free-text set names and listing titles onto a closed
// catalog of trading card product lines, and matches parallel names.
package taxonomy

import (
	"slices"
	"strings"
	"unicode"
)

const (
	requiredTermWeight = 10
	aliasBonus         = 3
	maxExcludeTerms    = 10
)

// Entry is one product line in the catalog.
type Entry struct {
	Slug      string
	Brand     string
	Parent    string   // slug of the broader line this one refines
	Required  []string // all must be present
	Aliases   []string // any one is sufficient
	Allowed   []string // other lines' vocabulary that legitimately co-occurs
	Forbidden []string // presence disqualifies the entry

	// ToleratesGeneric lines co-occur with other lines' vocabulary in
	// normal listings, so no negative keywords are derived for them.
	ToleratesGeneric bool
}

// Profile is the hard-filter view of a selected line.
type Profile struct {
	Slug        string
	RequiredAll []string
	RequiredAny []string
	Forbidden   []string
}

// Matches reports whether a title satisfies the profile.
func (p Profile) Matches(title string) bool {
	norm := neutralize(Normalize(title))
	for _, f := range p.Forbidden {
		if ContainsTerm(norm, f) {
			return false
		}
	}
	all := len(p.RequiredAll) > 0
	for _, r := range p.RequiredAll {
		if !ContainsTerm(norm, r) {
			all = false
			break
		}
	}
	if all {
		return true
	}
	for _, a := range p.RequiredAny {
		if ContainsTerm(norm, a) {
			return true
		}
	}
	return false
}

// Normalize lowercases text and collapses every run of punctuation and
// whitespace into a single space.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if r == '\'' {
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ContainsTerm reports whether the normalized text contains term as a whole
// word or word sequence. "prizm" does not match "prizmatic".
func ContainsTerm(normalized, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(" "+normalized+" ", " "+term+" ")
}

// Lookup returns the catalog entry for a slug.
func Lookup(slug string) (Entry, bool) {
	for i := range catalog {
		if catalog[i].Slug == slug {
			return catalog[i], true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the catalog.
func Entries() []Entry {
	return slices.Clone(catalog)
}

// Classify returns the best-matching line for a listing title.
func Classify(title string) (Entry, bool) {
	norm := neutralize(Normalize(title))

	best := -1
	bestScore := 0
	for i := range catalog {
		s, ok := catalog[i].score(norm)
		if !ok {
			continue
		}
		if best < 0 || s > bestScore || (s == bestScore && refines(&catalog[i], &catalog[best])) {
			best = i
			bestScore = s
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return catalog[best], true
}

// ClassifySet resolves a query-side set name such as "Panini Prizm" to a
// line. It applies the same rules as Classify.
func ClassifySet(set string) (Entry, bool) {
	return Classify(set)
}

// Slug returns the classified slug for text, or "" when nothing matches.
func Slug(text string) string {
	e, ok := Classify(text)
	if !ok {
		return ""
	}
	return e.Slug
}

// LineMatches reports whether a listing title is compatible with the
// requested line: it either classifies to that line or to no line at all.
func LineMatches(requested, title string) bool {
	if requested == "" {
		return true
	}
	got := Slug(title)
	return got == "" || got == requested
}

// ProfileFor returns the hard-filter profile for a line.
func ProfileFor(slug string) (Profile, bool) {
	e, ok := Lookup(slug)
	if !ok {
		return Profile{}, false
	}
	return Profile{
		Slug:        e.Slug,
		RequiredAll: slices.Clone(e.Required),
		RequiredAny: slices.Clone(e.Aliases),
		Forbidden:   slices.Clone(e.Forbidden),
	}, true
}

// ExcludeTerms derives negative search keywords for a line: the required
// terms of every other line, minus the line's own and allowed vocabulary.
// Lines of the same brand come first. Multi-word terms are skipped because
// the search endpoint negates single words only.
func ExcludeTerms(slug string) []string {
	e, ok := Lookup(slug)
	if !ok || e.ToleratesGeneric {
		return nil
	}

	own := make(map[string]struct{}, len(e.Required)+len(e.Allowed))
	for _, t := range e.Required {
		own[t] = struct{}{}
	}
	for _, t := range e.Allowed {
		own[t] = struct{}{}
	}

	var sameBrand, other []string
	seen := make(map[string]struct{})
	for i := range catalog {
		o := &catalog[i]
		if o.Slug == e.Slug {
			continue
		}
		for _, t := range o.Required {
			if strings.Contains(t, " ") {
				continue
			}
			if _, skip := own[t]; skip {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if o.Brand == e.Brand {
				sameBrand = append(sameBrand, t)
			} else {
				other = append(other, t)
			}
		}
	}

	terms := append(sameBrand, other...)
	if len(terms) > maxExcludeTerms {
		terms = terms[:maxExcludeTerms]
	}
	return terms
}

// Confusable reports whether two lines are easily mistaken for each other:
// same brand, or one forbids the other's vocabulary.
func Confusable(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	ea, okA := Lookup(a)
	eb, okB := Lookup(b)
	if !okA || !okB {
		return false
	}
	if ea.Brand == eb.Brand {
		return true
	}
	return forbidsAny(ea, eb.Required) || forbidsAny(eb, ea.Required)
}

func forbidsAny(e Entry, terms []string) bool {
	for _, t := range terms {
		if slices.Contains(e.Forbidden, t) {
			return true
		}
	}
	return false
}

func (e *Entry) score(norm string) (int, bool) {
	for _, f := range e.Forbidden {
		if ContainsTerm(norm, f) {
			return 0, false
		}
	}

	allRequired := len(e.Required) > 0
	termLen := 0
	for _, r := range e.Required {
		if !ContainsTerm(norm, r) {
			allRequired = false
			break
		}
		termLen += len(r)
	}

	aliasHit := false
	for _, a := range e.Aliases {
		if ContainsTerm(norm, a) {
			aliasHit = true
			break
		}
	}

	if !allRequired && !aliasHit {
		return 0, false
	}

	s := 0
	if allRequired {
		s = len(e.Required)*requiredTermWeight + termLen
	}
	if aliasHit {
		s += aliasBonus
	}
	return s, true
}

// refines reports whether a is a more specific line than b.
func refines(a, b *Entry) bool {
	if a.Parent == b.Slug {
		return true
	}
	return len(a.Required) > len(b.Required)
}

func neutralize(norm string) string {
	for _, p := range teamPhrases {
		norm = strings.TrimSpace(strings.ReplaceAll(" "+norm+" ", " "+p+" ", " "))
	}
	return norm
}
