package query

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

var (
	yearRegex       = regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)(?:\s*[-/]\s*(?:\d{4}|\d{2}))?\b`)
	gradeRegex      = regexp.MustCompile(`(?i)\b(psa|bgs|sgc|cgc)\s*-?\s*(10|[1-9](?:\.5)?)\b`)
	cardNumberRegex = regexp.MustCompile(`(?i)(?:#\s*|\bno\.\s*|\bno\s+|\bcard\s+)([a-z]{0,4}-?\d{1,4}[a-z]?)\b`)
	serialRegex     = regexp.MustCompile(`/\s*(\d{1,4})\b`)
	yearLikeRegex   = regexp.MustCompile(`^(19|20)\d{2}$`)
	slashWordsRegex = regexp.MustCompile(`([A-Za-z])/([A-Za-z])`)
)

// brandKeywords are manufacturer names. A hit locks the brand.
var brandKeywords = []string{"panini", "topps", "upper deck", "fleer", "leaf"}

// lineKeywords are set names sellers and collectors write verbatim. Longer
// phrases come first so "topps chrome update" wins over "topps chrome".
var lineKeywords = []struct {
	phrase string
	slug   string
}{
	{"panini prizm draft picks", "prizm-draft-picks"},
	{"topps chrome sapphire", "topps-chrome-sapphire"},
	{"topps chrome update", "topps-chrome-update"},
	{"prizm draft picks", "prizm-draft-picks"},
	{"national treasures", "national-treasures"},
	{"contenders optic", "contenders-optic"},
	{"bowman chrome", "bowman-chrome"},
	{"donruss optic", "optic"},
	{"bowman draft", "bowman-draft"},
	{"topps chrome", "topps-chrome"},
	{"sp authentic", "sp-authentic"},
	{"stadium club", "stadium-club"},
	{"panini prizm", "prizm"},
}

var (
	rookieTerms    = []string{"rated rookie", "rookie card", "rookie", "rc"}
	autoTerms      = []string{"autographed", "autograph", "signature", "signed", "auto"}
	relicTerms     = []string{"memorabilia", "jersey", "patch", "relic"}
	variationTerms = []string{"short print", "variation", "ssp", "sp"}
)

// noiseWords never belong to a player name.
var noiseWords = map[string]struct{}{
	"and": {}, "base": {}, "baseball": {}, "basketball": {}, "card": {}, "cards": {},
	"football": {}, "gem": {}, "graded": {}, "hockey": {}, "mint": {}, "mlb": {},
	"nba": {}, "nfl": {}, "nhl": {}, "of": {}, "raw": {}, "soccer": {}, "the": {},
	"bgs": {}, "cgc": {}, "psa": {}, "sgc": {},
}

type state struct {
	rest   string // unconsumed input, original case
	tokens []string
	q      domain.StructuredQuery
	locked domain.LockedConstraints
}

func newState(text string) *state {
	text = slashWordsRegex.ReplaceAllString(text, "$1 $2")
	text = slashWordsRegex.ReplaceAllString(text, "$1 $2")
	return &state{
		rest:   " " + collapse(text) + " ",
		tokens: strings.Fields(taxonomy.Normalize(text)),
	}
}

func (s *state) parsed() Parsed {
	tokens := s.tokens
	if tokens == nil {
		tokens = []string{}
	}
	return Parsed{Query: s.q, Locked: s.locked, Tokens: tokens}
}

// cut blanks rest[start:end].
func (s *state) cut(start, end int) {
	s.rest = s.rest[:start] + " " + s.rest[end:]
}

// cutPhrase removes the first run of fields whose normalized forms spell
// phrase. It reports whether the phrase was found.
func (s *state) cutPhrase(phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 {
		return false
	}
	fields := strings.Fields(s.rest)
	for i := 0; i+len(want) <= len(fields); i++ {
		match := true
		for j, w := range want {
			if taxonomy.Normalize(fields[i+j]) != w {
				match = false
				break
			}
		}
		if match {
			fields = append(fields[:i], fields[i+len(want):]...)
			s.rest = " " + strings.Join(fields, " ") + " "
			return true
		}
	}
	return false
}

// cutWord removes the first field for which match reports true.
func (s *state) cutWord(match func(string) bool) bool {
	fields := strings.Fields(s.rest)
	for i, f := range fields {
		if match(f) {
			fields = append(fields[:i], fields[i+1:]...)
			s.rest = " " + strings.Join(fields, " ") + " "
			return true
		}
	}
	return false
}

func ruleYear(s *state) {
	loc := yearRegex.FindStringSubmatchIndex(s.rest)
	if loc == nil {
		return
	}
	y, err := strconv.Atoi(s.rest[loc[2]:loc[3]])
	if err != nil {
		return
	}
	s.q.Year = y
	s.locked.Year = true
	s.cut(loc[0], loc[1])
}

func ruleBrandLine(s *state) {
	norm := taxonomy.Normalize(s.rest)

	for _, kw := range brandKeywords {
		if taxonomy.ContainsTerm(norm, kw) {
			s.q.Brand = kw
			s.locked.Brand = true
			break
		}
	}

	// Parallel names reuse line vocabulary ("Silver Prizm"), so the line is
	// resolved with the parallel phrase blanked out.
	probe := taxonomy.NormalizeParallel(norm)
	if p := taxonomy.DetectParallel(probe); p != "" {
		probe = strings.TrimSpace(strings.Replace(" "+probe+" ", " "+p+" ", " ", 1))
	}

	for _, lk := range lineKeywords {
		if !taxonomy.ContainsTerm(probe, lk.phrase) {
			continue
		}
		if e, ok := taxonomy.Lookup(lk.slug); ok {
			s.setLine(e)
			s.cutPhrase(lk.phrase)
			s.cutBrand()
			return
		}
	}

	e, ok := taxonomy.ClassifySet(probe)
	if !ok {
		s.cutBrand()
		return
	}
	s.setLine(e)
	for _, a := range e.Aliases {
		if s.cutPhrase(a) {
			break
		}
	}
	for _, r := range e.Required {
		s.cutPhrase(r)
	}
	s.cutBrand()
}

func (s *state) setLine(e taxonomy.Entry) {
	s.q.Line = e.Slug
	s.q.Set = displaySet(e)
	s.locked.Line = true
	if !s.locked.Brand {
		s.q.Brand = e.Brand
	}
}

func (s *state) cutBrand() {
	if s.locked.Brand {
		s.cutPhrase(s.q.Brand)
	}
}

func displaySet(e taxonomy.Entry) string {
	if len(e.Aliases) > 0 {
		return titleCase(e.Aliases[0])
	}
	return titleCase(strings.Join(e.Required, " "))
}

func ruleGrade(s *state) {
	m := gradeRegex.FindStringSubmatchIndex(s.rest)
	if m == nil {
		return
	}
	v, err := strconv.ParseFloat(s.rest[m[4]:m[5]], 64)
	if err != nil {
		return
	}
	s.q.Grade = domain.Grade{Grader: strings.ToUpper(s.rest[m[2]:m[3]]), Value: v}
	s.locked.Grader = true
	s.locked.Grade = true
	s.cut(m[0], m[1])
}

func ruleCardNumber(s *state) {
	for _, m := range cardNumberRegex.FindAllStringSubmatchIndex(s.rest, -1) {
		num := s.rest[m[2]:m[3]]
		if yearLikeRegex.MatchString(num) {
			continue
		}
		s.q.CardNumber = strings.ToUpper(num)
		s.locked.CardNumber = true
		s.cut(m[0], m[1])
		return
	}
}

func ruleParallel(s *state) {
	p := taxonomy.DetectParallel(s.rest)
	if p == "" || surnameParallel(s.rest, p) {
		return
	}
	s.q.Parallel = titleCase(p)
	s.locked.Parallel = true
	for _, tok := range strings.Fields(p) {
		s.cutWord(func(f string) bool { return taxonomy.NormalizeParallel(f) == tok })
	}
}

func ruleFlags(s *state) {
	if m := serialRegex.FindStringSubmatchIndex(s.rest); m != nil {
		s.q.SerialNumber = "/" + s.rest[m[2]:m[3]]
		s.cut(m[0], m[1])
	}
	if cutAny(s, rookieTerms) {
		s.q.Rookie = true
	}
	if cutAny(s, autoTerms) {
		s.q.Autograph = true
	}
	if cutAny(s, relicTerms) {
		s.q.Relic = true
	}
	if s.cutPhrase("rpa") {
		s.q.Rookie, s.q.Autograph, s.q.Relic = true, true, true
	}
	for _, v := range variationTerms {
		if s.cutPhrase(v) {
			s.q.Variation = strings.ToUpper(v)
			if len(v) > 3 {
				s.q.Variation = titleCase(v)
			}
			break
		}
	}
	for _, ins := range taxonomy.InsertTerms() {
		if s.cutPhrase(ins) {
			s.q.Keywords = append(s.q.Keywords, ins)
		}
	}
}

// cutAny removes every occurrence of every term and reports whether any
// was present.
func cutAny(s *state, terms []string) bool {
	found := false
	for _, t := range terms {
		for s.cutPhrase(t) {
			found = true
		}
	}
	return found
}

// surnameParallel reports whether a one-word parallel p is really the
// second word of a two-word player name, as in "Jalen Green".
func surnameParallel(rest, p string) bool {
	if strings.Contains(p, " ") {
		return false
	}
	var words []string
	for _, w := range nameWords(rest) {
		if _, flag := flagWords[taxonomy.Normalize(w)]; !flag {
			words = append(words, w)
		}
	}
	return len(words) == 2 && taxonomy.NormalizeParallel(words[1]) == p
}

// flagWords are the single-word flag and variation terms still present in
// the input when the parallel rule runs.
var flagWords = func() map[string]struct{} {
	m := map[string]struct{}{"rpa": {}}
	for _, terms := range [][]string{rookieTerms, autoTerms, relicTerms, variationTerms} {
		for _, t := range terms {
			if !strings.Contains(t, " ") {
				m[t] = struct{}{}
			}
		}
	}
	return m
}()

func rulePlayer(s *state) {
	words := nameWords(s.rest)
	if len(words) == 0 {
		return
	}
	s.q.Player = strings.Join(words, " ")
	s.locked.Player = true
}

// nameWords returns the words of rest that can belong to a player name,
// title-casing all-lowercase words.
func nameWords(rest string) []string {
	var words []string
	for _, f := range strings.Fields(rest) {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		norm := taxonomy.Normalize(f)
		if norm == "" || isNumeric(norm) {
			continue
		}
		if _, noise := noiseWords[norm]; noise {
			continue
		}
		if f == strings.ToLower(f) {
			f = titleCase(f)
		}
		words = append(words, f)
	}
	return words
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func normalizeSerial(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return collapse(raw)
	}
	return "/" + digits.String()
}
