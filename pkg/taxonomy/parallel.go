package taxonomy

import (
	"slices"
	"strings"
)

// parallelStopwords are ignored when comparing parallel names.
var parallelStopwords = map[string]struct{}{
	"and":      {},
	"parallel": {},
	"the":      {},
}

// canonicalToken folds spelling variants of the same parallel vocabulary.
func canonicalToken(t string) string {
	switch t {
	case "prism", "prizms", "prisms":
		return "prizm"
	case "refractors":
		return "refractor"
	default:
		return t
	}
}

func parallelTokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := parallelStopwords[f]; skip {
			continue
		}
		out = append(out, canonicalToken(f))
	}
	return out
}

// NormalizeParallel returns the canonical form of a parallel name.
func NormalizeParallel(parallel string) string {
	return strings.Join(parallelTokens(parallel), " ")
}

// MatchParallel reports whether every token of the requested parallel
// appears in the title. "prism" and "prizm" are treated as the same word.
func MatchParallel(title, parallel string) bool {
	want := parallelTokens(parallel)
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{})
	for _, t := range parallelTokens(title) {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// DetectParallel returns the longest catalog parallel found in text, or "".
func DetectParallel(text string) string {
	norm := " " + strings.Join(parallelTokens(text), " ") + " "
	best := ""
	for _, p := range Parallels {
		canon := NormalizeParallel(p)
		if canon == "" || len(canon) <= len(best) {
			continue
		}
		if strings.Contains(norm, " "+canon+" ") {
			best = canon
		}
	}
	return best
}

// StripParallels returns the normalized text with every catalog parallel
// phrase blanked out, longest phrases first.
func StripParallels(text string) string {
	norm := " " + strings.Join(parallelTokens(text), " ") + " "
	for _, canon := range strippable {
		for strings.Contains(norm, " "+canon+" ") {
			norm = strings.Replace(norm, " "+canon+" ", " ", 1)
		}
	}
	return strings.TrimSpace(norm)
}

var strippable = func() []string {
	out := make([]string, 0, len(Parallels))
	for _, p := range Parallels {
		if canon := NormalizeParallel(p); canon != "" {
			out = append(out, canon)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}()
