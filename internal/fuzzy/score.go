package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Scorer returns a similarity score between 0 and 100.
type Scorer interface {
	Score(query, candidate string) int
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(query, candidate string) int

// Score implements Scorer.
func (f ScorerFunc) Score(query, candidate string) int { return f(query, candidate) }

// indel counts a substitution as a delete plus an insert, so similarity is
// 1 - distance/(len(a)+len(b)).
var indel = levenshtein.NewParams().SubCost(2)

// WeightedRatio combines plain, partial and token based ratios the way
// free-text matchers usually do. Inputs are lower-cased and stripped of
// punctuation before comparison.
type WeightedRatio struct{}

// Score implements Scorer.
func (WeightedRatio) Score(query, candidate string) int {
	a, b := preprocess(query), preprocess(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	best := ratio(a, b)

	la, lb := runeLen(a), runeLen(b)
	short, long := la, lb
	if short > long {
		short, long = long, short
	}
	lenRatio := float64(long) / float64(short)

	if lenRatio < 1.5 {
		best = math.Max(best, tokenSortRatio(a, b)*0.95)
		best = math.Max(best, tokenSetRatio(a, b)*0.95)
		return toScore(best)
	}

	partialScale := 0.9
	if lenRatio >= 8 {
		partialScale = 0.6
	}
	best = math.Max(best, partialRatio(a, b)*partialScale)
	best = math.Max(best, partialRatio(sortTokens(a), sortTokens(b))*0.95*partialScale)
	return toScore(best)
}

// ratio is the normalised indel similarity on a 0..100 scale.
func ratio(a, b string) float64 {
	return levenshtein.Similarity(a, b, indel) * 100
}

// partialRatio is the best ratio of the shorter string against every window
// of the same length in the longer one.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	short := string(ra)
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		r := ratio(short, string(rb[i:i+len(ra)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

// tokenSetRatio compares the shared tokens against each side's remainder.
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	var common, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	if len(common) == 0 {
		return 0
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))
	if len(onlyA) == 0 || len(onlyB) == 0 {
		return 100
	}
	return math.Max(ratio(base, withA), math.Max(ratio(base, withB), ratio(withA, withB)))
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		out[f] = true
	}
	return out
}

// preprocess lower-cases s, turns non-alphanumerics into spaces and
// collapses whitespace.
func preprocess(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}

func toScore(f float64) int {
	return int(math.Round(f))
}
