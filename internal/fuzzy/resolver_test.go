package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/model"
)

func testIndex() *catalog.Index {
	return catalog.NewIndex([]model.CatalogEntry{
		{Name: "Margherita Pizza", Price: 400},
		{Name: "Margarita Mocktail", Price: 180},
		{Name: "Garlic Bread", Price: 150},
		{Name: "Marinara Pasta", Price: 320},
	})
}

// fixedScores returns the configured score for a candidate and 0 otherwise.
func fixedScores(scores map[string]int) Scorer {
	return ScorerFunc(func(query, candidate string) int {
		return scores[candidate]
	})
}

func TestResolveHighConfidenceSubstitutesCanonicalName(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{
		"Margherita Pizza":   97,
		"Margarita Mocktail": 90,
	})))

	res := r.Resolve("margarita")
	require.Equal(t, TierHighConfidence, res.Tier)
	assert.Equal(t, "Margherita Pizza", res.Entry.Name)
	assert.Equal(t, 97, res.Score)
	assert.Empty(t, res.Candidates)
}

func TestResolveSuggestReturnsRankedCandidates(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{
		"Margherita Pizza":   82,
		"Margarita Mocktail": 81,
		"Marinara Pasta":     82,
		"Garlic Bread":       40,
	})))

	res := r.Resolve("marg")
	require.Equal(t, TierSuggest, res.Tier)
	assert.Equal(t, 82, res.Score)
	assert.Equal(t, []string{"Margherita Pizza", "Marinara Pasta", "Margarita Mocktail"}, res.CandidateNames())
	assert.Empty(t, res.Entry.Name, "suggestions are never auto-applied")
}

func TestResolveSuggestCapsAndFiltersCandidates(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{
		"Margherita Pizza":   85,
		"Margarita Mocktail": 85,
		"Garlic Bread":       85,
		"Marinara Pasta":     85,
	})))
	res := r.Resolve("something")
	require.Equal(t, TierSuggest, res.Tier)
	assert.Equal(t, []string{"Margherita Pizza", "Margarita Mocktail", "Garlic Bread"}, res.CandidateNames())

	r = NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{
		"Margherita Pizza": 88,
		"Garlic Bread":     79,
	})))
	res = r.Resolve("something")
	assert.Equal(t, []string{"Margherita Pizza"}, res.CandidateNames())
}

func TestResolveTieAtTopIsNotSilent(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{
		"Margherita Pizza":   98,
		"Margarita Mocktail": 98,
	})))
	res := r.Resolve("margarita")
	assert.Equal(t, TierSuggest, res.Tier)
	assert.Equal(t, []string{"Margherita Pizza", "Margarita Mocktail"}, res.CandidateNames())
}

func TestResolveNone(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{"Garlic Bread": 79})))
	res := r.Resolve("sushi")
	assert.Equal(t, TierNone, res.Tier)
	assert.Equal(t, 79, res.Score)

	empty := NewResolver(catalog.NewIndex(nil))
	assert.Equal(t, TierNone, empty.Resolve("Margherita Pizza").Tier)
	assert.Equal(t, TierNone, r.Resolve("   ").Tier)
}

func TestResolveExactMatchSkipsScoring(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(nil)))
	res := r.Resolve("garlic BREAD")
	require.Equal(t, TierHighConfidence, res.Tier)
	assert.Equal(t, "Garlic Bread", res.Entry.Name)
}

func TestClassifyIsMonotonic(t *testing.T) {
	r := NewResolver(testIndex())
	prev := r.Classify(0)
	for score := 1; score <= 100; score++ {
		tier := r.Classify(score)
		require.GreaterOrEqual(t, tier, prev, "score %d downgraded tier", score)
		prev = tier
	}
	assert.Equal(t, TierNone, r.Classify(79))
	assert.Equal(t, TierSuggest, r.Classify(80))
	assert.Equal(t, TierSuggest, r.Classify(95))
	assert.Equal(t, TierHighConfidence, r.Classify(96))
}

func TestWithThresholds(t *testing.T) {
	r := NewResolver(testIndex(), WithThresholds(90, 95))
	assert.Equal(t, TierHighConfidence, r.Classify(90))
	assert.Equal(t, TierNone, r.Classify(89))
}

func TestResolveWithWeightedRatio(t *testing.T) {
	r := NewResolver(testIndex())

	res := r.Resolve("marg")
	require.Equal(t, TierSuggest, res.Tier)
	assert.Equal(t, []string{"Margherita Pizza", "Margarita Mocktail"}, res.CandidateNames())

	res = r.Resolve("Margherita-Pizza!")
	require.Equal(t, TierHighConfidence, res.Tier)
	assert.Equal(t, "Margherita Pizza", res.Entry.Name)

	assert.Equal(t, TierNone, r.Resolve("sushi platter").Tier)
}

func TestBest(t *testing.T) {
	r := NewResolver(testIndex(), WithScorer(fixedScores(map[string]int{"Marinara Pasta": 85})))

	e, ok := r.Best("marinara")
	require.True(t, ok)
	assert.Equal(t, "Marinara Pasta", e.Name)

	_, ok = r.Best("zzz")
	assert.False(t, ok)
}
