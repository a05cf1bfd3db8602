// Package fuzzy resolves free-text item names against the catalog.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/model"
)

// Default thresholds on the 0..100 similarity scale.
const (
	DefaultHighThreshold = 96
	DefaultLowThreshold  = 80

	// MaxSuggestions bounds the candidates offered to the user.
	MaxSuggestions = 3
)

// Tier is the confidence band a resolution falls into.
type Tier int

const (
	// TierNone means the name is unresolved.
	TierNone Tier = iota
	// TierSuggest means the user must pick one of the candidates.
	TierSuggest
	// TierHighConfidence means the canonical name is substituted silently.
	TierHighConfidence
)

// String returns the tier label used in logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierHighConfidence:
		return "high_confidence"
	case TierSuggest:
		return "suggest"
	default:
		return "none"
	}
}

// Candidate is a scored catalog name.
type Candidate struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Result is the outcome of resolving one raw item name.
type Result struct {
	Tier       Tier
	Query      string
	Entry      model.CatalogEntry // set for TierHighConfidence
	Score      int                // top score
	Candidates []Candidate        // set for TierSuggest, best first
}

// CandidateNames returns the suggested names in rank order.
func (r Result) CandidateNames() []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Name
	}
	return out
}

// Resolver resolves names against an index using two thresholds.
type Resolver struct {
	index  *catalog.Index
	scorer Scorer
	high   int
	low    int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThresholds overrides the high and low thresholds.
func WithThresholds(high, low int) Option {
	return func(r *Resolver) {
		r.high = high
		r.low = low
	}
}

// WithScorer overrides the similarity scorer.
func WithScorer(s Scorer) Option {
	return func(r *Resolver) {
		r.scorer = s
	}
}

// NewResolver creates a resolver over index.
func NewResolver(index *catalog.Index, opts ...Option) *Resolver {
	r := &Resolver{
		index:  index,
		scorer: WeightedRatio{},
		high:   DefaultHighThreshold,
		low:    DefaultLowThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.low > r.high {
		r.low = r.high
	}
	return r
}

// Classify maps a top score to its tier. It is monotonic in score.
func (r *Resolver) Classify(score int) Tier {
	switch {
	case score >= r.high:
		return TierHighConfidence
	case score >= r.low:
		return TierSuggest
	default:
		return TierNone
	}
}

// Resolve resolves a raw item name. An exact case-insensitive match is always
// high confidence. Otherwise every catalog name is scored; a high-confidence
// answer requires a single top-ranked name; a tie at the top is offered as a
// suggestion instead.
func (r *Resolver) Resolve(query string) Result {
	res := Result{Query: query}
	if strings.TrimSpace(query) == "" {
		return res
	}

	if e, ok := r.index.Lookup(query); ok {
		res.Tier = TierHighConfidence
		res.Entry = e
		res.Score = 100
		return res
	}

	entries := r.index.Entries()
	if len(entries) == 0 {
		return res
	}

	ranked := make([]Candidate, len(entries))
	for i, e := range entries {
		ranked[i] = Candidate{Name: e.Name, Score: r.scorer.Score(query, e.Name)}
	}
	// Stable keeps catalog order among equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	top := ranked[0]
	res.Score = top.Score
	tier := r.Classify(top.Score)

	if tier == TierHighConfidence && len(ranked) > 1 && ranked[1].Score == top.Score {
		tier = TierSuggest
	}

	switch tier {
	case TierHighConfidence:
		res.Tier = TierHighConfidence
		res.Entry, _ = r.index.Lookup(top.Name)
	case TierSuggest:
		res.Tier = TierSuggest
		for _, c := range ranked {
			if len(res.Candidates) == MaxSuggestions || c.Score < r.low {
				break
			}
			res.Candidates = append(res.Candidates, c)
		}
	}
	return res
}

// Best returns the entry the resolver would price the name as: the exact or
// high-confidence match, else the top suggestion.
func (r *Resolver) Best(query string) (model.CatalogEntry, bool) {
	res := r.Resolve(query)
	switch res.Tier {
	case TierHighConfidence:
		return res.Entry, true
	case TierSuggest:
		return r.index.Lookup(res.Candidates[0].Name)
	default:
		return model.CatalogEntry{}, false
	}
}
