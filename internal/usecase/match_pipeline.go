package usecase

import (
	"sort"

	"github.com/grocerybutler/backend/internal/domain"
)

// Strategy names reported in MatchResult.Strategy
const (
	StrategyExact      = "exact"
	StrategyNormalized = "normalized"
	StrategyFuzzy      = "fuzzy"
)

// MatchStrategy is one step of a resolution pipeline
type MatchStrategy interface {
	Name() string
	Match(query string, candidates []string) (domain.MatchResult, bool)
}

// MatchPipeline runs strategies left to right and stops at the first hit.
// An ambiguous result also stops the pipeline so callers can ask the user.
type MatchPipeline struct {
	strategies []MatchStrategy
}

// NewMatchPipeline composes strategies in the given order
func NewMatchPipeline(strategies ...MatchStrategy) *MatchPipeline {
	return &MatchPipeline{strategies: strategies}
}

// Pipeline returns the standard exact, normalized, fuzzy chain backed by s
func (s *MatchingService) Pipeline() *MatchPipeline {
	return NewMatchPipeline(ExactStrategy{}, NormalizedStrategy{}, &FuzzyStrategy{svc: s})
}

// Resolve returns the first successful strategy result. When nothing matches it returns the
// most informative miss (an ambiguous result, or the last scored candidate) with ok false.
func (p *MatchPipeline) Resolve(query string, candidates []string) (domain.MatchResult, bool) {
	var miss domain.MatchResult
	for _, strategy := range p.strategies {
		result, ok := strategy.Match(query, candidates)
		if ok {
			return result, true
		}
		if result.Ambiguous {
			return result, false
		}
		if result.Key != "" {
			miss = result
		}
	}
	return miss, false
}

// ExactStrategy matches a candidate byte-for-byte equal to the query
type ExactStrategy struct{}

func (ExactStrategy) Name() string { return StrategyExact }

func (ExactStrategy) Match(query string, candidates []string) (domain.MatchResult, bool) {
	for _, c := range candidates {
		if c == query {
			return domain.MatchResult{Key: c, Confidence: 1, Strategy: StrategyExact}, true
		}
	}
	return domain.MatchResult{}, false
}

// NormalizedStrategy matches candidates whose normalized form equals the normalized query
type NormalizedStrategy struct{}

func (NormalizedStrategy) Name() string { return StrategyNormalized }

func (NormalizedStrategy) Match(query string, candidates []string) (domain.MatchResult, bool) {
	key := Normalize(query)
	if key == "" {
		return domain.MatchResult{}, false
	}

	var hits []string
	for _, c := range candidates {
		if Normalize(c) == key {
			hits = append(hits, c)
		}
	}
	if len(hits) == 0 {
		return domain.MatchResult{}, false
	}

	sortByLengthThenLexical(hits)
	return domain.MatchResult{Key: hits[0], Confidence: 1, Strategy: StrategyNormalized}, true
}

// FuzzyStrategy scores the normalized query against normalized candidates
type FuzzyStrategy struct {
	svc *MatchingService
}

// NewFuzzyStrategy wraps a matching service as a pipeline step
func NewFuzzyStrategy(svc *MatchingService) *FuzzyStrategy {
	return &FuzzyStrategy{svc: svc}
}

func (f *FuzzyStrategy) Name() string { return StrategyFuzzy }

func (f *FuzzyStrategy) Match(query string, candidates []string) (domain.MatchResult, bool) {
	key := Normalize(query)
	if key == "" || len(candidates) == 0 {
		return domain.MatchResult{}, false
	}

	// several originals may share a normalized form; keep the preferred one
	originals := make(map[string]string, len(candidates))
	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := Normalize(c)
		if prev, ok := originals[n]; ok {
			pair := []string{prev, c}
			sortByLengthThenLexical(pair)
			originals[n] = pair[0]
			continue
		}
		originals[n] = c
		normalized = append(normalized, n)
	}

	result, ok := f.svc.Match(key, normalized)
	if result.Key != "" {
		result.Key = originals[result.Key]
	}
	for i, c := range result.Contenders {
		result.Contenders[i] = originals[c]
	}
	return result, ok
}

func sortByLengthThenLexical(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		li, lj := len([]rune(keys[i])), len([]rune(keys[j]))
		if li != lj {
			return li < lj
		}
		return keys[i] < keys[j]
	})
}
