package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatchingService(t *testing.T) {
	t.Run("creates service with provided threshold", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{MinConfidenceThreshold: 0.9})
		if svc.minConfidenceThreshold != 0.9 {
			t.Errorf("minConfidenceThreshold = %v, want 0.9", svc.minConfidenceThreshold)
		}
	})

	t.Run("uses default threshold when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{})
		if svc.minConfidenceThreshold != DefaultMatchThreshold {
			t.Errorf("minConfidenceThreshold = %v, want %v (default)", svc.minConfidenceThreshold, DefaultMatchThreshold)
		}
		if svc.ambiguityMargin != DefaultAmbiguityMargin {
			t.Errorf("ambiguityMargin = %v, want %v (default)", svc.ambiguityMargin, DefaultAmbiguityMargin)
		}
		if svc.fuzzyEditDistance != 1 {
			t.Errorf("fuzzyEditDistance = %v, want 1 (default)", svc.fuzzyEditDistance)
		}
	})

	t.Run("uses default threshold when above one", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{MinConfidenceThreshold: 40})
		if svc.minConfidenceThreshold != DefaultMatchThreshold {
			t.Errorf("minConfidenceThreshold = %v, want %v (default)", svc.minConfidenceThreshold, DefaultMatchThreshold)
		}
	})
}

func TestMatch(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})

	t.Run("identical key scores one", func(t *testing.T) {
		result, ok := svc.Match("caesar salad", []string{"caesar salad", "chicken tikka masala"})
		require.True(t, ok)
		assert.Equal(t, "caesar salad", result.Key)
		assert.Equal(t, 1.0, result.Confidence)
	})

	t.Run("tolerates a typo", func(t *testing.T) {
		result, ok := svc.Match("chiken tikka masala", []string{"caesar salad", "chicken tikka masala"})
		require.True(t, ok)
		assert.Equal(t, "chicken tikka masala", result.Key)
		assert.Greater(t, result.Confidence, 0.9)
		assert.Less(t, result.Confidence, 1.0)
	})

	t.Run("pairs plural and singular", func(t *testing.T) {
		result, ok := svc.Match("tomatoes", []string{"potato", "tomato"})
		require.True(t, ok)
		assert.Equal(t, "tomato", result.Key)
		assert.Equal(t, maxInexactScore, result.Confidence)
	})

	t.Run("below threshold is no match", func(t *testing.T) {
		result, ok := svc.Match("pizza", []string{"caesar salad", "chicken tikka masala"})
		assert.False(t, ok)
		assert.False(t, result.Ambiguous)
		assert.Less(t, result.Confidence, DefaultMatchThreshold)
	})

	t.Run("partial token overlap stays below threshold", func(t *testing.T) {
		_, ok := svc.Match("salt", []string{"sea salt"})
		assert.False(t, ok)
	})

	t.Run("near-equal candidates are ambiguous", func(t *testing.T) {
		result, ok := svc.Match("chili powder", []string{"chile powder", "chilli powder"})
		assert.False(t, ok)
		assert.True(t, result.Ambiguous)
		assert.Equal(t, []string{"chilli powder", "chile powder"}, result.Contenders)
		assert.Equal(t, "chilli powder", result.Key)
	})

	t.Run("equal scores stay ambiguous with contenders ordered by length then lexically", func(t *testing.T) {
		result, ok := svc.Match("abcd", []string{"abcf", "abcdef", "abce"})
		assert.False(t, ok)
		assert.True(t, result.Ambiguous)
		assert.Equal(t, "abce", result.Key)
		assert.Equal(t, []string{"abce", "abcf"}, result.Contenders)
	})

	t.Run("empty inputs", func(t *testing.T) {
		_, ok := svc.Match("", []string{"salt"})
		assert.False(t, ok)
		_, ok = svc.Match("salt", nil)
		assert.False(t, ok)
	})
}

func TestMatchDeterministic(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	candidates := []string{"chicken tikka masala", "chicken masala", "tikka masala", "chicken curry"}
	reversed := []string{"chicken curry", "tikka masala", "chicken masala", "chicken tikka masala"}

	first, ok1 := svc.Match("chicken tika masala", candidates)
	second, ok2 := svc.Match("chicken tika masala", reversed)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestScoreRange(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	pairs := [][2]string{
		{"salt", "salt"},
		{"salt", "pepper"},
		{"", "pepper"},
		{"olive oil", "extra-virgin olive oil"},
		{"a", "b"},
	}
	for _, p := range pairs {
		score, _ := svc.Score(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", p[0], p[1])
		assert.LessOrEqual(t, score, 1.0, "%q vs %q", p[0], p[1])
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"jalapeño", "jalapeno", 1},
	}

	for _, tc := range testCases {
		if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.s1, tc.s2, got, tc.want)
		}
	}
}

func TestStem(t *testing.T) {
	testCases := map[string]string{
		"tomatoes": "tomato",
		"peaches":  "peach",
		"berries":  "berry",
		"eggs":     "egg",
		"glass":    "glass",
		"gas":      "gas",
		"rice":     "rice",
	}
	for in, want := range testCases {
		if got := stem(in); got != want {
			t.Errorf("stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchPipeline(t *testing.T) {
	pipeline := NewMatchingService(MatchConfig{}).Pipeline()

	t.Run("exact strategy wins first", func(t *testing.T) {
		result, ok := pipeline.Resolve("salt", []string{"sea salt", "salt"})
		require.True(t, ok)
		assert.Equal(t, "salt", result.Key)
		assert.Equal(t, StrategyExact, result.Strategy)
	})

	t.Run("normalized strategy", func(t *testing.T) {
		result, ok := pipeline.Resolve("The Salt!", []string{"sea salt", "salt"})
		require.True(t, ok)
		assert.Equal(t, "salt", result.Key)
		assert.Equal(t, StrategyNormalized, result.Strategy)
	})

	t.Run("fuzzy strategy returns the original candidate", func(t *testing.T) {
		result, ok := pipeline.Resolve("Chiken Tikka Masala", []string{"Chicken Tikka Masala", "Caesar Salad"})
		require.True(t, ok)
		assert.Equal(t, "Chicken Tikka Masala", result.Key)
		assert.Equal(t, StrategyFuzzy, result.Strategy)
	})

	t.Run("no match", func(t *testing.T) {
		result, ok := pipeline.Resolve("pizza", []string{"salt"})
		assert.False(t, ok)
		assert.False(t, result.Ambiguous)
	})

	t.Run("ambiguous stops the pipeline", func(t *testing.T) {
		result, ok := pipeline.Resolve("chili powder", []string{"chile powder", "chilli powder"})
		assert.False(t, ok)
		assert.True(t, result.Ambiguous)
		assert.Len(t, result.Contenders, 2)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := pipeline.Resolve("salt", nil)
		assert.False(t, ok)
	})
}
