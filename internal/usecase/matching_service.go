package usecase

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// Scoring constants
const (
	fuzzyWeightFactor = 0.8  // Fuzzy token matches get 80% of an exact token
	maxInexactScore   = 0.99 // Only identical keys score 1.0
)

// Defaults used when MatchConfig leaves a field unset
const (
	DefaultMatchThreshold  = 0.8
	DefaultAmbiguityMargin = 0.05
)

// matchStopWords carry no identity in ingredient or recipe names
var matchStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "with": true, "in": true, "on": true, "for": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidenceThreshold float64 // 0-1
	AmbiguityMargin        float64
	FuzzyEditDistance      int
	Logger                 *zap.Logger
}

// MatchingService scores normalized keys against a candidate set and picks the best one.
// It holds no mutable state and is safe for concurrent use.
type MatchingService struct {
	minConfidenceThreshold float64
	ambiguityMargin        float64
	fuzzyEditDistance      int
	logger                 *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinConfidenceThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}

	margin := config.AmbiguityMargin
	if margin <= 0 || margin >= 1 {
		margin = DefaultAmbiguityMargin
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &MatchingService{
		minConfidenceThreshold: threshold,
		ambiguityMargin:        margin,
		fuzzyEditDistance:      fuzzyDist,
		logger:                 logger.OrNop(config.Logger).Named("matcher"),
	}
}

// Threshold returns the configured minimum confidence
func (s *MatchingService) Threshold() float64 {
	return s.minConfidenceThreshold
}

// Match finds the best candidate for query using the configured threshold
func (s *MatchingService) Match(query string, candidates []string) (domain.MatchResult, bool) {
	return s.MatchWithThreshold(query, candidates, s.minConfidenceThreshold)
}

type scoredCandidate struct {
	key     string
	score   float64
	matched []string
}

// better orders candidates by score, then shorter key, then lexical order
func (a scoredCandidate) better(b scoredCandidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	la, lb := len([]rune(a.key)), len([]rune(b.key))
	if la != lb {
		return la < lb
	}
	return a.key < b.key
}

// MatchWithThreshold returns the single highest-scoring candidate. Query and candidates
// are compared as given; callers pass normalized keys.
//
// ok is false when the best score is below threshold, or when another candidate above
// threshold scored within the ambiguity margin of the best; in the latter case the
// result has Ambiguous set and lists the contenders. Equal scores are therefore always
// ambiguous: the tie-break (shorter key, then lexical) orders the contenders and picks
// the reported Key but never turns a tie into a match.
func (s *MatchingService) MatchWithThreshold(query string, candidates []string, threshold float64) (domain.MatchResult, bool) {
	if query == "" || len(candidates) == 0 {
		return domain.MatchResult{}, false
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		score, matched := s.Score(query, c)
		scored = append(scored, scoredCandidate{key: c, score: score, matched: matched})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].better(scored[j]) })

	best := scored[0]
	result := domain.MatchResult{
		Key:           best.key,
		Confidence:    best.score,
		Strategy:      StrategyFuzzy,
		MatchedTokens: best.matched,
	}

	s.logger.Debug("best candidate",
		zap.String("query", query),
		zap.String("candidate", best.key),
		zap.Float64("confidence", best.score))

	if best.score < threshold {
		return result, false
	}

	if best.score < 1 {
		var contenders []string
		for _, c := range scored {
			if c.score < threshold || best.score-c.score >= s.ambiguityMargin {
				break
			}
			contenders = append(contenders, c.key)
		}
		if len(contenders) > 1 {
			result.Ambiguous = true
			result.Contenders = contenders
			s.logger.Debug("ambiguous match", zap.String("query", query), zap.Strings("contenders", contenders))
			return result, false
		}
	}

	return result, true
}

// Score computes the similarity between two normalized keys in [0,1].
// It is the larger of the edit-distance ratio and a weighted token Dice coefficient,
// and only identical keys score 1.
func (s *MatchingService) Score(query, candidate string) (float64, []string) {
	if query == candidate {
		return 1, tokenize(query)
	}

	ratio := levenshteinRatio(query, candidate)

	queryTokens := tokenize(query)
	candidateTokens := tokenize(candidate)
	dice, matched := s.tokenDice(queryTokens, candidateTokens)

	score := ratio
	if dice > score {
		score = dice
	}
	if score > maxInexactScore {
		score = maxInexactScore
	}
	if score < 0 {
		score = 0
	}
	return score, matched
}

// tokenDice pairs each query token with at most one candidate token.
// Exact or same-stem pairs count 1, edit-distance pairs count fuzzyWeightFactor.
func (s *MatchingService) tokenDice(queryTokens, candidateTokens []string) (float64, []string) {
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0, nil
	}

	used := make([]bool, len(candidateTokens))
	var weight float64
	var matched []string

	for _, qt := range queryTokens {
		bestIdx := -1
		bestWeight := 0.0
		for i, ct := range candidateTokens {
			if used[i] {
				continue
			}
			w := 0.0
			switch {
			case qt == ct || stem(qt) == stem(ct):
				w = 1
			case fuzzyTokenMatch(qt, ct, s.fuzzyEditDistance):
				w = fuzzyWeightFactor
			}
			if w > bestWeight {
				bestWeight = w
				bestIdx = i
				if w == 1 {
					break
				}
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			weight += bestWeight
			matched = append(matched, qt)
		}
	}

	return 2 * weight / float64(len(queryTokens)+len(candidateTokens)), matched
}

// tokenize splits a normalized key into tokens, dropping stop words
func tokenize(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if matchStopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// stem strips a plural suffix so "tomatoes" and "tomato" pair up
func stem(token string) string {
	if len(token) <= 3 {
		return token
	}
	switch {
	case strings.HasSuffix(token, "oes"), strings.HasSuffix(token, "ches"), strings.HasSuffix(token, "shes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	}
	return token
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens >= 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinRatio is 1 - distance/longer length
func levenshteinRatio(s1, s2 string) float64 {
	l1, l2 := len([]rune(s1)), len([]rune(s2))
	longest := max(l1, l2)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(s1, s2))/float64(longest)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
