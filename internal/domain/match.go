package domain

// MatchResult represents the outcome of resolving a query against a candidate set
type MatchResult struct {
	Key           string   `json:"key"`
	Confidence    float64  `json:"confidence"` // 0-1
	Strategy      string   `json:"strategy"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`

	// Ambiguous is set when two or more candidates scored above threshold within the
	// ambiguity margin. Contenders lists them best first.
	Ambiguous  bool     `json:"ambiguous,omitempty"`
	Contenders []string `json:"contenders,omitempty"`
}
