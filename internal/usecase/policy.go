package usecase

import "github.com/grocerybutler/backend/internal/domain"

// Decision is the outcome of the exclusion policy for one ingredient
type Decision string

const (
	DecisionInclude Decision = "include"
	DecisionExclude Decision = "exclude"
)

// PolicyInput is everything the exclusion policy may look at.
// Tracked false means the ledger has no entry and Status is ignored.
type PolicyInput struct {
	Key      string
	IsStaple bool
	Status   domain.InventoryStatus
	Tracked  bool
}

// Rule is a single predicate/outcome pair in the exclusion table
type Rule struct {
	Name    string
	Applies func(in PolicyInput) bool
	Outcome Decision
}

// ExclusionRules is evaluated top to bottom and the first applicable rule wins.
// Inventory status overrides staple membership only when the item is tracked.
var ExclusionRules = []Rule{
	{
		Name:    "untracked staple assumed on hand",
		Applies: func(in PolicyInput) bool { return !in.Tracked && in.IsStaple },
		Outcome: DecisionExclude,
	},
	{
		Name:    "low or out needs restock",
		Applies: func(in PolicyInput) bool { return in.Tracked && in.Status.NeedsRestock() },
		Outcome: DecisionInclude,
	},
	{
		Name:    "staple on hand",
		Applies: func(in PolicyInput) bool { return in.Tracked && in.Status == domain.StatusOnHand && in.IsStaple },
		Outcome: DecisionExclude,
	},
	{
		Name:    "not a staple",
		Applies: func(in PolicyInput) bool { return !in.IsStaple },
		Outcome: DecisionInclude,
	},
}

// Decide applies ExclusionRules to in and returns the decision with the name of the rule
// that produced it. A tracked status outside the closed set is a PolicyViolationError.
func Decide(in PolicyInput) (Decision, string, error) {
	if in.Tracked && !in.Status.Valid() {
		return "", "", &domain.PolicyViolationError{Key: in.Key, Status: in.Status}
	}
	for _, rule := range ExclusionRules {
		if rule.Applies(in) {
			return rule.Outcome, rule.Name, nil
		}
	}
	// the four rules cover every valid input
	return "", "", &domain.PolicyViolationError{Key: in.Key, Status: in.Status}
}

// PolicyInputFor builds the policy input for key from a staple set and ledger snapshot
func PolicyInputFor(key string, staples domain.StapleSet, snapshot *domain.InventorySnapshot) PolicyInput {
	in := PolicyInput{Key: key, IsStaple: staples.Contains(key)}
	if entry, ok := snapshot.Lookup(key); ok {
		in.Tracked = true
		in.Status = entry.Status
	}
	return in
}
