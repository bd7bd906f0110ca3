package usecase

import (
	"time"

	"github.com/grocerybutler/backend/internal/domain"
)

// Meal sources reported to the Recorder
const (
	MealSourceRecipe     = "recipe"
	MealSourceCache      = "cache"
	MealSourceDecomposer = "decomposer"
	MealSourceStub       = "stub"
	MealSourceProvided   = "provided"
)

// Restock outcomes reported to the Recorder
const (
	RestockMatched   = "matched"
	RestockUnmatched = "unmatched"
	RestockAmbiguous = "ambiguous"
)

// Recorder receives operational measurements from the services.
// The prometheus implementation lives in infrastructure/metrics.
type Recorder interface {
	ConsolidationCompleted(elapsed time.Duration, result *ConsolidationResult)
	StatusTransition(status domain.InventoryStatus)
	RestockOutcome(outcome string)
	MealResolved(source string)
}

type nopRecorder struct{}

func (nopRecorder) ConsolidationCompleted(time.Duration, *ConsolidationResult) {}
func (nopRecorder) StatusTransition(domain.InventoryStatus)                   {}
func (nopRecorder) RestockOutcome(string)                                     {}
func (nopRecorder) MealResolved(string)                                       {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
