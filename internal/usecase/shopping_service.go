package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// ShoppingServiceConfig holds optional collaborators for the shopping service
type ShoppingServiceConfig struct {
	Logger   *zap.Logger
	Recorder Recorder
}

// ShoppingService builds shopping lists from meal names or parsed meals
type ShoppingService struct {
	planner      *MealPlanner
	recipes      *RecipeService
	ledger       *InventoryLedger
	pantry       *PantryService
	consolidator *Consolidator
	logger       *zap.Logger
	recorder     Recorder
}

// NewShoppingService wires the services a shopping list run needs
func NewShoppingService(
	planner *MealPlanner,
	recipes *RecipeService,
	ledger *InventoryLedger,
	pantry *PantryService,
	consolidator *Consolidator,
	config ShoppingServiceConfig,
) *ShoppingService {
	return &ShoppingService{
		planner:      planner,
		recipes:      recipes,
		ledger:       ledger,
		pantry:       pantry,
		consolidator: consolidator,
		logger:       logger.OrNop(config.Logger).Named("shopping"),
		recorder:     recorderOrNop(config.Recorder),
	}
}

// PlanRequest asks for a shopping list for a set of meal names
type PlanRequest struct {
	Meals          []string            `json:"meals" validate:"required,min=1,dive,required"`
	Servings       int                 `json:"servings" validate:"gte=0"`
	IncludeRestock bool                `json:"include_restock"`
	Additions      []domain.Ingredient `json:"additions"`
}

// PlanResult is a consolidated list together with how each meal was resolved
type PlanResult struct {
	*ConsolidationResult
	Meals []PlannedMeal `json:"meals"`
}

// BuildList parses the requested meals and consolidates them
func (s *ShoppingService) BuildList(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if len(req.Meals) == 0 {
		return nil, fmt.Errorf("%w: at least one meal is required", domain.ErrInvalidRequest)
	}

	planned, err := s.planner.ParseMeals(ctx, req.Meals, req.Servings)
	if err != nil {
		return nil, err
	}

	meals := make([]domain.ParsedMeal, len(planned))
	for i, p := range planned {
		meals[i] = p.Meal
	}

	result, err := s.consolidate(ctx, meals, req.Additions, req.IncludeRestock)
	if err != nil {
		return nil, err
	}

	for _, p := range planned {
		if p.Source != MealSourceRecipe || s.recipes == nil {
			continue
		}
		if err := s.recipes.MarkOrdered(ctx, p.Meal.Name); err != nil {
			s.logger.Debug("could not mark recipe ordered", zap.String("recipe", p.Meal.Name), zap.Error(err))
		}
	}

	return &PlanResult{ConsolidationResult: result, Meals: planned}, nil
}

// Consolidate merges meals the caller already parsed with additions.
// With includeRestock the ledger's restock queue is appended to the additions.
func (s *ShoppingService) Consolidate(
	ctx context.Context,
	meals []domain.ParsedMeal,
	additions []domain.Ingredient,
	includeRestock bool,
) (*ConsolidationResult, error) {
	for range meals {
		s.recorder.MealResolved(MealSourceProvided)
	}
	return s.consolidate(ctx, meals, additions, includeRestock)
}

// consolidate reads staples and a ledger snapshot once and runs the consolidator
func (s *ShoppingService) consolidate(
	ctx context.Context,
	meals []domain.ParsedMeal,
	additions []domain.Ingredient,
	includeRestock bool,
) (*ConsolidationResult, error) {
	start := time.Now()

	if includeRestock {
		queued, err := s.ledger.RestockAdditions(ctx)
		if err != nil {
			return nil, err
		}
		additions = append(append([]domain.Ingredient(nil), additions...), queued...)
	}

	staples, err := s.pantry.StapleSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pantry staples: %w", err)
	}
	snapshot, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.consolidator.Consolidate(ConsolidationInput{
		Meals:            meals,
		RestockAdditions: additions,
		Staples:          staples,
		Inventory:        snapshot,
	})
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.recorder.ConsolidationCompleted(elapsed, result)
	s.logger.Info("shopping list built",
		zap.Int("meals", len(meals)),
		zap.Int("items", len(result.Items)),
		zap.Bool("warnings", result.HasWarnings()),
		zap.Duration("elapsed", elapsed))

	return result, nil
}
