package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// MealPlannerConfig holds configuration for the meal planner
type MealPlannerConfig struct {
	CacheTTL           time.Duration
	DefaultServings    int
	RememberDecomposed bool
	Logger             *zap.Logger
	Recorder           Recorder
}

// MealPlanner turns meal names into parsed meals
type MealPlanner struct {
	recipes            *RecipeService
	cache              domain.CacheRepository
	decomposer         domain.MealDecomposer
	cacheTTL           time.Duration
	defaultServings    int
	rememberDecomposed bool
	logger             *zap.Logger
	recorder           Recorder
}

// NewMealPlanner creates a meal planner. cache and decomposer may be nil.
func NewMealPlanner(
	recipes *RecipeService,
	cache domain.CacheRepository,
	decomposer domain.MealDecomposer,
	config MealPlannerConfig,
) *MealPlanner {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 168 * time.Hour // Default 7 days
	}

	servings := config.DefaultServings
	if servings <= 0 {
		servings = 4
	}

	return &MealPlanner{
		recipes:            recipes,
		cache:              cache,
		decomposer:         decomposer,
		cacheTTL:           cacheTTL,
		defaultServings:    servings,
		rememberDecomposed: config.RememberDecomposed,
		logger:             logger.OrNop(config.Logger).Named("planner"),
		recorder:           recorderOrNop(config.Recorder),
	}
}

// PlannedMeal is a parsed meal plus how it was obtained
type PlannedMeal struct {
	Meal        domain.ParsedMeal   `json:"meal"`
	Source      string              `json:"source"`
	Match       *domain.MatchResult `json:"match,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Warning     string              `json:"warning,omitempty"`
}

// ParseMeals resolves each name in order.
// Flow per meal: recipe memory -> decomposition cache -> decomposer -> stub needing confirmation
func (p *MealPlanner) ParseMeals(ctx context.Context, names []string, servings int) ([]PlannedMeal, error) {
	if servings <= 0 {
		servings = p.defaultServings
	}

	planned := make([]PlannedMeal, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return planned, err
		}

		meal, err := p.parseMeal(ctx, name, servings)
		if err != nil {
			return planned, err
		}
		p.recorder.MealResolved(meal.Source)
		planned = append(planned, meal)
	}
	return planned, nil
}

func (p *MealPlanner) parseMeal(ctx context.Context, name string, servings int) (PlannedMeal, error) {
	// Try recipe memory first
	var suggestions []string
	if p.recipes != nil {
		recipe, match, err := p.recipes.Resolve(ctx, name)
		switch {
		case err == nil:
			meal := ToParsedMeal(recipe, servings)
			meal.NeedsConfirmation = match.Strategy == StrategyFuzzy
			return PlannedMeal{Meal: meal, Source: MealSourceRecipe, Match: &match}, nil
		case errors.Is(err, domain.ErrRecipeNotFound):
			suggestions = match.Contenders
		default:
			return PlannedMeal{}, fmt.Errorf("resolve recipe %q: %w", name, err)
		}
	}

	cacheKey := generateCacheKey(name, servings)

	if cached, ok := p.getFromCache(ctx, cacheKey); ok {
		return PlannedMeal{Meal: *cached, Source: MealSourceCache, Suggestions: suggestions}, nil
	}

	// Cache miss - ask the decomposer
	if p.decomposer == nil {
		return stubMeal(name, servings, suggestions, domain.ErrDecomposerUnavailable.Error()), nil
	}

	meal, err := p.decomposer.Decompose(ctx, name, servings)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return PlannedMeal{}, ctxErr
		}
		p.logger.Warn("decomposition failed", zap.String("meal", name), zap.Error(err))
		return stubMeal(name, servings, suggestions, err.Error()), nil
	}
	meal.Name = name
	meal.Servings = servings

	if err := p.setInCache(ctx, cacheKey, meal); err != nil {
		// caching is best effort
		p.logger.Debug("cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}

	if p.rememberDecomposed && p.recipes != nil && len(meal.PurchaseItems)+len(meal.PantryItems) > 0 {
		if _, err := p.recipes.SaveParsedMeal(ctx, *meal); err != nil {
			p.logger.Warn("could not remember recipe", zap.String("meal", name), zap.Error(err))
		}
	}

	return PlannedMeal{Meal: *meal, Source: MealSourceDecomposer, Suggestions: suggestions}, nil
}

func stubMeal(name string, servings int, suggestions []string, reason string) PlannedMeal {
	return PlannedMeal{
		Meal: domain.ParsedMeal{
			Name:              name,
			Servings:          servings,
			NeedsConfirmation: true,
			PurchaseItems:     []domain.Ingredient{},
			PantryItems:       []domain.Ingredient{},
		},
		Source:      MealSourceStub,
		Suggestions: suggestions,
		Warning:     reason,
	}
}

// generateCacheKey creates the decomposition cache key.
// Format: "meal:{normalized_name}:{servings}"
func generateCacheKey(name string, servings int) string {
	return fmt.Sprintf("meal:%s:%d", Normalize(name), servings)
}

func (p *MealPlanner) getFromCache(ctx context.Context, key string) (*domain.ParsedMeal, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var meal domain.ParsedMeal
	if err := json.Unmarshal(raw, &meal); err != nil {
		p.logger.Debug("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = p.cache.Delete(ctx, key)
		return nil, false
	}
	return &meal, true
}

func (p *MealPlanner) setInCache(ctx context.Context, key string, meal *domain.ParsedMeal) error {
	if p.cache == nil {
		return nil
	}
	raw, err := json.Marshal(meal)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, key, raw, p.cacheTTL)
}
