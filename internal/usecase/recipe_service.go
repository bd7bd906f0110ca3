package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// RecipeServiceConfig holds dependencies for recipe memory
type RecipeServiceConfig struct {
	Matcher   *MatchPipeline
	Validator *validator.Validate
	Clock     func() time.Time
	Logger    *zap.Logger
}

// RecipeService is recipe memory: known recipes keyed by normalized name
type RecipeService struct {
	repo     domain.RecipeRepository
	matcher  *MatchPipeline
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewRecipeService creates a recipe service over repo
func NewRecipeService(repo domain.RecipeRepository, config RecipeServiceConfig) *RecipeService {
	matcher := config.Matcher
	if matcher == nil {
		matcher = NewMatchingService(MatchConfig{Logger: config.Logger}).Pipeline()
	}
	validate := config.Validator
	if validate == nil {
		validate = NewValidator()
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RecipeService{
		repo:     repo,
		matcher:  matcher,
		validate: validate,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger.OrNop(config.Logger).Named("recipes"),
	}
}

// prepare canonicalizes units, fills whichever of quantity and per-serving quantity is
// missing, derives the key and validates the result
func (s *RecipeService) prepare(recipe *domain.Recipe) error {
	if recipe.DefaultServings <= 0 {
		return fmt.Errorf("%w: servings must be greater than 0", domain.ErrInvalidRequest)
	}
	servings := decimal.NewFromInt(int64(recipe.DefaultServings))

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		ing.Unit = string(domain.ParseUnit(ing.Unit))
		switch {
		case ing.Quantity <= 0 && ing.QuantityPerServing > 0:
			ing.Quantity = decimal.NewFromFloat(ing.QuantityPerServing).Mul(servings).Round(2).InexactFloat64()
		case ing.QuantityPerServing <= 0 && ing.Quantity > 0:
			ing.QuantityPerServing = decimal.NewFromFloat(ing.Quantity).Div(servings).Round(4).InexactFloat64()
		}
	}

	recipe.Name = Normalize(recipe.DisplayName)
	if err := s.validate.Struct(recipe); err != nil {
		problems := MalformedFromValidation(recipe.DisplayName, err)
		return fmt.Errorf("%w: %s %s", domain.ErrInvalidRequest, problems[0].Field, problems[0].Reason)
	}
	if recipe.Name == "" {
		return fmt.Errorf("%w: recipe name has no letters or digits", domain.ErrInvalidRequest)
	}
	return nil
}

// Create stores a new recipe. The normalized name must be free.
func (s *RecipeService) Create(ctx context.Context, recipe *domain.Recipe) error {
	if err := s.prepare(recipe); err != nil {
		return err
	}

	now := s.now()
	recipe.ID = newID()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	if err := s.repo.Create(ctx, recipe); err != nil {
		return err
	}
	s.logger.Info("recipe created", zap.String("recipe", recipe.Name), zap.Int("ingredients", len(recipe.Ingredients)))
	return nil
}

// Get returns the recipe whose normalized key equals Normalize(name)
func (s *RecipeService) Get(ctx context.Context, name string) (*domain.Recipe, error) {
	return s.repo.GetByKey(ctx, Normalize(name))
}

// Update replaces the recipe stored under name. Renaming to a name whose key is taken
// fails with ErrRecipeExists.
func (s *RecipeService) Update(ctx context.Context, name string, recipe *domain.Recipe) error {
	existing, err := s.repo.GetByKey(ctx, Normalize(name))
	if err != nil {
		return err
	}
	if err := s.prepare(recipe); err != nil {
		return err
	}

	recipe.ID = existing.ID
	recipe.CreatedAt = existing.CreatedAt
	recipe.TimesOrdered = existing.TimesOrdered
	recipe.UpdatedAt = s.now()

	if recipe.Name == existing.Name {
		return s.repo.Update(ctx, recipe)
	}

	if _, err := s.repo.GetByKey(ctx, recipe.Name); err == nil {
		return fmt.Errorf("%w: %q", domain.ErrRecipeExists, recipe.Name)
	} else if !errors.Is(err, domain.ErrRecipeNotFound) {
		return err
	}
	if err := s.repo.Delete(ctx, existing.Name); err != nil {
		return err
	}
	s.logger.Info("recipe renamed", zap.String("from", existing.Name), zap.String("to", recipe.Name))
	return s.repo.Create(ctx, recipe)
}

// List returns all recipes ordered by key
func (s *RecipeService) List(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })
	return recipes, nil
}

// Forget deletes a recipe. It is the only way a recipe leaves memory.
func (s *RecipeService) Forget(ctx context.Context, name string) error {
	key := Normalize(name)
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info("recipe forgotten", zap.String("recipe", key))
	return nil
}

// Resolve finds the recipe for a free-text meal name through the exact, normalized and
// fuzzy strategies. On a miss it returns ErrRecipeNotFound along with the match result,
// which lists contenders when the name was ambiguous.
func (s *RecipeService) Resolve(ctx context.Context, query string) (*domain.Recipe, domain.MatchResult, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.MatchResult{}, err
	}
	keys := make([]string, len(recipes))
	byKey := make(map[string]*domain.Recipe, len(recipes))
	for i := range recipes {
		keys[i] = recipes[i].Name
		byKey[recipes[i].Name] = &recipes[i]
	}

	result, ok := s.matcher.Resolve(query, keys)
	if !ok {
		return nil, result, domain.ErrRecipeNotFound
	}
	s.logger.Debug("recipe resolved",
		zap.String("query", query),
		zap.String("recipe", result.Key),
		zap.String("strategy", result.Strategy),
		zap.Float64("confidence", result.Confidence))
	return byKey[result.Key], result, nil
}

// SaveParsedMeal remembers a decomposed meal, storing per-serving quantities.
// An existing recipe with the same key gets its ingredients replaced.
func (s *RecipeService) SaveParsedMeal(ctx context.Context, meal domain.ParsedMeal) (*domain.Recipe, error) {
	if meal.Servings <= 0 {
		return nil, fmt.Errorf("%w: servings must be greater than 0", domain.ErrInvalidRequest)
	}

	recipe := &domain.Recipe{
		DisplayName:     meal.Name,
		DefaultServings: meal.Servings,
	}
	for _, item := range meal.PurchaseItems {
		item.IsPantryItem = false
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{Ingredient: item})
	}
	for _, item := range meal.PantryItems {
		item.IsPantryItem = true
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{Ingredient: item})
	}

	existing, err := s.repo.GetByKey(ctx, Normalize(meal.Name))
	switch {
	case err == nil:
		if err := s.Update(ctx, existing.Name, recipe); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrRecipeNotFound):
		if err := s.Create(ctx, recipe); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return recipe, nil
}

// ToParsedMeal scales a recipe to servings (default servings when servings <= 0).
// Scaled quantities are rounded to two decimals and never drop to zero.
func ToParsedMeal(recipe *domain.Recipe, servings int) domain.ParsedMeal {
	if servings <= 0 {
		servings = recipe.DefaultServings
	}
	n := decimal.NewFromInt(int64(servings))
	floor := decimal.New(1, -2)

	meal := domain.ParsedMeal{
		Name:          recipe.DisplayName,
		Servings:      servings,
		KnownRecipe:   true,
		PurchaseItems: []domain.Ingredient{},
		PantryItems:   []domain.Ingredient{},
	}
	for _, ri := range recipe.Ingredients {
		item := ri.Ingredient
		q := decimal.NewFromFloat(ri.QuantityPerServing).Mul(n).Round(2)
		if q.LessThan(floor) {
			q = floor
		}
		item.Quantity = q.InexactFloat64()
		if item.IsPantryItem {
			meal.PantryItems = append(meal.PantryItems, item)
		} else {
			meal.PurchaseItems = append(meal.PurchaseItems, item)
		}
	}
	return meal
}

// MarkOrdered bumps the times-ordered counter
func (s *RecipeService) MarkOrdered(ctx context.Context, name string) error {
	return s.repo.IncrementTimesOrdered(ctx, Normalize(name))
}

// recipeFile is the YAML document written by Export and read by Import
type recipeFile struct {
	Recipes []domain.Recipe `yaml:"recipes"`
}

// Export writes every recipe as a YAML document
func (s *RecipeService) Export(ctx context.Context, w io.Writer) error {
	recipes, err := s.List(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recipeFile{Recipes: recipes}); err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}
	return enc.Close()
}

// ImportReport summarizes a YAML import
type ImportReport struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
}

// Import reads a YAML document produced by Export. Recipes whose key exists are
// replaced, others are created. The first invalid recipe stops the import.
func (s *RecipeService) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	var file recipeFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode recipes: %v", domain.ErrInvalidRequest, err)
	}

	report := &ImportReport{Created: []string{}, Updated: []string{}}
	for i := range file.Recipes {
		recipe := file.Recipes[i]
		key := Normalize(recipe.DisplayName)
		_, err := s.repo.GetByKey(ctx, key)
		switch {
		case err == nil:
			if err := s.Update(ctx, key, &recipe); err != nil {
				return report, fmt.Errorf("import %q: %w", recipe.DisplayName, err)
			}
			report.Updated = append(report.Updated, recipe.Name)
		case errors.Is(err, domain.ErrRecipeNotFound):
			if err := s.Create(ctx, &recipe); err != nil {
				return report, fmt.Errorf("import %q: %w", recipe.DisplayName, err)
			}
			report.Created = append(report.Created, recipe.Name)
		default:
			return report, err
		}
	}
	return report, nil
}
