package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grocerybutler/backend/internal/domain"
)

// RecipeRepository implements domain.RecipeRepository
type RecipeRepository struct {
	db *sql.DB
}

const recipeColumns = `key, id, display_name, default_servings, ingredients, times_ordered, created_at, updated_at`

// Create inserts a recipe; a taken key is domain.ErrRecipeExists
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	ingredients, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.Name, recipe.ID, recipe.DisplayName, recipe.DefaultServings, ingredients,
		recipe.TimesOrdered, formatTime(recipe.CreatedAt), formatTime(recipe.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrRecipeExists
	}
	if err != nil {
		return fmt.Errorf("insert recipe %q: %w", recipe.Name, err)
	}
	return nil
}

// GetByKey loads a recipe by normalized key
func (r *RecipeRepository) GetByKey(ctx context.Context, key string) (*domain.Recipe, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE key = ?`, key)
	recipe, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %q: %w", key, err)
	}
	return recipe, nil
}

// Update replaces a stored recipe's fields
func (r *RecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	ingredients, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET display_name = ?, default_servings = ?, ingredients = ?, times_ordered = ?, updated_at = ?
		 WHERE key = ?`,
		recipe.DisplayName, recipe.DefaultServings, ingredients, recipe.TimesOrdered,
		formatTime(recipe.UpdatedAt), recipe.Name,
	)
	if err != nil {
		return fmt.Errorf("update recipe %q: %w", recipe.Name, err)
	}
	return expectOneRow(res, domain.ErrRecipeNotFound)
}

// List returns all recipes ordered by key
func (r *RecipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, rows.Err()
}

// Delete removes a recipe
func (r *RecipeRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete recipe %q: %w", key, err)
	}
	return expectOneRow(res, domain.ErrRecipeNotFound)
}

// IncrementTimesOrdered bumps the order counter atomically
func (r *RecipeRepository) IncrementTimesOrdered(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recipes SET times_ordered = times_ordered + 1 WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("increment recipe %q: %w", key, err)
	}
	return expectOneRow(res, domain.ErrRecipeNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*domain.Recipe, error) {
	var (
		recipe               domain.Recipe
		ingredients          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&recipe.Name, &recipe.ID, &recipe.DisplayName, &recipe.DefaultServings,
		&ingredients, &recipe.TimesOrdered, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ingredients), &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients of %q: %w", recipe.Name, err)
	}
	var err error
	if recipe.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if recipe.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func encodeIngredients(items []domain.RecipeIngredient) (string, error) {
	if items == nil {
		items = []domain.RecipeIngredient{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(data), nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
