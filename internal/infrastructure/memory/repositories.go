// Package memory holds map-backed repositories used when database.driver is "memory"
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/grocerybutler/backend/internal/domain"
)

// RecipeRepository is a thread-safe in-memory domain.RecipeRepository
type RecipeRepository struct {
	mu   sync.RWMutex
	data map[string]domain.Recipe
}

// NewRecipeRepository creates an empty recipe repository
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{data: make(map[string]domain.Recipe)}
}

func cloneRecipe(r domain.Recipe) domain.Recipe {
	r.Ingredients = append([]domain.RecipeIngredient(nil), r.Ingredients...)
	return r
}

// Create stores a copy of recipe under its normalized name, failing with ErrRecipeExists if taken
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[recipe.Name]; ok {
		return domain.ErrRecipeExists
	}
	r.data[recipe.Name] = cloneRecipe(*recipe)
	return nil
}

// GetByKey returns a copy of the recipe stored under key
func (r *RecipeRepository) GetByKey(ctx context.Context, key string) (*domain.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recipe, ok := r.data[key]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	out := cloneRecipe(recipe)
	return &out, nil
}

// Update replaces an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[recipe.Name]; !ok {
		return domain.ErrRecipeNotFound
	}
	r.data[recipe.Name] = cloneRecipe(*recipe)
	return nil
}

// List returns every recipe ordered by key
func (r *RecipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Recipe, 0, len(r.data))
	for _, recipe := range r.data {
		out = append(out, cloneRecipe(recipe))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the recipe stored under key
func (r *RecipeRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return domain.ErrRecipeNotFound
	}
	delete(r.data, key)
	return nil
}

// IncrementTimesOrdered bumps the order counter of a recipe
func (r *RecipeRepository) IncrementTimesOrdered(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe, ok := r.data[key]
	if !ok {
		return domain.ErrRecipeNotFound
	}
	recipe.TimesOrdered++
	r.data[key] = recipe
	return nil
}

// InventoryRepository is a thread-safe in-memory domain.InventoryRepository
type InventoryRepository struct {
	mu   sync.RWMutex
	data map[string]domain.InventoryEntry
}

// NewInventoryRepository creates an empty inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{data: make(map[string]domain.InventoryEntry)}
}

// Get returns the entry for key, or ErrInventoryItemNotFound
func (r *InventoryRepository) Get(ctx context.Context, key string) (*domain.InventoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[key]
	if !ok {
		return nil, domain.ErrInventoryItemNotFound
	}
	return &e, nil
}

// Upsert stores entry, keeping the id of an existing entry with the same key
func (r *InventoryRepository) Upsert(ctx context.Context, entry *domain.InventoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *entry
	if prev, ok := r.data[entry.Key]; ok && prev.ID != "" {
		stored.ID = prev.ID
	}
	r.data[entry.Key] = stored
	return nil
}

// Delete removes the entry for key
func (r *InventoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return domain.ErrInventoryItemNotFound
	}
	delete(r.data, key)
	return nil
}

// List returns every entry ordered by key
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.InventoryEntry, 0, len(r.data))
	for _, e := range r.data {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// ListByStatus returns entries in any of statuses, oldest status change first
func (r *InventoryRepository) ListByStatus(ctx context.Context, statuses ...domain.InventoryStatus) ([]domain.InventoryEntry, error) {
	want := make(map[domain.InventoryStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.InventoryEntry
	for _, e := range r.data {
		if want[e.Status] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastStatusChange.Equal(out[j].LastStatusChange) {
			return out[i].LastStatusChange.Before(out[j].LastStatusChange)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// PantryRepository is a thread-safe in-memory domain.PantryRepository
type PantryRepository struct {
	mu   sync.RWMutex
	data map[string]domain.PantryStaple
}

// NewPantryRepository creates an empty pantry repository
func NewPantryRepository() *PantryRepository {
	return &PantryRepository{data: make(map[string]domain.PantryStaple)}
}

// List returns every staple ordered by key
func (r *PantryRepository) List(ctx context.Context) ([]domain.PantryStaple, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PantryStaple, 0, len(r.data))
	for _, s := range r.data {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Add stores a staple, failing with ErrStapleExists if the key is taken
func (r *PantryRepository) Add(ctx context.Context, staple *domain.PantryStaple) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[staple.Key]; ok {
		return domain.ErrStapleExists
	}
	r.data[staple.Key] = *staple
	return nil
}

// Delete removes the staple stored under key
func (r *PantryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return domain.ErrStapleNotFound
	}
	delete(r.data, key)
	return nil
}

// Exists reports whether key is a pantry staple
func (r *PantryRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[key]
	return ok, nil
}

var (
	_ domain.RecipeRepository    = (*RecipeRepository)(nil)
	_ domain.InventoryRepository = (*InventoryRepository)(nil)
	_ domain.PantryRepository    = (*PantryRepository)(nil)
)
