package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes so memory and redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MealDecomposer turns a free-text meal name into a structured meal
type MealDecomposer interface {
	Decompose(ctx context.Context, meal string, servings int) (*ParsedMeal, error)
}

// RecipeRepository persists recipe memory
type RecipeRepository interface {
	Create(ctx context.Context, recipe *Recipe) error
	GetByKey(ctx context.Context, key string) (*Recipe, error)
	Update(ctx context.Context, recipe *Recipe) error
	List(ctx context.Context) ([]Recipe, error)
	Delete(ctx context.Context, key string) error
	IncrementTimesOrdered(ctx context.Context, key string) error
}

// InventoryRepository persists inventory ledger entries
type InventoryRepository interface {
	Get(ctx context.Context, key string) (*InventoryEntry, error)
	Upsert(ctx context.Context, entry *InventoryEntry) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]InventoryEntry, error)
	ListByStatus(ctx context.Context, statuses ...InventoryStatus) ([]InventoryEntry, error)
}

// PantryRepository persists pantry staples
type PantryRepository interface {
	List(ctx context.Context) ([]PantryStaple, error)
	Add(ctx context.Context, staple *PantryStaple) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
