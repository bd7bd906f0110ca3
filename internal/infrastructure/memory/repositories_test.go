package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerybutler/backend/internal/domain"
)

func TestRecipeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipeRepository()

	recipe := &domain.Recipe{
		Name: "caesar salad", DisplayName: "Caesar Salad", DefaultServings: 4,
		Ingredients: []domain.RecipeIngredient{{
			Ingredient:         domain.Ingredient{Name: "croutons", Quantity: 1, Unit: "bag", Category: domain.CategoryBakery},
			QuantityPerServing: 0.25,
		}},
	}
	require.NoError(t, repo.Create(ctx, recipe))
	assert.ErrorIs(t, repo.Create(ctx, recipe), domain.ErrRecipeExists)

	// stored copies are isolated from the caller
	recipe.Ingredients[0].Name = "bread"
	got, err := repo.GetByKey(ctx, "caesar salad")
	require.NoError(t, err)
	assert.Equal(t, "croutons", got.Ingredients[0].Name)

	require.NoError(t, repo.IncrementTimesOrdered(ctx, "caesar salad"))
	got, _ = repo.GetByKey(ctx, "caesar salad")
	assert.Equal(t, 1, got.TimesOrdered)

	require.NoError(t, repo.Create(ctx, &domain.Recipe{Name: "bibimbap", DefaultServings: 2}))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bibimbap", list[0].Name)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Recipe{Name: "pho"}), domain.ErrRecipeNotFound)
	require.NoError(t, repo.Delete(ctx, "bibimbap"))
	assert.ErrorIs(t, repo.Delete(ctx, "bibimbap"), domain.ErrRecipeNotFound)
}

func TestInventoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &domain.InventoryEntry{ID: "1", Key: "milk", Status: domain.StatusLow, LastStatusChange: base.Add(time.Minute)}))
	require.NoError(t, repo.Upsert(ctx, &domain.InventoryEntry{ID: "2", Key: "eggs", Status: domain.StatusOut, LastStatusChange: base.Add(time.Minute)}))
	require.NoError(t, repo.Upsert(ctx, &domain.InventoryEntry{ID: "3", Key: "rice", Status: domain.StatusOut, LastStatusChange: base}))
	require.NoError(t, repo.Upsert(ctx, &domain.InventoryEntry{ID: "4", Key: "bread", Status: domain.StatusOnHand, LastStatusChange: base}))

	queue, err := repo.ListByStatus(ctx, domain.StatusLow, domain.StatusOut)
	require.NoError(t, err)
	keys := make([]string, len(queue))
	for i, e := range queue {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"rice", "eggs", "milk"}, keys)

	require.NoError(t, repo.Upsert(ctx, &domain.InventoryEntry{ID: "new", Key: "milk", Status: domain.StatusOnHand}))
	got, err := repo.Get(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, domain.StatusOnHand, got.Status)

	require.NoError(t, repo.Delete(ctx, "milk"))
	_, err = repo.Get(ctx, "milk")
	assert.ErrorIs(t, err, domain.ErrInventoryItemNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "milk"), domain.ErrInventoryItemNotFound)
}

func TestPantryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPantryRepository()

	require.NoError(t, repo.Add(ctx, &domain.PantryStaple{Key: "sugar", Category: domain.CategoryPantryDry}))
	assert.ErrorIs(t, repo.Add(ctx, &domain.PantryStaple{Key: "sugar"}), domain.ErrStapleExists)

	ok, err := repo.Exists(ctx, "sugar")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "sugar"))
	assert.ErrorIs(t, repo.Delete(ctx, "sugar"), domain.ErrStapleNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
