package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/grocerybutler/backend/internal/domain"
)

// MockInventoryRepository is a mock implementation of domain.InventoryRepository
type MockInventoryRepository struct {
	mu        sync.Mutex
	data      map[string]domain.InventoryEntry
	upserts   int
	listError error
}

func NewMockInventoryRepository(entries ...domain.InventoryEntry) *MockInventoryRepository {
	m := &MockInventoryRepository{data: make(map[string]domain.InventoryEntry)}
	for _, e := range entries {
		m.data[e.Key] = e
	}
	return m
}

func (m *MockInventoryRepository) Get(ctx context.Context, key string) (*domain.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, domain.ErrInventoryItemNotFound
	}
	return &e, nil
}

func (m *MockInventoryRepository) Upsert(ctx context.Context, entry *domain.InventoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.data[entry.Key] = *entry
	return nil
}

func (m *MockInventoryRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return domain.ErrInventoryItemNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *MockInventoryRepository) List(ctx context.Context) ([]domain.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]domain.InventoryEntry, 0, len(m.data))
	for _, e := range m.data {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockInventoryRepository) ListByStatus(ctx context.Context, statuses ...domain.InventoryStatus) ([]domain.InventoryEntry, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.InventoryEntry
	for _, e := range all {
		for _, s := range statuses {
			if e.Status == s {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *MockInventoryRepository) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// MockRecipeRepository is a mock implementation of domain.RecipeRepository
type MockRecipeRepository struct {
	data map[string]domain.Recipe
}

func NewMockRecipeRepository() *MockRecipeRepository {
	return &MockRecipeRepository{data: make(map[string]domain.Recipe)}
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	if _, ok := m.data[recipe.Name]; ok {
		return domain.ErrRecipeExists
	}
	m.data[recipe.Name] = *recipe
	return nil
}

func (m *MockRecipeRepository) GetByKey(ctx context.Context, key string) (*domain.Recipe, error) {
	r, ok := m.data[key]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	return &r, nil
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	if _, ok := m.data[recipe.Name]; !ok {
		return domain.ErrRecipeNotFound
	}
	m.data[recipe.Name] = *recipe
	return nil
}

func (m *MockRecipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	out := make([]domain.Recipe, 0, len(m.data))
	for _, r := range m.data {
		out = append(out, r)
	}
	return out, nil
}

func (m *MockRecipeRepository) Delete(ctx context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return domain.ErrRecipeNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *MockRecipeRepository) IncrementTimesOrdered(ctx context.Context, key string) error {
	r, ok := m.data[key]
	if !ok {
		return domain.ErrRecipeNotFound
	}
	r.TimesOrdered++
	m.data[key] = r
	return nil
}

// MockPantryRepository is a mock implementation of domain.PantryRepository
type MockPantryRepository struct {
	data map[string]domain.PantryStaple
}

func NewMockPantryRepository() *MockPantryRepository {
	return &MockPantryRepository{data: make(map[string]domain.PantryStaple)}
}

func (m *MockPantryRepository) List(ctx context.Context) ([]domain.PantryStaple, error) {
	out := make([]domain.PantryStaple, 0, len(m.data))
	for _, s := range m.data {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockPantryRepository) Add(ctx context.Context, staple *domain.PantryStaple) error {
	if _, ok := m.data[staple.Key]; ok {
		return domain.ErrStapleExists
	}
	m.data[staple.Key] = *staple
	return nil
}

func (m *MockPantryRepository) Delete(ctx context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return domain.ErrStapleNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *MockPantryRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockDecomposer is a mock implementation of domain.MealDecomposer
type MockDecomposer struct {
	meals map[string]*domain.ParsedMeal
	err   error
	calls int
}

func NewMockDecomposer() *MockDecomposer {
	return &MockDecomposer{meals: make(map[string]*domain.ParsedMeal)}
}

func (m *MockDecomposer) Decompose(ctx context.Context, meal string, servings int) (*domain.ParsedMeal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	parsed, ok := m.meals[Normalize(meal)]
	if !ok {
		return nil, domain.ErrMealNotRecognized
	}
	out := *parsed
	return &out, nil
}

// fakeClock hands out strictly increasing times one second apart
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
