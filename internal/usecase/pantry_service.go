package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// DefaultPantryStaples seeds an empty pantry
var DefaultPantryStaples = []domain.PantryStaple{
	{DisplayName: "salt", Category: domain.CategoryPantryDry},
	{DisplayName: "black pepper", Category: domain.CategoryPantryDry},
	{DisplayName: "olive oil", Category: domain.CategoryPantryDry},
	{DisplayName: "vegetable oil", Category: domain.CategoryPantryDry},
	{DisplayName: "butter", Category: domain.CategoryDairy},
	{DisplayName: "garlic", Category: domain.CategoryProduce},
	{DisplayName: "onion", Category: domain.CategoryProduce},
	{DisplayName: "sugar", Category: domain.CategoryPantryDry},
	{DisplayName: "flour", Category: domain.CategoryPantryDry},
	{DisplayName: "soy sauce", Category: domain.CategoryPantryDry},
}

// PantryService manages the pantry staple list
type PantryService struct {
	repo   domain.PantryRepository
	logger *zap.Logger
}

// NewPantryService creates a pantry service over repo
func NewPantryService(repo domain.PantryRepository, log *zap.Logger) *PantryService {
	return &PantryService{repo: repo, logger: logger.OrNop(log).Named("pantry")}
}

// List returns staples ordered by key
func (s *PantryService) List(ctx context.Context) ([]domain.PantryStaple, error) {
	staples, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(staples, func(i, j int) bool { return staples[i].Key < staples[j].Key })
	return staples, nil
}

// Add registers name as a staple. An empty category means other.
func (s *PantryService) Add(ctx context.Context, name string, category domain.Category) (*domain.PantryStaple, error) {
	key := Normalize(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty staple name", domain.ErrInvalidRequest)
	}
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, category)
	}

	staple := &domain.PantryStaple{Key: key, DisplayName: name, Category: category}
	if err := s.repo.Add(ctx, staple); err != nil {
		return nil, err
	}
	s.logger.Info("staple added", zap.String("ingredient", key))
	return staple, nil
}

// Remove deletes a staple
func (s *PantryService) Remove(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, Normalize(name))
}

// IsStaple reports whether name is a staple
func (s *PantryService) IsStaple(ctx context.Context, name string) (bool, error) {
	return s.repo.Exists(ctx, Normalize(name))
}

// StapleSet returns the staple keys for one consolidation run
func (s *PantryService) StapleSet(ctx context.Context) (domain.StapleSet, error) {
	staples, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(domain.StapleSet, len(staples))
	for _, st := range staples {
		set[st.Key] = struct{}{}
	}
	return set, nil
}

// Seed adds staples when the pantry is empty and returns how many were added.
// A nil list seeds DefaultPantryStaples.
func (s *PantryService) Seed(ctx context.Context, staples []domain.PantryStaple) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	if staples == nil {
		staples = DefaultPantryStaples
	}

	added := 0
	for _, st := range staples {
		name := st.DisplayName
		if name == "" {
			name = st.Key
		}
		if _, err := s.Add(ctx, name, st.Category); err != nil {
			if errors.Is(err, domain.ErrStapleExists) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

type stapleFile struct {
	Staples []struct {
		Name     string          `yaml:"name"`
		Category domain.Category `yaml:"category"`
	} `yaml:"staples"`
}

// ParseStapleFile reads a YAML staple list:
//
//	staples:
//	  - name: salt
//	    category: pantry_dry
func ParseStapleFile(r io.Reader) ([]domain.PantryStaple, error) {
	var file stapleFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode staples: %v", domain.ErrInvalidRequest, err)
	}
	staples := make([]domain.PantryStaple, 0, len(file.Staples))
	for _, st := range file.Staples {
		staples = append(staples, domain.PantryStaple{DisplayName: st.Name, Category: st.Category})
	}
	return staples, nil
}
