// Package app wires configuration into repositories, caches and use cases.
// The HTTP server and the butler CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/grocerybutler/backend/config"
	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/infrastructure/cache"
	"github.com/grocerybutler/backend/internal/infrastructure/decomposer"
	"github.com/grocerybutler/backend/internal/infrastructure/memory"
	"github.com/grocerybutler/backend/internal/infrastructure/metrics"
	"github.com/grocerybutler/backend/internal/infrastructure/sqlite"
	"github.com/grocerybutler/backend/internal/usecase"
	"github.com/grocerybutler/backend/pkg/logger"
)

// App holds the wired use cases and the resources they own
type App struct {
	Shopping *usecase.ShoppingService
	Recipes  *usecase.RecipeService
	Ledger   *usecase.InventoryLedger
	Pantry   *usecase.PantryService

	Metrics  *metrics.Collector
	Registry *prometheus.Registry

	logger  *zap.Logger
	closers []func() error
}

type repositories struct {
	recipes   domain.RecipeRepository
	inventory domain.InventoryRepository
	pantry    domain.PantryRepository
}

type closableCache interface {
	domain.CacheRepository
	Close() error
}

// Build opens storage and the decomposition cache and constructs every service.
// Callers must Close the returned App.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Registry: prometheus.NewRegistry()}
	a.Metrics = metrics.New(a.Registry)

	repos, err := a.openRepositories(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	decompCache, err := openCache(ctx, cfg.Cache, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, decompCache.Close)

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinConfidenceThreshold: cfg.Matching.MinConfidenceThreshold,
		AmbiguityMargin:        cfg.Matching.AmbiguityMargin,
		FuzzyEditDistance:      cfg.Matching.FuzzyEditDistance,
		Logger:                 log,
	}).Pipeline()

	a.Recipes = usecase.NewRecipeService(repos.recipes, usecase.RecipeServiceConfig{Matcher: matcher, Logger: log})
	a.Ledger = usecase.NewInventoryLedger(repos.inventory, matcher, usecase.LedgerConfig{Logger: log, Recorder: a.Metrics})
	a.Pantry = usecase.NewPantryService(repos.pantry, log)

	planner := usecase.NewMealPlanner(a.Recipes, decompCache, newDecomposer(cfg.Decomposer, log), usecase.MealPlannerConfig{
		CacheTTL:           cfg.Cache.TTL,
		DefaultServings:    cfg.Planning.DefaultServings,
		RememberDecomposed: cfg.Planning.RememberDecomposed,
		Logger:             log,
		Recorder:           a.Metrics,
	})
	consolidator := usecase.NewConsolidator(usecase.ConsolidatorConfig{Matcher: matcher, Logger: log})
	a.Shopping = usecase.NewShoppingService(planner, a.Recipes, a.Ledger, a.Pantry, consolidator,
		usecase.ShoppingServiceConfig{Logger: log, Recorder: a.Metrics})

	a.logger = log
	return a, nil
}

// SeedPantry loads the default staples into an empty pantry
func (a *App) SeedPantry(ctx context.Context) error {
	seeded, err := a.Pantry.Seed(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed pantry staples: %w", err)
	}
	if seeded > 0 {
		a.logger.Info("pantry staples seeded", zap.Int("count", seeded))
	}
	return nil
}

// Close releases storage and cache connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openRepositories(cfg config.DatabaseConfig, log *zap.Logger) (repositories, error) {
	switch cfg.Driver {
	case "memory":
		log.Info("using in-memory storage")
		return repositories{
			recipes:   memory.NewRecipeRepository(),
			inventory: memory.NewInventoryRepository(),
			pantry:    memory.NewPantryRepository(),
		}, nil
	case "sqlite", "":
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return repositories{}, fmt.Errorf("open sqlite store %q: %w", cfg.Path, err)
		}
		a.closers = append(a.closers, store.Close)
		log.Info("using sqlite storage", zap.String("path", cfg.Path))
		return repositories{
			recipes:   store.Recipes(),
			inventory: store.Inventory(),
			pantry:    store.Pantry(),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (closableCache, error) {
	if cfg.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// newDecomposer returns nil when no base URL is configured. The return type is the
// interface so a disabled decomposer is a true nil, never a typed nil pointer.
func newDecomposer(cfg config.DecomposerConfig, log *zap.Logger) domain.MealDecomposer {
	if cfg.BaseURL == "" {
		log.Warn("meal decomposer not configured; unknown meals become stubs")
		return nil
	}
	log.Info("meal decomposer configured", zap.String("base_url", cfg.BaseURL))
	return decomposer.NewClient(decomposer.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
		Logger:            log,
	})
}
