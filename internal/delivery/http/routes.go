package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grocerybutler/backend/config"
	"github.com/grocerybutler/backend/internal/infrastructure/metrics"
	"github.com/grocerybutler/backend/pkg/logger"
)

// Observability carries the logger and metrics the router reports through.
// Gatherer may be nil, in which case /metrics is not mounted.
type Observability struct {
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, obs Observability) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.OrNop(obs.Logger)
	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log, obs.Metrics))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if obs.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		shopping := v1.Group("/shopping-list")
		{
			shopping.POST("", handler.BuildShoppingList)
			shopping.POST("/consolidate", handler.ConsolidateMeals)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", handler.ListInventory)
			inventory.POST("", handler.TrackInventory)
			inventory.GET("/restock-queue", handler.RestockQueue)
			inventory.POST("/restock-queue/clear", handler.ClearRestockQueue)
			inventory.POST("/restock", handler.Restock)
			inventory.PUT("/:key/status", handler.SetInventoryStatus)
			inventory.DELETE("/:key", handler.UntrackInventory)
		}

		pantry := v1.Group("/pantry")
		{
			pantry.GET("", handler.ListPantry)
			pantry.POST("", handler.AddPantryStaple)
			pantry.DELETE("/:key", handler.RemovePantryStaple)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.GET("", handler.ListRecipes)
			recipes.POST("", handler.CreateRecipe)
			recipes.GET("/resolve", handler.ResolveRecipe)
			recipes.GET("/:key", handler.GetRecipe)
			recipes.PUT("/:key", handler.UpdateRecipe)
			recipes.DELETE("/:key", handler.DeleteRecipe)
		}
	}

	return router
}
