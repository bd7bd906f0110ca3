package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerybutler/backend/config"
	"github.com/grocerybutler/backend/internal/infrastructure/cache"
	"github.com/grocerybutler/backend/internal/infrastructure/memory"
	"github.com/grocerybutler/backend/internal/infrastructure/metrics"
	"github.com/grocerybutler/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTestRouter wires every service over in-memory repositories
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memCache.Close() })

	matcher := usecase.NewMatchingService(usecase.MatchConfig{}).Pipeline()
	recipes := usecase.NewRecipeService(memory.NewRecipeRepository(), usecase.RecipeServiceConfig{Matcher: matcher})
	ledger := usecase.NewInventoryLedger(memory.NewInventoryRepository(), matcher, usecase.LedgerConfig{Recorder: collector})
	pantry := usecase.NewPantryService(memory.NewPantryRepository(), nil)
	planner := usecase.NewMealPlanner(recipes, memCache, nil, usecase.MealPlannerConfig{Recorder: collector})
	consolidator := usecase.NewConsolidator(usecase.ConsolidatorConfig{Matcher: matcher})
	shopping := usecase.NewShoppingService(planner, recipes, ledger, pantry, consolidator,
		usecase.ShoppingServiceConfig{Recorder: collector})

	handler := NewHandler(Services{
		Shopping: shopping,
		Recipes:  recipes,
		Ledger:   ledger,
		Pantry:   pantry,
	}, nil)

	return SetupRouter(cfg, handler, Observability{Metrics: collector, Gatherer: registry})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func shakshuka() map[string]any {
	return map[string]any{
		"display_name":     "Shakshuka",
		"default_servings": 2,
		"ingredients": []map[string]any{
			{"ingredient": "eggs", "quantity": 4, "unit": "each", "category": "dairy"},
			{"ingredient": "crushed tomatoes", "quantity": 1, "unit": "can", "category": "pantry_dry"},
		},
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(t)

		w := doJSON(t, router, "GET", "/health", nil)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decode(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "grocerybutler-backend" {
			t.Errorf("service = %v, want grocerybutler-backend", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(t, router, method, "/health", nil)
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	doJSON(t, router, "GET", "/health", nil)

	w := doJSON(t, router, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/health"`)
}

func TestRecipeEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/recipes", shakshuka())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "shakshuka", created["name"])
	assert.NotEmpty(t, created["id"])

	t.Run("duplicate create conflicts", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/recipes", shakshuka())
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid servings rejected", func(t *testing.T) {
		bad := shakshuka()
		bad["display_name"] = "Broken"
		bad["default_servings"] = 0
		w := doJSON(t, router, "POST", "/api/v1/recipes", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed JSON rejected", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/recipes", `{"display_name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/recipes/shakshuka", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Shakshuka", decode(t, w)["display_name"])

		w = doJSON(t, router, "GET", "/api/v1/recipes", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["recipes"], 1)
	})

	t.Run("resolve", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/recipes/resolve?q=Shakshuka", nil)
		require.Equal(t, http.StatusOK, w.Code)
		match := decode(t, w)["match"].(map[string]any)
		assert.Equal(t, "shakshuka", match["key"])

		w = doJSON(t, router, "GET", "/api/v1/recipes/resolve?q=lasagna", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, "GET", "/api/v1/recipes/resolve", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		updated := shakshuka()
		updated["default_servings"] = 4
		w := doJSON(t, router, "PUT", "/api/v1/recipes/shakshuka", updated)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 4, decode(t, w)["default_servings"])

		w = doJSON(t, router, "PUT", "/api/v1/recipes/lasagna", updated)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/v1/recipes/shakshuka", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, "GET", "/api/v1/recipes/shakshuka", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShoppingListEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(t, router, "POST", "/api/v1/recipes", shakshuka()).Code)

	t.Run("builds list from a known recipe", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/shopping-list", map[string]any{
			"meals":    []string{"shakshuka"},
			"servings": 2,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Len(t, body["items"], 2)
		meals := body["meals"].([]any)
		require.Len(t, meals, 1)
		assert.Equal(t, usecase.MealSourceRecipe, meals[0].(map[string]any)["source"])
	})

	t.Run("unknown meal without decomposer yields a stub", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/shopping-list", map[string]any{
			"meals": []string{"beef wellington"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		meals := decode(t, w)["meals"].([]any)
		assert.Equal(t, usecase.MealSourceStub, meals[0].(map[string]any)["source"])
	})

	t.Run("empty meals fail validation", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/shopping-list", map[string]any{"meals": []string{}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.NotEmpty(t, decode(t, w)["details"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/shopping-list", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, decode(t, w)["request_id"])
	})
}

func TestConsolidateEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	payload := map[string]any{
		"meals": []map[string]any{
			{
				"name":     "pancakes",
				"servings": 2,
				"purchase_items": []map[string]any{
					{"ingredient": "milk", "quantity": 1, "unit": "cup", "category": "dairy"},
					{"ingredient": "flour", "quantity": 2, "unit": "cup", "category": "pantry_dry"},
				},
			},
			{
				"name":     "broken",
				"servings": -1,
			},
		},
	}

	w := doJSON(t, router, "POST", "/api/v1/shopping-list/consolidate", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Len(t, body["items"], 2)
	assert.Len(t, body["malformed"], 1)

	w = doJSON(t, router, "POST", "/api/v1/shopping-list/consolidate", map[string]any{"meals": []any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInventoryEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/inventory", map[string]any{
		"ingredient":       "dish soap",
		"default_quantity": 1,
		"default_unit":     "bottle",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "on_hand", decode(t, w)["status"])

	t.Run("status transition", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/v1/inventory/dish%20soap/status", map[string]any{"status": "low"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, true, body["changed"])
		assert.Equal(t, "on_hand", body["from"])

		w = doJSON(t, router, "PUT", "/api/v1/inventory/dish%20soap/status", map[string]any{"status": "vanished"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, router, "PUT", "/api/v1/inventory/dish%20soap/status", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("restock queue and restock", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/inventory/restock-queue", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["items"], 1)

		w = doJSON(t, router, "POST", "/api/v1/inventory/restock", map[string]any{
			"items": []string{"dish soap", "caviar"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		report := decode(t, w)
		assert.Len(t, report["restocked"], 1)
		assert.Equal(t, []any{"caviar"}, report["unmatched"])

		w = doJSON(t, router, "GET", "/api/v1/inventory/restock-queue", nil)
		assert.Len(t, decode(t, w)["items"], 0)
	})

	t.Run("clear queue", func(t *testing.T) {
		doJSON(t, router, "PUT", "/api/v1/inventory/dish%20soap/status", map[string]any{"status": "out"})

		w := doJSON(t, router, "POST", "/api/v1/inventory/restock-queue/clear", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []any{"dish soap"}, decode(t, w)["cleared"])
	})

	t.Run("list and untrack", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/inventory", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["items"], 1)

		w = doJSON(t, router, "DELETE", "/api/v1/inventory/dish%20soap", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, "DELETE", "/api/v1/inventory/dish%20soap", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPantryEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/pantry", map[string]any{"ingredient": "Salt", "category": "pantry_dry"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "salt", decode(t, w)["ingredient"])

	w = doJSON(t, router, "POST", "/api/v1/pantry", map[string]any{"ingredient": "salt"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/pantry", map[string]any{"ingredient": "pepper", "category": "spices"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/pantry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["staples"], 1)

	w = doJSON(t, router, "DELETE", "/api/v1/pantry/salt", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "DELETE", "/api/v1/pantry/salt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, "GET", "/api/v1/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if !strings.Contains(w.Header().Get(requestIDHeader), "-") {
		t.Errorf("missing request id header on 404")
	}
}
