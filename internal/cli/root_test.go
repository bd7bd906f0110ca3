package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerybutler/backend/config"
	"github.com/grocerybutler/backend/internal/app"
	"github.com/grocerybutler/backend/internal/domain"
)

// harness runs commands against one in-memory App so state carries across invocations
type harness struct {
	t   *testing.T
	app *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Cache:    config.CacheConfig{Type: "memory"},
		Planning: config.PlanningConfig{DefaultServings: 4},
	}
	a, err := app.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &harness{t: t, app: a}
}

func (h *harness) root() *cobra.Command {
	return newRootCommand(func(ctx context.Context, opts *RootOptions) (*app.App, func() error, error) {
		return h.app, func() error { return nil }, nil
	})
}

func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(h.root(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (h *harness) runJSON(args ...string) CLIResponse {
	h.t.Helper()
	out, errOut, code := h.run(append(args, "--format", "json")...)
	require.Equal(h.t, ExitSuccess, code, errOut+out)
	var resp CLIResponse
	require.NoError(h.t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "butler", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"plan"}, {"restock"},
		{"stock", "list"}, {"stock", "set"}, {"stock", "add"}, {"stock", "queue"},
		{"recipes", "list"}, {"recipes", "show"}, {"recipes", "forget"}, {"recipes", "export"}, {"recipes", "import"},
		{"pantry", "list"}, {"pantry", "add"}, {"pantry", "remove"}, {"pantry", "seed"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, errOut, code := h.run("stock", "list", "--format", "xml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, errOut, "invalid format")
}

func TestStockCommands(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run("stock", "add", "dish soap", "--quantity", "1", "--unit", "bottle")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Tracking dish soap (on_hand)")

	out, _, code = h.run("stock", "set", "dish soap", "low")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "on_hand -> low")

	resp := h.runJSON("stock", "queue")
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data, 1)

	out, _, code = h.run("restock", "dish soap", "caviar")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "restocked dish soap")
	assert.Contains(t, out, "caviar is not tracked")

	out, _, code = h.run("stock", "queue")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No items.")

	_, errOut, code := h.run("stock", "set", "dish soap", "sideways")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, domain.ErrInvalidStatus.Error())
}

func TestStockQueueClear(t *testing.T) {
	h := newHarness(t)
	_, _, code := h.run("stock", "set", "milk", "out")
	require.Equal(t, ExitSuccess, code)

	out, _, code := h.run("stock", "queue", "--clear")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Cleared 1 item(s).")
}

func TestPantryCommands(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run("pantry", "seed")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Seeded 10 staple(s)")

	out, _, code = h.run("pantry", "seed")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "nothing seeded")

	_, errOut, code := h.run("pantry", "add", "salt")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, domain.ErrStapleExists.Error())

	out, _, code = h.run("pantry", "add", "cumin", "--category", "pantry_dry")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Added cumin")

	out, _, code = h.run("pantry", "remove", "cumin")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Removed cumin")

	resp := h.runJSON("pantry", "list")
	assert.Len(t, resp.Data, 10)
}

func TestPantrySeedFromFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "staples.yaml")
	require.NoError(t, os.WriteFile(path, []byte("staples:\n  - name: rice\n    category: pantry_dry\n"), 0o644))

	out, _, code := h.run("pantry", "seed", path)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Seeded 1 staple(s)")
}

const recipeYAML = `recipes:
  - name: Shakshuka
    servings: 2
    ingredients:
      - ingredient: eggs
        quantity: 4
        unit: each
        category: dairy
      - ingredient: crushed tomatoes
        quantity: 1
        unit: can
        category: pantry_dry
`

func TestRecipesAndPlan(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(recipeYAML), 0o644))

	out, errOut, code := h.run("recipes", "import", path)
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, "Imported 1 new, 0 updated")

	out, _, code = h.run("recipes", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Shakshuka")

	out, _, code = h.run("recipes", "show", "shakshuka")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Shakshuka (serves 2)")

	t.Run("plan text", func(t *testing.T) {
		out, errOut, code := h.run("plan", "shakshuka", "--servings", "2")
		require.Equal(t, ExitSuccess, code, errOut)
		assert.Contains(t, out, "[dairy]")
		assert.Contains(t, out, "[pantry_dry]")
	})

	t.Run("plan json", func(t *testing.T) {
		resp := h.runJSON("plan", "shakshuka")
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Len(t, data["items"], 2)
	})

	t.Run("plan unknown meal warns", func(t *testing.T) {
		out, _, code := h.run("plan", "beef wellington")
		require.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, domain.ErrDecomposerUnavailable.Error())
	})

	t.Run("export", func(t *testing.T) {
		out, _, code := h.run("recipes", "export")
		require.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "name: Shakshuka")
	})

	out, _, code = h.run("recipes", "forget", "shakshuka")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Forgot shakshuka")

	_, _, code = h.run("recipes", "show", "shakshuka")
	assert.Equal(t, ExitFailure, code)
}

func TestPlanRequiresMeals(t *testing.T) {
	h := newHarness(t)
	_, errOut, code := h.run("plan")
	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, errOut, "requires at least 1 arg")
}
