package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grocerybutler/backend/internal/app"
	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/usecase"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Servings int
	Restock  bool
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <meal>...",
		Short: "Build a shopping list for one or more meals",
		Long: `Resolve each meal against recipe memory (falling back to the decomposer),
merge the ingredients into a single list, drop pantry staples that are not
running low, and print the result grouped by store section.

Examples:
  butler plan "chicken tikka masala" "caesar salad"
  butler plan tacos --servings 6 --restock
  butler plan lasagna --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				return runPlan(ctx, a, out, opts, args)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Servings, "servings", "s", 0, "servings per meal (default from config)")
	cmd.Flags().BoolVar(&opts.Restock, "restock", false, "add items from the restock queue")

	return cmd
}

func runPlan(ctx context.Context, a *app.App, out *OutputFormatter, opts *PlanOptions, meals []string) error {
	if opts.Servings < 0 {
		return WrapExitError(ExitCommandError, "--servings must not be negative", nil)
	}

	result, err := a.Shopping.BuildList(ctx, usecase.PlanRequest{
		Meals:          meals,
		Servings:       opts.Servings,
		IncludeRestock: opts.Restock,
	})
	if err != nil {
		return failure("failed to build shopping list", err)
	}

	for _, m := range result.Meals {
		out.VerboseLog("meal %q resolved from %s", m.Meal.Name, m.Source)
	}

	return out.Success(result, func(w io.Writer) {
		writeShoppingList(w, result)
	})
}

func writeShoppingList(w io.Writer, result *usecase.PlanResult) {
	for _, m := range result.Meals {
		switch {
		case m.Warning != "":
			fmt.Fprintf(w, "! %s: %s\n", m.Meal.Name, m.Warning)
		case m.Meal.NeedsConfirmation:
			fmt.Fprintf(w, "? %s (%s): please confirm the ingredients\n", m.Meal.Name, m.Source)
		}
		if len(m.Suggestions) > 0 {
			fmt.Fprintf(w, "  did you mean: %s\n", strings.Join(m.Suggestions, ", "))
		}
	}

	if len(result.Items) == 0 {
		fmt.Fprintln(w, "Nothing to buy.")
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	var section domain.Category
	for _, item := range result.Items {
		if item.Category != section {
			section = item.Category
			fmt.Fprintf(tw, "\n[%s]\n", section)
		}
		fmt.Fprintf(tw, "  %s\t%s %s\t%s\n",
			item.Ingredient, formatQuantity(item.Quantity), item.Unit, strings.Join(item.FromMeals, ", "))
	}
	_ = tw.Flush()

	for _, c := range result.Conflicts {
		fmt.Fprintf(w, "! %s: categories disagree (%v)\n", c.Ingredient, c.Categories)
	}
	for _, m := range result.Malformed {
		fmt.Fprintf(w, "! %s: %s %s\n", m.Meal, m.Field, m.Reason)
	}
	if len(result.Unmatched) > 0 {
		fmt.Fprintf(w, "! restock items not tracked: %s\n", strings.Join(result.Unmatched, ", "))
	}
}

func formatQuantity(q float64) string {
	s := fmt.Sprintf("%.2f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
