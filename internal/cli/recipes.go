package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grocerybutler/backend/internal/app"
)

// NewRecipesCommand creates the recipes command group.
func NewRecipesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Manage recipe memory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List remembered recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				recipes, err := a.Recipes.List(ctx)
				if err != nil {
					return failure("failed to list recipes", err)
				}
				return out.Success(recipes, func(w io.Writer) {
					if len(recipes) == 0 {
						fmt.Fprintln(w, "No recipes.")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
					fmt.Fprintln(tw, "RECIPE\tSERVINGS\tINGREDIENTS\tORDERED")
					for _, r := range recipes {
						fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", r.DisplayName, r.DefaultServings, len(r.Ingredients), r.TimesOrdered)
					}
					_ = tw.Flush()
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <recipe>",
		Short: "Show a recipe's ingredients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				recipe, _, err := a.Recipes.Resolve(ctx, args[0])
				if err != nil {
					return failure(fmt.Sprintf("no recipe matches %q", args[0]), err)
				}
				return out.Success(recipe, func(w io.Writer) {
					fmt.Fprintf(w, "%s (serves %d)\n", recipe.DisplayName, recipe.DefaultServings)
					for _, ing := range recipe.Ingredients {
						fmt.Fprintf(w, "  %s %s %s [%s]\n", formatQuantity(ing.Quantity), ing.Unit, ing.Name, ing.Category)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget <recipe>",
		Short: "Remove a recipe from memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.Recipes.Forget(ctx, args[0]); err != nil {
					return failure("failed to forget recipe", err)
				}
				return out.Success(map[string]string{"forgotten": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Forgot %s\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(newRecipesExportCommand(opts))
	cmd.AddCommand(newRecipesImportCommand(opts))

	return cmd
}

func newRecipesExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every recipe as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to create output file", err)
					}
					defer f.Close()
					w = f
				}
				if err := a.Recipes.Export(ctx, w); err != nil {
					return failure("failed to export recipes", err)
				}
				out.VerboseLog("recipes exported to %s", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	return cmd
}

func newRecipesImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create or replace recipes from a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open recipe file", err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				report, err := a.Recipes.Import(ctx, f)
				if err != nil {
					return failure("failed to import recipes", err)
				}
				return out.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "Imported %d new, %d updated\n", len(report.Created), len(report.Updated))
				})
			})
		},
	}
}
