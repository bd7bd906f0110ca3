package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grocerybutler/backend/internal/app"
	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/usecase"
)

// NewPantryCommand creates the pantry command group.
func NewPantryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pantry",
		Short: "Manage pantry staples left off shopping lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pantry staples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				staples, err := a.Pantry.List(ctx)
				if err != nil {
					return failure("failed to list staples", err)
				}
				return out.Success(staples, func(w io.Writer) {
					for _, st := range staples {
						fmt.Fprintf(w, "%s [%s]\n", st.Key, st.Category)
					}
				})
			})
		},
	})

	var category string
	add := &cobra.Command{
		Use:   "add <item>",
		Short: "Add a pantry staple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				staple, err := a.Pantry.Add(ctx, args[0], domain.Category(category))
				if err != nil {
					return failure("failed to add staple", err)
				}
				return out.Success(staple, func(w io.Writer) {
					fmt.Fprintf(w, "Added %s\n", staple.Key)
				})
			})
		},
	}
	add.Flags().StringVar(&category, "category", "", "store section (default other)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <item>",
		Short: "Remove a pantry staple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.Pantry.Remove(ctx, args[0]); err != nil {
					return failure("failed to remove staple", err)
				}
				return out.Success(map[string]string{"removed": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %s\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed [file]",
		Short: "Seed an empty pantry from a YAML file or the built-in list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var staples []domain.PantryStaple
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open staple file", err)
				}
				defer f.Close()
				if staples, err = usecase.ParseStapleFile(f); err != nil {
					return failure("failed to read staple file", err)
				}
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				added, err := a.Pantry.Seed(ctx, staples)
				if err != nil {
					return failure("failed to seed staples", err)
				}
				return out.Success(map[string]int{"added": added}, func(w io.Writer) {
					if added == 0 {
						fmt.Fprintln(w, "Pantry already has staples; nothing seeded.")
						return
					}
					fmt.Fprintf(w, "Seeded %d staple(s)\n", added)
				})
			})
		},
	})

	return cmd
}
