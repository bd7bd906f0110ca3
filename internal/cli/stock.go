package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grocerybutler/backend/internal/app"
	"github.com/grocerybutler/backend/internal/domain"
)

// NewStockCommand creates the stock command group.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Inspect and update household inventory",
	}

	cmd.AddCommand(newStockListCommand(rootOpts))
	cmd.AddCommand(newStockSetCommand(rootOpts))
	cmd.AddCommand(newStockAddCommand(rootOpts))
	cmd.AddCommand(newStockQueueCommand(rootOpts))

	return cmd
}

func newStockListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked items and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				entries, err := a.Ledger.List(ctx)
				if err != nil {
					return failure("failed to list inventory", err)
				}
				return out.Success(entries, func(w io.Writer) { writeEntries(w, entries) })
			})
		},
	}
}

func newStockQueueCommand(opts *RootOptions) *cobra.Command {
	var clearQueue bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show items that are low or out, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if clearQueue {
					cleared, err := a.Ledger.ClearRestockQueue(ctx)
					if err != nil {
						return failure("failed to clear restock queue", err)
					}
					return out.Success(cleared, func(w io.Writer) {
						fmt.Fprintf(w, "Cleared %d item(s).\n", len(cleared))
					})
				}

				queue, err := a.Ledger.RestockQueue(ctx)
				if err != nil {
					return failure("failed to read restock queue", err)
				}
				return out.Success(queue, func(w io.Writer) { writeEntries(w, queue) })
			})
		},
	}

	cmd.Flags().BoolVar(&clearQueue, "clear", false, "mark every queued item on hand")
	return cmd
}

func newStockSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <item> <on_hand|low|out>",
		Short: "Set the status of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseInventoryStatus(args[1])
			if err != nil {
				return failure("invalid status", err)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				t, err := a.Ledger.SetStatus(ctx, args[0], status)
				if err != nil {
					return failure("failed to set status", err)
				}
				return out.Success(t, func(w io.Writer) {
					if !t.Changed {
						fmt.Fprintf(w, "%s already %s\n", args[0], status)
						return
					}
					fmt.Fprintf(w, "%s: %s -> %s\n", t.Entry.DisplayName, t.From, t.Entry.Status)
				})
			})
		},
	}
}

func newStockAddCommand(opts *RootOptions) *cobra.Command {
	var (
		entry    domain.InventoryEntry
		category string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "add <item>",
		Short: "Track an item with its default purchase quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.DisplayName = args[0]
			entry.Category = domain.Category(category)
			if status != "" {
				s, err := domain.ParseInventoryStatus(status)
				if err != nil {
					return failure("invalid status", err)
				}
				entry.Status = s
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				tracked, err := a.Ledger.Track(ctx, entry)
				if err != nil {
					return failure("failed to track item", err)
				}
				return out.Success(tracked, func(w io.Writer) {
					fmt.Fprintf(w, "Tracking %s (%s)\n", tracked.DisplayName, tracked.Status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "store section (produce, dairy, ...)")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default on_hand)")
	cmd.Flags().Float64Var(&entry.DefaultQuantity, "quantity", 0, "default purchase quantity")
	cmd.Flags().StringVar(&entry.DefaultUnit, "unit", "", "default purchase unit")
	cmd.Flags().StringVar(&entry.SearchTerm, "search", "", "store search term")
	cmd.Flags().StringVar(&entry.Notes, "notes", "", "free-form notes")

	return cmd
}

// NewRestockCommand creates the restock command.
func NewRestockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restock <item>...",
		Short: "Mark items as bought and back on hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				report, err := a.Ledger.Restock(ctx, args)
				if err != nil {
					return failure("failed to restock", err)
				}
				return out.Success(report, func(w io.Writer) {
					for _, m := range report.Restocked {
						fmt.Fprintf(w, "restocked %s\n", m.Key)
					}
					for _, amb := range report.Ambiguous {
						fmt.Fprintf(w, "? %s matches several items: %v\n", amb.Query, amb.Contenders)
					}
					for _, name := range report.Unmatched {
						fmt.Fprintf(w, "! %s is not tracked\n", name)
					}
				})
			})
		},
	}
}

func writeEntries(w io.Writer, entries []domain.InventoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tSTATUS\tCATEGORY\tSINCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Key, e.Status, e.Category, e.LastStatusChange.Format("2006-01-02"))
	}
	_ = tw.Flush()
}
