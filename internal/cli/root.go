// Package cli implements the butler command line: planning shopping lists and
// managing inventory, recipes and pantry staples from a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/grocerybutler/backend/config"
	"github.com/grocerybutler/backend/internal/app"
	"github.com/grocerybutler/backend/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	open Opener
}

// Opener builds the services a command runs against. The returned func releases them.
type Opener func(ctx context.Context, opts *RootOptions) (*app.App, func() error, error)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the butler CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openApp)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "butler",
		Short: "GroceryButler - meal plans to shopping lists",
		Long: "Turn a list of meals into one consolidated shopping list, and keep track of\n" +
			"what the household is running low on.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml (default: search . ./config /etc/grocerybutler)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewRestockCommand(opts))
	cmd.AddCommand(NewRecipesCommand(opts))
	cmd.AddCommand(NewPantryCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(NewRootCommand(), args, stdout, stderr)
}

func execute(cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("format")
		out := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr}
		out.Error(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func openApp(ctx context.Context, opts *RootOptions) (*app.App, func() error, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	zl, err := logger.New(logger.Config{Level: level, Format: "console"})
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open services", err)
	}
	return a, func() error {
		_ = zl.Sync()
		return a.Close()
	}, nil
}

// withApp opens the services, runs fn and releases them
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.App, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, closeFn, err := opts.open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return fn(ctx, a, out)
}
