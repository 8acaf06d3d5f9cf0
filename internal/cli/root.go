package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tagstore/internal/config"
	"github.com/roach88/tagstore/internal/module"
	"github.com/roach88/tagstore/internal/store"
	"github.com/roach88/tagstore/internal/wallet"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Driver   string

	// Clock overrides the store clock (for testing). Nil uses wall time.
	Clock store.Clock

	config config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// ValidDrivers defines the allowed database drivers.
var ValidDrivers = []string{store.DriverMattn, store.DriverModernc}

// NewRootCommand creates the root command for the tagstore CLI.
// Flag defaults come from the TAGSTORE_* environment variables.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Config{
			DBPath:   "tagstore.db",
			Driver:   store.DriverMattn,
			LogLevel: "info",
			Format:   config.FormatText,
		}
	}
	opts.config = cfg

	cmd := &cobra.Command{
		Use:   "tagstore",
		Short: "tagstore - tagged record storage",
		Long:  "Store typed JSON records in SQLite and query them by their tags.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment configuration", cfgErr)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidDrivers, opts.Driver) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid driver %q: must be one of %v", opts.Driver, ValidDrivers))
			}
			opts.logger = newLogger(opts, cmd)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", cfg.DBPath, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", cfg.Driver, "database driver (sqlite3|sqlite)")

	// Add subcommands
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger builds the diagnostic logger. --verbose forces DEBUG;
// otherwise TAGSTORE_LOG_LEVEL applies.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	level, err := opts.config.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStorage registers a wallet for the configured database with a fresh
// capability registry, opens it and returns the storage service's store.
// The returned function closes the wallet.
func (o *RootOptions) openStorage(ctx context.Context) (*store.Store, func(), error) {
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	storeOpts := []store.Option{store.WithLogger(logger)}
	if o.Driver != "" {
		storeOpts = append(storeOpts, store.WithDriver(o.Driver))
	}
	if o.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(o.Clock))
	}

	reg := module.NewRegistry()
	if err := module.Register(reg, wallet.New(o.Database, storeOpts...)); err != nil {
		return nil, nil, err
	}

	w, err := module.WalletFrom(reg)
	if err != nil {
		return nil, nil, err
	}
	if err := w.Open(ctx); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := w.Close(); err != nil {
			logger.Warn("failed to close wallet", "path", w.Path(), "error", err)
		}
	}

	svc, err := module.StorageFrom(reg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	st, err := svc.Store()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return st, closeFn, nil
}
