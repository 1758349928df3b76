// Package cli implements bakectl, the command line front end to the costing
// engine.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bakehouse/internal/config"
	"bakehouse/internal/costing"
	"bakehouse/internal/db"
	"bakehouse/internal/db/mock"
	"bakehouse/internal/report"
	"bakehouse/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format      string // "text" | "json" | "yaml"
	DatabaseURL string
	UseMock     bool
	Concurrency int

	// Overridable for tests.
	loadSnapshot func(ctx context.Context, opts *RootOptions) (*costing.Snapshot, error)
	now          func() time.Time
	newRunID     func() string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for bakectl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		loadSnapshot: loadCatalogSnapshot,
		now:          time.Now,
		newRunID:     report.NewRunID,
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bakectl",
		Short: "Cost recipes and production batches",
		Long:  "Resolve nested recipe costs and aggregate production batches against the bakehouse catalog.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Concurrency < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("concurrency must be at least 1, got %d", opts.Concurrency))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", "", "database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().BoolVar(&opts.UseMock, "mock", false, "use the seeded in-memory catalog")
	cmd.PersistentFlags().IntVar(&opts.Concurrency, "concurrency", 4, "products resolved in parallel by batch")

	cmd.AddCommand(NewCostCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewRecipesCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadCatalogSnapshot opens the configured database, or the seeded mock, and
// reads one consistent snapshot of the catalog.
func loadCatalogSnapshot(ctx context.Context, opts *RootOptions) (*costing.Snapshot, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	dbCfg := cfg.Database
	if opts.DatabaseURL != "" {
		dbCfg.URL = opts.DatabaseURL
	}
	if opts.UseMock {
		dbCfg.UseMock = true
	}

	var catalog *store.Store
	switch {
	case dbCfg.UseMock:
		gdb, err := mock.New(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open mock catalog", err)
		}
		catalog = store.New(gdb, 0)
	case dbCfg.URL != "":
		gdb, err := db.Initialize(dbCfg)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open database", err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := db.Migrate(ctx, gdb); err != nil {
			return nil, WrapExitError(ExitCommandError, "migrate database", err)
		}
		catalog = store.New(gdb, 0)
	default:
		return nil, NewExitError(ExitCommandError, "no catalog: pass --db, set DATABASE_URL or use --mock")
	}

	snap, err := catalog.Snapshot(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load catalog", err)
	}
	return snap, nil
}

// resolveRecipe accepts a numeric id or a case-insensitive recipe name.
func resolveRecipe(ctx context.Context, snap *costing.Snapshot, ref string) (uint, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if _, err := snap.Recipe(ctx, uint(id)); err == nil {
			return uint(id), nil
		}
	}
	if id, ok := snap.FindRecipe(ref); ok {
		return id, nil
	}
	return 0, WrapExitError(ExitCommandError, fmt.Sprintf("recipe %q", ref), costing.ErrUnknownReference)
}
