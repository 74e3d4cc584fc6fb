package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"morphire/internal/config"
	"morphire/internal/store"
)

func newMigrateCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect SQLite document store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.Backend != store.BackendSQLite {
				return fmt.Errorf("migrations apply only to the %s backend (configured: %s)", store.BackendSQLite, cfg.Storage.Backend)
			}
			path := store.SQLitePath(cfg.DataDir)

			if !inspect {
				// Opening the store applies pending migrations.
				st, err := store.OpenSQLite(path)
				if err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				if err := st.Close(); err != nil {
					return err
				}
			}
			return writeMigrationStatus(path, opts, inspect)
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status without applying")
	cmd.Flags().BoolVar(&inspect, "dry-run", false, "alias for --inspect")
	return cmd
}

func writeMigrationStatus(path string, opts *globalOptions, inspect bool) error {
	db, err := store.OpenRawDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return fmt.Errorf("inspect migrations: %w", err)
	}
	if opts.json {
		return writeJSON(plan)
	}
	if !inspect {
		return writePlain("Migrations applied; schema at version %d.\n", plan.CurrentVersion)
	}

	if err := writePlain("Current version: %d\nAvailable version: %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
		return err
	}
	if len(plan.Pending) == 0 {
		return writePlain("No pending migrations.\n")
	}
	if err := writePlain("Pending migrations: %d\n", len(plan.Pending)); err != nil {
		return err
	}
	for _, m := range plan.Pending {
		if err := writePlain("  %d: %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}
