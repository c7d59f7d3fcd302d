package cmd

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/iocache"
	"github.com/huangsam/repolens/internal/outwriter"
	"github.com/spf13/cobra"
)

// storeSetup loads configuration and opens the stores without telemetry or a semantic index.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfig(""); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.DatabaseBackend, cfg.DatabaseConnect); err != nil {
		return errors.Wrap(err, "failed to initialize persistence")
	}
	return nil
}

// storeConfigSetup only loads configuration. Clear and migrate open their own
// connection so they work on a database whose tables are missing or outdated.
func storeConfigSetup(_ *cobra.Command, _ []string) error {
	return loadConfig("")
}

// storeCmd focused on analysis store management.
//
// Note: Store subcommands use minimal initialization instead of the full
// sharedSetup used by analysis commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the database of saved analyses",
	Long: `Manage the database where analyses and commit embeddings are saved.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (nothing is saved)

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove all saved data
  migrate - Apply or roll back schema migrations
  export  - Export analyses to Parquet for analytics
  delete  - Remove one saved analysis

Examples:
  # Check store status
  repolens store status

  # Use PostgreSQL (set connection string via env variable)
  REPOLENS_DATABASE_BACKEND=postgresql REPOLENS_DATABASE_CONNECT="host=... dbname=..." repolens store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, number of saved analyses and embeddings,
and the time range of saved analyses.`,
	Args:    cobra.NoArgs,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iocache.Status(rootCtx, iocache.Manager)
		if err != nil {
			return errors.Wrap(err, "failed to get store status")
		}
		return outwriter.NewOutWriter().WriteStoreStatus(status, cfg)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all saved analyses and embeddings",
	Long: `Delete everything repolens saved in the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the repolens tables`,
	Args:    cobra.NoArgs,
	PreRunE: storeConfigSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearStore(cfg.DatabaseBackend, cfg.DatabaseConnect); err != nil {
			return errors.Wrap(err, "failed to clear store")
		}
		fmt.Println("Store cleared successfully.")
		return nil
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Migrate the store schema",
	Long: `Apply schema migrations to the configured database.

Without a version the schema is migrated to the latest version.
Version 0 rolls back every migration.

Examples:
  repolens store migrate
  repolens store migrate 1`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: storeConfigSetup,
	RunE: func(_ *cobra.Command, args []string) error {
		target := -1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return contract.NewInvalidInputError(errors.Newf("migration version must be a non-negative integer (received %q)", args[0]))
			}
			target = v
		}
		outcome, err := iocache.MigrateStore(cfg.DatabaseBackend, cfg.DatabaseConnect, target)
		if err != nil {
			return err
		}
		fmt.Println(outcome)
		return nil
	},
}

// storeExportCmd exports analyses to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export <output-dir>",
	Short: "Export saved analyses to Parquet",
	Long: `Write every saved analysis to repolens_analyses.parquet inside the given directory.

Examples:
  repolens store export ./exports`,
	Args:    cobra.ExactArgs(1),
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, args []string) error {
		source, ok := iocache.Manager.GetAnalysisStore().(iocache.ExportSource)
		if !ok {
			return errors.New("the configured store does not support export")
		}
		summary, err := iocache.ExecuteStoreExport(rootCtx, source, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("💾 Exported %d analyses from %s to %s\n", summary.Analyses, summary.Backend, summary.Path)
		return nil
	},
}

// storeDeleteCmd removes one analysis.
var storeDeleteCmd = &cobra.Command{
	Use:     "delete <analysis-id>",
	Short:   "Remove one saved analysis",
	Args:    cobra.ExactArgs(1),
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseAnalysisID(args[0])
		if err != nil {
			return err
		}
		if err := iocache.Manager.GetAnalysisStore().Delete(rootCtx, id); err != nil {
			return err
		}
		fmt.Printf("Analysis %d deleted.\n", id)
		return nil
	},
}
