package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/airseries/core"
	"github.com/huangsam/airseries/internal/contract"
)

// indexCmd imports new segment files into the index store.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Import new segment files into the index store.",
	Long: `Migrate the index store to the latest schema, then import every segment
file that is not already indexed.

Supported backends: SQLite (default), MySQL, PostgreSQL

Already-indexed policies:
  bounds    - skip segments inside the sensor's indexed [min, max] (default)
  intervals - skip segments inside one contiguous run of imported segments

Subcommands:
  migrate - Move the schema to a specific version
  clear   - Drop the index so it can be rebuilt

Examples:
  # Index into data/index.db
  airseries index

  # Index into PostgreSQL with the strict policy
  airseries index --index-backend postgresql --index-check intervals \
    --index-db-connect "host=localhost dbname=air user=air password=air"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteIndex(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot index segments", err)
		}
	},
}

// indexMigrateCmd runs index schema migrations.
var indexMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run index schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the index store.

Migrations are versioned .sql files, embedded by default or read from
--migrations-dir. They are applied in numeric version order and a failed
migration leaves the stored version unchanged.

Files in --migrations-dir must be named <version>_<title>.up.sql, with an
optional <version>_<title>.down.sql for rollback (e.g. 3_add_site.up.sql).
Files not following this naming are ignored.

Examples:
  # Migrate to latest version (default)
  airseries index migrate

  # Migrate to specific version
  airseries index migrate --target-version 2

  # Rollback to initial state
  airseries index migrate --target-version 0`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := core.ExecuteMigrate(rootCtx, cfg, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// indexClearCmd drops the index store.
var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all indexed readings",
	Long: `Delete the index store of the configured backend.

Segment files and the registry are left alone, so the next 'airseries index'
rebuilds everything from disk. Use this after editing or removing segment
files by hand.`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClear(rootCtx, cfg); err != nil {
			contract.LogFatal("Failed to clear index", err)
		}
	},
}
