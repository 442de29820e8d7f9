// Package cmd defines the command-line interface for airseries.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the index management subcommands to the parent index command
	indexCmd.AddCommand(indexMigrateCmd)
	indexCmd.AddCommand(indexClearCmd)

	// Bind all persistent flags of rootCmd to Viper.
	// Pipeline flags live on the root so ingest, report and run share one binding.
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file")
	flags.String("data-dir", contract.DefaultDataDir, "Directory holding segments, the registry and the SQLite index")
	flags.String("registry-file", "", "Sensor registry CSV (default <data-dir>/sensors.csv)")
	flags.String("index-backend", string(schema.SQLiteBackend), "Index backend: sqlite or mysql or postgresql")
	flags.String("index-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?multiStatements=true)")
	flags.String("index-check", string(schema.BoundsCheck), "Already-indexed policy: bounds or intervals")
	flags.String("migrations-dir", "", "Directory of <version>_<title>.up.sql migrations (default embedded)")
	flags.String("api-key", "", "PurpleAir read key (or PURPLEAIR_API_KEY)")
	flags.String("api-base-url", contract.DefaultAPIBaseURL, "PurpleAir API base URL")
	flags.String("fields", strings.Join(schema.DefaultFields, ","), "Comma-separated list of history fields to request")
	flags.String("request-delay", contract.DefaultRequestDelay.String(), "Delay after every API call")
	flags.String("failure-cooldown", contract.DefaultFailureCooldown.String(), "Cooldown after a failed sensor")
	flags.String("freshness", contract.DefaultFreshness.String(), "Skip the forward fetch when data is newer than this")
	flags.Int("window-days", contract.DefaultWindowDays, "Number of trailing days in the report")
	flags.String("report-mode", string(schema.AQIMode), "Report cells: aqi or average")
	flags.String("channel", string(schema.AtmChannel), "PM2.5 channel pair: atm or alt or cf_1")
	flags.String("timezone", contract.DefaultTimezone, "IANA timezone for report bucket labels")
	flags.String("output", string(schema.CSVOut), "Output format: csv or text or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.String("color", "yes", "Enable colored AQI cells in output (yes/no/true/false/1/0)")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of indexMigrateCmd to Viper
	indexMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(indexMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding index migrate flags", err)
	}
}
