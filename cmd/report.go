package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/airseries/core"
	"github.com/huangsam/airseries/internal/contract"
)

// reportCmd builds the time-series report from the index.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the 10-minute air quality time series.",
	Long: `Read the indexed readings of the last --window-days and downsample them
into 10-minute buckets, one column per sensor.

Each cell averages every A and B sample of the chosen --channel pair that the
sensor reported in the bucket. In aqi mode the average is converted to the
US EPA PM2.5 index; in average mode it is printed with two decimals. Buckets
without samples show "-".

Examples:
  # Write data/time-series.csv
  airseries report

  # Show the last day as a colored table in local time
  airseries report --window-days 1 --output text --timezone America/New_York

  # Raw averages of the corrected channel as JSON
  airseries report --report-mode average --channel cf_1 --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot build report", err)
		}
	},
}

// statusCmd shows coverage and index state per sensor.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show captured coverage and indexed rows per sensor.",
	Long: `Display the segment coverage and index statistics of every registered sensor.

Shows:
- Index backend, schema version and total rows
- Segment count and captured time range per sensor
- Indexed rows and time range per sensor`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStatus(rootCtx, cfg); err != nil {
			contract.LogFatal("Failed to get status", err)
		}
	},
}

// exportCmd writes every indexed reading to Parquet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed readings to a Parquet file",
	Long: `Write every indexed reading with all of its channels to a Parquet file
for analysis in other tools.

Examples:
  # Write data/readings.parquet
  airseries export

  # Export to a specific file
  airseries export --output-file readings-2024.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExport(rootCtx, cfg); err != nil {
			contract.LogFatal("Failed to export readings", err)
		}
	},
}
