package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/airseries/core"
	"github.com/huangsam/airseries/internal/contract"
)

// ingestCmd runs one fetch pass over the sensor registry.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch new sensor history into segment files.",
	Long: `Run one fetch pass over every sensor in the registry.

For each sensor the pass looks at the segment files already on disk and asks
the PurpleAir history API for:
- Everything older than the oldest saved reading (backfill)
- Everything newer than the newest saved reading, once it is older than --freshness

Each response is saved as a new immutable segment file and the registry
start/end columns are widened to match. A failing sensor is logged and the
pass moves on after --failure-cooldown.

Examples:
  # Fetch with the key from .env or PURPLEAIR_API_KEY
  airseries ingest

  # Fetch only the ATM channel pair, slower
  airseries ingest --fields pm2.5_atm_a,pm2.5_atm_b --request-delay 5s`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteIngest(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run ingest pass", err)
		}
	},
}

// runCmd chains ingest, index and report.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, index and report in one go.",
	Long: `Run the whole pipeline: one fetch pass, indexing of every new segment,
then the time-series report for the last --window-days.

Examples:
  # Refresh and write data/time-series.csv
  airseries run

  # Refresh and show the last day as a colored table
  airseries run --window-days 1 --output text`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRun(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run pipeline", err)
		}
	},
}
