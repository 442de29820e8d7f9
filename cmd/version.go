package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of airseries.",
	Long: `Display version information including build details and the
built-in pipeline defaults.

Useful when reporting bugs or checking that a deployed binary talks to the
expected API with the expected bucket width.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("airseries CLI\n")
		cmd.Printf("  Version: %s (%s, built %s)\n", version, commit, date)
		cmd.Printf("  Runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  API:     %s\n", contract.DefaultAPIBaseURL)
		cmd.Printf("  Buckets: %s\n", schema.BucketWidth)
	},
}
