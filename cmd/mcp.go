package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/airseries/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the airseries MCP server",
	Long:  `Launch an MCP server that allows AI agents to read sensor coverage and air quality reports via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Tool handlers suppress the normal header logs
		// so they never pollute stdio, which carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
