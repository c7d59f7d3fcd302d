package cmd

import (
	"github.com/huangsam/repolens/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the repolens MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents analyze repositories and query saved analyses.`,
	Args:  cobra.NoArgs,
	// Logs already go to stderr, so stdout stays free for the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, newService())
	},
}
