package cmd

import (
	"github.com/huangsam/repolens/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the repolens HTTP API",
	Long: `Serve analyses over a JSON HTTP API until interrupted.

Endpoints:
  POST /api/analyze         {"repo_url": "..."}
  GET  /api/analyses        ?limit=N
  GET  /api/analyses/:id
  GET  /api/search          ?repo_url=...&q=...&limit=N
  POST /api/ask             {"repo_url": "...", "question": "..."}
  GET  /healthz

Examples:
  repolens serve --listen :9090 --semantic`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return server.New(cfg, newService()).Start(rootCtx)
	},
}
