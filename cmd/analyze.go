package cmd

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/outwriter"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the full pipeline against one repository.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Clone a repository and analyze its recent commit history",
	Long: `Clone a repository into a temporary directory, read its most recent commits and
report contributors, commit types, daily activity and the tracked file structure.

The clone is always removed when the command finishes. The result is saved to the
configured database so it can be shown again with 'repolens show <id>'.

Examples:
  # Analyze a public repository
  repolens analyze https://github.com/spf13/cobra.git

  # Read up to 500 commits and emit JSON
  repolens analyze https://github.com/spf13/cobra.git --max-commits 500 -o json

  # Also index commits for 'repolens search' and 'repolens ask'
  repolens analyze https://github.com/spf13/cobra.git --semantic`,
	Args:    cobra.ExactArgs(1),
	PreRunE: repoSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		svc := newService()
		stop := startProgress("Analyzing " + cfg.RepoURL + "...")
		report, err := svc.Analyze(rootCtx, cfg.RepoURL)
		stop()
		if err != nil && (report == nil || report.Result == nil) {
			return err
		}
		if err != nil {
			contract.LogWarn("Analysis finished but could not be saved", err)
		}
		return outwriter.NewOutWriter().WriteAnalysis(report.ID, report.Result, cfg)
	},
}

// showCmd prints a stored analysis.
var showCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show a stored analysis",
	Long: `Load an analysis saved by 'repolens analyze' and print it in the selected format.

Examples:
  repolens show 3
  repolens show 3 -o csv --output-file commits.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseAnalysisID(args[0])
		if err != nil {
			return err
		}
		result, err := newService().Get(rootCtx, id)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteAnalysis(id, result, cfg)
	},
}

// listCmd lists stored analyses.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Long: `List the analyses saved in the configured database, newest first.

Examples:
  repolens list
  repolens list --limit 5 -o json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		records, err := newService().List(rootCtx, cfg.ListLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteAnalysisList(records, cfg)
	},
}

// parseAnalysisID parses a positive analysis identifier.
func parseAnalysisID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, contract.NewInvalidInputError(errors.Newf("analysis id must be a positive integer (received %q)", s))
	}
	return id, nil
}
