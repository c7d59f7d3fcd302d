package cmd

import (
	"strings"

	"github.com/huangsam/repolens/internal/outwriter"
	"github.com/spf13/cobra"
)

// searchCmd ranks indexed commits by similarity to a query.
var searchCmd = &cobra.Command{
	Use:   "search <repo-url> <query...>",
	Short: "Find commits similar to a natural-language query",
	Long: `Search the commits indexed for a repository by meaning rather than exact words.

The repository must have been analyzed with --semantic first. Hits below
--search-threshold are dropped and at most --search-limit hits are shown.

Examples:
  repolens search https://github.com/spf13/cobra.git "shell completion bugs" --semantic
  REPOLENS_SEMANTIC=1 repolens search https://github.com/spf13/cobra.git flag parsing`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: repoSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		query := joinWords(args[1:])
		stop := startProgress("Searching...")
		hits, err := newService().Search(rootCtx, cfg.RepoURL, query, cfg.Semantic.Limit)
		stop()
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteSearchHits(query, hits, cfg)
	},
}

// askCmd answers a question from the indexed history.
var askCmd = &cobra.Command{
	Use:   "ask <repo-url> <question...>",
	Short: "Ask a question about a repository's history",
	Long: `Answer a free-form question using the commits indexed for a repository.

The question is routed to a focus (evolution, impact, collaboration and so on),
the most relevant commits are retrieved and a language model writes the answer.

Examples:
  repolens ask https://github.com/spf13/cobra.git "who works on completions?" --semantic
  repolens ask https://github.com/spf13/cobra.git how did flag parsing evolve --semantic --llm-provider gemini`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: repoSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		question := joinWords(args[1:])
		stop := startProgress("Thinking...")
		answer, err := newService().Ask(rootCtx, cfg.RepoURL, question)
		stop()
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteAnswer(answer, cfg)
	},
}

// joinWords rebuilds a query that the shell split into several arguments.
func joinWords(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}
