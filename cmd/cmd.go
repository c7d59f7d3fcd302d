// Package cmd defines the command-line interface for repolens.
package cmd

import (
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.Int("max-commits", schema.DefaultMaxCommits, "Maximum number of commits read from history")
	flags.Int("max-files", schema.DefaultMaxFilesListed, "Maximum number of tracked files listed in the result")
	flags.Int("commit-display-cap", schema.DefaultCommitDisplayCap, "Maximum number of commits kept in the result")
	flags.Int("contributor-display-cap", schema.DefaultContributorDisplayCap, "Maximum number of contributors shown in text output")
	flags.String("git-driver", string(schema.GoGitDriver), "Repository access: gogit or cli")
	flags.Int("clone-depth", 0, "Shallow clone depth (0 = full history)")
	flags.String("scratch-dir", "", "Parent directory for temporary clones (default: OS temp dir)")
	flags.String("database-backend", string(schema.SQLiteBackend), "Analysis store: sqlite or mysql or postgresql or none")
	flags.String("database-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.StringP("output", "o", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.IntP("limit", "l", contract.DefaultListLimit, "Number of stored analyses to list")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", contract.ConsoleLogFormat, "Log format: console or json")
	flags.Bool("telemetry", false, "Write OpenTelemetry spans to ~/.repolens/telemetry.jsonl")
	flags.Bool("semantic", false, "Index commits for semantic search and questions")
	flags.String("embed-provider", string(schema.OllamaProvider), "Embedding provider: ollama or gemini")
	flags.String("llm-provider", string(schema.OllamaProvider), "Answer provider: ollama or gemini")
	flags.String("ollama-url", contract.DefaultOllamaURL, "Base URL of the Ollama server")
	flags.String("embed-model", contract.DefaultEmbedModel, "Embedding model name")
	flags.String("llm-model", contract.DefaultLLMModel, "Answer model name")
	flags.String("gemini-api-key", "", "Gemini API key (prefer REPOLENS_GEMINI_API_KEY)")
	flags.String("vector-backend", string(schema.SQLVectors), "Vector storage: sql or pgvector")
	flags.String("pgvector-connect", "", "PostgreSQL connection string for the pgvector backend")
	flags.String("redis-url", "", "Optional Redis URL used to cache embeddings")
	flags.Float64("search-threshold", contract.DefaultSearchThreshold, "Minimum cosine similarity of a search hit")
	flags.Int("search-limit", contract.DefaultSearchLimit, "Maximum number of search hits")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListen, "Address the HTTP server listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
}
