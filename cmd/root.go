package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/huangsam/repolens/core"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/gitrepo"
	"github.com/huangsam/repolens/internal/iocache"
	"github.com/huangsam/repolens/internal/semantic"
	"github.com/huangsam/repolens/internal/telemetry"
	"github.com/huangsam/repolens/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute cancels it on SIGINT/SIGTERM.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = contract.DefaultConfig()

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// Resources opened by sharedSetup and released by Shutdown.
var (
	telemetryShutdown telemetry.ShutdownFunc
	semanticIndex     *semantic.Built
)

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "Analyze the commit history of any Git repository.",
	Long: `Repolens clones a Git repository, reads its recent history and reports who
contributes, what kind of work lands, and how activity is spread over time.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("REPOLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("max-commits", schema.DefaultMaxCommits)
	viper.SetDefault("max-files", schema.DefaultMaxFilesListed)
	viper.SetDefault("commit-display-cap", schema.DefaultCommitDisplayCap)
	viper.SetDefault("contributor-display-cap", schema.DefaultContributorDisplayCap)
	viper.SetDefault("git-driver", schema.GoGitDriver)
	viper.SetDefault("database-backend", schema.SQLiteBackend)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
	viper.SetDefault("limit", contract.DefaultListLimit)
	viper.SetDefault("log-format", contract.ConsoleLogFormat)
	viper.SetDefault("listen", contract.DefaultListen)
	viper.SetDefault("embed-provider", schema.OllamaProvider)
	viper.SetDefault("llm-provider", schema.OllamaProvider)
	viper.SetDefault("ollama-url", contract.DefaultOllamaURL)
	viper.SetDefault("embed-model", contract.DefaultEmbedModel)
	viper.SetDefault("llm-model", contract.DefaultLLMModel)
	viper.SetDefault("vector-backend", schema.SQLVectors)
	viper.SetDefault("search-threshold", contract.DefaultSearchThreshold)
	viper.SetDefault("search-limit", contract.DefaultSearchLimit)
}

// setConfigFile points viper at --config or at .repolens.yaml in cwd or home.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".repolens") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfig merges file, env and flags into cfg and reconfigures logging.
// repoURL is the positional repository argument, or "" for commands without one.
func loadConfig(repoURL string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "error reading config file")
		}
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return errors.Wrap(err, "unable to unmarshal config")
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RepoURLStr = repoURL

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return contract.NewInvalidInputError(err)
	}
	return contract.ConfigureLogging(cfg.Debug, cfg.LogFormat)
}

// sharedSetup validates config and opens telemetry, stores and the semantic index.
func sharedSetup(repoURL string) error {
	if err := loadConfig(repoURL); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cfg.Telemetry, nil)
	if err != nil {
		return errors.Wrap(err, "failed to initialize telemetry")
	}
	telemetryShutdown = shutdown

	if err := iocache.InitStores(cfg.DatabaseBackend, cfg.DatabaseConnect); err != nil {
		return errors.Wrap(err, "failed to initialize persistence")
	}

	if cfg.Semantic.Enabled {
		built, err := semantic.Build(cfg.Semantic, iocache.Manager.GetEmbeddingStore())
		if err != nil {
			return errors.Wrap(err, "failed to initialize semantic index")
		}
		semanticIndex = built
	}
	return nil
}

// repoSetupWrapper runs sharedSetup with the first positional argument as the repository URL.
func repoSetupWrapper(_ *cobra.Command, args []string) error {
	repoURL := ""
	if len(args) > 0 {
		repoURL = args[0]
	}
	return sharedSetup(repoURL)
}

// sharedSetupWrapper runs sharedSetup for commands that do not take a repository.
func sharedSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup("")
}

// newRepositoryAccess picks the clone implementation for the configured git driver.
func newRepositoryAccess(c *contract.Config) contract.RepositoryAccess {
	if c.GitDriver == schema.CLIDriver {
		return contract.NewLocalGitClient(c.CloneDepth)
	}
	return gitrepo.NewCloner(c.CloneDepth)
}

// newService wires the analyzer, store and optional index opened by sharedSetup.
func newService() *core.Service {
	store := iocache.Manager.GetAnalysisStore()
	opts := []core.Option{
		core.WithStore(store),
		core.WithCaps(core.CapsFromConfig(cfg)),
		core.WithScratchDir(cfg.ScratchDir),
	}

	var index contract.SemanticIndex
	if semanticIndex != nil {
		index = semanticIndex.Index
		opts = append(opts, core.WithIndex(index))
	}

	svc := core.NewService(core.NewAnalyzer(newRepositoryAccess(cfg), opts...), store, index)
	svc.ListLimit = cfg.ListLimit
	return svc
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown releases everything sharedSetup opened. It is safe to call when setup never ran.
func Shutdown() error {
	var result *multierror.Error
	if semanticIndex != nil {
		if err := semanticIndex.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "close semantic index"))
		}
	}
	if err := iocache.CloseStores(); err != nil {
		result = multierror.Append(result, err)
	}
	if telemetryShutdown != nil {
		if err := telemetryShutdown(context.Background()); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "flush telemetry"))
		}
	}
	return result.ErrorOrNil()
}
