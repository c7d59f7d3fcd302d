package contract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/huangsam/repolens/schema"
)

// Default values for configuration.
const (
	DefaultPrecision       = 1
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultEmbedModel      = "nomic-embed-text"
	DefaultLLMModel        = "llama3.2"
	DefaultGeminiEmbed     = "text-embedding-004"
	DefaultGeminiLLM       = "gemini-2.0-flash"
	DefaultSearchThreshold = 0.3
	DefaultSearchLimit     = 10
	DefaultListen          = ":8080"
	DefaultListLimit       = 20
	MaxCap                 = 100000
)

// SemanticConfig holds settings for the optional semantic index.
type SemanticConfig struct {
	Enabled         bool
	EmbedProvider   schema.Provider
	LLMProvider     schema.Provider
	OllamaURL       string
	EmbedModel      string
	LLMModel        string
	GeminiAPIKey    string // Please use env var as this is plaintext
	VectorBackend   schema.VectorBackend
	PGVectorConnect string // Please use env var as this is plaintext
	RedisURL        string
	Threshold       float64
	Limit           int
}

// Config holds the runtime configuration for an analysis.
// This struct remains the "final, validated" config.
type Config struct {
	RepoURL string

	MaxCommits            int
	MaxFilesListed        int
	CommitDisplayCap      int
	ContributorDisplayCap int

	GitDriver  schema.GitDriver
	CloneDepth int    // 0 clones full history
	ScratchDir string // Parent of per-run scratch directories ("" = OS temp)

	DatabaseBackend schema.DatabaseBackend
	DatabaseConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	Precision  int
	UseColors  bool
	ListLimit  int

	Debug     bool
	LogFormat string
	Telemetry bool

	Listen string

	Semantic SemanticConfig
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoURLStr string

	// --- Caps ---
	MaxCommits            int `mapstructure:"max-commits"`
	MaxFiles              int `mapstructure:"max-files"`
	CommitDisplayCap      int `mapstructure:"commit-display-cap"`
	ContributorDisplayCap int `mapstructure:"contributor-display-cap"`

	// --- Repository access ---
	GitDriver  string `mapstructure:"git-driver"`
	CloneDepth int    `mapstructure:"clone-depth"`
	ScratchDir string `mapstructure:"scratch-dir"`

	// --- Persistence ---
	DatabaseBackend string `mapstructure:"database-backend"`
	DatabaseConnect string `mapstructure:"database-connect"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Precision  int    `mapstructure:"precision"`
	Color      string `mapstructure:"color"`
	Limit      int    `mapstructure:"limit"`

	// --- Diagnostics ---
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log-format"`
	Telemetry bool   `mapstructure:"telemetry"`

	// --- Server ---
	Listen string `mapstructure:"listen"`

	// --- Semantic index ---
	SemanticEnabled bool    `mapstructure:"semantic"`
	EmbedProvider   string  `mapstructure:"embed-provider"`
	LLMProvider     string  `mapstructure:"llm-provider"`
	OllamaURL       string  `mapstructure:"ollama-url"`
	EmbedModel      string  `mapstructure:"embed-model"`
	LLMModel        string  `mapstructure:"llm-model"`
	GeminiAPIKey    string  `mapstructure:"gemini-api-key"`
	VectorBackend   string  `mapstructure:"vector-backend"`
	PGVectorConnect string  `mapstructure:"pgvector-connect"`
	RedisURL        string  `mapstructure:"redis-url"`
	SearchThreshold float64 `mapstructure:"search-threshold"`
	SearchLimit     int     `mapstructure:"search-limit"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// CloneWithRepo returns a copy of the Config that targets another repository URL.
func (c *Config) CloneWithRepo(repoURL string) *Config {
	clone := c.Clone()
	clone.RepoURL = repoURL
	return clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateCaps(cfg, input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSemanticConfig(cfg, input); err != nil {
		return err
	}
	if input.RepoURLStr != "" {
		if err := ValidateRepoURL(input.RepoURLStr); err != nil {
			return err
		}
	}
	cfg.RepoURL = strings.TrimSpace(input.RepoURLStr)
	return nil
}

// DefaultConfig returns a Config populated with every default value.
func DefaultConfig() *Config {
	return &Config{
		MaxCommits:            schema.DefaultMaxCommits,
		MaxFilesListed:        schema.DefaultMaxFilesListed,
		CommitDisplayCap:      schema.DefaultCommitDisplayCap,
		ContributorDisplayCap: schema.DefaultContributorDisplayCap,
		GitDriver:             schema.GoGitDriver,
		DatabaseBackend:       schema.SQLiteBackend,
		Output:                schema.TextOut,
		Precision:             DefaultPrecision,
		UseColors:             true,
		ListLimit:             DefaultListLimit,
		LogFormat:             ConsoleLogFormat,
		Listen:                DefaultListen,
		Semantic: SemanticConfig{
			EmbedProvider: schema.OllamaProvider,
			LLMProvider:   schema.OllamaProvider,
			OllamaURL:     DefaultOllamaURL,
			EmbedModel:    DefaultEmbedModel,
			LLMModel:      DefaultLLMModel,
			VectorBackend: schema.SQLVectors,
			Threshold:     DefaultSearchThreshold,
			Limit:         DefaultSearchLimit,
		},
	}
}

// ValidateRepoURL checks that s looks like something git can clone: a URL with a
// scheme and host, an scp-style address, or a local path.
func ValidateRepoURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("repository URL must not be empty")
	}
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Errorf("repository URL %q must not contain whitespace", s)
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid repository URL %q: %w", s, err)
		}
		switch u.Scheme {
		case "http", "https", "ssh", "git":
			if u.Host == "" {
				return fmt.Errorf("repository URL %q has no host", s)
			}
		case "file":
		default:
			return fmt.Errorf("unsupported repository URL scheme '%s'", u.Scheme)
		}
	}
	return nil
}

// validateCaps checks every traversal and display cap.
func validateCaps(cfg *Config, input *ConfigRawInput) error {
	caps := []struct {
		name  string
		value int
		dest  *int
	}{
		{"max-commits", input.MaxCommits, &cfg.MaxCommits},
		{"max-files", input.MaxFiles, &cfg.MaxFilesListed},
		{"commit-display-cap", input.CommitDisplayCap, &cfg.CommitDisplayCap},
		{"contributor-display-cap", input.ContributorDisplayCap, &cfg.ContributorDisplayCap},
	}
	for _, c := range caps {
		if c.value <= 0 || c.value > MaxCap {
			return fmt.Errorf("%s must be greater than 0 and cannot exceed %d (received %d)", c.name, MaxCap, c.value)
		}
		*c.dest = c.value
	}
	return nil
}

// validateSimpleInputs processes and validates the output and repository access fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Debug = input.Debug
	cfg.Telemetry = input.Telemetry
	cfg.ScratchDir = input.ScratchDir
	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	cfg.ListLimit = input.Limit
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = ConsoleLogFormat
	}
	if cfg.LogFormat != ConsoleLogFormat && cfg.LogFormat != JSONLogFormat {
		return fmt.Errorf("invalid log format '%s'. must be console or json", input.LogFormat)
	}

	cfg.GitDriver = schema.GitDriver(strings.ToLower(input.GitDriver))
	if _, ok := schema.ValidGitDrivers[cfg.GitDriver]; !ok {
		return fmt.Errorf("invalid git driver '%s'. must be gogit or cli", input.GitDriver)
	}

	if input.CloneDepth < 0 {
		return fmt.Errorf("clone-depth cannot be negative (received %d)", input.CloneDepth)
	}
	cfg.CloneDepth = input.CloneDepth

	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the persistence backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.DatabaseBackend = schema.DatabaseBackend(strings.ToLower(input.DatabaseBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.DatabaseBackend]; !ok {
		return fmt.Errorf("invalid database backend '%s'. must be sqlite, mysql, postgresql, none", input.DatabaseBackend)
	}
	cfg.DatabaseConnect = input.DatabaseConnect
	return ValidateDatabaseConnectionString(cfg.DatabaseBackend, cfg.DatabaseConnect)
}

// processSemanticConfig validates the semantic index settings. Provider checks only
// apply when the index is enabled, so a bare analysis never needs an API key.
func processSemanticConfig(cfg *Config, input *ConfigRawInput) error {
	sem := SemanticConfig{
		Enabled:         input.SemanticEnabled,
		EmbedProvider:   schema.Provider(strings.ToLower(input.EmbedProvider)),
		LLMProvider:     schema.Provider(strings.ToLower(input.LLMProvider)),
		OllamaURL:       strings.TrimRight(input.OllamaURL, "/"),
		EmbedModel:      input.EmbedModel,
		LLMModel:        input.LLMModel,
		GeminiAPIKey:    input.GeminiAPIKey,
		VectorBackend:   schema.VectorBackend(strings.ToLower(input.VectorBackend)),
		PGVectorConnect: input.PGVectorConnect,
		RedisURL:        input.RedisURL,
		Threshold:       input.SearchThreshold,
		Limit:           input.SearchLimit,
	}

	if _, ok := schema.ValidProviders[sem.EmbedProvider]; !ok {
		return fmt.Errorf("invalid embed provider '%s'. must be ollama or gemini", input.EmbedProvider)
	}
	if _, ok := schema.ValidProviders[sem.LLMProvider]; !ok {
		return fmt.Errorf("invalid llm provider '%s'. must be ollama or gemini", input.LLMProvider)
	}
	if _, ok := schema.ValidVectorBackends[sem.VectorBackend]; !ok {
		return fmt.Errorf("invalid vector backend '%s'. must be sql or pgvector", input.VectorBackend)
	}
	if sem.Threshold < -1 || sem.Threshold > 1 {
		return fmt.Errorf("search-threshold must be between -1 and 1 (received %.2f)", sem.Threshold)
	}
	if sem.Limit <= 0 {
		return fmt.Errorf("search-limit must be greater than 0 (received %d)", sem.Limit)
	}
	if sem.OllamaURL == "" {
		sem.OllamaURL = DefaultOllamaURL
	}

	usesGemini := sem.EmbedProvider == schema.GeminiProvider || sem.LLMProvider == schema.GeminiProvider
	if usesGemini && sem.GeminiAPIKey == "" {
		return fmt.Errorf("gemini-api-key is required when a gemini provider is selected")
	}
	if sem.VectorBackend == schema.PGVectorVectors {
		if err := ValidateDatabaseConnectionString(schema.PostgreSQLBackend, sem.PGVectorConnect); err != nil {
			return fmt.Errorf("pgvector-connect: %w", err)
		}
	}

	cfg.Semantic = sem
	return nil
}
