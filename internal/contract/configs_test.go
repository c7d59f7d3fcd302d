package contract

import (
	"testing"

	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawInput returns raw input carrying every default, as viper would produce it.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		RepoURLStr:            "https://github.com/huangsam/repolens.git",
		MaxCommits:            schema.DefaultMaxCommits,
		MaxFiles:              schema.DefaultMaxFilesListed,
		CommitDisplayCap:      schema.DefaultCommitDisplayCap,
		ContributorDisplayCap: schema.DefaultContributorDisplayCap,
		GitDriver:             string(schema.GoGitDriver),
		DatabaseBackend:       string(schema.SQLiteBackend),
		Output:                string(schema.TextOut),
		Precision:             DefaultPrecision,
		Color:                 "yes",
		EmbedProvider:         string(schema.OllamaProvider),
		LLMProvider:           string(schema.OllamaProvider),
		OllamaURL:             DefaultOllamaURL,
		EmbedModel:            DefaultEmbedModel,
		LLMModel:              DefaultLLMModel,
		VectorBackend:         string(schema.SQLVectors),
		SearchThreshold:       DefaultSearchThreshold,
		SearchLimit:           DefaultSearchLimit,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid defaults", mutate: func(*ConfigRawInput) {}},
		{name: "no repository URL", mutate: func(in *ConfigRawInput) { in.RepoURLStr = "" }},
		{name: "scp style URL", mutate: func(in *ConfigRawInput) { in.RepoURLStr = "git@github.com:huangsam/repolens.git" }},
		{
			name:        "zero max commits",
			mutate:      func(in *ConfigRawInput) { in.MaxCommits = 0 },
			expectError: "max-commits must be greater than 0",
		},
		{
			name:        "negative display cap",
			mutate:      func(in *ConfigRawInput) { in.CommitDisplayCap = -1 },
			expectError: "commit-display-cap must be greater than 0",
		},
		{
			name:        "invalid git driver",
			mutate:      func(in *ConfigRawInput) { in.GitDriver = "svn" },
			expectError: "invalid git driver",
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format",
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: "invalid --color value",
		},
		{
			name:        "mysql without connection",
			mutate:      func(in *ConfigRawInput) { in.DatabaseBackend = "mysql" },
			expectError: "database-connect is required",
		},
		{
			name: "postgres with connection",
			mutate: func(in *ConfigRawInput) {
				in.DatabaseBackend = "postgresql"
				in.DatabaseConnect = "host=localhost user=u password=p dbname=repolens"
			},
		},
		{
			name:        "gemini without key",
			mutate:      func(in *ConfigRawInput) { in.LLMProvider = "gemini" },
			expectError: "gemini-api-key is required",
		},
		{
			name:        "pgvector without connection",
			mutate:      func(in *ConfigRawInput) { in.VectorBackend = "pgvector" },
			expectError: "pgvector-connect",
		},
		{
			name:        "threshold out of range",
			mutate:      func(in *ConfigRawInput) { in.SearchThreshold = 1.5 },
			expectError: "search-threshold must be between",
		},
		{
			name:        "unsupported scheme",
			mutate:      func(in *ConfigRawInput) { in.RepoURLStr = "ftp://example.com/repo.git" },
			expectError: "unsupported repository URL scheme",
		},
		{
			name:        "invalid log format",
			mutate:      func(in *ConfigRawInput) { in.LogFormat = "xml" },
			expectError: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, input.RepoURLStr, cfg.RepoURL)
		})
	}
}

func TestProcessAndValidateCopiesCaps(t *testing.T) {
	input := validRawInput()
	input.MaxCommits = 250
	input.MaxFiles = 30
	input.CommitDisplayCap = 20
	input.ContributorDisplayCap = 5

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, 250, cfg.MaxCommits)
	assert.Equal(t, 30, cfg.MaxFilesListed)
	assert.Equal(t, 20, cfg.CommitDisplayCap)
	assert.Equal(t, 5, cfg.ContributorDisplayCap)
	assert.Equal(t, schema.GoGitDriver, cfg.GitDriver)
	assert.Equal(t, DefaultListLimit, cfg.ListLimit)
	assert.Equal(t, ConsoleLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.True(t, cfg.UseColors)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.MaxCommits)
	assert.Equal(t, 100, cfg.MaxFilesListed)
	assert.Equal(t, 50, cfg.CommitDisplayCap)
	assert.Equal(t, 10, cfg.ContributorDisplayCap)
	assert.Equal(t, 0.3, cfg.Semantic.Threshold)
	assert.Equal(t, 10, cfg.Semantic.Limit)
}

func TestConfigCloneWithRepo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoURL = "https://example.com/a.git"
	clone := cfg.CloneWithRepo("https://example.com/b.git")

	assert.Equal(t, "https://example.com/a.git", cfg.RepoURL)
	assert.Equal(t, "https://example.com/b.git", clone.RepoURL)
	assert.Equal(t, cfg.MaxCommits, clone.MaxCommits)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite ignores conn", schema.SQLiteBackend, "", false},
		{"none ignores conn", schema.NoneBackend, "whatever", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/repolens", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/repolens", true},
		{"mysql missing db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=repolens", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=repolens", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRepoURL(t *testing.T) {
	valid := []string{
		"https://github.com/owner/repo",
		"https://github.com/owner/repo.git",
		"ssh://git@github.com/owner/repo.git",
		"git@github.com:owner/repo.git",
		"file:///tmp/repo",
		"/tmp/repo",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateRepoURL(u), u)
	}

	invalid := []string{"", "   ", "https://", "https://exa mple.com/repo", "s3://bucket/repo"}
	for _, u := range invalid {
		assert.Error(t, ValidateRepoURL(u), u)
	}
}
