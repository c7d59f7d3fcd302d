package schema

// Custom string types for type safety.
type (
	// Classification is the heuristic label assigned to a commit message.
	Classification string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// GitDriver selects how repositories are cloned and read.
	GitDriver string

	// Provider names a remote embedding or completion service.
	Provider string

	// VectorBackend selects where commit embeddings are stored and searched.
	VectorBackend string

	// QuestionKind is the routed category of a free-form question.
	QuestionKind string

	// AnalysisStage names the pipeline stage an analysis failed in.
	AnalysisStage string
)

// Commit classification labels, listed in rule priority order.
const (
	FeatureClass  Classification = "feature"
	BugfixClass   Classification = "bugfix"
	RefactorClass Classification = "refactor"
	DocsClass     Classification = "docs"
	TestClass     Classification = "test"
	StyleClass    Classification = "style"
	OtherClass    Classification = "other" // fallback
)

// Sentinels used by insights computed over an empty history.
const (
	UnknownContributor    = "Unknown"
	UnknownClassification = Classification("unknown")
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All git drivers supported.
const (
	GoGitDriver GitDriver = "gogit" // default
	CLIDriver   GitDriver = "cli"
)

// All semantic providers supported.
const (
	OllamaProvider Provider = "ollama" // default
	GeminiProvider Provider = "gemini"
)

// All vector backends supported.
const (
	SQLVectors      VectorBackend = "sql" // default
	PGVectorVectors VectorBackend = "pgvector"
)

// Question kinds recognized by the semantic router, in routing priority order.
const (
	SemanticQuestion      QuestionKind = "semantic"
	EvolutionQuestion     QuestionKind = "evolution"
	ImpactQuestion        QuestionKind = "impact"
	PatternQuestion       QuestionKind = "pattern"
	CollaborationQuestion QuestionKind = "collaboration"
	GeneralQuestion       QuestionKind = "general"
)

// Pipeline stages reported by analysis failures.
const (
	WorkspaceStage AnalysisStage = "workspace"
	CloneStage     AnalysisStage = "clone"
	ExtractStage   AnalysisStage = "extract"
	AggregateStage AnalysisStage = "aggregate"
	PersistStage   AnalysisStage = "persist"
)

// Default caps applied to one analysis run.
const (
	DefaultMaxCommits            = 100
	DefaultMaxFilesListed        = 100
	DefaultCommitDisplayCap      = 50
	DefaultContributorDisplayCap = 10
)

// ShortHashLength is the number of leading hex characters kept for display hashes.
const ShortHashLength = 8

// AllClassifications returns every label in rule priority order.
var AllClassifications = []Classification{
	FeatureClass, BugfixClass, RefactorClass, DocsClass, TestClass, StyleClass, OtherClass,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGitDrivers lists all valid git drivers.
var ValidGitDrivers = map[GitDriver]struct{}{
	GoGitDriver: {},
	CLIDriver:   {},
}

// ValidProviders lists all valid semantic providers.
var ValidProviders = map[Provider]struct{}{
	OllamaProvider: {},
	GeminiProvider: {},
}

// ValidVectorBackends lists all valid vector backends.
var ValidVectorBackends = map[VectorBackend]struct{}{
	SQLVectors:      {},
	PGVectorVectors: {},
}
