// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/repolens/schema"
)

// RepositoryAccess clones a remote repository into a local working copy.
// This allows the analysis pipeline to be tested without network or git access.
type RepositoryAccess interface {
	// Clone materializes url under destPath and returns a read-only handle to it.
	// Failures are reported as clone errors.
	Clone(ctx context.Context, url, destPath string) (RepositoryHandle, error)
}

// RepositoryHandle exposes read-only views of one local working copy.
type RepositoryHandle interface {
	// Commits returns at most maxCount commits reachable from HEAD, most recent first.
	Commits(ctx context.Context, maxCount int) ([]schema.RawCommit, error)

	// FileTree returns every tracked file at HEAD with its extension and size.
	FileTree(ctx context.Context) ([]schema.FileEntry, error)

	// HeadHash returns the full hash HEAD points to.
	HeadHash(ctx context.Context) (string, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetAnalysisStore() AnalysisStore
	GetEmbeddingStore() EmbeddingStore
}

// AnalysisStore persists analysis results as opaque blobs keyed by repository URL.
type AnalysisStore interface {
	// Store saves a completed result and returns its generated identifier.
	Store(ctx context.Context, repoURL string, result *schema.AnalysisResult) (int64, error)

	// Retrieve loads a result by identifier. It returns nil without error when absent.
	Retrieve(ctx context.Context, id int64) (*schema.AnalysisResult, error)

	// Latest loads the newest result stored for repoURL. It returns 0 and nil when absent.
	Latest(ctx context.Context, repoURL string) (int64, *schema.AnalysisResult, error)

	// List returns the newest analyses first, at most limit of them.
	List(ctx context.Context, limit int) ([]schema.AnalysisRecord, error)

	// Delete removes one analysis by identifier.
	Delete(ctx context.Context, id int64) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// EmbeddingStore keeps commit embeddings per repository.
type EmbeddingStore interface {
	// ReplaceEmbeddings drops the embeddings of repoURL and writes items in their place.
	ReplaceEmbeddings(ctx context.Context, repoURL string, items []schema.CommitEmbedding) error

	// LoadEmbeddings returns every embedding stored for repoURL.
	LoadEmbeddings(ctx context.Context, repoURL string) ([]schema.CommitEmbedding, error)

	// Close closes the underlying connection.
	Close() error
}

// SemanticIndex answers similarity queries over previously indexed commits.
// Calls may be slow and remote; they never modify stored analysis results.
type SemanticIndex interface {
	// Index embeds records and replaces whatever was indexed for repoURL before.
	Index(ctx context.Context, repoURL string, records []schema.CommitRecord) error

	// Search ranks indexed commits of repoURL by relevance to query.
	Search(ctx context.Context, repoURL, query string, limit int) ([]schema.SearchHit, error)

	// Answer responds to a free-form question using the indexed commits of repoURL.
	Answer(ctx context.Context, repoURL, question string) (*schema.Answer, error)
}
