// Package semantic embeds analyzed commits and answers similarity queries over them.
package semantic

import (
	"context"

	"github.com/huangsam/repolens/schema"
)

// Embedder turns texts into vectors. Implementations return one vector per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Completer produces a free-form answer for a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// VectorStore keeps embeddings per repository and ranks them against a query vector.
type VectorStore interface {
	Replace(ctx context.Context, repoURL string, items []schema.CommitEmbedding) error
	Search(ctx context.Context, repoURL string, query []float32, threshold float64, limit int) ([]schema.SearchHit, error)
}
