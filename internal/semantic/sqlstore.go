package semantic

import (
	"context"
	"sort"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// SQLVectorStore ranks embeddings loaded from a contract.EmbeddingStore in memory.
type SQLVectorStore struct {
	store contract.EmbeddingStore
}

var _ VectorStore = &SQLVectorStore{} // Compile-time check

// NewSQLVectorStore creates a VectorStore over store.
func NewSQLVectorStore(store contract.EmbeddingStore) *SQLVectorStore {
	return &SQLVectorStore{store: store}
}

// Replace implements the VectorStore interface.
func (s *SQLVectorStore) Replace(ctx context.Context, repoURL string, items []schema.CommitEmbedding) error {
	return s.store.ReplaceEmbeddings(ctx, repoURL, items)
}

// Search implements the VectorStore interface.
func (s *SQLVectorStore) Search(ctx context.Context, repoURL string, query []float32, threshold float64, limit int) ([]schema.SearchHit, error) {
	items, err := s.store.LoadEmbeddings(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	return rank(items, query, threshold, limit), nil
}

// rank scores every item against query and keeps the best limit hits at or above threshold.
// Ties keep storage order.
func rank(items []schema.CommitEmbedding, query []float32, threshold float64, limit int) []schema.SearchHit {
	hits := make([]schema.SearchHit, 0, len(items))
	for _, item := range items {
		score := Cosine(item.Vector, query)
		if score < threshold {
			continue
		}
		hits = append(hits, schema.SearchHit{Commit: item.Commit, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
