package semantic

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/core/classify"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"go.uber.org/zap"
)

// Preprocessing and batching limits.
const (
	MaxEmbedRunes = 500
	embedBatch    = 32
)

// Index implements contract.SemanticIndex with an Embedder, a Completer and a VectorStore.
type Index struct {
	embedder  Embedder
	completer Completer
	vectors   VectorStore
	threshold float64
	limit     int
}

var _ contract.SemanticIndex = &Index{} // Compile-time check

// NewIndex creates an Index. A non-positive limit selects contract.DefaultSearchLimit.
func NewIndex(embedder Embedder, completer Completer, vectors VectorStore, threshold float64, limit int) *Index {
	if limit <= 0 {
		limit = contract.DefaultSearchLimit
	}
	return &Index{embedder: embedder, completer: completer, vectors: vectors, threshold: threshold, limit: limit}
}

// CommitText builds the text embedded for a commit: title, derived keywords, then the
// full message, cut to MaxEmbedRunes runes.
func CommitText(record schema.CommitRecord) string {
	parts := []string{contract.FirstLine(record.Message)}
	parts = append(parts, classify.Keywords(record.Classification)...)
	parts = append(parts, record.Message)
	text := strings.Join(parts, " ")
	if utf8.RuneCountInString(text) > MaxEmbedRunes {
		text = string([]rune(text)[:MaxEmbedRunes])
	}
	return text
}

// Index implements the contract.SemanticIndex interface.
func (ix *Index) Index(ctx context.Context, repoURL string, records []schema.CommitRecord) error {
	items := make([]schema.CommitEmbedding, 0, len(records))
	for start := 0; start < len(records); start += embedBatch {
		end := min(start+embedBatch, len(records))
		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, CommitText(r))
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return contract.NewSemanticError(err, "embed")
		}
		if len(vectors) != len(texts) {
			return contract.NewSemanticError(
				errors.Newf("got %d vectors for %d commits", len(vectors), len(texts)), "embed")
		}
		for i, r := range records[start:end] {
			items = append(items, schema.CommitEmbedding{
				RepoURL: repoURL,
				Commit:  r,
				Model:   ix.embedder.Model(),
				Vector:  vectors[i],
			})
		}
	}
	if err := ix.vectors.Replace(ctx, repoURL, items); err != nil {
		return contract.NewSemanticError(err, "store")
	}
	contract.LogDebug("indexed commits", zap.String("repo", repoURL), zap.Int("count", len(items)))
	return nil
}

// Search implements the contract.SemanticIndex interface.
func (ix *Index) Search(ctx context.Context, repoURL, query string, limit int) ([]schema.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, contract.NewSemanticError(errors.New("query must not be empty"), "search")
	}
	if limit <= 0 {
		limit = ix.limit
	}
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, contract.NewSemanticError(err, "embed query")
	}
	if len(vectors) != 1 {
		return nil, contract.NewSemanticError(errors.Newf("got %d vectors for one query", len(vectors)), "embed query")
	}
	hits, err := ix.vectors.Search(ctx, repoURL, vectors[0], ix.threshold, limit)
	if err != nil {
		return nil, contract.NewSemanticError(err, "search")
	}
	return hits, nil
}

// Answer implements the contract.SemanticIndex interface. Without matching commits
// no completion is requested.
func (ix *Index) Answer(ctx context.Context, repoURL, question string) (*schema.Answer, error) {
	kind := Route(question)
	hits, err := ix.Search(ctx, repoURL, question, contextLimit(kind))
	if err != nil {
		return nil, err
	}
	answer := &schema.Answer{Question: question, Kind: kind, Hits: hits}
	if len(hits) == 0 {
		answer.Text = "No indexed commits are relevant to this question. Run an analysis with the semantic index enabled first."
		return answer, nil
	}
	text, err := ix.completer.Complete(ctx, systemPrompt, BuildPrompt(kind, question, hits))
	if err != nil {
		return nil, contract.NewSemanticError(err, "answer")
	}
	answer.Text = text
	return answer, nil
}

// BuildPrompt lays out the question, the routed focus and one line per hit.
func BuildPrompt(kind schema.QuestionKind, question string, hits []schema.SearchHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Focus: %s\n\n", focus[kind])
	b.WriteString("Relevant commits (most relevant first):\n")
	for _, h := range hits {
		c := h.Commit
		fmt.Fprintf(&b, "- %s [%s] %s by %s on %s (+%d/-%d, %d files, score %.2f)\n",
			c.Hash, c.Classification, contract.FirstLine(c.Message), c.AuthorName, c.Timestamp,
			c.Insertions, c.Deletions, c.FilesChanged, h.Score)
	}
	return b.String()
}
