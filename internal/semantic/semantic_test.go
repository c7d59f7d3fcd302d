package semantic

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto three axes: login, docs, tests.
type keywordEmbedder struct {
	calls [][]string
	err   error
}

func (e *keywordEmbedder) Model() string { return "keywords" }

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		v := []float32{0, 0, 0}
		if strings.Contains(t, "login") {
			v[0] = 1
		}
		if strings.Contains(t, "doc") || strings.Contains(t, "readme") {
			v[1] = 1
		}
		if strings.Contains(t, "test") {
			v[2] = 1
		}
		out[i] = v
	}
	return out, nil
}

type fakeCompleter struct {
	system, prompt string
	reply          string
	err            error
}

func (c *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	c.system, c.prompt = system, prompt
	return c.reply, c.err
}

// memoryEmbeddings is an in-memory contract.EmbeddingStore.
type memoryEmbeddings struct {
	mu    sync.Mutex
	items map[string][]schema.CommitEmbedding
}

func newMemoryEmbeddings() *memoryEmbeddings {
	return &memoryEmbeddings{items: map[string][]schema.CommitEmbedding{}}
}

func (m *memoryEmbeddings) ReplaceEmbeddings(_ context.Context, repoURL string, items []schema.CommitEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[repoURL] = append([]schema.CommitEmbedding(nil), items...)
	return nil
}

func (m *memoryEmbeddings) LoadEmbeddings(_ context.Context, repoURL string) ([]schema.CommitEmbedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schema.CommitEmbedding{}, m.items[repoURL]...), nil
}

func (m *memoryEmbeddings) Close() error { return nil }

const repo = "https://github.com/acme/app.git"

func sampleRecords() []schema.CommitRecord {
	return []schema.CommitRecord{
		{Hash: "aaaa1111", Message: "feat: add login form", AuthorName: "Alice", Timestamp: "2024-01-05T09:00:00Z", Classification: schema.FeatureClass},
		{Hash: "bbbb2222", Message: "fix: login redirect", AuthorName: "Bob", Timestamp: "2024-01-06T09:00:00Z", Classification: schema.BugfixClass},
		{Hash: "cccc3333", Message: "docs: update readme", AuthorName: "Alice", Timestamp: "2024-01-07T09:00:00Z", Classification: schema.DocsClass},
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		question string
		want     schema.QuestionKind
	}{
		{"Find commits similar to the login work", schema.SemanticQuestion},
		{"How did auth evolve?", schema.EvolutionQuestion},
		{"Show the timeline of releases", schema.EvolutionQuestion},
		{"What was the impact of the refactor?", schema.ImpactQuestion},
		{"Any common mistakes?", schema.PatternQuestion},
		{"Who wrote the parser?", schema.CollaborationQuestion},
		{"Summarize the repository", schema.GeneralQuestion},
		// Earlier kinds win when several match.
		{"Who made changes like this one?", schema.SemanticQuestion},
		{"WHO IS THE TOP AUTHOR", schema.CollaborationQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.question))
		})
	}
	assert.Equal(t, 5, contextLimit(schema.GeneralQuestion))
	assert.Equal(t, 10, contextLimit(schema.ImpactQuestion))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestCommitText(t *testing.T) {
	text := CommitText(schema.CommitRecord{Message: "fix: null check\n\nlong body", Classification: schema.BugfixClass})
	assert.True(t, strings.HasPrefix(text, "fix: null check bugfix fix repair fix: null check"))

	long := CommitText(schema.CommitRecord{Message: strings.Repeat("é", 900), Classification: schema.OtherClass})
	assert.Equal(t, MaxEmbedRunes, len([]rune(long)))
}

func TestIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{}
	store := newMemoryEmbeddings()
	ix := NewIndex(embedder, &fakeCompleter{}, NewSQLVectorStore(store), 0.3, 0)

	require.NoError(t, ix.Index(ctx, repo, sampleRecords()))
	stored, err := store.LoadEmbeddings(ctx, repo)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "keywords", stored[0].Model)

	hits, err := ix.Search(ctx, repo, "login", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "aaaa1111", hits[0].Commit.Hash, "ties keep storage order")
	assert.Equal(t, "bbbb2222", hits[1].Commit.Hash)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	hits, err = ix.Search(ctx, repo, "login", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = ix.Search(ctx, repo, "unrelated words", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Search(ctx, "https://github.com/acme/other.git", "login", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexReplacesPreviousVectors(t *testing.T) {
	ctx := context.Background()
	store := newMemoryEmbeddings()
	ix := NewIndex(&keywordEmbedder{}, &fakeCompleter{}, NewSQLVectorStore(store), 0.3, 10)

	require.NoError(t, ix.Index(ctx, repo, sampleRecords()))
	require.NoError(t, ix.Index(ctx, repo, sampleRecords()[2:]))

	hits, err := ix.Search(ctx, repo, "login", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexBatchesEmbedCalls(t *testing.T) {
	records := make([]schema.CommitRecord, embedBatch+5)
	for i := range records {
		records[i] = schema.CommitRecord{Hash: "h", Message: "test change", Classification: schema.TestClass}
	}
	embedder := &keywordEmbedder{}
	ix := NewIndex(embedder, &fakeCompleter{}, NewSQLVectorStore(newMemoryEmbeddings()), 0.3, 10)

	require.NoError(t, ix.Index(context.Background(), repo, records))
	require.Len(t, embedder.calls, 2)
	assert.Len(t, embedder.calls[0], embedBatch)
	assert.Len(t, embedder.calls[1], 5)
}

func TestSemanticFailuresAreMarked(t *testing.T) {
	ctx := context.Background()
	failing := &keywordEmbedder{err: errors.New("connection refused")}
	ix := NewIndex(failing, &fakeCompleter{}, NewSQLVectorStore(newMemoryEmbeddings()), 0.3, 10)

	err := ix.Index(ctx, repo, sampleRecords())
	assert.True(t, errors.Is(err, contract.ErrSemantic))

	_, err = ix.Search(ctx, repo, "login", 0)
	assert.True(t, errors.Is(err, contract.ErrSemantic))

	_, err = ix.Search(ctx, repo, "   ", 0)
	assert.True(t, errors.Is(err, contract.ErrSemantic))

	store := &contract.MockEmbeddingStore{}
	store.On("ReplaceEmbeddings", mock.Anything, repo, mock.Anything).Return(errors.New("disk full"))
	ix = NewIndex(&keywordEmbedder{}, &fakeCompleter{}, NewSQLVectorStore(store), 0.3, 10)
	err = ix.Index(ctx, repo, sampleRecords())
	assert.True(t, errors.Is(err, contract.ErrSemantic))
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "Alice built login in aaaa1111."}
	ix := NewIndex(&keywordEmbedder{}, completer, NewSQLVectorStore(newMemoryEmbeddings()), 0.3, 10)
	require.NoError(t, ix.Index(ctx, repo, sampleRecords()))

	answer, err := ix.Answer(ctx, repo, "Who worked on login?")
	require.NoError(t, err)
	assert.Equal(t, schema.CollaborationQuestion, answer.Kind)
	assert.Equal(t, "Alice built login in aaaa1111.", answer.Text)
	assert.Len(t, answer.Hits, 2)
	assert.Contains(t, completer.prompt, "Who worked on login?")
	assert.Contains(t, completer.prompt, "aaaa1111")
	assert.Contains(t, completer.prompt, focus[schema.CollaborationQuestion])
	assert.Equal(t, systemPrompt, completer.system)
}

func TestAnswerWithoutHitsSkipsCompletion(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be used"}
	ix := NewIndex(&keywordEmbedder{}, completer, NewSQLVectorStore(newMemoryEmbeddings()), 0.3, 10)

	answer, err := ix.Answer(context.Background(), repo, "Summarize everything")
	require.NoError(t, err)
	assert.Equal(t, schema.GeneralQuestion, answer.Kind)
	assert.Empty(t, answer.Hits)
	assert.NotEmpty(t, answer.Text)
	assert.Empty(t, completer.prompt)
}

func TestAnswerCompletionFailure(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex(&keywordEmbedder{}, &fakeCompleter{err: errors.New("model not found")}, NewSQLVectorStore(newMemoryEmbeddings()), 0.3, 10)
	require.NoError(t, ix.Index(ctx, repo, sampleRecords()))

	_, err := ix.Answer(ctx, repo, "what about login")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrSemantic))
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[1,0.5,-2]", vectorLiteral([]float32{1, 0.5, -2}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}

func TestBuild(t *testing.T) {
	cfg := contract.DefaultConfig().Semantic
	built, err := Build(cfg, newMemoryEmbeddings())
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, built.embedder)
	assert.IsType(t, &OllamaClient{}, built.completer)
	assert.Equal(t, contract.DefaultSearchLimit, built.limit)
	assert.NoError(t, built.Close())

	cfg.EmbedProvider = schema.GeminiProvider
	cfg.GeminiAPIKey = "key"
	built, err = Build(cfg, newMemoryEmbeddings())
	require.NoError(t, err)
	gemini, ok := built.embedder.(*GeminiClient)
	require.True(t, ok)
	assert.Equal(t, contract.DefaultGeminiEmbed, gemini.Model())
	assert.IsType(t, &OllamaClient{}, built.completer)

	_, err = Build(contract.DefaultConfig().Semantic, nil)
	assert.Error(t, err)

	cfg = contract.DefaultConfig().Semantic
	cfg.RedisURL = "not a url"
	_, err = Build(cfg, newMemoryEmbeddings())
	assert.Error(t, err)
}
