//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/repolens/internal/semantic"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// countingEmbedder maps each text to a fixed vector and counts calls.
type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Model() string { return "counting" }

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestPGVectorStore(t *testing.T) {
	ctx := context.Background()
	store, err := semantic.NewPGVectorStore(startPostgres(t, "pgvector/pgvector:pg17"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	url := "https://github.com/acme/widgets.git"
	items := []schema.CommitEmbedding{
		{RepoURL: url, Model: "test", Commit: schema.CommitRecord{Hash: "aaa", Message: "feat: login"}, Vector: []float32{1, 0, 0}},
		{RepoURL: url, Model: "test", Commit: schema.CommitRecord{Hash: "bbb", Message: "docs: readme"}, Vector: []float32{0, 1, 0}},
		{RepoURL: url, Model: "test", Commit: schema.CommitRecord{Hash: "ccc", Message: "fix: login"}, Vector: []float32{0.9, 0.1, 0}},
	}
	require.NoError(t, store.Replace(ctx, url, items))

	hits, err := store.Search(ctx, url, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "aaa", hits[0].Commit.Hash)
	assert.Equal(t, "ccc", hits[1].Commit.Hash)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	// Replace drops the previous vectors of the repository.
	require.NoError(t, store.Replace(ctx, url, items[1:2]))
	hits, err = store.Search(ctx, url, []float32{0, 1, 0}, 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bbb", hits[0].Commit.Hash)
}

func TestRedisEmbeddingCache(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	next := &countingEmbedder{}
	cache, err := semantic.NewRedisCache(next, fmt.Sprintf("redis://%s:%s/0", host, port), time.Minute)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	first, err := cache.Embed(ctx, []string{"feat: login", "docs: readme"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)

	second, err := cache.Embed(ctx, []string{"docs: readme", "feat: login"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "cached vectors should not be embedded again")
	assert.Equal(t, first[0], second[1])
	assert.Equal(t, first[1], second[0])

	_, err = cache.Embed(ctx, []string{"feat: login", "test: new case"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
