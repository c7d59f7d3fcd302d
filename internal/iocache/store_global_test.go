package iocache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetManager gives each test a fresh global manager.
func resetManager(t *testing.T) {
	t.Helper()
	Manager = &StoreManager{}
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() { _ = CloseStores() })
}

func TestInitStoresSQLite(t *testing.T) {
	resetManager(t)
	dbPath := filepath.Join(t.TempDir(), "repolens.db")

	require.NoError(t, InitStores(schema.SQLiteBackend, dbPath))
	// Later calls are no-ops.
	require.NoError(t, InitStores(schema.MySQLBackend, "bogus"))

	require.NotNil(t, Manager.GetAnalysisStore())
	require.NotNil(t, Manager.GetEmbeddingStore())
	assert.FileExists(t, dbPath)

	ctx := context.Background()
	url := "https://github.com/acme/app.git"
	_, err := Manager.GetAnalysisStore().Store(ctx, url, sampleResult(url, "app", 1))
	require.NoError(t, err)
	require.NoError(t, Manager.GetEmbeddingStore().ReplaceEmbeddings(ctx, url, []schema.CommitEmbedding{embedding(url, "h1", 1, 0)}))

	status, err := Status(ctx, Manager)
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalAnalyses)
	assert.Equal(t, 1, status.TotalEmbeddings)
	assert.Equal(t, int64(1), status.TableSizes[embeddingsTable])

	assert.NoError(t, CloseStores())
	assert.NoError(t, CloseStores(), "closing twice is safe")
}

func TestInitStoresInvalidBackend(t *testing.T) {
	resetManager(t)
	err := InitStores(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Nil(t, Manager.GetAnalysisStore())
}

func TestStatusWithMocks(t *testing.T) {
	analysis := &contract.MockAnalysisStore{}
	analysis.On("GetStatus").Return(schema.StoreStatus{Backend: "mysql", Connected: true, TotalAnalyses: 3}, nil)
	mgr := &contract.MockStoreManager{}
	mgr.On("GetAnalysisStore").Return(analysis)
	mgr.On("GetEmbeddingStore").Return(&contract.MockEmbeddingStore{})

	status, err := Status(context.Background(), mgr)
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalAnalyses)
	assert.Zero(t, status.TotalEmbeddings)
}

func TestClearStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "repolens.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath))
	assert.NoFileExists(t, dbPath)

	// Missing files are fine.
	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath))
	require.NoError(t, ClearStore(schema.NoneBackend, ""))
	assert.Error(t, ClearStore(schema.DatabaseBackend("oracle"), ""))
}

func TestMigrateStore(t *testing.T) {
	_, err := MigrateStore(schema.NoneBackend, "", -1)
	require.Error(t, err)

	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	outcome, err := MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, uint(2), outcome.ToVersion)

	outcome, err = MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Contains(t, outcome.String(), "No migration needed")

	outcome, err = MigrateStore(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), outcome.ToVersion)

	_, err = MigrateStore(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)

	// Stores keep working on a migrated database.
	_, err = MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	analysis, embeddings, err := NewStores(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = analysis.Close() }()
	url := "https://github.com/acme/app.git"
	_, err = analysis.Store(context.Background(), url, sampleResult(url, "app", 1))
	require.NoError(t, err)
	require.NoError(t, embeddings.ReplaceEmbeddings(context.Background(), url, nil))
}

func TestExecuteStoreExport(t *testing.T) {
	ctx := context.Background()
	store := newTestAnalysisStore(t)
	dir := t.TempDir()

	_, err := ExecuteStoreExport(ctx, store, dir)
	require.Error(t, err, "empty store has nothing to export")

	url := "https://github.com/acme/app.git"
	_, err = store.Store(ctx, url, sampleResult(url, "app", 1))
	require.NoError(t, err)

	summary, err := ExecuteStoreExport(ctx, store, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Analyses)
	assert.Equal(t, "sqlite", summary.Backend)
	assert.FileExists(t, summary.Path)

	_, err = ExecuteStoreExport(ctx, store, "")
	assert.Error(t, err)
}
