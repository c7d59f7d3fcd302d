package contract

import (
	"context"

	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/mock"
)

// MockRepositoryAccess is a mock implementation of RepositoryAccess for testing.
type MockRepositoryAccess struct {
	mock.Mock
}

var _ RepositoryAccess = &MockRepositoryAccess{} // Compile-time check

// Clone implements the RepositoryAccess interface.
func (m *MockRepositoryAccess) Clone(ctx context.Context, url, destPath string) (RepositoryHandle, error) {
	args := m.Called(ctx, url, destPath)
	handle, _ := args.Get(0).(RepositoryHandle)
	return handle, args.Error(1)
}

// MockRepositoryHandle is a mock implementation of RepositoryHandle for testing.
type MockRepositoryHandle struct {
	mock.Mock
}

var _ RepositoryHandle = &MockRepositoryHandle{} // Compile-time check

// Commits implements the RepositoryHandle interface.
func (m *MockRepositoryHandle) Commits(ctx context.Context, maxCount int) ([]schema.RawCommit, error) {
	args := m.Called(ctx, maxCount)
	commits, _ := args.Get(0).([]schema.RawCommit)
	return commits, args.Error(1)
}

// FileTree implements the RepositoryHandle interface.
func (m *MockRepositoryHandle) FileTree(ctx context.Context) ([]schema.FileEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]schema.FileEntry)
	return entries, args.Error(1)
}

// HeadHash implements the RepositoryHandle interface.
func (m *MockRepositoryHandle) HeadHash(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockAnalysisStore is a mock implementation of AnalysisStore for testing.
type MockAnalysisStore struct {
	mock.Mock
}

var _ AnalysisStore = &MockAnalysisStore{} // Compile-time check

// Store implements the AnalysisStore interface.
func (m *MockAnalysisStore) Store(ctx context.Context, repoURL string, result *schema.AnalysisResult) (int64, error) {
	args := m.Called(ctx, repoURL, result)
	return args.Get(0).(int64), args.Error(1)
}

// Retrieve implements the AnalysisStore interface.
func (m *MockAnalysisStore) Retrieve(ctx context.Context, id int64) (*schema.AnalysisResult, error) {
	args := m.Called(ctx, id)
	result, _ := args.Get(0).(*schema.AnalysisResult)
	return result, args.Error(1)
}

// Latest implements the AnalysisStore interface.
func (m *MockAnalysisStore) Latest(ctx context.Context, repoURL string) (int64, *schema.AnalysisResult, error) {
	args := m.Called(ctx, repoURL)
	result, _ := args.Get(1).(*schema.AnalysisResult)
	return args.Get(0).(int64), result, args.Error(2)
}

// List implements the AnalysisStore interface.
func (m *MockAnalysisStore) List(ctx context.Context, limit int) ([]schema.AnalysisRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]schema.AnalysisRecord)
	return records, args.Error(1)
}

// Delete implements the AnalysisStore interface.
func (m *MockAnalysisStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// GetStatus implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the AnalysisStore interface.
func (m *MockAnalysisStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEmbeddingStore is a mock implementation of EmbeddingStore for testing.
type MockEmbeddingStore struct {
	mock.Mock
}

var _ EmbeddingStore = &MockEmbeddingStore{} // Compile-time check

// ReplaceEmbeddings implements the EmbeddingStore interface.
func (m *MockEmbeddingStore) ReplaceEmbeddings(ctx context.Context, repoURL string, items []schema.CommitEmbedding) error {
	args := m.Called(ctx, repoURL, items)
	return args.Error(0)
}

// LoadEmbeddings implements the EmbeddingStore interface.
func (m *MockEmbeddingStore) LoadEmbeddings(ctx context.Context, repoURL string) ([]schema.CommitEmbedding, error) {
	args := m.Called(ctx, repoURL)
	items, _ := args.Get(0).([]schema.CommitEmbedding)
	return items, args.Error(1)
}

// Close implements the EmbeddingStore interface.
func (m *MockEmbeddingStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSemanticIndex is a mock implementation of SemanticIndex for testing.
type MockSemanticIndex struct {
	mock.Mock
}

var _ SemanticIndex = &MockSemanticIndex{} // Compile-time check

// Index implements the SemanticIndex interface.
func (m *MockSemanticIndex) Index(ctx context.Context, repoURL string, records []schema.CommitRecord) error {
	args := m.Called(ctx, repoURL, records)
	return args.Error(0)
}

// Search implements the SemanticIndex interface.
func (m *MockSemanticIndex) Search(ctx context.Context, repoURL, query string, limit int) ([]schema.SearchHit, error) {
	args := m.Called(ctx, repoURL, query, limit)
	hits, _ := args.Get(0).([]schema.SearchHit)
	return hits, args.Error(1)
}

// Answer implements the SemanticIndex interface.
func (m *MockSemanticIndex) Answer(ctx context.Context, repoURL, question string) (*schema.Answer, error) {
	args := m.Called(ctx, repoURL, question)
	answer, _ := args.Get(0).(*schema.Answer)
	return answer, args.Error(1)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetAnalysisStore implements the StoreManager interface.
func (m *MockStoreManager) GetAnalysisStore() AnalysisStore {
	ret := m.Called()
	store, _ := ret.Get(0).(AnalysisStore)
	return store
}

// GetEmbeddingStore implements the StoreManager interface.
func (m *MockStoreManager) GetEmbeddingStore() EmbeddingStore {
	ret := m.Called()
	store, _ := ret.Get(0).(EmbeddingStore)
	return store
}
