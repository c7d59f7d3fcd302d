// Package iocache persists analyses and commit embeddings in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/repolens/internal/contract"
)

// StoreManager manages the analysis and embedding stores of one process.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	analysis     contract.AnalysisStore
	embeddings   contract.EmbeddingStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetAnalysisStore returns the AnalysisStore.
func (mgr *StoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}

// GetEmbeddingStore returns the EmbeddingStore.
func (mgr *StoreManager) GetEmbeddingStore() contract.EmbeddingStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.embeddings
}
