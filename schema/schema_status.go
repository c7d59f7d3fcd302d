package schema

import "time"

// StoreStatus represents the status of the analysis store.
type StoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalAnalyses    int              `json:"total_analyses"`
	LastAnalysisID   int64            `json:"last_analysis_id"`
	LastAnalysisTime time.Time        `json:"last_analysis_time"`
	OldestTime       time.Time        `json:"oldest_time"`
	DistinctRepos    int              `json:"distinct_repos"`
	TotalEmbeddings  int              `json:"total_embeddings"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}
