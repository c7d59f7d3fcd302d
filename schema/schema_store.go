package schema

import "time"

// AnalysisRecord is a row of the analyses table without its payload.
type AnalysisRecord struct {
	ID           int64     `json:"id"`
	RepoURL      string    `json:"repo_url"`
	RepoName     string    `json:"repo_name"`
	TotalCommits int       `json:"total_commits"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnalysisExportRecord is a full row of the analyses table, payload included.
type AnalysisExportRecord struct {
	ID           int64
	RepoURL      string
	RepoName     string
	TotalCommits int32
	CreatedAt    time.Time
	AnalysisData string // JSON encoded AnalysisResult
}

// CommitEmbedding is a commit record paired with its embedding vector.
type CommitEmbedding struct {
	RepoURL string
	Commit  CommitRecord
	Model   string
	Vector  []float32
}
