// Package parquet provides data structures and functions for exporting repolens
// analysis data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/repolens/schema"
	"github.com/parquet-go/parquet-go"
)

// Analysis represents one stored analysis.
// This struct maps to the repolens_analyses database table.
type Analysis struct {
	// AnalysisID is the identifier assigned by the store
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RepoURL is the URL the repository was cloned from
	RepoURL string `parquet:"repo_url,snappy"`

	// RepoName is the display name derived from the URL
	RepoName string `parquet:"repo_name,snappy"`

	// TotalCommits is the number of commits the analysis traversed
	TotalCommits int32 `parquet:"total_commits,snappy"`

	// CreatedAt is when the analysis was stored (TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`

	// AnalysisData is the JSON-encoded analysis result
	AnalysisData string `parquet:"analysis_data,snappy"`
}

// Commit represents one analyzed commit.
type Commit struct {
	Hash           string `parquet:"hash,snappy"`
	AuthorName     string `parquet:"author_name,snappy"`
	AuthorEmail    string `parquet:"author_email,snappy"`
	Timestamp      string `parquet:"timestamp,snappy"`
	Classification string `parquet:"classification,snappy"`
	FilesChanged   int32  `parquet:"files_changed,snappy"`
	Insertions     int32  `parquet:"insertions,snappy"`
	Deletions      int32  `parquet:"deletions,snappy"`
	Message        string `parquet:"message,snappy"`
}

// Contributor represents the rollup for one author name.
type Contributor struct {
	Name         string `parquet:"name,snappy"`
	Commits      int32  `parquet:"commits,snappy"`
	Insertions   int32  `parquet:"insertions,snappy"`
	Deletions    int32  `parquet:"deletions,snappy"`
	FilesChanged int32  `parquet:"files_changed,snappy"`
}

// writeParquet writes rows to outputPath with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return nil
}

// WriteAnalysesParquet writes stored analyses to a Parquet file.
func WriteAnalysesParquet(data []Analysis, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCommitsParquet writes analyzed commits to a Parquet file.
func WriteCommitsParquet(data []Commit, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteContributorsParquet writes contributor rollups to a Parquet file.
func WriteContributorsParquet(data []Contributor, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAnalysisRecords converts schema.AnalysisExportRecord to Analysis for Parquet export.
func ConvertAnalysisRecords(records []schema.AnalysisExportRecord) []Analysis {
	result := make([]Analysis, len(records))
	for i, record := range records {
		result[i] = Analysis{
			AnalysisID:   record.ID,
			RepoURL:      record.RepoURL,
			RepoName:     record.RepoName,
			TotalCommits: record.TotalCommits,
			CreatedAt:    record.CreatedAt,
			AnalysisData: record.AnalysisData,
		}
	}
	return result
}

// ConvertCommitRecords converts schema.CommitRecord to Commit for Parquet export.
func ConvertCommitRecords(records []schema.CommitRecord) []Commit {
	result := make([]Commit, len(records))
	for i, record := range records {
		result[i] = Commit{
			Hash:           record.Hash,
			AuthorName:     record.AuthorName,
			AuthorEmail:    record.AuthorEmail,
			Timestamp:      record.Timestamp,
			Classification: string(record.Classification),
			FilesChanged:   int32(record.FilesChanged),
			Insertions:     int32(record.Insertions),
			Deletions:      int32(record.Deletions),
			Message:        record.Message,
		}
	}
	return result
}

// ConvertContributorStats converts schema.ContributorStats to Contributor for Parquet export.
func ConvertContributorStats(stats []schema.ContributorStats) []Contributor {
	result := make([]Contributor, len(stats))
	for i, s := range stats {
		result[i] = Contributor{
			Name:         s.Name,
			Commits:      int32(s.Commits),
			Insertions:   int32(s.Insertions),
			Deletions:    int32(s.Deletions),
			FilesChanged: int32(s.FilesChanged),
		}
	}
	return result
}
