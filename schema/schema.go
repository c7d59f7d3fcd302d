// Package schema has the models shared by every part of repolens.
package schema

import "time"

// FileStat holds the line counts one commit changed in a single file.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
}

// RawCommit is a commit as read from a repository, before normalization.
type RawCommit struct {
	Hash        string     // Full hex identifier
	Parents     []string   // Full parent identifiers
	AuthorName  string     // Verbatim author name
	AuthorEmail string     // Verbatim author email
	When        time.Time  // Commit time with its original offset
	Message     string     // Untrimmed message
	Files       []FileStat // Per-file stats; empty when unavailable
}

// CommitRecord is the normalized view of one traversed commit.
type CommitRecord struct {
	Hash           string         `json:"hash"`
	Message        string         `json:"message"`
	AuthorName     string         `json:"author_name"`
	AuthorEmail    string         `json:"author_email"`
	Timestamp      string         `json:"timestamp"` // RFC3339 with offset
	Classification Classification `json:"classification"`
	FilesChanged   int            `json:"files_changed"`
	Insertions     int            `json:"insertions"`
	Deletions      int            `json:"deletions"`
}

// Day returns the calendar day of the commit as YYYY-MM-DD, or "" when the
// timestamp is too short to carry one.
func (c CommitRecord) Day() string {
	if len(c.Timestamp) < len("2006-01-02") {
		return ""
	}
	return c.Timestamp[:len("2006-01-02")]
}

// ContributorStats is the rollup for one distinct author name.
type ContributorStats struct {
	Name         string `json:"name"`
	Commits      int    `json:"commits"`
	Insertions   int    `json:"insertions"`
	Deletions    int    `json:"deletions"`
	FilesChanged int    `json:"files_changed"`
}

// TimelineSeries maps a calendar day (YYYY-MM-DD) to the number of commits on it.
// Only days with at least one commit are present.
type TimelineSeries map[string]int

// InsightSummary holds single-value metrics derived from one analysis.
type InsightSummary struct {
	MostActiveContributor string                 `json:"most_active_contributor"`
	MostCommonCommitType  Classification         `json:"most_common_commit_type"`
	AvgFilesPerCommit     float64                `json:"avg_files_per_commit"`
	TotalContributors     int                    `json:"total_contributors"`
	CommitTypes           map[Classification]int `json:"commit_types"`
}

// FileEntry is one tracked file at HEAD.
type FileEntry struct {
	Path      string `json:"path"`
	Extension string `json:"extension"` // Includes the leading dot; empty when absent
	Size      int64  `json:"size"`
}

// FileStructure summarizes the full tracked tree, before any display cap.
type FileStructure struct {
	TotalFiles      int            `json:"total_files"`
	TotalBytes      int64          `json:"total_bytes"`
	ByLanguage      map[string]int `json:"by_language"`
	ByExtension     map[string]int `json:"by_extension"`
	Directories     map[string]int `json:"directories"` // Top-level directory to file count
	PackageManagers []string       `json:"package_managers"`
}

// Limits records the caps applied to one analysis. Every cap is lossy:
// commits beyond MaxCommits are never read, and display caps hide entries
// that still count toward the aggregates.
type Limits struct {
	MaxCommits            int  `json:"max_commits"`
	MaxFilesListed        int  `json:"max_files_listed"`
	CommitDisplayCap      int  `json:"commit_display_cap"`
	ContributorDisplayCap int  `json:"contributor_display_cap"`
	CommitCapReached      bool `json:"commit_cap_reached"` // History continues past MaxCommits
	CommitsTruncated      bool `json:"commits_truncated"`
	FilesTruncated        bool `json:"files_truncated"`
}

// RepositoryInfo identifies the analyzed repository.
type RepositoryInfo struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	TotalCommits int    `json:"total_commits"` // Commits analyzed, not commits shown
	AnalyzedAt   string `json:"analyzed_at"`   // RFC3339
	HeadHash     string `json:"head_hash,omitempty"`
}

// AnalysisResult is the aggregate root produced by one analysis run.
type AnalysisResult struct {
	Repository   RepositoryInfo     `json:"repository"`
	Commits      []CommitRecord     `json:"commits"`
	Contributors []ContributorStats `json:"contributors"`
	Files        []FileEntry        `json:"files"`
	Structure    FileStructure      `json:"structure"`
	Timeline     TimelineSeries     `json:"timeline"`
	Insights     InsightSummary     `json:"insights"`
	Limits       Limits             `json:"limits"`
}

// TopContributors returns at most n contributors from the already sorted list.
func (r *AnalysisResult) TopContributors(n int) []ContributorStats {
	if n <= 0 || n >= len(r.Contributors) {
		return r.Contributors
	}
	return r.Contributors[:n]
}
