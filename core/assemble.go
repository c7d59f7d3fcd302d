package core

import (
	"strings"
	"time"

	"github.com/huangsam/repolens/core/agg"
	"github.com/huangsam/repolens/schema"
)

// AssembleInput carries every piece an AnalysisResult is built from.
type AssembleInput struct {
	RepoURL        string
	HeadHash       string
	AnalyzedAt     time.Time
	Records        []schema.CommitRecord
	Files          []schema.FileEntry
	Structure      schema.FileStructure
	FilesTruncated bool
	// HistoryTruncated is set when the repository holds more than Caps.MaxCommits commits.
	HistoryTruncated bool
	Aggregates       *agg.Output
	Caps             Caps
}

// Assemble builds the result of one analysis. The commit list is cut to the display cap
// while the totals and aggregates keep counting every extracted record. The full
// contributor list is kept; its display cap is applied by renderers.
func Assemble(in AssembleInput) *schema.AnalysisResult {
	commits := in.Records
	commitsTruncated := false
	if in.Caps.CommitDisplayCap >= 0 && len(commits) > in.Caps.CommitDisplayCap {
		commits = commits[:in.Caps.CommitDisplayCap]
		commitsTruncated = true
	}
	// Own the slices so later edits to the inputs never leak into the result.
	commits = append(make([]schema.CommitRecord, 0, len(commits)), commits...)
	files := append(make([]schema.FileEntry, 0, len(in.Files)), in.Files...)

	return &schema.AnalysisResult{
		Repository: schema.RepositoryInfo{
			URL:          in.RepoURL,
			Name:         RepoName(in.RepoURL),
			TotalCommits: len(in.Records),
			AnalyzedAt:   in.AnalyzedAt.Format(time.RFC3339),
			HeadHash:     in.HeadHash,
		},
		Commits:      commits,
		Contributors: in.Aggregates.Contributors,
		Files:        files,
		Structure:    in.Structure,
		Timeline:     in.Aggregates.Timeline,
		Insights:     in.Aggregates.Insights,
		Limits: schema.Limits{
			MaxCommits:            in.Caps.MaxCommits,
			MaxFilesListed:        in.Caps.MaxFilesListed,
			CommitDisplayCap:      in.Caps.CommitDisplayCap,
			ContributorDisplayCap: in.Caps.ContributorDisplayCap,
			CommitCapReached:      in.HistoryTruncated,
			CommitsTruncated:      commitsTruncated,
			FilesTruncated:        in.FilesTruncated,
		},
	}
}

// RepoName derives a display name from the last path segment of a repository URL,
// without any ".git" suffix. scp-style addresses such as git@host:owner/repo.git work too.
func RepoName(repoURL string) string {
	name := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		return repoURL
	}
	return name
}
