package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/parquet"
	"github.com/huangsam/repolens/schema"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a plain config that writes to a file under the test's temp dir.
func testConfig(t *testing.T, mode schema.OutputMode, name string) *contract.Config {
	t.Helper()
	cfg := contract.DefaultConfig()
	cfg.Output = mode
	cfg.UseColors = false
	cfg.Width = 120
	cfg.OutputFile = filepath.Join(t.TempDir(), name)
	return cfg
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

func sampleAnalysis() *schema.AnalysisResult {
	return &schema.AnalysisResult{
		Repository: schema.RepositoryInfo{
			URL:          "https://github.com/acme/widgets.git",
			Name:         "widgets",
			TotalCommits: 3,
			AnalyzedAt:   "2024-03-01T12:00:00Z",
			HeadHash:     "aaaaaaaa11111111aaaaaaaa11111111aaaaaaaa",
		},
		Commits: []schema.CommitRecord{
			{Hash: "aaaaaaaa11111111aaaaaaaa11111111aaaaaaaa", Message: "feat: add widget API\n\nDetails here.", AuthorName: "Alice", AuthorEmail: "alice@example.com", Timestamp: "2024-02-29T10:00:00+01:00", Classification: schema.FeatureClass, FilesChanged: 2, Insertions: 40, Deletions: 3},
			{Hash: "bbbbbbbb22222222bbbbbbbb22222222bbbbbbbb", Message: "fix: handle nil widget", AuthorName: "Bob", AuthorEmail: "bob@example.com", Timestamp: "2024-02-28T09:00:00Z", Classification: schema.BugfixClass, FilesChanged: 1, Insertions: 2, Deletions: 1},
		},
		Contributors: []schema.ContributorStats{
			{Name: "Alice", Commits: 2, Insertions: 45, Deletions: 3, FilesChanged: 3},
			{Name: "Bob", Commits: 1, Insertions: 2, Deletions: 1, FilesChanged: 1},
		},
		Files: []schema.FileEntry{{Path: "main.go", Extension: ".go", Size: 120}},
		Structure: schema.FileStructure{
			TotalFiles:      1,
			TotalBytes:      120,
			ByLanguage:      map[string]int{"Go": 1},
			ByExtension:     map[string]int{".go": 1},
			Directories:     map[string]int{},
			PackageManagers: []string{"go"},
		},
		Timeline: schema.TimelineSeries{"2024-02-28": 1, "2024-02-29": 2},
		Insights: schema.InsightSummary{
			MostActiveContributor: "Alice",
			MostCommonCommitType:  schema.FeatureClass,
			AvgFilesPerCommit:     1.5,
			TotalContributors:     2,
			CommitTypes:           map[schema.Classification]int{schema.FeatureClass: 2, schema.BugfixClass: 1},
		},
		Limits: schema.Limits{
			MaxCommits:            3,
			MaxFilesListed:        100,
			CommitDisplayCap:      2,
			ContributorDisplayCap: 1,
			CommitCapReached:      true,
			CommitsTruncated:      true,
		},
	}
}

func TestWriteAnalysisText(t *testing.T) {
	cfg := testConfig(t, schema.TextOut, "report.txt")
	require.NoError(t, NewOutWriter().WriteAnalysis(7, sampleAnalysis(), cfg))
	out := readOutput(t, cfg)

	assert.Contains(t, out, "widgets (https://github.com/acme/widgets.git)")
	assert.Contains(t, out, "Analysis ID: 7")
	assert.Contains(t, out, "HEAD aaaaaaaa")
	assert.Contains(t, out, "limit of 3 reached")
	assert.Contains(t, out, "feat: add widget API")
	assert.NotContains(t, out, "Details here.")
	assert.Contains(t, out, "Showing 2 of 3 commits (display limit 2)")
	// Contributor display cap of 1 hides Bob from the contributor table only.
	assert.Contains(t, out, "Showing 1 of 2 contributors")
	assert.Contains(t, out, "2024-02-29")
	assert.Contains(t, out, "Package managers: go")
}

func TestWriteAnalysisTextEmpty(t *testing.T) {
	cfg := testConfig(t, schema.TextOut, "empty.txt")
	result := &schema.AnalysisResult{
		Repository: schema.RepositoryInfo{URL: "https://example.com/empty.git", Name: "empty"},
		Insights: schema.InsightSummary{
			MostActiveContributor: schema.UnknownContributor,
			MostCommonCommitType:  schema.UnknownClassification,
			CommitTypes:           map[schema.Classification]int{},
		},
		Timeline: schema.TimelineSeries{},
	}
	require.NoError(t, WriteAnalysisResult(0, result, cfg))
	out := readOutput(t, cfg)
	assert.NotContains(t, out, "Analysis ID")
	assert.Contains(t, out, "No commits found.")
	assert.Contains(t, out, "No contributors found.")
	assert.Contains(t, out, "No tracked files found.")
}

func TestWriteAnalysisJSONKeepsEveryContributor(t *testing.T) {
	cfg := testConfig(t, schema.JSONOut, "report.json")
	require.NoError(t, WriteAnalysisResult(7, sampleAnalysis(), cfg))

	var decoded struct {
		AnalysisID int64 `json:"analysis_id"`
		schema.AnalysisResult
	}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
	assert.Equal(t, int64(7), decoded.AnalysisID)
	assert.Len(t, decoded.Contributors, 2)
	assert.Equal(t, sampleAnalysis().Commits, decoded.Commits)
	assert.Equal(t, 2, decoded.Timeline["2024-02-29"])
}

func TestWriteAnalysisCSV(t *testing.T) {
	cfg := testConfig(t, schema.CSVOut, "report.csv")
	require.NoError(t, WriteAnalysisResult(0, sampleAnalysis(), cfg))

	rows, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "hash", rows[0][0])
	assert.Equal(t, "bugfix", rows[2][4])
	assert.Equal(t, "feat: add widget API\n\nDetails here.", rows[1][8])
}

func TestWriteAnalysisParquet(t *testing.T) {
	cfg := testConfig(t, schema.ParquetOut, "report.parquet")
	require.NoError(t, WriteAnalysisResult(0, sampleAnalysis(), cfg))

	commitsPath, contributorsPath := parquetPaths(cfg.OutputFile)
	assert.True(t, strings.HasSuffix(commitsPath, "report_commits.parquet"))

	commits, err := pq.ReadFile[parquet.Commit](commitsPath)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "Alice", commits[0].AuthorName)

	contributors, err := pq.ReadFile[parquet.Contributor](contributorsPath)
	require.NoError(t, err)
	assert.Len(t, contributors, 2)
}

func TestWriteAnalysisParquetNeedsFile(t *testing.T) {
	cfg := testConfig(t, schema.ParquetOut, "")
	cfg.OutputFile = ""
	err := WriteAnalysisResult(0, sampleAnalysis(), cfg)
	assert.ErrorContains(t, err, "--output-file")
}

func TestWriteAnalysisNil(t *testing.T) {
	assert.Error(t, WriteAnalysisResult(0, nil, contract.DefaultConfig()))
}

func TestSortedCounts(t *testing.T) {
	got := sortedCounts(map[string]int{"Go": 3, "Python": 3, "Shell": 5})
	assert.Equal(t, []countEntry{{"Shell", 5}, {"Go", 3}, {"Python", 3}}, got)
}
