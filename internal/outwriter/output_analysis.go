package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/parquet"
	"github.com/huangsam/repolens/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	maxTimelineBar    = 30 // Widest bar in the timeline table
	maxLanguagesShown = 10
)

// WriteAnalysisResult outputs one analysis, dispatching based on the output format configured.
func WriteAnalysisResult(id int64, result *schema.AnalysisResult, cfg *contract.Config) error {
	if result == nil {
		return fmt.Errorf("no analysis result to write")
	}
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisJSON(w, id, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, result, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeAnalysisParquet(result, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisText(w, id, result, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
	return nil
}

// writeAnalysisJSON writes the full result. JSON consumers get every contributor;
// the contributor display cap only applies to human-facing output.
func writeAnalysisJSON(w io.Writer, id int64, result *schema.AnalysisResult) error {
	type JSONAnalysis struct {
		AnalysisID int64 `json:"analysis_id,omitempty"`
		*schema.AnalysisResult
	}
	return writeJSON(w, JSONAnalysis{AnalysisID: id, AnalysisResult: result})
}

// writeAnalysisCSV writes one row per exposed commit.
func writeAnalysisCSV(w io.Writer, result *schema.AnalysisResult, intFmt string) error {
	header := []string{
		"hash",
		"timestamp",
		"author_name",
		"author_email",
		"classification",
		"files_changed",
		"insertions",
		"deletions",
		"message",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range result.Commits {
			rec := []string{
				c.Hash,
				c.Timestamp,
				c.AuthorName,
				c.AuthorEmail,
				string(c.Classification),
				fmt.Sprintf(intFmt, c.FilesChanged),
				fmt.Sprintf(intFmt, c.Insertions),
				fmt.Sprintf(intFmt, c.Deletions),
				c.Message,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// parquetPaths derives the commit and contributor file names from the output file.
func parquetPaths(outputFile string) (commitsPath, contributorsPath string) {
	base := strings.TrimSuffix(outputFile, filepath.Ext(outputFile))
	return base + "_commits.parquet", base + "_contributors.parquet"
}

// writeAnalysisParquet writes the exposed commits and every contributor as two Parquet files.
func writeAnalysisParquet(result *schema.AnalysisResult, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	commitsPath, contributorsPath := parquetPaths(outputFile)
	if err := parquet.WriteCommitsParquet(parquet.ConvertCommitRecords(result.Commits), commitsPath); err != nil {
		return err
	}
	if err := parquet.WriteContributorsParquet(parquet.ConvertContributorStats(result.Contributors), contributorsPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s and %s\n", commitsPath, contributorsPath)
	return nil
}

// writeAnalysisText generates and writes the human-readable report.
func writeAnalysisText(w io.Writer, id int64, result *schema.AnalysisResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	if err := writeRepositoryHeader(w, id, result, cfg, fmtFloat); err != nil {
		return err
	}
	if err := writeCommitTable(w, result, cfg, intFmt); err != nil {
		return err
	}
	if err := writeContributorTable(w, result, cfg, intFmt); err != nil {
		return err
	}
	if err := writeCommitTypeTable(w, result, cfg, fmtFloat, intFmt); err != nil {
		return err
	}
	if err := writeTimelineTable(w, result, cfg, intFmt); err != nil {
		return err
	}
	return writeStructureTable(w, result, cfg, intFmt)
}

func writeRepositoryHeader(w io.Writer, id int64, result *schema.AnalysisResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	repo := result.Repository
	lines := []string{fmt.Sprintf("📦 %s (%s)", repo.Name, repo.URL)}
	if id > 0 {
		lines = append(lines, fmt.Sprintf("Analysis ID: %d", id))
	}
	analyzed := "Analyzed at: " + repo.AnalyzedAt
	if repo.HeadHash != "" {
		analyzed += ", HEAD " + shortHash(repo.HeadHash)
	}
	lines = append(lines, analyzed)

	commits := fmt.Sprintf("Commits analyzed: %d", repo.TotalCommits)
	if result.Limits.CommitCapReached {
		commits += fmt.Sprintf(" (limit of %d reached; older history not read)", result.Limits.MaxCommits)
	}
	lines = append(lines, commits)

	ins := result.Insights
	lines = append(lines, fmt.Sprintf("Contributors: %d, most active: %s, most common type: %s, avg files/commit: %s",
		ins.TotalContributors, ins.MostActiveContributor, colorClass(ins.MostCommonCommitType, cfg.UseColors), fmtFloat(ins.AvgFilesPerCommit)))

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func writeCommitTable(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, intFmt string) error {
	if err := writeHeading(w, "Recent commits", cfg.UseColors); err != nil {
		return err
	}
	if len(result.Commits) == 0 {
		_, err := fmt.Fprintln(w, "No commits found.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Hash", "Date", "Author", "Type", "Files", "+/-", "Message"})

	msgWidth := GetMaxMessageWidth(cfg)
	var data [][]string
	for _, c := range result.Commits {
		data = append(data, []string{
			shortHash(c.Hash),
			c.Day(),
			authorCell(c.AuthorName),
			colorClass(c.Classification, cfg.UseColors),
			fmt.Sprintf(intFmt, c.FilesChanged),
			fmt.Sprintf("+%d/-%d", c.Insertions, c.Deletions),
			oneLine(c.Message, msgWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	summary := fmt.Sprintf("Showing %d of %d commits", len(result.Commits), result.Repository.TotalCommits)
	if result.Limits.CommitsTruncated {
		summary += fmt.Sprintf(" (display limit %d)", result.Limits.CommitDisplayCap)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// contributorCap prefers the cap recorded in the result over the current config.
func contributorCap(result *schema.AnalysisResult, cfg *contract.Config) int {
	if result.Limits.ContributorDisplayCap > 0 {
		return result.Limits.ContributorDisplayCap
	}
	return cfg.ContributorDisplayCap
}

func writeContributorTable(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, intFmt string) error {
	if err := writeHeading(w, "Top contributors", cfg.UseColors); err != nil {
		return err
	}
	top := result.TopContributors(contributorCap(result, cfg))
	if len(top) == 0 {
		_, err := fmt.Fprintln(w, "No contributors found.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Name", "Commits", "Insertions", "Deletions", "Files"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for i, c := range top {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			c.Name,
			fmt.Sprintf(intFmt, c.Commits),
			fmt.Sprintf(intFmt, c.Insertions),
			fmt.Sprintf(intFmt, c.Deletions),
			fmt.Sprintf(intFmt, c.FilesChanged),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d of %d contributors\n", len(top), len(result.Contributors))
	return err
}

func writeCommitTypeTable(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	counts := result.Insights.CommitTypes
	if len(counts) == 0 {
		return nil
	}
	if err := writeHeading(w, "Commit types", cfg.UseColors); err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Type", "Commits", "Share %"})
	var data [][]string
	for _, class := range schema.AllClassifications {
		n, ok := counts[class]
		if !ok || n == 0 {
			continue
		}
		data = append(data, []string{
			colorClass(class, cfg.UseColors),
			fmt.Sprintf(intFmt, n),
			fmtFloat(100 * float64(n) / float64(total)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeTimelineTable(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, intFmt string) error {
	if len(result.Timeline) == 0 {
		return nil
	}
	if err := writeHeading(w, "Timeline", cfg.UseColors); err != nil {
		return err
	}
	days := make([]string, 0, len(result.Timeline))
	peak := 0
	for day, n := range result.Timeline {
		days = append(days, day)
		peak = max(peak, n)
	}
	slices.Sort(days)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Day", "Commits", "Activity"})
	var data [][]string
	for _, day := range days {
		n := result.Timeline[day]
		bar := max(1, n*maxTimelineBar/peak)
		data = append(data, []string{day, fmt.Sprintf(intFmt, n), strings.Repeat("█", bar)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// countEntry is one row of a count-by-key breakdown.
type countEntry struct {
	Key   string
	Count int
}

// sortedCounts orders a count map by count descending, then key ascending.
func sortedCounts(m map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, countEntry{Key: k, Count: v})
	}
	slices.SortFunc(entries, func(a, b countEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}

func writeStructureTable(w io.Writer, result *schema.AnalysisResult, cfg *contract.Config, intFmt string) error {
	st := result.Structure
	if err := writeHeading(w, "File structure", cfg.UseColors); err != nil {
		return err
	}
	if st.TotalFiles == 0 {
		_, err := fmt.Fprintln(w, "No tracked files found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Tracked files: %d (%d bytes)\n", st.TotalFiles, st.TotalBytes); err != nil {
		return err
	}
	if len(st.PackageManagers) > 0 {
		if _, err := fmt.Fprintf(w, "Package managers: %s\n", strings.Join(st.PackageManagers, ", ")); err != nil {
			return err
		}
	}

	languages := sortedCounts(st.ByLanguage)
	if len(languages) > maxLanguagesShown {
		languages = languages[:maxLanguagesShown]
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Language", "Files"})
	var data [][]string
	for _, e := range languages {
		data = append(data, []string{e.Key, fmt.Sprintf(intFmt, e.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if result.Limits.FilesTruncated {
		_, err := fmt.Fprintf(w, "File list limited to %d of %d files\n", len(result.Files), st.TotalFiles)
		return err
	}
	return nil
}
