package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"github.com/olekukonko/tablewriter"
)

// DateTimeFormat is how stored timestamps are shown in tables and CSV.
const DateTimeFormat = "2006-01-02 15:04:05"

// WriteAnalysisRecords outputs stored analysis summaries, newest first.
func WriteAnalysisRecords(records []schema.AnalysisRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if records == nil {
				records = []schema.AnalysisRecord{}
			}
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"id", "repo_url", "repo_name", "total_commits", "created_at"}, func(cw *csv.Writer) error {
				for _, r := range records {
					rec := []string{
						strconv.FormatInt(r.ID, 10),
						r.RepoURL,
						r.RepoName,
						strconv.Itoa(r.TotalCommits),
						r.CreatedAt.UTC().Format(time.RFC3339),
					}
					if err := cw.Write(rec); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for listings; use 'store export'")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisRecordsTable(w, records, cfg)
		}, "Wrote table")
	}
}

func writeAnalysisRecordsTable(w io.Writer, records []schema.AnalysisRecord, cfg *contract.Config) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No analyses stored yet. Run 'repolens analyze <url>' first.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Repository", "Commits", "Created"})
	urlWidth := GetMaxPathWidth(cfg)
	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			r.RepoName,
			contract.TruncateText(r.RepoURL, urlWidth),
			strconv.Itoa(r.TotalCommits),
			r.CreatedAt.Local().Format(DateTimeFormat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d analyses\n", len(records))
	return err
}

// WriteStatus outputs store status information.
func WriteStatus(status schema.StoreStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "value"}, func(cw *csv.Writer) error {
				for _, row := range statusRows(status) {
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusTable(w, status)
		}, "Wrote table")
	}
}

// statusRows flattens the status into ordered key/value pairs.
func statusRows(status schema.StoreStatus) [][]string {
	rows := [][]string{
		{"backend", status.Backend},
		{"connected", strconv.FormatBool(status.Connected)},
		{"total_analyses", strconv.Itoa(status.TotalAnalyses)},
		{"distinct_repos", strconv.Itoa(status.DistinctRepos)},
		{"total_embeddings", strconv.Itoa(status.TotalEmbeddings)},
	}
	if status.TotalAnalyses > 0 {
		rows = append(rows,
			[]string{"last_analysis_id", strconv.FormatInt(status.LastAnalysisID, 10)},
			[]string{"last_analysis_time", status.LastAnalysisTime.UTC().Format(time.RFC3339)},
			[]string{"oldest_time", status.OldestTime.UTC().Format(time.RFC3339)},
		)
	}
	tables := make([]string, 0, len(status.TableSizes))
	for name := range status.TableSizes {
		tables = append(tables, name)
	}
	slices.Sort(tables)
	for _, name := range tables {
		rows = append(rows, []string{"table_rows:" + name, strconv.FormatInt(status.TableSizes[name], 10)})
	}
	return rows
}

func writeStatusTable(w io.Writer, status schema.StoreStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Property", "Value"})
	if err := table.Bulk(statusRows(status)); err != nil {
		return err
	}
	return table.Render()
}
