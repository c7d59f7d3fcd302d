package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteSearchResults outputs ranked commits for a semantic query.
func WriteSearchResults(query string, hits []schema.SearchHit, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(max(cfg.Precision, 2))
	if hits == nil {
		hits = []schema.SearchHit{}
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				Query string             `json:"query"`
				Hits  []schema.SearchHit `json:"hits"`
			}{query, hits})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"rank", "score", "hash", "author_name", "classification", "timestamp", "message"}, func(cw *csv.Writer) error {
				for i, h := range hits {
					rec := []string{
						strconv.Itoa(i + 1),
						fmtFloat(h.Score),
						h.Commit.Hash,
						h.Commit.AuthorName,
						string(h.Commit.Classification),
						h.Commit.Timestamp,
						h.Commit.Message,
					}
					if err := cw.Write(rec); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for search results")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHitsTable(w, query, hits, cfg, fmtFloat)
		}, "Wrote table")
	}
}

func writeHitsTable(w io.Writer, query string, hits []schema.SearchHit, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintf(w, "No commits matched %q.\n", query)
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Score", "Hash", "Author", "Type", "Message"})
	msgWidth := GetMaxMessageWidth(cfg)
	var data [][]string
	for i, h := range hits {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			fmtFloat(h.Score),
			shortHash(h.Commit.Hash),
			authorCell(h.Commit.AuthorName),
			colorClass(h.Commit.Classification, cfg.UseColors),
			oneLine(h.Commit.Message, msgWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d commits for %q\n", len(hits), query)
	return err
}

// WriteAnswerResult outputs an answer. Text mode renders the answer as terminal markdown.
func WriteAnswerResult(answer *schema.Answer, cfg *contract.Config) error {
	if answer == nil {
		return fmt.Errorf("no answer to write")
	}
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, answer)
		}, "Wrote JSON")
	case schema.CSVOut, schema.ParquetOut:
		return fmt.Errorf("%s output is not supported for answers; use text or json", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, renderMarkdown(answerMarkdown(answer), terminalWidth(cfg), cfg.UseColors && cfg.OutputFile == ""))
			return err
		}, "Wrote answer")
	}
}

// answerMarkdown lays out the answer text followed by the commits it was based on.
func answerMarkdown(answer *schema.Answer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", answer.Question)
	fmt.Fprintf(&sb, "*Question type: %s*\n\n", answer.Kind)
	sb.WriteString(strings.TrimSpace(answer.Text))
	sb.WriteString("\n")
	if len(answer.Hits) > 0 {
		sb.WriteString("\n### Based on\n\n")
		for _, h := range answer.Hits {
			fmt.Fprintf(&sb, "- `%s` %s (%s, %.2f)\n",
				shortHash(h.Commit.Hash), contract.FirstLine(h.Commit.Message), h.Commit.AuthorName, h.Score)
		}
	}
	return sb.String()
}

// renderMarkdown styles md for the terminal. Plain markdown is returned when styling
// is off or the renderer fails.
func renderMarkdown(md string, width int, styled bool) string {
	if !styled {
		return md
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
