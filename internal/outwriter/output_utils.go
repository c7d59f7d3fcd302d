package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// Colors for commit classifications in table output.
var classColors = map[schema.Classification]*color.Color{
	schema.FeatureClass:  color.New(color.FgGreen, color.Bold),
	schema.BugfixClass:   color.New(color.FgRed, color.Bold),
	schema.RefactorClass: color.New(color.FgMagenta),
	schema.DocsClass:     color.New(color.FgCyan),
	schema.TestClass:     color.New(color.FgYellow),
	schema.StyleClass:    color.New(color.FgBlue),
	schema.OtherClass:    color.New(color.FgHiBlack),
}

// headingColor is used for section titles in text output.
var headingColor = color.New(color.Bold, color.Underline)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// colorClass renders a classification label, colored when the config allows it.
func colorClass(c schema.Classification, useColors bool) string {
	label := string(c)
	if !useColors {
		return label
	}
	if col, ok := classColors[c]; ok {
		return col.Sprint(label)
	}
	return label
}

// writeHeading prints a section title followed by a blank line.
func writeHeading(w io.Writer, title string, useColors bool) error {
	if useColors {
		title = headingColor.Sprint(title)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", title)
	return err
}

// shortHash cuts a commit hash down to its display prefix.
func shortHash(hash string) string {
	if len(hash) > schema.ShortHashLength {
		return hash[:schema.ShortHashLength]
	}
	return hash
}

// oneLine collapses a message to its first line for table cells.
func oneLine(message string, width int) string {
	return contract.TruncateText(contract.FirstLine(message), width)
}
