package iocache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/parquet"
	"github.com/huangsam/repolens/schema"
)

// ExportSource is a store that can hand out full analysis rows.
type ExportSource interface {
	GetStatus() (schema.StoreStatus, error)
	ExportRecords(ctx context.Context) ([]schema.AnalysisExportRecord, error)
}

var _ ExportSource = &AnalysisStoreImpl{} // Compile-time check

// ExportSummary reports what ExecuteStoreExport wrote.
type ExportSummary struct {
	Backend  string
	Analyses int
	Path     string
}

// ExecuteStoreExport writes every stored analysis to a Parquet file inside outputDir.
func ExecuteStoreExport(ctx context.Context, store ExportSource, outputDir string) (ExportSummary, error) {
	summary := ExportSummary{}
	if outputDir == "" {
		return summary, errors.New("an output directory is required for export")
	}
	if store == nil {
		return summary, errors.New("analysis store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return summary, fmt.Errorf("failed to get store status: %w", err)
	}
	summary.Backend = status.Backend
	if status.TotalAnalyses == 0 {
		return summary, errors.New("no analysis data found to export")
	}

	records, err := store.ExportRecords(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to retrieve analyses: %w", err)
	}

	summary.Path = filepath.Join(outputDir, "repolens_analyses.parquet")
	if err := parquet.WriteAnalysesParquet(parquet.ConvertAnalysisRecords(records), summary.Path); err != nil {
		return summary, fmt.Errorf("failed to write analyses: %w", err)
	}
	summary.Analyses = len(records)
	return summary, nil
}
