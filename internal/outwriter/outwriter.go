// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the command layer.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalysis prints one analysis result using the configured output format.
// The id is the store identifier, or 0 when the result was not stored.
func (ow *OutWriter) WriteAnalysis(id int64, result *schema.AnalysisResult, cfg *contract.Config) error {
	return WriteAnalysisResult(id, result, cfg)
}

// WriteAnalysisList prints stored analysis summaries using the configured output format.
func (ow *OutWriter) WriteAnalysisList(records []schema.AnalysisRecord, cfg *contract.Config) error {
	return WriteAnalysisRecords(records, cfg)
}

// WriteSearchHits prints ranked commits for a query using the configured output format.
func (ow *OutWriter) WriteSearchHits(query string, hits []schema.SearchHit, cfg *contract.Config) error {
	return WriteSearchResults(query, hits, cfg)
}

// WriteAnswer prints an answer to a repository question using the configured output format.
func (ow *OutWriter) WriteAnswer(answer *schema.Answer, cfg *contract.Config) error {
	return WriteAnswerResult(answer, cfg)
}

// WriteStoreStatus prints store status using the configured output format.
func (ow *OutWriter) WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return WriteStatus(status, cfg)
}
