// Package core runs repository analyses end to end.
package core

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/huangsam/repolens/core/agg"
	"github.com/huangsam/repolens/core/extract"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/telemetry"
	"github.com/huangsam/repolens/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// scratchPrefix names every per-run scratch directory.
const scratchPrefix = "repolens-"

// Caps bounds the work and output of one analysis.
type Caps struct {
	MaxCommits            int
	MaxFilesListed        int
	CommitDisplayCap      int
	ContributorDisplayCap int
}

// DefaultCaps returns the standard caps.
func DefaultCaps() Caps {
	return Caps{
		MaxCommits:            schema.DefaultMaxCommits,
		MaxFilesListed:        schema.DefaultMaxFilesListed,
		CommitDisplayCap:      schema.DefaultCommitDisplayCap,
		ContributorDisplayCap: schema.DefaultContributorDisplayCap,
	}
}

// CapsFromConfig reads the caps out of a validated config.
func CapsFromConfig(cfg *contract.Config) Caps {
	return Caps{
		MaxCommits:            cfg.MaxCommits,
		MaxFilesListed:        cfg.MaxFilesListed,
		CommitDisplayCap:      cfg.CommitDisplayCap,
		ContributorDisplayCap: cfg.ContributorDisplayCap,
	}
}

// Report is what one successful analysis hands back to its caller.
type Report struct {
	ID      int64                  // Identifier assigned by the store; 0 when nothing was stored
	RunID   string                 // Correlates logs and spans of one run
	Result  *schema.AnalysisResult // Display-capped result, as persisted
	Records []schema.CommitRecord  // Every extracted record, before the display cap
}

// Analyzer is the single boundary around clone, extract, aggregate and persist.
// Each call to Analyze owns its own scratch directory; concurrent calls share nothing
// but the collaborators, which must be safe for concurrent use.
type Analyzer struct {
	access     contract.RepositoryAccess
	store      contract.AnalysisStore
	index      contract.SemanticIndex
	caps       Caps
	scratchDir string
	now        func() time.Time
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithStore persists every successful result to store.
func WithStore(store contract.AnalysisStore) Option {
	return func(a *Analyzer) { a.store = store }
}

// WithIndex feeds every successful analysis to a semantic index.
func WithIndex(index contract.SemanticIndex) Option {
	return func(a *Analyzer) { a.index = index }
}

// WithCaps overrides the default caps.
func WithCaps(caps Caps) Option {
	return func(a *Analyzer) { a.caps = caps }
}

// WithScratchDir sets the parent of per-run scratch directories. Empty means the OS temp dir.
func WithScratchDir(dir string) Option {
	return func(a *Analyzer) { a.scratchDir = dir }
}

// WithClock replaces the clock used for the analysis timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer that clones through access.
func NewAnalyzer(access contract.RepositoryAccess, opts ...Option) *Analyzer {
	a := &Analyzer{
		access: access,
		caps:   DefaultCaps(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze clones repoURL, extracts and aggregates its history and stores the result.
// Every failure is returned as a *contract.AnalysisError naming the failed stage. The
// scratch directory is gone by the time Analyze returns, whatever the outcome.
//
// A storage failure still returns the computed report alongside the error, so the
// caller can retry persistence without re-running the analysis.
func (a *Analyzer) Analyze(ctx context.Context, repoURL string) (*Report, error) {
	runID := uuid.NewString()
	ctx, span := telemetry.Start(ctx, "analyze",
		attribute.String("repo.url", repoURL),
		attribute.String("run.id", runID))
	defer span.End()

	start := time.Now()
	contract.LogInfo("Analysis started", zap.String("repo", repoURL), zap.String("run", runID))

	result, records, err := a.run(ctx, runID, repoURL)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	report := &Report{RunID: runID, Result: result, Records: records}

	if a.store != nil {
		id, err := a.persist(ctx, repoURL, result)
		if err != nil {
			telemetry.Fail(span, err)
			return report, err
		}
		report.ID = id
	}

	if a.index != nil {
		a.indexRecords(ctx, repoURL, records)
	}

	span.SetAttributes(
		attribute.Int("commits.analyzed", len(records)),
		attribute.Int64("analysis.id", report.ID))
	contract.LogInfo("Analysis finished",
		zap.String("run", runID),
		zap.Int64("id", report.ID),
		zap.Int("commits", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// run does everything that needs the working copy. The scratch directory is released
// by a single deferred call before run returns.
func (a *Analyzer) run(ctx context.Context, runID, repoURL string) (*schema.AnalysisResult, []schema.CommitRecord, error) {
	scratch, err := os.MkdirTemp(a.scratchDir, scratchPrefix+runID+"-")
	if err != nil {
		return nil, nil, contract.NewAnalysisError(schema.WorkspaceStage, repoURL, errors.Wrap(err, "create scratch directory"))
	}
	defer releaseScratch(scratch)

	// --- 1. Clone ---
	cloneCtx, cloneSpan := telemetry.Start(ctx, "clone")
	handle, err := a.access.Clone(cloneCtx, repoURL, filepath.Join(scratch, "repo"))
	telemetry.Fail(cloneSpan, err)
	cloneSpan.End()
	if err != nil {
		if !errors.Is(err, contract.ErrClone) {
			err = contract.NewCloneError(err, repoURL)
		}
		return nil, nil, contract.NewAnalysisError(schema.CloneStage, repoURL, err)
	}

	// --- 2. Extract commits and the file inventory ---
	extractCtx, extractSpan := telemetry.Start(ctx, "extract")
	records, historyTruncated, err := extract.Commits(extractCtx, handle, a.caps.MaxCommits)
	if err != nil {
		telemetry.Fail(extractSpan, err)
		extractSpan.End()
		return nil, nil, contract.NewAnalysisError(schema.ExtractStage, repoURL, err)
	}
	files, structure, filesTruncated := extract.Files(extractCtx, handle, a.caps.MaxFilesListed)
	head, err := handle.HeadHash(extractCtx)
	if err != nil {
		contract.LogDebug("HEAD unavailable", zap.Error(err))
	}
	extractSpan.End()

	// --- 3. Aggregate ---
	_, aggSpan := telemetry.Start(ctx, "aggregate")
	out, err := agg.Aggregate(records)
	telemetry.Fail(aggSpan, err)
	aggSpan.End()
	if err != nil {
		return nil, nil, contract.NewAnalysisError(schema.AggregateStage, repoURL, err)
	}

	// --- 4. Assemble ---
	result := Assemble(AssembleInput{
		RepoURL:          repoURL,
		HeadHash:         head,
		AnalyzedAt:       a.now(),
		Records:          records,
		Files:            files,
		Structure:        structure,
		FilesTruncated:   filesTruncated,
		HistoryTruncated: historyTruncated,
		Aggregates:       out,
		Caps:             a.caps,
	})
	return result, records, nil
}

// persist stores result and classifies any failure as a persistence error.
func (a *Analyzer) persist(ctx context.Context, repoURL string, result *schema.AnalysisResult) (int64, error) {
	ctx, span := telemetry.Start(ctx, "persist")
	defer span.End()

	id, err := a.store.Store(ctx, repoURL, result)
	if err != nil {
		if !errors.Is(err, contract.ErrPersistence) {
			err = contract.NewPersistenceError(err, "store")
		}
		return 0, contract.NewAnalysisError(schema.PersistStage, repoURL, err)
	}
	return id, nil
}

// indexRecords hands records to the semantic index. Failures never fail the analysis.
func (a *Analyzer) indexRecords(ctx context.Context, repoURL string, records []schema.CommitRecord) {
	ctx, span := telemetry.Start(ctx, "index")
	defer span.End()

	if err := a.index.Index(ctx, repoURL, records); err != nil {
		telemetry.Fail(span, err)
		contract.LogWarn("Semantic indexing failed; analysis is unaffected", err)
	}
}

func releaseScratch(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		contract.LogWarn("Failed to remove scratch directory "+dir, err)
	}
}
