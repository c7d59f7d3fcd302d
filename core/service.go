package core

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// Runner runs one analysis. *Analyzer implements it.
type Runner interface {
	Analyze(ctx context.Context, repoURL string) (*Report, error)
}

var _ Runner = &Analyzer{} // Compile-time check

// errSemanticDisabled is returned by search and ask when no index is configured.
var errSemanticDisabled = errors.New("semantic index is disabled; enable it with --semantic")

// Service is the entry point shared by the CLI, the HTTP API and the MCP server.
// Store and Index are optional; operations that need a missing one fail with a
// persistence or semantic error instead of panicking.
type Service struct {
	Runner    Runner
	Store     contract.AnalysisStore
	Index     contract.SemanticIndex
	ListLimit int
}

// NewService wires an analyzer, store and index into a Service.
func NewService(runner Runner, store contract.AnalysisStore, index contract.SemanticIndex) *Service {
	return &Service{Runner: runner, Store: store, Index: index, ListLimit: contract.DefaultListLimit}
}

// Analyze validates repoURL and runs a full analysis of it.
func (s *Service) Analyze(ctx context.Context, repoURL string) (*Report, error) {
	if err := contract.ValidateRepoURL(repoURL); err != nil {
		return nil, contract.NewInvalidInputError(err)
	}
	return s.Runner.Analyze(ctx, repoURL)
}

// Get loads a stored analysis. A missing id is reported as contract.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*schema.AnalysisResult, error) {
	if id <= 0 {
		return nil, contract.NewInvalidInputError(errors.Newf("analysis id must be positive (received %d)", id))
	}
	if s.Store == nil {
		return nil, contract.NewPersistenceError(errors.New("no store configured"), "retrieve")
	}
	result, err := s.Store.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.Mark(errors.Newf("analysis %d not found", id), contract.ErrNotFound)
	}
	return result, nil
}

// List returns stored analyses, newest first. A non-positive limit uses ListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]schema.AnalysisRecord, error) {
	if s.Store == nil {
		return []schema.AnalysisRecord{}, nil
	}
	if limit <= 0 {
		limit = s.ListLimit
	}
	return s.Store.List(ctx, limit)
}

// Search ranks the indexed commits of repoURL against query.
func (s *Service) Search(ctx context.Context, repoURL, query string, limit int) ([]schema.SearchHit, error) {
	if err := contract.ValidateRepoURL(repoURL); err != nil {
		return nil, contract.NewInvalidInputError(err)
	}
	if s.Index == nil {
		return nil, contract.NewSemanticError(errSemanticDisabled, "search")
	}
	return s.Index.Search(ctx, repoURL, query, limit)
}

// Ask answers a free-form question about repoURL from its indexed commits.
func (s *Service) Ask(ctx context.Context, repoURL, question string) (*schema.Answer, error) {
	if err := contract.ValidateRepoURL(repoURL); err != nil {
		return nil, contract.NewInvalidInputError(err)
	}
	if question == "" {
		return nil, contract.NewInvalidInputError(errors.New("question must not be empty"))
	}
	if s.Index == nil {
		return nil, contract.NewSemanticError(errSemanticDisabled, "answer")
	}
	return s.Index.Answer(ctx, repoURL, question)
}

// IsSemanticDisabled reports whether err came from a Service without an index.
func IsSemanticDisabled(err error) bool {
	return errors.Is(err, errSemanticDisabled)
}
