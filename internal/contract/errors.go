package contract

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/schema"
)

// Error classes shared across layers. Match them with errors.Is from
// github.com/cockroachdb/errors, which understands the marks set below.
var (
	ErrClone          = errors.New("clone failed")
	ErrRepositoryRead = errors.New("repository history unreadable")
	ErrTreeRead       = errors.New("file tree unreadable")
	ErrAggregation    = errors.New("malformed commit record")
	ErrPersistence    = errors.New("persistence failed")
	ErrSemantic       = errors.New("semantic index failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// NewCloneError marks cause as a clone failure for url.
func NewCloneError(cause error, url string) error {
	err := errors.Wrapf(cause, "clone %s", url)
	err = errors.WithHint(err, "check that the URL exists and that credentials are available")
	return errors.Mark(err, ErrClone)
}

// NewRepositoryReadError marks cause as a failure to enumerate history.
func NewRepositoryReadError(cause error) error {
	return errors.Mark(errors.Wrap(cause, "read commit history"), ErrRepositoryRead)
}

// NewTreeReadError marks cause as a failure to walk the file tree.
func NewTreeReadError(cause error) error {
	return errors.Mark(errors.Wrap(cause, "walk file tree"), ErrTreeRead)
}

// NewAggregationError reports a record the fold cannot account for.
func NewAggregationError(index int, hash, reason string) error {
	return errors.Mark(errors.Newf("commit %d (%s): %s", index, hash, reason), ErrAggregation)
}

// NewPersistenceError marks cause as a storage failure during op.
func NewPersistenceError(cause error, op string) error {
	return errors.Mark(errors.Wrapf(cause, "persistence %s", op), ErrPersistence)
}

// NewSemanticError marks cause as a semantic index failure during op.
func NewSemanticError(cause error, op string) error {
	return errors.Mark(errors.Wrapf(cause, "semantic %s", op), ErrSemantic)
}

// NewInvalidInputError marks cause as a caller mistake, such as a malformed URL.
func NewInvalidInputError(cause error) error {
	return errors.Mark(cause, ErrInvalidInput)
}

// AnalysisError is the single failure type returned by an analysis run.
// It names the stage that failed and keeps the underlying cause.
type AnalysisError struct {
	Stage   schema.AnalysisStage
	RepoURL string
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis of %s failed during %s: %v", e.RepoURL, e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysisError wraps cause for the given stage.
func NewAnalysisError(stage schema.AnalysisStage, repoURL string, cause error) *AnalysisError {
	return &AnalysisError{Stage: stage, RepoURL: repoURL, Err: cause}
}
