package contract

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructorsMarkTheirClass(t *testing.T) {
	cause := fmt.Errorf("boom")
	tests := []struct {
		name  string
		err   error
		class error
	}{
		{"clone", NewCloneError(cause, "https://example.com/r.git"), ErrClone},
		{"repository read", NewRepositoryReadError(cause), ErrRepositoryRead},
		{"tree read", NewTreeReadError(cause), ErrTreeRead},
		{"aggregation", NewAggregationError(3, "abcd1234", "missing timestamp"), ErrAggregation},
		{"persistence", NewPersistenceError(cause, "store"), ErrPersistence},
		{"semantic", NewSemanticError(cause, "search"), ErrSemantic},
		{"invalid input", NewInvalidInputError(cause), ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.class))
			for _, other := range []error{ErrClone, ErrRepositoryRead, ErrTreeRead, ErrAggregation, ErrPersistence, ErrSemantic, ErrInvalidInput} {
				if other != tt.class {
					assert.False(t, errors.Is(tt.err, other), "unexpected class %v", other)
				}
			}
		})
	}
}

func TestCloneErrorKeepsMessageAndHint(t *testing.T) {
	err := NewCloneError(fmt.Errorf("repository not found"), "https://example.com/r.git")
	assert.Contains(t, err.Error(), "clone https://example.com/r.git")
	assert.Contains(t, err.Error(), "repository not found")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestAnalysisErrorWrapsCause(t *testing.T) {
	cause := NewCloneError(fmt.Errorf("auth required"), "https://example.com/r.git")
	err := NewAnalysisError(schema.CloneStage, "https://example.com/r.git", cause)

	assert.Contains(t, err.Error(), "failed during clone")
	assert.Contains(t, err.Error(), "auth required")
	assert.True(t, errors.Is(err, ErrClone))

	var wrapped error = fmt.Errorf("outer: %w", err)
	var ae *AnalysisError
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, schema.CloneStage, ae.Stage)
	assert.Equal(t, cause, ae.Unwrap())
}
