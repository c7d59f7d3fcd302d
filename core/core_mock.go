package core

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	mock.Mock
}

var _ Runner = &MockRunner{} // Compile-time check

// Analyze implements the Runner interface.
func (m *MockRunner) Analyze(ctx context.Context, repoURL string) (*Report, error) {
	args := m.Called(ctx, repoURL)
	report, _ := args.Get(0).(*Report)
	return report, args.Error(1)
}
