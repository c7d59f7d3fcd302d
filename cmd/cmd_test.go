package cmd

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/internal/gitrepo"
	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisID(t *testing.T) {
	id, err := parseAnalysisID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseAnalysisID(bad)
		assert.True(t, errors.Is(err, contract.ErrInvalidInput), bad)
	}
}

func TestJoinWords(t *testing.T) {
	assert.Equal(t, "who fixed login", joinWords([]string{"who", "fixed", "login"}))
	assert.Equal(t, "single", joinWords([]string{" single "}))
}

func TestNewRepositoryAccess(t *testing.T) {
	c := contract.DefaultConfig()
	c.CloneDepth = 5
	assert.IsType(t, &gitrepo.Cloner{}, newRepositoryAccess(c))

	c.GitDriver = schema.CLIDriver
	access := newRepositoryAccess(c)
	require.IsType(t, &contract.LocalGitClient{}, access)
	assert.Equal(t, 5, access.(*contract.LocalGitClient).Depth)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "show", "list", "search", "ask", "store", "serve", "mcp", "version"} {
		assert.True(t, names[want], want)
	}

	storeNames := map[string]bool{}
	for _, c := range storeCmd.Commands() {
		storeNames[c.Name()] = true
	}
	for _, want := range []string{"status", "clear", "migrate", "export", "delete"} {
		assert.True(t, storeNames[want], want)
	}
}

func TestShutdownWithoutSetup(t *testing.T) {
	assert.NoError(t, Shutdown())
}
