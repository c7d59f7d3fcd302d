// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/repolens/core"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the repolens MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svc *core.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Repolens Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		svc:     svc,
	}

	// --- 1. Tool: analyze_repository ---
	s.AddTool(mcp.NewTool("analyze_repository",
		mcp.WithDescription("Clone a Git repository and analyze its recent commit history: contributors, commit types, timeline and file structure."),
		mcp.WithString("repo_url", mcp.Description("Clone URL of the repository (https, ssh, git or a local path)."), mcp.Required()),
	), h.handleAnalyzeRepository)

	// --- 2. Tool: get_analysis ---
	s.AddTool(mcp.NewTool("get_analysis",
		mcp.WithDescription("Load a previously stored analysis by its identifier."),
		mcp.WithNumber("analysis_id", mcp.Description("Identifier returned by analyze_repository or list_analyses."), mcp.Required()),
	), h.handleGetAnalysis)

	// --- 3. Tool: list_analyses ---
	s.AddTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List stored analyses, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of analyses to return.")),
	), h.handleListAnalyses)

	// --- 4. Tool: search_commits ---
	s.AddTool(mcp.NewTool("search_commits",
		mcp.WithDescription("Find commits of an analyzed repository that are semantically similar to a query."),
		mcp.WithString("repo_url", mcp.Description("Repository URL as passed to analyze_repository."), mcp.Required()),
		mcp.WithString("query", mcp.Description("Natural language description of the change to look for."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of commits to return.")),
	), h.handleSearchCommits)

	// --- 5. Tool: ask_repository ---
	s.AddTool(mcp.NewTool("ask_repository",
		mcp.WithDescription("Answer a question about an analyzed repository using its most relevant commits."),
		mcp.WithString("repo_url", mcp.Description("Repository URL as passed to analyze_repository."), mcp.Required()),
		mcp.WithString("question", mcp.Description("Free-form question, e.g. 'who works on authentication?'."), mcp.Required()),
	), h.handleAskRepository)

	return s
}

// StartMCPServer starts the repolens MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, svc *core.Service) error {
	s := NewMCPServer(baseCfg, svc)
	return server.ServeStdio(s)
}
