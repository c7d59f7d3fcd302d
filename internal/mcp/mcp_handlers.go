package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/repolens/core"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     *core.Service
}

// analyzeResponse is the payload of analyze_repository.
type analyzeResponse struct {
	AnalysisID int64  `json:"analysis_id"`
	RunID      string `json:"run_id"`
	Result     any    `json:"result"`
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := request.GetString("repo_url", "")
	if repoURL == "" {
		return mcp.NewToolResultError("repo_url is required"), nil
	}

	report, err := h.svc.Analyze(ctx, repoURL)
	if err != nil && (report == nil || report.Result == nil) {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if err != nil {
		// The result was computed but could not be stored.
		contract.LogWarn("Analysis result not persisted", err)
	}
	return jsonResult(analyzeResponse{AnalysisID: report.ID, RunID: report.RunID, Result: report.Result})
}

func (h *toolHandler) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetInt("analysis_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("analysis_id must be a positive integer"), nil
	}
	result, err := h.svc.Get(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load analysis %d: %v", id, err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", h.baseCfg.ListLimit)
	records, err := h.svc.List(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list analyses: %v", err)), nil
	}
	return jsonResult(records)
}

func (h *toolHandler) handleSearchCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := request.GetString("repo_url", "")
	query := request.GetString("query", "")
	if repoURL == "" || query == "" {
		return mcp.NewToolResultError("repo_url and query are required"), nil
	}
	limit := request.GetInt("limit", h.baseCfg.Semantic.Limit)

	hits, err := h.svc.Search(ctx, repoURL, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(hits)
}

func (h *toolHandler) handleAskRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := request.GetString("repo_url", "")
	question := request.GetString("question", "")
	if repoURL == "" || question == "" {
		return mcp.NewToolResultError("repo_url and question are required"), nil
	}

	answer, err := h.svc.Ask(ctx, repoURL, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return jsonResult(answer)
}
