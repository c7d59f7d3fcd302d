package server

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v3"
	"github.com/huangsam/repolens/core"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

type analyzeResponse struct {
	AnalysisID int64                  `json:"analysis_id"`
	RunID      string                 `json:"run_id"`
	Result     *schema.AnalysisResult `json:"result"`
	Warning    string                 `json:"warning,omitempty"`
}

type askRequest struct {
	RepoURL  string `json:"repo_url"`
	Question string `json:"question"`
}

type searchResponse struct {
	Query string             `json:"query"`
	Hits  []schema.SearchHit `json:"hits"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contract.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, contract.ErrNotFound):
		return fiber.StatusNotFound
	case core.IsSemanticDisabled(err):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, contract.ErrClone):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, contract.ErrSemantic):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		contract.LogWarn("HTTP request failed", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleAnalyze(c fiber.Ctx) error {
	var body analyzeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.RepoURL = strings.TrimSpace(body.RepoURL)
	if body.RepoURL == "" {
		return badRequest(c, "repo_url is required")
	}

	report, err := s.svc.Analyze(c.Context(), body.RepoURL)
	if err != nil && (report == nil || report.Result == nil) {
		return writeError(c, err)
	}
	resp := analyzeResponse{AnalysisID: report.ID, RunID: report.RunID, Result: report.Result}
	if err != nil {
		// Computed but not stored; the caller still gets the result.
		contract.LogWarn("Analysis result not persisted", err)
		resp.Warning = err.Error()
		return c.JSON(resp)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) handleListAnalyses(c fiber.Ctx) error {
	limit := s.cfg.ListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}
	records, err := s.svc.List(c.Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	if records == nil {
		records = []schema.AnalysisRecord{}
	}
	return c.JSON(records)
}

func (s *Server) handleGetAnalysis(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest(c, "analysis id must be a positive integer")
	}
	result, err := s.svc.Get(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleSearch(c fiber.Ctx) error {
	repoURL := strings.TrimSpace(c.Query("repo_url"))
	query := strings.TrimSpace(c.Query("q"))
	if repoURL == "" || query == "" {
		return badRequest(c, "repo_url and q are required")
	}
	limit := s.cfg.Semantic.Limit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}

	hits, err := s.svc.Search(c.Context(), repoURL, query, limit)
	if err != nil {
		return writeError(c, err)
	}
	if hits == nil {
		hits = []schema.SearchHit{}
	}
	return c.JSON(searchResponse{Query: query, Hits: hits})
}

func (s *Server) handleAsk(c fiber.Ctx) error {
	var body askRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.RepoURL = strings.TrimSpace(body.RepoURL)
	body.Question = strings.TrimSpace(body.Question)
	if body.RepoURL == "" || body.Question == "" {
		return badRequest(c, "repo_url and question are required")
	}

	answer, err := s.svc.Ask(c.Context(), body.RepoURL, body.Question)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(answer)
}
