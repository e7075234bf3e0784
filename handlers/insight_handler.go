package handlers

import (
	"insightai_backend/services"

	"github.com/gofiber/fiber/v2"
)

// InsightHandler exposes the LLM steps that run over a finished transcript:
// summary and sentiment analysis.
type InsightHandler struct {
	summaryService  *services.SummaryService
	analysisService *services.AnalysisService
}

func NewInsightHandler(summaryService *services.SummaryService, analysisService *services.AnalysisService) *InsightHandler {
	return &InsightHandler{
		summaryService:  summaryService,
		analysisService: analysisService,
	}
}

func (h *InsightHandler) Summarize(c *fiber.Ctx) error {
	result, err := h.summaryService.Summarize(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, result)
}

func (h *InsightHandler) Analyze(c *fiber.Ctx) error {
	result, err := h.analysisService.Analyze(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, result)
}
