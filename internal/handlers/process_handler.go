package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

const analysisCompleteMessage = "Analysis complete! View your results below."

type ProcessHandler struct {
	sessions *session.Controller
	analysis services.AnalysisTrigger
}

func NewProcessHandler(sessions *session.Controller, analysis services.AnalysisTrigger) *ProcessHandler {
	return &ProcessHandler{
		sessions: sessions,
		analysis: analysis,
	}
}

// HandleProcess handles POST /process. It ranks every uploaded résumé against the
// session's job description and waits for the backend to answer.
func (h *ProcessHandler) HandleProcess(c *fiber.Ctx) error {
	id := sessionID(c)

	if _, err := h.sessions.BeginAnalysis(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	result, err := h.analysis.Analyze(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.AnalysisResponse{
		Message:      analysisCompleteMessage,
		Results:      result.Results,
		DemoFallback: result.DemoFallback,
	})
}
