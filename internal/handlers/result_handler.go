package handlers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

type ResultHandler struct {
	sessions *session.Controller
	log      logger.Logger
}

func NewResultHandler(sessions *session.Controller, log logger.Logger) *ResultHandler {
	return &ResultHandler{
		sessions: sessions,
		log:      log,
	}
}

// HandleGetResults handles GET /results. A minScore query updates the session's filter.
func (h *ResultHandler) HandleGetResults(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := sessionID(c)

	var (
		state session.State
		err   error
	)
	if raw := c.Query("minScore"); raw != "" {
		minScore, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil || math.IsNaN(minScore) || math.IsInf(minScore, 0) {
			return respondError(c, apperrors.NewValidationError("minScore must be a number"))
		}
		state, err = h.sessions.Dispatch(ctx, id, session.FilterChanged{MinScore: minScore})
	} else {
		state, err = h.sessions.State(ctx, id)
	}
	if err != nil {
		return respondError(c, err)
	}

	filtered := state.FilteredResults()
	views := make([]models.CandidateView, len(filtered))
	for i, r := range filtered {
		views[i] = models.NewCandidateView(r)
	}

	return c.JSON(models.ResultsResponse{
		MinScore: state.FilterScore,
		Total:    len(views),
		Results:  views,
	})
}

// HandleGetResult handles GET /results/:id and marks the candidate as selected.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	ctx := c.UserContext()
	candidateID := utils.CopyString(c.Params("id"))

	state, err := h.sessions.Dispatch(ctx, sessionID(c), session.CandidateSelected{ID: candidateID})
	if err != nil {
		return respondError(c, err)
	}

	selected := state.SelectedCandidate()
	if selected == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Candidate not found",
		})
	}

	return c.JSON(models.NewCandidateView(*selected))
}

// HandleExport handles GET /results/export
func (h *ResultHandler) HandleExport(c *fiber.Ctx) error {
	state, err := h.sessions.State(c.UserContext(), sessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	if len(state.Results) == 0 {
		return respondError(c, apperrors.NewValidationError("No results to export. Run an analysis first."))
	}

	now := time.Now()
	data, err := services.ExportResults(state.FilteredResults(), state.JobDescription, now)
	if err != nil {
		h.log.WithError(err).Error("Failed to export results", nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export results",
		})
	}

	c.Attachment(fmt.Sprintf("resume-screening-%s.xlsx", now.Format("20060102-150405")))
	c.Set(fiber.HeaderContentType, services.ExportContentType)
	return c.Send(data)
}

// HandleInsights handles GET /insights
func (h *ResultHandler) HandleInsights(c *fiber.Ctx) error {
	state, err := h.sessions.State(c.UserContext(), sessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.ComputeInsights(len(state.Records), state.Results))
}
