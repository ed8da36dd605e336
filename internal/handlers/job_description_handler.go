package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

type JobDescriptionHandler struct {
	sessions    *session.Controller
	extractor   services.JobDescriptionExtractor
	maxFileSize int64
}

func NewJobDescriptionHandler(
	sessions *session.Controller,
	extractor services.JobDescriptionExtractor,
	maxFileSize int64,
) *JobDescriptionHandler {
	return &JobDescriptionHandler{
		sessions:    sessions,
		extractor:   extractor,
		maxFileSize: maxFileSize,
	}
}

// HandleSet handles PUT /job-description. A JSON body sets pasted text, a
// multipart "file" field sets text read from a txt, pdf or docx file.
func (h *JobDescriptionHandler) HandleSet(c *fiber.Ctx) error {
	var (
		job     models.JobDescription
		actions []session.Action
	)

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return respondError(c, apperrors.NewValidationError("file is required"))
		}
		if fh.Size > h.maxFileSize {
			return respondError(c, apperrors.NewValidationError(
				fmt.Sprintf("File %s too large. Max size: %d bytes", fh.Filename, h.maxFileSize)))
		}

		data, err := readFormFile(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to read file %s: %v", fh.Filename, err),
			})
		}

		job, err = h.extractor.Extract(fh.Filename, data)
		if err != nil {
			return respondError(c, err)
		}
		actions = append(actions, session.Notified{Notification: session.Notification{
			Type:    session.NotifySuccess,
			Message: "Job description file uploaded successfully!",
		}})
	} else {
		var req models.JobDescriptionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
		if err := validateStruct(req); err != nil {
			return respondError(c, err)
		}
		job = models.JobDescription{Text: req.Text, Method: models.InputPasted}
	}

	if job.IsEmpty() {
		return respondError(c, apperrors.NewValidationError("text is required"))
	}

	actions = append([]session.Action{session.JobDescriptionSet{JobDescription: job}}, actions...)
	state, err := h.sessions.Dispatch(c.UserContext(), sessionID(c), actions...)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state.JobDescription)
}

// HandleClear handles DELETE /job-description
func (h *JobDescriptionHandler) HandleClear(c *fiber.Ctx) error {
	if _, err := h.sessions.Dispatch(c.UserContext(), sessionID(c), session.JobDescriptionCleared{}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
