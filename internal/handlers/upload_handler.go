package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

const uploadField = "resumes"

type UploadHandler struct {
	sessions    *session.Controller
	worker      services.Worker
	log         logger.Logger
	maxFileSize int64
}

func NewUploadHandler(
	sessions *session.Controller,
	worker services.Worker,
	log logger.Logger,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		sessions:    sessions,
		worker:      worker,
		log:         log,
		maxFileSize: maxFileSize,
	}
}

// HandleUpload handles POST /resumes. The batch runs in the background; progress
// and the outcome notification are published on the session.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	headers := form.File[uploadField]
	if len(headers) == 0 {
		return respondError(c, apperrors.NewValidationError(
			fmt.Sprintf("No files uploaded. Please upload résumés or ZIP archives as '%s'.", uploadField)))
	}

	files := make([]models.UploadCandidateFile, 0, len(headers))
	for _, fh := range headers {
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
		files = append(files, models.UploadCandidateFile{Name: fh.Filename, Data: data})
	}

	id := sessionID(c)
	if _, err := h.sessions.BeginUpload(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	batch := services.NewUploadBatch(id, files)
	if err := h.worker.EnqueueJob(batch); err != nil {
		h.log.WithError(err).Warn("Upload batch rejected", map[string]interface{}{"session_id": id})
		if _, dispatchErr := h.sessions.Dispatch(c.UserContext(), id, session.UploadFailed{Message: err.Error()}); dispatchErr != nil {
			h.log.WithError(dispatchErr).Error("Failed to record upload failure", nil)
		}

		status := fiber.StatusServiceUnavailable
		if !errors.Is(err, services.ErrQueueFull) && !errors.Is(err, services.ErrWorkerStopped) {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(models.UploadBatchResponse{
		BatchID:   batch.ID,
		FileCount: len(files),
		Status:    "queued",
	})
}

// HandleListResumes handles GET /resumes
func (h *UploadHandler) HandleListResumes(c *fiber.Ctx) error {
	state, err := h.sessions.State(c.UserContext(), sessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":   len(state.Records),
		"resumes": state.Records,
	})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
