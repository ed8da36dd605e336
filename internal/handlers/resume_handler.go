package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/services"
)

// ResumeHandler proxies the backend's per-résumé endpoints.
type ResumeHandler struct {
	backend services.BackendClient
}

func NewResumeHandler(backend services.BackendClient) *ResumeHandler {
	return &ResumeHandler{backend: backend}
}

// HandleGetResume handles GET /resumes/:id
func (h *ResumeHandler) HandleGetResume(c *fiber.Ctx) error {
	details, err := h.backend.GetResumeDetails(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(details)
}

// HandleDownloadResume handles GET /resumes/:id/download
func (h *ResumeHandler) HandleDownloadResume(c *fiber.Ctx) error {
	download, err := h.backend.DownloadResume(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment(download.Filename)
	c.Set(fiber.HeaderContentType, download.ContentType)
	return c.Send(download.Data)
}

// HandleDeleteResume handles DELETE /resumes/:id
func (h *ResumeHandler) HandleDeleteResume(c *fiber.Ctx) error {
	out, err := h.backend.DeleteResume(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// HandleUploadStats handles GET /upload-stats
func (h *ResumeHandler) HandleUploadStats(c *fiber.Ctx) error {
	stats, err := h.backend.GetUploadStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
