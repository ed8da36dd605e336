package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

// Dependencies is everything the dashboard API is wired from.
type Dependencies struct {
	Sessions        *session.Controller
	Worker          services.Worker
	Analysis        services.AnalysisTrigger
	Backend         services.BackendClient
	JobDescriptions services.JobDescriptionExtractor
	Log             logger.Logger
	MaxFileSize     int64
	SessionTTL      time.Duration
	SecureCookies   bool
}

// RegisterRoutes mounts the dashboard API on router (normally the /api/v1 group).
func RegisterRoutes(router fiber.Router, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Sessions, deps.Log, deps.SessionTTL, deps.SecureCookies)
	sessionHandler := NewSessionHandler(deps.Sessions)
	uploadHandler := NewUploadHandler(deps.Sessions, deps.Worker, deps.Log, deps.MaxFileSize)
	resumeHandler := NewResumeHandler(deps.Backend)
	jobHandler := NewJobDescriptionHandler(deps.Sessions, deps.JobDescriptions, deps.MaxFileSize)
	processHandler := NewProcessHandler(deps.Sessions, deps.Analysis)
	resultHandler := NewResultHandler(deps.Sessions, deps.Log)

	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	router.Post("/auth/login", authHandler.HandleLogin)

	authed := router.Group("", RequireSession(deps.Sessions))
	authed.Post("/auth/logout", authHandler.HandleLogout)

	authed.Get("/session", sessionHandler.HandleGetSession)
	authed.Patch("/session", sessionHandler.HandleUpdateSession)

	authed.Post("/resumes", uploadHandler.HandleUpload)
	authed.Get("/resumes", uploadHandler.HandleListResumes)
	authed.Get("/resumes/:id", resumeHandler.HandleGetResume)
	authed.Get("/resumes/:id/download", resumeHandler.HandleDownloadResume)
	authed.Delete("/resumes/:id", resumeHandler.HandleDeleteResume)
	authed.Get("/upload-stats", resumeHandler.HandleUploadStats)

	authed.Put("/job-description", jobHandler.HandleSet)
	authed.Delete("/job-description", jobHandler.HandleClear)

	authed.Post("/process", processHandler.HandleProcess)

	authed.Get("/results", resultHandler.HandleGetResults)
	authed.Get("/results/export", resultHandler.HandleExport)
	authed.Get("/results/:id", resultHandler.HandleGetResult)
	authed.Get("/insights", resultHandler.HandleInsights)
}
