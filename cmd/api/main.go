package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/handlers"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLog := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer appLog.Sync()
	appLog.Info("Config loaded", map[string]interface{}{
		"env":           cfg.Server.Env,
		"backend":       cfg.Backend.BaseURL,
		"session_store": cfg.Session.Store,
		"demo_mode":     cfg.Backend.DemoMode,
	})

	if cfg.Backend.DemoMode {
		appLog.Warn("Demo mode is on: failed or empty analyses are answered with demonstration candidates", nil)
	}

	// Initialize session store
	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize session store: %v", err)
	}
	defer closeStore()

	sessions := session.NewController(store, 2*cfg.Backend.UploadTimeout)

	// Initialize services
	backend := services.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.UploadTimeout, &http.Client{})
	orchestrator := services.NewUploadOrchestrator(
		services.NewArchiveExtractor(),
		backend,
		sessions,
		appLog,
	)
	analysis := services.NewAnalysisTrigger(backend, sessions, appLog, cfg.Backend.DemoMode)

	// Initialize worker
	worker := services.NewWorker(
		orchestrator,
		appLog,
		cfg.Worker.Concurrency,
		cfg.Worker.QueueSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Screener API",
		ReadTimeout:  cfg.Backend.UploadTimeout,
		WriteTimeout: cfg.Backend.UploadTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigin,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + handlers.SessionHeader,
		AllowCredentials: cfg.Server.AllowOrigin != "*",
	}))

	// Routes
	api := app.Group("/api/v1")
	handlers.RegisterRoutes(api, handlers.Dependencies{
		Sessions:        sessions,
		Worker:          worker,
		Analysis:        analysis,
		Backend:         backend,
		JobDescriptions: services.NewJobDescriptionExtractor(),
		Log:             appLog,
		MaxFileSize:     cfg.Storage.MaxFileSize,
		SessionTTL:      cfg.Session.TTL,
		SecureCookies:   cfg.Server.Env == "production",
	})

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/auth/login",
				"POST /api/v1/resumes",
				"PUT /api/v1/job-description",
				"POST /api/v1/process",
				"GET /api/v1/results",
				"GET /api/v1/insights",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		appLog.Info("Shutting down server", nil)
		if err := app.Shutdown(); err != nil {
			appLog.WithError(err).Error("Server forced to shutdown", nil)
		}
		worker.Stop()
		cancel()
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLog.Info("Server starting", map[string]interface{}{"addr": addr})

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newSessionStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := config.InitRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.Session.TTL), func() { _ = client.Close() }, nil
	case config.SessionStoreMemory, "":
		return session.NewMemoryStore(cfg.Session.TTL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	} else if apperrors.CodeOf(err) != "" {
		code = apperrors.StatusOf(err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
