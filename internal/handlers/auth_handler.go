package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/session"
)

// AuthHandler provides the dashboard's mocked login. Credentials are not verified.
type AuthHandler struct {
	sessions      *session.Controller
	log           logger.Logger
	sessionTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(sessions *session.Controller, log logger.Logger, sessionTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		sessions:      sessions,
		log:           log,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validateStruct(req); err != nil {
		return respondError(c, err)
	}
	if req.SignUp && req.ConfirmPassword != req.Password {
		return respondError(c, apperrors.NewValidationError("Passwords do not match"))
	}

	id, _, err := h.sessions.Start(c.UserContext(), req.Email)
	if err != nil {
		h.log.WithError(err).Error("Failed to start session", nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start session",
		})
	}

	cookie := &fiber.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if h.sessionTTL > 0 {
		cookie.Expires = time.Now().Add(h.sessionTTL)
	}
	c.Cookie(cookie)

	h.log.Info("User logged in", map[string]interface{}{"session_id": id, "sign_up": req.SignUp})

	return c.JSON(models.LoginResponse{
		SessionID: id,
		Email:     req.Email,
	})
}

// HandleLogout handles POST /auth/logout. Everything held by the session is discarded.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.sessions.End(c.UserContext(), sessionID(c)); err != nil {
		h.log.WithError(err).Error("Failed to end session", nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end session",
		})
	}

	c.ClearCookie(SessionCookie)
	return c.JSON(fiber.Map{
		"message": "Logged out successfully!",
	})
}
