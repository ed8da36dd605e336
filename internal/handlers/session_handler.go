package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/session"
)

type SessionHandler struct {
	sessions *session.Controller
}

func NewSessionHandler(sessions *session.Controller) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionUpdateRequest struct {
	ActiveTab           string `json:"activeTab" validate:"omitempty,oneof=upload results insights"`
	DismissNotification bool   `json:"dismissNotification"`
}

// HandleGetSession handles GET /session. The dashboard polls it for upload progress.
func (h *SessionHandler) HandleGetSession(c *fiber.Ctx) error {
	state, err := h.sessions.State(c.UserContext(), sessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// HandleUpdateSession handles PATCH /session
func (h *SessionHandler) HandleUpdateSession(c *fiber.Ctx) error {
	var req sessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := validateStruct(req); err != nil {
		return respondError(c, err)
	}

	var actions []session.Action
	if req.ActiveTab != "" {
		actions = append(actions, session.TabChanged{Tab: session.Tab(req.ActiveTab)})
	}
	if req.DismissNotification {
		actions = append(actions, session.NotificationDismissed{})
	}

	state, err := h.sessions.Dispatch(c.UserContext(), sessionID(c), actions...)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}
