package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/session"
)

const (
	SessionCookie = "session_id"
	SessionHeader = "X-Session-ID"

	sessionLocal = "session_id"
)

var validate = validator.New()

// respondError writes err using the status and code its kind maps to.
func respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	if code := apperrors.CodeOf(err); code != "" {
		body["code"] = code
	}
	return c.Status(apperrors.StatusOf(err)).JSON(body)
}

// validateStruct runs the struct's validate tags and folds failures into one ValidationError.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldName(fe)))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fieldName(fe)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fieldName(fe), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fieldName(fe)))
		}
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "field"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// RequireSession resolves the caller's session from the cookie or header and
// rejects requests without a live one.
func RequireSession(sessions *session.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(SessionCookie)
		if id == "" {
			id = c.Get(SessionHeader)
		}
		if id == "" {
			return respondError(c, apperrors.NewSessionNotFoundError())
		}

		if _, err := sessions.State(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}

		// fiber strings alias the request buffer; the id outlives it in queued batches
		c.Locals(sessionLocal, utils.CopyString(id))
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}
