package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"travel-expense/internal/domain"
	"travel-expense/internal/service/auth"
	"travel-expense/internal/service/user"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders every error returned by a handler. Domain errors are
// mapped by kind; anything unrecognised becomes a 500 without leaking detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, errorCode, message := classify(err)

	return c.Status(code).JSON(ErrorResponse{
		Code:    errorCode,
		Message: message,
		TraceID: traceID(c),
	})
}

func classify(err error) (int, string, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, codeForStatus(fe.Code), fe.Message
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUserInactive),
		errors.Is(err, auth.ErrUserNotFound):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusUnprocessableEntity, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, user.ErrInvalidApprover):
		return fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, user.ErrCannotModifySelf):
		return fiber.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.Is(err, domain.ErrConflict), errors.Is(err, user.ErrEmailExists):
		return fiber.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable"
	}

	return fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	}
	return "INTERNAL_ERROR"
}

func traceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDContextKey).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, message)
}

func UnprocessableEntity(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnprocessableEntity, message)
}
