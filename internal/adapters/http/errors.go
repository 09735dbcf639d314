package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, location_unavailable, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// handleError maps a service error onto the API error taxonomy. Internal
// errors are logged and their text is not echoed to the client.
func handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrLocationUnavailable):
		return newError(c, fiber.StatusUnprocessableEntity, "location_unavailable",
			"no location supplied and no fallback location is configured")
	case errors.Is(err, domain.ErrUnavailable):
		return newError(c, fiber.StatusServiceUnavailable, "unavailable", err.Error())
	}
	logging.FromContext(c.UserContext()).Error().Err(err).
		Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return errInternal(c, "internal server error")
}
