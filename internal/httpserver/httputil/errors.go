package httputil

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/speechgate/speechgate/internal/invokeerr"
)

// WriteError standardizes JSON error responses.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// WriteInvokeError maps a normalized invocation error onto an HTTP response,
// surfacing the kind so hosts can drive retry and backoff decisions.
func WriteInvokeError(c *fiber.Ctx, err error) error {
	kind := invokeerr.KindOf(err)
	return c.Status(StatusForKind(kind)).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

// StatusForKind converts the invocation error taxonomy to HTTP statuses.
func StatusForKind(kind invokeerr.Kind) int {
	switch kind {
	case invokeerr.KindCredentialsInvalid, invokeerr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case invokeerr.KindRateLimited:
		return fiber.StatusTooManyRequests
	case invokeerr.KindServerUnavailable:
		return fiber.StatusServiceUnavailable
	case invokeerr.KindConnectionFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}
