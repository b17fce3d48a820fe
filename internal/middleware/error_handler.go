package middleware

import (
	"errors"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	if lifecycle.KindOf(err) != "" {
		return response.EngineError(c, err)
	}
	Logger(c).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
