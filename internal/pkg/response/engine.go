package response

import (
	"errors"

	"foodshare-backend/internal/application/lifecycle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// StatusForKind maps an engine error kind to its HTTP status.
func StatusForKind(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindValidation:
		return fiber.StatusBadRequest
	case lifecycle.KindAuthorization:
		return fiber.StatusForbidden
	case lifecycle.KindNotFound:
		return fiber.StatusNotFound
	case lifecycle.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// EngineError writes err in the standard error format. details carries the kind and, for
// store and partial failures, the failed step. Non-engine errors become a plain 500.
func EngineError(c *fiber.Ctx, err error) error {
	kind := lifecycle.KindOf(err)
	if kind == "" {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	code := StatusForKind(kind)
	if errors.Is(err, lifecycle.ErrNotSignedIn) {
		code = fiber.StatusUnauthorized
	}
	details := map[string]interface{}{"kind": string(kind)}
	if step := lifecycle.StepOf(err); step != "" {
		details["step"] = step
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("kind", string(kind)).Msg("engine failure")
	}
	return Error(c, lifecycle.MessageOf(err), code, details)
}
