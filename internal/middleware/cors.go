package middleware

import (
	"strings"

	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig holds CORS configuration (suffix + dev password).
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, dev-password, X-Trace-Id"
)

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// CORS allows origins ending with AllowedSuffix (e.g. .foodshare.app), localhost preflights,
// and requests carrying the dev-password header. Allowed preflights are answered with 204.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			return c.Next()
		}
		preflight := c.Method() == fiber.MethodOptions

		allowed := (suffix != "" && strings.HasSuffix(strings.ToLower(origin), suffix)) ||
			(cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword) ||
			(preflight && isLocalOrigin(origin))
		if !allowed {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, fiber.Map{})
		}

		setCORSHeaders(c, origin)
		if preflight {
			c.Set("Access-Control-Allow-Methods", corsAllowMethods)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set("Access-Control-Allow-Origin", origin)
	c.Set("Access-Control-Allow-Credentials", "true")
	c.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	c.Set("Access-Control-Expose-Headers", traceIDHeader)
	c.Vary("Origin")
}
