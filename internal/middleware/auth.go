package middleware

import (
	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/pkg/constants"
	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentPrincipal(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// RequireRole lets only principals with role through (401 when signed out, 403 otherwise).
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if p.Role != role {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentPrincipal converts the session user into the engine's principal; nil when the
// request is unauthenticated or the session is malformed.
func CurrentPrincipal(c *fiber.Ctx) *lifecycle.Principal {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	idStr, _ := m["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	role, _ := m["role"].(string)
	if !constants.IsValidRole(role) {
		return nil
	}
	return &lifecycle.Principal{ID: id, Role: role}
}
