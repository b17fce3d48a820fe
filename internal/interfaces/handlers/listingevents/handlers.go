package listingevents

import (
	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Engine *lifecycle.Engine
}

// GET /api/v1/listings/:listing_id/events: lifecycle history, owner only, oldest first.
func (h *Handlers) List(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	events, err := h.Engine.ListEvents(c.UserContext(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listing events fetched successfully", events, fiber.Map{"count": len(events)})
}
