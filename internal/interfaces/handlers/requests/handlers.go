package requests

import (
	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/response"
	"foodshare-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Engine *lifecycle.Engine
}

// CreateRequestBody is the POST /requests body. Quantity is form text.
type CreateRequestBody struct {
	ListingID string      `json:"listing_id"`
	Quantity  interface{} `json:"quantity"`
}

// POST /api/v1/requests
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body CreateRequestBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listingID, err := uuid.Parse(body.ListingID)
	if err != nil {
		return response.Error(c, "Invalid listing_id", fiber.StatusBadRequest, nil)
	}
	qty, _ := validation.PositiveInt(validation.Text(body.Quantity))
	id, err := h.Engine.CreateRequest(c.UserContext(), middleware.CurrentPrincipal(c), listingID, qty)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.SuccessCreated(c, "Request submitted successfully", fiber.Map{
		"request_id": id,
		"listing_id": listingID,
		"status":     "pending",
	}, nil)
}

// GET /api/v1/requests/mine: a recipient's own requests, or the requests on a donor's listings.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	f := lifecycle.RequestFilter{Status: c.Query("status")}
	if p.IsDonor() {
		f.DonorID = &p.ID
	} else {
		f.RecipientID = &p.ID
	}
	if s := c.Query("listing_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid listing_id", fiber.StatusBadRequest, nil)
		}
		f.ListingID = &id
	}
	reqs, err := h.Engine.ListRequests(c.UserContext(), f)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Requests fetched successfully", reqs, fiber.Map{"count": len(reqs)})
}

// PATCH /api/v1/requests/:request_id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("request_id"))
	if err != nil {
		return response.Error(c, "Invalid request_id format", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.Engine.SetRequestStatus(c.UserContext(), middleware.CurrentPrincipal(c), id, body.Status); err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Request "+body.Status, fiber.Map{"request_id": id, "status": body.Status}, nil)
}
