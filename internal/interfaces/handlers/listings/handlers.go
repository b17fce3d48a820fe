package listings

import (
	"context"
	"strings"
	"time"

	"foodshare-backend/internal/application/lifecycle"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/response"
	"foodshare-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProfileLookup resolves the caller's profile for location=mine.
type ProfileLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type Handlers struct {
	Engine   *lifecycle.Engine
	Profiles ProfileLookup
}

// Form input arrives as text; datetime-local values carry no zone and are read as UTC.
var expiryLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseExpiry(v interface{}) time.Time {
	s := strings.TrimSpace(asString(v))
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseQuantity returns 0 for anything that is not a positive integer; the engine rejects it.
func parseQuantity(v interface{}) int {
	n, _ := validation.PositiveInt(asString(v))
	return n
}

func asString(v interface{}) string {
	return validation.Text(v)
}

func listingID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("listing_id"))
	return id, err == nil
}

// POST /api/v1/listings
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	id, err := h.Engine.CreateListing(c.UserContext(), middleware.CurrentPrincipal(c), lifecycle.ListingFields{
		Title:       asString(body["title"]),
		Description: asString(body["description"]),
		Quantity:    parseQuantity(body["quantity"]),
		Unit:        asString(body["unit"]),
		EventType:   asString(body["event_type"]),
		Location:    asString(body["location"]),
		ExpiryTime:  parseExpiry(body["expiry_time"]),
	})
	if err != nil {
		return response.EngineError(c, err)
	}
	listing, err := h.Engine.GetListing(c.UserContext(), id)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// GET /api/v1/listings
func (h *Handlers) Browse(c *fiber.Ctx) error {
	f := lifecycle.ListingFilter{
		Status:    c.Query("status"),
		EventType: c.Query("event_type"),
		Location:  c.Query("location"),
		Search:    c.Query("q"),
		Sort:      c.Query("sort"),
	}
	if s := c.Query("donor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid donor_id", fiber.StatusBadRequest, nil)
		}
		f.DonorID = &id
	}
	f.ActiveOnly = f.Status == "" && c.Query("include_expired") != "true"

	if f.Location == "mine" {
		f.Location = ""
		if p := middleware.CurrentPrincipal(c); p != nil && h.Profiles != nil {
			if u, err := h.Profiles.Get(c.UserContext(), p.ID); err == nil {
				f.Location = u.Address
			}
		}
	}

	listings, err := h.Engine.ListListings(c.UserContext(), f)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listings, err := h.Engine.ListListings(c.UserContext(), lifecycle.ListingFilter{
		DonorID: &p.ID,
		Status:  c.Query("status"),
		Sort:    c.Query("sort"),
	})
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// GET /api/v1/listings/locations
func (h *Handlers) Locations(c *fiber.Ctx) error {
	locations, err := h.Engine.ListLocations(c.UserContext())
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Locations fetched successfully", locations, nil)
}

// GET /api/v1/listings/:listing_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Engine.GetListing(c.UserContext(), id)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// PUT /api/v1/listings/:listing_id
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	var in lifecycle.ListingEdit
	text := func(key string) *string {
		v, present := body[key]
		if !present {
			return nil
		}
		s := asString(v)
		return &s
	}
	in.Title = text("title")
	in.Description = text("description")
	in.Location = text("location")
	in.Unit = text("unit")
	in.EventType = text("event_type")
	if v, present := body["quantity"]; present {
		q := parseQuantity(v)
		in.Quantity = &q
	}
	if v, present := body["expiry_time"]; present {
		t := parseExpiry(v)
		in.ExpiryTime = &t
	}

	listing, err := h.Engine.EditListing(c.UserContext(), middleware.CurrentPrincipal(c), id, in)
	if err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// POST /api/v1/listings/:listing_id/complete
func (h *Handlers) Complete(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Engine.CompleteListing(c.UserContext(), middleware.CurrentPrincipal(c), id); err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listing marked as completed", fiber.Map{"listing_id": id}, nil)
}

// DELETE /api/v1/listings/:listing_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Engine.DeleteListing(c.UserContext(), middleware.CurrentPrincipal(c), id); err != nil {
		return response.EngineError(c, err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"listing_id": id}, nil)
}
