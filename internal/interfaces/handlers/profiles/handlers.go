package profiles

import (
	"errors"

	profilesvc "foodshare-backend/internal/application/profiles"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *profilesvc.Service
}

// UpdateBody is the PUT /profiles/me body; omitted fields stay unchanged.
type UpdateBody struct {
	Fullname         *string `json:"fullname"`
	OrganizationName *string `json:"organization_name"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
}

// GET /api/v1/profiles/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.Get(c.UserContext(), p.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Profile fetched successfully", u, nil)
}

// PUT /api/v1/profiles/me
func (h *Handlers) Update(c *fiber.Ctx) error {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body UpdateBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.Update(c.UserContext(), p.ID, domain.ProfileUpdate{
		Fullname:         body.Fullname,
		OrganizationName: body.OrganizationName,
		Phone:            body.Phone,
		Address:          body.Address,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if body.Fullname != nil {
		user, _ := middleware.GetUser(c).(map[string]interface{})
		middleware.SetSessionUser(c, middleware.SessionUser{
			UserID:   u.UserID.String(),
			Fullname: u.Fullname,
			Email:    u.Email,
			Role:     asString(user["role"]),
		})
	}
	return response.Success(c, "Profile updated successfully", u, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case profilesvc.IsClientError(err):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	log.Error().Err(err).Msg("profiles: store failure")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
