package auth

import (
	"context"
	"errors"

	authsvc "foodshare-backend/internal/application/auth"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/middleware"
	"foodshare-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// SignUp POST /api/v1/auth/signup: create the account and sign it in.
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req authsvc.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.SignUp(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		case authsvc.IsClientError(err):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		log.Error().Err(err).Msg("auth/signup: create user failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if err := h.startSession(c, user); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Account created", fiber.Map{"user": userBody(user)}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, track it, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	user, err := h.Service.SignIn(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		}
		log.Error().Err(err).Msg("auth/login: lookup failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if err := h.startSession(c, user); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": userBody(user)}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) error {
	sessionID := middleware.RegenerateSessionID(c)
	userID := user.UserID.String()
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   userID,
		Fullname: user.Fullname,
		Email:    user.Email,
		Role:     user.UserType,
	})

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, middleware.UserSessionsPrefix+userID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("auth: track session failed")
		return err
	}
	if err := h.Service.PublishSessionEvent(ctx, authsvc.SessionEvent{
		Type: authsvc.SessionSignedIn, UserID: userID, SessionID: sessionID,
	}); err != nil {
		log.Warn().Err(err).Msg("auth: publish session event failed")
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = middleware.SignSessionID(sessionID, h.Config.Secret)
	c.Cookie(&cookie)
	return nil
}

func userBody(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":  u.UserID.String(),
		"fullname": u.Fullname,
		"email":    u.Email,
		"role":     u.UserType,
	}
}

// Me GET /api/v1/auth/me: current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Debug().Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: untrack and delete the session, clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	var userID string
	if m, ok := middleware.GetUser(c).(map[string]interface{}); ok {
		userID, _ = m["user_id"].(string)
	}
	if userID != "" && sessionID != "" {
		_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+userID, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)
	if userID != "" {
		if err := h.Service.PublishSessionEvent(ctx, authsvc.SessionEvent{
			Type: authsvc.SessionSignedOut, UserID: userID, SessionID: sessionID,
		}); err != nil {
			log.Warn().Err(err).Msg("auth: publish session event failed")
		}
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: sign the user out of every device.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	n, err := h.Service.DestroyUserSessions(context.Background(), user.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.UserID).Msg("auth: destroy sessions failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Signed out of all sessions", fiber.Map{"sessions_ended": n}, nil)
}
