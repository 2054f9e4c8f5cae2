package auth

import (
	"context"
	"errors"

	authsvc "homesocial-backend/internal/application/auth"
	"homesocial-backend/internal/middleware"
	"homesocial-backend/internal/pkg/response"
	"homesocial-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service    *authsvc.Service
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// startSession opens a fresh session for the account and sets the cookie.
func (h *Handlers) startSession(c *fiber.Ctx, acct *authsvc.Account) (fiber.Map, error) {
	sessionID := middleware.RegenerateSessionID(c)
	user := middleware.SessionUser{
		UserID: acct.User.ID.String(),
		Email:  acct.User.Email,
		Role:   string(acct.Role),
	}
	middleware.SetSessionUser(c, user)
	if err := h.Rdb.SAdd(context.Background(), middleware.UserSessionsPrefix+user.UserID, sessionID).Err(); err != nil {
		return nil, err
	}
	c.Cookie(middleware.SessionCookie(h.Config, sessionID))
	return fiber.Map{"user": user}, nil
}

// Signup POST /api/v1/auth/signup
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var req authsvc.Credentials
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	acct, err := h.Service.SignUp(c.Context(), req)
	if err != nil {
		var fe *validation.FieldError
		switch {
		case errors.As(err, &fe):
			return response.FieldError(c, fe.Field, fe.Message)
		case errors.Is(err, authsvc.ErrEmailTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		default:
			log.Error().Err(err).Msg("auth: signup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	data, err := h.startSession(c, acct)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Account created", data, nil)
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.Credentials
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	acct, err := h.UserFinder.FindByEmailAndPassword(req.Email, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrInvalidEmail, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Msg("auth: login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	data, err := h.startSession(c, acct)
	if err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", data, nil)
}

// Session GET /api/v1/auth/session is the session gate: the signed-in user, or 401 with a redirect.
func (h *Handlers) Session(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if sessionID != "" {
		if uid, ok := middleware.CurrentUserID(c); ok {
			_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+uid.String(), sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)
	c.Cookie(middleware.SessionCookie(h.Config, ""))
	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions ends every session of the signed-in user.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	if err := middleware.DestroyUserSessions(context.Background(), h.Rdb, uid.String()); err != nil {
		log.Error().Err(err).Str("user_id", uid.String()).Msg("auth: logout all failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	middleware.DestroySession(c)
	c.Cookie(middleware.SessionCookie(h.Config, ""))
	return response.Success(c, "Logged out of all sessions", nil, nil)
}
