package profiles

import (
	"errors"

	profilesvc "homesocial-backend/internal/application/profiles"
	"homesocial-backend/internal/middleware"
	"homesocial-backend/internal/pkg/response"
	"homesocial-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *profilesvc.Service
	// Rdb, when set, carries a role change into the user's other sessions.
	Rdb *redis.Client
}

// Get GET /api/v1/profile
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	view, err := h.Service.Get(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("profiles: load failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Profile fetched", view, nil)
}

// Save PUT /api/v1/profile
func (h *Handlers) Save(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var in profilesvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Upsert(c.Context(), userID, middleware.CurrentUserEmail(c), in)
	if err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			return response.FieldError(c, fe.Field, fe.Message)
		}
		log.Error().Err(err).Msg("profiles: save failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if data, ok := c.Locals("session_data").(map[string]interface{}); ok {
		if u, ok := data["user"].(map[string]interface{}); ok {
			u["role"] = string(p.Role)
		}
	}
	if err := middleware.SetRoleInUserSessions(c.Context(), h.Rdb, userID.String(), string(p.Role)); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("profiles: session role refresh failed")
	}
	return response.Success(c, "Profile saved", fiber.Map{"exists": true, "profile": p}, nil)
}
