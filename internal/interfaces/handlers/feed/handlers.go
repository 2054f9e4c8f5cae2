package feed

import (
	feedsvc "homesocial-backend/internal/application/feed"
	"homesocial-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *feedsvc.Service
}

// List GET /api/v1/feed?q=
func (h *Handlers) List(c *fiber.Ctx) error {
	q := c.Query("q")
	cards, err := h.Service.Search(c.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("feed: query failed")
		return response.Error(c, "Could not load listings", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Feed fetched", cards, fiber.Map{"count": len(cards), "q": q})
}
