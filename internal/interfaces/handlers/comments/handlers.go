package comments

import (
	"errors"

	commentsvc "homesocial-backend/internal/application/comments"
	"homesocial-backend/internal/middleware"
	"homesocial-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *commentsvc.Service
}

type postRequest struct {
	Body string `json:"body"`
}

// Post POST /api/v1/listings/:id/comments
func (h *Handlers) Post(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, commentsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	userID, _ := middleware.CurrentUserID(c)
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return response.FieldError(c, "body", commentsvc.ErrEmptyBody.Error())
	}
	list, err := h.Service.Post(c.Context(), listingID, userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, commentsvc.ErrEmptyBody), errors.Is(err, commentsvc.ErrBodyTooLong):
			return response.FieldError(c, "body", err.Error())
		case errors.Is(err, commentsvc.ErrListingNotFound):
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		default:
			log.Error().Err(err).Str("listing_id", listingID.String()).Msg("comments: post failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.SuccessCreated(c, "Comment posted", list, fiber.Map{"count": len(list)})
}
