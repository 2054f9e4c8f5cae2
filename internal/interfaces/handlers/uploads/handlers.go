package uploads

import (
	"errors"

	uploadsvc "homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers holds the upload service.
type Handlers struct {
	Service *uploadsvc.Service
}

type signRequest struct {
	ListingID string `json:"listing_id"`
	Kind      string `json:"kind"`
	FileName  string `json:"file_name"`
}

// Sign POST /api/v1/uploads/sign returns a direct-upload URL for listing media.
// Without a listing_id a fresh one is generated for a listing not created yet.
func (h *Handlers) Sign(c *fiber.Ctx) error {
	var req signRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listingID := uuid.New()
	if req.ListingID != "" {
		id, err := uuid.Parse(req.ListingID)
		if err != nil {
			return response.FieldError(c, "listing_id", "listing_id must be a valid id")
		}
		listingID = id
	}
	res, err := h.Service.SignUpload(c.Context(), listingID, domain.MediaType(req.Kind), req.FileName)
	if err != nil {
		switch {
		case errors.Is(err, uploadsvc.ErrFileRequired):
			return response.FieldError(c, "file_name", err.Error())
		case errors.Is(err, uploadsvc.ErrInvalidKind):
			return response.FieldError(c, "kind", err.Error())
		default:
			log.Error().Err(err).Msg("uploads: sign failed")
			return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Upload URL created", fiber.Map{
		"listing_id": listingID,
		"upload":     res,
	}, nil)
}
