package listings

import (
	"errors"
	"mime/multipart"
	"strings"

	"homesocial-backend/internal/application/comments"
	"homesocial-backend/internal/application/listingevents"
	listsvc "homesocial-backend/internal/application/listings"
	"homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/middleware"
	"homesocial-backend/internal/pkg/response"
	"homesocial-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service  *listsvc.Service
	Comments *comments.Service
	EventLog *listingevents.Service
}

var statusByErr = map[error]int{
	listsvc.ErrListingNotFound:       fiber.StatusNotFound,
	listsvc.ErrNotOwner:              fiber.StatusForbidden,
	listsvc.ErrInvalidStatus:         fiber.StatusConflict,
	listingevents.ErrListingNotFound: fiber.StatusNotFound,
	listingevents.ErrNotOwner:        fiber.StatusForbidden,
	domain.ErrMediaNotFound:          fiber.StatusNotFound,
	uploads.ErrInvalidKind:           fiber.StatusBadRequest,
}

var fieldByErr = map[error]string{
	uploads.ErrNotVideo:         "video",
	uploads.ErrNotImage:         "photos",
	domain.ErrThumbnailNotPhoto: "thumbnail_url",
	domain.ErrMediaKindConflict: "video_urls",
}

// fail maps service errors to responses. Unknown errors surface their
// message when exposeRaw is set (composer), otherwise a generic 500.
func fail(c *fiber.Ctx, err error, exposeRaw bool) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return response.FieldError(c, fe.Field, fe.Message)
	}
	for target, field := range fieldByErr {
		if errors.Is(err, target) {
			return response.FieldError(c, field, err.Error())
		}
	}
	for target, status := range statusByErr {
		if errors.Is(err, target) {
			return response.Error(c, err.Error(), status, nil)
		}
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("listings: request failed")
	if exposeRaw {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func listingID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func openFiles(headers []*multipart.FileHeader) ([]uploads.File, func(), error) {
	var files []uploads.File
	var closers []multipart.File
	closeAll := func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		if fh == nil || fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, f)
		files = append(files, uploads.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, closeAll, nil
}

// Create POST /api/v1/listings (multipart: listing fields, optional video, zero or more photos).
func (h *Handlers) Create(c *fiber.Ctx) error {
	ownerID, _ := middleware.CurrentUserID(c)
	in, err := listsvc.ParseForm(func(key string) string { return c.FormValue(key) })
	if err != nil {
		return fail(c, err, false)
	}

	var videoHeaders, photoHeaders []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		videoHeaders = form.File["video"]
		photoHeaders = form.File["photos"]
	}
	if len(videoHeaders) > 1 {
		return response.FieldError(c, "video", "Only one video can be attached")
	}
	videos, closeVideos, err := openFiles(videoHeaders)
	if err != nil {
		return fail(c, err, true)
	}
	defer closeVideos()
	photos, closePhotos, err := openFiles(photoHeaders)
	if err != nil {
		return fail(c, err, true)
	}
	defer closePhotos()

	compose := listsvc.ComposeInput{Listing: in, Photos: photos}
	if len(videos) == 1 {
		compose.Video = &videos[0]
	}
	listing, err := h.Service.Compose(c.Context(), ownerID, compose)
	if err != nil {
		return fail(c, err, true)
	}
	return response.SuccessCreated(c, "Listing published", fiber.Map{
		"listing":  listing,
		"redirect": "/listing/" + listing.ID.String(),
	}, nil)
}

// Mine GET /api/v1/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	ownerID, _ := middleware.CurrentUserID(c)
	rows, err := h.Service.ListByOwner(c.Context(), ownerID)
	if err != nil {
		return fail(c, err, false)
	}
	return response.Success(c, "Listings fetched", rows, fiber.Map{"count": len(rows)})
}

// Detail GET /api/v1/listings/:id (public): the listing, its media and recent comments.
func (h *Handlers) Detail(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	listing, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return fail(c, err, false)
	}
	list, err := h.Comments.List(c.Context(), id)
	if err != nil {
		return fail(c, err, false)
	}
	_, signedIn := middleware.CurrentUserID(c)
	return response.Success(c, "Listing fetched", fiber.Map{
		"listing":      listing,
		"hero":         domain.HeroMedia(listing.Media),
		"comments":     list,
		"can_edit":     listing.IsOwnedBy(currentUser(c)),
		"can_interact": signedIn,
	}, nil)
}

func currentUser(c *fiber.Ctx) uuid.UUID {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// Edit GET /api/v1/listings/:id/edit
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	view, err := h.Service.GetForEdit(c.Context(), id, currentUser(c))
	if err != nil {
		return fail(c, err, false)
	}
	return response.Success(c, "Listing fetched", view, nil)
}

// Update PUT /api/v1/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var in listsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	view, err := h.Service.Update(c.Context(), id, currentUser(c), in)
	if err != nil {
		return fail(c, err, false)
	}
	return response.Success(c, "Listing updated", fiber.Map{
		"listing":  view,
		"redirect": "/listing/" + id.String(),
	}, nil)
}

// AddMedia POST /api/v1/listings/:id/media (multipart: file, kind)
func (h *Handlers) AddMedia(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	kind := domain.MediaType(strings.ToLower(strings.TrimSpace(c.FormValue("kind"))))
	fh, err := c.FormFile("file")
	if err != nil {
		return response.FieldError(c, "file", "file is required")
	}
	files, closeFiles, err := openFiles([]*multipart.FileHeader{fh})
	if err != nil {
		return fail(c, err, false)
	}
	defer closeFiles()
	if len(files) == 0 {
		return response.FieldError(c, "file", "file is required")
	}
	view, err := h.Service.AddMedia(c.Context(), id, currentUser(c), kind, files[0])
	if err != nil {
		return fail(c, err, false)
	}
	return response.SuccessCreated(c, "Media added", view, nil)
}

type removeMediaRequest struct {
	URL string `json:"url"`
}

// RemoveMedia DELETE /api/v1/listings/:id/media {url}
func (h *Handlers) RemoveMedia(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	var req removeMediaRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return response.FieldError(c, "url", "url is required")
	}
	view, err := h.Service.RemoveMedia(c.Context(), id, currentUser(c), strings.TrimSpace(req.URL))
	if err != nil {
		return fail(c, err, false)
	}
	return response.Success(c, "Media removed", view, nil)
}

// Events GET /api/v1/listings/:id/events (owner only)
func (h *Handlers) Events(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, listsvc.ErrListingNotFound.Error(), fiber.StatusNotFound, nil)
	}
	events, err := h.EventLog.ListForOwner(c.Context(), id, currentUser(c))
	if err != nil {
		return fail(c, err, false)
	}
	return response.Success(c, "Listing events fetched", events, fiber.Map{"count": len(events)})
}
