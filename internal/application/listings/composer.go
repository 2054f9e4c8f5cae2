package listings

import (
	"context"
	"fmt"

	"homesocial-backend/internal/application/listingevents"
	"homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/domain"

	"github.com/google/uuid"
)

// ComposeInput is a new listing with the files picked in the composer.
type ComposeInput struct {
	Listing ListingInput
	Video   *uploads.File
	Photos  []uploads.File
}

// Compose creates and publishes a listing. Blobs are uploaded first under a
// pre-generated listing id; the rows and events are then written in one
// transaction. If anything fails, the uploaded blobs are removed again.
func (s *Service) Compose(ctx context.Context, ownerID uuid.UUID, in ComposeInput) (*domain.Listing, error) {
	if err := in.Listing.Validate(); err != nil {
		return nil, err
	}
	if in.Video != nil {
		if err := uploads.CheckKind(domain.MediaVideo, *in.Video); err != nil {
			return nil, err
		}
	}
	for _, p := range in.Photos {
		if err := uploads.CheckKind(domain.MediaPhoto, p); err != nil {
			return nil, err
		}
	}

	listingID := uuid.New()
	var stored []uploads.StoredObject
	cleanup := func() {
		if len(stored) > 0 {
			s.Uploads.RemoveObjects(context.Background(), stored)
		}
	}

	if in.Video != nil {
		obj, err := s.Uploads.UploadListingMedia(ctx, listingID, domain.MediaVideo, *in.Video)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, *obj)
	}
	for _, p := range in.Photos {
		obj, err := s.Uploads.UploadListingMedia(ctx, listingID, domain.MediaPhoto, p)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, *obj)
	}

	media := make([]domain.Media, 0, len(stored))
	var thumbnail *string
	photoOffset := 0
	if in.Video != nil {
		photoOffset = 1
	}
	photoIdx := 0
	for _, obj := range stored {
		m := domain.Media{
			ListingID:     listingID,
			Type:          obj.Type,
			StorageBucket: obj.Bucket,
			StoragePath:   obj.Path,
			URL:           obj.URL,
		}
		if obj.Type == domain.MediaPhoto {
			m.SortOrder = photoOffset + photoIdx
			photoIdx++
			if thumbnail == nil {
				u := obj.URL
				thumbnail = &u
			}
		}
		media = append(media, m)
	}

	f := in.Listing
	listing := &domain.Listing{
		ID:           listingID,
		OwnerID:      ownerID,
		Title:        f.Title,
		Price:        *f.Price,
		Beds:         *f.Beds,
		Baths:        *f.Baths,
		Sqft:         f.Sqft,
		Address:      f.Address,
		City:         f.City,
		State:        f.State,
		Zip:          f.Zip,
		Description:  f.Description,
		Status:       domain.StatusDraft,
		ThumbnailURL: thumbnail,
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			cleanup()
		}
	}()
	fail := func(err error) (*domain.Listing, error) {
		tx.Rollback()
		cleanup()
		return nil, err
	}

	if err := tx.Create(listing).Error; err != nil {
		return fail(fmt.Errorf("Failed to create listing: %v", err))
	}
	if len(media) > 0 {
		if err := tx.Create(&media).Error; err != nil {
			return fail(fmt.Errorf("Failed to save listing media: %v", err))
		}
	}
	if err := listingevents.Record(tx, listingID, ownerID, domain.EventCreated, map[string]interface{}{
		"title":       listing.Title,
		"price":       listing.Price,
		"media_count": len(media),
	}); err != nil {
		return fail(err)
	}
	if !domain.CanTransition(listing.Status, domain.StatusActive) {
		return fail(ErrInvalidStatus)
	}
	if err := tx.Model(listing).Update("status", domain.StatusActive).Error; err != nil {
		return fail(fmt.Errorf("Failed to publish listing: %v", err))
	}
	if err := listingevents.Record(tx, listingID, ownerID, domain.EventPublished, map[string]interface{}{
		"from": domain.StatusDraft,
		"to":   domain.StatusActive,
	}); err != nil {
		return fail(err)
	}
	if err := tx.Commit().Error; err != nil {
		cleanup()
		return nil, fmt.Errorf("Failed to create listing: %v", err)
	}

	listing.Status = domain.StatusActive
	listing.Media = media
	return listing, nil
}
