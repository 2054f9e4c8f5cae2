package listings

import (
	"context"
	"fmt"

	"homesocial-backend/internal/application/listingevents"
	"homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EditView is the editor form: the mutable fields plus the media set.
type EditView struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Price       float64              `json:"price"`
	Beds        int                  `json:"beds"`
	Baths       float64              `json:"baths"`
	Sqft        *float64             `json:"sqft"`
	Address     string               `json:"address"`
	City        string               `json:"city"`
	State       string               `json:"state"`
	Zip         string               `json:"zip"`
	Description *string              `json:"description"`
	Status      domain.ListingStatus `json:"status"`
	domain.MediaSet
}

func newEditView(l *domain.Listing) *EditView {
	return &EditView{
		ID:          l.ID,
		Title:       l.Title,
		Price:       l.Price,
		Beds:        l.Beds,
		Baths:       l.Baths,
		Sqft:        l.Sqft,
		Address:     l.Address,
		City:        l.City,
		State:       l.State,
		Zip:         l.Zip,
		Description: l.Description,
		Status:      l.Status,
		MediaSet:    *domain.MediaSetFromRows(l.Media, l.ThumbnailURL),
	}
}

// UpdateInput is the editor's save: every field plus the full media arrays.
type UpdateInput struct {
	ListingInput
	PhotoURLs    []string `json:"photo_urls"`
	VideoURLs    []string `json:"video_urls"`
	ThumbnailURL *string  `json:"thumbnail_url"`
}

// GetForEdit returns the editor form for a listing the user owns.
func (s *Service) GetForEdit(ctx context.Context, id, userID uuid.UUID) (*EditView, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return newEditView(listing), nil
}

// Update saves the whole editor form. Media rows are replaced to match the
// submitted arrays: matching rows are kept, missing ones deleted, new URLs added.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, in UpdateInput) (*EditView, error) {
	if err := in.ListingInput.Validate(); err != nil {
		return nil, err
	}
	set, err := domain.NewMediaSet(in.PhotoURLs, in.VideoURLs, in.ThumbnailURL)
	if err != nil {
		return nil, err
	}
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// A stored file keeps the kind it was uploaded as.
	existing := map[string]domain.Media{}
	for _, m := range listing.Media {
		if kind, ok := set.KindOf(m.URL); ok && kind != m.Type {
			field := "photo_urls"
			if kind == domain.MediaVideo {
				field = "video_urls"
			}
			return nil, &validation.FieldError{Field: field, Tag: "kind", Message: ErrMediaKindChanged.Error()}
		}
		existing[m.URL] = m
	}
	var next, added []domain.Media
	keep := map[uuid.UUID]bool{}
	place := func(kind domain.MediaType, url string) {
		if m, ok := existing[url]; ok && !keep[m.ID] {
			keep[m.ID] = true
			next = append(next, m)
			return
		}
		m := domain.Media{ID: uuid.New(), ListingID: id, Type: kind, URL: url}
		next = append(next, m)
		added = append(added, m)
	}
	for _, u := range set.Videos {
		place(domain.MediaVideo, u)
	}
	for _, u := range set.Photos {
		place(domain.MediaPhoto, u)
	}
	var removed []domain.Media
	for _, m := range listing.Media {
		if !keep[m.ID] {
			removed = append(removed, m)
		}
	}
	before := orderOf(listing.Media)
	for i := range next {
		next[i].SortOrder = i
	}
	newIDs := map[uuid.UUID]bool{}
	for _, m := range added {
		newIDs[m.ID] = true
	}

	cols := in.ListingInput.columns()
	cols["thumbnail_url"] = set.Thumbnail

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	res := tx.Model(&domain.Listing{}).Where("id = ? AND owner_id = ?", id, userID).Updates(cols)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("Failed to update listing: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrNotOwner
	}
	for _, m := range removed {
		if err := tx.Where("id = ?", m.ID).Delete(&domain.Media{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	var kept []domain.Media
	for _, m := range next {
		if newIDs[m.ID] {
			if err := tx.Create(&m).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			continue
		}
		kept = append(kept, m)
	}
	if err := saveOrder(tx, before, kept); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := listingevents.Record(tx, id, userID, domain.EventUpdated, map[string]interface{}{
		"photo_count":   len(set.Photos),
		"video_count":   len(set.Videos),
		"media_added":   len(added),
		"media_removed": len(removed),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("Failed to update listing: %v", err)
	}

	var orphaned []domain.Media
	for _, m := range removed {
		if !set.Contains(m.URL) {
			orphaned = append(orphaned, m)
		}
	}
	s.removeBlobs(orphaned)
	return s.GetForEdit(ctx, id, userID)
}

// AddMedia uploads one file and appends it to the listing.
// The first photo on a listing without a thumbnail becomes the thumbnail.
func (s *Service) AddMedia(ctx context.Context, id, userID uuid.UUID, kind domain.MediaType, f uploads.File) (*EditView, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	obj, err := s.Uploads.UploadListingMedia(ctx, id, kind, f)
	if err != nil {
		return nil, err
	}
	cleanup := func() { s.Uploads.RemoveObjects(context.Background(), []uploads.StoredObject{*obj}) }

	before := orderOf(listing.Media)
	m := domain.Media{
		ID:            uuid.New(),
		ListingID:     id,
		Type:          obj.Type,
		StorageBucket: obj.Bucket,
		StoragePath:   obj.Path,
		URL:           obj.URL,
		SortOrder:     len(listing.Media),
	}
	rows := append(append([]domain.Media{}, listing.Media...), m)
	domain.Resequence(rows)

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			cleanup()
		}
	}()
	for _, r := range rows {
		if r.ID == m.ID {
			m = r
		}
	}
	if err := tx.Create(&m).Error; err != nil {
		tx.Rollback()
		cleanup()
		return nil, fmt.Errorf("Failed to save listing media: %v", err)
	}
	if err := saveOrder(tx, before, rows); err != nil {
		tx.Rollback()
		cleanup()
		return nil, err
	}
	if kind == domain.MediaPhoto && listing.ThumbnailURL == nil {
		if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Update("thumbnail_url", obj.URL).Error; err != nil {
			tx.Rollback()
			cleanup()
			return nil, err
		}
	}
	if err := listingevents.Record(tx, id, userID, domain.EventMediaAdded, map[string]interface{}{
		"type": kind,
		"url":  obj.URL,
	}); err != nil {
		tx.Rollback()
		cleanup()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		cleanup()
		return nil, err
	}
	return s.GetForEdit(ctx, id, userID)
}

// RemoveMedia detaches one media URL. Removing the thumbnail photo falls back
// to the first remaining photo, or clears it when none remain.
func (s *Service) RemoveMedia(ctx context.Context, id, userID uuid.UUID, url string) (*EditView, error) {
	listing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	set := domain.MediaSetFromRows(listing.Media, listing.ThumbnailURL)
	if err := set.Remove(url); err != nil {
		return nil, err
	}

	before := orderOf(listing.Media)
	var target domain.Media
	var rows []domain.Media
	for _, m := range listing.Media {
		if m.URL == url && target.ID == uuid.Nil {
			target = m
			continue
		}
		rows = append(rows, m)
	}
	domain.Resequence(rows)

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Where("id = ?", target.ID).Delete(&domain.Media{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := saveOrder(tx, before, rows); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&domain.Listing{}).Where("id = ?", id).Update("thumbnail_url", set.Thumbnail).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := listingevents.Record(tx, id, userID, domain.EventMediaRemoved, map[string]interface{}{
		"type": target.Type,
		"url":  url,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.removeBlobs([]domain.Media{target})
	return s.GetForEdit(ctx, id, userID)
}

// removeBlobs deletes storage objects for media rows that no longer exist.
func (s *Service) removeBlobs(rows []domain.Media) {
	objs := storedObjects(rows)
	if len(objs) == 0 || s.Uploads == nil {
		return
	}
	log.Debug().Int("count", len(objs)).Msg("listings: removing detached media blobs")
	s.Uploads.RemoveObjects(context.Background(), objs)
}
