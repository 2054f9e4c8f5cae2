package listings

import (
	"context"
	"errors"

	"homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns listings and their media rows.
type Service struct {
	DB      *gorm.DB
	Uploads *uploads.Service
}

func orderedMedia(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC")
}

// Get loads a listing with its media in display order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.DB.WithContext(ctx).Preload("Media", orderedMedia).Where("id = ?", id).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	domain.SortMedia(listing.Media)
	return &listing, nil
}

// ListByOwner returns every listing the user owns, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error) {
	listings := []domain.Listing{}
	if err := s.DB.WithContext(ctx).
		Preload("Media", orderedMedia).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// getOwned loads a listing for mutation by userID.
func (s *Service) getOwned(ctx context.Context, id, userID uuid.UUID) (*domain.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(userID) {
		return nil, ErrNotOwner
	}
	return listing, nil
}

// saveOrder writes back sort_order for rows whose position changed.
func saveOrder(tx *gorm.DB, before map[uuid.UUID]int, rows []domain.Media) error {
	for _, m := range rows {
		if old, ok := before[m.ID]; ok && old == m.SortOrder {
			continue
		}
		if err := tx.Model(&domain.Media{}).Where("id = ?", m.ID).Update("sort_order", m.SortOrder).Error; err != nil {
			return err
		}
	}
	return nil
}

func orderOf(rows []domain.Media) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(rows))
	for _, m := range rows {
		out[m.ID] = m.SortOrder
	}
	return out
}

func storedObjects(rows []domain.Media) []uploads.StoredObject {
	var out []uploads.StoredObject
	for _, m := range rows {
		if m.Uploaded() {
			out = append(out, uploads.StoredObject{Type: m.Type, Bucket: m.StorageBucket, Path: m.StoragePath, URL: m.URL})
		}
	}
	return out
}
