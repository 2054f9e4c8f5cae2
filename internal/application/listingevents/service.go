package listingevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrNotOwner        = errors.New("Only the listing owner can view its history")
)

type Service struct {
	DB *gorm.DB
}

// Record writes one event using tx, so it commits or rolls back with the change it describes.
func Record(tx *gorm.DB, listingID, actorID uuid.UUID, eventType string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := tx.Create(&domain.ListingEvent{
		ListingID: listingID,
		ActorID:   actorID,
		EventType: eventType,
		EventData: datatypes.JSON(b),
	}).Error; err != nil {
		return fmt.Errorf("Failed to create listing event: %v", err)
	}
	return nil
}

// ListForOwner returns a listing's events, oldest first. Only the owner may read them.
func (s *Service) ListForOwner(ctx context.Context, listingID, userID uuid.UUID) ([]domain.ListingEvent, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Select("id", "owner_id").Where("id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !listing.IsOwnedBy(userID) {
		return nil, ErrNotOwner
	}

	var events []domain.ListingEvent
	if err := s.DB.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Limit(constants.ListingEventLimit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
