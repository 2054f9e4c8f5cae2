package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Media is a photo or video attached to a listing. StorageBucket and StoragePath
// are empty for media that was linked by URL rather than uploaded.
type Media struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID     uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	Type          MediaType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	StorageBucket string    `gorm:"column:storage_bucket" json:"storage_bucket"`
	StoragePath   string    `gorm:"column:storage_path" json:"storage_path"`
	URL           string    `gorm:"column:url;not null" json:"url"`
	ThumbnailPath *string   `gorm:"column:thumbnail_path" json:"thumbnail_path"`
	SortOrder     int       `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Media) TableName() string {
	return "media"
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Uploaded reports whether the media is backed by a stored object.
func (m Media) Uploaded() bool {
	return m.StorageBucket != "" && m.StoragePath != ""
}

// SortMedia orders media by sort_order, keeping insertion order for ties.
func SortMedia(media []Media) {
	sort.SliceStable(media, func(i, j int) bool {
		return media[i].SortOrder < media[j].SortOrder
	})
}

// Resequence puts videos ahead of photos and renumbers sort_order from 0.
// Relative order inside each type is preserved.
func Resequence(media []Media) {
	SortMedia(media)
	sort.SliceStable(media, func(i, j int) bool {
		return media[i].Type == MediaVideo && media[j].Type != MediaVideo
	})
	for i := range media {
		media[i].SortOrder = i
	}
}

// HeroMedia picks the primary media for a listing card: the first video,
// else the first photo, else nil (placeholder).
func HeroMedia(media []Media) *Media {
	sorted := make([]Media, len(media))
	copy(sorted, media)
	SortMedia(sorted)
	for i := range sorted {
		if sorted[i].Type == MediaVideo {
			return &sorted[i]
		}
	}
	for i := range sorted {
		if sorted[i].Type == MediaPhoto {
			return &sorted[i]
		}
	}
	return nil
}
