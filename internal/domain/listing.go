package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	StatusDraft   ListingStatus = "draft"
	StatusActive  ListingStatus = "active"
	StatusPending ListingStatus = "pending"
	StatusSold    ListingStatus = "sold"
)

// transitions lists the lifecycle edges that are actually produced.
// pending and sold are valid stored values but nothing moves a listing there yet.
var transitions = map[ListingStatus][]ListingStatus{
	StatusDraft: {StatusActive},
}

// CanTransition reports whether a listing may move from one status to another.
func CanTransition(from, to ListingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Listing is a property for sale. OwnerID is set on create and never changes.
type Listing struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID     `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Title        string        `gorm:"column:title;not null" json:"title"`
	Price        float64       `gorm:"column:price;type:numeric(14,2);not null" json:"price"`
	Beds         int           `gorm:"column:beds;not null" json:"beds"`
	Baths        float64       `gorm:"column:baths;type:numeric(4,1);not null" json:"baths"`
	Sqft         *float64      `gorm:"column:sqft" json:"sqft"`
	Address      string        `gorm:"column:address;not null" json:"address"`
	City         string        `gorm:"column:city;not null" json:"city"`
	State        string        `gorm:"column:state;type:char(2);not null" json:"state"`
	Zip          string        `gorm:"column:zip;type:varchar(10);not null" json:"zip"`
	Description  *string       `gorm:"column:description" json:"description"`
	Status       ListingStatus `gorm:"column:status;type:varchar(20);not null;default:'draft';index" json:"status"`
	ThumbnailURL *string       `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	Media        []Media       `gorm:"foreignKey:ListingID" json:"media"`
	CreatedAt    time.Time     `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets the id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsOwnedBy reports whether userID owns the listing.
func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l != nil && userID != uuid.Nil && l.OwnerID == userID
}
