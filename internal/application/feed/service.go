package feed

import (
	"context"
	"strings"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hero kinds shown on a card.
const (
	HeroVideo       = "video"
	HeroPhoto       = "photo"
	HeroPlaceholder = "placeholder"
)

// Hero is the primary media of a card.
type Hero struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Card is one feed entry.
type Card struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	Beds         int       `json:"beds"`
	Baths        float64   `json:"baths"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Hero         Hero      `json:"hero"`
}

// Service reads the public feed.
type Service struct {
	DB *gorm.DB
}

// Active returns the newest active listings with their media.
func (s *Service) Active(ctx context.Context) ([]domain.Listing, error) {
	rows := []domain.Listing{}
	if err := s.DB.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("status = ?", domain.StatusActive).
		Order("created_at DESC").
		Limit(constants.FeedLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FilterListings keeps rows whose title, city, state or zip contains q,
// ignoring case and surrounding space. A blank q keeps everything.
func FilterListings(rows []domain.Listing, q string) []domain.Listing {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return rows
	}
	out := []domain.Listing{}
	for _, l := range rows {
		for _, field := range []string{l.Title, l.City, l.State, l.Zip} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// NewCard builds a card, picking the hero media.
func NewCard(l domain.Listing) Card {
	hero := Hero{Type: HeroPlaceholder}
	if m := domain.HeroMedia(l.Media); m != nil {
		hero = Hero{Type: string(m.Type), URL: m.URL}
	}
	return Card{
		ID:           l.ID,
		Title:        l.Title,
		Price:        l.Price,
		Beds:         l.Beds,
		Baths:        l.Baths,
		City:         l.City,
		State:        l.State,
		Zip:          l.Zip,
		ThumbnailURL: l.ThumbnailURL,
		Hero:         hero,
	}
}

// Search returns feed cards matching q.
func (s *Service) Search(ctx context.Context, q string) ([]Card, error) {
	rows, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	rows = FilterListings(rows, q)
	cards := make([]Card, 0, len(rows))
	for _, l := range rows {
		cards = append(cards, NewCard(l))
	}
	return cards, nil
}
