package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmptyBody       = errors.New("Comment cannot be empty")
	ErrBodyTooLong     = errors.New("Comment is too long")
	ErrListingNotFound = errors.New("Listing not found")
)

// View is a comment with its author's display name.
type View struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Body       string    `json:"body"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type Service struct {
	DB *gorm.DB
}

func authorName(p *domain.Profile) string {
	if p == nil {
		return "Anonymous"
	}
	if p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
		return *p.FullName
	}
	if p.Email != nil && *p.Email != "" {
		return strings.SplitN(*p.Email, "@", 2)[0]
	}
	return "Anonymous"
}

// List returns the most recent comments on a listing, newest first.
func (s *Service) List(ctx context.Context, listingID uuid.UUID) ([]View, error) {
	var rows []domain.Comment
	if err := s.DB.WithContext(ctx).
		Preload("Author").
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Limit(constants.CommentLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]View, 0, len(rows))
	for _, c := range rows {
		out = append(out, View{
			ID:         c.ID,
			UserID:     c.UserID,
			Body:       c.Body,
			AuthorName: authorName(c.Author),
			CreatedAt:  c.CreatedAt,
		})
	}
	return out, nil
}

// Post adds a comment and returns the refreshed list.
func (s *Service) Post(ctx context.Context, listingID, userID uuid.UUID, body string) ([]View, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len([]rune(body)) > constants.CommentMaxLength {
		return nil, ErrBodyTooLong
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrListingNotFound
	}
	if err := s.DB.WithContext(ctx).Create(&domain.Comment{
		ListingID: listingID,
		UserID:    userID,
		Body:      body,
	}).Error; err != nil {
		return nil, err
	}
	return s.List(ctx, listingID)
}
