package profiles

import (
	"context"
	"errors"
	"time"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"
	"homesocial-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Input is the profile form. Blank text is stored as null.
type Input struct {
	FullName    string `json:"full_name" validate:"max=120"`
	Role        string `json:"role" validate:"required,profile_role"`
	Bio         string `json:"bio" validate:"max=2000"`
	ServiceArea string `json:"service_area" validate:"max=200"`
}

// View is what the profile page loads; Exists is false for a blank form.
type View struct {
	Exists  bool            `json:"exists"`
	Profile *domain.Profile `json:"profile"`
}

type Service struct {
	DB *gorm.DB
}

// Get returns the user's profile, or a blank buyer form when there is none.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	var p domain.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &View{Exists: false, Profile: &domain.Profile{ID: userID, Role: constants.DefaultRole}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &View{Exists: true, Profile: &p}, nil
}

// Upsert writes the full field set keyed by user id.
func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, email string, in Input) (*domain.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := domain.Profile{
		ID:          userID,
		Email:       validation.NullIfEmpty(email),
		FullName:    validation.NullIfEmpty(in.FullName),
		Role:        domain.Role(in.Role),
		Bio:         validation.NullIfEmpty(in.Bio),
		ServiceArea: validation.NullIfEmpty(in.ServiceArea),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "role", "bio", "service_area", "updated_at"}),
	}).Create(&p).Error; err != nil {
		return nil, err
	}
	var saved domain.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}
