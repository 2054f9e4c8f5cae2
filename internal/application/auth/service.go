package auth

import (
	"context"
	"errors"
	"strings"

	"homesocial-backend/internal/application/emails"
	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/pkg/constants"
	"homesocial-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Credentials is the sign-up and sign-in body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Account is a user plus the role shown in the session.
type Account struct {
	User domain.User
	Role domain.Role
}

// SessionUserShape is what the session gate returns.
type SessionUserShape struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// UserFinder abstracts user lookup by email+password (GORM in production, doubles in tests).
type UserFinder interface {
	FindByEmailAndPassword(email, password string) (*Account, error)
}

// Service handles account creation and credential checks.
type Service struct {
	DB     *gorm.DB
	Emails emails.Sender
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a user and its blank buyer profile in one transaction.
func (s *Service) SignUp(ctx context.Context, in Credentials) (*Account, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := domain.User{Email: in.Email, PasswordHash: string(hash)}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	email := user.Email
	profile := domain.Profile{ID: user.ID, Email: &email, Role: constants.DefaultRole}
	if err := tx.Create(&profile).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if s.Emails != nil {
		if err := s.Emails.SendWelcome(ctx, user.Email); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: welcome email failed")
		}
	}
	return &Account{User: user, Role: profile.Role}, nil
}

// GormUserFinder implements UserFinder using GORM and bcrypt.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByEmailAndPassword(email, password string) (*Account, error) {
	return LoginUser(g.DB, Credentials{Email: email, Password: password})
}

// LoginUser finds the user by email and verifies the password.
func LoginUser(db *gorm.DB, in Credentials) (*Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	role := constants.DefaultRole
	var p domain.Profile
	if err := db.Select("id", "role").Where("id = ?", u.ID).First(&p).Error; err == nil && p.Role != "" {
		role = p.Role
	}
	return &Account{User: u, Role: role}, nil
}

// VerifyUser validates the session user and returns its public shape.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		UserID: userID,
		Email:  str(m["email"]),
		Role:   str(m["role"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
