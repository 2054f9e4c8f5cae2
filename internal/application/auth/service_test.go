package auth

import (
	"context"
	"testing"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/infrastructure/database"
	"homesocial-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSender struct {
	welcomed []string
}

func (r *recordingSender) SendWelcome(_ context.Context, to string) error {
	r.welcomed = append(r.welcomed, to)
	return nil
}

func (r *recordingSender) SendNewThread(context.Context, string, string, string) error { return nil }

func setupAuthDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestSignUp_CreatesUserAndBuyerProfile(t *testing.T) {
	db := setupAuthDB(t)
	mail := &recordingSender{}
	svc := &Service{DB: db, Emails: mail}

	acct, err := svc.SignUp(context.Background(), Credentials{Email: " New@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", acct.User.Email)
	assert.Equal(t, domain.RoleBuyer, acct.Role)
	assert.NotEqual(t, "secret1", acct.User.PasswordHash)

	var p domain.Profile
	require.NoError(t, db.First(&p, "id = ?", acct.User.ID).Error)
	assert.Equal(t, domain.RoleBuyer, p.Role)
	assert.Equal(t, []string{"new@example.com"}, mail.welcomed)

	_, err = svc.SignUp(context.Background(), Credentials{Email: "new@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUp_Validation(t *testing.T) {
	svc := &Service{DB: setupAuthDB(t)}

	_, err := svc.SignUp(context.Background(), Credentials{Email: "not-an-email", Password: "secret1"})
	var fe *validation.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	_, err = svc.SignUp(context.Background(), Credentials{Email: "a@b.co", Password: "123"})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "password", fe.Field)
}

func TestLoginUser(t *testing.T) {
	db := setupAuthDB(t)
	svc := &Service{DB: db}
	_, err := svc.SignUp(context.Background(), Credentials{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Profile{}).Where("1 = 1").Update("role", domain.RoleSeller).Error)

	acct, err := LoginUser(db, Credentials{Email: "A@B.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, acct.Role)

	_, err = LoginUser(db, Credentials{Email: "a@b.co", Password: "wrong"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	_, err = LoginUser(db, Credentials{Email: "nobody@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = LoginUser(db, Credentials{})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)
}

func TestVerifyUser(t *testing.T) {
	_, err := VerifyUser(nil)
	assert.Equal(t, ErrNotAuthenticated, err)
	_, err = VerifyUser(map[string]interface{}{})
	assert.Equal(t, ErrNotAuthenticated, err)

	u, err := VerifyUser(map[string]interface{}{"user_id": "u1", "email": "a@b.co", "role": "buyer"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "buyer", u.Role)
}
