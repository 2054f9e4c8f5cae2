package profiles

import (
	"context"
	"testing"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/infrastructure/database"
	"homesocial-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProfilesTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}
}

func TestGet_BlankForm(t *testing.T) {
	svc := setupProfilesTest(t)
	uid := uuid.New()
	v, err := svc.Get(context.Background(), uid)
	require.NoError(t, err)
	assert.False(t, v.Exists)
	assert.Equal(t, uid, v.Profile.ID)
	assert.Equal(t, domain.RoleBuyer, v.Profile.Role)
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	svc := setupProfilesTest(t)
	uid := uuid.New()

	p, err := svc.Upsert(context.Background(), uid, "a@b.co", Input{FullName: " Ada ", Role: "seller", Bio: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, p.Role)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Ada", *p.FullName)
	assert.Nil(t, p.Bio)

	p, err = svc.Upsert(context.Background(), uid, "a@b.co", Input{Role: "pro", ServiceArea: "Austin metro"})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePro, p.Role)
	assert.Nil(t, p.FullName)
	require.NotNil(t, p.ServiceArea)

	v, err := svc.Get(context.Background(), uid)
	require.NoError(t, err)
	assert.True(t, v.Exists)
}

func TestUpsert_RejectsAdminRole(t *testing.T) {
	svc := setupProfilesTest(t)
	_, err := svc.Upsert(context.Background(), uuid.New(), "", Input{Role: "admin"})
	var fe *validation.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "role", fe.Field)
	assert.Contains(t, fe.Message, "buyer, seller, pro")
}
