package feed

import (
	"context"
	"testing"
	"time"

	"homesocial-backend/internal/domain"
	"homesocial-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFilterListings(t *testing.T) {
	rows := []domain.Listing{
		{Title: "Lake House", City: "Austin", State: "TX", Zip: "78701"},
		{Title: "Loft", City: "Denver", State: "CO", Zip: "80202"},
	}
	cases := []struct {
		q    string
		want int
	}{
		{"", 2},
		{"   ", 2},
		{"  austin ", 1},
		{"LAKE", 1},
		{"co", 1},
		{"802", 1},
		{"miami", 0},
	}
	for _, tc := range cases {
		assert.Len(t, FilterListings(rows, tc.q), tc.want, "q=%q", tc.q)
	}
}

func TestNewCard_Hero(t *testing.T) {
	card := NewCard(domain.Listing{})
	assert.Equal(t, HeroPlaceholder, card.Hero.Type)

	card = NewCard(domain.Listing{Media: []domain.Media{
		{Type: domain.MediaPhoto, URL: "p", SortOrder: 0},
		{Type: domain.MediaVideo, URL: "v", SortOrder: 1},
	}})
	assert.Equal(t, Hero{Type: HeroVideo, URL: "v"}, card.Hero)
}

func TestSearch_OnlyActiveNewestFirst(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(title string, status domain.ListingStatus, age time.Duration) domain.Listing {
		l := domain.Listing{
			OwnerID: uuid.New(), Title: title, Price: 100, Address: "1 Rd",
			City: "Austin", State: "TX", Zip: "78701", Status: status, CreatedAt: base.Add(-age),
		}
		require.NoError(t, db.Create(&l).Error)
		return l
	}
	older := mk("Older", domain.StatusActive, 2*time.Hour)
	newer := mk("Newer", domain.StatusActive, time.Hour)
	mk("Hidden", domain.StatusDraft, 0)
	require.NoError(t, db.Create(&domain.Media{ListingID: older.ID, Type: domain.MediaPhoto, URL: "https://cdn.test/p.jpg"}).Error)

	svc := &Service{DB: db}
	cards, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, newer.ID, cards[0].ID)
	assert.Equal(t, HeroPlaceholder, cards[0].Hero.Type)
	assert.Equal(t, Hero{Type: HeroPhoto, URL: "https://cdn.test/p.jpg"}, cards[1].Hero)

	cards, err = svc.Search(context.Background(), "older")
	require.NoError(t, err)
	require.Len(t, cards, 1)
}
