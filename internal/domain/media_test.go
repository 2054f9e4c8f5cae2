package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeroMedia(t *testing.T) {
	tests := []struct {
		name  string
		media []Media
		want  string
	}{
		{"empty", nil, ""},
		{"photos only", []Media{{Type: MediaPhoto, URL: "p2", SortOrder: 1}, {Type: MediaPhoto, URL: "p1", SortOrder: 0}}, "p1"},
		{"video wins", []Media{{Type: MediaPhoto, URL: "p1", SortOrder: 0}, {Type: MediaVideo, URL: "v1", SortOrder: 3}}, "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeroMedia(tt.media)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestResequence_VideosFirst(t *testing.T) {
	media := []Media{
		{Type: MediaPhoto, URL: "p1", SortOrder: 0},
		{Type: MediaPhoto, URL: "p2", SortOrder: 1},
		{Type: MediaVideo, URL: "v1", SortOrder: 2},
	}
	Resequence(media)
	assert.Equal(t, "v1", media[0].URL)
	assert.Equal(t, "p1", media[1].URL)
	assert.Equal(t, "p2", media[2].URL)
	for i, m := range media {
		assert.Equal(t, i, m.SortOrder)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusActive))
	assert.False(t, CanTransition(StatusActive, StatusDraft))
	assert.False(t, CanTransition(StatusActive, StatusSold))
	assert.False(t, CanTransition(StatusDraft, StatusPending))
}

func TestListingIsOwnedBy(t *testing.T) {
	owner := uuid.New()
	l := &Listing{OwnerID: owner}
	assert.True(t, l.IsOwnedBy(owner))
	assert.False(t, l.IsOwnedBy(uuid.New()))
	assert.False(t, l.IsOwnedBy(uuid.Nil))
	var nilListing *Listing
	assert.False(t, nilListing.IsOwnedBy(owner))
}
