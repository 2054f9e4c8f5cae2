package domain

import "errors"

var (
	ErrMediaNotFound     = errors.New("Media not found on listing")
	ErrThumbnailNotPhoto = errors.New("Thumbnail must be one of the listing photos")
	ErrMediaKindConflict = errors.New("A media URL cannot be both a photo and a video")
)

// MediaSet is the editor's view of a listing's media: ordered photo and video
// URLs plus the selected thumbnail. The thumbnail is always one of the photos or nil.
type MediaSet struct {
	Photos    []string `json:"photo_urls"`
	Videos    []string `json:"video_urls"`
	Thumbnail *string  `json:"thumbnail_url"`
}

// NewMediaSet builds a set from raw URL lists, dropping blanks and duplicates.
// A thumbnail that is not among the photos is an error.
func NewMediaSet(photos, videos []string, thumbnail *string) (*MediaSet, error) {
	s := &MediaSet{Photos: []string{}, Videos: []string{}}
	for _, p := range photos {
		s.AddPhoto(p)
	}
	for _, v := range videos {
		s.AddVideo(v)
	}
	for _, v := range s.Videos {
		if contains(s.Photos, v) {
			return nil, ErrMediaKindConflict
		}
	}
	if thumbnail != nil && *thumbnail != "" {
		if err := s.SelectThumbnail(*thumbnail); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MediaSetFromRows projects stored media rows into editor form.
func MediaSetFromRows(media []Media, thumbnail *string) *MediaSet {
	sorted := make([]Media, len(media))
	copy(sorted, media)
	SortMedia(sorted)
	s := &MediaSet{Photos: []string{}, Videos: []string{}}
	for _, m := range sorted {
		if m.Type == MediaVideo {
			s.AddVideo(m.URL)
		} else {
			s.AddPhoto(m.URL)
		}
	}
	if thumbnail != nil && contains(s.Photos, *thumbnail) {
		t := *thumbnail
		s.Thumbnail = &t
	}
	return s
}

func (s *MediaSet) AddPhoto(url string) {
	if url == "" || contains(s.Photos, url) {
		return
	}
	s.Photos = append(s.Photos, url)
}

func (s *MediaSet) AddVideo(url string) {
	if url == "" || contains(s.Videos, url) {
		return
	}
	s.Videos = append(s.Videos, url)
}

// RemovePhoto drops a photo. Removing the selected thumbnail falls back to
// the first remaining photo, or nil when none remain.
func (s *MediaSet) RemovePhoto(url string) error {
	i := index(s.Photos, url)
	if i < 0 {
		return ErrMediaNotFound
	}
	s.Photos = append(s.Photos[:i], s.Photos[i+1:]...)
	if s.Thumbnail != nil && *s.Thumbnail == url {
		s.Thumbnail = nil
		if len(s.Photos) > 0 {
			next := s.Photos[0]
			s.Thumbnail = &next
		}
	}
	return nil
}

func (s *MediaSet) RemoveVideo(url string) error {
	i := index(s.Videos, url)
	if i < 0 {
		return ErrMediaNotFound
	}
	s.Videos = append(s.Videos[:i], s.Videos[i+1:]...)
	return nil
}

// Remove drops url from whichever list holds it.
func (s *MediaSet) Remove(url string) error {
	if contains(s.Photos, url) {
		return s.RemovePhoto(url)
	}
	return s.RemoveVideo(url)
}

func (s *MediaSet) SelectThumbnail(url string) error {
	if !contains(s.Photos, url) {
		return ErrThumbnailNotPhoto
	}
	s.Thumbnail = &url
	return nil
}

// Contains reports whether url is one of the set's photos or videos.
func (s *MediaSet) Contains(url string) bool {
	return contains(s.Photos, url) || contains(s.Videos, url)
}

// KindOf reports which list holds url.
func (s *MediaSet) KindOf(url string) (MediaType, bool) {
	switch {
	case contains(s.Photos, url):
		return MediaPhoto, true
	case contains(s.Videos, url):
		return MediaVideo, true
	}
	return "", false
}

func contains(list []string, v string) bool {
	return index(list, v) >= 0
}

func index(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
