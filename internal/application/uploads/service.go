package uploads

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"homesocial-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// File is one uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject is a blob that now exists in storage.
type StoredObject struct {
	Type   domain.MediaType
	Bucket string
	Path   string
	URL    string
}

// Service places listing media in storage.
type Service struct {
	Storage     StorageClient
	PhotoBucket string
	VideoBucket string
}

// Extension returns the lowercase file extension without the dot, "bin" when absent.
func Extension(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}

// ObjectPath is listing/<listing id>/<random>.<ext>.
func ObjectPath(listingID uuid.UUID, fileName string) string {
	return fmt.Sprintf("listing/%s/%s.%s", listingID, uuid.New(), Extension(fileName))
}

// contentType prefers the declared type and falls back to the extension.
func contentType(f File) string {
	ct := strings.TrimSpace(strings.ToLower(f.ContentType))
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension("." + Extension(f.Name)); byExt != "" {
			ct = byExt
		}
	}
	return ct
}

// CheckKind verifies a file's content type matches the media type.
func CheckKind(kind domain.MediaType, f File) error {
	ct := contentType(f)
	switch kind {
	case domain.MediaVideo:
		if !strings.HasPrefix(ct, "video/") {
			return ErrNotVideo
		}
	case domain.MediaPhoto:
		if !strings.HasPrefix(ct, "image/") {
			return ErrNotImage
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

func (s *Service) bucket(kind domain.MediaType) string {
	if kind == domain.MediaVideo {
		return s.VideoBucket
	}
	return s.PhotoBucket
}

// UploadListingMedia uploads one file for a listing and returns where it landed.
func (s *Service) UploadListingMedia(ctx context.Context, listingID uuid.UUID, kind domain.MediaType, f File) (*StoredObject, error) {
	if err := CheckKind(kind, f); err != nil {
		return nil, err
	}
	bucket := s.bucket(kind)
	path := ObjectPath(listingID, f.Name)
	if err := s.Storage.Upload(ctx, bucket, path, contentType(f), f.Body); err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return &StoredObject{
		Type:   kind,
		Bucket: bucket,
		Path:   path,
		URL:    s.Storage.PublicURL(bucket, path),
	}, nil
}

// RemoveObjects deletes stored blobs, grouped per bucket. Failures are logged, not returned.
func (s *Service) RemoveObjects(ctx context.Context, objs []StoredObject) {
	byBucket := map[string][]string{}
	for _, o := range objs {
		if o.Bucket == "" || o.Path == "" {
			continue
		}
		byBucket[o.Bucket] = append(byBucket[o.Bucket], o.Path)
	}
	for bucket, paths := range byBucket {
		if err := s.Storage.Remove(ctx, bucket, paths...); err != nil {
			log.Warn().Err(err).Str("bucket", bucket).Int("count", len(paths)).Msg("uploads: remove failed")
		}
	}
}

// SignedUpload is a direct browser upload target.
type SignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
	Bucket    string `json:"bucket"`
}

// SignUpload returns a signed upload URL for a listing media object.
func (s *Service) SignUpload(ctx context.Context, listingID uuid.UUID, kind domain.MediaType, fileName string) (*SignedUpload, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrFileRequired
	}
	if kind != domain.MediaPhoto && kind != domain.MediaVideo {
		return nil, ErrInvalidKind
	}
	bucket := s.bucket(kind)
	path := ObjectPath(listingID, fileName)
	signed, err := s.Storage.CreateSignedUploadURL(ctx, bucket, path)
	if err != nil {
		return nil, err
	}
	return &SignedUpload{
		UploadURL: signed,
		PublicURL: s.Storage.PublicURL(bucket, path),
		Path:      path,
		Bucket:    bucket,
	}, nil
}
