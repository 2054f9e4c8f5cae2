package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StorageClient is the blob store used for listing media.
type StorageClient interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error
	Remove(ctx context.Context, bucket string, paths ...string) error
	PublicURL(bucket, path string) string
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// SupabaseStorage is a StorageClient backed by the Supabase Storage HTTP API.
type SupabaseStorage struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseSignedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (s *SupabaseStorage) base() (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if s.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	return strings.TrimRight(s.BaseURL, "/"), nil
}

func (s *SupabaseStorage) do(req *http.Request) ([]byte, error) {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 60 * time.Second}
	}
	// supabase-js sends the same key as apikey and bearer token
	req.Header.Set("apikey", s.SecretKey)
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if (resp.StatusCode == 400 || resp.StatusCode == 403) && strings.Contains(bodyStr, "Invalid Compact JWS") {
			return nil, fmt.Errorf("supabase storage requires the service_role key, not the anon key (raw body: %s)", bodyStr)
		}
		return nil, fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}
	return body, nil
}

// Upload stores one object. Existing objects are never overwritten.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error {
	base, err := s.base()
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", base, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	req.Header.Set("cache-control", "max-age=3600")
	_, err = s.do(req)
	return err
}

// Remove deletes objects from a bucket. Removing nothing is a no-op.
func (s *SupabaseStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	base, err := s.base()
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(map[string]interface{}{"prefixes": paths})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/storage/v1/object/%s", base, bucket), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = s.do(req)
	return err
}

// PublicURL returns the public URL of an object in a public bucket.
func (s *SupabaseStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.BaseURL, "/"), bucket, path)
}

// CreateSignedUploadURL returns a one-hour URL the browser can upload to directly.
func (s *SupabaseStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	base, err := s.base()
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, path)
	payload, _ := json.Marshal(map[string]interface{}{"expiresIn": 3600, "upsert": false})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	respBody, err := s.do(req)
	if err != nil {
		return "", err
	}

	var data supabaseSignedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + "/storage/v1" + strings.TrimPrefix(u, "/storage/v1"), nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}
