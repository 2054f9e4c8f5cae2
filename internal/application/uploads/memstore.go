package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MemoryStorage is an in-process StorageClient for local runs without Supabase and for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	// FailAfter makes Upload fail once this many uploads have succeeded (0 disables).
	FailAfter int
	uploads   int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}}
}

func key(bucket, path string) string { return bucket + "/" + path }

func (m *MemoryStorage) Upload(_ context.Context, bucket, path, _ string, body io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter > 0 && m.uploads >= m.FailAfter {
		return errors.New("storage unavailable")
	}
	if _, ok := m.Objects[key(bucket, path)]; ok {
		return fmt.Errorf("object exists: %s", path)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.Objects[key(bucket, path)] = b
	m.uploads++
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, bucket string, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.Objects, key(bucket, p))
	}
	return nil
}

func (m *MemoryStorage) PublicURL(bucket, path string) string {
	return "memory://" + key(bucket, path)
}

func (m *MemoryStorage) CreateSignedUploadURL(_ context.Context, bucket, path string) (string, error) {
	return "memory://upload/" + key(bucket, path) + "?token=local", nil
}

// Has reports whether an object exists.
func (m *MemoryStorage) Has(bucket, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key(bucket, path)]
	return ok
}

// Len is the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}
