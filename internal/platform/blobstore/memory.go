package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type storedObject struct {
	contentType string
	data        []byte
}

// InMemoryStore is a thread-safe, in-memory ObjectStore for testing and
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string]storedObject),
	}
}

// Upload stores the content under the given path, replacing any existing
// object.
func (s *InMemoryStore) Upload(_ context.Context, path, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxObjectSize+1))
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	if len(data) > MaxObjectSize {
		return "", ErrObjectTooLarge
	}

	s.mu.Lock()
	s.objects[path] = storedObject{contentType: contentType, data: data}
	s.mu.Unlock()

	return s.PublicURL(path), nil
}

// Download returns the object content and its content type.
func (s *InMemoryStore) Download(_ context.Context, path string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()

	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Delete removes the object at the given path.
func (s *InMemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, path)
	return nil
}

// PublicURL returns a synthetic URL for the stored object.
func (s *InMemoryStore) PublicURL(path string) string {
	return "memory://" + path
}

// Len reports the number of stored objects.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
