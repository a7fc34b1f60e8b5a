package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/shopsync/backend/internal/application/export"
)

// StubArchiveStorage is an in-memory placeholder archive used when no object
// storage bucket is configured. Exports still land on local disk; archival
// becomes a recorded no-op.
type StubArchiveStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewStubArchiveStorage creates a new StubArchiveStorage
func NewStubArchiveStorage() *StubArchiveStorage {
	return &StubArchiveStorage{
		objects: make(map[string][]byte),
	}
}

var _ export.ArchiveStorage = (*StubArchiveStorage)(nil)

// Upload records the object in memory
func (s *StubArchiveStorage) Upload(_ context.Context, storageKey string, data []byte, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), data...)
	return nil
}

// ObjectExists reports whether an object was recorded
func (s *StubArchiveStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// DeleteObject removes a recorded object
func (s *StubArchiveStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}
