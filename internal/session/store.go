package session

import (
	"context"
	"sync"

	"vcfo/domain/core"
	apperrors "vcfo/internal/errors"
)

// MemoryStore keeps session-to-dataset bindings in process memory. It is the
// default store when no database is configured; bindings do not survive a
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	paths map[core.SessionID]string
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{paths: make(map[core.SessionID]string)}
}

// DatasetPath returns the dataset uploaded for a session
func (s *MemoryStore) DatasetPath(_ context.Context, session core.SessionID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.paths[session]
	if !ok {
		return "", apperrors.NotFound("dataset for session")
	}
	return path, nil
}

// SetDatasetPath binds a dataset path to a session
func (s *MemoryStore) SetDatasetPath(_ context.Context, session core.SessionID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[session] = path
	return nil
}
