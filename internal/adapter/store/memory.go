package store

import (
	"context"
	"sync"

	"finchat/internal/domain"
)

// MemoryStore is a map-backed domain.LogStore for ephemeral runs and
// tests.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]domain.Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]domain.Entry)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.logs[userID]
	if !ok {
		return nil, nil
	}
	cp := make([]domain.Entry, len(entries))
	copy(cp, entries)
	return cp, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, entries []domain.Entry) error {
	cp := make([]domain.Entry, len(entries))
	copy(cp, entries)
	s.mu.Lock()
	s.logs[userID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.logs, userID)
	s.mu.Unlock()
	return nil
}

var _ domain.LogStore = (*MemoryStore)(nil)
