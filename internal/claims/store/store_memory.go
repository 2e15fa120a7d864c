package store

import (
	"context"
	"fmt"
	"sync"

	"coursegate/internal/claims/models"
	"coursegate/pkg/platform/sentinel"
)

// InMemoryStore keeps the cache slot in process memory for tests/dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	entry *models.CacheEntry
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (*models.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil {
		return nil, fmt.Errorf("claims cache slot empty: %w", sentinel.ErrNotFound)
	}
	return cloneEntry(s.entry), nil
}

func (s *InMemoryStore) Save(_ context.Context, entry *models.CacheEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkMonotonic(s.entry, entry); err != nil {
		return err
	}
	s.entry = cloneEntry(entry)
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	return nil
}
