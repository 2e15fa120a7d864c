package store

import (
	"context"
	"maps"
	"sync"

	"coursegate/internal/roles/models"
	id "coursegate/pkg/domain"
	"coursegate/pkg/platform/sentinel"
)

// InMemoryStore keeps the role table in a map.
type InMemoryStore struct {
	txMu    sync.Mutex
	mu      sync.RWMutex
	records map[id.SubjectID]*models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SubjectID]*models.Record)}
}

func (s *InMemoryStore) Find(_ context.Context, subject id.SubjectID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[subject]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Insert(_ context.Context, rec *models.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.SubjectID]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.SubjectID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, subject id.SubjectID, mutate Mutation) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[subject]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.SubjectID = subject
	if err := validateRecord(next); err != nil {
		return nil, err
	}
	s.records[subject] = next
	return next.Clone(), nil
}

// RunInTx restores the table as it was before fn when fn fails.
// Transactions are serialised; writes made outside one are not isolated
// from its rollback.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := maps.Clone(s.records)
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.records = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
