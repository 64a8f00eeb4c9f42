package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore provides an in-memory implementation for development and tests.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		now:     time.Now,
	}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.Key]; ok {
		return &existing, ports.ErrIdempotencyConflict
	}
	now := s.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.Key] = record
	saved := record
	return &saved, nil
}

// Snapshot captures the store for transactional rollback.
func (s *IdempotencyStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make(map[string]ports.IdempotencyRecord, len(s.records))
	for key, record := range s.records {
		records[key] = record
	}
	return records
}

// Restore replaces the store state with a value returned by Snapshot.
func (s *IdempotencyStore) Restore(snapshot any) {
	records, ok := snapshot.(map[string]ports.IdempotencyRecord)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}
