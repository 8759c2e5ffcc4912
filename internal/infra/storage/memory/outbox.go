package memory

import (
	"context"
	"sync"

	"staybook/internal/app/outbox"
)

// OutboxStore buffers domain event records in memory. Add stages records
// for the current command; Flush makes them visible to the relay worker.
// Records staged by a command that never flushes are dropped with it.
type OutboxStore struct {
	mu      sync.Mutex
	staged  []outbox.EventRecord
	pending []outbox.EventRecord
	claimed map[string]outbox.EventRecord
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{claimed: make(map[string]outbox.EventRecord)}
}

func (s *OutboxStore) Add(ctx context.Context, record outbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, record)
	return nil
}

func (s *OutboxStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, s.staged...)
	s.staged = nil
	return nil
}

// Claim hands up to limit pending records to the relay. Claimed records
// stay invisible until acked or nacked.
func (s *OutboxStore) Claim(ctx context.Context, limit int) ([]outbox.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.pending) {
		limit = len(s.pending)
	}
	batch := s.pending[:limit]
	s.pending = append([]outbox.EventRecord(nil), s.pending[limit:]...)
	out := make([]outbox.EventRecord, len(batch))
	copy(out, batch)
	for _, rec := range out {
		s.claimed[rec.ID] = rec
	}
	return out, nil
}

func (s *OutboxStore) Ack(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.claimed, id)
	}
	return nil
}

// Nack returns claimed records to the pending queue for another attempt.
func (s *OutboxStore) Nack(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if rec, ok := s.claimed[id]; ok {
			delete(s.claimed, id)
			s.pending = append(s.pending, rec)
		}
	}
	return nil
}

// PendingCount reports records awaiting relay, staged ones excluded.
func (s *OutboxStore) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
