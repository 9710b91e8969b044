// Package debuglog keeps a capped recent-history log of outbound webhook
// payloads for development. It is a convenience, not a durability layer:
// there is no replay and old entries are discarded once the cap is reached.
package debuglog

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries retained by default.
const DefaultCapacity = 100

// Entry is one mirrored payload plus its local arrival time.
type Entry struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Store is the capped append-only debug log.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// Recent returns up to limit entries, newest first. limit <= 0 returns
	// everything retained.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// MemoryStore is an in-memory ring of entries.
type MemoryStore struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	nextID   int64
}

// NewMemoryStore creates a memory store retaining up to capacity entries.
// capacity <= 0 falls back to DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.entries[i])
	}
	return result, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
