package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, state State) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore keeps sessions in process memory. A zero ttl never expires them.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load implements Store.
func (m *memoryStore) Load(ctx context.Context, id string) (State, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return State{}, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return State{}, ErrNotFound
	}
	return entry.state, nil
}

// Save implements Store.
func (m *memoryStore) Save(ctx context.Context, id string, state State) error {
	entry := memoryEntry{state: state}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[id] = entry
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}
