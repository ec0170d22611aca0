package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process memory. A positive ttl evicts sessions idle longer than ttl.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryBackend returns an in-memory backend.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]*State),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, id string) (*State, error) {
	m.mu.RLock()
	st, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if m.expired(st) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, nil
	}
	return st.Clone(), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.SessionID] = st.Clone()
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are held.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryBackend) expired(st *State) bool {
	if m.ttl <= 0 || st.UpdatedAt.IsZero() {
		return false
	}
	return m.now().Sub(st.UpdatedAt) > m.ttl
}
