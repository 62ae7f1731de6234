package booking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SessionStore persists flows by session id. Update applies fn atomically
// per session; when fn returns an error nothing is written.
type SessionStore interface {
	Create(ctx context.Context, flow *Flow) error
	Get(ctx context.Context, sessionID string) (*Flow, error)
	Update(ctx context.Context, sessionID string, fn func(*Flow) error) (*Flow, error)
	Delete(ctx context.Context, sessionID string) error
}

var errEmptySessionID = errors.New("booking: session id required")

type memoryEntry struct {
	flow      *Flow
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory with a sliding TTL.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a store. A non-positive ttl disables expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, flow *Flow) error {
	if flow == nil || flow.SessionID == "" {
		return errEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[flow.SessionID] = memoryEntry{flow: flow.Clone(), expiresAt: s.expiry()}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.flow.Clone(), nil
}

func (s *MemorySessionStore) Update(ctx context.Context, sessionID string, fn func(*Flow) error) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	working := entry.flow.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now().UTC()
	s.sessions[sessionID] = memoryEntry{flow: working.Clone(), expiresAt: s.expiry()}
	return working, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) lookup(sessionID string) (memoryEntry, bool) {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemorySessionStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}
