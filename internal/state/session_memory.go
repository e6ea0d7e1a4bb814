package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/souentd/internal/types"
)

// MemorySessionStore keeps session transcripts in process memory.
// Sessions idle longer than the TTL are removed by Sweep.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*memorySession
	ttl      time.Duration
}

type memorySession struct {
	messages  []types.Message
	createdAt time.Time
	updatedAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemorySessionStore{
		sessions: make(map[types.SessionID]*memorySession),
		ttl:      ttl,
	}
}

func (s *MemorySessionStore) Create(_ context.Context) (types.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < 5; attempt++ {
		id := types.NewSessionID()
		if _, exists := s.sessions[id]; exists {
			continue
		}
		now := time.Now()
		s.sessions[id] = &memorySession{createdAt: now, updatedAt: now}
		return id, nil
	}
	return "", fmt.Errorf("create session: could not generate unique id")
}

func (s *MemorySessionStore) Append(_ context.Context, id types.SessionID, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	sess.messages = append(sess.messages, msg)
	sess.updatedAt = time.Now()
	return nil
}

func (s *MemorySessionStore) History(_ context.Context, id types.SessionID) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	out := make([]types.Message, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}

// Clear removes a session. Clearing a session that does not exist is
// not an error.
func (s *MemorySessionStore) Clear(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed.
func (s *MemorySessionStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemorySessionStore) Close() error {
	return nil
}
