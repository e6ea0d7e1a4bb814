package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/souentd/internal/types"
)

// MemoryPreferenceStore keeps user preferences in process memory.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs map[types.UserID]*types.UserPreferences
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{
		prefs: make(map[types.UserID]*types.UserPreferences),
	}
}

func (s *MemoryPreferenceStore) Get(_ context.Context, userID types.UserID) (*types.UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, fmt.Errorf("preferences for %s: %w", userID, types.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryPreferenceStore) Put(_ context.Context, prefs *types.UserPreferences) (*types.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *prefs
	cp.UpdatedAt = time.Now()
	s.prefs[cp.UserID] = &cp

	out := cp
	return &out, nil
}

func (s *MemoryPreferenceStore) Close() error {
	return nil
}
