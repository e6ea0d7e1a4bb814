package state

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/user/souentd/internal/types"
)

// CachedPreferenceStore wraps a PreferenceStore with a read-through
// ristretto cache. Preferences are read on every chat turn, so cache
// hits keep the hot path off the backing store; writes go through and
// update the cache.
type CachedPreferenceStore struct {
	inner types.PreferenceStore
	cache *ristretto.Cache
}

func NewCachedPreferenceStore(inner types.PreferenceStore) (*CachedPreferenceStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create preference cache: %w", err)
	}
	return &CachedPreferenceStore{inner: inner, cache: cache}, nil
}

func (s *CachedPreferenceStore) Get(ctx context.Context, userID types.UserID) (*types.UserPreferences, error) {
	if v, ok := s.cache.Get(string(userID)); ok {
		if prefs, ok := v.(types.UserPreferences); ok {
			cp := prefs
			return &cp, nil
		}
	}

	prefs, err := s.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(string(userID), *prefs, 1)
	return prefs, nil
}

func (s *CachedPreferenceStore) Put(ctx context.Context, prefs *types.UserPreferences) (*types.UserPreferences, error) {
	stored, err := s.inner.Put(ctx, prefs)
	if err != nil {
		return nil, err
	}
	s.cache.Set(string(stored.UserID), *stored, 1)
	// Set is buffered; wait so a read after an update never sees the
	// previous value.
	s.cache.Wait()
	return stored, nil
}

func (s *CachedPreferenceStore) Close() error {
	s.cache.Close()
	return s.inner.Close()
}
