package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/souentd/internal/types"
)

const preferencesKeyPrefix = "preferences:"

// RedisPreferenceStore stores user preferences in Redis under
// preferences:<userID> keys. Preferences persist across sessions so
// keys carry no TTL.
type RedisPreferenceStore struct {
	client *redis.Client
}

func NewRedisPreferenceStore(client *redis.Client) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client}
}

func (s *RedisPreferenceStore) key(userID types.UserID) string {
	return preferencesKeyPrefix + string(userID)
}

func (s *RedisPreferenceStore) Get(ctx context.Context, userID types.UserID) (*types.UserPreferences, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("preferences for %s: %w", userID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var prefs types.UserPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return &prefs, nil
}

func (s *RedisPreferenceStore) Put(ctx context.Context, prefs *types.UserPreferences) (*types.UserPreferences, error) {
	cp := *prefs
	cp.UpdatedAt = time.Now()

	val, err := json.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cp.UserID), val, 0).Err(); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *RedisPreferenceStore) Close() error {
	return s.client.Close()
}
