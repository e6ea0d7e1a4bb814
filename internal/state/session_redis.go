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

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps session transcripts in Redis under
// session:<id> keys with a TTL. Reads refresh the TTL so active
// sessions stay alive; expiry replaces explicit sweeping.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) key(id types.SessionID) string {
	return sessionKeyPrefix + string(id)
}

func (s *RedisSessionStore) Create(ctx context.Context) (types.SessionID, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id := types.NewSessionID()
		sess := types.Session{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		val, err := json.Marshal(&sess)
		if err != nil {
			return "", err
		}
		ok, err := s.client.SetNX(ctx, s.key(id), val, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		if ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("create session: could not generate unique id")
}

// Append adds a message under optimistic locking so concurrent appends
// to the same session do not lose writes.
func (s *RedisSessionStore) Append(ctx context.Context, id types.SessionID, msg types.Message) error {
	const maxRetries = 3
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.tryAppend(ctx, id, msg)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *RedisSessionStore) tryAppend(ctx context.Context, id types.SessionID, msg types.Message) error {
	key := s.key(id)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var sess types.Session
		if err := json.Unmarshal([]byte(val), &sess); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		sess.Messages = append(sess.Messages, msg)
		sess.UpdatedAt = time.Now()

		newVal, err := json.Marshal(&sess)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)
}

func (s *RedisSessionStore) History(ctx context.Context, id types.SessionID) ([]types.Message, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var sess types.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	// Refresh TTL on read; failure here is not fatal.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	if sess.Messages == nil {
		return []types.Message{}, nil
	}
	return sess.Messages, nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, id types.SessionID) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Sweep is a no-op: Redis expires idle sessions through key TTLs.
func (s *RedisSessionStore) Sweep(_ context.Context) (int, error) {
	return 0, nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
