package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/souentd/internal/types"
)

// Options configures NewStores.
type Options struct {
	StorageType string // memory, file, redis
	DataDir     string
	RedisURL    string
	SessionTTL  time.Duration
	Logger      *slog.Logger
}

// NewStores builds the session and preference stores for the configured
// backend. The canon store is always file-backed regardless of backend:
// canonical memory is deployment state, not cache. When Redis is
// selected but unreachable, the file backend is used instead so the
// service still comes up.
func NewStores(ctx context.Context, opts Options) (types.SessionStore, types.PreferenceStore, *CanonStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	canon := NewCanonStore(opts.DataDir)

	switch opts.StorageType {
	case "memory":
		return NewMemorySessionStore(opts.SessionTTL), NewMemoryPreferenceStore(), canon, nil

	case "file", "":
		prefs, err := cached(NewFilePreferenceStore(opts.DataDir))
		if err != nil {
			return nil, nil, nil, err
		}
		return NewFileSessionStore(opts.DataDir, opts.SessionTTL), prefs, canon, nil

	case "redis":
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to file storage", "error", err)
			client.Close()
			prefs, err := cached(NewFilePreferenceStore(opts.DataDir))
			if err != nil {
				return nil, nil, nil, err
			}
			return NewFileSessionStore(opts.DataDir, opts.SessionTTL), prefs, canon, nil
		}

		prefs, err := cached(NewRedisPreferenceStore(client))
		if err != nil {
			return nil, nil, nil, err
		}
		return NewRedisSessionStore(client, opts.SessionTTL), prefs, canon, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage type: %s", opts.StorageType)
	}
}

func cached(inner types.PreferenceStore) (types.PreferenceStore, error) {
	return NewCachedPreferenceStore(inner)
}
