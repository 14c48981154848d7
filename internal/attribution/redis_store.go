package attribution

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/hud203/leadengine/internal/errors"
)

// RedisStore is a visitor-scoped Store backed by redis. A zero TTL makes the
// store durable (first/last touch survives indefinitely); a positive TTL
// makes it volatile: every write refreshes the expiry, so the session state
// disappears after the visitor has been idle for ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisStores hands out per-visitor Store pairs over a shared client.
type RedisStores struct {
	client     *redis.Client
	sessionTTL time.Duration
}

// NewRedisStores connects a store provider to redis. sessionTTL bounds how
// long an idle session keeps its page-view counter.
func NewRedisStores(client *redis.Client, sessionTTL time.Duration) *RedisStores {
	return &RedisStores{client: client, sessionTTL: sessionTTL}
}

// Durable returns the cross-session store for a visitor.
func (p *RedisStores) Durable(visitorID string) Store {
	return &RedisStore{client: p.client, prefix: "attr:" + visitorID + ":"}
}

// Volatile returns the per-session store for a visitor.
func (p *RedisStores) Volatile(visitorID string) Store {
	return &RedisStore{client: p.client, prefix: "sess:" + visitorID + ":", ttl: p.sessionTTL}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrKeyNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}
