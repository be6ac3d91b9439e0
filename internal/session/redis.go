package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces session records in a shared Redis instance.
const keyPrefix = "session:"

// RedisStore persists sessions as JSON values in Redis. Offline tokens
// stay valid until uninstall, so records carry no TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, shop string) (*Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+shop).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session for %s: %w", shop, err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decoding session for %s: %w", shop, err)
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session for %s: %w", session.Shop, err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.Shop, raw, 0).Err(); err != nil {
		return fmt.Errorf("writing session for %s: %w", session.Shop, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, shop string) error {
	if err := s.client.Del(ctx, keyPrefix+shop).Err(); err != nil {
		return fmt.Errorf("deleting session for %s: %w", shop, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
