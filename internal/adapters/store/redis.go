package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agora/internal/domain/auth"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session under a fixed redis key, shared by every process using
// the same prefix. Concurrent writers are not coordinated: the last write wins.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store using client. prefix namespaces the session key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	key := auth.SessionStorageKey
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisStore{client: client, key: key}
}

// Load implements auth.SessionStore
func (s *RedisStore) Load(ctx context.Context) (*auth.Session, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session auth.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Save implements auth.SessionStore
func (s *RedisStore) Save(ctx context.Context, session auth.Session) error {
	val, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, val, 0).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}
