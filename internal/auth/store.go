package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live sessions so logout and refresh can revoke tokens
// before they expire.
type SessionStore interface {
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	Valid(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL matching the token.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(jti string) string {
	return "thrivewell:session:" + jti
}

func (s *RedisSessionStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Valid(ctx context.Context, jti string) (bool, error) {
	_, err := s.client.Get(ctx, sessionKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: check session: %w", err)
	}
	return true, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}
