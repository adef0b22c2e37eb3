package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"medilink/pkg/platform/sentinel"
)

// MemoryTokenStore keeps identity tokens in memory. Used in tests and when no
// Redis is configured.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Save(_ context.Context, sessionID, idToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = idToken
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[sessionID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return token, nil
}

// RedisTokenStore keeps identity tokens in Redis with the session TTL, so
// they outlive a service restart but not an abandoned registration.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

func tokenKey(sessionID string) string {
	return "otp:idtoken:" + sessionID
}

func (s *RedisTokenStore) Save(ctx context.Context, sessionID, idToken string) error {
	if err := s.client.Set(ctx, tokenKey(sessionID), idToken, s.ttl).Err(); err != nil {
		return fmt.Errorf("save identity token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("load identity token: %w", err)
	}
	return token, nil
}
