package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	userModels "rentmarket/internal/user/models"
)

const keyPrefix = "rentmarket:pending-role:"

// RedisStore shares pending roles across server instances. GETDEL gives the
// read-and-clear atomically.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttlOrDefault(ttl)}
}

func (s *RedisStore) TTL() time.Duration { return s.ttl }

func (s *RedisStore) Set(ctx context.Context, role userModels.Role) (string, error) {
	if err := validateRole(role); err != nil {
		return "", err
	}
	token := newToken()
	if err := s.client.Set(ctx, keyPrefix+token, string(role), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store pending role: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (userModels.Role, bool, error) {
	if token == "" {
		return "", false, nil
	}
	val, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume pending role: %w", err)
	}
	role, err := userModels.ParseRole(val)
	if err != nil || !role.SelfAssignable() {
		return "", false, nil
	}
	return role, true, nil
}
