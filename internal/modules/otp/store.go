// README: OTP store backed by Redis; codes and attempt counters share a TTL.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cabdesk/internal/types"
)

const (
	codeKeyPrefix     = "otp:booking:%s:code"
	attemptsKeyPrefix = "otp:booking:%s:attempts"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func codeKey(id types.ID) string {
	return fmt.Sprintf(codeKeyPrefix, string(id))
}

func attemptsKey(id types.ID) string {
	return fmt.Sprintf(attemptsKeyPrefix, string(id))
}

// Put stores a fresh code and drops the attempt counter from any prior issue.
func (s *Store) Put(ctx context.Context, id types.ID, code string, ttl time.Duration) error {
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, codeKey(id), code, ttl)
	pipe.Del(ctx, attemptsKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetCode(ctx context.Context, id types.ID) (string, bool, error) {
	v, err := s.redis.Get(ctx, codeKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Consume atomically removes and returns the stored code.
func (s *Store) Consume(ctx context.Context, id types.ID) (string, error) {
	v, err := s.redis.GetDel(ctx, codeKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	_ = s.redis.Del(ctx, attemptsKey(id)).Err()
	return v, nil
}

func (s *Store) BumpAttempts(ctx context.Context, id types.ID, ttl time.Duration) (int64, error) {
	n, err := s.redis.Incr(ctx, attemptsKey(id)).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = s.redis.Expire(ctx, attemptsKey(id), ttl).Err()
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context, id types.ID) error {
	return s.redis.Del(ctx, codeKey(id), attemptsKey(id)).Err()
}
