package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore is the networked backend. Windows are sorted sets scored by
// nanosecond timestamps; TTL keys use SET NX.
type redisStore struct {
	client *redis.Client
}

func openRedis(ctx context.Context, opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPass,
		DB:       opts.RedisDB,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) RemoveOlderThan(ctx context.Context, key string, cutoff time.Time) error {
	max := strconv.FormatInt(cutoff.UnixNano(), 10)
	return s.client.ZRemRangeByScore(ctx, key, "-inf", "("+max).Err()
}

func (s *redisStore) CountWindow(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func (s *redisStore) AddToWindow(ctx context.Context, key string, at time.Time) error {
	ns := at.UnixNano()
	// Member mirrors the score so re-adding the same instant is a no-op.
	return s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(ns),
		Member: strconv.FormatInt(ns, 10),
	}).Err()
}

func (s *redisStore) ExpireWindow(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (s *redisStore) SetIfAbsentTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Name() string { return "redis" }

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
