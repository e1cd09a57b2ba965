package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoclconnect/leads/internal/domain"
)

const keyPrefix = "leads:idem:"

// Redis shares idempotency keys across API instances.
type Redis struct {
	rdb *redis.Client
}

// NewRedis parses a redis:// URL, connects and pings.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// Lookup implements port.IdempotencyStore.
func (r *Redis) Lookup(ctx context.Context, key string) (domain.IdempotencyRecord, bool, error) {
	var rec domain.IdempotencyRecord
	raw, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return rec, true, nil
}

// Remember implements port.IdempotencyStore. SETNX keeps the first record.
func (r *Redis) Remember(ctx context.Context, key string, rec domain.IdempotencyRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := r.rdb.SetNX(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
