// Package idempotency remembers which lead an Idempotency-Key produced so that
// a resubmitted form gets the original lead back instead of a duplicate.
package idempotency

import (
	"context"
	"time"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/cache"
)

// Memory is a single-process store backed by the TTL cache.
type Memory struct {
	c *cache.InMemory[domain.IdempotencyRecord]
}

// NewMemory creates a Memory store whose janitor sweeps every ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: cache.New[domain.IdempotencyRecord](ttl)}
}

// Lookup implements port.IdempotencyStore.
func (m *Memory) Lookup(_ context.Context, key string) (domain.IdempotencyRecord, bool, error) {
	rec, ok := m.c.Get(key)
	return rec, ok, nil
}

// Remember implements port.IdempotencyStore. The first record for a key wins.
func (m *Memory) Remember(_ context.Context, key string, rec domain.IdempotencyRecord, ttl time.Duration) error {
	if _, ok := m.c.Get(key); ok {
		return nil
	}
	m.c.SetWithTTL(key, rec, ttl)
	return nil
}

// Close stops the cache janitor.
func (m *Memory) Close() error {
	m.c.Close()
	return nil
}
