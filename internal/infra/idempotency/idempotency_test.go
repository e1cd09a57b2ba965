package idempotency_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/idempotency"
	"github.com/hoclconnect/leads/internal/port"
)

func exerciseStore(t *testing.T, s port.IdempotencyStore) {
	t.Helper()
	ctx := context.Background()
	key := uuid.NewString()

	_, ok, err := s.Lookup(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	first := domain.IdempotencyRecord{LeadID: "lead-1", Fingerprint: "aaa"}
	require.NoError(t, s.Remember(ctx, key, first, time.Minute))
	require.NoError(t, s.Remember(ctx, key, domain.IdempotencyRecord{LeadID: "lead-2", Fingerprint: "bbb"}, time.Minute))

	rec, ok, err := s.Lookup(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, rec, "first remembered record wins")
}

func TestMemory(t *testing.T) {
	m := idempotency.NewMemory(time.Minute)
	defer m.Close()

	exerciseStore(t, m)
}

func TestMemory_Expires(t *testing.T) {
	m := idempotency.NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Remember(ctx, "k", domain.IdempotencyRecord{LeadID: "lead-1"}, 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, ok, err := m.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	r, err := idempotency.NewRedis(context.Background(), url)
	require.NoError(t, err)
	defer r.Close()

	exerciseStore(t, r)
}
