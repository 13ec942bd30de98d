package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyClaim(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "req-1", "engine"))

	err := store.Claim(ctx, "req-1", "engine")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIdempotencyConflict))

	// Same key under a different module is a different claim.
	require.NoError(t, store.Claim(ctx, "req-1", "ledger"))
}

func TestIdempotencyRelease(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "req-1", "engine"))
	require.NoError(t, store.Release(ctx, "req-1", "engine"))
	require.NoError(t, store.Claim(ctx, "req-1", "engine"))
}

func TestIdempotencyClaimExpires(t *testing.T) {
	store, mr := newIdempotencyStore(t)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "req-1", "engine"))
	mr.FastForward(2 * time.Hour)
	require.NoError(t, store.Claim(ctx, "req-1", "engine"))
}

func TestIdempotencyClaimRequiresKey(t *testing.T) {
	store, _ := newIdempotencyStore(t)

	err := store.Claim(context.Background(), "", "engine")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIdempotencyConflict))
}
