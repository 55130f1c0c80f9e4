package tideapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowsBurstUpToCapacity(t *testing.T) {
	b := NewTokenBucket(3, time.Second)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Acquire(ctx))
	}
}

func TestTokenBucketBlocksUntilRefillOrCancel(t *testing.T) {
	b := NewTokenBucket(1, 50*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, b.Acquire(ctx))

	start := time.Now()
	require.NoError(t, b.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTokenBucketRespectsContextCancellation(t *testing.T) {
	b := NewTokenBucket(1, time.Hour)
	ctx := context.Background()
	require.NoError(t, b.Acquire(ctx))

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := b.Acquire(cctx)
	assert.Error(t, err)
}
