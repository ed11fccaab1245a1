//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/config"
)

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, config.RedisConfig{Addr: addr, TTL: time.Minute}, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	key := "it-" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.SetMany(ctx, map[string]classifier.Classification{
		key: {Score: 82, Reasons: []string{"Fintech"}},
	}))

	got, err := c.GetMany(ctx, []string{key, key + "-missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 82, got[key].Score)
	assert.Equal(t, []string{"Fintech"}, got[key].Reasons)

	ttl, err := c.rdb.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
