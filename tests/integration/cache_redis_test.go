package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/cache"
	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/monitoring"
)

func TestRedisClient(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: addr, PoolSize: 5, Prefix: "asha-test:"})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(ctx))

	t.Run("get set delete", func(t *testing.T) {
		_, err := client.Get(ctx, "missing")
		assert.True(t, errors.Is(err, cache.ErrCacheMiss))

		require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))
		got, err := client.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		require.NoError(t, client.Delete(ctx, "k"))
		_, err = client.Get(ctx, "k")
		assert.True(t, errors.Is(err, cache.ErrCacheMiss))
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "short", []byte("v"), time.Second))
		assert.Eventually(t, func() bool {
			_, err := client.Get(ctx, "short")
			return errors.Is(err, cache.ErrCacheMiss)
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("delete by prefix", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "catalog:jobs:a", []byte("1"), time.Minute))
		require.NoError(t, client.Set(ctx, "catalog:jobs:b", []byte("2"), time.Minute))
		require.NoError(t, client.Set(ctx, "other", []byte("3"), time.Minute))

		require.NoError(t, client.DeleteByPrefix(ctx, "catalog:"))
		_, err := client.Get(ctx, "catalog:jobs:a")
		assert.True(t, errors.Is(err, cache.ErrCacheMiss))
		_, err = client.Get(ctx, "other")
		assert.NoError(t, err)
	})

	t.Run("analytics events over pubsub", func(t *testing.T) {
		msgs, unsubscribe, err := client.Subscribe(ctx, monitoring.AnalyticsChannel)
		require.NoError(t, err)
		defer unsubscribe()

		tracker := monitoring.NewEventTracker(nil, client)
		tracker.Track(ctx, "favorite_saved", map[string]interface{}{"itemId": "1"})

		select {
		case raw := <-msgs:
			var ev monitoring.AnalyticsEvent
			require.NoError(t, json.Unmarshal(raw, &ev))
			assert.Equal(t, "favorite_saved", ev.Name)
			assert.Equal(t, "1", ev.Properties["itemId"])
		case <-time.After(5 * time.Second):
			t.Fatal("no analytics event received")
		}
	})
}

func TestCachedCatalog_Redis(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	static, err := catalog.NewStaticCatalog(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	provider := catalog.NewCachedProvider(static, client, time.Minute, nil)

	first, err := provider.Jobs(ctx, catalog.JobFilter{Location: "bangalore"})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := provider.Jobs(ctx, catalog.JobFilter{Location: "bangalore"})
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	job, err := provider.Job(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Senior Software Engineer", job.Title)

	require.NoError(t, provider.Invalidate(ctx))
	_, err = client.Get(ctx, catalog.KeyPrefix+"job:1")
	assert.True(t, errors.Is(err, cache.ErrCacheMiss))
}
