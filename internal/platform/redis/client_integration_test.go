//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"campus/internal/platform/config"
	"campus/internal/platform/redis"
	"campus/pkg/testutil/containers"
)

func TestNewConnectsAndReportsHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	container := containers.GetManager().GetRedis(t)

	client, err := redis.New(ctx, config.RedisConfig{URL: container.URL, PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Health(ctx))
}

func TestNewWithoutURLIsDisabled(t *testing.T) {
	client, err := redis.New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := redis.New(context.Background(), config.RedisConfig{URL: "not a url"})
	require.Error(t, err)
}
