//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coursegate/internal/platform/config"
	"coursegate/pkg/testutil/containers"
)

func TestNewConnectsToRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	client, err := New(context.Background(), config.Redis{URL: rc.URL, PoolSize: 4, DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Health(context.Background()))
}
