package cache

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackend(t *testing.T) {
	c, err := New(context.Background(), config.Cache{Backend: config.CacheBackendMemory}, time.Second, logger.Nop())

	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	assert.NoError(t, c.Close())
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.Cache{Backend: "etcd"}, time.Second, logger.Nop())
	assert.Error(t, err)
}

// TestNew_RedisUnreachable verifies that an unreachable Redis fails fast
// within the call timeout instead of hanging startup.
func TestNew_RedisUnreachable(t *testing.T) {
	cfg := config.Cache{Backend: config.CacheBackendRedis, Address: "127.0.0.1:1"}

	start := time.Now()
	_, err := New(context.Background(), cfg, 200*time.Millisecond, logger.Nop())

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
