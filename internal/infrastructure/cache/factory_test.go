package cache

import (
	"testing"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachable points at a port nothing listens on
var unreachable = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestLeaseFactory_CreateLease(t *testing.T) {
	t.Run("redis disabled", func(t *testing.T) {
		lease, err := NewLeaseFactory(config.RedisConfig{}).CreateLease()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLease{}, lease)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		lease, err := NewLeaseFactory(unreachable, WithLogger(zap.New(core))).CreateLease()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLease{}, lease)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewLeaseFactory(unreachable, WithInMemoryFallback(false)).CreateLease()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}
