package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLease_TryAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("first owner wins", func(t *testing.T) {
		lease := NewInMemoryLease()

		ok, err := lease.TryAcquire(ctx, SweepLeaseKey, "a", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = lease.TryAcquire(ctx, SweepLeaseKey, "b", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "a", lease.Holder(SweepLeaseKey))
	})

	t.Run("expired lease can be taken", func(t *testing.T) {
		lease := NewInMemoryLease()
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		lease.now = func() time.Time { return now }

		ok, _ := lease.TryAcquire(ctx, SweepLeaseKey, "a", time.Minute)
		require.True(t, ok)

		now = now.Add(2 * time.Minute)
		assert.Empty(t, lease.Holder(SweepLeaseKey))
		ok, err := lease.TryAcquire(ctx, SweepLeaseKey, "b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		lease := NewInMemoryLease()
		ok1, _ := lease.TryAcquire(ctx, "one", "a", time.Hour)
		ok2, _ := lease.TryAcquire(ctx, "two", "b", time.Hour)
		assert.True(t, ok1)
		assert.True(t, ok2)
	})

	t.Run("one winner under contention", func(t *testing.T) {
		lease := NewInMemoryLease()
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(owner int) {
				defer wg.Done()
				ok, err := lease.TryAcquire(ctx, SweepLeaseKey, string(rune('A'+owner%26)), time.Hour)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestInMemoryLease_Release(t *testing.T) {
	ctx := context.Background()
	lease := NewInMemoryLease()
	_, _ = lease.TryAcquire(ctx, SweepLeaseKey, "a", time.Hour)

	require.NoError(t, lease.Release(ctx, SweepLeaseKey, "b"))
	assert.Equal(t, "a", lease.Holder(SweepLeaseKey), "only the owner can release")

	require.NoError(t, lease.Release(ctx, SweepLeaseKey, "a"))
	assert.Empty(t, lease.Holder(SweepLeaseKey))

	ok, _ := lease.TryAcquire(ctx, SweepLeaseKey, "b", time.Hour)
	assert.True(t, ok)
	assert.NoError(t, lease.Close())
}
