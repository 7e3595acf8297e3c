package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSweeper struct {
	runs  atomic.Int32
	block chan struct{}
	err   error

	mu       sync.Mutex
	deadline bool
}

func (f *fakeSweeper) Run(ctx context.Context) (finance.ReconcileReport, error) {
	f.runs.Add(1)
	_, ok := ctx.Deadline()
	f.mu.Lock()
	f.deadline = ok
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return finance.ReconcileReport{}, ctx.Err()
		}
	}
	return finance.ReconcileReport{OrphanCostsDeleted: 1}, f.err
}

func testConfig(interval time.Duration) Config {
	return Config{
		Enabled:    true,
		Interval:   interval,
		RunTimeout: time.Second,
		LeaseTTL:   time.Second,
		Owner:      "test-instance",
	}
}

func startScheduler(t *testing.T, s *ReconciliationScheduler) {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	s := NewReconciliationScheduler(cfg, &fakeSweeper{}, nil, zap.NewNop())
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	sweeper := &fakeSweeper{}
	lease := cache.NewInMemoryLease()
	s := NewReconciliationScheduler(testConfig(20*time.Millisecond), sweeper, lease, zap.NewNop())
	startScheduler(t, s)

	assert.Eventually(t, func() bool { return sweeper.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return lease.Holder(cache.SweepLeaseKey) == "" }, time.Second, 10*time.Millisecond)

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.True(t, sweeper.deadline, "runs are bounded by the run timeout")
}

func TestScheduler_SkipsTimedRunWhenLeaseHeld(t *testing.T) {
	sweeper := &fakeSweeper{}
	lease := cache.NewInMemoryLease()
	ok, err := lease.TryAcquire(context.Background(), cache.SweepLeaseKey, "other-instance", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	s := NewReconciliationScheduler(testConfig(10*time.Millisecond), sweeper, lease, zap.NewNop())
	startScheduler(t, s)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), sweeper.runs.Load())

	s.TriggerReconcile(context.Background(), "apply")
	assert.Eventually(t, func() bool { return sweeper.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "other-instance", lease.Holder(cache.SweepLeaseKey))
}

func TestScheduler_CoalescesTriggers(t *testing.T) {
	sweeper := &fakeSweeper{block: make(chan struct{})}
	s := NewReconciliationScheduler(testConfig(time.Hour), sweeper, nil, zap.NewNop())
	startScheduler(t, s)

	s.TriggerReconcile(context.Background(), "first")
	require.Eventually(t, func() bool { return sweeper.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 5; i++ {
		s.TriggerReconcile(context.Background(), "burst")
	}
	close(sweeper.block)

	assert.Eventually(t, func() bool { return sweeper.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), sweeper.runs.Load())
}

func TestScheduler_RunTimeout(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sweeper := &fakeSweeper{block: make(chan struct{})}
	cfg := testConfig(time.Hour)
	cfg.RunTimeout = 20 * time.Millisecond
	s := NewReconciliationScheduler(cfg, sweeper, nil, zap.New(core))
	startScheduler(t, s)

	s.TriggerReconcile(context.Background(), "slow")
	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 5*time.Millisecond)

	entry := logs.All()[0]
	assert.Equal(t, "Scheduled reconciliation failed", entry.Message)
	assert.Equal(t, "slow", entry.ContextMap()["reason"])

	close(sweeper.block)
	s.TriggerReconcile(context.Background(), "again")
	assert.Eventually(t, func() bool { return sweeper.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_FailedRunKeepsLooping(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("finance store down")}
	s := NewReconciliationScheduler(testConfig(time.Hour), sweeper, nil, zap.NewNop())
	startScheduler(t, s)

	s.TriggerReconcile(context.Background(), "one")
	require.Eventually(t, func() bool { return sweeper.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.TriggerReconcile(context.Background(), "two")
	assert.Eventually(t, func() bool { return sweeper.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StartStop(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := NewReconciliationScheduler(testConfig(time.Hour), sweeper, nil, nil)

	assert.ErrorIs(t, s.Request(context.Background(), "early"), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.NoError(t, s.Request(context.Background(), "now"))
	assert.Eventually(t, func() bool { return sweeper.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())

	assert.NotPanics(t, func() { s.TriggerReconcile(context.Background(), "late") })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), sweeper.runs.Load())
}

func TestNewReconciliationScheduler_DefaultOwner(t *testing.T) {
	cfg := testConfig(time.Minute)
	cfg.Owner = ""
	a := NewReconciliationScheduler(cfg, &fakeSweeper{}, nil, nil)
	b := NewReconciliationScheduler(cfg, &fakeSweeper{}, nil, nil)
	assert.NotEmpty(t, a.config.Owner)
	assert.NotEqual(t, a.config.Owner, b.config.Owner)
}
