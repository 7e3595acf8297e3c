package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"github.com/freightdesk/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sweeper runs one reconciliation pass
type Sweeper interface {
	Run(ctx context.Context) (finance.ReconcileReport, error)
}

// Config holds scheduler configuration
type Config struct {
	Enabled    bool
	Interval   time.Duration
	RunTimeout time.Duration
	LeaseTTL   time.Duration
	// Owner identifies this instance when holding the sweep lease.
	// Empty means hostname plus a random suffix.
	Owner string
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Interval:   5 * time.Minute,
		RunTimeout: 2 * time.Minute,
		LeaseTTL:   4 * time.Minute,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Interval <= 0 || c.RunTimeout <= 0 || c.LeaseTTL <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ReconciliationScheduler runs the sweeper on a timer and on demand.
// Passes never overlap inside one instance: timed and triggered runs share a
// single loop. Timed runs additionally hold the sweep lease so only one
// instance of a deployment sweeps per interval; triggered runs skip it.
type ReconciliationScheduler struct {
	config  Config
	sweeper Sweeper
	lease   cache.Lease
	logger  *zap.Logger

	requests  chan string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReconciliationScheduler creates a new scheduler. lease may be nil,
// in which case every timed run proceeds.
func NewReconciliationScheduler(config Config, sweeper Sweeper, lease cache.Lease, logger *zap.Logger) *ReconciliationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Owner == "" {
		host, _ := os.Hostname()
		config.Owner = host + "/" + uuid.NewString()[:8]
	}
	return &ReconciliationScheduler{
		config:   config,
		sweeper:  sweeper,
		lease:    lease,
		logger:   logger,
		requests: make(chan string, 1),
	}
}

// Start starts the run loop. Calling Start on a running scheduler is a no-op.
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.String("owner", s.config.Owner),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight pass to return
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ReconciliationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerReconcile queues a pass and returns immediately. Requests arriving
// while one is already queued are coalesced into it.
func (s *ReconciliationScheduler) TriggerReconcile(_ context.Context, reason string) {
	if !s.IsRunning() {
		s.logger.Debug("Reconciliation trigger ignored, scheduler stopped", zap.String("reason", reason))
		return
	}
	select {
	case s.requests <- reason:
	default:
		s.logger.Debug("Reconciliation trigger coalesced", zap.String("reason", reason))
	}
}

// Request queues a pass, reporting ErrSchedulerNotRunning when stopped
func (s *ReconciliationScheduler) Request(ctx context.Context, reason string) error {
	if !s.IsRunning() {
		return ErrSchedulerNotRunning
	}
	s.TriggerReconcile(ctx, reason)
	return nil
}

func (s *ReconciliationScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.timedRun(ctx)
		case reason := <-s.requests:
			s.runOnce(ctx, reason)
		}
	}
}

func (s *ReconciliationScheduler) timedRun(ctx context.Context) {
	if s.lease == nil {
		s.runOnce(ctx, "interval")
		return
	}

	acquired, err := s.lease.TryAcquire(ctx, cache.SweepLeaseKey, s.config.Owner, s.config.LeaseTTL)
	if err != nil {
		s.logger.Warn("Failed to acquire reconciliation lease", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("Reconciliation lease held elsewhere, skipping timed run")
		return
	}
	defer func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), cache.SweepLeaseKey, s.config.Owner); err != nil {
			s.logger.Warn("Failed to release reconciliation lease", zap.Error(err))
		}
	}()

	s.runOnce(ctx, "interval")
}

func (s *ReconciliationScheduler) runOnce(ctx context.Context, reason string) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	report, err := s.sweeper.Run(runCtx)
	if err != nil {
		s.logger.Error("Scheduled reconciliation failed",
			zap.String("reason", reason),
			zap.Int("changes", report.Total()),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Scheduled reconciliation finished",
		zap.String("reason", reason),
		zap.Int("changes", report.Total()),
	)
}
