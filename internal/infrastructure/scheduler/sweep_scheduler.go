package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ledgercore/backend/internal/application/alerting"
	"go.uber.org/zap"
)

// SweepRunner executes one full sweep pass
type SweepRunner interface {
	RunAll(ctx context.Context) (*alerting.SweepReport, error)
}

// Config holds sweep scheduler configuration
type Config struct {
	Enabled  bool
	Interval time.Duration
}

// SweepScheduler runs the alert sweeps on a fixed interval. Overlap
// across processes is prevented by the sweep service's advisory locks,
// so running several instances against one database is safe.
type SweepScheduler struct {
	config Config
	runner SweepRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepScheduler creates a sweep scheduler
func NewSweepScheduler(config Config, runner SweepRunner, logger *zap.Logger) *SweepScheduler {
	return &SweepScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start launches the scheduler loop. The first sweep runs immediately.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop stops the scheduler, waiting for an in-flight sweep to finish
// or the context to expire
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SweepScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SweepScheduler) runOnce(ctx context.Context) {
	started := time.Now()
	report, err := s.runner.RunAll(ctx)
	if err != nil {
		s.logger.Error("Sweep run failed", zap.Error(err))
		return
	}

	if report.Skipped {
		s.logger.Debug("Sweep skipped, another runner holds the locks")
		return
	}

	s.logger.Info("Sweep run finished",
		zap.Int("expired_lots", report.ExpiredLots),
		zap.Int("expiring_lots", report.ExpiringLots),
		zap.Int("low_stock", report.LowStock),
		zap.Int64("cleaned_up", report.CleanedUp),
		zap.Duration("took", time.Since(started)),
	)
}
