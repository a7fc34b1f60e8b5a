// Package scheduler runs the periodic background jobs: the incremental
// Shopify sync and the export-plus-knowledge refresh cycle.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/shopsync/backend/internal/domain/sync"
)

// SyncRunner is the synchronization surface the scheduler drives
type SyncRunner interface {
	SyncRecentOrders(ctx context.Context, days int) syncdomain.Result
	SyncAllInventory(ctx context.Context) syncdomain.Result
}

// ExportRunner produces the CSV export files
type ExportRunner interface {
	ExportAll(ctx context.Context) ([]string, error)
}

// KnowledgeRefresher pushes fresh export files to the assistant
type KnowledgeRefresher interface {
	UpdateKnowledge(ctx context.Context, paths []string) error
}

// Config holds scheduler configuration
type Config struct {
	// SyncInterval is how often the incremental sync job runs
	SyncInterval time.Duration
	// ExportInterval is how often the export and knowledge refresh job runs
	ExportInterval time.Duration
	// RecentWindowDays is the lookback window for the incremental order sync
	RecentWindowDays int
	// JobTimeout is the maximum time a single job run can take
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		SyncInterval:     time.Hour,
		ExportInterval:   24 * time.Hour,
		RecentWindowDays: 2,
		JobTimeout:       30 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SyncInterval <= 0 || c.ExportInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.RecentWindowDays <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler runs the two periodic jobs on independent tickers. At most one
// run of each job type is in flight at a time; a tick that lands while the
// previous run is still going is skipped.
type Scheduler struct {
	config    Config
	syncer    SyncRunner
	exporter  ExportRunner
	refresher KnowledgeRefresher
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	syncBusy   atomicFlag
	exportBusy atomicFlag
}

// NewScheduler creates a new Scheduler
func NewScheduler(config Config, syncer SyncRunner, exporter ExportRunner, refresher KnowledgeRefresher, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:    config,
		syncer:    syncer,
		exporter:  exporter,
		refresher: refresher,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start starts the ticker loops
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.config.SyncInterval, "sync", s.RunSyncJob)
	go s.loop(ctx, s.config.ExportInterval, "export", s.RunExportJob)

	s.logger.Info("scheduler started",
		zap.Duration("sync_interval", s.config.SyncInterval),
		zap.Duration("export_interval", s.config.ExportInterval),
		zap.Int("recent_window_days", s.config.RecentWindowDays),
	)
	return nil
}

// Stop stops the ticker loops and waits for in-flight jobs
func (s *Scheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, name string, job func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("job loop stopping", zap.String("job", name))
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// RunSyncJob runs one incremental sync cycle: recent orders, then inventory.
// It is a no-op when a previous sync run is still in flight.
func (s *Scheduler) RunSyncJob(ctx context.Context) {
	if !s.syncBusy.tryAcquire() {
		s.logger.Warn("sync job still running, skipping tick")
		return
	}
	defer s.syncBusy.release()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	orders := s.syncer.SyncRecentOrders(jobCtx, s.config.RecentWindowDays)
	s.logResult("recent order sync", orders)
	if !orders.Success {
		return
	}

	inventory := s.syncer.SyncAllInventory(jobCtx)
	s.logResult("inventory sync", inventory)

	s.logger.Info("sync job finished",
		zap.Int("orders", orders.Count),
		zap.Int("inventory_items", inventory.Count),
		zap.Duration("elapsed", time.Since(started)),
	)
}

// RunExportJob runs one export cycle and pushes the files to the assistant.
// It is a no-op when a previous export run is still in flight.
func (s *Scheduler) RunExportJob(ctx context.Context) {
	if !s.exportBusy.tryAcquire() {
		s.logger.Warn("export job still running, skipping tick")
		return
	}
	defer s.exportBusy.release()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	paths, err := s.exporter.ExportAll(jobCtx)
	if err != nil {
		s.logger.Error("export job failed", zap.Error(err))
		return
	}

	if err := s.refresher.UpdateKnowledge(jobCtx, paths); err != nil {
		s.logger.Error("knowledge refresh failed", zap.Error(err))
		return
	}

	s.logger.Info("export job finished",
		zap.Strings("files", paths),
		zap.Duration("elapsed", time.Since(started)),
	)
}

func (s *Scheduler) logResult(operation string, result syncdomain.Result) {
	if result.Success {
		s.logger.Info(operation+" completed",
			zap.Int("count", result.Count),
			zap.String("message", result.Message),
		)
		return
	}
	s.logger.Error(operation+" failed", zap.String("message", result.Message))
}

// atomicFlag is a non-blocking mutex used to keep one job run in flight
type atomicFlag struct {
	mu   sync.Mutex
	busy bool
}

func (f *atomicFlag) tryAcquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	return true
}

func (f *atomicFlag) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}
