package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	syncdomain "github.com/shopsync/backend/internal/domain/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncRunner struct {
	mu             sync.Mutex
	recentCalls    []int
	inventoryCalls int
	recentResult   syncdomain.Result
	block          chan struct{}
}

func (f *fakeSyncRunner) SyncRecentOrders(_ context.Context, days int) syncdomain.Result {
	f.mu.Lock()
	f.recentCalls = append(f.recentCalls, days)
	block := f.block
	result := f.recentResult
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return result
}

func (f *fakeSyncRunner) SyncAllInventory(_ context.Context) syncdomain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventoryCalls++
	return syncdomain.Ok(12, "Synced 12 inventory items")
}

func (f *fakeSyncRunner) counts() ([]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.recentCalls...), f.inventoryCalls
}

type fakeExportRunner struct {
	mu    sync.Mutex
	calls int
	paths []string
	err   error
}

func (f *fakeExportRunner) ExportAll(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.paths, f.err
}

type fakeRefresher struct {
	mu    sync.Mutex
	paths [][]string
}

func (f *fakeRefresher) UpdateKnowledge(_ context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, paths)
	return nil
}

func newTestScheduler(t *testing.T, syncer *fakeSyncRunner, exporter *fakeExportRunner, refresher *fakeRefresher) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RecentWindowDays = 2
	s, err := NewScheduler(cfg, syncer, exporter, refresher, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults are valid", func(*Config) {}, true},
		{"zero sync interval", func(c *Config) { c.SyncInterval = 0 }, false},
		{"zero export interval", func(c *Config) { c.ExportInterval = 0 }, false},
		{"zero recent window", func(c *Config) { c.RecentWindowDays = 0 }, false},
		{"zero job timeout", func(c *Config) { c.JobTimeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestScheduler_RunSyncJob(t *testing.T) {
	t.Run("runs orders then inventory", func(t *testing.T) {
		syncer := &fakeSyncRunner{recentResult: syncdomain.Ok(5, "Synced 5 orders")}
		s := newTestScheduler(t, syncer, &fakeExportRunner{}, &fakeRefresher{})

		s.RunSyncJob(context.Background())

		recent, inventory := syncer.counts()
		assert.Equal(t, []int{2}, recent)
		assert.Equal(t, 1, inventory)
	})

	t.Run("skips inventory when the order sync fails", func(t *testing.T) {
		syncer := &fakeSyncRunner{recentResult: syncdomain.Fail("API Error: 503")}
		s := newTestScheduler(t, syncer, &fakeExportRunner{}, &fakeRefresher{})

		s.RunSyncJob(context.Background())

		recent, inventory := syncer.counts()
		assert.Len(t, recent, 1)
		assert.Zero(t, inventory)
	})

	t.Run("a tick during a running job is skipped", func(t *testing.T) {
		block := make(chan struct{})
		syncer := &fakeSyncRunner{
			recentResult: syncdomain.Ok(5, "Synced 5 orders"),
			block:        block,
		}
		s := newTestScheduler(t, syncer, &fakeExportRunner{}, &fakeRefresher{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunSyncJob(context.Background())
		}()

		// wait for the first run to be in flight
		require.Eventually(t, func() bool {
			recent, _ := syncer.counts()
			return len(recent) == 1
		}, time.Second, time.Millisecond)

		s.RunSyncJob(context.Background())
		close(block)
		wg.Wait()

		recent, _ := syncer.counts()
		assert.Len(t, recent, 1)
	})
}

func TestScheduler_RunExportJob(t *testing.T) {
	t.Run("refreshes knowledge with the exported files", func(t *testing.T) {
		exporter := &fakeExportRunner{paths: []string{"/tmp/orders_export.csv", "/tmp/products_export.csv"}}
		refresher := &fakeRefresher{}
		s := newTestScheduler(t, &fakeSyncRunner{}, exporter, refresher)

		s.RunExportJob(context.Background())

		require.Len(t, refresher.paths, 1)
		assert.Equal(t, exporter.paths, refresher.paths[0])
	})

	t.Run("export failure skips the refresh", func(t *testing.T) {
		exporter := &fakeExportRunner{err: errors.New("disk full")}
		refresher := &fakeRefresher{}
		s := newTestScheduler(t, &fakeSyncRunner{}, exporter, refresher)

		s.RunExportJob(context.Background())

		assert.Empty(t, refresher.paths)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	syncer := &fakeSyncRunner{recentResult: syncdomain.Ok(5, "Synced 5 orders")}
	cfg := Config{
		SyncInterval:     5 * time.Millisecond,
		ExportInterval:   time.Hour,
		RecentWindowDays: 1,
		JobTimeout:       time.Minute,
	}
	s, err := NewScheduler(cfg, syncer, &fakeExportRunner{}, &fakeRefresher{}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	// Start is idempotent
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		recent, _ := syncer.counts()
		return len(recent) >= 2
	}, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}
