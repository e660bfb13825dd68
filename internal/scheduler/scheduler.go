package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AI2HU/askdb/internal/logger"
)

// Evictor removes cache entries older than a cutoff
type Evictor interface {
	EvictOlderThan(ctx context.Context, t time.Time) (int, error)
}

// Scheduler periodically evicts expired question cache entries
type Scheduler struct {
	cache    Evictor
	ttl      time.Duration
	cronExpr string
	cron     *cron.Cron
	now      func() time.Time
	running  bool
	mu       sync.RWMutex
}

// New creates a scheduler evicting entries older than ttl on cronExpr
func New(cache Evictor, ttl time.Duration, cronExpr string) *Scheduler {
	return &Scheduler{
		cache:    cache,
		ttl:      ttl,
		cronExpr: cronExpr,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the eviction job and starts cron. A zero ttl disables
// eviction.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.ttl <= 0 {
		logger.Info("Cache expiry disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cronExpr, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			logger.Error("Failed to evict cache entries: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	logger.Info("Scheduler started, evicting cache entries older than %s (%s)", s.ttl, s.cronExpr)
	return nil
}

// Stop stops the scheduler and waits for a running sweep
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false

	logger.Info("Scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Sweep evicts expired entries once
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	n, err := s.cache.EvictOlderThan(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Evicted %d expired cache entries", n)
	}
	return n, nil
}
