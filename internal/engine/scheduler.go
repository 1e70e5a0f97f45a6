package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/card-price-tracker/internal/ebay"
)

// Sweeper is a cache that can drop entries past their stale window.
type Sweeper interface {
	Name() string
	Sweep() int
}

// Scheduler manages periodic cache sweeps and quota syncs.
type Scheduler struct {
	cron     *cron.Cron
	caches   []Sweeper
	quota    ebay.QuotaSyncer
	ctrl     *ebay.Controller
	log      *slog.Logger
	timeout  time.Duration
	sweepDur time.Duration
}

// SchedulerOption configures the Scheduler.
type SchedulerOption func(*Scheduler)

// WithQuotaSync registers a periodic quota sync against ctrl.
func WithQuotaSync(q ebay.QuotaSyncer, ctrl *ebay.Controller) SchedulerOption {
	return func(s *Scheduler) {
		s.quota = q
		s.ctrl = ctrl
	}
}

// NewScheduler creates a Scheduler sweeping caches every sweepInterval. A
// quota sync, when configured, runs every quotaInterval.
func NewScheduler(
	caches []Sweeper,
	sweepInterval time.Duration,
	quotaInterval time.Duration,
	log *slog.Logger,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		caches:   caches,
		log:      log,
		timeout:  30 * time.Second,
		sweepDur: sweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.cron.AddFunc(
		"@every "+sweepInterval.String(),
		s.runSweep,
	); err != nil {
		return nil, err
	}

	if s.quota != nil && s.ctrl != nil && quotaInterval > 0 {
		if _, err := s.cron.AddFunc(
			"@every "+quotaInterval.String(),
			s.runQuotaSync,
		); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "sweep_interval", s.sweepDur)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSweep() {
	for _, c := range s.caches {
		if n := c.Sweep(); n > 0 {
			s.log.Info("cache swept", "cache", c.Name(), "evicted", n)
		}
	}
}

func (s *Scheduler) runQuotaSync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	q, err := s.quota.SyncBrowseQuota(ctx, s.ctrl)
	if err != nil {
		s.log.Warn("quota sync failed", "error", err)
		return
	}
	s.log.Debug("quota synced", "count", q.Count, "limit", q.Limit, "reset_at", q.ResetAt)
}
