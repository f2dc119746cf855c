package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	crawlingv1alpha1 "github.com/webrecorder/crawl-control-plane/pkg/apis/crawling/v1alpha1"
	"github.com/webrecorder/crawl-control-plane/pkg/cronexpr"
	"github.com/webrecorder/crawl-control-plane/pkg/operator"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// CrawlJobCreator is the narrow boundary the materializer uses to turn an
// admitted firing into an actual CrawlJob custom resource. Production
// wiring creates the object against the Kubernetes API via
// controller-runtime's client.Client; tests substitute a fake that just
// records the spec.
type CrawlJobCreator interface {
	CreateCrawlJob(ctx context.Context, spec crawlingv1alpha1.CrawlJobSpec) error
}

// CronMaterializer is the single-writer process §4.5 describes:
// on every Tick it evaluates every active workflow's schedule, in UTC, and
// materializes a fresh CrawlJob for any schedule whose next firing instant
// has arrived since the last tick. Missed firings during downtime are never
// backfilled — advancing "last observed" straight to now on every tick,
// regardless of how many firings that skips over, is what keeps a process
// that was down for a week from flooding the cluster with a week's worth of
// queued crawls on restart.
type CronMaterializer struct {
	Store   Store
	Creator CrawlJobCreator
	Logger  log.Logger

	Now                func() time.Time
	DefaultStorageName string

	mu      sync.Mutex
	lastRun map[string]time.Time
	parser  cronexpr.Parser
}

// NewCronMaterializer builds a materializer with the standard 5-field cron
// parser (minute hour dom month dow), matching the schedule strings
// CrawlConfig.Schedule stores.
func NewCronMaterializer(s Store, creator CrawlJobCreator, logger log.Logger) *CronMaterializer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &CronMaterializer{
		Store:              s,
		Creator:            creator,
		Logger:             logger,
		Now:                func() time.Time { return time.Now().UTC() },
		DefaultStorageName: "default",
		lastRun:            make(map[string]time.Time),
		parser:             cronexpr.NewParser(),
	}
}

// Run ticks the materializer every interval until ctx is canceled.
func (m *CronMaterializer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil {
				level.Error(m.Logger).Log("msg", "cron tick failed", "err", err)
			}
		}
	}
}

// Tick evaluates every scheduled workflow once. A failure materializing one
// workflow's firing is logged and does not stop the others from being
// evaluated.
func (m *CronMaterializer) Tick(ctx context.Context) error {
	configs, err := m.Store.ListScheduledConfigs(ctx)
	if err != nil {
		return errors.Wrap(err, "list scheduled crawl configs")
	}

	now := m.Now().UTC()
	for _, cfg := range configs {
		if err := m.evaluate(ctx, cfg, now); err != nil {
			level.Error(m.Logger).Log("msg", "schedule evaluation failed", "config", cfg.ID, "err", err)
		}
	}
	return nil
}

func (m *CronMaterializer) evaluate(ctx context.Context, cfg store.CrawlConfig, now time.Time) error {
	due, err := m.dueSince(cfg.ID, cfg.Schedule, now)
	if err != nil {
		return errors.Wrapf(err, "parse schedule %q for config %s", cfg.Schedule, cfg.ID)
	}
	m.setLastRun(cfg.ID, now)
	if !due {
		return nil
	}

	if cfg.LastCrawlID != nil && cfg.LastCrawlState != nil && !operator.IsTerminal(*cfg.LastCrawlState) {
		level.Info(m.Logger).Log("msg", "skipping scheduled firing, previous crawl still running",
			"config", cfg.ID, "crawl", *cfg.LastCrawlID, "errorDetail", "slow_down_too_many_crawls_queued")
		return nil
	}

	spec := crawlingv1alpha1.CrawlJobSpec{
		ID:             newCrawlJobID(),
		OrgID:          cfg.OrgID,
		ConfigID:       cfg.ID,
		Scheduled:      true,
		Manual:         false,
		MaxCrawlSize:   cfg.MaxCrawlSize,
		Timeout:        cfg.CrawlTimeout,
		BrowserWindows: cfg.BrowserWindows,
		StorageName:    m.DefaultStorageName,
	}

	if err := m.Creator.CreateCrawlJob(ctx, spec); err != nil {
		return errors.Wrapf(err, "create crawl job for config %s", cfg.ID)
	}
	level.Info(m.Logger).Log("msg", "materialized scheduled crawl", "config", cfg.ID, "crawl", spec.ID)
	return nil
}

// dueSince reports whether schedule has a firing instant in (lastRun, now].
// A workflow observed for the first time is seeded at now without firing —
// the materializer only acts on firings it has actually been running to see,
// never on a schedule's history from before this process started watching
// it.
func (m *CronMaterializer) dueSince(configID, expr string, now time.Time) (bool, error) {
	m.mu.Lock()
	last, seen := m.lastRun[configID]
	m.mu.Unlock()

	if !seen {
		return false, nil
	}
	return m.parser.DueSince(expr, last, now)
}

func (m *CronMaterializer) setLastRun(configID string, now time.Time) {
	m.mu.Lock()
	m.lastRun[configID] = now
	m.mu.Unlock()
}

// Forget drops a workflow's last-observed instant, e.g. once it is deleted
// or deactivated, so a later reused id does not inherit stale history.
func (m *CronMaterializer) Forget(configID string) {
	m.mu.Lock()
	delete(m.lastRun, configID)
	m.mu.Unlock()
}
