package scheduler

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"

	"github.com/webrecorder/crawl-control-plane/pkg/storage"
)

// DefaultCronInterval, DefaultJobPollInterval and DefaultSweepInterval are
// the tick rates Options falls back to when left unset.
const (
	DefaultCronInterval    = 10 * time.Second
	DefaultJobPollInterval = 5 * time.Second
	DefaultSweepInterval   = time.Hour
)

// Options configures a Scheduler's background loops.
type Options struct {
	CronInterval    time.Duration
	JobPollInterval time.Duration
	SweepInterval   time.Duration

	Concurrency              int
	ReplicaDeletionDelayDays int
	DefaultStorageName       string
}

func (o *Options) defaultAndValidate() {
	if o.CronInterval <= 0 {
		o.CronInterval = DefaultCronInterval
	}
	if o.JobPollInterval <= 0 {
		o.JobPollInterval = DefaultJobPollInterval
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
}

// Scheduler is the C5 process: it runs the cron materializer and the
// background job dispatcher side by side, composing the process's
// independent run loops with oklog/run rather than hand-rolling a
// WaitGroup and an error channel.
// Unlike Operator, which serves an HTTP mux and has only one loop to host,
// Scheduler hosts three — cron evaluation, job polling, and the periodic
// sweep for jobs with no single document to dispatch against — so a
// run.Group is the natural fit: an error surfacing from any one of them
// cancels the shared context and brings the other two down with it.
type Scheduler struct {
	logger log.Logger
	opts   Options

	Cron *CronMaterializer
	Jobs *BackgroundJobDispatcher
}

// New builds a Scheduler wired to s for persistence, creator for
// materializing CrawlJob custom resources, and facet for the object moves
// the background job handlers perform.
func New(logger log.Logger, s Store, creator CrawlJobCreator, facet storage.Facet, opts Options) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	opts.defaultAndValidate()

	cron := NewCronMaterializer(s, creator, logger)
	if opts.DefaultStorageName != "" {
		cron.DefaultStorageName = opts.DefaultStorageName
	}

	jobs := NewBackgroundJobDispatcher(s, facet, logger)
	if opts.Concurrency > 0 {
		jobs.Concurrency = opts.Concurrency
	}
	if opts.ReplicaDeletionDelayDays > 0 {
		jobs.ReplicaDeletionDelayDays = opts.ReplicaDeletionDelayDays
	}

	return &Scheduler{
		logger: logger,
		opts:   opts,
		Cron:   cron,
		Jobs:   jobs,
	}
}

// Run starts all three loops and blocks until ctx is cancelled or one of
// them returns an error.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group
	g.Add(func() error {
		return s.Cron.Run(ctx, s.opts.CronInterval)
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		return s.Jobs.Run(ctx, s.opts.JobPollInterval)
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		return s.runSweep(ctx)
	}, func(error) {
		cancel()
	})

	return g.Run()
}

// runSweep invokes the jobs with no natural single BackgroundJob target —
// currently cleanup-seed-files — on their own, coarser interval.
func (s *Scheduler) runSweep(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Jobs.Sweep(ctx); err != nil {
				level.Error(s.logger).Log("msg", "sweep failed", "err", err)
			}
		}
	}
}
