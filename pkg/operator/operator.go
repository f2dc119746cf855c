package operator

import (
	"context"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSyncAddr is the address the sync webhook HTTP server listens on
// when Options.SyncAddr is unset.
const DefaultSyncAddr = ":8080"

// Operator hosts the meta-controller sync webhook (§6): it owns the four
// reconcilers, wires a shared ReconcileMetrics set into whichever of them
// accept one, and serves SyncServer's mux until its context is cancelled.
// This Operator keeps no controller-runtime
// manager and runs no informer/work-queue loop of its own — reconciliation
// is driven entirely by inbound HTTP calls from an externally-deployed
// metacontroller process, so there is no in-process watch loop to host.
type Operator struct {
	logger log.Logger
	opts   Options

	Sync    *SyncServer
	Metrics *ReconcileMetrics

	server *http.Server
}

// Options configures an Operator.
type Options struct {
	// SyncAddr is the address the sync webhook HTTP server listens on.
	SyncAddr string
}

func (o *Options) defaultAndValidate() {
	if o.SyncAddr == "" {
		o.SyncAddr = DefaultSyncAddr
	}
}

// New builds an Operator wired to the four supplied reconcilers and
// registers its metrics against registry. A nil reconciler leaves its route
// unregistered, e.g. for a deployment that only wants CrawlJob handling.
// CrawlJobReconciler is the only reconciler with a Stats field; it gets the
// Operator's ReconcileMetrics instance unless it already has one, so its
// sync durations and errors are recorded under the "crawljob" target. The
// ProfileJob, CollIndex and CronJob reconcilers record no metrics.
func New(logger log.Logger, crawl *CrawlJobReconciler, profile *ProfileJobReconciler, collIndex *CollIndexReconciler, cronJob *CronJobReconciler, registry prometheus.Registerer, opts Options) (*Operator, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	opts.defaultAndValidate()

	metrics := NewReconcileMetrics(registry)

	sync := NewSyncServer(logger)
	if crawl != nil {
		if crawl.Stats == nil {
			crawl.Stats = metrics
		}
		sync.Handle("/sync/crawljob", crawl.HandleSync)
	}
	if profile != nil {
		sync.Handle("/sync/profilejob", profile.HandleSync)
	}
	if collIndex != nil {
		sync.Handle("/sync/collindex", collIndex.HandleSync)
	}
	if cronJob != nil {
		sync.Handle("/sync/cronjob", cronJob.HandleSync)
	}

	return &Operator{
		logger:  logger,
		opts:    opts,
		Sync:    sync,
		Metrics: metrics,
	}, nil
}

// Run serves the sync webhook until ctx is cancelled, then shuts the HTTP
// server down gracefully. This is the operator process's entire runtime
// loop: every reconcile happens synchronously inside a request handler, so
// there is no separate background work to start alongside it.
func (o *Operator) Run(ctx context.Context) error {
	o.server = &http.Server{Addr: o.opts.SyncAddr, Handler: o.Sync.Mux()}

	errCh := make(chan error, 1)
	go func() {
		level.Info(o.logger).Log("msg", "sync webhook listening", "addr", o.opts.SyncAddr)
		if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := o.server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shut down sync webhook server")
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
