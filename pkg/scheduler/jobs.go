package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/webrecorder/crawl-control-plane/pkg/storage"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// migrationUnsupportedDetail is the fixed errorDetail recorded for any
// migration-job, which this dispatcher recognizes only to close the
// BackgroundJobType sum type without actually running migrations.
const migrationUnsupportedDetail = "migration_jobs_not_supported"

// dispatchedJobTypes is every BackgroundJobType the orchestrator polls,
// excluding cleanup-seed-files and optimize-pages, which have no
// per-document target. Sweep runs cleanup-seed-files on its own schedule;
// optimize-pages runs only when OptimizePages is called for a crawl.
var dispatchedJobTypes = []store.BackgroundJobType{
	store.JobCreateReplica,
	store.JobDeleteReplica,
	store.JobDeleteOrg,
	store.JobRecalculateOrgStats,
	store.JobReAddOrgPages,
	store.JobMigration,
}

// PageIndexReader re-derives Page records from a crawl file's WACZ index, the
// boundary the re-add-org-pages job reads through. No concrete WACZ/CDXJ
// parser is wired here for the same reason pkg/storage.Facet carries no
// concrete object-storage SDK: none of the retrieval pack's examples carries
// one, and the parsing format itself is out of this module's scope.
type PageIndexReader interface {
	ReadPages(ctx context.Context, storageName, key string) ([]store.Page, error)
}

// NoopPageIndexReader implements PageIndexReader by reporting no pages,
// the default until a real WACZ-reading implementation is wired in.
type NoopPageIndexReader struct{}

func (NoopPageIndexReader) ReadPages(ctx context.Context, storageName, key string) ([]store.Page, error) {
	return nil, nil
}

// BackgroundJobDispatcher is the bounded worker pool §5 describes: each Poll
// call lists every pending job across the dispatched kinds and runs up to
// Concurrency handlers at once, modeled as a semaphore-style buffered
// channel rather than a third-party pool library, consistent with no pack
// example carrying one.
type BackgroundJobDispatcher struct {
	Store   Store
	Storage storage.Facet
	Pages   PageIndexReader
	Logger  log.Logger

	Concurrency              int
	ReplicaDeletionDelayDays int

	Now func() time.Time
}

const defaultConcurrency = 8
const defaultReplicaDeletionDelayDays = 7

// NewBackgroundJobDispatcher builds a dispatcher with its default
// concurrency and grace window.
func NewBackgroundJobDispatcher(s Store, facet storage.Facet, logger log.Logger) *BackgroundJobDispatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if facet == nil {
		facet = storage.NoopFacet{}
	}
	return &BackgroundJobDispatcher{
		Store:                    s,
		Storage:                  facet,
		Pages:                    NoopPageIndexReader{},
		Logger:                   logger,
		Concurrency:              defaultConcurrency,
		ReplicaDeletionDelayDays: defaultReplicaDeletionDelayDays,
		Now:                      time.Now,
	}
}

// Run polls every interval until ctx is canceled, sweeping stuck jobs once
// per poll as well.
func (d *BackgroundJobDispatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Poll(ctx); err != nil {
				level.Error(d.Logger).Log("msg", "background job poll failed", "err", err)
			}
			if err := d.RecoverStuck(ctx); err != nil {
				level.Error(d.Logger).Log("msg", "stuck job recovery failed", "err", err)
			}
		}
	}
}

// Poll lists every pending job across the dispatched kinds and runs each
// through its handler, bounded by Concurrency concurrent handlers.
func (d *BackgroundJobDispatcher) Poll(ctx context.Context) error {
	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, typ := range dispatchedJobTypes {
		jobs, err := d.Store.ListPendingJobs(ctx, typ)
		if err != nil {
			level.Error(d.Logger).Log("msg", "list pending jobs failed", "type", typ, "err", err)
			continue
		}
		for i := range jobs {
			job := jobs[i]
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				d.handle(ctx, job)
			}()
		}
	}
	wg.Wait()
	return nil
}

func (d *BackgroundJobDispatcher) handle(ctx context.Context, job store.BackgroundJob) {
	var err error
	switch job.Type {
	case store.JobCreateReplica:
		err = d.handleCreateReplica(ctx, job)
	case store.JobDeleteReplica:
		err = d.handleDeleteReplica(ctx, job)
		if err == errDeferred {
			return
		}
	case store.JobDeleteOrg:
		err = d.handleDeleteOrg(ctx, job)
	case store.JobRecalculateOrgStats:
		err = d.handleRecalculateOrgStats(ctx, job)
	case store.JobReAddOrgPages:
		err = d.handleReAddOrgPages(ctx, job)
	case store.JobMigration:
		if ferr := d.Store.FinishJob(ctx, job.ID, false, migrationUnsupportedDetail); ferr != nil {
			level.Error(d.Logger).Log("msg", "finish migration job failed", "job", job.ID, "err", ferr)
		}
		return
	default:
		err = errors.Errorf("unknown background job type %q", job.Type)
	}

	if err != nil {
		level.Error(d.Logger).Log("msg", "background job failed", "job", job.ID, "type", job.Type, "err", err)
		if ferr := d.Store.FinishJob(ctx, job.ID, false, err.Error()); ferr != nil {
			level.Error(d.Logger).Log("msg", "finish failed job failed", "job", job.ID, "err", ferr)
		}
		return
	}
	if ferr := d.Store.FinishJob(ctx, job.ID, true, ""); ferr != nil {
		level.Error(d.Logger).Log("msg", "finish succeeded job failed", "job", job.ID, "err", ferr)
	}
}

// handleCreateReplica copies a crawl file's primary object to its configured
// replica storage and records the replica on success. Re-running a job whose
// replica already landed is a no-op append of an already-observed entry,
// keeping the handler idempotent on retry.
func (d *BackgroundJobDispatcher) handleCreateReplica(ctx context.Context, job store.BackgroundJob) error {
	crawl, err := d.Store.GetCrawl(ctx, job.ObjectID)
	if err != nil {
		return errors.Wrapf(err, "get crawl %s", job.ObjectID)
	}
	var srcStorage string
	for _, f := range crawl.Files {
		if f.Filename == job.FilePath {
			srcStorage = f.Storage.Name
			break
		}
	}
	if srcStorage == "" {
		return errors.Errorf("crawl %s has no file %s", job.ObjectID, job.FilePath)
	}

	if err := d.Storage.Copy(ctx, srcStorage, job.FilePath, job.ReplicaStorage); err != nil {
		return errors.Wrapf(err, "copy %s to replica %s", job.FilePath, job.ReplicaStorage)
	}
	replica := store.ReplicaRef{Name: job.ReplicaStorage, Path: job.FilePath}
	if err := d.Store.AppendCrawlReplica(ctx, job.ObjectID, job.FilePath, replica); err != nil {
		return errors.Wrapf(err, "record replica for crawl %s file %s", job.ObjectID, job.FilePath)
	}
	return nil
}

// handleDeleteReplica deletes a replica copy once the grace window has
// elapsed since the job was enqueued. Before the window elapses it returns
// the errDeferred sentinel, which handle checks so the job stays pending
// instead of being finished as a success or a failure.
func (d *BackgroundJobDispatcher) handleDeleteReplica(ctx context.Context, job store.BackgroundJob) error {
	delay := time.Duration(d.gracePeriodDays()) * 24 * time.Hour
	if d.now().Sub(job.Started) < delay {
		return errDeferred
	}
	if err := d.Storage.Delete(ctx, job.ReplicaStorage, job.FilePath); err != nil {
		return errors.Wrapf(err, "delete replica %s for %s", job.ReplicaStorage, job.FilePath)
	}
	return nil
}

// errDeferred signals handle to leave a job pending rather than finishing it
// either way — handleDeleteReplica's grace window has not elapsed yet.
var errDeferred = errors.New("deferred: grace window not elapsed")

// handleDeleteOrg cascades the deletion of every document and stored object
// owned by an organization: stop active crawls, delete every file's primary
// and replica copies, then drop every collection §4.2's `oid` index names,
// finally the organization document itself. QARun documents have no `oid`
// field and are not part of this cascade (§4.2's data model only threads
// `crawlId` through QARun, not the owning org).
func (d *BackgroundJobDispatcher) handleDeleteOrg(ctx context.Context, job store.BackgroundJob) error {
	orgID := job.OrgID

	active, err := d.Store.ListOrgCrawls(ctx, orgID, store.CrawlTypeCrawl, false)
	if err != nil {
		return errors.Wrapf(err, "list active crawls for org %s", orgID)
	}
	for _, c := range active {
		if err := d.Store.SetCrawlStopping(ctx, c.ID, true); err != nil {
			return errors.Wrapf(err, "stop crawl %s", c.ID)
		}
	}

	for _, typ := range []store.CrawlType{store.CrawlTypeCrawl, store.CrawlTypeUpload, store.CrawlTypeQA} {
		for _, finished := range []bool{true, false} {
			crawls, err := d.Store.ListOrgCrawls(ctx, orgID, typ, finished)
			if err != nil {
				return errors.Wrapf(err, "list org crawls for org %s", orgID)
			}
			for _, c := range crawls {
				for _, f := range c.Files {
					if err := d.Storage.Delete(ctx, f.Storage.Name, f.Filename); err != nil {
						return errors.Wrapf(err, "delete primary file %s for crawl %s", f.Filename, c.ID)
					}
					for _, r := range f.Replicas {
						if err := d.Storage.Delete(ctx, r.Name, f.Filename); err != nil {
							return errors.Wrapf(err, "delete replica file %s for crawl %s", f.Filename, c.ID)
						}
					}
				}
			}
		}
	}

	if err := d.Store.DeleteOrgCrawls(ctx, orgID); err != nil {
		return err
	}
	if err := d.Store.DeleteOrgCrawlConfigs(ctx, orgID); err != nil {
		return err
	}
	if err := d.Store.DeleteOrgPages(ctx, orgID); err != nil {
		return err
	}
	if err := d.Store.DeleteOrgCollections(ctx, orgID); err != nil {
		return err
	}
	if err := d.Store.DeleteOrgInvites(ctx, orgID); err != nil {
		return err
	}
	return d.Store.DeleteOrganization(ctx, orgID)
}

// handleRecalculateOrgStats recomputes bytesStoredCrawls from scratch by
// summing every file size across the org's crawls, rather than trusting
// drifted $inc-accumulated state.
func (d *BackgroundJobDispatcher) handleRecalculateOrgStats(ctx context.Context, job store.BackgroundJob) error {
	orgID := job.OrgID

	var total int64
	for _, finished := range []bool{true, false} {
		crawls, err := d.Store.ListOrgCrawls(ctx, orgID, store.CrawlTypeCrawl, finished)
		if err != nil {
			return errors.Wrapf(err, "list crawls for org %s", orgID)
		}
		for _, c := range crawls {
			for _, f := range c.Files {
				total += f.Size
			}
		}
	}
	return d.Store.SetOrgBytesStoredCrawls(ctx, orgID, total)
}

// handleReAddOrgPages re-derives Page records for one crawl by reading its
// files' WACZ indexes through Pages, deduping against what is already
// persisted so repeated runs stay idempotent.
func (d *BackgroundJobDispatcher) handleReAddOrgPages(ctx context.Context, job store.BackgroundJob) error {
	crawl, err := d.Store.GetCrawl(ctx, job.ObjectID)
	if err != nil {
		return errors.Wrapf(err, "get crawl %s", job.ObjectID)
	}

	var fresh []store.Page
	for _, f := range crawl.Files {
		pages, err := d.Pages.ReadPages(ctx, f.Storage.Name, f.Filename)
		if err != nil {
			return errors.Wrapf(err, "read page index for %s", f.Filename)
		}
		for _, p := range pages {
			exists, err := d.Store.PageExistsByURL(ctx, crawl.ID, p.URL, p.TS)
			if err != nil {
				return errors.Wrapf(err, "check page existence for %s", p.URL)
			}
			if !exists {
				fresh = append(fresh, p)
			}
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return d.Store.InsertPages(ctx, fresh)
}

// Sweep runs the periodic, non-per-document cleanup-seed-files job. It has
// no natural BackgroundJob queue entry to poll (there is no single "target"
// document that names which workflows' seed files to examine) so the
// scheduler invokes it directly on its own interval instead of via Poll's
// per-job dispatch. Sweep does not run optimize-pages; OptimizePages
// recomputes one crawl's counts only when called with that crawl's id.
func (d *BackgroundJobDispatcher) Sweep(ctx context.Context) error {
	if err := d.cleanupSeedFiles(ctx); err != nil {
		level.Error(d.Logger).Log("msg", "cleanup-seed-files failed", "err", err)
	}
	return nil
}

func (d *BackgroundJobDispatcher) cleanupSeedFiles(ctx context.Context) error {
	orphans, err := d.Store.ListOrphanedSeedFiles(ctx)
	if err != nil {
		return errors.Wrap(err, "list orphaned seed files")
	}
	for _, sf := range orphans {
		if err := d.Storage.Delete(ctx, seedFileStorageName, sf.Filename); err != nil {
			return errors.Wrapf(err, "delete seed file object %s", sf.Filename)
		}
		if err := d.Store.DeleteSeedFile(ctx, sf.ID); err != nil {
			return errors.Wrapf(err, "delete seed file record %s", sf.ID)
		}
	}
	return nil
}

// seedFileStorageName is the logical storage bucket uploaded seed-URL lists
// live in, distinct from crawl output storage.
const seedFileStorageName = "seed-files"

// OptimizePages recomputes one crawl's uniquePageCount from its Page
// records, leaving the other denormalized counters untouched.
func (d *BackgroundJobDispatcher) OptimizePages(ctx context.Context, crawlID string) error {
	crawl, err := d.Store.GetCrawl(ctx, crawlID)
	if err != nil {
		return errors.Wrapf(err, "get crawl %s", crawlID)
	}
	unique, err := d.Store.CountDistinctPageURLs(ctx, crawlID)
	if err != nil {
		return errors.Wrapf(err, "count distinct urls for crawl %s", crawlID)
	}
	return d.Store.UpdateCrawlPageCounts(ctx, crawlID, crawl.PageCount, unique, crawl.ErrorPageCount, crawl.FilePageCount)
}

// RecoverStuck marks every job stuck past the grace window failed so it
// becomes retryable, per §4.5's stuck-job recovery rule:
// `started < now - max(REPLICA_DELETION_DELAY_DAYS+1, 7 days)`.
func (d *BackgroundJobDispatcher) RecoverStuck(ctx context.Context) error {
	days := d.gracePeriodDays() + 1
	if days < 7 {
		days = 7
	}
	stuck, err := d.Store.ListStuckJobs(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return errors.Wrap(err, "list stuck background jobs")
	}
	for _, job := range stuck {
		if err := d.Store.FinishJob(ctx, job.ID, false, "stuck_job_timeout"); err != nil {
			level.Error(d.Logger).Log("msg", "finish stuck job failed", "job", job.ID, "err", err)
		}
	}
	return nil
}

func (d *BackgroundJobDispatcher) gracePeriodDays() int {
	if d.ReplicaDeletionDelayDays <= 0 {
		return defaultReplicaDeletionDelayDays
	}
	return d.ReplicaDeletionDelayDays
}

func (d *BackgroundJobDispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
