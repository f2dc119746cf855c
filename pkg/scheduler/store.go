// Package scheduler implements the cron materializer and background job
// orchestrator (C5): the single-writer process that turns CrawlConfig
// schedules into CrawlJob custom resources and drains the BackgroundJob
// queue with a bounded worker pool, using a reconciler-style shell plus
// robfig/cron/v3 for schedule evaluation.
package scheduler

import (
	"context"
	"time"

	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// Store is the narrow slice of the Progress Store (C2) the scheduler needs,
// mirroring pkg/operator's ProgressStore boundary: this package depends on
// an interface it owns rather than *store.Store directly, so tests can
// substitute a fake without a live Mongo deployment.
type Store interface {
	ListScheduledConfigs(ctx context.Context) ([]store.CrawlConfig, error)
	GetCrawlConfig(ctx context.Context, id string) (*store.CrawlConfig, error)
	CountRunningCrawls(ctx context.Context, orgID string) (int, error)

	ListPendingJobs(ctx context.Context, typ store.BackgroundJobType) ([]store.BackgroundJob, error)
	ListStuckJobs(ctx context.Context, olderThan time.Duration) ([]store.BackgroundJob, error)
	CreateJob(ctx context.Context, job *store.BackgroundJob) error
	FinishJob(ctx context.Context, id string, success bool, errorDetail string) error

	GetOrganization(ctx context.Context, id string) (*store.Organization, error)
	SetOrgBytesStoredCrawls(ctx context.Context, orgID string, total int64) error
	DeleteOrganization(ctx context.Context, orgID string) error

	ListOrgCrawls(ctx context.Context, orgID string, typ store.CrawlType, finished bool) ([]store.Crawl, error)
	GetCrawl(ctx context.Context, id string) (*store.Crawl, error)
	CrawlFiles(ctx context.Context, crawlID string) ([]store.CrawlFile, error)
	AppendCrawlReplica(ctx context.Context, crawlID, filename string, replica store.ReplicaRef) error
	SetCrawlStopping(ctx context.Context, id string, stopping bool) error
	UpdateCrawlPageCounts(ctx context.Context, id string, pageCount, uniquePageCount, errorPageCount, filePageCount int) error
	DeleteOrgCrawls(ctx context.Context, orgID string) error

	CountDistinctPageURLs(ctx context.Context, crawlID string) (int, error)
	PageExistsByURL(ctx context.Context, crawlID, url string, ts interface{}) (bool, error)
	InsertPages(ctx context.Context, pages []store.Page) error
	DeleteOrgPages(ctx context.Context, orgID string) error

	DeleteOrgCrawlConfigs(ctx context.Context, orgID string) error
	DeleteOrgCollections(ctx context.Context, orgID string) error
	DeleteOrgInvites(ctx context.Context, orgID string) error

	ListOrphanedSeedFiles(ctx context.Context) ([]store.SeedFile, error)
	DeleteSeedFile(ctx context.Context, id string) error
}

// storeFacade adapts *store.Store's repository fields to Store's flattened
// method set, the same shape as pkg/operator's storeFacade.
type storeFacade struct {
	s *store.Store
}

// NewStore wraps a concrete *store.Store for use by this package.
func NewStore(s *store.Store) Store {
	return &storeFacade{s: s}
}

func (f *storeFacade) ListScheduledConfigs(ctx context.Context) ([]store.CrawlConfig, error) {
	return f.s.CrawlConfigs.ListScheduled(ctx)
}

func (f *storeFacade) GetCrawlConfig(ctx context.Context, id string) (*store.CrawlConfig, error) {
	return f.s.CrawlConfigs.Get(ctx, id)
}

func (f *storeFacade) CountRunningCrawls(ctx context.Context, orgID string) (int, error) {
	return f.s.Crawls.CountRunning(ctx, orgID)
}

func (f *storeFacade) ListPendingJobs(ctx context.Context, typ store.BackgroundJobType) ([]store.BackgroundJob, error) {
	return f.s.BackgroundJobs.ListPending(ctx, typ)
}

func (f *storeFacade) ListStuckJobs(ctx context.Context, olderThan time.Duration) ([]store.BackgroundJob, error) {
	return f.s.BackgroundJobs.ListStuck(ctx, olderThan)
}

func (f *storeFacade) CreateJob(ctx context.Context, job *store.BackgroundJob) error {
	return f.s.BackgroundJobs.Create(ctx, job)
}

func (f *storeFacade) FinishJob(ctx context.Context, id string, success bool, errorDetail string) error {
	return f.s.BackgroundJobs.Finish(ctx, id, success, errorDetail)
}

func (f *storeFacade) GetOrganization(ctx context.Context, id string) (*store.Organization, error) {
	return f.s.Organizations.Get(ctx, id)
}

func (f *storeFacade) SetOrgBytesStoredCrawls(ctx context.Context, orgID string, total int64) error {
	return f.s.Organizations.SetBytesStoredCrawls(ctx, orgID, total)
}

func (f *storeFacade) DeleteOrganization(ctx context.Context, orgID string) error {
	return f.s.Organizations.Delete(ctx, orgID)
}

func (f *storeFacade) ListOrgCrawls(ctx context.Context, orgID string, typ store.CrawlType, finished bool) ([]store.Crawl, error) {
	return f.s.Crawls.ListByOrgState(ctx, orgID, typ, finished)
}

func (f *storeFacade) GetCrawl(ctx context.Context, id string) (*store.Crawl, error) {
	return f.s.Crawls.Get(ctx, id)
}

func (f *storeFacade) CrawlFiles(ctx context.Context, crawlID string) ([]store.CrawlFile, error) {
	return f.s.Crawls.Files(crawlID).List(ctx)
}

func (f *storeFacade) AppendCrawlReplica(ctx context.Context, crawlID, filename string, replica store.ReplicaRef) error {
	return f.s.Crawls.AppendReplica(ctx, crawlID, filename, replica)
}

func (f *storeFacade) SetCrawlStopping(ctx context.Context, id string, stopping bool) error {
	return f.s.Crawls.SetStopping(ctx, id, stopping)
}

func (f *storeFacade) UpdateCrawlPageCounts(ctx context.Context, id string, pageCount, uniquePageCount, errorPageCount, filePageCount int) error {
	return f.s.Crawls.UpdatePageCounts(ctx, id, pageCount, uniquePageCount, errorPageCount, filePageCount)
}

func (f *storeFacade) DeleteOrgCrawls(ctx context.Context, orgID string) error {
	return f.s.Crawls.DeleteByOrg(ctx, orgID)
}

func (f *storeFacade) CountDistinctPageURLs(ctx context.Context, crawlID string) (int, error) {
	return f.s.Pages.CountDistinctURLs(ctx, crawlID)
}

func (f *storeFacade) PageExistsByURL(ctx context.Context, crawlID, url string, ts interface{}) (bool, error) {
	return f.s.Pages.ExistsByURL(ctx, crawlID, url, ts)
}

func (f *storeFacade) InsertPages(ctx context.Context, pages []store.Page) error {
	return f.s.Pages.InsertMany(ctx, pages)
}

func (f *storeFacade) DeleteOrgPages(ctx context.Context, orgID string) error {
	return f.s.Pages.DeleteByOrg(ctx, orgID)
}

func (f *storeFacade) DeleteOrgCrawlConfigs(ctx context.Context, orgID string) error {
	return f.s.CrawlConfigs.DeleteByOrg(ctx, orgID)
}

func (f *storeFacade) DeleteOrgCollections(ctx context.Context, orgID string) error {
	return f.s.Collections.DeleteByOrg(ctx, orgID)
}

func (f *storeFacade) DeleteOrgInvites(ctx context.Context, orgID string) error {
	return f.s.Invites.DeleteByOrg(ctx, orgID)
}

func (f *storeFacade) ListOrphanedSeedFiles(ctx context.Context) ([]store.SeedFile, error) {
	return f.s.SeedFiles.ListOrphaned(ctx)
}

func (f *storeFacade) DeleteSeedFile(ctx context.Context, id string) error {
	return f.s.SeedFiles.Delete(ctx, id)
}
