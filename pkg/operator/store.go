package operator

import (
	"context"
	"time"

	"github.com/webrecorder/crawl-control-plane/pkg/quota"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// ProgressStore is the narrow slice of the Progress Store (C2) the CrawlJob
// reconciler needs. It exists so this package depends on an interface it
// owns rather than *store.Store directly, which lets tests substitute a fake
// without a live backend.
type ProgressStore interface {
	GetOrganization(ctx context.Context, id string) (*store.Organization, error)
	CountRunningCrawls(ctx context.Context, orgID string) (int, error)
	IncOrgBytesStored(ctx context.Context, orgID string, field store.BytesCounterField, delta int64) error
	IncOrgExecSeconds(ctx context.Context, orgID, yymm string, debit quota.DebitResult) error

	GetCrawlConfig(ctx context.Context, id string) (*store.CrawlConfig, error)

	CreateCrawl(ctx context.Context, crawl *store.Crawl) error
	GetCrawl(ctx context.Context, id string) (*store.Crawl, error)
	UpdateCrawlProgress(ctx context.Context, id string, stats store.CrawlStats) error
	FinalizeCrawl(ctx context.Context, id, state string, finished time.Time, files []store.CrawlFile, stats store.CrawlStats) error
	SetCrawlPaused(ctx context.Context, id string, paused bool) error

	RecordConfigCrawlStart(ctx context.Context, configID, crawlID string) error
	RecordConfigCrawlFinish(ctx context.Context, configID, state string, successful bool, addedSize int64) error

	InsertPages(ctx context.Context, pages []store.Page) error
	SetPageQAResult(ctx context.Context, pageID, qaRunID string, result store.PageQAResult) error

	CreateBackgroundJob(ctx context.Context, job *store.BackgroundJob) error

	CreateQARun(ctx context.Context, run *store.QARun) error
	FinishQARun(ctx context.Context, id, state string, finished time.Time, stats store.CrawlStats) error

	ListCollections(ctx context.Context, orgID string) ([]store.Collection, error)
	SetCollectionCrawlIDs(ctx context.Context, id string, crawlIDs []string) error
	AddCrawlToCollection(ctx context.Context, id, crawlID string) error
}

// storeFacade adapts *store.Store's repository fields to ProgressStore's
// flattened method set.
type storeFacade struct {
	s *store.Store
}

// NewProgressStore wraps a concrete *store.Store for use by this package.
func NewProgressStore(s *store.Store) ProgressStore {
	return &storeFacade{s: s}
}

func (f *storeFacade) GetOrganization(ctx context.Context, id string) (*store.Organization, error) {
	return f.s.Organizations.Get(ctx, id)
}

func (f *storeFacade) CountRunningCrawls(ctx context.Context, orgID string) (int, error) {
	return f.s.Crawls.CountRunning(ctx, orgID)
}

func (f *storeFacade) IncOrgBytesStored(ctx context.Context, orgID string, field store.BytesCounterField, delta int64) error {
	return f.s.Organizations.IncBytesStored(ctx, orgID, field, delta)
}

func (f *storeFacade) IncOrgExecSeconds(ctx context.Context, orgID, yymm string, debit quota.DebitResult) error {
	return f.s.Organizations.IncExecSeconds(ctx, orgID, yymm, debit)
}

func (f *storeFacade) GetCrawlConfig(ctx context.Context, id string) (*store.CrawlConfig, error) {
	return f.s.CrawlConfigs.Get(ctx, id)
}

func (f *storeFacade) CreateCrawl(ctx context.Context, crawl *store.Crawl) error {
	return f.s.Crawls.Create(ctx, crawl)
}

func (f *storeFacade) GetCrawl(ctx context.Context, id string) (*store.Crawl, error) {
	return f.s.Crawls.Get(ctx, id)
}

func (f *storeFacade) UpdateCrawlProgress(ctx context.Context, id string, stats store.CrawlStats) error {
	return f.s.Crawls.UpdateProgress(ctx, id, stats)
}

func (f *storeFacade) FinalizeCrawl(ctx context.Context, id, state string, finished time.Time, files []store.CrawlFile, stats store.CrawlStats) error {
	return f.s.Crawls.Finalize(ctx, id, state, finished, files, stats)
}

func (f *storeFacade) SetCrawlPaused(ctx context.Context, id string, paused bool) error {
	return f.s.Crawls.SetPaused(ctx, id, paused)
}

func (f *storeFacade) RecordConfigCrawlStart(ctx context.Context, configID, crawlID string) error {
	return f.s.CrawlConfigs.RecordCrawlStart(ctx, configID, crawlID)
}

func (f *storeFacade) RecordConfigCrawlFinish(ctx context.Context, configID, state string, successful bool, addedSize int64) error {
	return f.s.CrawlConfigs.RecordCrawlFinish(ctx, configID, state, successful, addedSize)
}

func (f *storeFacade) InsertPages(ctx context.Context, pages []store.Page) error {
	return f.s.Pages.InsertMany(ctx, pages)
}

func (f *storeFacade) SetPageQAResult(ctx context.Context, pageID, qaRunID string, result store.PageQAResult) error {
	return f.s.Pages.SetQAResult(ctx, pageID, qaRunID, result)
}

func (f *storeFacade) CreateBackgroundJob(ctx context.Context, job *store.BackgroundJob) error {
	return f.s.BackgroundJobs.Create(ctx, job)
}

func (f *storeFacade) CreateQARun(ctx context.Context, run *store.QARun) error {
	return f.s.QARuns.Create(ctx, run)
}

func (f *storeFacade) FinishQARun(ctx context.Context, id, state string, finished time.Time, stats store.CrawlStats) error {
	return f.s.QARuns.Finish(ctx, id, state, finished, stats)
}

func (f *storeFacade) ListCollections(ctx context.Context, orgID string) ([]store.Collection, error) {
	return f.s.Collections.ListByOrg(ctx, orgID)
}

func (f *storeFacade) SetCollectionCrawlIDs(ctx context.Context, id string, crawlIDs []string) error {
	return f.s.Collections.SetCrawlIDs(ctx, id, crawlIDs)
}

func (f *storeFacade) AddCrawlToCollection(ctx context.Context, id, crawlID string) error {
	return f.s.Collections.AddCrawl(ctx, id, crawlID)
}
