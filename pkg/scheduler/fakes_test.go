package scheduler

import (
	"context"
	"sync"
	"time"

	crawlingv1alpha1 "github.com/webrecorder/crawl-control-plane/pkg/apis/crawling/v1alpha1"
	"github.com/webrecorder/crawl-control-plane/pkg/storage"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// fakeStore is an in-memory Store for scheduler tests, the same
// hand-written-fake-over-a-narrow-interface style pkg/operator's own tests
// use to avoid a live Mongo deployment.
type fakeStore struct {
	configs map[string]*store.CrawlConfig
	orgs    map[string]*store.Organization
	crawls  map[string]*store.Crawl
	running map[string]int

	jobs      map[string]*store.BackgroundJob
	seedFiles map[string]*store.SeedFile

	pages []store.Page

	deletedOrgIDs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		configs:   map[string]*store.CrawlConfig{},
		orgs:      map[string]*store.Organization{},
		crawls:    map[string]*store.Crawl{},
		running:   map[string]int{},
		jobs:      map[string]*store.BackgroundJob{},
		seedFiles: map[string]*store.SeedFile{},
	}
}

func (f *fakeStore) ListScheduledConfigs(ctx context.Context) ([]store.CrawlConfig, error) {
	var out []store.CrawlConfig
	for _, c := range f.configs {
		if !c.Inactive && c.Schedule != "" {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCrawlConfig(ctx context.Context, id string) (*store.CrawlConfig, error) {
	return f.configs[id], nil
}

func (f *fakeStore) CountRunningCrawls(ctx context.Context, orgID string) (int, error) {
	return f.running[orgID], nil
}

func (f *fakeStore) ListPendingJobs(ctx context.Context, typ store.BackgroundJobType) ([]store.BackgroundJob, error) {
	var out []store.BackgroundJob
	for _, j := range f.jobs {
		if j.Type == typ && j.Finished == nil {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStuckJobs(ctx context.Context, olderThan time.Duration) ([]store.BackgroundJob, error) {
	cutoff := time.Now().Add(-olderThan)
	var out []store.BackgroundJob
	for _, j := range f.jobs {
		if j.Finished == nil && j.Started.Before(cutoff) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *store.BackgroundJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) FinishJob(ctx context.Context, id string, success bool, errorDetail string) error {
	j := f.jobs[id]
	now := time.Now()
	j.Finished = &now
	j.Success = &success
	j.ErrorDetail = errorDetail
	return nil
}

func (f *fakeStore) GetOrganization(ctx context.Context, id string) (*store.Organization, error) {
	return f.orgs[id], nil
}

func (f *fakeStore) SetOrgBytesStoredCrawls(ctx context.Context, orgID string, total int64) error {
	f.orgs[orgID].BytesStoredCrawls = total
	return nil
}

func (f *fakeStore) DeleteOrganization(ctx context.Context, orgID string) error {
	f.deletedOrgIDs = append(f.deletedOrgIDs, orgID)
	delete(f.orgs, orgID)
	return nil
}

func (f *fakeStore) ListOrgCrawls(ctx context.Context, orgID string, typ store.CrawlType, finished bool) ([]store.Crawl, error) {
	var out []store.Crawl
	for _, c := range f.crawls {
		if c.OrgID != orgID || c.Type != typ {
			continue
		}
		if (c.Finished != nil) != finished {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) GetCrawl(ctx context.Context, id string) (*store.Crawl, error) {
	return f.crawls[id], nil
}

func (f *fakeStore) CrawlFiles(ctx context.Context, crawlID string) ([]store.CrawlFile, error) {
	c := f.crawls[crawlID]
	if c == nil {
		return nil, nil
	}
	return c.Files, nil
}

func (f *fakeStore) AppendCrawlReplica(ctx context.Context, crawlID, filename string, replica store.ReplicaRef) error {
	c := f.crawls[crawlID]
	for i := range c.Files {
		if c.Files[i].Filename == filename {
			c.Files[i].Replicas = append(c.Files[i].Replicas, replica)
		}
	}
	return nil
}

func (f *fakeStore) SetCrawlStopping(ctx context.Context, id string, stopping bool) error {
	f.crawls[id].Stopping = stopping
	return nil
}

func (f *fakeStore) UpdateCrawlPageCounts(ctx context.Context, id string, pageCount, uniquePageCount, errorPageCount, filePageCount int) error {
	c := f.crawls[id]
	c.PageCount = pageCount
	c.UniquePageCount = uniquePageCount
	c.ErrorPageCount = errorPageCount
	c.FilePageCount = filePageCount
	return nil
}

func (f *fakeStore) DeleteOrgCrawls(ctx context.Context, orgID string) error {
	for id, c := range f.crawls {
		if c.OrgID == orgID {
			delete(f.crawls, id)
		}
	}
	return nil
}

func (f *fakeStore) CountDistinctPageURLs(ctx context.Context, crawlID string) (int, error) {
	seen := map[string]bool{}
	for _, p := range f.pages {
		if p.CrawlID == crawlID {
			seen[p.URL] = true
		}
	}
	return len(seen), nil
}

func (f *fakeStore) PageExistsByURL(ctx context.Context, crawlID, url string, ts interface{}) (bool, error) {
	for _, p := range f.pages {
		if p.CrawlID == crawlID && p.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertPages(ctx context.Context, pages []store.Page) error {
	f.pages = append(f.pages, pages...)
	return nil
}

func (f *fakeStore) DeleteOrgPages(ctx context.Context, orgID string) error {
	var kept []store.Page
	for _, p := range f.pages {
		if p.OrgID != orgID {
			kept = append(kept, p)
		}
	}
	f.pages = kept
	return nil
}

func (f *fakeStore) DeleteOrgCrawlConfigs(ctx context.Context, orgID string) error {
	for id, c := range f.configs {
		if c.OrgID == orgID {
			delete(f.configs, id)
		}
	}
	return nil
}

func (f *fakeStore) DeleteOrgCollections(ctx context.Context, orgID string) error { return nil }

func (f *fakeStore) DeleteOrgInvites(ctx context.Context, orgID string) error { return nil }

func (f *fakeStore) ListOrphanedSeedFiles(ctx context.Context) ([]store.SeedFile, error) {
	referenced := map[string]bool{}
	for _, c := range f.configs {
		if c.SeedFileID != "" {
			referenced[c.SeedFileID] = true
		}
	}
	var out []store.SeedFile
	for _, sf := range f.seedFiles {
		if !referenced[sf.ID] {
			out = append(out, *sf)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteSeedFile(ctx context.Context, id string) error {
	delete(f.seedFiles, id)
	return nil
}

// fakeCreator records every CrawlJob the materializer asks it to create.
type fakeCreator struct {
	created []crawlingv1alpha1.CrawlJobSpec
	err     error
}

func (f *fakeCreator) CreateCrawlJob(ctx context.Context, spec crawlingv1alpha1.CrawlJobSpec) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, spec)
	return nil
}

// fakeFacet is an in-memory storage.Facet for dispatcher tests.
type fakeFacet struct {
	mu      sync.Mutex
	objects map[string]bool
	deleted []string
	copies  []string
}

func newFakeFacet() *fakeFacet {
	return &fakeFacet{objects: map[string]bool{}}
}

func objectKey(storageName, key string) string { return storageName + "/" + key }

func (f *fakeFacet) Presign(ctx context.Context, storageName, key string, duration time.Duration) (string, error) {
	return "", nil
}

func (f *fakeFacet) Head(ctx context.Context, storageName, key string) (storage.ObjectInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ok := f.objects[objectKey(storageName, key)]
	return storage.ObjectInfo{}, ok, nil
}

func (f *fakeFacet) Copy(ctx context.Context, srcStorage, key, dstStorage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectKey(dstStorage, key)] = true
	f.copies = append(f.copies, objectKey(srcStorage, key)+"->"+dstStorage)
	return nil
}

func (f *fakeFacet) Delete(ctx context.Context, storageName, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey(storageName, key))
	f.deleted = append(f.deleted, objectKey(storageName, key))
	return nil
}

func (f *fakeFacet) List(ctx context.Context, storageName, prefix string) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

// fakePageIndexReader returns a canned set of pages per file key.
type fakePageIndexReader struct {
	pages map[string][]store.Page
}

func (f *fakePageIndexReader) ReadPages(ctx context.Context, storageName, key string) ([]store.Page, error) {
	return f.pages[key], nil
}
