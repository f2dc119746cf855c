package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

func newTestDispatcher(s Store, facet *fakeFacet) *BackgroundJobDispatcher {
	d := NewBackgroundJobDispatcher(s, facet, nil)
	d.Now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return d
}

func TestHandleCreateReplicaCopiesAndRecordsReplica(t *testing.T) {
	s := newFakeStore()
	s.crawls["crawl-1"] = &store.Crawl{
		ID: "crawl-1", OrgID: "org-1",
		Files: []store.CrawlFile{{Filename: "rec.wacz", Storage: store.LogicalRef{Name: "primary"}}},
	}
	facet := newFakeFacet()
	d := newTestDispatcher(s, facet)

	job := store.BackgroundJob{ID: "job-1", Type: store.JobCreateReplica, ObjectID: "crawl-1", FilePath: "rec.wacz", ReplicaStorage: "replica-1", Started: d.now()}
	require.NoError(t, d.handleCreateReplica(context.Background(), job))

	require.Len(t, s.crawls["crawl-1"].Files[0].Replicas, 1)
	require.Equal(t, "replica-1", s.crawls["crawl-1"].Files[0].Replicas[0].Name)
	require.Contains(t, facet.copies, "primary/rec.wacz->replica-1")
}

func TestHandleDeleteReplicaDefersWithinGraceWindow(t *testing.T) {
	s := newFakeStore()
	facet := newFakeFacet()
	d := newTestDispatcher(s, facet)
	d.ReplicaDeletionDelayDays = 7

	job := store.BackgroundJob{ID: "job-1", Type: store.JobDeleteReplica, ReplicaStorage: "replica-1", FilePath: "rec.wacz", Started: d.now().Add(-24 * time.Hour)}
	err := d.handleDeleteReplica(context.Background(), job)
	require.Equal(t, errDeferred, err)
	require.Empty(t, facet.deleted)
}

func TestHandleDeleteReplicaDeletesAfterGraceWindow(t *testing.T) {
	s := newFakeStore()
	facet := newFakeFacet()
	facet.objects["replica-1/rec.wacz"] = true
	d := newTestDispatcher(s, facet)
	d.ReplicaDeletionDelayDays = 7

	job := store.BackgroundJob{ID: "job-1", Type: store.JobDeleteReplica, ReplicaStorage: "replica-1", FilePath: "rec.wacz", Started: d.now().Add(-8 * 24 * time.Hour)}
	require.NoError(t, d.handleDeleteReplica(context.Background(), job))
	require.Contains(t, facet.deleted, "replica-1/rec.wacz")
}

func TestHandleDeleteOrgCascadesEverything(t *testing.T) {
	s := newFakeStore()
	s.orgs["org-1"] = &store.Organization{ID: "org-1"}
	s.crawls["crawl-1"] = &store.Crawl{
		ID: "crawl-1", OrgID: "org-1", Type: store.CrawlTypeCrawl,
		Files: []store.CrawlFile{{
			Filename: "rec.wacz", Storage: store.LogicalRef{Name: "primary"},
			Replicas: []store.ReplicaRef{{Name: "replica-1"}},
		}},
	}
	facet := newFakeFacet()
	facet.objects["primary/rec.wacz"] = true
	facet.objects["replica-1/rec.wacz"] = true
	d := newTestDispatcher(s, facet)

	job := store.BackgroundJob{ID: "job-1", Type: store.JobDeleteOrg, OrgID: "org-1"}
	require.NoError(t, d.handleDeleteOrg(context.Background(), job))

	require.Contains(t, facet.deleted, "primary/rec.wacz")
	require.Contains(t, facet.deleted, "replica-1/rec.wacz")
	require.NotContains(t, s.crawls, "crawl-1")
	require.NotContains(t, s.orgs, "org-1")
	require.Equal(t, []string{"org-1"}, s.deletedOrgIDs)
}

func TestHandleRecalculateOrgStatsSumsFileSizes(t *testing.T) {
	s := newFakeStore()
	s.orgs["org-1"] = &store.Organization{ID: "org-1"}
	s.crawls["crawl-1"] = &store.Crawl{
		ID: "crawl-1", OrgID: "org-1", Type: store.CrawlTypeCrawl,
		Files: []store.CrawlFile{{Filename: "a.wacz", Size: 100}, {Filename: "b.wacz", Size: 50}},
	}
	s.crawls["crawl-2"] = &store.Crawl{
		ID: "crawl-2", OrgID: "org-1", Type: store.CrawlTypeCrawl,
		Files: []store.CrawlFile{{Filename: "c.wacz", Size: 25}},
	}
	d := newTestDispatcher(s, newFakeFacet())

	job := store.BackgroundJob{ID: "job-1", Type: store.JobRecalculateOrgStats, OrgID: "org-1"}
	require.NoError(t, d.handleRecalculateOrgStats(context.Background(), job))
	require.Equal(t, int64(175), s.orgs["org-1"].BytesStoredCrawls)
}

func TestHandleReAddOrgPagesDedupsAgainstExisting(t *testing.T) {
	s := newFakeStore()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.crawls["crawl-1"] = &store.Crawl{
		ID: "crawl-1",
		Files: []store.CrawlFile{{Filename: "rec.wacz", Storage: store.LogicalRef{Name: "primary"}}},
	}
	s.pages = append(s.pages, store.Page{ID: "p-existing", CrawlID: "crawl-1", URL: "https://a.test/"})

	d := newTestDispatcher(s, newFakeFacet())
	d.Pages = &fakePageIndexReader{pages: map[string][]store.Page{
		"rec.wacz": {
			{ID: "p-existing", CrawlID: "crawl-1", URL: "https://a.test/", TS: ts},
			{ID: "p-new", CrawlID: "crawl-1", URL: "https://b.test/", TS: ts},
		},
	}}

	job := store.BackgroundJob{ID: "job-1", Type: store.JobReAddOrgPages, ObjectID: "crawl-1"}
	require.NoError(t, d.handleReAddOrgPages(context.Background(), job))

	require.Len(t, s.pages, 2, "only the genuinely new page should be inserted")
}

func TestHandleMigrationJobAlwaysFailsWithFixedDetail(t *testing.T) {
	s := newFakeStore()
	s.jobs["job-1"] = &store.BackgroundJob{ID: "job-1", Type: store.JobMigration, Started: time.Now()}
	d := newTestDispatcher(s, newFakeFacet())

	d.handle(context.Background(), *s.jobs["job-1"])

	require.False(t, *s.jobs["job-1"].Success)
	require.Equal(t, migrationUnsupportedDetail, s.jobs["job-1"].ErrorDetail)
}

func TestRecoverStuckMarksOldUnfinishedJobsFailed(t *testing.T) {
	s := newFakeStore()
	s.jobs["stuck-1"] = &store.BackgroundJob{ID: "stuck-1", Type: store.JobCreateReplica, Started: time.Now().Add(-10 * 24 * time.Hour)}
	s.jobs["fresh-1"] = &store.BackgroundJob{ID: "fresh-1", Type: store.JobCreateReplica, Started: time.Now()}
	d := newTestDispatcher(s, newFakeFacet())
	d.ReplicaDeletionDelayDays = 3

	require.NoError(t, d.RecoverStuck(context.Background()))

	require.NotNil(t, s.jobs["stuck-1"].Finished)
	require.False(t, *s.jobs["stuck-1"].Success)
	require.Nil(t, s.jobs["fresh-1"].Finished)
}

func TestCleanupSeedFilesDeletesOrphansOnly(t *testing.T) {
	s := newFakeStore()
	s.configs["cfg-1"] = &store.CrawlConfig{ID: "cfg-1", SeedFileID: "sf-referenced"}
	s.seedFiles["sf-referenced"] = &store.SeedFile{ID: "sf-referenced", Filename: "referenced.txt"}
	s.seedFiles["sf-orphan"] = &store.SeedFile{ID: "sf-orphan", Filename: "orphan.txt"}
	facet := newFakeFacet()
	d := newTestDispatcher(s, facet)

	require.NoError(t, d.Sweep(context.Background()))

	require.Contains(t, s.seedFiles, "sf-referenced")
	require.NotContains(t, s.seedFiles, "sf-orphan")
	require.Contains(t, facet.deleted, seedFileStorageName+"/orphan.txt")
}

func TestOptimizePagesRecomputesUniqueCountOnly(t *testing.T) {
	s := newFakeStore()
	s.crawls["crawl-1"] = &store.Crawl{ID: "crawl-1", PageCount: 5, ErrorPageCount: 1, FilePageCount: 2}
	s.pages = append(s.pages,
		store.Page{CrawlID: "crawl-1", URL: "https://a.test/"},
		store.Page{CrawlID: "crawl-1", URL: "https://a.test/"},
		store.Page{CrawlID: "crawl-1", URL: "https://b.test/"},
	)
	d := newTestDispatcher(s, newFakeFacet())

	require.NoError(t, d.OptimizePages(context.Background(), "crawl-1"))
	require.Equal(t, 2, s.crawls["crawl-1"].UniquePageCount)
	require.Equal(t, 5, s.crawls["crawl-1"].PageCount)
	require.Equal(t, 1, s.crawls["crawl-1"].ErrorPageCount)
}

func TestPollRunsEachPendingJobAndFinishesIt(t *testing.T) {
	s := newFakeStore()
	s.orgs["org-1"] = &store.Organization{ID: "org-1"}
	s.crawls["crawl-1"] = &store.Crawl{ID: "crawl-1", OrgID: "org-1", Type: store.CrawlTypeCrawl, Files: []store.CrawlFile{{Size: 10}}}
	s.jobs["job-1"] = &store.BackgroundJob{ID: "job-1", Type: store.JobRecalculateOrgStats, OrgID: "org-1"}

	d := newTestDispatcher(s, newFakeFacet())
	d.Concurrency = 2

	require.NoError(t, d.Poll(context.Background()))
	require.NotNil(t, s.jobs["job-1"].Finished)
	require.True(t, *s.jobs["job-1"].Success)
	require.Equal(t, int64(10), s.orgs["org-1"].BytesStoredCrawls)
}
