package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// These tests round-trip the document structs through BSON without a live
// Mongo connection, verifying the wire shape the repositories in this
// package depend on. Repository methods themselves need a real deployment
// and are exercised by the mongo-driver integration suite the operator is
// deployed against, not by unit tests here.

func TestOrganizationBSONRoundTrip(t *testing.T) {
	org := Organization{
		ID:   "org-1",
		Slug: "my-org",
		Quotas: Quotas{
			MaxConcurrentCrawls:    3,
			StorageQuota:           10 << 30,
			MaxExecMinutesPerMonth: 720,
		},
		BytesStored:                5 << 20,
		BytesStoredCrawls:          5 << 20,
		MonthlyExecSeconds:         map[string]float64{"2026-07": 120},
		ExtraExecSecondsAvailable:  60,
		GiftedExecSecondsAvailable: 0,
	}

	data, err := bson.Marshal(org)
	require.NoError(t, err)

	var out Organization
	require.NoError(t, bson.Unmarshal(data, &out))

	assert.Equal(t, org.ID, out.ID)
	assert.Equal(t, org.Slug, out.Slug)
	assert.Equal(t, org.Quotas, out.Quotas)
	assert.Equal(t, org.BytesStored, out.BytesStored)
	assert.Equal(t, org.MonthlyExecSeconds["2026-07"], out.MonthlyExecSeconds["2026-07"])
}

func TestCrawlBSONRoundTripWithFiles(t *testing.T) {
	finished := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	crawl := Crawl{
		ID:       "crawl-1",
		OrgID:    "org-1",
		ConfigID: "cfg-1",
		Type:     CrawlTypeCrawl,
		Started:  finished.Add(-time.Hour),
		Finished: &finished,
		State:    "complete",
		Files: []CrawlFile{
			{Filename: "rec-1.wacz", Hash: "abc123", Size: 1024, Storage: LogicalRef{Name: "default"}},
		},
		Stats: CrawlStats{Found: 5, Done: 5, Size: 1024},
	}

	data, err := bson.Marshal(crawl)
	require.NoError(t, err)

	var out Crawl
	require.NoError(t, bson.Unmarshal(data, &out))

	require.NotNil(t, out.Finished)
	assert.True(t, out.Finished.Equal(finished))
	require.Len(t, out.Files, 1)
	assert.Equal(t, "rec-1.wacz", out.Files[0].Filename)
	assert.Equal(t, crawl.Stats, out.Stats)
}

func TestCrawlWithoutFinishedOmitsField(t *testing.T) {
	crawl := Crawl{ID: "crawl-2", Type: CrawlTypeCrawl}

	data, err := bson.Marshal(crawl)
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))

	_, present := raw["finished"]
	assert.False(t, present, "finished should be omitted when nil")
}

func TestBackgroundJobUnfinishedHasNilSuccess(t *testing.T) {
	job := BackgroundJob{ID: "job-1", Type: JobCreateReplica, Started: time.Now()}

	data, err := bson.Marshal(job)
	require.NoError(t, err)

	var out BackgroundJob
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.Nil(t, out.Success)
	assert.Nil(t, out.Finished)
}

func TestPageQAMapRoundTrip(t *testing.T) {
	page := Page{
		ID:      "page-1",
		CrawlID: "crawl-1",
		URL:     "https://example.com",
		QA: map[string]PageQAResult{
			"qa-run-1": {TextMatch: 0.98, ScreenshotMatch: 0.95},
		},
	}

	data, err := bson.Marshal(page)
	require.NoError(t, err)

	var out Page
	require.NoError(t, bson.Unmarshal(data, &out))

	require.Contains(t, out.QA, "qa-run-1")
	assert.InDelta(t, 0.98, out.QA["qa-run-1"].TextMatch, 0.0001)
}

func TestCollectionAccessValues(t *testing.T) {
	for _, access := range []CollectionAccess{CollectionPrivate, CollectionUnlisted, CollectionPublic} {
		col := Collection{ID: "c1", Access: access}
		data, err := bson.Marshal(col)
		require.NoError(t, err)
		var out Collection
		require.NoError(t, bson.Unmarshal(data, &out))
		assert.Equal(t, access, out.Access)
	}
}
