package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

func newTestMaterializer(s Store, creator CrawlJobCreator) *CronMaterializer {
	m := NewCronMaterializer(s, creator, nil)
	return m
}

func TestCronMaterializerSkipsFirstObservationWithoutFiring(t *testing.T) {
	s := newFakeStore()
	s.configs["cfg-1"] = &store.CrawlConfig{ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *"}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	require.NoError(t, m.Tick(context.Background()))
	require.Empty(t, creator.created, "first tick should only seed last-observed, never fire")
}

func TestCronMaterializerFiresOnceSchedulePasses(t *testing.T) {
	s := newFakeStore()
	s.configs["cfg-1"] = &store.CrawlConfig{ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *"}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))
	require.Empty(t, creator.created)

	now = t0.Add(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Len(t, creator.created, 1)
	require.Equal(t, "org-1", creator.created[0].OrgID)
	require.Equal(t, "cfg-1", creator.created[0].ConfigID)
	require.True(t, creator.created[0].Scheduled)
	require.False(t, creator.created[0].Manual)
}

func TestCronMaterializerDoesNotBackfillMissedFirings(t *testing.T) {
	s := newFakeStore()
	// Fires every minute; the process was "down" for a long stretch.
	s.configs["cfg-1"] = &store.CrawlConfig{ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *"}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))

	now = t0.Add(10 * time.Hour)
	require.NoError(t, m.Tick(context.Background()))
	require.Len(t, creator.created, 1, "a long gap must materialize exactly one crawl, not one per missed minute")
}

func TestCronMaterializerRejectsWhilePreviousCrawlStillRunning(t *testing.T) {
	s := newFakeStore()
	lastID := "crawl-prev"
	lastState := "running"
	s.configs["cfg-1"] = &store.CrawlConfig{
		ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *",
		LastCrawlID: &lastID, LastCrawlState: &lastState,
	}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))

	now = t0.Add(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Empty(t, creator.created, "must not queue a new crawl while the config's previous crawl is still non-terminal")
}

func TestCronMaterializerFiresAgainOncePreviousCrawlTerminal(t *testing.T) {
	s := newFakeStore()
	lastID := "crawl-prev"
	lastState := "complete"
	s.configs["cfg-1"] = &store.CrawlConfig{
		ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *",
		LastCrawlID: &lastID, LastCrawlState: &lastState,
	}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))

	now = t0.Add(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Len(t, creator.created, 1)
}

func TestCronMaterializerIgnoresInactiveAndUnscheduledConfigs(t *testing.T) {
	s := newFakeStore()
	s.configs["cfg-inactive"] = &store.CrawlConfig{ID: "cfg-inactive", OrgID: "org-1", Schedule: "* * * * *", Inactive: true}
	s.configs["cfg-noschedule"] = &store.CrawlConfig{ID: "cfg-noschedule", OrgID: "org-1"}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))
	require.Empty(t, creator.created)
}

func TestCronMaterializerForgetDropsObservedHistory(t *testing.T) {
	s := newFakeStore()
	s.configs["cfg-1"] = &store.CrawlConfig{ID: "cfg-1", OrgID: "org-1", Schedule: "* * * * *"}
	creator := &fakeCreator{}
	m := newTestMaterializer(s, creator)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }
	require.NoError(t, m.Tick(context.Background()))

	m.Forget("cfg-1")

	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Tick(context.Background()))
	require.Empty(t, creator.created, "forgetting resets the baseline, so the next tick is treated as a first observation again")
}
