package operator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webrecorder/crawl-control-plane/pkg/quota"
	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
)

var baseNow = time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

func TestDecideAdmissionHappyPath(t *testing.T) {
	d := Decide(ReconcileInput{Now: baseNow, IsNew: true})
	assert.Equal(t, StateStarting, d.Status.State)
	assert.True(t, d.RenderChildren)
}

func TestDecideAdmissionStorageQuotaSkipped(t *testing.T) {
	d := Decide(ReconcileInput{Now: baseNow, IsNew: true, StorageExceededAtAdmission: true})
	assert.Equal(t, StateSkippedStorageQuotaReached, d.Status.State)
	assert.False(t, d.RenderChildren)
	require.NotNil(t, d.Status.Finished)
}

func TestDecideAdmissionExecQuotaSkipped(t *testing.T) {
	d := Decide(ReconcileInput{Now: baseNow, IsNew: true, ExecSecondsExhausted: true})
	assert.Equal(t, StateSkippedTimeQuotaReached, d.Status.State)
	assert.False(t, d.RenderChildren)
}

func TestDecideAdmissionWaitingOrgLimit(t *testing.T) {
	d := Decide(ReconcileInput{Now: baseNow, IsNew: true, ConcurrentCrawlsAtCap: true})
	assert.Equal(t, StateWaitingOrgLimit, d.Status.State)
	assert.False(t, d.RenderChildren)
}

func TestDecideWaitingOrgLimitResolvesToStarting(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateWaitingOrgLimit},
	})
	assert.Equal(t, StateStarting, d.Status.State)
	assert.True(t, d.RenderChildren)
}

func TestDecideWaitingOrgLimitStaysWaiting(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:                   baseNow,
		Prior:                 CrawlStatus{State: StateWaitingOrgLimit},
		ConcurrentCrawlsAtCap: true,
	})
	assert.Equal(t, StateWaitingOrgLimit, d.Status.State)
	assert.False(t, d.RenderChildren)
}

func TestDecideStartingTimesOutToWaitingCapacity(t *testing.T) {
	startedAt := baseNow.Add(-200 * time.Second)
	d := Decide(ReconcileInput{
		Now:             baseNow,
		Prior:           CrawlStatus{State: StateStarting},
		StartedAt:       startedAt,
		StartingTimeout: 150 * time.Second,
	})
	assert.Equal(t, StateWaitingCapacity, d.Status.State)
}

func TestDecideStartingEntersRunningOnHeartbeat(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:             baseNow,
		Prior:           CrawlStatus{State: StateStarting},
		StartedAt:       baseNow.Add(-10 * time.Second),
		StartingTimeout: 150 * time.Second,
		Heartbeats:      map[int]*redischannel.Heartbeat{0: {PagesDone: 3, State: "running"}},
	})
	assert.Equal(t, StateRunning, d.Status.State)
	assert.Equal(t, 3, d.Status.PagesDone)
}

func TestDecideRunningRemainsRunningMidCrawl(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:        baseNow,
		Prior:      CrawlStatus{State: StateRunning},
		Heartbeats: map[int]*redischannel.Heartbeat{0: {PagesDone: 5, State: "running"}},
	})
	assert.Equal(t, StateRunning, d.Status.State)
}

func TestDecideUserStopSetsStopReasonButWaitsForQuiescence(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Spec:  CrawlJobSpec{Stopping: true},
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "running"},
		},
	})
	assert.Equal(t, StateRunning, d.Status.State)
	assert.Equal(t, "user-stop", d.Status.StopReason)
	assert.True(t, d.WriteStop)
}

func TestDecideUserStopFinalizesOnceWorkerQuiesces(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning, StopReason: "user-stop"},
		Spec:  CrawlJobSpec{Stopping: true},
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "done"},
		},
	})
	assert.Equal(t, StateCompleteUserStop, d.Status.State)
	assert.True(t, d.FinalizeNow)
	require.NotNil(t, d.Status.Finished)
}

func TestDecideSizeLimitReachedFinalizesAsSizeLimit(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:       baseNow,
		Prior:     CrawlStatus{State: StateRunning},
		Spec:      CrawlJobSpec{MaxCrawlSize: 1000},
		SizeBytes: 2000,
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "interrupted"},
		},
	})
	assert.Equal(t, StateCompleteSizeLimit, d.Status.State)
}

func TestDecideTimeLimitReachedFinalizesAsTimeLimit(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:       baseNow,
		Prior:     CrawlStatus{State: StateRunning},
		Spec:      CrawlJobSpec{Timeout: 60},
		StartedAt: baseNow.Add(-120 * time.Second),
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "interrupted"},
		},
	})
	assert.Equal(t, StateCompleteTimeLimit, d.Status.State)
}

func TestDecidePlainCompleteWhenNoStopReasonAndNoFailures(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "done"},
		},
	})
	assert.Equal(t, StateComplete, d.Status.State)
}

func TestDecidePartialWhenAPodFailedButOthersFinished(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "done"},
			1: {PagesDone: 2, State: "interrupted"},
		},
		Pods: []PodObservation{
			{Index: 0, Name: "pod-0", HasExited: true, ExitCode: 0},
			{Index: 1, Name: "pod-1", HasExited: true, ExitCode: 1},
		},
	})
	assert.Equal(t, StateCompletePartial, d.Status.State)
}

func TestDecideAllWorkersFailedGoesToFailed(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Pods: []PodObservation{
			{Index: 0, Name: "pod-0", HasExited: true, ExitCode: 1},
			{Index: 1, Name: "pod-1", HasExited: true, ExitCode: 2},
		},
	})
	assert.Equal(t, StateFailed, d.Status.State)
	assert.True(t, d.FinalizeNow)
}

func TestDecideQuotaPauseOnExecExhausted(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:             baseNow,
		Prior:           CrawlStatus{State: StateRunning},
		DebitApplicable: true,
		Debit:           quota.DebitResult{Exhausted: true},
	})
	assert.Equal(t, StatePausedTimeQuotaReached, d.Status.State)
	assert.True(t, d.WritePause)
}

func TestDecideQuotaResumeWhenSlackReturns(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:             baseNow,
		Prior:           CrawlStatus{State: StatePausedTimeQuotaReached},
		DebitApplicable: true,
		Debit:           quota.DebitResult{Exhausted: false},
	})
	assert.Equal(t, StateRunning, d.Status.State)
	assert.True(t, d.ClearPause)
}

func TestDecideStorageQuotaPause(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:                baseNow,
		Prior:              CrawlStatus{State: StateRunning},
		StorageExceededNow: true,
	})
	assert.Equal(t, StatePausedStorageQuotaReached, d.Status.State)
}

func TestDecideUserPauseAndResume(t *testing.T) {
	paused := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Spec:  CrawlJobSpec{Paused: true},
	})
	assert.Equal(t, StatePaused, paused.Status.State)
	assert.True(t, paused.WritePause)

	resumed := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StatePaused},
		Spec:  CrawlJobSpec{Paused: false},
	})
	assert.Equal(t, StateRunning, resumed.Status.State)
	assert.True(t, resumed.ClearPause)
}

func TestDecidePausedCrawlDoesNotAccrueTowardTimeLimit(t *testing.T) {
	pausedSince := baseNow.Add(-10 * time.Minute)
	d := Decide(ReconcileInput{
		Now:       baseNow,
		StartedAt: baseNow.Add(-90 * time.Second),
		Spec:      CrawlJobSpec{Timeout: 60, Paused: true},
		Prior: CrawlStatus{
			State:       StatePaused,
			PausedSince: &pausedSince,
		},
	})
	assert.Equal(t, StatePaused, d.Status.State)
	assert.Empty(t, d.Status.StopReason)
	assert.False(t, d.WriteStop)
}

func TestDecideResumedCrawlExcludesPausedDurationFromTimeLimit(t *testing.T) {
	pausedSince := baseNow.Add(-30 * time.Second)
	resumed := Decide(ReconcileInput{
		Now:       baseNow,
		StartedAt: baseNow.Add(-90 * time.Second),
		Spec:      CrawlJobSpec{Timeout: 60},
		Prior: CrawlStatus{
			State:       StatePaused,
			PausedSince: &pausedSince,
		},
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "running"},
		},
	})
	// The time-limit check runs while this reconcile still sees the crawl
	// as paused, so resuming sets no stop reason; the 30s pause span is
	// folded into PausedDuration.
	assert.Equal(t, StateRunning, resumed.Status.State)
	assert.Empty(t, resumed.Status.StopReason)
	assert.Equal(t, 30*time.Second, resumed.Status.PausedDuration)
	assert.Nil(t, resumed.Status.PausedSince)

	// A further reconcile, now 90s past start minus the 30s paused, sits
	// right at the 60s timeout and should finally finalize as time-limit.
	final := Decide(ReconcileInput{
		Now:       baseNow,
		StartedAt: baseNow.Add(-90 * time.Second),
		Spec:      CrawlJobSpec{Timeout: 60},
		Prior:     resumed.Status,
		Heartbeats: map[int]*redischannel.Heartbeat{
			0: {PagesDone: 5, State: "interrupted"},
		},
	})
	assert.Equal(t, StateCompleteTimeLimit, final.Status.State)
}

func TestDecideMemoryPolicySoftOOMExcludesPod(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Pods: []PodObservation{
			{Index: 0, Name: "pod-0", Used: ResourceUsage{Memory: 1000}, Allocated: ResourceUsage{Memory: 900}},
		},
	})
	require.Contains(t, d.ExcludePodIndices, 0)
	assert.Equal(t, "soft-oom", d.Status.PodStatus["pod-0"].Reason)
}

func TestDecideMemoryPolicyScalesUpOnlyWhenSustained(t *testing.T) {
	notSustained := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Pods: []PodObservation{
			{Index: 0, Name: "pod-0", Used: ResourceUsage{Memory: 950}, Allocated: ResourceUsage{Memory: 1000}, Sustained: false},
		},
	})
	assert.Empty(t, notSustained.MemoryOverrides)

	sustained := Decide(ReconcileInput{
		Now:   baseNow,
		Prior: CrawlStatus{State: StateRunning},
		Pods: []PodObservation{
			{Index: 0, Name: "pod-0", Used: ResourceUsage{Memory: 950}, Allocated: ResourceUsage{Memory: 1000}, Sustained: true},
		},
	})
	require.Contains(t, sustained.MemoryOverrides, 0)
	assert.Equal(t, int64(1200), sustained.MemoryOverrides[0])
}

func TestDecideRedisUnavailableKeepsStateAndSetsResync(t *testing.T) {
	d := Decide(ReconcileInput{
		Now:              baseNow,
		Prior:            CrawlStatus{State: StateRunning, PagesDone: 7},
		RedisUnavailable: true,
	})
	assert.Equal(t, StateRunning, d.Status.State)
	assert.Equal(t, 7, d.Status.PagesDone)
	assert.True(t, d.Status.Resync)
}

func TestDecideTeardownAfterTTLStopsRenderingChildren(t *testing.T) {
	finished := baseNow.Add(-2 * time.Hour)
	d := Decide(ReconcileInput{
		Now:        baseNow,
		Prior:      CrawlStatus{State: StateComplete, Finished: &finished},
		DefaultTTL: time.Hour,
	})
	assert.False(t, d.RenderChildren)
	assert.True(t, d.TeardownComplete)
}

func TestDecideTeardownBeforeTTLKeepsRenderingChildren(t *testing.T) {
	finished := baseNow.Add(-10 * time.Minute)
	d := Decide(ReconcileInput{
		Now:        baseNow,
		Prior:      CrawlStatus{State: StateComplete, Finished: &finished},
		DefaultTTL: time.Hour,
	})
	assert.True(t, d.RenderChildren)
	assert.False(t, d.TeardownComplete)
}

func TestDecideTerminalStateNeverMutatesOnSubsequentReconcile(t *testing.T) {
	finished := baseNow.Add(-5 * time.Minute)
	prior := CrawlStatus{State: StateComplete, Finished: &finished, PagesDone: 42}
	d := Decide(ReconcileInput{
		Now:        baseNow,
		Prior:      prior,
		DefaultTTL: time.Hour,
		Heartbeats: map[int]*redischannel.Heartbeat{0: {PagesDone: 99, State: "running"}},
	})
	assert.Equal(t, StateComplete, d.Status.State)
	assert.Equal(t, 42, d.Status.PagesDone)
	assert.Equal(t, finished, *d.Status.Finished)
}
