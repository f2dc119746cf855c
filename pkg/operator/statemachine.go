package operator

import (
	"time"

	"github.com/webrecorder/crawl-control-plane/pkg/quota"
	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
)

// PodObservation is one rendered pod's current state as the reconciler
// assembled it from the sync request's observed children plus a PodMetrics
// lookup, for transitions 8 and 9.
type PodObservation struct {
	Index     int
	Name      string
	Used      ResourceUsage
	Allocated ResourceUsage
	HasExited bool
	ExitCode  int

	// Sustained reports whether this pod's usage/allocated ratio has now
	// been observed at or above 0.90 on two consecutive reconciles. The
	// reconciler computes this via its MemoryTracker before calling Decide,
	// since the tracker's state lives outside this pure function.
	Sustained bool
}

// ReconcileInput is everything Decide needs to compute the next CrawlStatus
// and render decision for one CrawlJob sync call. Every field is either
// copied verbatim from the request or precomputed by the (impure) caller so
// this function itself performs no I/O and is fully deterministic given its
// arguments — the "stateless level-triggered reconciliation" design note.
type ReconcileInput struct {
	Now   time.Time
	Spec  CrawlJobSpec
	Prior CrawlStatus
	IsNew bool

	// StartedAt is the Crawl document's Started time (persisted once at
	// admission), needed to evaluate the "starting" and time-limit timeouts
	// since CrawlStatus itself carries no separate start marker.
	StartedAt time.Time

	ReconcileInterval time.Duration

	// Admission-time inputs (IsNew only).
	ConcurrentCrawlsAtCap bool
	ExecSecondsExhausted  bool
	StorageExceededAtAdmission bool

	// SourceCrawlNotSuccessful gates QA run admission (§4.4
	// added): a QARun's CrawlJob (type=qa) may only be admitted once the
	// crawl it replays has reached a SUCCESSFUL state. Always false for an
	// ordinary crawl.
	SourceCrawlNotSuccessful bool

	// Mid-run inputs, refreshed every reconcile.
	Heartbeats      map[int]*redischannel.Heartbeat
	SizeBytes       int64
	Pods            []PodObservation
	Debit           quota.DebitResult
	DebitApplicable bool // true when execSecondsDelta>0 was computed and debited this reconcile
	StorageExceededNow bool

	RedisUnavailable bool

	StartingTimeout time.Duration // STARTING_TIME_SECS
	DefaultTTL      time.Duration // DEFAULT_TTL, teardown delay after terminal
}

// Decision is Decide's output: the next status, and enough render/persist
// hints for the (impure) reconciler to act on without re-deriving them.
type Decision struct {
	Status CrawlStatus

	// RenderChildren is false before admission succeeds and again once
	// teardown (transition 11) has fired; true otherwise.
	RenderChildren bool

	// FinalizeNow is true exactly the reconcile transition 10 fires: the
	// reconciler drains pages, persists the terminal Crawl document with its
	// final stats and existing files, and enqueues replica jobs (a QA run
	// writes page QA results instead).
	FinalizeNow bool

	// ExcludePodIndices names pods to omit from this cycle's desired
	// children — soft-OOM'd pods (ratio ≥ 1.00). The soft-OOM case adds no
	// MemoryOverrides entry, so a later reconcile renders the pod again at
	// whatever memory request that reconcile uses.
	ExcludePodIndices []int

	// MemoryOverrides maps a pod index to the bumped memory request (bytes)
	// a sustained ≥0.90 ratio calls for (transition 8).
	MemoryOverrides map[int]int64

	WriteStop     bool
	WritePause    bool
	ClearPause    bool
	WriteExclusions bool

	TeardownComplete bool // transition 11 fired: caller should clean up redis/trackers
}

// Decide implements the CrawlJob reconcile contract's state machine in full
// (§4.4 transitions 1–11). It never mutates its input and never calls out to
// Redis, Mongo, or Kubernetes — every external read the transitions need is
// passed in already resolved.
func Decide(in ReconcileInput) Decision {
	if in.IsNew {
		return decideAdmission(in)
	}

	status := in.Prior
	status.LastUpdatedTime = in.Now
	status.Resync = false

	if in.RedisUnavailable {
		// Failure semantics: stale data never drives a transition; keep the
		// prior state and ask for a fast resync instead.
		status.Resync = true
		return Decision{Status: status, RenderChildren: !IsTerminal(status.State)}
	}

	if IsTerminal(status.State) {
		return decideTeardown(in, status)
	}

	if IsWaiting(status.State) && status.State != StateStarting {
		return decideWaiting(in, status)
	}

	d := Decision{Status: status, RenderChildren: true, MemoryOverrides: map[int]int64{}}

	applyHeartbeats(&in, &d)
	applyMemoryPolicy(&in, &d)
	applyWorkerExits(&in, &d)

	// Transition 4: user stop request.
	if in.Spec.Stopping && d.Status.StopReason == "" {
		d.Status.StopReason = "user-stop"
		d.WriteStop = true
	}

	// Transition 7: size/time limits, recorded as a pending stop reason —
	// the actual terminal state waits for worker quiescence (transition 10).
	// Paused crawls are exempt from time-limit accrual: their duration
	// excludes paused intervals, so the check is skipped outright while
	// currently paused and the already-elapsed pause time is subtracted
	// back out of wall-clock age otherwise.
	if d.Status.StopReason == "" && !IsPaused(d.Status.State) {
		if quota.SizeLimitReached(in.SizeBytes, in.Spec.MaxCrawlSize) {
			d.Status.StopReason = "size-limit"
			d.WriteStop = true
		} else if quota.TimeLimitReached(in.Now.Sub(in.StartedAt)-d.Status.PausedDuration, in.Spec.Timeout) {
			d.Status.StopReason = "time-limit"
			d.WriteStop = true
		}
	}

	// Transition 5/6: quota mid-run debit and pause/resume.
	applyQuota(&in, &d)

	// Transition 3: enter running once any heartbeat shows activity, unless
	// a pause is in effect.
	if !IsPaused(d.Status.State) && d.Status.State != StateStarting {
		if hasActiveHeartbeat(in.Heartbeats) {
			d.Status.State = StateRunning
		}
	}

	// Transition 2: starting → waiting_capacity on timeout.
	if d.Status.State == StateStarting {
		if hasActiveHeartbeat(in.Heartbeats) {
			d.Status.State = StateRunning
		} else if in.Now.Sub(in.StartedAt) >= in.StartingTimeout {
			d.Status.State = StateWaitingCapacity
		}
	}

	// Transition 10: finalize once every alive pod has quiesced. Skipped if
	// transition 9 already drove this reconcile to a terminal state (all
	// workers failed) — that path owns its own terminal label.
	if !IsTerminal(d.Status.State) && allPodsQuiesced(in.Heartbeats) && (d.Status.State == StateRunning || d.Status.StopReason != "") {
		finalizeTerminalState(&in, &d)
	}

	return d
}

func decideAdmission(in ReconcileInput) Decision {
	status := CrawlStatus{LastUpdatedTime: in.Now}

	switch {
	case in.SourceCrawlNotSuccessful:
		status.State = StateFailed
		status.StopReason = "qa-source-not-successful"
		finished := in.Now
		status.Finished = &finished
		return Decision{Status: status, RenderChildren: false}
	case in.StorageExceededAtAdmission:
		status.State = StateSkippedStorageQuotaReached
		status.StopReason = "storage-quota-exceeded"
		finished := in.Now
		status.Finished = &finished
		return Decision{Status: status, RenderChildren: false}
	case in.ExecSecondsExhausted:
		status.State = StateSkippedTimeQuotaReached
		status.StopReason = "exec-quota-exhausted"
		finished := in.Now
		status.Finished = &finished
		return Decision{Status: status, RenderChildren: false}
	case in.ConcurrentCrawlsAtCap:
		status.State = StateWaitingOrgLimit
		return Decision{Status: status, RenderChildren: false}
	default:
		status.State = StateStarting
		return Decision{Status: status, RenderChildren: true}
	}
}

// decideWaiting re-evaluates the two admission-level holds (waiting_capacity,
// waiting_org_limit) on every reconcile, since nothing else will ever wake a
// CR stuck there: no children are rendered yet, so there is no heartbeat to
// react to. Once the blocking condition clears, the crawl proceeds exactly
// as a fresh admission would (transition 1's "else" branch).
func decideWaiting(in ReconcileInput, status CrawlStatus) Decision {
	if in.ConcurrentCrawlsAtCap {
		return Decision{Status: status, RenderChildren: false}
	}
	status.State = StateStarting
	return Decision{Status: status, RenderChildren: true}
}

func decideTeardown(in ReconcileInput, status CrawlStatus) Decision {
	if status.Finished == nil {
		// Defensive: a terminal state must have Finished set by finalize;
		// if it somehow doesn't, stamp it now rather than panic on the nil
		// deref below, without changing State (§8 property 1).
		finished := in.Now
		status.Finished = &finished
	}
	if in.Now.Sub(*status.Finished) >= in.DefaultTTL {
		return Decision{Status: status, RenderChildren: false, TeardownComplete: true}
	}
	return Decision{Status: status, RenderChildren: true}
}

func hasActiveHeartbeat(heartbeats map[int]*redischannel.Heartbeat) bool {
	for _, hb := range heartbeats {
		if hb != nil && hb.PagesDone > 0 {
			return true
		}
	}
	return false
}

// allPodsQuiesced reports whether every pod in heartbeats has reported a
// terminal heartbeat state, per transition 10. A pod with no heartbeat yet
// (a nil entry) counts as not quiesced, and so does an empty map.
func allPodsQuiesced(heartbeats map[int]*redischannel.Heartbeat) bool {
	if len(heartbeats) == 0 {
		return false
	}
	for _, hb := range heartbeats {
		if hb == nil {
			return false
		}
		if hb.State != "done" && hb.State != "interrupted" {
			return false
		}
	}
	return true
}

func applyHeartbeats(in *ReconcileInput, d *Decision) {
	var pagesDone, pagesFound int
	for _, hb := range in.Heartbeats {
		if hb == nil {
			continue
		}
		pagesDone += hb.PagesDone
	}
	pagesFound = pagesDone // worker contract does not distinguish found vs done per-pod, so found mirrors done.
	d.Status.PagesDone = pagesDone
	d.Status.PagesFound = pagesFound
	d.Status.Size = in.SizeBytes
}

func applyMemoryPolicy(in *ReconcileInput, d *Decision) {
	if d.Status.PodStatus == nil {
		d.Status.PodStatus = map[string]*PodInfo{}
	}
	for _, pod := range in.Pods {
		info := &PodInfo{Used: pod.Used, Allocated: pod.Allocated}
		if pod.Allocated.Memory <= 0 {
			d.Status.PodStatus[pod.Name] = info
			continue
		}
		ratio := float64(pod.Used.Memory) / float64(pod.Allocated.Memory)
		switch {
		case ratio >= 1.0:
			info.Reason = "soft-oom"
			d.ExcludePodIndices = append(d.ExcludePodIndices, pod.Index)
		case ratio >= 0.90 && pod.Sustained:
			newMemory := pod.Allocated.Memory * 120 / 100
			info.NewMemory = newMemory
			d.MemoryOverrides[pod.Index] = newMemory
		}
		d.Status.PodStatus[pod.Name] = info
	}
}

func applyWorkerExits(in *ReconcileInput, d *Decision) {
	allExitedNonZero := len(in.Pods) > 0
	for _, pod := range in.Pods {
		info := d.Status.PodStatus[pod.Name]
		if info == nil {
			info = &PodInfo{Used: pod.Used, Allocated: pod.Allocated}
			d.Status.PodStatus[pod.Name] = info
		}
		if !pod.HasExited {
			allExitedNonZero = false
			continue
		}
		info.IsNewExit = true
		info.ExitCode = pod.ExitCode
		if pod.ExitCode != 0 {
			info.Reason = "exit-error"
		} else {
			allExitedNonZero = false
		}
	}
	if allExitedNonZero && d.Status.StopReason == "" {
		d.Status.State = StateFailed
		d.Status.StopReason = "all-workers-failed"
		finished := in.Now
		d.Status.Finished = &finished
		d.FinalizeNow = true
	}
}

func applyQuota(in *ReconcileInput, d *Decision) {
	if IsPaused(d.Status.State) {
		// Transition 6: resume once the triggering condition has slack, or
		// the user asked to stop a paused crawl outright.
		switch d.Status.State {
		case StatePausedTimeQuotaReached:
			if !in.Debit.Exhausted || d.Status.StopReason == "user-stop" {
				d.Status.State = StateRunning
				d.ClearPause = true
			}
		case StatePausedStorageQuotaReached:
			if !in.StorageExceededNow || d.Status.StopReason == "user-stop" {
				d.Status.State = StateRunning
				d.ClearPause = true
			}
		case StatePaused:
			if !in.Spec.Paused {
				d.Status.State = StateRunning
				d.ClearPause = true
			}
		}
		if d.ClearPause {
			closePauseSpan(in, d)
		}
		return
	}

	if d.Status.State != StateRunning {
		return
	}

	if in.Spec.Paused {
		d.Status.State = StatePaused
		d.WritePause = true
		openPauseSpan(in, d)
		return
	}

	if in.StorageExceededNow {
		d.Status.State = StatePausedStorageQuotaReached
		d.WritePause = true
		openPauseSpan(in, d)
		return
	}

	if in.DebitApplicable && in.Debit.Exhausted {
		d.Status.State = StatePausedTimeQuotaReached
		d.WritePause = true
		openPauseSpan(in, d)
	}
}

// openPauseSpan marks the start of a new pause interval so its duration can
// later be excluded from the time-limit check. A no-op if a span is already
// open, since entering an already-paused state never re-runs this branch.
func openPauseSpan(in *ReconcileInput, d *Decision) {
	if d.Status.PausedSince != nil {
		return
	}
	since := in.Now
	d.Status.PausedSince = &since
}

// closePauseSpan folds the just-ended pause interval into PausedDuration.
func closePauseSpan(in *ReconcileInput, d *Decision) {
	if d.Status.PausedSince == nil {
		return
	}
	d.Status.PausedDuration += in.Now.Sub(*d.Status.PausedSince)
	d.Status.PausedSince = nil
}

func finalizeTerminalState(in *ReconcileInput, d *Decision) {
	d.FinalizeNow = true
	finished := in.Now
	d.Status.Finished = &finished

	switch d.Status.StopReason {
	case "user-stop":
		d.Status.State = StateCompleteUserStop
	case "size-limit":
		d.Status.State = StateCompleteSizeLimit
	case "time-limit":
		d.Status.State = StateCompleteTimeLimit
	default:
		if anyPodFailed(d.Status.PodStatus) {
			d.Status.State = StateCompletePartial
		} else {
			d.Status.State = StateComplete
		}
	}
}

func anyPodFailed(podStatus map[string]*PodInfo) bool {
	for _, info := range podStatus {
		if info != nil && info.ExitCode != 0 {
			return true
		}
	}
	return false
}
