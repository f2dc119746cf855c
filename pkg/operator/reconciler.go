package operator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/webrecorder/crawl-control-plane/pkg/quota"
	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
	"github.com/webrecorder/crawl-control-plane/pkg/render"
	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

// crawlJobResource is the CrawlJob custom resource's wire shape as observed
// by the sync webhook: a name (for deriving pod ordinals out of observed
// child names), the spec the API/scheduler wrote, and — once admitted — the
// status this package owns exclusively.
type crawlJobResource struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Spec   CrawlJobSpec `json:"spec"`
	Status *CrawlStatus `json:"status,omitempty"`
}

// CrawlJobReconciler is the impure shell around Decide: it resolves every
// external read the pure state machine needs, calls Decide, and persists or
// renders whatever the resulting Decision calls for. One instance is shared
// across sync calls; all of its mutable state lives in Store, Redis, and
// Memory, so HandleSync itself holds nothing crawl-specific between calls.
type CrawlJobReconciler struct {
	Store   ProgressStore
	Redis   *redischannel.Channel
	Metrics PodMetricsReader
	Memory  *MemoryTracker
	Env     render.Environment
	Logger  log.Logger
	Stats   *ReconcileMetrics

	Now               func() time.Time
	ReconcileInterval time.Duration
	StartingTimeout   time.Duration
	DefaultTTL        time.Duration
	ExecSecondsCap    time.Duration
	DrainPageBatch    int64
}

// NewCrawlJobReconciler builds a reconciler with sane defaults for every
// field callers do not usually need to tune. Store, Redis, and Env carry no
// safe zero value and must be supplied.
func NewCrawlJobReconciler(progressStore ProgressStore, redis *redischannel.Channel, env render.Environment) *CrawlJobReconciler {
	return &CrawlJobReconciler{
		Store:             progressStore,
		Redis:             redis,
		Metrics:           NoopMetricsReader{},
		Memory:            NewMemoryTracker(),
		Env:               env,
		ReconcileInterval: 5 * time.Second,
		StartingTimeout:   2 * time.Minute,
		DefaultTTL:        24 * time.Hour,
		ExecSecondsCap:    5 * time.Minute,
		DrainPageBatch:    1000,
	}
}

func (r *CrawlJobReconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *CrawlJobReconciler) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewNopLogger()
}

// HandleSync implements the CrawlJob variant of the meta-controller sync
// contract (§6): decode the parent plus observed children, run one
// reconcile, and return the resulting status and desired children.
func (r *CrawlJobReconciler) HandleSync(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	if r.Stats != nil {
		timer := prometheus.NewTimer(r.Stats.SyncDuration.WithLabelValues("crawljob"))
		defer timer.ObserveDuration()
	}

	var parent crawlJobResource
	if err := json.Unmarshal(req.Parent, &parent); err != nil {
		return SyncResponse{}, errors.Wrap(err, "decode CrawlJob parent")
	}

	var decision Decision
	var err error
	if parent.Status == nil {
		decision, err = r.reconcileAdmission(ctx, parent.Spec)
	} else {
		decision, err = r.reconcileOngoing(ctx, parent.Spec, *parent.Status, req.Children)
	}
	if err != nil {
		if r.Stats != nil {
			r.Stats.ReconcileErrors.WithLabelValues("crawljob").Inc()
		}
		return SyncResponse{}, err
	}

	if err := r.applySideEffects(ctx, parent.Spec, decision); err != nil {
		level.Error(r.logger()).Log("msg", "apply crawl side effects", "crawl", parent.Spec.ID, "err", err)
	}

	children, err := r.renderChildren(ctx, parent.Spec, decision)
	if err != nil {
		return SyncResponse{}, errors.Wrap(err, "render children")
	}

	resp := SyncResponse{Status: decision.Status, Children: children}
	if decision.Status.Resync {
		secs := int(r.ReconcileInterval.Seconds())
		if secs <= 0 {
			secs = 5
		}
		resp.ResyncAfterSeconds = &secs
	}
	return resp, nil
}

// reconcileAdmission runs transition 1: load the organization's quota state,
// decide the admission outcome, and persist the new Crawl document.
func (r *CrawlJobReconciler) reconcileAdmission(ctx context.Context, spec CrawlJobSpec) (Decision, error) {
	org, err := r.Store.GetOrganization(ctx, spec.OrgID)
	if err != nil {
		return Decision{}, errors.Wrapf(err, "load organization %s", spec.OrgID)
	}

	quotas := orgQuotas(org)
	pools := orgPools(org)
	yymm := quota.MonthKey(r.now())

	running, err := r.Store.CountRunningCrawls(ctx, spec.OrgID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "count running crawls")
	}

	sourceNotSuccessful := false
	if spec.QASourceCrawlID != "" {
		source, err := r.Store.GetCrawl(ctx, spec.QASourceCrawlID)
		if err != nil {
			return Decision{}, errors.Wrapf(err, "load QA source crawl %s", spec.QASourceCrawlID)
		}
		sourceNotSuccessful = source == nil || !IsSuccessful(source.State)
	}

	in := ReconcileInput{
		Now:                        r.now(),
		Spec:                       spec,
		IsNew:                      true,
		ConcurrentCrawlsAtCap:      quota.ConcurrentCrawlsAtCap(quotas, running),
		ExecSecondsExhausted:       quota.ExecSecondsExhausted(pools, quotas, yymm),
		StorageExceededAtAdmission: quota.StorageExceeded(quotas, org.BytesStored, 0),
		SourceCrawlNotSuccessful:   sourceNotSuccessful,
		StartingTimeout:            r.StartingTimeout,
		DefaultTTL:                 r.DefaultTTL,
	}
	decision := Decide(in)

	crawl := &store.Crawl{
		ID:       spec.ID,
		OrgID:    spec.OrgID,
		ConfigID: spec.ConfigID,
		Type:     crawlType(spec),
		Started:  in.Now,
		State:    decision.Status.State,
		Stopping: spec.Stopping,
		Paused:   spec.Paused,
		Finished: decision.Status.Finished,
	}
	if err := r.Store.CreateCrawl(ctx, crawl); err != nil {
		return Decision{}, errors.Wrapf(err, "create crawl %s", spec.ID)
	}
	if decision.Status.State == StateStarting && spec.QASourceCrawlID == "" {
		if err := r.Store.RecordConfigCrawlStart(ctx, spec.ConfigID, spec.ID); err != nil {
			return Decision{}, errors.Wrapf(err, "record crawl start on config %s", spec.ConfigID)
		}
	}
	if r.Stats != nil && decision.Status.State == StateStarting {
		r.Stats.ActiveCrawls.Inc()
	}

	return decision, nil
}

// reconcileOngoing runs transitions 2-11 for a crawl that has already been
// admitted: read the channel, build pod observations, debit quota, decide,
// and persist progress (finalization itself happens in finalize).
func (r *CrawlJobReconciler) reconcileOngoing(ctx context.Context, spec CrawlJobSpec, prior CrawlStatus, children map[string]map[string]json.RawMessage) (Decision, error) {
	now := r.now()

	crawl, err := r.Store.GetCrawl(ctx, spec.ID)
	if err != nil {
		return Decision{}, errors.Wrapf(err, "load crawl %s", spec.ID)
	}

	org, err := r.Store.GetOrganization(ctx, spec.OrgID)
	if err != nil {
		return Decision{}, errors.Wrapf(err, "load organization %s", spec.OrgID)
	}
	quotas := orgQuotas(org)
	pools := orgPools(org)
	yymm := quota.MonthKey(now)

	n := render.PodsForWindows(spec.BrowserWindows, r.Env.BrowsersPerPod)
	if r.Env.MaxCrawlScale > 0 && n > r.Env.MaxCrawlScale {
		n = r.Env.MaxCrawlScale
	}

	heartbeats := make(map[int]*redischannel.Heartbeat, n)
	redisUnavailable := false
	for i := 0; i < n && !redisUnavailable; i++ {
		hb, err := r.Redis.ReadStatus(ctx, spec.ID, i)
		if err != nil {
			redisUnavailable = true
			level.Warn(r.logger()).Log("msg", "read heartbeat", "crawl", spec.ID, "pod", i, "err", err)
			break
		}
		heartbeats[i] = hb
	}

	var sizeBytes int64
	if !redisUnavailable {
		sizeBytes, err = r.Redis.Size(ctx, spec.ID)
		if err != nil {
			redisUnavailable = true
			level.Warn(r.logger()).Log("msg", "read size", "crawl", spec.ID, "err", err)
		}
	}

	pods, err := r.buildPodObservations(ctx, spec, children)
	if err != nil {
		level.Warn(r.logger()).Log("msg", "read pod metrics", "crawl", spec.ID, "err", err)
	}

	elapsed := quota.ExecSecondsDelta(prior.LastUpdatedTime, now, r.ExecSecondsCap, countAlive(heartbeats))
	var debit quota.DebitResult
	debitApplicable := elapsed > 0 && !redisUnavailable
	if debitApplicable {
		debit = quota.DebitExecSeconds(&pools, quotas, yymm, elapsed)
		if err := r.Store.IncOrgExecSeconds(ctx, spec.OrgID, yymm, debit); err != nil {
			return Decision{}, errors.Wrapf(err, "debit exec seconds for org %s", spec.OrgID)
		}
		if r.Stats != nil {
			r.Stats.ExecSecondsDebited.Add(elapsed)
		}
	}

	in := ReconcileInput{
		Now:                now,
		Spec:               spec,
		Prior:              prior,
		IsNew:              false,
		StartedAt:          crawl.Started,
		ReconcileInterval:  r.ReconcileInterval,
		Heartbeats:         heartbeats,
		SizeBytes:          sizeBytes,
		Pods:               pods,
		Debit:              debit,
		DebitApplicable:    debitApplicable,
		StorageExceededNow: quota.StorageExceeded(quotas, org.BytesStored, sizeBytes),
		RedisUnavailable:   redisUnavailable,
		StartingTimeout:    r.StartingTimeout,
		DefaultTTL:         r.DefaultTTL,
	}
	decision := Decide(in)

	if err := r.Store.UpdateCrawlProgress(ctx, spec.ID, store.CrawlStats{
		Found: decision.Status.PagesFound,
		Done:  decision.Status.PagesDone,
		Size:  decision.Status.Size,
	}); err != nil {
		level.Warn(r.logger()).Log("msg", "update crawl progress", "crawl", spec.ID, "err", err)
	}

	if decision.FinalizeNow {
		if err := r.finalize(ctx, spec, crawl, org, &decision); err != nil {
			return Decision{}, errors.Wrapf(err, "finalize crawl %s", spec.ID)
		}
	}

	if decision.TeardownComplete {
		if err := r.Redis.Cleanup(ctx, spec.ID); err != nil {
			level.Warn(r.logger()).Log("msg", "cleanup redis channel", "crawl", spec.ID, "err", err)
		}
		r.Memory.Forget(spec.ID)
	}

	return decision, nil
}

// finalize runs the persistence half of transition 10: drain whatever pages
// remain in the channel, write the terminal Crawl document, and enqueue one
// create-replica BackgroundJob per file per configured storage replica. CrawlFile
// population itself (hash, size, primary storage location) is out of this
// package's scope — it is written by the worker's own upload completion
// report, a path pkg/storage's presign/head/copy facet fronts rather than
// this reconciler.
func (r *CrawlJobReconciler) finalize(ctx context.Context, spec CrawlJobSpec, crawl *store.Crawl, org *store.Organization, decision *Decision) error {
	records, err := r.Redis.DrainPages(ctx, spec.ID, r.drainBatch())
	if err != nil {
		level.Warn(r.logger()).Log("msg", "drain pages at finalize", "crawl", spec.ID, "err", err)
	}

	finished := r.now()
	if decision.Status.Finished != nil {
		finished = *decision.Status.Finished
	}
	stats := store.CrawlStats{Found: decision.Status.PagesFound, Done: decision.Status.PagesDone, Size: decision.Status.Size}
	successful := IsSuccessful(decision.Status.State)

	if r.Stats != nil {
		r.Stats.ActiveCrawls.Dec()
	}

	if spec.QASourceCrawlID != "" {
		return r.finalizeQA(ctx, spec, records, decision.Status.State, finished, stats)
	}

	if len(records) > 0 {
		pages := make([]store.Page, 0, len(records))
		for _, rec := range records {
			ts, _ := time.Parse(time.RFC3339, rec.TS)
			pages = append(pages, store.Page{
				ID:      spec.ID + ":" + rec.URL,
				CrawlID: spec.ID,
				OrgID:   spec.OrgID,
				URL:     rec.URL,
				TS:      ts,
				Title:   rec.Title,
				Status:  rec.Status,
				IsSeed:  rec.IsSeed,
				IsError: rec.Status == 0 || rec.Status >= 400,
			})
		}
		if err := r.Store.InsertPages(ctx, pages); err != nil {
			level.Warn(r.logger()).Log("msg", "insert drained pages", "crawl", spec.ID, "err", err)
		}
	}

	if err := r.Store.FinalizeCrawl(ctx, spec.ID, decision.Status.State, finished, crawl.Files, stats); err != nil {
		return errors.Wrap(err, "persist crawl finalization")
	}

	if err := r.Store.RecordConfigCrawlFinish(ctx, spec.ConfigID, decision.Status.State, successful, decision.Status.FilesAddedSize); err != nil {
		level.Warn(r.logger()).Log("msg", "record config crawl finish", "crawl", spec.ID, "err", err)
	}

	if successful {
		for _, ref := range org.StorageReplicas {
			for _, f := range crawl.Files {
				job := &store.BackgroundJob{
					ID:             fmt.Sprintf("%s:%s:%s", spec.ID, f.Filename, ref.Name),
					Type:           store.JobCreateReplica,
					Started:        r.now(),
					OrgID:          spec.OrgID,
					FilePath:       f.Filename,
					ObjectType:     "crawl",
					ObjectID:       spec.ID,
					ReplicaStorage: ref.Name,
				}
				if err := r.Store.CreateBackgroundJob(ctx, job); err != nil {
					level.Warn(r.logger()).Log("msg", "enqueue create-replica", "crawl", spec.ID, "err", err)
				}
			}
		}
	}

	r.Memory.Forget(spec.ID)
	return nil
}

// finalizeQA runs the QA-run variant of finalize (§4.4):
// rather than inserting new Page documents and enqueueing replica jobs, each
// drained record carries a comparison against the original crawl's Page for
// the same URL, written into that Page's qa map, and the QARun document
// itself is marked finished.
func (r *CrawlJobReconciler) finalizeQA(ctx context.Context, spec CrawlJobSpec, records []redischannel.PageRecord, state string, finished time.Time, stats store.CrawlStats) error {
	for _, rec := range records {
		result := store.PageQAResult{ResourceCounts: rec.ResourceCounts}
		if rec.TextMatch != nil {
			result.TextMatch = *rec.TextMatch
		}
		if rec.ScreenshotMatch != nil {
			result.ScreenshotMatch = *rec.ScreenshotMatch
		}
		pageID := spec.QASourceCrawlID + ":" + rec.URL
		if err := r.Store.SetPageQAResult(ctx, pageID, spec.QARunID, result); err != nil {
			level.Warn(r.logger()).Log("msg", "set page QA result", "crawl", spec.ID, "page", pageID, "err", err)
		}
	}

	if err := r.Store.FinishQARun(ctx, spec.QARunID, state, finished, stats); err != nil {
		return errors.Wrap(err, "finish QA run")
	}
	r.Memory.Forget(spec.ID)
	return nil
}

// applySideEffects carries out the Redis-channel writes a Decision calls
// for, plus mirroring the crawl's pause state into the document store so
// API reads of Crawl.paused stay in sync with the operator's own view.
func (r *CrawlJobReconciler) applySideEffects(ctx context.Context, spec CrawlJobSpec, decision Decision) error {
	var errs []string
	if decision.WriteStop {
		if err := r.Redis.SetStop(ctx, spec.ID); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if decision.WritePause {
		if err := r.Redis.SetPause(ctx, spec.ID); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if decision.ClearPause {
		if err := r.Redis.ClearPause(ctx, spec.ID); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if err := r.Store.SetCrawlPaused(ctx, spec.ID, IsPaused(decision.Status.State)); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("side effects: %s", strings.Join(errs, "; "))
	}
	return nil
}

// renderChildren builds the desired-children list a Decision with
// RenderChildren=true calls for, applying any soft-OOM exclusions and memory
// overrides transition 8 produced.
func (r *CrawlJobReconciler) renderChildren(ctx context.Context, spec CrawlJobSpec, decision Decision) ([]interface{}, error) {
	if !decision.RenderChildren {
		return []interface{}{}, nil
	}

	cfg, err := r.Store.GetCrawlConfig(ctx, spec.ConfigID)
	if err != nil {
		return nil, errors.Wrapf(err, "load crawl config %s", spec.ConfigID)
	}
	org, err := r.Store.GetOrganization(ctx, spec.OrgID)
	if err != nil {
		return nil, errors.Wrapf(err, "load organization %s", spec.OrgID)
	}

	crawlSpec := buildCrawlSpec(spec, cfg, org, r.Env)

	env := r.Env
	for _, bumped := range decision.MemoryOverrides {
		if bumped > env.CrawlerRequestsMemory {
			env.CrawlerRequestsMemory = bumped
		}
	}

	objs, err := render.Render(crawlSpec, env, false)
	if err != nil {
		return nil, err
	}

	excluded := make(map[int]bool, len(decision.ExcludePodIndices))
	for _, idx := range decision.ExcludePodIndices {
		excluded[idx] = true
	}

	// A terminal crawl keeps its workers until teardown, but not its Redis
	// pod and service.
	terminal := IsTerminal(decision.Status.State)
	redisName := fmt.Sprintf("redis-%s", spec.ID)

	out := make([]interface{}, 0, len(objs))
	for _, obj := range objs {
		if idx, ok := podOrdinal(spec.ID, obj); ok && excluded[idx] {
			continue
		}
		if terminal && obj.GetName() == redisName {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// buildPodObservations assembles one PodObservation per observed worker pod,
// combining the sync request's own view of pod status (exit codes) with a
// live PodMetricsReader lookup (usage) neither the request body nor the
// document store can supply.
func (r *CrawlJobReconciler) buildPodObservations(ctx context.Context, spec CrawlJobSpec, children map[string]map[string]json.RawMessage) ([]PodObservation, error) {
	observed := observedPods(children)
	if len(observed) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(observed))
	for name := range observed {
		names = append(names, name)
	}
	used, metricsErr := r.Metrics.Read(ctx, r.Env.CrawlerNamespace, names)
	if metricsErr != nil {
		used = map[string]ResourceUsage{}
	}

	now := r.now()
	pods := make([]PodObservation, 0, len(observed))
	for name, pod := range observed {
		index, ok := podIndexFromName(spec.ID, name)
		if !ok {
			continue
		}
		allocated := containerRequests(pod)
		usage := used[name]
		exited, exitCode := containerExit(pod)

		ratio := 0.0
		if allocated.Memory > 0 {
			ratio = float64(usage.Memory) / float64(allocated.Memory)
		}
		sustained := r.Memory.Observe(now, spec.ID, name, ratio >= 0.90)

		pods = append(pods, PodObservation{
			Index:     index,
			Name:      name,
			Used:      usage,
			Allocated: allocated,
			HasExited: exited,
			ExitCode:  exitCode,
			Sustained: sustained,
		})
	}
	sort.Slice(pods, func(i, j int) bool { return pods[i].Index < pods[j].Index })
	return pods, metricsErr
}

func (r *CrawlJobReconciler) drainBatch() int64 {
	if r.DrainPageBatch > 0 {
		return r.DrainPageBatch
	}
	return 1000
}

// observedPods pulls every Pod child out of a sync request's observed
// children map, keyed by "Kind.version" per the meta-controller convention
// (e.g. "Pod.v1").
func observedPods(children map[string]map[string]json.RawMessage) map[string]corev1.Pod {
	pods := map[string]corev1.Pod{}
	for key, objs := range children {
		if !strings.HasPrefix(key, "Pod.") {
			continue
		}
		for name, raw := range objs {
			var pod corev1.Pod
			if err := json.Unmarshal(raw, &pod); err != nil {
				continue
			}
			pods[name] = pod
		}
	}
	return pods
}

// podIndexFromName recovers a worker pod's ordinal from its rendered name
// ("crawl-<id>-<index>"), matching render.MakePod's naming exactly without
// this package re-exporting that helper.
func podIndexFromName(crawlID, name string) (int, bool) {
	prefix := fmt.Sprintf("crawl-%s-", crawlID)
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil {
		return 0, false
	}
	return idx, true
}

// podOrdinal is podIndexFromName narrowed to client.Object values that are
// actually Pods — a rendered PVC shares a worker pod's exact name, so the
// type check here (not just the name match) keeps exclusion from also
// dropping that pod's PVC.
func podOrdinal(crawlID string, obj client.Object) (int, bool) {
	pod, ok := obj.(*corev1.Pod)
	if !ok {
		return 0, false
	}
	return podIndexFromName(crawlID, pod.Name)
}

func containerRequests(pod corev1.Pod) ResourceUsage {
	var usage ResourceUsage
	for _, c := range pod.Spec.Containers {
		if mem, ok := c.Resources.Requests[corev1.ResourceMemory]; ok {
			usage.Memory += mem.Value()
		}
		if cpu, ok := c.Resources.Requests[corev1.ResourceCPU]; ok {
			usage.CPU += cpu.MilliValue()
		}
	}
	return usage
}

func containerExit(pod corev1.Pod) (bool, int) {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Terminated != nil {
			return true, int(cs.State.Terminated.ExitCode)
		}
	}
	return false, 0
}

func buildCrawlSpec(spec CrawlJobSpec, cfg *store.CrawlConfig, org *store.Organization, env render.Environment) render.CrawlSpec {
	return render.CrawlSpec{
		ID:               spec.ID,
		OrgID:            spec.OrgID,
		ConfigID:         spec.ConfigID,
		Seeds:            cfg.Seeds,
		SeedFileID:       cfg.SeedFileID,
		ScopeType:        cfg.ScopeType,
		Timeout:          spec.Timeout,
		MaxCrawlSize:     spec.MaxCrawlSize,
		MaxPagesPerCrawl: org.Quotas.MaxPagesPerCrawl,
		BrowserWindows:   spec.BrowserWindows,
		ProfileFilename:  spec.ProfileFilename,
		StorageName:      spec.StorageName,
		RedisURL:         fmt.Sprintf("redis://redis-%s.%s.svc.cluster.local:6379", spec.ID, env.CrawlerNamespace),
		StoreURL:         fmt.Sprintf("http://progress-store.%s.svc.cluster.local/crawls/%s", env.CrawlerNamespace, spec.ID),
	}
}

func orgQuotas(org *store.Organization) quota.Quotas {
	return quota.Quotas{
		MaxConcurrentCrawls:    org.Quotas.MaxConcurrentCrawls,
		MaxPagesPerCrawl:       org.Quotas.MaxPagesPerCrawl,
		StorageQuota:           org.Quotas.StorageQuota,
		MaxExecSecondsPerMonth: org.Quotas.MaxExecMinutesPerMonth * 60,
	}
}

func orgPools(org *store.Organization) quota.Pools {
	return quota.Pools{
		MonthlyExecSeconds:         org.MonthlyExecSeconds,
		ExtraExecSeconds:           org.ExtraExecSeconds,
		GiftedExecSeconds:          org.GiftedExecSeconds,
		ExtraExecSecondsAvailable:  org.ExtraExecSecondsAvailable,
		GiftedExecSecondsAvailable: org.GiftedExecSecondsAvailable,
	}
}

func countAlive(heartbeats map[int]*redischannel.Heartbeat) int {
	n := 0
	for _, hb := range heartbeats {
		if hb != nil {
			n++
		}
	}
	return n
}

func crawlType(spec CrawlJobSpec) store.CrawlType {
	if spec.QASourceCrawlID != "" {
		return store.CrawlTypeQA
	}
	return store.CrawlTypeCrawl
}
