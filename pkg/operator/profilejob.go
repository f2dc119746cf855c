package operator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
	"github.com/webrecorder/crawl-control-plane/pkg/render"
)

// ProfileJob states (§4.4): a small closed set, distinct
// from CrawlJob's richer state machine since a profile browser admits
// unconditionally and never reports progress counters.
const (
	ProfileStateStarting = "starting"
	ProfileStateRunning  = "running"
	ProfileStateComplete = "complete"
	ProfileStateFailed   = "failed"
)

// ProfileStorageChecker is the one external signal ProfileJob's reconcile
// needs that the sync request body cannot carry: whether the browser's
// "save profile" action has landed a WACZ-profile object in storage yet.
// Backed by the storage facet's head operation (pkg/storage); a nil checker
// degrades transition running->complete to a permanent no-op, which is
// still correct behavior for local development with no storage wired.
type ProfileStorageChecker interface {
	// Exists reports whether filename has been written to storageName.
	Exists(ctx context.Context, storageName, filename string) (bool, error)
}

// NoopProfileStorageChecker always reports the profile save hasn't
// happened, for use when no storage facet is wired.
type NoopProfileStorageChecker struct{}

func (NoopProfileStorageChecker) Exists(ctx context.Context, storageName, filename string) (bool, error) {
	return false, nil
}

type profileJobResource struct {
	Spec   ProfileJobSpec    `json:"spec"`
	Status *ProfileJobStatus `json:"status,omitempty"`
}

// ProfileJobReconciler implements the ProfileJob sync webhook variant.
// Unlike CrawlJobReconciler it keeps no decision/status split in a separate
// pure function — the state machine is four states and three edges, small
// enough to read directly in advance below without the indirection a
// CrawlJob-sized ReconcileInput/Decision pair earns.
type ProfileJobReconciler struct {
	Redis   *redischannel.Channel
	Storage ProfileStorageChecker
	Env     render.Environment
	Logger  log.Logger

	Now        func() time.Time
	DefaultTTL time.Duration
}

// NewProfileJobReconciler builds a reconciler with sane defaults.
func NewProfileJobReconciler(redis *redischannel.Channel, env render.Environment) *ProfileJobReconciler {
	return &ProfileJobReconciler{
		Redis:      redis,
		Storage:    NoopProfileStorageChecker{},
		Env:        env,
		DefaultTTL: 24 * time.Hour,
	}
}

func (r *ProfileJobReconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *ProfileJobReconciler) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewNopLogger()
}

// HandleSync implements the ProfileJob sync contract (§6, §4.4).
func (r *ProfileJobReconciler) HandleSync(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	var parent profileJobResource
	if err := json.Unmarshal(req.Parent, &parent); err != nil {
		return SyncResponse{}, errors.Wrap(err, "decode ProfileJob parent")
	}

	now := r.now()
	var status ProfileJobStatus
	if parent.Status == nil {
		status = ProfileJobStatus{State: ProfileStateStarting, LastUpdatedTime: now}
	} else {
		var err error
		status, err = r.advance(ctx, parent.Spec, *parent.Status, now)
		if err != nil {
			return SyncResponse{}, err
		}
	}

	children, err := r.renderChildren(parent.Spec, status)
	if err != nil {
		return SyncResponse{}, errors.Wrap(err, "render profile children")
	}

	resp := SyncResponse{Status: status, Children: children}
	if !IsProfileTerminal(status.State) {
		secs := 5
		resp.ResyncAfterSeconds = &secs
	}
	return resp, nil
}

// advance runs the three live transitions a ProfileJob can make past
// admission: starting->running on the first browser heartbeat,
// running->complete once the saved profile object appears in storage, and
// running/starting->failed once expiryTime has elapsed. Once terminal, the
// status is never mutated again (matching CrawlStatus's own monotonicity
// rule) except to fall out of the resync loop.
func (r *ProfileJobReconciler) advance(ctx context.Context, spec ProfileJobSpec, prior ProfileJobStatus, now time.Time) (ProfileJobStatus, error) {
	if IsProfileTerminal(prior.State) {
		return prior, nil
	}

	if !spec.ExpiryTime.IsZero() && now.After(spec.ExpiryTime) {
		return ProfileJobStatus{State: ProfileStateFailed, LastUpdatedTime: now}, nil
	}

	if prior.State == ProfileStateRunning || prior.State == ProfileStateStarting {
		saved, err := r.Storage.Exists(ctx, "", spec.ProfileFilename)
		if err != nil {
			level.Warn(r.logger()).Log("msg", "check profile save", "profile", spec.ID, "err", err)
		} else if saved && spec.ProfileFilename != "" {
			return ProfileJobStatus{State: ProfileStateComplete, LastUpdatedTime: now}, nil
		}
	}

	if prior.State == ProfileStateStarting {
		hb, err := r.Redis.ReadProfileStatus(ctx, spec.ID)
		if err != nil {
			level.Warn(r.logger()).Log("msg", "read profile heartbeat", "profile", spec.ID, "err", err)
			return prior, nil
		}
		if hb != nil {
			return ProfileJobStatus{State: ProfileStateRunning, LastUpdatedTime: now}, nil
		}
	}

	return prior, nil
}

// renderChildren renders the single Pod+PVC pair while the job is still
// starting or running; a terminal ProfileJob renders nothing so
// metacontroller tears the browser pod down.
func (r *ProfileJobReconciler) renderChildren(spec ProfileJobSpec, status ProfileJobStatus) ([]interface{}, error) {
	if IsProfileTerminal(status.State) {
		return []interface{}{}, nil
	}

	objs, err := render.RenderProfile(render.ProfileSpec{
		ID:                  spec.ID,
		OrgID:               spec.OrgID,
		UserID:              spec.UserID,
		StartURL:            spec.StartURL,
		ProfileFilename:     spec.ProfileFilename,
		BaseProfileFilename: spec.BaseProfileFilename,
	}, r.Env)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(objs))
	for _, obj := range objs {
		out = append(out, obj)
	}
	return out, nil
}

// IsProfileTerminal reports whether a ProfileJob state is complete or
// failed — once reached the operator stops resyncing and renders no pod.
func IsProfileTerminal(state string) bool {
	return state == ProfileStateComplete || state == ProfileStateFailed
}
