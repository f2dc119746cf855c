package operator

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/webrecorder/crawl-control-plane/pkg/store"
)

type collIndexResource struct {
	Spec   CollIndexSpec    `json:"spec"`
	Status *CollIndexStatus `json:"status,omitempty"`
}

// CollIndexReconciler implements the CollIndex sync webhook variant (§6
// added): a decorator CR that exists to keep §9's closed OperatorTarget
// variant a real four-case dispatch rather than three cases wearing a
// fourth's name. It renders no children — there is nothing to schedule for
// a collection, only a membership list to keep tidy.
type CollIndexReconciler struct {
	Store  ProgressStore
	Logger log.Logger
	Now    func() time.Time
}

// NewCollIndexReconciler builds a reconciler with sane defaults.
func NewCollIndexReconciler(progressStore ProgressStore) *CollIndexReconciler {
	return &CollIndexReconciler{Store: progressStore}
}

func (r *CollIndexReconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *CollIndexReconciler) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewNopLogger()
}

// HandleSync recomputes the named collection's crawlIds membership list,
// deduplicating whatever AddCrawlToCollection's $addToSet writes have
// accumulated, and reports the resulting count. No children are rendered.
func (r *CollIndexReconciler) HandleSync(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	var parent collIndexResource
	if err := json.Unmarshal(req.Parent, &parent); err != nil {
		return SyncResponse{}, errors.Wrap(err, "decode CollIndex parent")
	}

	cols, err := r.Store.ListCollections(ctx, parent.Spec.OrgID)
	if err != nil {
		return SyncResponse{}, errors.Wrapf(err, "list collections for org %s", parent.Spec.OrgID)
	}

	now := r.now()
	status := CollIndexStatus{LastUpdatedTime: now}

	var found *store.Collection
	for i := range cols {
		if cols[i].ID == parent.Spec.CollectionID {
			found = &cols[i]
			break
		}
	}
	if found == nil {
		level.Warn(r.logger()).Log("msg", "collection not found", "collection", parent.Spec.CollectionID, "org", parent.Spec.OrgID)
		return SyncResponse{Status: status, Children: []interface{}{}}, nil
	}

	deduped := dedupeSorted(found.CrawlIDs)
	if err := r.Store.SetCollectionCrawlIDs(ctx, found.ID, deduped); err != nil {
		return SyncResponse{}, errors.Wrapf(err, "set crawl ids for collection %s", found.ID)
	}

	status.CrawlCount = len(deduped)
	return SyncResponse{Status: status, Children: []interface{}{}}, nil
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
