// Package operator implements the CrawlJob Operator (C4): the meta-controller
// sync webhook that decides desired children and status for CrawlJob,
// ProfileJob, CollIndex and CronJob custom resources (§4.4, §6, §9's closed
// OperatorTarget variant). The webhook envelope and CR spec/status shapes
// mirror §6's EXTERNAL INTERFACES section exactly; the reconcile decision
// itself is a pure function (statemachine.go) the HTTP layer (webhook.go)
// and the store/redis-backed reconciler (reconciler.go) build on top of.
//
// Follows the top-level Operator/Options/New/Run shape (operator.go), the
// reconciler-struct-with-client pattern, and a decode/decide/encode shape
// — generalized here from a single AdmissionReview type to a
// closed set of four CR variants dispatched by webhook path instead of a
// runtime type switch, per §9's design note.
package operator

import (
	"encoding/json"
	"time"
)

// SyncRequest is the meta-controller composite-controller sync envelope
// (§6): the parent CR plus every observed child, keyed by "Kind.version" and
// then by child name. The operator never needs more of a child than its
// status, so children travel as raw JSON and are unmarshaled lazily by each
// variant's reconciler.
type SyncRequest struct {
	Parent     json.RawMessage                      `json:"parent"`
	Children   map[string]map[string]json.RawMessage `json:"children"`
	Finalizing bool                                  `json:"finalizing,omitempty"`
}

// SyncResponse is the meta-controller sync envelope's reply half (§6):
// computed status, the full desired-children list (metacontroller diffs this
// against observed children itself), and an optional forced-resync hint.
type SyncResponse struct {
	Status              interface{}   `json:"status"`
	Children            []interface{} `json:"children"`
	ResyncAfterSeconds  *int          `json:"resyncAfterSeconds,omitempty"`
}

// CrawlJobSpec is CrawlJob.btrix.cloud/v1's spec (§3, §6).
type CrawlJobSpec struct {
	ID              string `json:"id"`
	OrgID           string `json:"orgId"`
	ConfigID        string `json:"configId"`
	Scheduled       bool   `json:"scheduled"`
	Manual          bool   `json:"manual"`
	MaxCrawlSize    int64  `json:"maxCrawlSize"`
	Timeout         int64  `json:"timeout"`
	BrowserWindows  int    `json:"browserWindows"`
	Stopping        bool   `json:"stopping"`
	Paused          bool   `json:"paused"`
	StorageName     string `json:"storageName"`
	ProfileFilename string `json:"profileFilename,omitempty"`

	// QASourceCrawlID is set only when this CrawlJob is a QA run (type=qa):
	// the id of the SUCCESSFUL crawl being replayed. Threads QARun admission
	// (§4.4) through the same envelope without a second CR kind.
	QASourceCrawlID string `json:"qaSourceCrawlId,omitempty"`
	QARunID         string `json:"qaRunId,omitempty"`
}

// ResourceUsage is one memory/cpu pair in a PodInfo.
type ResourceUsage struct {
	Memory int64 `json:"memory"`
	CPU    int64 `json:"cpu"`
}

// PodInfo is one pod's entry in CrawlStatus.PodStatus (§3).
type PodInfo struct {
	Used       ResourceUsage `json:"used"`
	Allocated  ResourceUsage `json:"allocated"`
	NewMemory  int64         `json:"newMemory,omitempty"`
	IsNewExit  bool          `json:"isNewExit,omitempty"`
	ExitCode   int           `json:"exitCode,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	SignalTime *time.Time    `json:"signalTime,omitempty"`
}

// CrawlStatus is CrawlJob.btrix.cloud/v1's status (§3): the operator's sole
// output besides the desired-children list, and the only place reconcile
// state survives between invocations (a level-triggered reconciler keeps no
// other memory of a crawl's progress, per §9's "stateless level-triggered
// reconciliation" design note).
type CrawlStatus struct {
	State           string              `json:"state"`
	Size            int64               `json:"size"`
	PagesFound      int                 `json:"pagesFound"`
	PagesDone       int                 `json:"pagesDone"`
	FilesAdded      int                 `json:"filesAdded"`
	FilesAddedSize  int64               `json:"filesAddedSize"`
	PodStatus       map[string]*PodInfo `json:"podStatus,omitempty"`
	LastUpdatedTime time.Time           `json:"lastUpdatedTime"`
	Finished        *time.Time          `json:"finished,omitempty"`
	StopReason      string              `json:"stopReason,omitempty"`
	CrawlerImage    string              `json:"crawlerImage,omitempty"`
	Resync          bool                `json:"resync,omitempty"`

	// PausedDuration is the cumulative time this crawl has spent in any
	// paused state across every pause span that has already ended, so the
	// time-limit check can subtract it back out of raw wall-clock age.
	PausedDuration time.Duration `json:"pausedDuration,omitempty"`
	// PausedSince marks the start of the pause span currently in progress;
	// nil whenever the crawl is not paused.
	PausedSince *time.Time `json:"pausedSince,omitempty"`
}

// ProfileJobSpec is ProfileJob.btrix.cloud/v1's spec (§6, §3 added).
type ProfileJobSpec struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userid"`
	OrgID               string    `json:"orgId"`
	ProfileFilename     string    `json:"profileFilename,omitempty"`
	StartURL            string    `json:"startUrl"`
	BaseProfileFilename string    `json:"baseProfileFilename,omitempty"`
	ExpiryTime          time.Time `json:"expiryTime"`
}

// ProfileJobStatus is ProfileJob's status (§3): a small
// closed state set, distinct from CrawlJob's richer CrawlStatus.
type ProfileJobStatus struct {
	State           string    `json:"state"`
	LastUpdatedTime time.Time `json:"lastUpdatedTime"`
}

// CollIndexSpec is CollIndex.btrix.cloud/v1's spec (§6): a decorator CR
// that exists only to make §9's closed OperatorTarget variant real.
type CollIndexSpec struct {
	OrgID        string `json:"oid"`
	CollectionID string `json:"collectionId"`
}

// CollIndexStatus reports the last recompute; CollIndex renders no children.
type CollIndexStatus struct {
	CrawlCount      int       `json:"crawlCount"`
	LastUpdatedTime time.Time `json:"lastUpdatedTime"`
}

// CronJobSpec is CronJob.btrix.cloud/v1's spec (§6 added): a decorator CR
// wrapping one scheduled CrawlConfig, the fourth OperatorTarget variant.
type CronJobSpec struct {
	OrgID    string `json:"oid"`
	ConfigID string `json:"configId"`
}

// CronJobStatus is CronJob's status: the schedule baseline the last sync
// fired against, the only memory a stateless reconcile has of a schedule's
// progress between invocations.
type CronJobStatus struct {
	LastObserved    *time.Time `json:"lastObserved,omitempty"`
	LastFiredCrawl  string     `json:"lastFiredCrawl,omitempty"`
	LastUpdatedTime time.Time  `json:"lastUpdatedTime"`
}
