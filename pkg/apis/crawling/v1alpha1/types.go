package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CrawlState is the closed set of states a CrawlJob's status can report, per
// the state machine in the operator design: running states, waiting states,
// paused states, and the two terminal partitions (successful, failed).
type CrawlState string

const (
	StateStarting        CrawlState = "starting"
	StateRunning          CrawlState = "running"
	StateWaitingCapacity  CrawlState = "waiting_capacity"
	StateWaitingOrgLimit  CrawlState = "waiting_org_limit"
	StateStopping         CrawlState = "stopping"

	StatePaused                      CrawlState = "paused"
	StatePausedStorageQuotaReached   CrawlState = "paused_storage_quota_reached"
	StatePausedTimeQuotaReached      CrawlState = "paused_time_quota_reached"

	StateCompleteFull      CrawlState = "complete"
	StateCompletePartial   CrawlState = "complete:partial"
	StateCompleteUserStop  CrawlState = "complete:user-stop"
	StateCompleteSizeLimit CrawlState = "complete:size-limit"
	StateCompleteTimeLimit CrawlState = "complete:time-limit"

	StateFailed                  CrawlState = "failed"
	StateCanceled                CrawlState = "canceled"
	StateSkippedStorageQuota     CrawlState = "skipped_storage_quota_reached"
	StateSkippedTimeQuota        CrawlState = "skipped_time_quota_reached"
	StateFailedNotLoggedIn       CrawlState = "failed_not_logged_in"
)

// RunningStates, WaitingStates, PausedStates, SuccessfulStates and FailedStates
// partition the full CrawlState set, per the operator's state machine design.
var (
	RunningStates = map[CrawlState]bool{
		StateRunning: true,
	}
	WaitingStates = map[CrawlState]bool{
		StateWaitingCapacity: true,
		StateWaitingOrgLimit: true,
		StateStarting:        true,
	}
	PausedStates = map[CrawlState]bool{
		StatePaused:                    true,
		StatePausedStorageQuotaReached: true,
		StatePausedTimeQuotaReached:    true,
	}
	SuccessfulStates = map[CrawlState]bool{
		StateCompleteFull:      true,
		StateCompletePartial:   true,
		StateCompleteUserStop:  true,
		StateCompleteSizeLimit: true,
		StateCompleteTimeLimit: true,
	}
	FailedStates = map[CrawlState]bool{
		StateFailed:              true,
		StateCanceled:            true,
		StateSkippedStorageQuota: true,
		StateSkippedTimeQuota:    true,
		StateFailedNotLoggedIn:   true,
	}
)

// IsTerminal reports whether a state belongs to SuccessfulStates or FailedStates,
// i.e. is frozen per property law 1 (terminal monotonicity).
func (s CrawlState) IsTerminal() bool {
	return SuccessfulStates[s] || FailedStates[s]
}

// IsPaused reports whether a state belongs to PausedStates.
func (s CrawlState) IsPaused() bool {
	return PausedStates[s]
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CrawlJob is the declarative intent to run a single crawl. Its id is the
// crawl id; the operator translates it into worker Pods, PVCs, a ConfigMap
// and a singleton Redis pod/service.
type CrawlJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CrawlJobSpec `json:"spec,omitempty"`
	Status CrawlStatus  `json:"status,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CrawlJobList is a list of CrawlJobs.
type CrawlJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CrawlJob `json:"items"`
}

// CrawlJobSpec is the write-mostly desired state of a crawl, set at creation
// time except for the Stopping/Paused flags which a higher layer flips to
// request a state transition.
type CrawlJobSpec struct {
	ID       string `json:"id"`
	OrgID    string `json:"orgId"`
	ConfigID string `json:"configId"`

	Scheduled bool `json:"scheduled"`
	Manual    bool `json:"manual"`

	MaxCrawlSize    int64 `json:"maxCrawlSize"`
	Timeout         int64 `json:"timeout"`
	BrowserWindows  int   `json:"browserWindows"`

	Stopping bool `json:"stopping"`
	Paused   bool `json:"paused"`

	StorageName        string  `json:"storageName"`
	ProfileFilename    *string `json:"profileFilename,omitempty"`
}

// CrawlStatus is the operator-computed observed state of a crawl, written
// back to the CrawlJob's .status subresource every reconcile.
type CrawlStatus struct {
	State CrawlState `json:"state,omitempty"`

	Size           int64 `json:"size"`
	PagesFound     int   `json:"pagesFound"`
	PagesDone      int   `json:"pagesDone"`
	FilesAdded     int   `json:"filesAdded"`
	FilesAddedSize int64 `json:"filesAddedSize"`

	PodStatus map[string]PodInfo `json:"podStatus,omitempty"`

	LastUpdatedTime metav1.Time  `json:"lastUpdatedTime,omitempty"`
	Finished        *metav1.Time `json:"finished,omitempty"`
	StopReason      *string      `json:"stopReason,omitempty"`

	CrawlerImage string `json:"crawlerImage,omitempty"`

	// Resync hints the caller to reconcile again immediately rather than
	// waiting for the next resync interval, e.g. after a Redis outage cleared.
	Resync bool `json:"resync,omitempty"`
}

// PodInfo is the operator's per-pod view used by the memory-pressure policy
// and worker-exit handling.
type PodInfo struct {
	Used      ResourceUsage `json:"used,omitempty"`
	Allocated ResourceUsage `json:"allocated,omitempty"`

	// NewMemory is set by the operator when it decides to scale a pod's
	// memory request up; its presence in desired state triggers Pod
	// recreation on next apply.
	NewMemory *int64 `json:"newMemory,omitempty"`

	IsNewExit bool    `json:"isNewExit,omitempty"`
	ExitCode  *int32  `json:"exitCode,omitempty"`
	Reason    string  `json:"reason,omitempty"`

	SignalTime *metav1.Time `json:"signalTime,omitempty"`
}

// ResourceUsage mirrors the used/allocated memory+cpu fields of PodStatus.
type ResourceUsage struct {
	Memory int64  `json:"memory"`
	CPU    string `json:"cpu,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ProfileJob is the declarative intent to run a single interactive profile
// browser. It reuses the same renderer and a trivial variant of the crawl
// state machine (§9: a thin wrapper over the same operator pattern).
type ProfileJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ProfileJobSpec   `json:"spec,omitempty"`
	Status ProfileJobStatus `json:"status,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ProfileJobList is a list of ProfileJobs.
type ProfileJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ProfileJob `json:"items"`
}

// ProfileJobSpec is the desired state of an interactive profile browser.
type ProfileJobSpec struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"userid"`
	OrgID               string      `json:"orgId"`
	ProfileFilename     *string     `json:"profileFilename,omitempty"`
	StartURL            string      `json:"startUrl"`
	BaseProfileFilename *string     `json:"baseProfileFilename,omitempty"`
	ExpiryTime          metav1.Time `json:"expiryTime"`
}

// ProfileJobState is the closed state set for a profile browser.
type ProfileJobState string

const (
	ProfileStateStarting ProfileJobState = "starting"
	ProfileStateRunning  ProfileJobState = "running"
	ProfileStateComplete ProfileJobState = "complete"
	ProfileStateFailed   ProfileJobState = "failed"
)

// ProfileJobStatus is the operator-computed status of a profile browser.
type ProfileJobStatus struct {
	State           ProfileJobState `json:"state,omitempty"`
	LastUpdatedTime metav1.Time     `json:"lastUpdatedTime,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CollIndex is the decorator CR used to recompute Collection membership. It
// renders no children; it exists so the OperatorTarget variant described in
// the design notes (§9) is exercised by a real reconcile path rather than
// being a theoretical fourth case.
type CollIndex struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CollIndexSpec   `json:"spec,omitempty"`
	Status CollIndexStatus `json:"status,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CollIndexList is a list of CollIndexes.
type CollIndexList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CollIndex `json:"items"`
}

// CollIndexSpec identifies the collection whose crawlIds membership should
// be recomputed.
type CollIndexSpec struct {
	OrgID        string `json:"oid"`
	CollectionID string `json:"collectionId"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CronJob is the decorator CR wrapping one scheduled CrawlConfig. It renders
// a child CrawlJob whenever the wrapped config's schedule has a firing
// instant it has not already observed, the webhook-dispatched counterpart
// to pkg/scheduler's ticking materializer.
type CronJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CronJobSpec   `json:"spec,omitempty"`
	Status CronJobStatus `json:"status,omitempty"`
}

// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// CronJobList is a list of CronJobs.
type CronJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CronJob `json:"items"`
}

// CronJobSpec identifies the org and CrawlConfig a CronJob decorator watches.
type CronJobSpec struct {
	OrgID    string `json:"oid"`
	ConfigID string `json:"configId"`
}

// CronJobStatus records the schedule baseline a CronJob reconcile has
// already fired against, so a stateless sync call knows whether the config's
// schedule has advanced since the last one.
type CronJobStatus struct {
	LastObserved    *metav1.Time `json:"lastObserved,omitempty"`
	LastFiredCrawl  string       `json:"lastFiredCrawl,omitempty"`
	LastUpdatedTime metav1.Time  `json:"lastUpdatedTime,omitempty"`
}

// CollIndexStatus records the last successful recomputation.
type CollIndexStatus struct {
	LastUpdatedTime metav1.Time `json:"lastUpdatedTime,omitempty"`
	CrawlCount      int         `json:"crawlCount"`
}

// PodMetricsUsage is the shape the operator reads back from the
// metrics.k8s.io API for the memory-pressure policy; kept distinct from
// corev1.ResourceList so callers do not need a metrics-API import to read
// PodInfo off a CrawlStatus.
type PodMetricsUsage struct {
	PodName string
	Memory  int64
	CPU     corev1.ResourceName
}
