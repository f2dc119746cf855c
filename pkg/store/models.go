// Package store implements the Progress Store (C2): Mongo-backed
// repositories for every persisted entity in §3, plus the indices and atomic
// update paths §4.2 requires. Plain struct tags carry each document's wire
// shape — bson tags instead of json/yaml ones, since this package is the
// first in this codebase to talk to Mongo directly
// (go.mongodb.org/mongo-driver, an indirect dependency promoted to
// direct use here).
package store

import "time"

// LogicalRef is a named pointer to a storage backend, resolved to a concrete
// bucket+prefix by the storage facet (§6). It never appears fully resolved in
// a persisted document.
type LogicalRef struct {
	Name string `bson:"name"`
}

// Quotas is the org-scoped quota document embedded in Organization, read by
// pkg/quota before every admission/mid-run check.
type Quotas struct {
	MaxConcurrentCrawls    int   `bson:"maxConcurrentCrawls"`
	MaxPagesPerCrawl       int   `bson:"maxPagesPerCrawl"`
	StorageQuota           int64 `bson:"storageQuota"`
	MaxExecMinutesPerMonth int64 `bson:"maxExecMinutesPerMonth"`
	ExtraExecMinutes       int64 `bson:"extraExecMinutes"`
	GiftedExecMinutes      int64 `bson:"giftedExecMinutes"`
}

// Organization is the §3 Organization document: quota configuration plus the
// accounting counters pkg/quota debits via atomic $inc updates.
type Organization struct {
	ID     string `bson:"_id"`
	Slug   string `bson:"slug"`
	Quotas Quotas `bson:"quotas"`

	BytesStored          int64 `bson:"bytesStored"`
	BytesStoredCrawls    int64 `bson:"bytesStoredCrawls"`
	BytesStoredUploads   int64 `bson:"bytesStoredUploads"`
	BytesStoredProfiles  int64 `bson:"bytesStoredProfiles"`
	BytesStoredSeedFiles int64 `bson:"bytesStoredSeedFiles"`
	BytesStoredThumbnails int64 `bson:"bytesStoredThumbnails"`

	MonthlyExecSeconds map[string]float64 `bson:"monthlyExecSeconds"`
	ExtraExecSeconds   map[string]float64 `bson:"extraExecSeconds"`
	GiftedExecSeconds  map[string]float64 `bson:"giftedExecSeconds"`

	ExtraExecSecondsAvailable  float64 `bson:"extraExecSecondsAvailable"`
	GiftedExecSecondsAvailable float64 `bson:"giftedExecSecondsAvailable"`

	ReadOnly         bool         `bson:"readOnly"`
	Subscription     *string      `bson:"subscription,omitempty"`
	StorageReplicas  []LogicalRef `bson:"storageReplicas"`
}

// BytesCounterField names the Organization field an object type's storage
// debit increments, alongside the aggregate bytesStored field.
type BytesCounterField string

const (
	BytesCounterCrawls     BytesCounterField = "bytesStoredCrawls"
	BytesCounterUploads    BytesCounterField = "bytesStoredUploads"
	BytesCounterProfiles   BytesCounterField = "bytesStoredProfiles"
	BytesCounterSeedFiles  BytesCounterField = "bytesStoredSeedFiles"
	BytesCounterThumbnails BytesCounterField = "bytesStoredThumbnails"
)

// CrawlType distinguishes the three kinds of Crawl documents §3 enumerates.
type CrawlType string

const (
	CrawlTypeCrawl  CrawlType = "crawl"
	CrawlTypeUpload CrawlType = "upload"
	CrawlTypeQA     CrawlType = "qa"
)

// CrawlFile is one finalized WACZ artifact, write-once except Replicas.
type CrawlFile struct {
	Filename string      `bson:"filename"`
	Hash     string      `bson:"hash"`
	Size     int64       `bson:"size"`
	Storage  LogicalRef  `bson:"storage"`
	Replicas []ReplicaRef `bson:"replicas"`
}

// ReplicaRef names one storage backend a CrawlFile has been successfully
// copied to, appended as create-replica jobs succeed (§4.5).
type ReplicaRef struct {
	Name string `bson:"name"`
	Path string `bson:"path"`
}

// CrawlStats mirrors the operator's rolled-up progress counters.
type CrawlStats struct {
	Found int   `bson:"found"`
	Done  int   `bson:"done"`
	Size  int64 `bson:"size"`
}

// Crawl is the §3 Crawl document, persisted by the operator at finalization
// and read by the scheduler for stats recalculation.
type Crawl struct {
	ID       string    `bson:"_id"`
	OrgID    string    `bson:"oid"`
	ConfigID string    `bson:"cid"`
	UserID   string    `bson:"userid"`
	Type     CrawlType `bson:"type"`

	Started  time.Time  `bson:"started"`
	Finished *time.Time `bson:"finished,omitempty"`
	State    string     `bson:"state"`
	Stopping bool       `bson:"stopping"`
	Paused   bool       `bson:"paused"`

	Files []CrawlFile `bson:"files"`
	Stats CrawlStats  `bson:"stats"`

	FilePageCount   int `bson:"filePageCount"`
	ErrorPageCount  int `bson:"errorPageCount"`
	PageCount       int `bson:"pageCount"`
	UniquePageCount int `bson:"uniquePageCount"`
}

// CrawlConfig is the §3 CrawlConfig (workflow) document. Aggregate fields are
// derived state, updated by CrawlConfigRepo.RecordCrawlStart and
// RecordCrawlFinish as crawls of the workflow start and finish.
type CrawlConfig struct {
	ID       string `bson:"_id"`
	OrgID    string `bson:"oid"`
	ScopeType string `bson:"scopeType"`

	Seeds      []string `bson:"seeds,omitempty"`
	SeedFileID string   `bson:"seedFileId,omitempty"`

	JobType        string  `bson:"jobType"`
	Schedule       string  `bson:"schedule,omitempty"`
	CrawlTimeout   int64   `bson:"crawlTimeout"`
	MaxCrawlSize   int64   `bson:"maxCrawlSize"`
	BrowserWindows int     `bson:"browserWindows"`
	ProfileID      *string `bson:"profileid,omitempty"`

	AutoAddCollections []string `bson:"autoAddCollections,omitempty"`

	LastCrawlID    *string `bson:"lastCrawlId,omitempty"`
	LastCrawlState *string `bson:"lastCrawlState,omitempty"`

	CrawlCount           int   `bson:"crawlCount"`
	CrawlSuccessfulCount int   `bson:"crawlSuccessfulCount"`
	TotalSize            int64 `bson:"totalSize"`

	Inactive bool `bson:"inactive"`
}

// PageQAResult is one QA run's comparison record for a Page, keyed by
// QA run id in Page.QA.
type PageQAResult struct {
	TextMatch       float64 `bson:"textMatch"`
	ScreenshotMatch float64 `bson:"screenshotMatch"`
	ResourceCounts  map[string]int `bson:"resourceCounts,omitempty"`
}

// Page is the §3 Page document, one per crawled URL.
type Page struct {
	ID      string `bson:"_id"`
	CrawlID string `bson:"crawlId"`
	OrgID   string `bson:"oid"`

	URL       string `bson:"url"`
	TS        time.Time `bson:"ts"`
	Title     string `bson:"title,omitempty"`
	LoadState int    `bson:"loadState"`
	Status    int    `bson:"status"`
	MIME      string `bson:"mime,omitempty"`
	Depth     int    `bson:"depth"`

	IsSeed  bool `bson:"isSeed"`
	IsError bool `bson:"isError"`
	IsFile  bool `bson:"isFile"`

	QA map[string]PageQAResult `bson:"qa,omitempty"`
}

// BackgroundJobType is the closed set of job kinds the scheduler dispatches.
type BackgroundJobType string

const (
	JobCreateReplica        BackgroundJobType = "create-replica"
	JobDeleteReplica        BackgroundJobType = "delete-replica"
	JobDeleteOrg            BackgroundJobType = "delete-org"
	JobRecalculateOrgStats  BackgroundJobType = "recalculate-org-stats"
	JobReAddOrgPages        BackgroundJobType = "re-add-org-pages"
	JobCleanupSeedFiles     BackgroundJobType = "cleanup-seed-files"
	JobOptimizePages        BackgroundJobType = "optimize-pages"
	JobMigration            BackgroundJobType = "migration-job"
)

// BackgroundJob is the §3 BackgroundJob sum type. Once Finished is set,
// Success is final.
type BackgroundJob struct {
	ID      string            `bson:"_id"`
	Type    BackgroundJobType `bson:"type"`
	Started time.Time         `bson:"started"`
	Finished *time.Time       `bson:"finished,omitempty"`
	Success  *bool            `bson:"success,omitempty"`

	OrgID          string  `bson:"oid,omitempty"`
	FilePath       string  `bson:"file_path,omitempty"`
	ObjectType     string  `bson:"object_type,omitempty"`
	ObjectID       string  `bson:"object_id,omitempty"`
	ReplicaStorage string  `bson:"replica_storage,omitempty"`
	ErrorDetail    string  `bson:"errorDetail,omitempty"`
}

// QARun is the §3(added) QARun document.
type QARun struct {
	ID               string     `bson:"_id"`
	CrawlID          string     `bson:"crawlId"`
	Started          time.Time  `bson:"started"`
	Finished         *time.Time `bson:"finished,omitempty"`
	State            string     `bson:"state"`
	Stats            CrawlStats `bson:"stats"`
	CrawlExecSeconds float64    `bson:"crawlExecSeconds"`
}

// CollectionAccess is Collection's closed visibility enum.
type CollectionAccess string

const (
	CollectionPrivate  CollectionAccess = "private"
	CollectionUnlisted CollectionAccess = "unlisted"
	CollectionPublic   CollectionAccess = "public"
)

// Collection is the §3(added) Collection document.
type Collection struct {
	ID          string           `bson:"_id"`
	OrgID       string           `bson:"oid"`
	Name        string           `bson:"name"`
	Slug        string           `bson:"slug"`
	Description string           `bson:"description,omitempty"`
	CrawlIDs    []string         `bson:"crawlIds"`
	Access      CollectionAccess `bson:"access"`
}

// SeedFile is the §3(added) SeedFile document: an uploaded seed-URL list a
// CrawlConfig references by id instead of inlining its URLs, required by
// the cleanup-seed-files background job.
type SeedFile struct {
	ID       string `bson:"_id"`
	OrgID    string `bson:"oid"`
	Filename string `bson:"filename"`
	Size     int64  `bson:"size"`
}

// Invite is the §3(added) Invite document, TTL-indexed on Created.
type Invite struct {
	ID      string    `bson:"_id"`
	OrgID   string    `bson:"oid"`
	Email   string    `bson:"email"`
	Created time.Time `bson:"created"`
}
