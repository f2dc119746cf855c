package render

// CrawlSpec is the input to Render: everything the renderer needs to know to
// build a crawl's children, with no further lookups. The operator is
// responsible for assembling it from the CrawlJob CR plus the CrawlConfig and
// Organization documents before calling Render (§4.1).
type CrawlSpec struct {
	ID       string
	OrgID    string
	ConfigID string

	// Exactly one of Seeds or SeedFileID is set, per the CrawlConfig invariant.
	Seeds      []string
	SeedFileID string

	ScopeType      string
	Timeout        int64
	MaxCrawlSize   int64
	MaxPagesPerCrawl int

	BrowserWindows int

	LinkSelectors   []string
	Exclusions      []string
	ProxyID         string
	Language        string
	CustomBehaviors []string

	ProfileFilename string

	StorageName string
	RedisURL    string
	StoreURL    string
}

// ProfileSpec is the input to RenderProfile.
type ProfileSpec struct {
	ID                  string
	OrgID               string
	UserID              string
	StartURL            string
	ProfileFilename     string
	BaseProfileFilename string
	StorageName         string
}

// Environment carries the operator-wide configuration that is orthogonal to
// any one crawl: images, pull policy, resource templates, and the per-pod
// browser count. It is populated once from the enumerated environment
// configuration in §6 and threaded through as a plain value, never a global.
type Environment struct {
	CrawlerNamespace  string
	CrawlerImage      string
	PullPolicy        string
	BrowsersPerPod    int
	MaxCrawlScale     int
	CrawlerLogLevel   string
	StorageSecretName string

	CrawlerRequestsMemory int64
	CrawlerRequestsCPU    int64 // millicores
	LimitsMultiplierPct   int64 // e.g. 120 for 1.2x

	CrawlerStoragePerPod int64 // PVC size per pod, bytes

	RedisImage          string
	RedisRequestsMemory int64
	RedisStorage        int64
}

// PodsForWindows returns ceil(browserWindows / browsersPerPod), clamped to at
// least 1, per §4.1's N computation.
func PodsForWindows(browserWindows, browsersPerPod int) int {
	if browsersPerPod < 1 {
		browsersPerPod = 1
	}
	if browserWindows < 1 {
		browserWindows = 1
	}
	n := browserWindows / browsersPerPod
	if browserWindows%browsersPerPod != 0 {
		n++
	}
	return n
}
