package render

// Label keys applied to every object the renderer produces. They are the
// sole supported selector for operator-side list/watch calls (§4.1).
const (
	LabelCrawl    = "btrix.crawl"
	LabelOrg      = "btrix.org"
	LabelConfigID = "btrix.configid"
	LabelType     = "btrix.type"
	LabelProfile  = "btrix.profile"
)

// ObjectType distinguishes the worker kind a set of rendered objects serves.
type ObjectType string

const (
	TypeCrawl   ObjectType = "crawl"
	TypeProfile ObjectType = "profile"
	TypeQA      ObjectType = "qa"
)

// CommonLabels returns the label set every object owned by a crawl carries.
func CommonLabels(crawlID, orgID, configID string, typ ObjectType) map[string]string {
	return map[string]string{
		LabelCrawl:    crawlID,
		LabelOrg:      orgID,
		LabelConfigID: configID,
		LabelType:     string(typ),
	}
}
