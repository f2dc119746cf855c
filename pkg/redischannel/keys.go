// Package redischannel wraps the per-crawl Redis control channel (C3): the
// worker↔operator contract described in §4.3. The operator only ever issues
// single-key reads and writes against this channel — no multi-key
// transactions are required, following a small, composable client-wrapper
// style.
package redischannel

import "fmt"

func queueKey(id string) string     { return fmt.Sprintf("q:%s", id) }
func seenKey(id string) string      { return fmt.Sprintf("seen:%s", id) }
func exclKey(id string) string      { return fmt.Sprintf("excl:%s", id) }
func pagesKey(id string) string     { return fmt.Sprintf("pages:%s", id) }
func statusKey(id string, podIndex int) string {
	return fmt.Sprintf("status:%s:%d", id, podIndex)
}
func stopKey(id string) string  { return fmt.Sprintf("stop:%s", id) }
func pauseKey(id string) string { return fmt.Sprintf("pause:%s", id) }
func sizeKey(id string) string  { return fmt.Sprintf("size:%s", id) }

// QAScopeID builds the composite id a QA run's channel keys are addressed
// under: "qa:<crawlID>:<qaRunID>" substituted wherever a plain crawl id would
// otherwise appear, per QA namespacing addendum to §4.3.
func QAScopeID(crawlID, qaRunID string) string {
	return fmt.Sprintf("qa:%s:%s", crawlID, qaRunID)
}

// ProfileStatusKey is the fixed heartbeat key a ProfileJob's single browser
// pod publishes to, reusing the status:<id>:0 shape under a distinct literal
// prefix since a profile has no pod index to vary.
func ProfileStatusKey(profileID string) string {
	return fmt.Sprintf("profile:%s", profileID)
}
