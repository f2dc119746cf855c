// Package quota implements the pure accounting algorithm the CrawlJob
// operator (C4) uses for admission checks and per-reconcile debits; the
// scheduler does not use it. It covers §4.4 "Quota accounting algorithm" and the Organization quota invariant in §3. It holds no state of
// its own — callers load an Organization's quota document, pass it through
// these functions, and persist the (possibly mutated) pools back.
//
// Follows a ratio-threshold style (pure functions over plain structs, no
// hidden globals) generalized to a three-tier pool debit.
package quota

import (
	"math"
	"time"
)

// Quotas is the subset of an Organization's quota document this package
// needs. MaxExecSecondsPerMonth is maxExecMinutesPerMonth*60 pre-converted by
// the caller so this package only ever deals in seconds.
type Quotas struct {
	MaxConcurrentCrawls    int
	MaxPagesPerCrawl       int
	StorageQuota           int64
	MaxExecSecondsPerMonth int64
}

// Pools is the mutable accounting state debited by DebitExecSeconds, keyed by
// month ("YYYY-MM") for the three ledgers the invariant in §3 checks against.
type Pools struct {
	MonthlyExecSeconds map[string]float64
	ExtraExecSeconds   map[string]float64
	GiftedExecSeconds  map[string]float64

	ExtraExecSecondsAvailable  float64
	GiftedExecSecondsAvailable float64
}

// MonthKey returns the "YYYY-MM" key the pool maps are keyed by.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DebitResult reports how an exec-seconds delta was split across pools.
type DebitResult struct {
	Monthly   float64
	Extra     float64
	Gifted    float64
	Exhausted bool // true when the delta could not be fully absorbed
}

const epsilon = 1e-9

// DebitExecSeconds debits delta seconds from pools in strict priority order —
// monthly, then extra, then gifted — splitting the delta across pools when one
// empties mid-debit, per §4.4 step 5. It mutates pools in place and never
// debits more than a pool has room for.
func DebitExecSeconds(pools *Pools, quotas Quotas, yymm string, delta float64) DebitResult {
	if pools.MonthlyExecSeconds == nil {
		pools.MonthlyExecSeconds = map[string]float64{}
	}
	if pools.ExtraExecSeconds == nil {
		pools.ExtraExecSeconds = map[string]float64{}
	}
	if pools.GiftedExecSeconds == nil {
		pools.GiftedExecSeconds = map[string]float64{}
	}

	remaining := delta
	var result DebitResult

	monthlyRoom := float64(quotas.MaxExecSecondsPerMonth) - pools.MonthlyExecSeconds[yymm]
	if monthlyRoom > epsilon && remaining > 0 {
		take := math.Min(monthlyRoom, remaining)
		pools.MonthlyExecSeconds[yymm] += take
		result.Monthly = take
		remaining -= take
	}

	if remaining > epsilon && pools.ExtraExecSecondsAvailable > epsilon {
		take := math.Min(pools.ExtraExecSecondsAvailable, remaining)
		pools.ExtraExecSecondsAvailable -= take
		pools.ExtraExecSeconds[yymm] += take
		result.Extra = take
		remaining -= take
	}

	if remaining > epsilon && pools.GiftedExecSecondsAvailable > epsilon {
		take := math.Min(pools.GiftedExecSecondsAvailable, remaining)
		pools.GiftedExecSecondsAvailable -= take
		pools.GiftedExecSeconds[yymm] += take
		result.Gifted = take
		remaining -= take
	}

	result.Exhausted = remaining > epsilon
	return result
}

// ExecSecondsDelta computes δ for one reconcile: the elapsed time since
// lastUpdated, clamped to [0, cap], times the number of pods alive across
// that window, per §4.4's "Δ ... multiply by the number of active browsers".
func ExecSecondsDelta(lastUpdated, now time.Time, cap time.Duration, alivePods int) float64 {
	delta := now.Sub(lastUpdated)
	if delta < 0 {
		delta = 0
	}
	if delta > cap {
		delta = cap
	}
	if alivePods < 0 {
		alivePods = 0
	}
	return delta.Seconds() * float64(alivePods)
}

// ExecSecondsExhausted reports whether an org has no remaining capacity in
// any of the three pools for the given month — the admission check of
// transition 1. Mid-run, transition 5 uses DebitResult.Exhausted instead.
func ExecSecondsExhausted(pools Pools, quotas Quotas, yymm string) bool {
	monthlyRoom := float64(quotas.MaxExecSecondsPerMonth) - pools.MonthlyExecSeconds[yymm]
	return monthlyRoom <= epsilon && pools.ExtraExecSecondsAvailable <= epsilon && pools.GiftedExecSecondsAvailable <= epsilon
}

// StorageExceeded reports whether bytesStored (plus any pending, not-yet-
// committed size such as a crawl's live size:<id> counter) would exceed the
// org's storage quota. A zero quota means unlimited.
func StorageExceeded(quotas Quotas, bytesStored, pending int64) bool {
	if quotas.StorageQuota <= 0 {
		return false
	}
	return bytesStored+pending > quotas.StorageQuota
}

// ConcurrentCrawlsAtCap reports whether an org is already running its
// configured maximum number of concurrent crawls. A zero max means unlimited.
func ConcurrentCrawlsAtCap(quotas Quotas, running int) bool {
	if quotas.MaxConcurrentCrawls <= 0 {
		return false
	}
	return running >= quotas.MaxConcurrentCrawls
}

// SizeLimitReached reports whether a crawl has reached its configured
// maxCrawlSize. A zero limit means unbounded (§4.4 transition 7).
func SizeLimitReached(currentSize, maxCrawlSize int64) bool {
	return maxCrawlSize > 0 && currentSize >= maxCrawlSize
}

// TimeLimitReached reports whether a crawl's wall-clock age has reached its
// configured timeout. A zero timeout means unbounded.
func TimeLimitReached(age time.Duration, timeoutSeconds int64) bool {
	return timeoutSeconds > 0 && age >= time.Duration(timeoutSeconds)*time.Second
}
