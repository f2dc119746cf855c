package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitExecSecondsMonthlyOnly(t *testing.T) {
	pools := &Pools{}
	quotas := Quotas{MaxExecSecondsPerMonth: 3600}

	result := DebitExecSeconds(pools, quotas, "2026-07", 600)

	assert.Equal(t, 600.0, result.Monthly)
	assert.Zero(t, result.Extra)
	assert.Zero(t, result.Gifted)
	assert.False(t, result.Exhausted)
	assert.Equal(t, 600.0, pools.MonthlyExecSeconds["2026-07"])
}

func TestDebitExecSecondsSplitsAcrossPools(t *testing.T) {
	pools := &Pools{
		MonthlyExecSeconds:         map[string]float64{"2026-07": 3500},
		ExtraExecSecondsAvailable:  50,
		GiftedExecSecondsAvailable: 200,
	}
	quotas := Quotas{MaxExecSecondsPerMonth: 3600}

	// Monthly has 100s of room left; requesting 400s forces a three-way
	// split.
	result := DebitExecSeconds(pools, quotas, "2026-07", 400)

	require.Equal(t, 100.0, result.Monthly) // only 100s of room remained
	require.Equal(t, 50.0, result.Extra)    // extra pool fully drained
	require.Equal(t, 200.0, result.Gifted)  // gifted pool fully drained
	assert.True(t, result.Exhausted)        // 100+50+200 = 350, still short of 400

	// A full monthly pool with no extra or gifted seconds is exhausted too.
	assert.True(t, DebitExecSeconds(&Pools{MonthlyExecSeconds: map[string]float64{"2026-07": 3600}}, quotas, "2026-07", 1).Exhausted)
}

func TestDebitExecSecondsFullyExhausted(t *testing.T) {
	pools := &Pools{MonthlyExecSeconds: map[string]float64{"2026-07": 3600}}
	quotas := Quotas{MaxExecSecondsPerMonth: 3600}

	result := DebitExecSeconds(pools, quotas, "2026-07", 30)
	assert.True(t, result.Exhausted)
	assert.Zero(t, result.Monthly)
}

func TestDebitExecSecondsConservesTotal(t *testing.T) {
	pools := &Pools{
		MonthlyExecSeconds:         map[string]float64{"2026-07": 100},
		ExtraExecSecondsAvailable:  50,
		GiftedExecSecondsAvailable: 50,
	}
	quotas := Quotas{MaxExecSecondsPerMonth: 200}

	result := DebitExecSeconds(pools, quotas, "2026-07", 120)
	total := result.Monthly + result.Extra + result.Gifted
	assert.InDelta(t, 120.0, total, epsilon)
	assert.False(t, result.Exhausted)
}

func TestExecSecondsExhausted(t *testing.T) {
	quotas := Quotas{MaxExecSecondsPerMonth: 3600}

	full := Pools{MonthlyExecSeconds: map[string]float64{"2026-07": 3600}}
	assert.True(t, ExecSecondsExhausted(full, quotas, "2026-07"))

	withExtra := Pools{
		MonthlyExecSeconds:        map[string]float64{"2026-07": 3600},
		ExtraExecSecondsAvailable: 1,
	}
	assert.False(t, ExecSecondsExhausted(withExtra, quotas, "2026-07"))
}

func TestExecSecondsDeltaClampsToCap(t *testing.T) {
	start := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	now := start.Add(10 * time.Minute)

	delta := ExecSecondsDelta(start, now, 2*time.Minute, 3)
	assert.Equal(t, (2*time.Minute).Seconds()*3, delta)
}

func TestExecSecondsDeltaNeverNegative(t *testing.T) {
	start := time.Date(2026, 7, 31, 1, 0, 0, 0, time.UTC)
	now := start.Add(-time.Minute)

	assert.Zero(t, ExecSecondsDelta(start, now, time.Hour, 2))
}

func TestStorageExceeded(t *testing.T) {
	quotas := Quotas{StorageQuota: 1000}
	assert.False(t, StorageExceeded(quotas, 500, 400))
	assert.True(t, StorageExceeded(quotas, 500, 600))
	assert.False(t, StorageExceeded(Quotas{}, 1<<40, 1<<40)) // zero quota = unlimited
}

func TestConcurrentCrawlsAtCap(t *testing.T) {
	quotas := Quotas{MaxConcurrentCrawls: 3}
	assert.False(t, ConcurrentCrawlsAtCap(quotas, 2))
	assert.True(t, ConcurrentCrawlsAtCap(quotas, 3))
	assert.False(t, ConcurrentCrawlsAtCap(Quotas{}, 999))
}

func TestSizeAndTimeLimits(t *testing.T) {
	assert.True(t, SizeLimitReached(100, 100))
	assert.False(t, SizeLimitReached(99, 100))
	assert.False(t, SizeLimitReached(1<<40, 0)) // zero = unbounded

	assert.True(t, TimeLimitReached(time.Hour, 3600))
	assert.False(t, TimeLimitReached(59*time.Minute, 3600))
	assert.False(t, TimeLimitReached(365*24*time.Hour, 0))
}

func TestMonthKeyFormat(t *testing.T) {
	assert.Equal(t, "2026-07", MonthKey(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))
}
