// Package cronexpr parses CrawlConfig.Schedule strings and decides whether
// a schedule has fired since it was last observed. It is a small leaf
// package with no knowledge of CrawlJobs or stores, shared by both the
// ticking background materializer (pkg/scheduler) and the webhook-driven
// CronJob sync reconciler (pkg/operator), so "due since" means exactly the
// same thing to whichever process is asking it.
package cronexpr

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Parser parses the standard 5-field schedule strings (minute hour dom
// month dow) CrawlConfig.Schedule stores.
type Parser struct {
	p cron.Parser
}

// NewParser builds a Parser for 5-field schedule expressions.
func NewParser() Parser {
	return Parser{p: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)}
}

// DueSince reports whether expr has a firing instant in (last, now]. A
// schedule observed for the first time (last is the zero Time) is never
// due — callers only act on firings they have actually been watching for,
// never on a schedule's history from before they started watching it.
func (p Parser) DueSince(expr string, last, now time.Time) (bool, error) {
	schedule, err := p.p.Parse(expr)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return false, nil
	}
	return !schedule.Next(last).After(now), nil
}
