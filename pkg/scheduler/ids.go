package scheduler

import "github.com/google/uuid"

// newCrawlJobID mints the id a materialized CrawlJob CR is created under,
// the same random-id scheme the orchestration API uses for manually
// triggered crawls.
func newCrawlJobID() string {
	return uuid.NewString()
}

// newBackgroundJobID mints a BackgroundJob document id.
func newBackgroundJobID() string {
	return uuid.NewString()
}
