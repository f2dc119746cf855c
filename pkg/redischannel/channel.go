package redischannel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Heartbeat is the JSON document a worker publishes to status:<id>:<podIndex>
// every interval. The operator reconciler sums PagesDone across pods and uses
// State to detect quiescence.
type Heartbeat struct {
	PagesDone    int       `json:"pagesDone"`
	Size         int64     `json:"size"`
	LastPageTime time.Time `json:"lastPageTime"`
	State        string    `json:"state"`
}

// PageRecord is one completed-page entry drained from a crawl's pages:<id>
// stream into the document store (§4.2 Pages collection). A QA run's worker
// (type=qa) publishes the same shape with the QA fields populated, comparing
// its replay against the original crawl's Page record for the same URL
// (§4.4).
type PageRecord struct {
	URL      string `json:"url"`
	IsSeed   bool   `json:"isSeed"`
	Status   int    `json:"status"`
	Title    string `json:"title,omitempty"`
	TS       string `json:"ts"`

	TextMatch       *float64       `json:"textMatch,omitempty"`
	ScreenshotMatch *float64       `json:"screenshotMatch,omitempty"`
	ResourceCounts  map[string]int `json:"resourceCounts,omitempty"`
}

// Channel is the operator's view of one crawl's Redis control channel. It
// never writes to q:<id> or seen:<id> — those are worker-owned — and every
// method except Cleanup issues a single Redis command, matching the "atomic
// single-key operations" contract in §4.3. Cleanup lists the channel's
// status keys first and then deletes everything with one DEL.
type Channel struct {
	rdb *redis.Client
}

// New wraps an existing go-redis client. The caller owns the client's
// lifecycle (created once per operator process from REDIS_URL).
func New(rdb *redis.Client) *Channel {
	return &Channel{rdb: rdb}
}

// WriteExclusions replaces excl:<id> with the current exclusion regex list so
// a running worker picks up config changes on its next poll.
func (c *Channel) WriteExclusions(ctx context.Context, id string, patterns []string) error {
	data, err := json.Marshal(patterns)
	if err != nil {
		return errors.Wrap(err, "marshal exclusions")
	}
	return c.rdb.Set(ctx, exclKey(id), data, 0).Err()
}

// ReadStatus returns the last heartbeat a pod published, or nil if it has
// never reported in (not yet started, or its key expired).
func (c *Channel) ReadStatus(ctx context.Context, id string, podIndex int) (*Heartbeat, error) {
	return c.readHeartbeat(ctx, statusKey(id, podIndex))
}

// ReadProfileStatus is the ProfileJob equivalent of ReadStatus, reading the
// fixed profile:<id> heartbeat key instead of a pod-indexed one.
func (c *Channel) ReadProfileStatus(ctx context.Context, profileID string) (*Heartbeat, error) {
	return c.readHeartbeat(ctx, ProfileStatusKey(profileID))
}

func (c *Channel) readHeartbeat(ctx context.Context, key string) (*Heartbeat, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", key)
	}
	var hb Heartbeat
	if err := json.Unmarshal(raw, &hb); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", key)
	}
	return &hb, nil
}

// SetStop writes the stop flag a worker polls to begin a graceful shutdown
// (user stop, size limit or time limit).
func (c *Channel) SetStop(ctx context.Context, id string) error {
	return c.rdb.Set(ctx, stopKey(id), "1", 0).Err()
}

// SetPause writes the pause flag for a quota-paused crawl.
func (c *Channel) SetPause(ctx context.Context, id string) error {
	return c.rdb.Set(ctx, pauseKey(id), "1", 0).Err()
}

// ClearPause removes the pause flag, resuming a worker on its next poll.
func (c *Channel) ClearPause(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, pauseKey(id)).Err()
}

// IsPaused reports whether pause:<id> is currently set.
func (c *Channel) IsPaused(ctx context.Context, id string) (bool, error) {
	n, err := c.rdb.Exists(ctx, pauseKey(id)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "check pause flag for %s", id)
	}
	return n > 0, nil
}

// Size returns the running total bytes a crawl has written so far, per
// size:<id>. Zero is returned (with no error) if the key has never been set.
func (c *Channel) Size(ctx context.Context, id string) (int64, error) {
	n, err := c.rdb.Get(ctx, sizeKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read size for %s", id)
	}
	return n, nil
}

// DrainPages pops up to max entries from pages:<id> and returns them parsed,
// for the operator's periodic drain into the document store (§4.2 Pages).
// Entries are removed from the stream as they are returned: a crashed drain
// can lose at most one batch, which the operator treats as acceptable per the
// "progress-store unavailable" failure semantics in §4.4.
func (c *Channel) DrainPages(ctx context.Context, id string, max int64) ([]PageRecord, error) {
	key := pagesKey(id)
	raws, err := c.rdb.LPopCount(ctx, key, int(max)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "drain pages for %s", id)
	}
	records := make([]PageRecord, 0, len(raws))
	for _, raw := range raws {
		var rec PageRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return records, errors.Wrapf(err, "unmarshal page record for %s", id)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Cleanup removes every key belonging to id's channel, called once a crawl
// reaches teardown (§4.4 transition 11).
func (c *Channel) Cleanup(ctx context.Context, id string) error {
	statusKeys, err := c.rdb.Keys(ctx, "status:"+id+":*").Result()
	if err != nil {
		return errors.Wrapf(err, "list status keys for %s", id)
	}
	keys := []string{
		queueKey(id), seenKey(id), exclKey(id), pagesKey(id),
		stopKey(id), pauseKey(id), sizeKey(id),
	}
	keys = append(keys, statusKeys...)
	return c.rdb.Del(ctx, keys...).Err()
}
