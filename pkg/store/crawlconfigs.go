package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CrawlConfigRepo is the §4.2 repository for CrawlConfig (workflow)
// documents.
type CrawlConfigRepo struct {
	coll *mongo.Collection
}

// Get fetches one workflow by id.
func (r *CrawlConfigRepo) Get(ctx context.Context, id string) (*CrawlConfig, error) {
	var cfg CrawlConfig
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "get crawl config %s", id)
	}
	return &cfg, nil
}

// ListScheduled returns every active workflow with a non-empty schedule, the
// set the scheduler's cron materializer (§4.5) evaluates each tick.
func (r *CrawlConfigRepo) ListScheduled(ctx context.Context) ([]CrawlConfig, error) {
	filter := bson.D{
		{Key: "inactive", Value: false},
		{Key: "schedule", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}}},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list scheduled crawl configs")
	}
	defer cur.Close(ctx)

	var configs []CrawlConfig
	if err := cur.All(ctx, &configs); err != nil {
		return nil, errors.Wrap(err, "decode crawl config list")
	}
	return configs, nil
}

// RecordCrawlStart bumps crawlCount and stamps the last-crawl pointer fields
// when a new crawl is admitted against this workflow.
func (r *CrawlConfigRepo) RecordCrawlStart(ctx context.Context, id, crawlID string) error {
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "crawlCount", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "lastCrawlId", Value: crawlID}}},
	}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "record crawl start on config %s", id)
}

// RecordCrawlFinish updates the derived aggregate fields §3 marks as
// "recomputed on any terminal transition of a crawl that references this
// config": lastCrawlState always, crawlSuccessfulCount and totalSize only
// when the crawl succeeded.
func (r *CrawlConfigRepo) RecordCrawlFinish(ctx context.Context, id, state string, successful bool, addedSize int64) error {
	set := bson.D{{Key: "lastCrawlState", Value: state}}
	update := bson.D{{Key: "$set", Value: set}}
	if successful {
		update = append(update, bson.E{Key: "$inc", Value: bson.D{
			{Key: "crawlSuccessfulCount", Value: 1},
			{Key: "totalSize", Value: addedSize},
		}})
	}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "record crawl finish on config %s", id)
}

// SetInactive marks a workflow inactive, e.g. after its seeds are garbage
// collected.
func (r *CrawlConfigRepo) SetInactive(ctx context.Context, id string, inactive bool) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "inactive", Value: inactive}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "set inactive on config %s", id)
}

// ListSeedFileIDs returns the distinct, non-empty seedFileId values referenced
// by any workflow in any org, the "referenced by a workflow" half of the
// cleanup-seed-files job's (§4.5 added) orphan check.
func (r *CrawlConfigRepo) ListSeedFileIDs(ctx context.Context) ([]string, error) {
	vals, err := r.coll.Distinct(ctx, "seedFileId", bson.D{{Key: "seedFileId", Value: bson.D{{Key: "$ne", Value: ""}}}})
	if err != nil {
		return nil, errors.Wrap(err, "list referenced seed file ids")
	}
	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// DeleteByOrg removes every workflow document belonging to an org, part of
// the delete-org cascade (§4.5).
func (r *CrawlConfigRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "oid", Value: orgID}})
	return errors.Wrapf(err, "delete crawl configs for org %s", orgID)
}
