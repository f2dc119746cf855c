package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// QARunRepo is the §3(added) repository for QARun documents.
type QARunRepo struct {
	coll *mongo.Collection
}

// Create inserts a new QA run record when a QA reconcile is admitted
// (§4.4(added) QA reconcile).
func (r *QARunRepo) Create(ctx context.Context, run *QARun) error {
	_, err := r.coll.InsertOne(ctx, run)
	return errors.Wrapf(err, "create qa run %s", run.ID)
}

// Get fetches one QA run by id.
func (r *QARunRepo) Get(ctx context.Context, id string) (*QARun, error) {
	var run QARun
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&run); err != nil {
		return nil, errors.Wrapf(err, "get qa run %s", id)
	}
	return &run, nil
}

// ListByCrawl returns every QA run executed against a given source crawl.
func (r *QARunRepo) ListByCrawl(ctx context.Context, crawlID string) ([]QARun, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "crawlId", Value: crawlID}})
	if err != nil {
		return nil, errors.Wrapf(err, "list qa runs for crawl %s", crawlID)
	}
	defer cur.Close(ctx)

	var runs []QARun
	if err := cur.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(err, "decode qa run list")
	}
	return runs, nil
}

// Finish marks a QA run finished with its final stats, mirroring the
// Crawl.Finalize pattern.
func (r *QARunRepo) Finish(ctx context.Context, id, state string, finished time.Time, stats CrawlStats) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: state},
		{Key: "finished", Value: finished},
		{Key: "stats", Value: stats},
	}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "finish qa run %s", id)
}
