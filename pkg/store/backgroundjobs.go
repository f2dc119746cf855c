package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BackgroundJobRepo is the §4.2 repository for the BackgroundJob sum type
// dispatched by the scheduler (§4.5).
type BackgroundJobRepo struct {
	coll *mongo.Collection
}

// Create inserts a new, unfinished job.
func (r *BackgroundJobRepo) Create(ctx context.Context, job *BackgroundJob) error {
	_, err := r.coll.InsertOne(ctx, job)
	return errors.Wrapf(err, "create background job %s", job.ID)
}

// Finish marks a job's terminal outcome. Once finished is set, success is
// final per §3's BackgroundJob invariant — callers must not call Finish
// twice for the same job.
func (r *BackgroundJobRepo) Finish(ctx context.Context, id string, success bool, errorDetail string) error {
	now := time.Now()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "finished", Value: now},
		{Key: "success", Value: success},
		{Key: "errorDetail", Value: errorDetail},
	}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "finish background job %s", id)
}

// ListPending returns unfinished jobs of the given type, the work queue the
// bounded worker pool in §5 pulls from.
func (r *BackgroundJobRepo) ListPending(ctx context.Context, typ BackgroundJobType) ([]BackgroundJob, error) {
	filter := bson.D{{Key: "type", Value: typ}, {Key: "finished", Value: nil}}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "list pending %s jobs", typ)
	}
	defer cur.Close(ctx)

	var jobs []BackgroundJob
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, errors.Wrap(err, "decode background job list")
	}
	return jobs, nil
}

// ListStuck returns jobs started more than olderThan ago that never
// finished — candidates for the scheduler's stuck-job recovery sweep.
func (r *BackgroundJobRepo) ListStuck(ctx context.Context, olderThan time.Duration) ([]BackgroundJob, error) {
	cutoff := time.Now().Add(-olderThan)
	filter := bson.D{
		{Key: "finished", Value: nil},
		{Key: "started", Value: bson.D{{Key: "$lt", Value: cutoff}}},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list stuck background jobs")
	}
	defer cur.Close(ctx)

	var jobs []BackgroundJob
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, errors.Wrap(err, "decode stuck job list")
	}
	return jobs, nil
}

// CountByOutcome supports the §4.2 `(type, success, finished)` index — used
// for reporting, e.g. replica job failure rates per type.
func (r *BackgroundJobRepo) CountByOutcome(ctx context.Context, typ BackgroundJobType, success bool) (int, error) {
	filter := bson.D{
		{Key: "type", Value: typ},
		{Key: "success", Value: success},
		{Key: "finished", Value: bson.D{{Key: "$ne", Value: nil}}},
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s jobs by outcome", typ)
	}
	return int(n), nil
}
