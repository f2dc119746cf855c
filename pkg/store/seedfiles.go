package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedFileRepo is the §3(added) repository for SeedFile documents.
type SeedFileRepo struct {
	coll    *mongo.Collection
	configs *CrawlConfigRepo
}

// Create inserts a new seed file record at upload time.
func (r *SeedFileRepo) Create(ctx context.Context, sf *SeedFile) error {
	_, err := r.coll.InsertOne(ctx, sf)
	return errors.Wrapf(err, "create seed file %s", sf.ID)
}

// ListOrphaned returns every seed file no CrawlConfig currently references,
// the candidate set the cleanup-seed-files background job (§4.5) deletes.
func (r *SeedFileRepo) ListOrphaned(ctx context.Context) ([]SeedFile, error) {
	referenced, err := r.configs.ListSeedFileIDs(ctx)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: referenced}}}}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list orphaned seed files")
	}
	defer cur.Close(ctx)

	var files []SeedFile
	if err := cur.All(ctx, &files); err != nil {
		return nil, errors.Wrap(err, "decode seed file list")
	}
	return files, nil
}

// Delete removes one seed file document by id.
func (r *SeedFileRepo) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return errors.Wrapf(err, "delete seed file %s", id)
}
