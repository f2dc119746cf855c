package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionRepo is the §3(added) repository for Collection documents,
// enforcing the two case-insensitive uniqueness indices §4.2 requires.
type CollectionRepo struct {
	coll *mongo.Collection
}

// Create inserts a new collection; a duplicate (oid,name) or (oid,slug) is
// rejected by the unique index rather than checked here.
func (r *CollectionRepo) Create(ctx context.Context, col *Collection) error {
	_, err := r.coll.InsertOne(ctx, col)
	return errors.Wrapf(err, "create collection %s", col.ID)
}

// GetBySlug looks up a collection within an org by its unique, case-
// insensitive slug.
func (r *CollectionRepo) GetBySlug(ctx context.Context, orgID, slug string) (*Collection, error) {
	var col Collection
	filter := bson.D{{Key: "oid", Value: orgID}, {Key: "slug", Value: slug}}
	opts := options.FindOne().SetCollation(caseInsensitive)
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&col); err != nil {
		return nil, errors.Wrapf(err, "get collection %s/%s", orgID, slug)
	}
	return &col, nil
}

// AddCrawl appends a crawl id to a collection's membership, used when a
// finalized crawl's CrawlConfig.autoAddCollections names it. $addToSet keeps
// the operation idempotent across retried reconciles.
func (r *CollectionRepo) AddCrawl(ctx context.Context, id, crawlID string) error {
	update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: "crawlIds", Value: crawlID}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "add crawl %s to collection %s", crawlID, id)
}

// SetCrawlIDs overwrites a collection's full membership list, used by the
// CollIndex reconcile's recomputation path (§6 closed OperatorTarget
// variant).
func (r *CollectionRepo) SetCrawlIDs(ctx context.Context, id string, crawlIDs []string) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "crawlIds", Value: crawlIDs}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "set crawl ids for collection %s", id)
}

// DeleteByOrg removes every collection document belonging to an org, part of
// the delete-org cascade (§4.5).
func (r *CollectionRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "oid", Value: orgID}})
	return errors.Wrapf(err, "delete collections for org %s", orgID)
}

// ListByOrg returns every collection in an org.
func (r *CollectionRepo) ListByOrg(ctx context.Context, orgID string) ([]Collection, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "oid", Value: orgID}})
	if err != nil {
		return nil, errors.Wrapf(err, "list collections for org %s", orgID)
	}
	defer cur.Close(ctx)

	var cols []Collection
	if err := cur.All(ctx, &cols); err != nil {
		return nil, errors.Wrap(err, "decode collection list")
	}
	return cols, nil
}
