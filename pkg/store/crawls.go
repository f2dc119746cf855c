package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CrawlRepo is the §4.2 repository for Crawl documents, covering both
// standalone Crawl records and their nested CrawlFile entries.
type CrawlRepo struct {
	coll *mongo.Collection
}

// Create inserts a new Crawl document at admission time (§4.4 transition 1).
func (r *CrawlRepo) Create(ctx context.Context, crawl *Crawl) error {
	_, err := r.coll.InsertOne(ctx, crawl)
	return errors.Wrapf(err, "create crawl %s", crawl.ID)
}

// Get fetches one crawl by id.
func (r *CrawlRepo) Get(ctx context.Context, id string) (*Crawl, error) {
	var crawl Crawl
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&crawl); err != nil {
		return nil, errors.Wrapf(err, "get crawl %s", id)
	}
	return &crawl, nil
}

// ListByOrgState lists crawls for an org filtered by type and whether they
// have finished, backing the §4.2 `(oid, type, finished)` index.
func (r *CrawlRepo) ListByOrgState(ctx context.Context, orgID string, typ CrawlType, finished bool) ([]Crawl, error) {
	filter := bson.D{{Key: "oid", Value: orgID}, {Key: "type", Value: typ}}
	if finished {
		filter = append(filter, bson.E{Key: "finished", Value: bson.D{{Key: "$ne", Value: nil}}})
	} else {
		filter = append(filter, bson.E{Key: "finished", Value: nil})
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "list crawls for org %s", orgID)
	}
	defer cur.Close(ctx)

	var crawls []Crawl
	if err := cur.All(ctx, &crawls); err != nil {
		return nil, errors.Wrap(err, "decode crawl list")
	}
	return crawls, nil
}

// UpdateProgress applies the operator's periodic progress snapshot without
// touching state or finalization fields, matching §4.4's "status is computed
// from observed state, never accumulated" rule: every field here is a $set,
// never a $inc.
func (r *CrawlRepo) UpdateProgress(ctx context.Context, id string, stats CrawlStats) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "stats", Value: stats}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "update progress for crawl %s", id)
}

// Finalize writes the terminal state, finish time, and finalized files in one
// update, per §4.4 transition 10. It is idempotent: calling it again with the
// same terminal state is a no-op write, since finished is only ever set once
// and the state set is monotonic (§3's Crawl invariant).
func (r *CrawlRepo) Finalize(ctx context.Context, id, state string, finished time.Time, files []CrawlFile, stats CrawlStats) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: state},
		{Key: "finished", Value: finished},
		{Key: "files", Value: files},
		{Key: "stats", Value: stats},
	}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "finalize crawl %s", id)
}

// SetStopping marks a crawl as user-requested-stop (§4.4 transition 4).
func (r *CrawlRepo) SetStopping(ctx context.Context, id string, stopping bool) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "stopping", Value: stopping}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "set stopping for crawl %s", id)
}

// SetPaused marks a crawl as quota-paused or resumed (§4.4 transitions 5/6).
func (r *CrawlRepo) SetPaused(ctx context.Context, id string, paused bool) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "paused", Value: paused}}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "set paused for crawl %s", id)
}

// AppendReplica records a successfully created replica copy of one of a
// crawl's files, matching array-element targeting via the filenames filter.
// $addToSet keeps a re-run from recording the same replica twice.
func (r *CrawlRepo) AppendReplica(ctx context.Context, crawlID, filename string, replica ReplicaRef) error {
	filter := bson.D{{Key: "_id", Value: crawlID}, {Key: "files.filename", Value: filename}}
	update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: "files.$.replicas", Value: replica}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrapf(err, "append replica for crawl %s file %s", crawlID, filename)
	}
	if res.MatchedCount == 0 {
		return errors.Errorf("crawl %s has no file %s", crawlID, filename)
	}
	return nil
}

// CountRunning returns the number of non-terminal crawls for an org, the
// denominator pkg/quota.ConcurrentCrawlsAtCap checks against.
func (r *CrawlRepo) CountRunning(ctx context.Context, orgID string) (int, error) {
	filter := bson.D{
		{Key: "oid", Value: orgID},
		{Key: "type", Value: CrawlTypeCrawl},
		{Key: "finished", Value: nil},
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "count running crawls for org %s", orgID)
	}
	return int(n), nil
}

// UpdatePageCounts recomputes the denormalized page-count fields, used by the
// scheduler's optimize-pages job (§4.5).
func (r *CrawlRepo) UpdatePageCounts(ctx context.Context, id string, pageCount, uniquePageCount, errorPageCount, filePageCount int) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "pageCount", Value: pageCount},
		{Key: "uniquePageCount", Value: uniquePageCount},
		{Key: "errorPageCount", Value: errorPageCount},
		{Key: "filePageCount", Value: filePageCount},
	}}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return errors.Wrapf(err, "update page counts for crawl %s", id)
}

// DeleteByOrg removes every crawl document belonging to an org, the
// delete-org cascade's (§4.5) crawl-history sweep. File and replica deletion
// through the storage facet happens before this call; this only drops the
// now-orphaned documents.
func (r *CrawlRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "oid", Value: orgID}})
	return errors.Wrapf(err, "delete crawls for org %s", orgID)
}

// fileProjection returns the FindOne options that project a crawl document
// down to its files list, used by the FileRepo accessor below.
func (r *CrawlRepo) fileProjection() *options.FindOneOptions {
	return options.FindOne().SetProjection(bson.D{{Key: "files", Value: 1}})
}

// Files returns a narrow accessor scoped to one crawl's embedded CrawlFile
// list, the "nested under Crawl" FileRepo named in §4.2.
func (r *CrawlRepo) Files(crawlID string) *FileRepo {
	return &FileRepo{crawlID: crawlID, crawls: r}
}

// FileRepo reads and appends to one crawl's embedded files list.
type FileRepo struct {
	crawlID string
	crawls  *CrawlRepo
}

// List returns the crawl's finalized files.
func (f *FileRepo) List(ctx context.Context) ([]CrawlFile, error) {
	var crawl Crawl
	err := f.crawls.coll.FindOne(ctx, bson.D{{Key: "_id", Value: f.crawlID}}, f.crawls.fileProjection()).Decode(&crawl)
	if err != nil {
		return nil, errors.Wrapf(err, "list files for crawl %s", f.crawlID)
	}
	return crawl.Files, nil
}
