package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageRepo is the §4.2 repository for Page documents, one per crawled URL.
type PageRepo struct {
	coll *mongo.Collection
}

// InsertMany bulk-inserts pages: those drained from a crawl's Redis page
// stream at finalization (§4.3 DrainPages → §4.4 transition 10), and those
// re-derived by the scheduler's re-add-org-pages job.
func (r *PageRepo) InsertMany(ctx context.Context, pages []Page) error {
	if len(pages) == 0 {
		return nil
	}
	docs := make([]interface{}, len(pages))
	for i := range pages {
		docs[i] = pages[i]
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return errors.Wrap(err, "insert pages")
}

// ListByCrawl returns every page for a crawl, backing the §4.2
// `(crawlId)` index.
func (r *PageRepo) ListByCrawl(ctx context.Context, crawlID string) ([]Page, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "crawlId", Value: crawlID}})
	if err != nil {
		return nil, errors.Wrapf(err, "list pages for crawl %s", crawlID)
	}
	defer cur.Close(ctx)

	var pages []Page
	if err := cur.All(ctx, &pages); err != nil {
		return nil, errors.Wrap(err, "decode page list")
	}
	return pages, nil
}

// CountDistinctURLs returns the number of distinct URLs recorded for a
// crawl, the basis of the scheduler's optimize-pages job recomputing
// Crawl.uniquePageCount (§4.5 added).
func (r *PageRepo) CountDistinctURLs(ctx context.Context, crawlID string) (int, error) {
	urls, err := r.coll.Distinct(ctx, "url", bson.D{{Key: "crawlId", Value: crawlID}})
	if err != nil {
		return 0, errors.Wrapf(err, "count distinct urls for crawl %s", crawlID)
	}
	return len(urls), nil
}

// SetQAResult writes one QA run's comparison record for a page, keyed under
// Page.qa[qaRunId] (§3(added) QARun finalization path).
func (r *PageRepo) SetQAResult(ctx context.Context, pageID, qaRunID string, result PageQAResult) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "qa." + qaRunID, Value: result}}}}
	_, err := r.coll.UpdateByID(ctx, pageID, update)
	return errors.Wrapf(err, "set qa result for page %s", pageID)
}

// DeleteByOrg removes every page document belonging to an org, part of the
// delete-org cascade (§4.5).
func (r *PageRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "oid", Value: orgID}})
	return errors.Wrapf(err, "delete pages for org %s", orgID)
}

// ExistsByURL checks whether a page with the same (crawlId, url, ts) already
// exists, the dedup key the re-add-org-pages job uses to stay idempotent
// (§4.5 added).
func (r *PageRepo) ExistsByURL(ctx context.Context, crawlID, url string, ts interface{}) (bool, error) {
	filter := bson.D{{Key: "crawlId", Value: crawlID}, {Key: "url", Value: url}, {Key: "ts", Value: ts}}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "check page existence for crawl %s", crawlID)
	}
	return n > 0, nil
}
