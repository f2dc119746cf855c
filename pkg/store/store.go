package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per entity in §3/§3(added).
const (
	collOrganizations   = "organizations"
	collCrawls          = "crawls"
	collCrawlConfigs    = "crawl_configs"
	collPages           = "pages"
	collBackgroundJobs  = "background_jobs"
	collQARuns          = "qa_runs"
	collCollections     = "collections"
	collInvites         = "invites"
	collSeedFiles       = "seed_files"
)

// Store holds one repository per persisted entity, all backed by the same
// Mongo database handle. Construction never dials — the caller supplies an
// already-connected *mongo.Client (its lifecycle, including Disconnect, is
// the caller's responsibility, favoring dependency-injected clients over
// package-level singletons).
type Store struct {
	db *mongo.Database

	Organizations  *OrganizationRepo
	Crawls         *CrawlRepo
	CrawlConfigs   *CrawlConfigRepo
	Pages          *PageRepo
	BackgroundJobs *BackgroundJobRepo
	QARuns         *QARunRepo
	Collections    *CollectionRepo
	Invites        *InviteRepo
	SeedFiles      *SeedFileRepo
}

// New builds a Store over the named database of an existing client.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	crawlConfigs := &CrawlConfigRepo{coll: db.Collection(collCrawlConfigs)}
	return &Store{
		db:             db,
		Organizations:  &OrganizationRepo{coll: db.Collection(collOrganizations)},
		Crawls:         &CrawlRepo{coll: db.Collection(collCrawls)},
		CrawlConfigs:   crawlConfigs,
		Pages:          &PageRepo{coll: db.Collection(collPages)},
		BackgroundJobs: &BackgroundJobRepo{coll: db.Collection(collBackgroundJobs)},
		QARuns:         &QARunRepo{coll: db.Collection(collQARuns)},
		Collections:    &CollectionRepo{coll: db.Collection(collCollections)},
		Invites:        &InviteRepo{coll: db.Collection(collInvites)},
		SeedFiles:      &SeedFileRepo{coll: db.Collection(collSeedFiles), configs: crawlConfigs},
	}
}

// EnsureIndexes creates every index §4.2 requires. Safe to call on every
// process start: CreateMany is idempotent for identical index specs.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexSets := []struct {
		coll  *mongo.Collection
		specs []mongo.IndexModel
	}{
		{
			s.db.Collection(collOrganizations),
			[]mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "slug", Value: 1}},
					Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
				},
			},
		},
		{
			s.db.Collection(collCollections),
			[]mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "oid", Value: 1}, {Key: "name", Value: 1}},
					Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
				},
				{
					Keys:    bson.D{{Key: "oid", Value: 1}, {Key: "slug", Value: 1}},
					Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
				},
			},
		},
		{
			s.db.Collection(collPages),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "crawlId", Value: 1}}},
				{Keys: bson.D{{Key: "crawlId", Value: 1}, {Key: "qa", Value: 1}}},
			},
		},
		{
			s.db.Collection(collCrawls),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "oid", Value: 1}, {Key: "type", Value: 1}, {Key: "finished", Value: 1}}},
			},
		},
		{
			s.db.Collection(collBackgroundJobs),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "type", Value: 1}, {Key: "success", Value: 1}, {Key: "finished", Value: 1}}},
			},
		},
		{
			s.db.Collection(collInvites),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "oid", Value: 1}}},
				{
					Keys:    bson.D{{Key: "created", Value: 1}},
					Options: options.Index().SetExpireAfterSeconds(inviteTTLSeconds),
				},
			},
		},
	}

	for _, set := range indexSets {
		if _, err := set.coll.Indexes().CreateMany(ctx, set.specs); err != nil {
			return errors.Wrapf(err, "create indexes on %s", set.coll.Name())
		}
	}
	return nil
}

// inviteTTLSeconds is how long an unaccepted Invite document survives before
// Mongo's TTL monitor reaps it — 7 days, matching browsertrix-cloud's own
// invite expiry window.
const inviteTTLSeconds int32 = 7 * 24 * 60 * 60
