package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/webrecorder/crawl-control-plane/pkg/quota"
)

// OrganizationRepo is the §4.2 repository for Organization documents.
// IncBytesStored and IncExecSeconds apply their deltas as single atomic $inc
// updates. SetBytesStoredCrawls is not atomic: it reads the organization and
// then $sets absolute totals.
type OrganizationRepo struct {
	coll *mongo.Collection
}

// Get fetches one organization by id, or mongo.ErrNoDocuments if absent.
func (r *OrganizationRepo) Get(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&org); err != nil {
		return nil, errors.Wrapf(err, "get organization %s", id)
	}
	return &org, nil
}

// GetBySlug looks up an organization by its unique, case-insensitive slug.
func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	var org Organization
	filter := bson.D{{Key: "slug", Value: slug}}
	opts := options.FindOne().SetCollation(caseInsensitive)
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&org); err != nil {
		return nil, errors.Wrapf(err, "get organization by slug %s", slug)
	}
	return &org, nil
}

// Create inserts a new Organization document.
func (r *OrganizationRepo) Create(ctx context.Context, org *Organization) error {
	_, err := r.coll.InsertOne(ctx, org)
	return errors.Wrapf(err, "create organization %s", org.ID)
}

// IncBytesStored atomically increments the aggregate bytesStored counter and
// the type-specific counter named by field, per §4.2's storage-debit rule. A
// negative delta is used for file deletions.
func (r *OrganizationRepo) IncBytesStored(ctx context.Context, orgID string, field BytesCounterField, delta int64) error {
	update := bson.D{{Key: "$inc", Value: bson.D{
		{Key: "bytesStored", Value: delta},
		{Key: string(field), Value: delta},
	}}}
	_, err := r.coll.UpdateByID(ctx, orgID, update)
	return errors.Wrapf(err, "inc bytesStored for org %s", orgID)
}

// IncExecSeconds atomically applies a quota.DebitResult to the month's three
// exec-second ledgers and decrements whichever of the extra/gifted available
// pools were drawn from, in a single update document — the debit computed by
// pkg/quota is read-only math; this is the only place it is persisted.
func (r *OrganizationRepo) IncExecSeconds(ctx context.Context, orgID, yymm string, debit quota.DebitResult) error {
	inc := bson.D{}
	if debit.Monthly != 0 {
		inc = append(inc, bson.E{Key: "monthlyExecSeconds." + yymm, Value: debit.Monthly})
	}
	if debit.Extra != 0 {
		inc = append(inc,
			bson.E{Key: "extraExecSeconds." + yymm, Value: debit.Extra},
			bson.E{Key: "extraExecSecondsAvailable", Value: -debit.Extra},
		)
	}
	if debit.Gifted != 0 {
		inc = append(inc,
			bson.E{Key: "giftedExecSeconds." + yymm, Value: debit.Gifted},
			bson.E{Key: "giftedExecSecondsAvailable", Value: -debit.Gifted},
		)
	}
	if len(inc) == 0 {
		return nil
	}
	_, err := r.coll.UpdateByID(ctx, orgID, bson.D{{Key: "$inc", Value: inc}})
	return errors.Wrapf(err, "inc exec seconds for org %s", orgID)
}

// SetReadOnly flips the readOnly flag, used when an org's storage or exec
// quota is exhausted badly enough to halt all activity.
func (r *OrganizationRepo) SetReadOnly(ctx context.Context, orgID string, readOnly bool) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "readOnly", Value: readOnly}}}}
	_, err := r.coll.UpdateByID(ctx, orgID, update)
	return errors.Wrapf(err, "set readOnly for org %s", orgID)
}

// SetBytesStoredCrawls overwrites the crawl-files byte counter and the
// aggregate bytesStored field with a freshly scanned total, the
// recalculate-org-stats job's (§4.5) write path — unlike IncBytesStored this
// is an absolute $set, since the job recomputes from scratch rather than
// applying a delta.
func (r *OrganizationRepo) SetBytesStoredCrawls(ctx context.Context, orgID string, total int64) error {
	org, err := r.Get(ctx, orgID)
	if err != nil {
		return err
	}
	aggregate := total + org.BytesStoredUploads + org.BytesStoredProfiles + org.BytesStoredSeedFiles + org.BytesStoredThumbnails
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "bytesStoredCrawls", Value: total},
		{Key: "bytesStored", Value: aggregate},
	}}}
	_, err = r.coll.UpdateByID(ctx, orgID, update)
	return errors.Wrapf(err, "set bytesStoredCrawls for org %s", orgID)
}

// Delete removes an organization document outright, the last step of the
// delete-org cascade (§4.5) once every document referencing it is gone.
func (r *OrganizationRepo) Delete(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: orgID}})
	return errors.Wrapf(err, "delete organization %s", orgID)
}
