package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// InviteRepo is the §3(added) repository for Invite documents. Expiry is
// handled entirely by the TTL index created in Store.EnsureIndexes — this
// repo never deletes expired rows itself.
type InviteRepo struct {
	coll *mongo.Collection
}

// Create inserts a new invite as given; its Created time, set by the caller,
// is what the TTL index counts from.
func (r *InviteRepo) Create(ctx context.Context, invite *Invite) error {
	_, err := r.coll.InsertOne(ctx, invite)
	return errors.Wrapf(err, "create invite %s", invite.ID)
}

// ListByOrg returns every outstanding invite for an org, backing the
// §4.2(added) `(oid)` index.
func (r *InviteRepo) ListByOrg(ctx context.Context, orgID string) ([]Invite, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "oid", Value: orgID}})
	if err != nil {
		return nil, errors.Wrapf(err, "list invites for org %s", orgID)
	}
	defer cur.Close(ctx)

	var invites []Invite
	if err := cur.All(ctx, &invites); err != nil {
		return nil, errors.Wrap(err, "decode invite list")
	}
	return invites, nil
}

// Delete removes one invite by id, e.g. once it has been accepted.
func (r *InviteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return errors.Wrapf(err, "delete invite %s", id)
}

// DeleteByOrg removes every outstanding invite for an org, part of the
// delete-org cascade (§4.5).
func (r *InviteRepo) DeleteByOrg(ctx context.Context, orgID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "oid", Value: orgID}})
	return errors.Wrapf(err, "delete invites for org %s", orgID)
}
