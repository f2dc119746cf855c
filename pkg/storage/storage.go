// Package storage defines the narrow storage-facet contract §6 EXTERNAL
// INTERFACES describes: presign, head, copy, delete, list. A concrete
// object-storage client (S3, GCS, or otherwise) is out of scope — no example
// in the retrieval pack carries one, and wiring a specific SDK here would bind
// every caller to a vendor no part of the expanded specification names.
// Callers depend on Facet; production wiring supplies whichever
// implementation an actual deployment needs, same as pkg/operator's
// PodMetricsReader boundary interface is satisfied by a real clientset in
// production and a fake in tests.
package storage

import (
	"context"
	"time"
)

// ObjectInfo is the result of a Head call: just enough to decide whether a
// replica or profile save has landed and how big it is.
type ObjectInfo struct {
	Size int64
	ETag string
}

// Facet is the storage operations the core ever needs, keyed by a logical
// storage name (store.LogicalRef) the caller has already resolved to a
// concrete bucket. The core never constructs object-storage URLs itself.
type Facet interface {
	// Presign returns a time-limited URL for downloading key from storage.
	Presign(ctx context.Context, storageName, key string, duration time.Duration) (string, error)
	// Head reports whether key exists in storage and its size/etag.
	Head(ctx context.Context, storageName, key string) (ObjectInfo, bool, error)
	// Copy copies key from one logical storage location to another,
	// the create-replica background job's primitive.
	Copy(ctx context.Context, srcStorage, key, dstStorage string) error
	// Delete removes key from storage.
	Delete(ctx context.Context, storageName, key string) error
	// List streams every key under prefix in storage.
	List(ctx context.Context, storageName, prefix string) (<-chan string, error)
}

// NoopFacet implements Facet without touching any backend: every read
// reports absence, every write succeeds trivially. Used where a deployment
// has no storage wired yet (local development, unit tests).
type NoopFacet struct{}

func (NoopFacet) Presign(ctx context.Context, storageName, key string, duration time.Duration) (string, error) {
	return "", nil
}

func (NoopFacet) Head(ctx context.Context, storageName, key string) (ObjectInfo, bool, error) {
	return ObjectInfo{}, false, nil
}

func (NoopFacet) Copy(ctx context.Context, srcStorage, key, dstStorage string) error {
	return nil
}

func (NoopFacet) Delete(ctx context.Context, storageName, key string) error {
	return nil
}

func (NoopFacet) List(ctx context.Context, storageName, prefix string) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

// ProfileChecker adapts a Facet's Head call to pkg/operator's
// ProfileStorageChecker interface, so ProfileJob's "has the saved profile
// landed yet" read is backed by the same storage boundary everything else
// in this package uses instead of a second bespoke client.
type ProfileChecker struct {
	Facet Facet
}

func (c ProfileChecker) Exists(ctx context.Context, storageName, filename string) (bool, error) {
	_, ok, err := c.Facet.Head(ctx, storageName, filename)
	return ok, err
}
