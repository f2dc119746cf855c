package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopFacetReportsAbsence(t *testing.T) {
	var f Facet = NoopFacet{}

	url, err := f.Presign(context.Background(), "default", "rec.wacz", time.Minute)
	require.NoError(t, err)
	require.Empty(t, url)

	_, ok, err := f.Head(context.Background(), "default", "rec.wacz")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.Copy(context.Background(), "default", "rec.wacz", "replica-1"))
	require.NoError(t, f.Delete(context.Background(), "default", "rec.wacz"))

	ch, err := f.List(context.Background(), "default", "")
	require.NoError(t, err)
	_, open := <-ch
	require.False(t, open)
}

type fakeFacet struct {
	existing map[string]bool
}

func (f fakeFacet) Presign(ctx context.Context, storageName, key string, duration time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

func (f fakeFacet) Head(ctx context.Context, storageName, key string) (ObjectInfo, bool, error) {
	if f.existing[key] {
		return ObjectInfo{Size: 10}, true, nil
	}
	return ObjectInfo{}, false, nil
}

func (f fakeFacet) Copy(ctx context.Context, srcStorage, key, dstStorage string) error { return nil }
func (f fakeFacet) Delete(ctx context.Context, storageName, key string) error         { return nil }
func (f fakeFacet) List(ctx context.Context, storageName, prefix string) (<-chan string, error) {
	return nil, nil
}

func TestProfileCheckerDelegatesToHead(t *testing.T) {
	checker := ProfileChecker{Facet: fakeFacet{existing: map[string]bool{"profile-1.tar.gz": true}}}

	ok, err := checker.Exists(context.Background(), "default", "profile-1.tar.gz")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.Exists(context.Background(), "default", "missing.tar.gz")
	require.NoError(t, err)
	require.False(t, ok)
}
