package operator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/webrecorder/crawl-control-plane/pkg/redischannel"
	"github.com/webrecorder/crawl-control-plane/pkg/render"
)

type fakeProfileStorage struct {
	saved map[string]bool
}

func (f *fakeProfileStorage) Exists(ctx context.Context, storageName, filename string) (bool, error) {
	return f.saved[filename], nil
}

func newTestProfileReconciler(t *testing.T) (*ProfileJobReconciler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ch := redischannel.New(rdb)
	env := render.Environment{CrawlerNamespace: "crawler", CrawlerImage: "webrecorder/browsertrix-crawler:latest"}
	r := NewProfileJobReconciler(ch, env)
	r.Storage = &fakeProfileStorage{saved: map[string]bool{}}
	return r, mr
}

func mustMarshalProfile(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestProfileHandleSyncAdmitsNewJob(t *testing.T) {
	r, _ := newTestProfileReconciler(t)
	spec := ProfileJobSpec{ID: "profile-1", OrgID: "org-1", UserID: "user-1", StartURL: "https://example.com", ExpiryTime: time.Now().Add(time.Hour)}
	req := SyncRequest{Parent: mustMarshalProfile(t, profileJobResource{Spec: spec})}

	resp, err := r.HandleSync(context.Background(), req)
	require.NoError(t, err)

	status := resp.Status.(ProfileJobStatus)
	require.Equal(t, ProfileStateStarting, status.State)
	require.Len(t, resp.Children, 2)
	require.NotNil(t, resp.ResyncAfterSeconds)
}

func TestProfileHandleSyncEntersRunningOnHeartbeat(t *testing.T) {
	r, mr := newTestProfileReconciler(t)
	spec := ProfileJobSpec{ID: "profile-2", OrgID: "org-1", UserID: "user-1", StartURL: "https://example.com", ExpiryTime: time.Now().Add(time.Hour)}
	require.NoError(t, mr.Set("profile:profile-2", `{"pagesDone":0}`))

	prior := ProfileJobStatus{State: ProfileStateStarting, LastUpdatedTime: time.Now()}
	req := SyncRequest{Parent: mustMarshalProfile(t, profileJobResource{Spec: spec, Status: &prior})}

	resp, err := r.HandleSync(context.Background(), req)
	require.NoError(t, err)

	status := resp.Status.(ProfileJobStatus)
	require.Equal(t, ProfileStateRunning, status.State)
	require.Len(t, resp.Children, 2)
}

func TestProfileHandleSyncCompletesOnSavedProfile(t *testing.T) {
	r, _ := newTestProfileReconciler(t)
	r.Storage.(*fakeProfileStorage).saved["profile-3.tar.gz"] = true

	spec := ProfileJobSpec{
		ID: "profile-3", OrgID: "org-1", UserID: "user-1", StartURL: "https://example.com",
		ProfileFilename: "profile-3.tar.gz", ExpiryTime: time.Now().Add(time.Hour),
	}
	prior := ProfileJobStatus{State: ProfileStateRunning, LastUpdatedTime: time.Now()}
	req := SyncRequest{Parent: mustMarshalProfile(t, profileJobResource{Spec: spec, Status: &prior})}

	resp, err := r.HandleSync(context.Background(), req)
	require.NoError(t, err)

	status := resp.Status.(ProfileJobStatus)
	require.Equal(t, ProfileStateComplete, status.State)
	require.Empty(t, resp.Children)
	require.Nil(t, resp.ResyncAfterSeconds)
}

func TestProfileHandleSyncFailsOnExpiry(t *testing.T) {
	r, _ := newTestProfileReconciler(t)
	spec := ProfileJobSpec{
		ID: "profile-4", OrgID: "org-1", UserID: "user-1", StartURL: "https://example.com",
		ExpiryTime: time.Now().Add(-time.Minute),
	}
	prior := ProfileJobStatus{State: ProfileStateStarting, LastUpdatedTime: time.Now().Add(-time.Hour)}
	req := SyncRequest{Parent: mustMarshalProfile(t, profileJobResource{Spec: spec, Status: &prior})}

	resp, err := r.HandleSync(context.Background(), req)
	require.NoError(t, err)

	status := resp.Status.(ProfileJobStatus)
	require.Equal(t, ProfileStateFailed, status.State)
	require.Empty(t, resp.Children)
}

func TestProfileHandleSyncTerminalIsMonotonic(t *testing.T) {
	r, _ := newTestProfileReconciler(t)
	spec := ProfileJobSpec{ID: "profile-5", OrgID: "org-1", UserID: "user-1", StartURL: "https://example.com", ExpiryTime: time.Now().Add(time.Hour)}
	prior := ProfileJobStatus{State: ProfileStateFailed, LastUpdatedTime: time.Now()}
	req := SyncRequest{Parent: mustMarshalProfile(t, profileJobResource{Spec: spec, Status: &prior})}

	resp, err := r.HandleSync(context.Background(), req)
	require.NoError(t, err)

	status := resp.Status.(ProfileJobStatus)
	require.Equal(t, ProfileStateFailed, status.State)
}
