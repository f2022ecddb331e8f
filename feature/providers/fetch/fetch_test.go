package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vonnieda/dimple/feature/library"
)

func newTestServer(t *testing.T, hits *atomic.Int32, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGet_OnlineCachesResponse(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, `{"ok":true}`)
	f := New(t.TempDir(), time.Second, zap.NewNop())
	ctx := context.Background()

	data, err := f.Get(ctx, srv.URL, library.Online)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
	assert.Equal(t, int32(1), hits.Load())

	// Second call is a cache hit; the server is not touched again.
	data, err = f.Get(ctx, srv.URL, library.Online)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_OfflineServesOnlyCache(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, `{"ok":true}`)
	f := New(t.TempDir(), time.Second, zap.NewNop())
	ctx := context.Background()

	// An uncached URL fails offline without a network attempt.
	_, err := f.Get(ctx, srv.URL, library.Offline)
	require.Error(t, err)
	assert.Equal(t, int32(0), hits.Load())

	// Once cached online, offline serves it.
	_, err = f.Get(ctx, srv.URL, library.Online)
	require.NoError(t, err)

	data, err := f.Get(ctx, srv.URL, library.Offline)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_ForceBypassesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits, `{"ok":true}`)
	f := New(t.TempDir(), time.Second, zap.NewNop())
	ctx := context.Background()

	_, err := f.Get(ctx, srv.URL, library.Online)
	require.NoError(t, err)
	_, err = f.Get(ctx, srv.URL, library.Force)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGet_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := New(t.TempDir(), time.Second, zap.NewNop())
	_, err := f.Get(context.Background(), srv.URL, library.Online)
	assert.Error(t, err)
}

func TestCachePath_DistinctPerURL(t *testing.T) {
	f := New(t.TempDir(), time.Second, zap.NewNop())
	assert.NotEqual(t, f.cachePath("http://a"), f.cachePath("http://b"))
	assert.Equal(t, f.cachePath("http://a"), f.cachePath("http://a"))
}
