package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	stdsync "sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vonnieda/dimple/core/merge"
	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/core/store"
)

// fakeClient is an in-memory stand-in for the object store, shared by the
// devices in a test so their sync cycles see each other's segments.
type fakeClient struct {
	mu      stdsync.Mutex
	buckets map[string]map[string][]byte
	failGet bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{buckets: map[string]map[string][]byte{}}
}

func (c *fakeClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.buckets[bucket]
	return ok, nil
}

func (c *fakeClient) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket] = map[string][]byte{}
	return nil
}

func (c *fakeClient) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buckets[bucket] == nil {
		c.buckets[bucket] = map[string][]byte{}
	}
	c.buckets[bucket][object] = data
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func (c *fakeClient) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("storage unavailable")
	}
	data, ok := c.buckets[bucket][object]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *fakeClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	c.mu.Lock()
	var keys []string
	for key := range c.buckets[bucket] {
		if opts.Prefix == "" || len(key) >= len(opts.Prefix) && key[:len(opts.Prefix)] == opts.Prefix {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()
	sort.Strings(keys)

	ch := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		ch <- minio.ObjectInfo{Key: key}
	}
	close(ch)
	return ch
}

// device bundles one store, merge engine and sync engine, backed by its
// own in-memory database.
type device struct {
	store  *store.Store
	merger *merge.Engine
	engine *Engine
}

func newDevice(t *testing.T, actor string, client *fakeClient) *device {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := store.New(db, actor, nil, zap.NewNop())
	require.NoError(t, err)
	m := merge.New(s, zap.NewNop())

	engine, err := NewEngine(s, m, client, "dimple-library", Config{Prefix: "library"}, zap.NewNop())
	require.NoError(t, err)
	return &device{store: s, merger: m, engine: engine}
}

func TestSync_CreatesBucketOnFirstCycle(t *testing.T) {
	client := newFakeClient()
	d := newDevice(t, "device-1", client)

	_, err := d.engine.Sync(context.Background())
	require.NoError(t, err)

	exists, err := client.BucketExists(context.Background(), "dimple-library")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSync_UploadsLocalChanges(t *testing.T) {
	client := newFakeClient()
	d := newDevice(t, "device-1", client)
	ctx := context.Background()

	_, err := d.store.Save(ctx, &model.Track{Title: "X", Position: 1})
	require.NoError(t, err)

	report, err := d.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.EntriesUploaded)
	assert.Equal(t, 0, report.SegmentsDownloaded)

	// A second cycle with no new changes uploads nothing.
	report, err = d.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.EntriesUploaded)
}

// Device 1 writes a track and syncs; device 2 starts empty and syncs.
// Device 2 must end up with the same track under the same store key.
func TestSync_TwoDeviceConvergence(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	ctx := context.Background()

	saved, err := d1.store.Save(ctx, &model.Track{Title: "X"})
	require.NoError(t, err)

	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	report, err := d2.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SegmentsDownloaded)
	assert.Equal(t, 1, report.EntriesReplayed)

	got, err := d2.store.Get(ctx, model.KindTrack, saved.EntityKey())
	require.NoError(t, err)
	assert.Equal(t, "X", got.(*model.Track).Title)

	// Replayed entries keep their originating actor.
	theirs, err := d2.store.EntriesByActorSince(ctx, "device-1", "")
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, saved.EntityKey(), theirs[0].EntityKey)

	// And are never re-uploaded as device 2's own.
	mine, err := d2.store.EntriesByActorSince(ctx, "device-2", "")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestSync_ReplayIsIdempotent(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	ctx := context.Background()

	_, err := d1.store.Save(ctx, &model.Track{Title: "X"})
	require.NoError(t, err)
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	_, err = d2.engine.Sync(ctx)
	require.NoError(t, err)

	// The cursor skips the segment entirely on the next cycle.
	report, err := d2.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.SegmentsDownloaded)
	assert.Equal(t, 0, report.EntriesReplayed)

	tracks, err := d2.store.List(ctx, model.KindTrack)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestSync_BidirectionalExchange(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	ctx := context.Background()

	_, err := d1.store.Save(ctx, &model.Artist{Name: "Miles Davis"})
	require.NoError(t, err)
	_, err = d2.store.Save(ctx, &model.Artist{Name: "John Coltrane"})
	require.NoError(t, err)

	// d1 publishes, d2 pulls d1's work and publishes its own, d1 pulls.
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)
	_, err = d2.engine.Sync(ctx)
	require.NoError(t, err)
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	for _, d := range []*device{d1, d2} {
		artists, err := d.store.List(ctx, model.KindArtist)
		require.NoError(t, err)
		assert.Len(t, artists, 2)
	}
}

// Two devices that independently create a same-named artist keep two
// distinct rows after exchanging logs: replay resolves by key and known
// id only, so remote entries never land on a field-coincident local row
// or leave fragments behind.
func TestSync_IndependentCreationsStayDistinct(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	ctx := context.Background()

	remote, err := d1.store.Save(ctx, &model.Artist{Name: "Miles Davis", Country: "US"})
	require.NoError(t, err)
	local, err := d2.store.Save(ctx, &model.Artist{Name: "Miles Davis"})
	require.NoError(t, err)

	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)
	_, err = d2.engine.Sync(ctx)
	require.NoError(t, err)
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	for _, d := range []*device{d1, d2} {
		artists, err := d.store.List(ctx, model.KindArtist)
		require.NoError(t, err)
		require.Len(t, artists, 2)

		// Every field of device 1's row landed on device 1's key; device
		// 2's row is untouched. No nameless fragment rows.
		got, err := d.store.Get(ctx, model.KindArtist, remote.EntityKey())
		require.NoError(t, err)
		assert.Equal(t, "Miles Davis", got.(*model.Artist).Name)
		assert.Equal(t, "US", got.(*model.Artist).Country)

		got, err = d.store.Get(ctx, model.KindArtist, local.EntityKey())
		require.NoError(t, err)
		assert.Equal(t, "Miles Davis", got.(*model.Artist).Name)
		assert.Empty(t, got.(*model.Artist).Country)
	}
}

// A failed cycle leaves the cursors untouched so the next cycle retries
// the same segments.
func TestSync_ErrorLeavesCursorsUntouched(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	ctx := context.Background()

	_, err := d1.store.Save(ctx, &model.Track{Title: "X"})
	require.NoError(t, err)
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	client.mu.Lock()
	client.failGet = true
	client.mu.Unlock()

	_, err = d2.engine.Sync(ctx)
	require.Error(t, err)

	client.mu.Lock()
	client.failGet = false
	client.mu.Unlock()

	report, err := d2.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SegmentsDownloaded)
	assert.Equal(t, 1, report.EntriesReplayed)
}

// Entries from different actors replay in ascending sequence order, so
// the newest write to a field wins regardless of download order.
func TestSync_LastSequenceWins(t *testing.T) {
	client := newFakeClient()
	d1 := newDevice(t, "device-1", client)
	d2 := newDevice(t, "device-2", client)
	d3 := newDevice(t, "device-3", client)
	ctx := context.Background()

	// Device 1 creates the track and publishes it.
	saved, err := d1.store.Save(ctx, &model.Track{Title: "X"})
	require.NoError(t, err)
	_, err = d1.engine.Sync(ctx)
	require.NoError(t, err)

	// Device 2 pulls it, retitles it, and publishes the update. The pause
	// keeps the update's sequence id in a strictly later timestamp.
	_, err = d2.engine.Sync(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	update := &model.Track{Title: "Y"}
	update.SetEntityKey(saved.EntityKey())
	_, err = d2.store.Save(ctx, update)
	require.NoError(t, err)
	_, err = d2.engine.Sync(ctx)
	require.NoError(t, err)

	// Device 3 sees both segments in one cycle.
	_, err = d3.engine.Sync(ctx)
	require.NoError(t, err)

	got, err := d3.store.Get(ctx, model.KindTrack, saved.EntityKey())
	require.NoError(t, err)
	assert.Equal(t, "Y", got.(*model.Track).Title)
}
