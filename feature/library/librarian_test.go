package library

import (
	"context"
	"errors"
	"testing"

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

// fakeProvider serves canned results and counts calls, standing in for a
// remote metadata source.
type fakeProvider struct {
	name          string
	getResult     model.Entity
	listResults   []model.Entity
	searchResults []model.Entity
	err           error
	getCalls      int
	searchCalls   int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Get(ctx context.Context, e model.Entity, mode NetworkMode) (model.Entity, error) {
	p.getCalls++
	return p.getResult, p.err
}

func (p *fakeProvider) List(ctx context.Context, kind model.Kind, relatedTo model.Entity, mode NetworkMode) ([]model.Entity, error) {
	return p.listResults, p.err
}

func (p *fakeProvider) Search(ctx context.Context, query string, mode NetworkMode) ([]model.Entity, error) {
	p.searchCalls++
	return p.searchResults, p.err
}

func newTestLibrarian(t *testing.T, providers ...Provider) (*Librarian, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := store.New(db, "device-1", nil, zap.NewNop())
	require.NoError(t, err)
	m := merge.New(s, zap.NewNop())
	return New(s, m, providers, zap.NewNop()), s
}

func TestSearch_MergesProviderResultsIntoStore(t *testing.T) {
	p := &fakeProvider{
		name:          "musicbrainz",
		searchResults: []model.Entity{&model.Artist{Name: "Tool"}},
	}
	l, s := newTestLibrarian(t, p)
	ctx := context.Background()

	results, err := l.Search(ctx, "Tool", Online)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].EntityKey())

	// The result landed in the store, not just the response.
	stored, err := s.List(ctx, model.KindArtist)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSearch_OfflineSkipsProviders(t *testing.T) {
	p := &fakeProvider{name: "musicbrainz", searchResults: []model.Entity{&model.Artist{Name: "Tool"}}}
	l, s := newTestLibrarian(t, p)
	ctx := context.Background()

	_, err := s.Save(ctx, &model.Artist{Name: "Tool"})
	require.NoError(t, err)

	results, err := l.Search(ctx, "Tool", Offline)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 0, p.searchCalls)
}

func TestSearch_ProviderErrorDegradesToPartial(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("unreachable")}
	working := &fakeProvider{
		name:          "musicbrainz",
		searchResults: []model.Entity{&model.Artist{Name: "Tool"}},
	}
	l, _ := newTestLibrarian(t, broken, working)

	results, err := l.Search(context.Background(), "Tool", Online)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_DeduplicatesByKey(t *testing.T) {
	// Two providers returning the same artist merge into one row, and the
	// local pass finds that same row again.
	p1 := &fakeProvider{name: "a", searchResults: []model.Entity{&model.Artist{Name: "Tool"}}}
	p2 := &fakeProvider{name: "b", searchResults: []model.Entity{&model.Artist{Name: "Tool"}}}
	l, _ := newTestLibrarian(t, p1, p2)

	results, err := l.Search(context.Background(), "Tool", Online)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_LocalMatchesAcrossKinds(t *testing.T) {
	l, s := newTestLibrarian(t)
	ctx := context.Background()

	_, err := s.Save(ctx, &model.Artist{Name: "Blue Note All Stars"})
	require.NoError(t, err)
	_, err = s.Save(ctx, &model.Release{Title: "Kind of Blue"})
	require.NoError(t, err)

	results, err := l.Search(ctx, "Blue", Offline)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFetch_OfflineMissingIsNotFound(t *testing.T) {
	p := &fakeProvider{name: "musicbrainz"}
	l, _ := newTestLibrarian(t, p)

	e := &model.Artist{}
	e.SetEntityKey("no-such-key")
	_, err := l.Fetch(context.Background(), e, Offline)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, p.getCalls)
}

func TestFetch_MergesProviderView(t *testing.T) {
	remote := &model.Artist{Name: "Tool", Summary: "Progressive metal band."}
	remote.KnownIDs = model.IDSet{model.SourceMusicBrainz: "mbid-tool"}
	p := &fakeProvider{name: "musicbrainz", getResult: remote}
	l, s := newTestLibrarian(t, p)
	ctx := context.Background()

	local := &model.Artist{Name: "Tool"}
	local.KnownIDs = model.IDSet{model.SourceMusicBrainz: "mbid-tool"}
	saved, err := s.Save(ctx, local)
	require.NoError(t, err)

	got, err := l.Fetch(ctx, saved, Online)
	require.NoError(t, err)
	assert.Equal(t, saved.EntityKey(), got.EntityKey())
	assert.Equal(t, "Progressive metal band.", got.(*model.Artist).Summary)
}

func TestFetch_UnknownEverywhereIsNotFound(t *testing.T) {
	p := &fakeProvider{name: "musicbrainz"}
	l, _ := newTestLibrarian(t, p)

	e := &model.Artist{}
	e.SetEntityKey("no-such-key")
	_, err := l.Fetch(context.Background(), e, Online)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, p.getCalls)
}

func TestRefresh_IngestsRelatedGenres(t *testing.T) {
	p := &fakeProvider{
		name:        "musicbrainz",
		listResults: []model.Entity{&model.Genre{Name: "jazz"}, &model.Genre{Name: "modal"}},
	}
	l, s := newTestLibrarian(t, p)
	ctx := context.Background()

	saved, err := s.Save(ctx, &model.Artist{Name: "Miles Davis"})
	require.NoError(t, err)

	require.NoError(t, l.Refresh(ctx, saved, Online))

	genres, err := s.List(ctx, model.KindGenre)
	require.NoError(t, err)
	assert.Len(t, genres, 2)
}

func TestRefresh_OfflineIsNoOp(t *testing.T) {
	p := &fakeProvider{name: "musicbrainz", err: errors.New("unreachable")}
	l, _ := newTestLibrarian(t, p)

	assert.NoError(t, l.Refresh(context.Background(), &model.Artist{Name: "Tool"}, Offline))
	assert.Equal(t, 0, p.getCalls)
}

func TestParseNetworkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    NetworkMode
		wantErr bool
	}{
		{"", Online, false},
		{"online", Online, false},
		{"OFFLINE", Offline, false},
		{"force", Force, false},
		{"sometimes", Online, true},
	}
	for _, tt := range tests {
		got, err := ParseNetworkMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
