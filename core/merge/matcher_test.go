package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vonnieda/dimple/core/model"
)

func artistWithKey(name, key string) *model.Artist {
	a := &model.Artist{Name: name}
	a.SetEntityKey(key)
	return a
}

func TestMatches_ByKey(t *testing.T) {
	assert.True(t, Matches(artistWithKey("", "k1"), artistWithKey("Tool", "k1")))
	assert.False(t, Matches(artistWithKey("", ""), artistWithKey("", "")))
}

func TestMatches_ByKnownID(t *testing.T) {
	a := &model.Artist{}
	a.KnownIDs = model.IDSet{model.SourceMusicBrainz: "mbid-1"}
	b := &model.Artist{Name: "Tool"}
	b.KnownIDs = model.IDSet{model.SourceMusicBrainz: "mbid-1"}

	assert.True(t, Matches(a, b))

	// Same id under a different source is not a match.
	c := &model.Artist{}
	c.KnownIDs = model.IDSet{model.SourceDiscogs: "mbid-1"}
	assert.False(t, Matches(c, b))
}

func TestMatches_ByNormalizedFields(t *testing.T) {
	tests := []struct {
		name string
		a    model.Entity
		b    model.Entity
		want bool
	}{
		{
			name: "case and whitespace normalized",
			a:    &model.Artist{Name: "  Miles   DAVIS "},
			b:    &model.Artist{Name: "miles davis"},
			want: true,
		},
		{
			name: "disambiguation distinguishes",
			a:    &model.Artist{Name: "Nirvana", Disambiguation: "UK band"},
			b:    &model.Artist{Name: "Nirvana"},
			want: false,
		},
		{
			name: "empty names never match",
			a:    &model.Artist{},
			b:    &model.Artist{},
			want: false,
		},
		{
			name: "kind mismatch",
			a:    &model.Artist{Name: "jazz"},
			b:    &model.Genre{Name: "jazz"},
			want: false,
		},
		{
			name: "release includes date",
			a:    &model.Release{Title: "Kind of Blue", Date: "1959-08-17"},
			b:    &model.Release{Title: "Kind of Blue", Date: "1997-03-25"},
			want: false,
		},
		{
			name: "track keyed by title and recording ref",
			a:    &model.Track{Title: "So What", RecordingRef: "r1"},
			b:    &model.Track{Title: "So What", RecordingRef: "r1"},
			want: true,
		},
		{
			name: "same title different recording",
			a:    &model.Track{Title: "So What", RecordingRef: "r1"},
			b:    &model.Track{Title: "So What", RecordingRef: "r2"},
			want: false,
		},
		{
			name: "medium by position and tracks",
			a:    &model.Medium{Position: 1, TrackRefs: model.NewStringSet("t1", "t2")},
			b:    &model.Medium{Position: 1, TrackRefs: model.NewStringSet("t1", "t2")},
			want: true,
		},
		{
			name: "medium with different tracks",
			a:    &model.Medium{Position: 1, TrackRefs: model.NewStringSet("t1")},
			b:    &model.Medium{Position: 1, TrackRefs: model.NewStringSet("t3")},
			want: false,
		},
		{
			name: "medium without position has no identity",
			a:    &model.Medium{TrackRefs: model.NewStringSet("t1")},
			b:    &model.Medium{TrackRefs: model.NewStringSet("t1")},
			want: false,
		},
		{
			name: "release group by title and artists",
			a:    &model.ReleaseGroup{Title: "Kind of Blue", ArtistRefs: model.NewStringSet("a1")},
			b:    &model.ReleaseGroup{Title: "Kind of Blue", ArtistRefs: model.NewStringSet("a1")},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.a, tt.b))
		})
	}
}

// A known-id match on one row and a name match on another must resolve to
// the known-id row regardless of candidate order.
func TestFind_KnownIDBeatsNameMatch(t *testing.T) {
	byName := artistWithKey("Foo", "k-name")
	byID := artistWithKey("", "k-id")
	byID.KnownIDs = model.IDSet{model.SourceMusicBrainz: "123"}

	incoming := &model.Artist{Name: "Foo"}
	incoming.KnownIDs = model.IDSet{model.SourceMusicBrainz: "123"}

	assert.Equal(t, byID, Find([]model.Entity{byName, byID}, incoming))
	assert.Equal(t, byID, Find([]model.Entity{byID, byName}, incoming))
}

func TestFind_NoMatchReturnsNil(t *testing.T) {
	stored := artistWithKey("Tool", "k1")
	assert.Nil(t, Find([]model.Entity{stored}, &model.Artist{Name: "A Perfect Circle"}))
	assert.Nil(t, Find(nil, &model.Artist{Name: "Tool"}))
}

func TestFindStrong_IgnoresFieldMatches(t *testing.T) {
	stored := artistWithKey("Tool", "k1")
	assert.Nil(t, FindStrong([]model.Entity{stored}, &model.Artist{Name: "Tool"}))

	incoming := &model.Artist{}
	incoming.SetEntityKey("k1")
	assert.Equal(t, stored, FindStrong([]model.Entity{stored}, incoming))
}
