package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonnieda/dimple/core/store"
)

func TestSegmentPath_RoundTrip(t *testing.T) {
	p := segmentPath("library", "device-1", "01J5ZX")
	assert.Equal(t, "library/changes/device-1/01J5ZX.json", p)

	ref, ok := parseSegmentPath("library", p)
	require.True(t, ok)
	assert.Equal(t, "device-1", ref.Actor)
	assert.Equal(t, "01J5ZX", ref.Seq)
	assert.Equal(t, p, ref.Path)
}

func TestParseSegmentPath_RejectsNonSegments(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"wrong prefix", "other/changes/device-1/01J5ZX.json"},
		{"missing actor", "library/changes/01J5ZX.json"},
		{"wrong extension", "library/changes/device-1/01J5ZX.txt"},
		{"bare prefix", "library/changes/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseSegmentPath("library", tt.path)
			assert.False(t, ok)
		})
	}
}

func TestSegmentEncoding_RoundTrip(t *testing.T) {
	entries := []store.Change{{
		SeqID:     "01J5ZX",
		Actor:     "device-1",
		At:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Kind:      "track",
		EntityKey: "k1",
		Op:        store.OpSet,
		Field:     "Title",
		Value:     "X",
	}}

	data, err := encodeSegment(entries)
	require.NoError(t, err)

	decoded, err := decodeSegment(data)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)

	_, err = decodeSegment([]byte("not json"))
	assert.Error(t, err)
}
