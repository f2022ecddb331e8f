package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies one of the closed set of entity types.
type Kind string

// Entity kinds.
const (
	KindArtist       Kind = "artist"
	KindReleaseGroup Kind = "release-group"
	KindRelease      Kind = "release"
	KindMedium       Kind = "medium"
	KindTrack        Kind = "track"
	KindRecording    Kind = "recording"
	KindGenre        Kind = "genre"
)

// Known id sources.
const (
	SourceMusicBrainz = "musicbrainz"
	SourceWikidata    = "wikidata"
	SourceDiscogs     = "discogs"
)

// Entity is implemented by every typed record in the library.
type Entity interface {
	// Kind returns the entity type discriminator.
	Kind() Kind
	// EntityKey returns the opaque store key, or "" if not yet persisted.
	EntityKey() string
	// SetEntityKey assigns the store key. Called by the store exactly once.
	SetEntityKey(key string)
	// ExternalIDs returns the set of externally-sourced identifiers.
	ExternalIDs() IDSet
}

// Base carries the fields common to all entities.
type Base struct {
	// Key is the opaque unique identifier assigned by the store on first
	// persistence. Never set by callers.
	Key string `gorm:"primaryKey;column:key" json:"key" merge:"-"`
	// KnownIDs maps an external source name to the identifier this entity
	// carries in that catalog.
	KnownIDs IDSet `gorm:"serializer:json" json:"known_ids,omitempty" merge:"ids"`
}

// EntityKey returns the store key.
func (b *Base) EntityKey() string { return b.Key }

// SetEntityKey assigns the store key.
func (b *Base) SetEntityKey(key string) { b.Key = key }

// ExternalIDs returns the known-id set.
func (b *Base) ExternalIDs() IDSet { return b.KnownIDs }

// IDSet maps an external source name to an identifier in that catalog.
type IDSet map[string]string

// SharesAny reports whether both sets carry the same non-empty id for at
// least one source.
func (s IDSet) SharesAny(other IDSet) bool {
	for source, id := range s {
		if id == "" {
			continue
		}
		if other[source] == id {
			return true
		}
	}
	return false
}

// Clone returns a copy of the set. Cloning nil yields nil.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	out := make(IDSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether both sets contain exactly the same ids.
func (s IDSet) Equal(other IDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// Encode returns the canonical JSON encoding used in change-log values.
func (s IDSet) Encode() string {
	if len(s) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(s)
	return string(b)
}

// StringSet is a sorted, duplicate-free set of strings with union-merge
// semantics. The zero value is an empty set.
type StringSet []string

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	var s StringSet
	for _, v := range values {
		s = s.Add(v)
	}
	return s
}

// Add returns the set with value included. Empty values are ignored.
func (s StringSet) Add(value string) StringSet {
	if value == "" || s.Contains(value) {
		return s
	}
	out := append(StringSet{}, s...)
	out = append(out, value)
	sort.Strings(out)
	return out
}

// Contains reports whether value is in the set.
func (s StringSet) Contains(value string) bool {
	i := sort.SearchStrings(s, value)
	return i < len(s) && s[i] == value
}

// Union returns the union of both sets.
func (s StringSet) Union(other StringSet) StringSet {
	out := s
	for _, v := range other {
		out = out.Add(v)
	}
	return out
}

// Equal reports whether both sets contain the same values.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Encode returns the canonical JSON encoding used in change-log values.
func (s StringSet) Encode() string {
	if len(s) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(s)
	return string(b)
}

// New returns an empty entity of the given kind, ready to be populated by
// change-log replay or provider decoding.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindArtist:
		return &Artist{}, nil
	case KindReleaseGroup:
		return &ReleaseGroup{}, nil
	case KindRelease:
		return &Release{}, nil
	case KindMedium:
		return &Medium{}, nil
	case KindTrack:
		return &Track{}, nil
	case KindRecording:
		return &Recording{}, nil
	case KindGenre:
		return &Genre{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Kinds returns every entity kind, in table-migration order (parents
// before children).
func Kinds() []Kind {
	return []Kind{
		KindArtist,
		KindGenre,
		KindRecording,
		KindReleaseGroup,
		KindRelease,
		KindMedium,
		KindTrack,
	}
}
