package model

// Artist is a person or group credited on releases.
type Artist struct {
	Base
	Name           string `json:"name,omitempty" merge:"scalar"`
	Disambiguation string `json:"disambiguation,omitempty" merge:"scalar"`
	Summary        string `json:"summary,omitempty" merge:"scalar"`
	Country        string `json:"country,omitempty" merge:"scalar"`

	Links     StringSet `gorm:"serializer:json" json:"links,omitempty" merge:"union"`
	GenreRefs StringSet `gorm:"serializer:json" json:"genre_refs,omitempty" merge:"union"`

	// Genres carries nested genre values on incoming records only.
	Genres []*Genre `gorm:"-" json:"genres,omitempty" merge:"children:GenreRefs"`
}

// Kind implements Entity.
func (*Artist) Kind() Kind { return KindArtist }

// TableName overrides the gorm table name.
func (Artist) TableName() string { return "artists" }

// Genre is a musical style tag, itself a first-class entity.
type Genre struct {
	Base
	Name           string `json:"name,omitempty" merge:"scalar"`
	Disambiguation string `json:"disambiguation,omitempty" merge:"scalar"`
	Summary        string `json:"summary,omitempty" merge:"scalar"`

	Links StringSet `gorm:"serializer:json" json:"links,omitempty" merge:"union"`
}

// Kind implements Entity.
func (*Genre) Kind() Kind { return KindGenre }

// TableName overrides the gorm table name.
func (Genre) TableName() string { return "genres" }

// ReleaseGroup collects the editions of one logical album, single or EP.
type ReleaseGroup struct {
	Base
	Title            string `json:"title,omitempty" merge:"scalar"`
	Disambiguation   string `json:"disambiguation,omitempty" merge:"scalar"`
	Summary          string `json:"summary,omitempty" merge:"scalar"`
	FirstReleaseDate string `json:"first_release_date,omitempty" merge:"scalar"`
	PrimaryType      string `json:"primary_type,omitempty" merge:"scalar"`

	ArtistRefs StringSet `gorm:"serializer:json" json:"artist_refs,omitempty" merge:"union"`
	GenreRefs  StringSet `gorm:"serializer:json" json:"genre_refs,omitempty" merge:"union"`
	Links      StringSet `gorm:"serializer:json" json:"links,omitempty" merge:"union"`

	Artists []*Artist `gorm:"-" json:"artists,omitempty" merge:"children:ArtistRefs"`
	Genres  []*Genre  `gorm:"-" json:"genres,omitempty" merge:"children:GenreRefs"`
}

// Kind implements Entity.
func (*ReleaseGroup) Kind() Kind { return KindReleaseGroup }

// TableName overrides the gorm table name.
func (ReleaseGroup) TableName() string { return "release_groups" }

// Release is one edition of a release group: a pressing, digital issue
// or regional variant.
type Release struct {
	Base
	Title          string `json:"title,omitempty" merge:"scalar"`
	Disambiguation string `json:"disambiguation,omitempty" merge:"scalar"`
	Date           string `json:"date,omitempty" merge:"scalar"`
	Country        string `json:"country,omitempty" merge:"scalar"`
	Status         string `json:"status,omitempty" merge:"scalar"`

	ReleaseGroupRef string    `json:"release_group_ref,omitempty" merge:"scalar"`
	MediumRefs      StringSet `gorm:"serializer:json" json:"medium_refs,omitempty" merge:"union"`
	Links           StringSet `gorm:"serializer:json" json:"links,omitempty" merge:"union"`

	Group *ReleaseGroup `gorm:"-" json:"group,omitempty" merge:"child:ReleaseGroupRef"`
	Media []*Medium     `gorm:"-" json:"media,omitempty" merge:"children:MediumRefs"`
}

// Kind implements Entity.
func (*Release) Kind() Kind { return KindRelease }

// TableName overrides the gorm table name.
func (Release) TableName() string { return "releases" }

// Medium is one disc or side of a release.
type Medium struct {
	Base
	Position   int    `json:"position,omitempty" merge:"scalar"`
	Format     string `json:"format,omitempty" merge:"scalar"`
	TrackCount int    `json:"track_count,omitempty" merge:"scalar"`

	ReleaseRef string    `json:"release_ref,omitempty" merge:"scalar"`
	TrackRefs  StringSet `gorm:"serializer:json" json:"track_refs,omitempty" merge:"union"`

	Tracks []*Track `gorm:"-" json:"tracks,omitempty" merge:"children:TrackRefs"`
}

// Kind implements Entity.
func (*Medium) Kind() Kind { return KindMedium }

// TableName overrides the gorm table name.
func (Medium) TableName() string { return "media" }

// Track is one position on a medium, pointing at the recording heard
// there.
type Track struct {
	Base
	Title    string `json:"title,omitempty" merge:"scalar"`
	Position int    `json:"position,omitempty" merge:"scalar"`
	Number   string `json:"number,omitempty" merge:"scalar"`
	LengthMS int    `json:"length_ms,omitempty" merge:"scalar"`

	MediumRef    string `json:"medium_ref,omitempty" merge:"scalar"`
	RecordingRef string `json:"recording_ref,omitempty" merge:"scalar"`

	Recording *Recording `gorm:"-" json:"recording,omitempty" merge:"child:RecordingRef"`
}

// Kind implements Entity.
func (*Track) Kind() Kind { return KindTrack }

// TableName overrides the gorm table name.
func (Track) TableName() string { return "tracks" }

// Recording is a distinct captured performance, shared by the tracks
// that reissue it.
type Recording struct {
	Base
	Title          string `json:"title,omitempty" merge:"scalar"`
	Disambiguation string `json:"disambiguation,omitempty" merge:"scalar"`
	LengthMS       int    `json:"length_ms,omitempty" merge:"scalar"`

	Links     StringSet `gorm:"serializer:json" json:"links,omitempty" merge:"union"`
	GenreRefs StringSet `gorm:"serializer:json" json:"genre_refs,omitempty" merge:"union"`

	Genres []*Genre `gorm:"-" json:"genres,omitempty" merge:"children:GenreRefs"`
}

// Kind implements Entity.
func (*Recording) Kind() Kind { return KindRecording }

// TableName overrides the gorm table name.
func (Recording) TableName() string { return "recordings" }
