package library

// Config holds configuration for the provider aggregator.
type Config struct {
	// Enabled toggles the HTTP surface of the feature.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// NetworkMode is the default mode for queries (online, offline, force).
	NetworkMode string `mapstructure:"network_mode" default:"online"`
	// CacheDir is the directory for the provider response cache.
	CacheDir string `mapstructure:"cache_dir" default:".dimple-cache"`
	// MusicBrainzURL is the base URL of the MusicBrainz-compatible API.
	MusicBrainzURL string `mapstructure:"musicbrainz_url" default:"https://musicbrainz.org/ws/2"`
}
