package sync

// Config holds configuration for the device sync engine.
type Config struct {
	// Enabled toggles the sync feature.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Actor is this device's change-log identity. It must be stable for
	// the lifetime of the device's library; when empty, one is generated
	// and logged at startup so it can be pinned.
	Actor string `mapstructure:"actor" default:""`
	// Prefix is the object path prefix the shared segments live under.
	Prefix string `mapstructure:"prefix" default:"library"`
}
