// Package config loads and manages application configuration.
//
// The Config struct is the central repository for all application
// settings, divided into subsections: Server, Storage, Log, Database,
// Sync and Library. Each subsection is defined by the package that
// consumes it, keeping configuration next to the code it drives.
//
// # Sources
//
// Configuration is resolved from, in order: struct-tag defaults, a .env
// file when present, and environment variables (SERVER_PORT maps to
// server.port, SYNC_ACTOR to sync.actor, and so on).
package config
