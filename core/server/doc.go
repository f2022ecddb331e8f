// Package server holds the configuration for the HTTP surface.
//
// The Config struct defines the HTTP port and the optional API key that
// protects the endpoints. The surface itself is a thin wrapper: every
// route delegates to the library or sync services, which own all
// behavior.
package server
