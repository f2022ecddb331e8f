package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/vonnieda/dimple/core/model"
)

// NetworkMode controls whether a query may reach external providers.
type NetworkMode int

const (
	// Online consults providers, accepting cached responses.
	Online NetworkMode = iota
	// Offline consults only the local store and response caches.
	Offline
	// Force consults providers even when a cached response exists.
	Force
)

// String implements fmt.Stringer.
func (m NetworkMode) String() string {
	switch m {
	case Offline:
		return "offline"
	case Force:
		return "force"
	default:
		return "online"
	}
}

// ParseNetworkMode maps a configuration string to a NetworkMode.
func ParseNetworkMode(s string) (NetworkMode, error) {
	switch strings.ToLower(s) {
	case "", "online":
		return Online, nil
	case "offline":
		return Offline, nil
	case "force":
		return Force, nil
	default:
		return Online, fmt.Errorf("unknown network mode %q", s)
	}
}

// Provider is implemented once per external metadata source. Providers
// default to returning empty results rather than errors when a capability
// is unsupported.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Get returns the provider's view of the given entity, located by its
	// known ids, or nil when the provider doesn't know it.
	Get(ctx context.Context, e model.Entity, mode NetworkMode) (model.Entity, error)
	// List returns entities of one kind, optionally scoped to those
	// related to relatedTo (e.g. the genres of an artist).
	List(ctx context.Context, kind model.Kind, relatedTo model.Entity, mode NetworkMode) ([]model.Entity, error)
	// Search returns entities matching a free-text query.
	Search(ctx context.Context, query string, mode NetworkMode) ([]model.Entity, error)
}
