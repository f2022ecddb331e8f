package library

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/merge"
	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/core/store"
)

// Librarian aggregates external providers over the canonical store.
type Librarian struct {
	store     *store.Store
	merger    *merge.Engine
	providers []Provider
	logger    *zap.Logger
}

// New creates a librarian. Providers are consulted in the order given,
// which stays stable for the lifetime of the librarian.
func New(s *store.Store, m *merge.Engine, providers []Provider, logger *zap.Logger) *Librarian {
	return &Librarian{store: s, merger: m, providers: providers, logger: logger}
}

// Search answers a free-text query from the local store plus, network
// mode permitting, every configured provider. Provider results are merged
// into the store first, so the returned entities are always canonical
// local rows. Results are deduplicated by key.
func (l *Librarian) Search(ctx context.Context, query string, mode NetworkMode) ([]model.Entity, error) {
	seen := make(map[string]bool)
	var results []model.Entity

	if mode != Offline {
		for _, p := range l.providers {
			found, err := p.Search(ctx, query, mode)
			if err != nil {
				// Provider unavailability degrades to partial data.
				l.logger.Warn("provider search failed",
					zap.String("provider", p.Name()), zap.Error(err))
				continue
			}
			for _, e := range found {
				canonical, err := l.merger.Ingest(ctx, e)
				if err != nil {
					return nil, fmt.Errorf("failed to merge result from %s: %w", p.Name(), err)
				}
				if !seen[canonical.EntityKey()] {
					seen[canonical.EntityKey()] = true
					results = append(results, canonical)
				}
			}
		}
	}

	local, err := l.searchLocal(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, e := range local {
		if !seen[e.EntityKey()] {
			seen[e.EntityKey()] = true
			results = append(results, e)
		}
	}
	return results, nil
}

// Fetch returns the canonical value of the given entity, refreshing it
// from providers when the network mode permits. In Offline mode only the
// store is consulted and a missing row yields store.ErrNotFound.
func (l *Librarian) Fetch(ctx context.Context, e model.Entity, mode NetworkMode) (model.Entity, error) {
	local, err := l.store.Get(ctx, e.Kind(), e.EntityKey())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if mode == Offline {
		if local == nil {
			return nil, store.ErrNotFound
		}
		return local, nil
	}

	lookup := e
	if local != nil {
		lookup = local
	}
	for _, p := range l.providers {
		remote, err := p.Get(ctx, lookup, mode)
		if err != nil {
			l.logger.Warn("provider get failed",
				zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		if remote == nil {
			continue
		}
		canonical, err := l.merger.Ingest(ctx, remote)
		if err != nil {
			return nil, fmt.Errorf("failed to merge result from %s: %w", p.Name(), err)
		}
		local = canonical
	}

	if local == nil {
		return nil, store.ErrNotFound
	}
	return local, nil
}

// Refresh re-fetches an entity and its provider-listed relations (e.g.
// the genres of an artist), merging everything into the store.
func (l *Librarian) Refresh(ctx context.Context, e model.Entity, mode NetworkMode) error {
	if mode == Offline {
		return nil
	}

	canonical, err := l.Fetch(ctx, e, mode)
	if err != nil {
		return err
	}

	for _, p := range l.providers {
		related, err := p.List(ctx, model.KindGenre, canonical, mode)
		if err != nil {
			l.logger.Warn("provider list failed",
				zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		for _, r := range related {
			if _, err := l.merger.Ingest(ctx, r); err != nil {
				return fmt.Errorf("failed to merge related %s from %s: %w", r.Kind(), p.Name(), err)
			}
		}
	}
	return nil
}

// searchLocal scans the store tables whose display fields can match a
// free-text query.
func (l *Librarian) searchLocal(ctx context.Context, query string) ([]model.Entity, error) {
	like := "%" + query + "%"

	var out []model.Entity
	byName := []model.Kind{model.KindArtist, model.KindGenre}
	for _, kind := range byName {
		found, err := l.store.Query(ctx, kind, "name LIKE ?", like)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	byTitle := []model.Kind{model.KindReleaseGroup, model.KindRelease, model.KindRecording, model.KindTrack}
	for _, kind := range byTitle {
		found, err := l.store.Query(ctx, kind, "title LIKE ?", like)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
