package merge

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/core/store"
)

// Engine matches incoming entities against the store and merges them in.
// It is the only component that mutates stored entities.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a merge engine over the given store.
func New(s *store.Store, logger *zap.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Ingest routes one incoming entity through match, merge and save, and
// returns the canonical stored row. Nested children are resolved
// recursively; the parent keeps only their keys. Candidates are scanned
// across the whole table.
func (e *Engine) Ingest(ctx context.Context, incoming model.Entity) (model.Entity, error) {
	return e.ingest(ctx, incoming, nil, e.store.Save, false)
}

// IngestScoped is Ingest with matching restricted to the given candidate
// keys, e.g. the genres of one artist instead of every genre.
func (e *Engine) IngestScoped(ctx context.Context, incoming model.Entity, scope []string) (model.Entity, error) {
	return e.ingest(ctx, incoming, scope, e.store.Save, false)
}

// IngestReplayed applies an entity reconstructed from a remote change-log
// entry. Matching is restricted to the key and known-id rules: the entry
// names the exact row its actor mutated, so field coincidence with a
// local row must not re-attribute it, otherwise the remote key never gets
// a row and later entries for it land on fragments. Rows that two
// devices created independently under the same name therefore stay
// distinct, identically on every device. The save records no local
// change-log entries; sync appends the originating entry verbatim.
func (e *Engine) IngestReplayed(ctx context.Context, incoming model.Entity) (model.Entity, error) {
	return e.ingest(ctx, incoming, nil, e.store.SaveReplayed, true)
}

type saveFunc func(context.Context, model.Entity) (model.Entity, error)

func (e *Engine) ingest(ctx context.Context, incoming model.Entity, scope []string, save saveFunc, strongOnly bool) (model.Entity, error) {
	candidates, err := e.candidates(ctx, incoming.Kind(), scope)
	if err != nil {
		return nil, err
	}

	// A strong (key or known-id) match located before children resolve
	// supplies the relationship scope for matching those children.
	strong := FindStrong(candidates, incoming)

	for _, slot := range model.Children(incoming) {
		var childScope []string
		if strong != nil {
			childScope = refKeys(strong, slot.Ref)
		}
		for _, child := range slot.Entities {
			saved, err := e.ingest(ctx, child, childScope, save, strongOnly)
			if err != nil {
				return nil, fmt.Errorf("failed to merge nested %s: %w", child.Kind(), err)
			}
			if err := model.SetRef(incoming, slot.Ref, saved.EntityKey()); err != nil {
				return nil, err
			}
		}
	}

	var existing model.Entity
	if strongOnly {
		existing = FindStrong(candidates, incoming)
	} else {
		existing = Find(candidates, incoming)
	}
	if existing == nil {
		saved, err := save(ctx, incoming)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("created entity",
			zap.String("kind", string(saved.Kind())),
			zap.String("key", saved.EntityKey()))
		return saved, nil
	}

	merged := model.Clone(existing)
	if err := model.MergeFields(merged, incoming); err != nil {
		return nil, err
	}
	saved, err := save(ctx, merged)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("merged entity",
		zap.String("kind", string(saved.Kind())),
		zap.String("key", saved.EntityKey()))
	return saved, nil
}

// candidates loads the stored rows the incoming record is matched
// against: the caller's relationship scope when given, otherwise the
// whole table.
func (e *Engine) candidates(ctx context.Context, kind model.Kind, scope []string) ([]model.Entity, error) {
	if scope != nil {
		return e.store.GetMany(ctx, kind, scope)
	}
	return e.store.List(ctx, kind)
}

// refKeys reads the resolved keys held in a reference field.
func refKeys(e model.Entity, field string) []string {
	v := reflect.ValueOf(e).Elem().FieldByName(field)
	if !v.IsValid() {
		return nil
	}
	switch ref := v.Interface().(type) {
	case model.StringSet:
		return append([]string{}, ref...)
	case string:
		if ref == "" {
			return []string{}
		}
		return []string{ref}
	default:
		return nil
	}
}
