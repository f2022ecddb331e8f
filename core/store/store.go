package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vonnieda/dimple/core/model"
)

// ErrNotFound is returned when a requested key has no row. It is an
// empty-result condition, never a panic.
var ErrNotFound = errors.New("entity not found")

// Store is the durable keyed model store: one table per entity kind plus
// the change log, entity heads, and a best-effort notifier.
type Store struct {
	db       *gorm.DB
	mu       sync.RWMutex
	actor    string
	seq      *sequence
	notifier *Notifier
	logger   *zap.Logger
}

// New migrates the schema and returns a store writing change-log entries
// as the given actor. The notifier may be nil to disable notifications.
func New(db *gorm.DB, actor string, notifier *Notifier, logger *zap.Logger) (*Store, error) {
	if actor == "" {
		return nil, fmt.Errorf("store requires a non-empty actor id")
	}
	migrations := []any{&Change{}, &EntityHead{}}
	for _, kind := range model.Kinds() {
		proto, err := model.New(kind)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, proto)
	}
	if err := db.AutoMigrate(migrations...); err != nil {
		return nil, fmt.Errorf("failed to migrate model store: %w", err)
	}

	return &Store{
		db:       db,
		actor:    actor,
		seq:      newSequence(),
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Actor returns the change-log actor identity of this store.
func (s *Store) Actor() string { return s.actor }

// Notifier returns the store's notifier, or nil when disabled.
func (s *Store) Notifier() *Notifier { return s.notifier }

// DB exposes the underlying connection for collaborators that keep their
// own bookkeeping tables (sync cursors) in the same database.
func (s *Store) DB() *gorm.DB { return s.db }

// Save persists the entity, assigning a key if absent, and records one
// change-log entry per changed field. It returns the freshly-read row.
// Saving an unchanged value is a no-op; saving a new entity with no
// populated fields is rejected.
func (s *Store) Save(ctx context.Context, e model.Entity) (model.Entity, error) {
	return s.save(ctx, e, true)
}

// SaveReplayed persists the entity without recording change-log entries.
// Sync replay uses it so that remote changes are applied once and logged
// verbatim, never re-attributed to this actor.
func (s *Store) SaveReplayed(ctx context.Context, e model.Entity) (model.Entity, error) {
	return s.save(ctx, e, false)
}

func (s *Store) save(ctx context.Context, e model.Entity, record bool) (model.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.EntityKey() == "" {
		e.SetEntityKey(uuid.NewString())
	}

	existing, err := s.getLocked(ctx, e.Kind(), e.EntityKey())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	changes := model.Diff(existing, e)
	if len(changes) == 0 {
		if existing != nil {
			return existing, nil
		}
		// A row without a single recorded field would exist locally but
		// never appear in the change log, so it could never sync.
		return nil, fmt.Errorf("refusing to save %s with no fields set", e.Kind())
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(e).Error; err != nil {
		return nil, fmt.Errorf("failed to save %s %s: %w", e.Kind(), e.EntityKey(), err)
	}

	if record && len(changes) > 0 {
		if err := s.record(ctx, e, changes); err != nil {
			return nil, fmt.Errorf("failed to record changes for %s %s: %w", e.Kind(), e.EntityKey(), err)
		}
	}

	saved, err := s.getLocked(ctx, e.Kind(), e.EntityKey())
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && len(changes) > 0 {
		fields := make([]string, 0, len(changes))
		for _, c := range changes {
			fields = append(fields, c.Field)
		}
		s.notifier.Publish(Event{Kind: e.Kind(), Key: e.EntityKey(), Fields: fields})
	}

	return saved, nil
}

// Get returns the entity with the given key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, kind model.Kind, key string) (model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.getLocked(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// getLocked reads a row under whichever lock the caller holds. Returns
// (nil, ErrNotFound) when the key is absent.
func (s *Store) getLocked(ctx context.Context, kind model.Kind, key string) (model.Entity, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	e, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Where("key = ?", key).First(e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s %s: %w", kind, key, err)
	}
	return e, nil
}

// List returns every entity of the given kind.
func (s *Store) List(ctx context.Context, kind model.Kind) ([]model.Entity, error) {
	return s.Query(ctx, kind, "")
}

// Query returns the entities of the given kind matching a SQL-ish filter
// condition, e.g. Query(ctx, KindArtist, "name = ?", "Tool"). An empty
// condition returns the whole table.
func (s *Store) Query(ctx context.Context, kind model.Kind, cond string, args ...any) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proto, err := model.New(kind)
	if err != nil {
		return nil, err
	}

	slicePtr := reflect.New(reflect.SliceOf(reflect.TypeOf(proto).Elem()))
	q := s.db.WithContext(ctx).Model(proto)
	if cond != "" {
		q = q.Where(cond, args...)
	}
	if err := q.Find(slicePtr.Interface()).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}

	items := slicePtr.Elem()
	out := make([]model.Entity, 0, items.Len())
	for i := 0; i < items.Len(); i++ {
		out = append(out, items.Index(i).Addr().Interface().(model.Entity))
	}
	return out, nil
}

// GetMany returns the entities of the given kind whose keys are in keys.
// Missing keys are skipped, not errors.
func (s *Store) GetMany(ctx context.Context, kind model.Kind, keys []string) ([]model.Entity, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return s.Query(ctx, kind, "key IN ?", keys)
}
