package store

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vonnieda/dimple/core/model"
)

// OpSet is the only change operation the engine produces: a field was set
// to a new value. Merges never delete.
const OpSet = "set"

// Change is one field-level mutation in the append-only change log.
type Change struct {
	// SeqID is a ULID: time-prefixed, lexicographically sortable, unique
	// across actors. It is the unit of sync ordering.
	SeqID string `gorm:"primaryKey;column:seq_id" json:"seq_id"`
	// Actor is the device/process identity that originated the change.
	Actor string `gorm:"index" json:"actor"`
	// At is the wall-clock time of origin. Informational only; ordering
	// uses SeqID.
	At time.Time `json:"at"`
	// Kind is the entity type the change applies to.
	Kind string `json:"kind"`
	// EntityKey is the store key of the mutated entity.
	EntityKey string `gorm:"index" json:"entity_key"`
	// Op is the operation, always OpSet.
	Op string `json:"op"`
	// Field is the entity struct field name.
	Field string `json:"field"`
	// Value is the canonical string encoding of the new value.
	Value string `json:"value"`
}

// TableName overrides the gorm table name.
func (Change) TableName() string { return "changes" }

// EntityHead maps an entity key to the latest sequence id applied to it.
type EntityHead struct {
	EntityKey string `gorm:"primaryKey;column:entity_key"`
	Kind      string
	SeqID     string `gorm:"column:seq_id"`
}

// TableName overrides the gorm table name.
func (EntityHead) TableName() string { return "entity_heads" }

// sequence generates ULIDs that are monotonic within this process.
type sequence struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newSequence() *sequence {
	seed := time.Now().UnixNano()
	return &sequence{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

func (s *sequence) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// NextSeq returns a fresh sequence id from this store's generator. Used
// by the sync engine to name uploaded segments.
func (s *Store) NextSeq() string {
	return s.seq.next()
}

// EntriesSince returns all change-log entries with a sequence id strictly
// greater than since, across all actors, in ascending order. An empty
// since returns the whole log.
func (s *Store) EntriesSince(ctx context.Context, since string) ([]Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Change
	q := s.db.WithContext(ctx).Order("seq_id asc")
	if since != "" {
		q = q.Where("seq_id > ?", since)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// EntriesByActorSince returns this actor's entries newer than since, in
// ascending order.
func (s *Store) EntriesByActorSince(ctx context.Context, actor, since string) ([]Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Change
	q := s.db.WithContext(ctx).Where("actor = ?", actor).Order("seq_id asc")
	if since != "" {
		q = q.Where("seq_id > ?", since)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// HasChange reports whether the given sequence id is already in the log.
func (s *Store) HasChange(ctx context.Context, seq string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.db.WithContext(ctx).Model(&Change{}).Where("seq_id = ?", seq).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendRemote inserts replayed entries verbatim, preserving their
// originating actor and sequence id. Entries already present are left
// untouched, which makes segment re-replay a no-op.
func (s *Store) AppendRemote(ctx context.Context, entries []Change) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
}

// Head returns the latest sequence id applied to an entity, or "" when
// the entity has no recorded changes.
func (s *Store) Head(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var head EntityHead
	err := s.db.WithContext(ctx).Where("entity_key = ?", key).First(&head).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return head.SeqID, nil
}

// record appends one change row per field change and advances the entity
// head. Caller holds the write lock.
func (s *Store) record(ctx context.Context, e model.Entity, changes []model.FieldChange) error {
	now := time.Now().UTC()
	rows := make([]Change, 0, len(changes))
	var last string
	for _, c := range changes {
		last = s.seq.next()
		rows = append(rows, Change{
			SeqID:     last,
			Actor:     s.actor,
			At:        now,
			Kind:      string(e.Kind()),
			EntityKey: e.EntityKey(),
			Op:        OpSet,
			Field:     c.Field,
			Value:     c.Value,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	head := EntityHead{EntityKey: e.EntityKey(), Kind: string(e.Kind()), SeqID: last}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "entity_key"}}, UpdateAll: true}).
		Create(&head).Error
}

// SetHead advances the entity-head row directly. Used by sync replay,
// where change rows are appended verbatim rather than recorded.
func (s *Store) SetHead(ctx context.Context, kind model.Kind, key, seq string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := EntityHead{EntityKey: key, Kind: string(kind), SeqID: seq}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "entity_key"}}, UpdateAll: true}).
		Create(&head).Error
}
