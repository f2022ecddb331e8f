// Package store implements the durable model store: one gorm table per
// entity kind, an append-only change log, and a best-effort change
// notifier.
//
// # Writes
//
// Saves are serialized behind a mutex over the shared connection. A save
// assigns a key if the entity has none, diffs the value against the
// current row, performs a single atomic upsert, appends one change-log
// row per changed field, advances the entity-head row, and returns the
// freshly-read value. Reads run concurrently with each other.
//
// # Change log
//
// Every field-level mutation is recorded as a Change row keyed by a ULID
// sequence id: monotonically increasing for this actor, and
// lexicographically time-ordered across actors. The log is append-only
// and is the unit of transfer for device sync. Rows replayed from remote
// actors are inserted verbatim (original actor and sequence id) through
// AppendRemote, never re-recorded.
//
// # Notifications
//
// Saves publish an Event on a bounded channel. Delivery is explicitly
// best-effort: when no consumer keeps up the event is dropped, and a save
// is durable once the write returns regardless of notification fate.
package store
