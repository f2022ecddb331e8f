// Package model defines the typed entity records managed by the library
// engine: artists, release groups, releases, media, tracks, recordings
// and genres.
//
// # Entities
//
// Every entity embeds Base, which carries the opaque store key and the set
// of externally-sourced identifiers (KnownIDs). Keys are assigned by the
// store on first save and never change. Known ids tie a local row to a
// record in an external catalog and are the strongest matching signal.
//
// # Field semantics
//
// Merge and change-log behavior is declared per field through the `merge`
// struct tag:
//
//   - scalar          last-non-null-wins: an incoming non-zero value
//     overwrites, an incoming zero value never erases.
//   - union           set-valued, merges by union, never shrinks.
//   - ids             the known-id map, merges by union per source.
//   - children:<Ref>  transient nested entities on an incoming value;
//     persisted as key references in the named set field.
//   - child:<Ref>     single transient nested entity; persisted as a key
//     reference in the named scalar field.
//
// The tag grammar is interpreted by reflection in fields.go, which
// provides Diff, ApplyChange and MergeFields over any entity kind.
//
// # Relationships
//
// Entities never embed other entities by value in storage. A Release
// references its Media by key, a Track references its Recording by key,
// and so on. Nested values appear only transiently on incoming records
// (provider results, imports) and are resolved to references during merge.
package model
