// Package merge decides when two entity values denote the same
// real-world thing and combines matched pairs into one canonical value.
//
// # Matching
//
// Matching is an ordered set of independent sufficient conditions: same
// non-empty store key, any shared known id of the same source, or equal
// normalized discriminating fields (name plus disambiguation for artists
// and genres, title plus resolved recording for tracks, and so on).
// Candidate scans run in two passes, key/id rules before field rules, so
// an external-id match always defeats a name match when both would hit
// different rows. For release groups this yields the key, then known-id,
// then (artist, title) fallback chain.
//
// # Merging
//
// The Engine routes every incoming record, whether from a provider, a
// local import, or sync replay, through the same pipeline: resolve nested
// children recursively, find the at-most-one stored row the record
// belongs to, fold the incoming fields in (scalar last-non-null-wins, set
// union), and save. Merging the same value twice is a no-op; applying
// sources in a different order can pick different scalar winners, which
// is an accepted trade-off of last-non-null-wins.
package merge
