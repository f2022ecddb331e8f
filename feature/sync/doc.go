// Package sync exchanges change-log segments with a shared object-storage
// bucket so that every device belonging to the same user converges on one
// library, with no central server.
//
// # Cycle
//
// One sync invocation walks a fixed sequence of phases:
//
//	Idle -> ListingRemote -> Downloading -> Replaying -> Uploading -> Idle
//
// Remote segments are objects named <prefix>/changes/<actor>/<seq>.json,
// each holding the JSON-encoded change-log entries of one upload. The
// engine lists them, downloads those newer than the per-actor high-water
// mark, replays every downloaded entry in one global ascending sequence
// order through the merge engine, and finally uploads this device's own
// entries since the last upload as a fresh segment. Replay resolves rows
// by key and known id only, never by field coincidence: the entry names
// the exact row its actor mutated, and rows two devices created
// independently under the same name stay distinct on every device.
//
// # Conflicts and failure
//
// A scalar field set by two actors resolves to whichever entry replays
// last in aggregate sequence order (last-non-null-wins by sequence id,
// not wall clock). Replaying an entry that is already in the local log is
// a no-op, so re-downloaded segments and crashes mid-batch are safe. Any
// storage error aborts the cycle with all high-water marks untouched;
// the next cycle simply retries.
package sync
