package merge

import (
	"strconv"
	"strings"

	"github.com/vonnieda/dimple/core/model"
)

// Matches reports whether candidate and stored denote the same real-world
// entity under any sufficient condition: shared key, shared known id, or
// equal normalized discriminating fields.
func Matches(candidate, stored model.Entity) bool {
	return matchesStrong(candidate, stored) || matchesFields(candidate, stored)
}

// Find scans the stored candidates for the at-most-one equivalence class
// the incoming record belongs to. Key and known-id matches are resolved
// in a first pass so they always take priority over field matches; within
// a pass the first match wins. Returns nil when the record is new.
func Find(candidates []model.Entity, incoming model.Entity) model.Entity {
	for _, c := range candidates {
		if matchesStrong(incoming, c) {
			return c
		}
	}
	for _, c := range candidates {
		if matchesFields(incoming, c) {
			return c
		}
	}
	return nil
}

// FindStrong is Find restricted to the key and known-id rules. The merge
// engine uses it to locate an existing parent before nested children are
// resolved, since field identity may depend on resolved references.
func FindStrong(candidates []model.Entity, incoming model.Entity) model.Entity {
	for _, c := range candidates {
		if matchesStrong(incoming, c) {
			return c
		}
	}
	return nil
}

func matchesStrong(candidate, stored model.Entity) bool {
	if candidate.Kind() != stored.Kind() {
		return false
	}
	if candidate.EntityKey() != "" && candidate.EntityKey() == stored.EntityKey() {
		return true
	}
	return candidate.ExternalIDs().SharesAny(stored.ExternalIDs())
}

func matchesFields(candidate, stored model.Entity) bool {
	if candidate.Kind() != stored.Kind() {
		return false
	}
	ci, si := identity(candidate), identity(stored)
	return ci != "" && ci == si
}

// identity returns the normalized discriminating-field key for an entity,
// or "" when the discriminating fields are absent. Kinds are a closed
// union, so this is an exhaustive switch rather than dynamic dispatch.
func identity(e model.Entity) string {
	switch v := e.(type) {
	case *model.Artist:
		return join(norm(v.Name), norm(v.Disambiguation))
	case *model.Genre:
		return join(norm(v.Name), norm(v.Disambiguation))
	case *model.Recording:
		return join(norm(v.Title), norm(v.Disambiguation))
	case *model.ReleaseGroup:
		return join(norm(v.Title), strings.Join(v.ArtistRefs, ","))
	case *model.Release:
		return join(norm(v.Title), norm(v.Disambiguation), v.Date)
	case *model.Medium:
		// Position and resolved track keys: both exist on incoming values,
		// unlike the parent release key, which only the stored row carries.
		if v.Position == 0 {
			return ""
		}
		return join(strconv.Itoa(v.Position), strings.Join(v.TrackRefs, ","))
	case *model.Track:
		return join(norm(v.Title), v.RecordingRef)
	default:
		return ""
	}
}

// norm lower-cases and collapses runs of whitespace so that cosmetic
// differences between catalogs don't defeat a match.
func norm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// join builds an identity key, empty when the leading component is empty.
func join(parts ...string) string {
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	return strings.Join(parts, "\x1f")
}
