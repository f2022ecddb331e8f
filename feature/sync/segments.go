package sync

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/vonnieda/dimple/core/store"
)

// segmentRef identifies one remote segment object.
type segmentRef struct {
	Actor string
	Seq   string
	Path  string
}

// segmentPath builds the object name for a segment: the actor that wrote
// it plus the sequence id it was published under.
func segmentPath(prefix, actor, seq string) string {
	return path.Join(prefix, "changes", actor, seq+".json")
}

// parseSegmentPath extracts the actor and sequence id from an object
// name, returning false for objects that are not segments.
func parseSegmentPath(prefix, objectPath string) (segmentRef, bool) {
	base := path.Join(prefix, "changes") + "/"
	if !strings.HasPrefix(objectPath, base) {
		return segmentRef{}, false
	}
	rest := strings.TrimPrefix(objectPath, base)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || !strings.HasSuffix(parts[1], ".json") {
		return segmentRef{}, false
	}
	return segmentRef{
		Actor: parts[0],
		Seq:   strings.TrimSuffix(parts[1], ".json"),
		Path:  objectPath,
	}, true
}

// encodeSegment serializes change-log entries for upload.
func encodeSegment(entries []store.Change) ([]byte, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode segment: %w", err)
	}
	return data, nil
}

// decodeSegment deserializes a downloaded segment.
func decodeSegment(data []byte) ([]store.Change, error) {
	var entries []store.Change
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode segment: %w", err)
	}
	return entries, nil
}

// Cursor is the durable per-actor high-water mark: the newest segment
// sequence id already replayed from that actor, or, for this device's own
// actor, the newest entry already uploaded.
type Cursor struct {
	Actor string `gorm:"primaryKey;column:actor"`
	SeqID string `gorm:"column:seq_id"`
}

// TableName overrides the gorm table name.
func (Cursor) TableName() string { return "sync_cursors" }
