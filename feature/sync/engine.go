package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/vonnieda/dimple/core/merge"
	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/core/storage"
	"github.com/vonnieda/dimple/core/store"
)

// Report summarizes one completed sync cycle.
type Report struct {
	// SegmentsDownloaded is the number of remote segments fetched.
	SegmentsDownloaded int `json:"segments_downloaded"`
	// EntriesReplayed is the number of remote entries applied locally.
	EntriesReplayed int `json:"entries_replayed"`
	// EntriesSkipped is the number of remote entries already present.
	EntriesSkipped int `json:"entries_skipped"`
	// EntriesUploaded is the number of local entries published.
	EntriesUploaded int `json:"entries_uploaded"`
}

// Engine runs pull/merge/push sync cycles against the shared bucket. It
// is stateless between invocations beyond the durable cursors.
type Engine struct {
	store  *store.Store
	merger *merge.Engine
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewEngine creates a sync engine and migrates its cursor table in the
// store's database.
func NewEngine(s *store.Store, m *merge.Engine, client storage.Client, bucket string, cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := s.DB().AutoMigrate(&Cursor{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sync cursors: %w", err)
	}
	return &Engine{
		store:  s,
		merger: m,
		client: client,
		bucket: bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// Sync runs one full cycle: list remote segments, download anything newer
// than the per-actor high-water marks, replay the downloaded entries in
// global sequence order, then upload this device's entries since the last
// upload. Any error aborts the cycle with all cursors untouched.
func (e *Engine) Sync(ctx context.Context) (*Report, error) {
	if err := e.ensureBucket(ctx); err != nil {
		return nil, err
	}

	report := &Report{}

	segments, err := e.listRemote(ctx)
	if err != nil {
		return nil, err
	}

	cursors, err := e.loadCursors()
	if err != nil {
		return nil, err
	}

	var pending []segmentRef
	for _, seg := range segments {
		if seg.Actor == e.store.Actor() {
			continue
		}
		if seg.Seq <= cursors[seg.Actor] {
			continue
		}
		pending = append(pending, seg)
	}

	entries, err := e.download(ctx, pending)
	if err != nil {
		return nil, err
	}
	report.SegmentsDownloaded = len(pending)

	if err := e.replay(ctx, entries, report); err != nil {
		return nil, err
	}

	// Replay landed; advance the per-actor marks to the newest replayed
	// segment so the next cycle skips them.
	for _, seg := range pending {
		if seg.Seq > cursors[seg.Actor] {
			cursors[seg.Actor] = seg.Seq
			if err := e.saveCursor(Cursor{Actor: seg.Actor, SeqID: seg.Seq}); err != nil {
				return nil, err
			}
		}
	}

	if err := e.upload(ctx, cursors[e.store.Actor()], report); err != nil {
		return nil, err
	}

	e.logger.Info("sync cycle complete",
		zap.Int("segments_downloaded", report.SegmentsDownloaded),
		zap.Int("entries_replayed", report.EntriesReplayed),
		zap.Int("entries_skipped", report.EntriesSkipped),
		zap.Int("entries_uploaded", report.EntriesUploaded))

	return report, nil
}

func (e *Engine) ensureBucket(ctx context.Context) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", e.bucket, err)
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", e.bucket, err)
		}
	}
	return nil
}

// listRemote enumerates every segment object under the shared prefix.
func (e *Engine) listRemote(ctx context.Context) ([]segmentRef, error) {
	var segments []segmentRef
	objects := e.client.ListObjects(ctx, e.bucket, minio.ListObjectsOptions{
		Prefix:    e.prefix + "/changes/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list remote segments: %w", obj.Err)
		}
		if ref, ok := parseSegmentPath(e.prefix, obj.Key); ok {
			segments = append(segments, ref)
		}
	}
	return segments, nil
}

// download fetches the pending segments and returns their entries merged
// into one slice sorted by ascending sequence id across all actors.
func (e *Engine) download(ctx context.Context, pending []segmentRef) ([]store.Change, error) {
	var entries []store.Change
	for _, seg := range pending {
		obj, err := e.client.GetObject(ctx, e.bucket, seg.Path, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to download segment %s: %w", seg.Path, err)
		}
		data, err := io.ReadAll(obj)
		obj.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read segment %s: %w", seg.Path, err)
		}
		segEntries, err := decodeSegment(data)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", seg.Path, err)
		}
		entries = append(entries, segEntries...)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SeqID < entries[j].SeqID
	})
	return entries, nil
}

// replay applies remote entries through the merge engine. Each entry
// becomes a single-field incoming entity routed exactly as if it had
// arrived from a provider; the original entry is then appended to the
// local log verbatim so the next replay of the same segment is a no-op.
func (e *Engine) replay(ctx context.Context, entries []store.Change, report *Report) error {
	for _, entry := range entries {
		applied, err := e.replayOne(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to replay entry %s: %w", entry.SeqID, err)
		}
		if applied {
			report.EntriesReplayed++
		} else {
			report.EntriesSkipped++
		}
	}
	return nil
}

func (e *Engine) replayOne(ctx context.Context, entry store.Change) (bool, error) {
	seen, err := e.store.HasChange(ctx, entry.SeqID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	incoming, err := model.New(model.Kind(entry.Kind))
	if err != nil {
		return false, err
	}
	incoming.SetEntityKey(entry.EntityKey)
	if err := model.ApplyChange(incoming, entry.Field, entry.Value); err != nil {
		return false, err
	}

	if _, err := e.merger.IngestReplayed(ctx, incoming); err != nil {
		return false, err
	}
	if err := e.store.AppendRemote(ctx, []store.Change{entry}); err != nil {
		return false, err
	}

	head, err := e.store.Head(ctx, entry.EntityKey)
	if err != nil {
		return false, err
	}
	if entry.SeqID > head {
		if err := e.store.SetHead(ctx, model.Kind(entry.Kind), entry.EntityKey, entry.SeqID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// upload publishes this actor's entries newer than the upload mark as one
// fresh segment.
func (e *Engine) upload(ctx context.Context, since string, report *Report) error {
	actor := e.store.Actor()
	entries, err := e.store.EntriesByActorSince(ctx, actor, since)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := encodeSegment(entries)
	if err != nil {
		return err
	}

	objectPath := segmentPath(e.prefix, actor, e.store.NextSeq())
	_, err = e.client.PutObject(ctx, e.bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload segment %s: %w", objectPath, err)
	}

	report.EntriesUploaded = len(entries)
	return e.saveCursor(Cursor{Actor: actor, SeqID: entries[len(entries)-1].SeqID})
}

func (e *Engine) loadCursors() (map[string]string, error) {
	var rows []Cursor
	if err := e.store.DB().Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sync cursors: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Actor] = row.SeqID
	}
	return out, nil
}

func (e *Engine) saveCursor(c Cursor) error {
	err := e.store.DB().
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "actor"}}, UpdateAll: true}).
		Create(&c).Error
	if err != nil {
		return fmt.Errorf("failed to save sync cursor for %s: %w", c.Actor, err)
	}
	return nil
}
