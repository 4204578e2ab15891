package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flixvault/models"
	"flixvault/store"
)

const collection = "watch_progress"

// CompletionThreshold is the fraction at which a title counts as watched.
// The 95% cutoff is a product contract, not an implementation shortcut:
// credits and outros mean most viewers never reach exactly 1.0.
const CompletionThreshold = 0.95

var (
	ErrStoreRequired     = errors.New("record store not provided")
	ErrContentIDRequired = errors.New("content id is required")
)

// Service reads and writes watch-progress records through the record store,
// normalizing the remote field shapes into models.ProgressRecord.
type Service struct {
	store store.Client

	// keyMu serializes the exists-check-then-write upsert per content ID so
	// rapid ticks for one title cannot create duplicate records. Completion
	// order of the remote writes themselves is still not guaranteed; see the
	// package tests for the documented stale-write race.
	mu    sync.Mutex
	keyMu map[string]*sync.Mutex
}

// NewService creates a progress client over the supplied record store.
func NewService(st store.Client) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}

	return &Service{
		store: st,
		keyMu: make(map[string]*sync.Mutex),
	}, nil
}

// GetAll fetches every stored progress record, most recent first.
func (s *Service) GetAll(ctx context.Context) ([]models.ProgressRecord, error) {
	raw, err := s.store.Fetch(ctx, collection, store.Query{
		OrderBy: "timestamp",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch progress records: %w", err)
	}

	records := make([]models.ProgressRecord, 0, len(raw))
	for _, rec := range raw {
		records = append(records, normalizeRecord(rec))
	}

	return records, nil
}

// GetByContentID returns the progress record for one content ID, or nil when
// none exists. Remote failures degrade to nil as well: playback must start
// even when history is unavailable.
func (s *Service) GetByContentID(ctx context.Context, contentID string) *models.ProgressRecord {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil
	}

	raw, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		log.Printf("[progress] lookup failed contentId=%s: %v", contentID, err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	record := normalizeRecord(raw[0])
	return &record
}

// UpdateProgress upserts the progress fraction for a content ID. The record
// keeps a single identity per content ID; completed is recomputed on every
// write. Safe to call on every playback tick.
func (s *Service) UpdateProgress(ctx context.Context, contentID string, progress float64) (models.ProgressRecord, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return models.ProgressRecord{}, ErrContentIDRequired
	}

	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	lock := s.lockFor(contentID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("look up progress for %s: %w", contentID, err)
	}

	record := models.ProgressRecord{
		ContentID: contentID,
		Progress:  progress,
		Completed: progress >= CompletionThreshold,
		Timestamp: time.Now().UTC(),
	}

	if len(existing) > 0 {
		record.ID = store.StringField(existing[0], "id")
		results, err := s.store.Update(ctx, collection, []store.Record{encodeRecord(record)})
		if err != nil {
			return models.ProgressRecord{}, fmt.Errorf("update progress for %s: %w", contentID, err)
		}
		if store.LogFailures("progress", "update", results) {
			return models.ProgressRecord{}, fmt.Errorf("update progress for %s: record write rejected", contentID)
		}
		return record, nil
	}

	record.ID = uuid.NewString()
	results, err := s.store.Create(ctx, collection, []store.Record{encodeRecord(record)})
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("create progress for %s: %w", contentID, err)
	}
	if store.LogFailures("progress", "create", results) {
		return models.ProgressRecord{}, fmt.Errorf("create progress for %s: record write rejected", contentID)
	}

	return record, nil
}

// Delete removes all progress records for a content ID and reports whether
// any existed.
func (s *Service) Delete(ctx context.Context, contentID string) (bool, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return false, ErrContentIDRequired
	}

	lock := s.lockFor(contentID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		return false, fmt.Errorf("look up progress for %s: %w", contentID, err)
	}
	if len(existing) == 0 {
		return false, nil
	}

	ids := make([]string, 0, len(existing))
	for _, rec := range existing {
		if id := store.StringField(rec, "id"); id != "" {
			ids = append(ids, id)
		}
	}

	results, err := s.store.Delete(ctx, collection, ids)
	if err != nil {
		return false, fmt.Errorf("delete progress for %s: %w", contentID, err)
	}
	if store.LogFailures("progress", "delete", results) {
		return false, fmt.Errorf("delete progress for %s: not all records removed", contentID)
	}

	return true, nil
}

func (s *Service) fetchByContentID(ctx context.Context, contentID string) ([]store.Record, error) {
	raw, err := s.store.Fetch(ctx, collection, store.Query{
		Filters: []store.Filter{{Field: "contentId", Value: contentID}},
	})
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		return raw, nil
	}

	// Older records reference content through a snake_case field.
	raw, err = s.store.Fetch(ctx, collection, store.Query{
		Filters: []store.Filter{{Field: "content_id", Value: contentID}},
	})
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		return raw, nil
	}

	// Nested reference objects ({"contentId": {"Id": 9}}) do not match the
	// equality filters, so scan and compare the normalized key. Missing them
	// here would split one logical content ID across two records.
	all, err := s.store.Fetch(ctx, collection, store.Query{})
	if err != nil {
		return nil, err
	}

	var matched []store.Record
	for _, rec := range all {
		if normalizeRecord(rec).ContentID == contentID {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func (s *Service) lockFor(contentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.keyMu[contentID]
	if !ok {
		lock = &sync.Mutex{}
		s.keyMu[contentID] = lock
	}
	return lock
}

// normalizeRecord coalesces the remote field variants into the canonical
// record shape. The content reference arrives either as a bare id under
// "contentId"/"content_id" or as a nested reference object; timestamps may
// be RFC 3339 text or Unix milliseconds.
func normalizeRecord(rec store.Record) models.ProgressRecord {
	record := models.ProgressRecord{
		ID:        store.StringField(rec, "id", "Id"),
		ContentID: store.StringField(rec, "contentId", "content_id"),
	}

	if p, ok := store.FloatField(rec, "progress"); ok {
		record.Progress = p
	}
	record.Completed = store.BoolField(rec, "completed")

	if ts, ok := store.TimeField(rec, "timestamp"); ok {
		record.Timestamp = ts
	} else {
		record.Timestamp = time.Now().UTC()
	}

	return record
}

func encodeRecord(record models.ProgressRecord) store.Record {
	return store.Record{
		"id":        record.ID,
		"contentId": record.ContentID,
		"progress":  record.Progress,
		"completed": record.Completed,
		"timestamp": record.Timestamp.Format(time.RFC3339Nano),
	}
}
