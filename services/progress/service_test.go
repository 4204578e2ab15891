package progress_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flixvault/models"
	"flixvault/services/progress"
	"flixvault/store"
)

func newTestService(t *testing.T) (*progress.Service, store.Client) {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := progress.NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := progress.NewService(nil); !errors.Is(err, progress.ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}

func TestUpdateProgressCreatesThenUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.UpdateProgress(ctx, "7", 0.25)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a record id")
	}

	second, err := svc.UpdateProgress(ctx, "7", 0.5)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second record: %s vs %s", second.ID, first.ID)
	}

	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	if all[0].Progress != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", all[0].Progress)
	}
}

func TestCompletionThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		progress  float64
		completed bool
	}{
		{0, false},
		{0.5, false},
		{0.94, false},
		{0.95, true},
		{1.0, true},
	}

	for _, tc := range cases {
		record, err := svc.UpdateProgress(ctx, "7", tc.progress)
		if err != nil {
			t.Fatalf("update %v: %v", tc.progress, err)
		}
		if record.Completed != tc.completed {
			t.Fatalf("progress %v: expected completed=%v", tc.progress, tc.completed)
		}
	}
}

func TestUpdateProgressClampsFraction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	record, err := svc.UpdateProgress(ctx, "7", 1.7)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if record.Progress != 1 {
		t.Fatalf("expected clamp to 1, got %v", record.Progress)
	}

	record, err = svc.UpdateProgress(ctx, "7", -0.3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if record.Progress != 0 {
		t.Fatalf("expected clamp to 0, got %v", record.Progress)
	}
}

func TestUpdateProgressRequiresContentID(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.UpdateProgress(context.Background(), "  ", 0.5); !errors.Is(err, progress.ErrContentIDRequired) {
		t.Fatalf("expected ErrContentIDRequired, got %v", err)
	}
}

func TestGetByContentIDNormalizesLegacyFields(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Legacy rows use snake_case keys and millisecond timestamps.
	_, err := db.Create(ctx, "watch_progress", []store.Record{{
		"content_id": "9",
		"progress":   0.6,
		"completed":  false,
		"timestamp":  float64(1767225600000),
	}})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	record := svc.GetByContentID(ctx, "9")
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.ContentID != "9" {
		t.Fatalf("expected contentId 9, got %q", record.ContentID)
	}
	if record.Progress != 0.6 {
		t.Fatalf("expected progress 0.6, got %v", record.Progress)
	}
	if record.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be parsed")
	}
}

func TestUpdateProgressFindsNestedReferenceRecords(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Some collections reference content through a nested object instead of
	// a bare id. The upsert must still treat it as the same content ID.
	_, err := db.Create(ctx, "watch_progress", []store.Record{{
		"contentId": map[string]any{"Id": 9},
		"progress":  0.4,
		"completed": false,
		"timestamp": "2026-08-01T12:00:00Z",
	}})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	record, err := svc.UpdateProgress(ctx, "9", 0.5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if record.Progress != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", record.Progress)
	}

	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("at most one record per contentId; got %d", len(all))
	}
	if all[0].ContentID != "9" || all[0].Progress != 0.5 {
		t.Fatalf("unexpected record: %+v", all[0])
	}

	// The lookup path sees the nested form too.
	if got := svc.GetByContentID(ctx, "9"); got == nil || got.Progress != 0.5 {
		t.Fatalf("expected nested-reference record to be found, got %+v", got)
	}
}

func TestGetByContentIDSoftFails(t *testing.T) {
	svc, err := progress.NewService(failingStore{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if record := svc.GetByContentID(context.Background(), "7"); record != nil {
		t.Fatalf("expected nil on store failure, got %+v", record)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	existed, err := svc.Delete(ctx, "7")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if existed {
		t.Fatal("expected existed=false for unknown content")
	}

	if _, err := svc.UpdateProgress(ctx, "7", 0.5); err != nil {
		t.Fatalf("update: %v", err)
	}

	existed, err = svc.Delete(ctx, "7")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !existed {
		t.Fatal("expected existed=true")
	}
	if record := svc.GetByContentID(ctx, "7"); record != nil {
		t.Fatal("expected record gone after delete")
	}
}

func TestInProgressFiltersAndSorts(t *testing.T) {
	now := time.Now().UTC()
	records := []models.ProgressRecord{
		{ContentID: "1", Progress: 0, Timestamp: now},
		{ContentID: "2", Progress: 0.4, Timestamp: now.Add(-2 * time.Hour)},
		{ContentID: "3", Progress: 1, Timestamp: now},
		{ContentID: "4", Progress: 0.9, Timestamp: now.Add(-1 * time.Hour)},
	}

	got := progress.InProgress(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 in-progress records, got %d", len(got))
	}
	if got[0].ContentID != "4" || got[1].ContentID != "2" {
		t.Fatalf("expected order [4 2], got [%s %s]", got[0].ContentID, got[1].ContentID)
	}
}

func TestContinueWatchingDropsUnresolvable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, upd := range []struct {
		contentID string
		progress  float64
	}{
		{"7", 0.5},
		{"8", 0.3},
		{"9", 1.0},
	} {
		if _, err := svc.UpdateProgress(ctx, upd.contentID, upd.progress); err != nil {
			t.Fatalf("update %s: %v", upd.contentID, err)
		}
	}

	resolver := staticResolver{
		"7": {ID: 7, Title: "Known Title"},
		// 8 is missing from the catalog
		"9": {ID: 9, Title: "Finished Title"},
	}

	entries, err := svc.ContinueWatching(ctx, resolver)
	if err != nil {
		t.Fatalf("continue watching: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Content.Title != "Known Title" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

type staticResolver map[string]*models.ContentItem

func (r staticResolver) Resolve(_ context.Context, contentID string) (*models.ContentItem, error) {
	return r[contentID], nil
}

type failingStore struct{}

func (failingStore) Fetch(context.Context, string, store.Query) ([]store.Record, error) {
	return nil, store.ErrUnavailable
}

func (failingStore) Create(context.Context, string, []store.Record) ([]store.Result, error) {
	return nil, store.ErrUnavailable
}

func (failingStore) Update(context.Context, string, []store.Record) ([]store.Result, error) {
	return nil, store.ErrUnavailable
}

func (failingStore) Delete(context.Context, string, []string) ([]store.Result, error) {
	return nil, store.ErrUnavailable
}
