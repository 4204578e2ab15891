package mylist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"flixvault/models"
	"flixvault/store"
)

const (
	collection = "my_list"

	clearWorkers = 4
)

var (
	ErrStoreRequired     = errors.New("record store not provided")
	ErrContentIDRequired = errors.New("content id is required")
)

// ContentResolver looks up a catalog item by its string content ID. A nil
// item (or an error) means the content is gone; list views drop such
// members instead of failing.
type ContentResolver interface {
	Resolve(ctx context.Context, contentID string) (*models.ContentItem, error)
}

// Service maintains the saved-titles list as a set of membership records in
// the record store, one record per content ID.
type Service struct {
	store store.Client
}

// NewService creates a list client over the supplied record store.
func NewService(st store.Client) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}

	return &Service{store: st}, nil
}

// Get returns the current list membership with per-item added timestamps.
func (s *Service) Get(ctx context.Context) (models.MyList, error) {
	raw, err := s.store.Fetch(ctx, collection, store.Query{
		OrderBy: "addedAt",
		Desc:    true,
	})
	if err != nil {
		return models.MyList{}, fmt.Errorf("fetch list: %w", err)
	}

	list := models.MyList{
		ContentIDs:      make([]string, 0, len(raw)),
		AddedTimestamps: make(map[string]time.Time, len(raw)),
	}
	for _, rec := range raw {
		contentID := store.StringField(rec, "contentId", "content_id")
		if contentID == "" {
			continue
		}
		if list.Contains(contentID) {
			continue
		}

		list.ContentIDs = append(list.ContentIDs, contentID)
		if ts, ok := store.TimeField(rec, "addedAt"); ok {
			list.AddedTimestamps[contentID] = ts
		}
	}

	return list, nil
}

// Items resolves the list members to their catalog items, in membership
// order (newest first). Members whose content cannot be resolved are
// silently dropped. The membership itself is returned alongside so callers
// can re-sort by added timestamp.
func (s *Service) Items(ctx context.Context, resolver ContentResolver) ([]models.ContentItem, models.MyList, error) {
	list, err := s.Get(ctx)
	if err != nil {
		return nil, models.MyList{}, err
	}

	items := make([]models.ContentItem, 0, len(list.ContentIDs))
	for _, contentID := range list.ContentIDs {
		item, err := resolver.Resolve(ctx, contentID)
		if err != nil || item == nil {
			continue
		}
		items = append(items, *item)
	}

	return items, list, nil
}

// Add puts a content ID on the list. Adding an existing member is a no-op.
func (s *Service) Add(ctx context.Context, contentID string) error {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return ErrContentIDRequired
	}

	existing, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		return fmt.Errorf("look up list entry %s: %w", contentID, err)
	}
	if len(existing) > 0 {
		return nil
	}

	results, err := s.store.Create(ctx, collection, []store.Record{{
		"id":        uuid.NewString(),
		"contentId": contentID,
		"addedAt":   time.Now().UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return fmt.Errorf("add %s to list: %w", contentID, err)
	}
	if store.LogFailures("mylist", "add", results) {
		return fmt.Errorf("add %s to list: record write rejected", contentID)
	}

	return nil
}

// Remove takes a content ID off the list. Removing a non-member is a no-op.
func (s *Service) Remove(ctx context.Context, contentID string) error {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return ErrContentIDRequired
	}

	existing, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		return fmt.Errorf("look up list entry %s: %w", contentID, err)
	}
	if len(existing) == 0 {
		return nil
	}

	ids := make([]string, 0, len(existing))
	for _, rec := range existing {
		if id := store.StringField(rec, "id"); id != "" {
			ids = append(ids, id)
		}
	}

	results, err := s.store.Delete(ctx, collection, ids)
	if err != nil {
		return fmt.Errorf("remove %s from list: %w", contentID, err)
	}
	if store.LogFailures("mylist", "remove", results) {
		return fmt.Errorf("remove %s from list: not all records removed", contentID)
	}

	return nil
}

// IsInList reports membership. Lookup failures degrade to false so browse
// surfaces render without list badges rather than erroring.
func (s *Service) IsInList(ctx context.Context, contentID string) bool {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return false
	}

	existing, err := s.fetchByContentID(ctx, contentID)
	if err != nil {
		log.Printf("[mylist] membership check failed contentId=%s: %v", contentID, err)
		return false
	}

	return len(existing) > 0
}

// Clear removes every list entry, best effort. Each entry is deleted
// independently so one failure leaves the rest of the clear running; the
// returned error reports how many entries survived.
func (s *Service) Clear(ctx context.Context) error {
	list, err := s.Get(ctx)
	if err != nil {
		return fmt.Errorf("clear list: %w", err)
	}
	if len(list.ContentIDs) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(clearWorkers)
	for _, contentID := range list.ContentIDs {
		p.Go(func() error {
			if err := s.Remove(ctx, contentID); err != nil {
				log.Printf("[mylist] clear failed contentId=%s: %v", contentID, err)
				return err
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("clear list: some entries were not removed: %w", err)
	}

	return nil
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

	return s.store.Fetch(ctx, collection, store.Query{
		Filters: []store.Filter{{Field: "content_id", Value: contentID}},
	})
}
