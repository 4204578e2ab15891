package progress

import (
	"context"
	"sort"

	"flixvault/models"
)

// ContentResolver looks up a catalog item by its string content ID. A nil
// item (or an error) means the content is gone; the deriver drops such
// entries instead of failing.
type ContentResolver interface {
	Resolve(ctx context.Context, contentID string) (*models.ContentItem, error)
}

// InProgress filters records down to partially watched content, most recent
// first. Records at exactly 0 or at/after 1 are excluded: nothing watched and
// finished titles both have no place on a continue-watching shelf.
func InProgress(records []models.ProgressRecord) []models.ProgressRecord {
	out := make([]models.ProgressRecord, 0, len(records))
	for _, rec := range records {
		if rec.Progress > 0 && rec.Progress < 1 {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// ContinueWatching derives the continue-watching shelf: in-progress records
// paired with their catalog items. Records whose content cannot be resolved
// are silently dropped.
func (s *Service) ContinueWatching(ctx context.Context, resolver ContentResolver) ([]models.ContinueWatchingEntry, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ContinueWatchingEntry, 0, len(records))
	for _, rec := range InProgress(records) {
		item, err := resolver.Resolve(ctx, rec.ContentID)
		if err != nil || item == nil {
			continue
		}
		entries = append(entries, models.ContinueWatchingEntry{
			Record:  rec,
			Content: *item,
		})
	}

	return entries, nil
}
