package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"flixvault/models"
	"flixvault/store"
)

const collection = "content"

const (
	trendingMinRating = 8.5
	newReleaseYear    = 2015
)

var (
	ErrStoreRequired    = errors.New("record store not provided")
	ErrSeedPathRequired = errors.New("seed path is required")
)

// Service serves the content catalog out of the record store.
type Service struct {
	store store.Client
}

// NewService creates a catalog client over the supplied record store.
func NewService(st store.Client) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}

	return &Service{store: st}, nil
}

// GetAll returns the full catalog.
func (s *Service) GetAll(ctx context.Context) ([]models.ContentItem, error) {
	raw, err := s.store.Fetch(ctx, collection, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	items := make([]models.ContentItem, 0, len(raw))
	for _, rec := range raw {
		item, err := decodeItem(rec)
		if err != nil {
			log.Printf("[catalog] skipping malformed record %s: %v", store.StringField(rec, "id"), err)
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

// GetByID returns a catalog item by numeric ID, or nil when it does not
// exist or the store cannot be reached.
func (s *Service) GetByID(ctx context.Context, id int) *models.ContentItem {
	raw, err := s.store.Fetch(ctx, collection, store.Query{
		Filters: []store.Filter{{Field: "Id", Value: id}},
		Limit:   1,
	})
	if err != nil {
		log.Printf("[catalog] lookup failed id=%d: %v", id, err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	item, err := decodeItem(raw[0])
	if err != nil {
		log.Printf("[catalog] malformed record id=%d: %v", id, err)
		return nil
	}

	return &item
}

// Resolve looks up a catalog item by its string content ID. Unparseable and
// unknown IDs both resolve to nil without error.
func (s *Service) Resolve(ctx context.Context, contentID string) (*models.ContentItem, error) {
	id, err := strconv.Atoi(strings.TrimSpace(contentID))
	if err != nil {
		return nil, nil
	}

	return s.GetByID(ctx, id), nil
}

// Featured returns the hero item for the browse page: the highest rated
// title, falling back to the first catalog entry.
func (s *Service) Featured(ctx context.Context) (*models.ContentItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	featured := items[0]
	for _, item := range items[1:] {
		if item.RatingValue() > featured.RatingValue() {
			featured = item
		}
	}

	return &featured, nil
}

// ByGenre returns catalog items carrying the given genre.
func (s *Service) ByGenre(ctx context.Context, genre string) ([]models.ContentItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.HasGenre(genre) {
			out = append(out, item)
		}
	}

	return out, nil
}

// ByType returns catalog items of the given type ("movie" or "series").
func (s *Service) ByType(ctx context.Context, contentType string) ([]models.ContentItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if strings.EqualFold(item.Type, contentType) {
			out = append(out, item)
		}
	}

	return out, nil
}

// Trending returns highly rated titles, best first.
func (s *Service) Trending(ctx context.Context) ([]models.ContentItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.RatingValue() >= trendingMinRating {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RatingValue() > out[j].RatingValue()
	})

	return out, nil
}

// NewReleases returns recent titles, newest first.
func (s *Service) NewReleases(ctx context.Context) ([]models.ContentItem, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.ReleaseYear >= newReleaseYear {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleaseYear > out[j].ReleaseYear
	})

	return out, nil
}

// Seed loads the catalog from a JSON file into the record store. Items
// already present (by ID) are left untouched, so reseeding is safe.
func (s *Service) Seed(ctx context.Context, fs afero.Fs, path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrSeedPathRequired
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read catalog seed: %w", err)
	}

	var items []models.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode catalog seed: %w", err)
	}

	var records []store.Record
	for _, item := range items {
		if existing := s.GetByID(ctx, item.ID); existing != nil {
			continue
		}

		rec, err := encodeItem(item)
		if err != nil {
			return fmt.Errorf("encode catalog item %d: %w", item.ID, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}

	results, err := s.store.Create(ctx, collection, records)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if store.LogFailures("catalog", "seed", results) {
		return fmt.Errorf("seed catalog: some items were rejected")
	}

	log.Printf("[catalog] seeded %d items from %s", len(records), path)
	return nil
}

// decodeItem converts a raw record into a catalog item by a JSON round trip.
// The store's identity key is stripped first so it cannot shadow the numeric
// item ID.
func decodeItem(rec store.Record) (models.ContentItem, error) {
	fields := make(store.Record, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		fields[k] = v
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return models.ContentItem{}, err
	}

	var item models.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return models.ContentItem{}, err
	}
	return item, nil
}

func encodeItem(item models.ContentItem) (store.Record, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	rec := store.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	rec["id"] = item.ContentID()
	return rec, nil
}
