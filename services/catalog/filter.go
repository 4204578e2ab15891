package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"flixvault/models"
)

// AllGenres is the facet value that disables genre filtering.
const AllGenres = "All"

// SortKey selects the ordering of a filtered catalog view.
type SortKey string

const (
	SortByAdded  SortKey = "added"
	SortByTitle  SortKey = "title"
	SortByRating SortKey = "rating"
	SortByYear   SortKey = "year"
)

// fold case-folds for caseless matching. A cases.Caser carries state, so a
// fresh one is built per call rather than shared across requests.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ParseSortKey maps a request parameter onto a sort key, defaulting to the
// catalog order for unknown values.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByTitle:
		return SortByTitle
	case SortByRating:
		return SortByRating
	case SortByYear:
		return SortByYear
	default:
		return SortByAdded
	}
}

// Search returns the items whose title, synopsis, genres or cast contain the
// query, case-insensitively. A blank query matches everything.
func Search(items []models.ContentItem, query string) []models.ContentItem {
	query = fold(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if matchesQuery(item, query) {
			out = append(out, item)
		}
	}

	return out
}

// Filter narrows items by free-text query and genre facet. The AllGenres
// facet value (or a blank one) leaves the genre dimension unfiltered.
func Filter(items []models.ContentItem, query, genre string) []models.ContentItem {
	out := Search(items, query)

	genre = strings.TrimSpace(genre)
	if genre == "" || strings.EqualFold(genre, AllGenres) {
		return out
	}

	filtered := make([]models.ContentItem, 0, len(out))
	for _, item := range out {
		if item.HasGenre(genre) {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

// Genres returns the distinct genres across items, sorted, with the
// AllGenres facet prepended.
func Genres(items []models.ContentItem) []string {
	seen := map[string]bool{}
	for _, item := range items {
		for _, g := range item.Genres {
			if g = strings.TrimSpace(g); g != "" {
				seen[g] = true
			}
		}
	}

	genres := make([]string, 0, len(seen)+1)
	for g := range seen {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	return append([]string{AllGenres}, genres...)
}

// SortItems orders a copy of items by the given key. Ties keep their
// incoming order. The added key orders by list membership recency, newest
// first; items without a membership timestamp carry the zero time and sort
// oldest.
func SortItems(items []models.ContentItem, key SortKey, list models.MyList) []models.ContentItem {
	out := make([]models.ContentItem, len(items))
	copy(out, items)

	switch key {
	case SortByAdded:
		sort.SliceStable(out, func(i, j int) bool {
			return list.AddedAt(out[i].ContentID()).After(list.AddedAt(out[j].ContentID()))
		})
	case SortByTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return fold(out[i].Title) < fold(out[j].Title)
		})
	case SortByRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RatingValue() > out[j].RatingValue()
		})
	case SortByYear:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReleaseYear > out[j].ReleaseYear
		})
	}

	return out
}

// View is one rendered browse query: the filtered, sorted items plus the
// facets the request resolved to.
type View struct {
	ID     string               `json:"id"`
	Query  string               `json:"query"`
	Genre  string               `json:"genre"`
	Sort   SortKey              `json:"sort"`
	Items  []models.ContentItem `json:"items"`
	Genres []string             `json:"genres"`
	At     time.Time            `json:"at"`
}

// BuildView runs the full browse pipeline over a catalog snapshot. The list
// feeds the added sort; pass a zero MyList when no membership context
// applies.
func BuildView(items []models.ContentItem, query, genre string, key SortKey, list models.MyList) View {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		genre = AllGenres
	}

	return View{
		ID:     uuid.NewString(),
		Query:  strings.TrimSpace(query),
		Genre:  genre,
		Sort:   key,
		Items:  SortItems(Filter(items, query, genre), key, list),
		Genres: Genres(items),
		At:     time.Now().UTC(),
	}
}

func matchesQuery(item models.ContentItem, folded string) bool {
	if strings.Contains(fold(item.Title), folded) {
		return true
	}
	if strings.Contains(fold(item.Synopsis), folded) {
		return true
	}
	for _, g := range item.Genres {
		if strings.Contains(fold(g), folded) {
			return true
		}
	}
	for _, name := range item.Cast {
		if strings.Contains(fold(name), folded) {
			return true
		}
	}
	return false
}
