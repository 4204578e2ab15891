package catalog_test

import (
	"testing"
	"time"

	"flixvault/models"
	"flixvault/services/catalog"
)

func sampleItems() []models.ContentItem {
	return []models.ContentItem{
		{ID: 1, Title: "Crimson Tide Rising", Synopsis: "A submarine thriller", Genres: []string{"Thriller", "Drama"}, Rating: "7.9", ReleaseYear: 2012, Cast: []string{"Ana Reyes"}},
		{ID: 2, Title: "Beneath the Waves", Synopsis: "An ocean documentary", Genres: []string{"Documentary"}, Rating: "8.7", ReleaseYear: 2021},
		{ID: 3, Title: "after the storm", Synopsis: "A quiet family drama", Genres: []string{"Drama"}, Rating: "9.1", ReleaseYear: 2019},
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	items := sampleItems()

	got := catalog.Search(items, "CRIMSON")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected item 1, got %v", got)
	}

	got = catalog.Search(items, "ocean")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected synopsis match on item 2, got %v", got)
	}

	got = catalog.Search(items, "ana reyes")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected cast match on item 1, got %v", got)
	}
}

func TestSearchBlankQueryMatchesEverything(t *testing.T) {
	items := sampleItems()

	if got := catalog.Search(items, "  "); len(got) != len(items) {
		t.Fatalf("expected full set, got %d items", len(got))
	}
}

func TestSearchNoMatchIsEmpty(t *testing.T) {
	if got := catalog.Search(sampleItems(), "zzzz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestFilterByGenre(t *testing.T) {
	items := sampleItems()

	got := catalog.Filter(items, "", "Drama")
	if len(got) != 2 {
		t.Fatalf("expected 2 dramas, got %d", len(got))
	}

	if got := catalog.Filter(items, "", catalog.AllGenres); len(got) != len(items) {
		t.Fatalf("expected All to disable the genre filter, got %d items", len(got))
	}
	if got := catalog.Filter(items, "", ""); len(got) != len(items) {
		t.Fatalf("expected blank genre to disable the filter, got %d items", len(got))
	}
}

func TestFilterCombinesQueryAndGenre(t *testing.T) {
	got := catalog.Filter(sampleItems(), "storm", "Drama")
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected item 3, got %v", got)
	}
}

func TestGenresFacet(t *testing.T) {
	genres := catalog.Genres(sampleItems())

	want := []string{"All", "Documentary", "Drama", "Thriller"}
	if len(genres) != len(want) {
		t.Fatalf("expected %v, got %v", want, genres)
	}
	for i := range want {
		if genres[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, genres)
		}
	}
}

func TestSortItems(t *testing.T) {
	items := sampleItems()

	byTitle := catalog.SortItems(items, catalog.SortByTitle, models.MyList{})
	if byTitle[0].ID != 3 || byTitle[1].ID != 2 || byTitle[2].ID != 1 {
		t.Fatalf("title sort wrong: %v %v %v", byTitle[0].ID, byTitle[1].ID, byTitle[2].ID)
	}

	byRating := catalog.SortItems(items, catalog.SortByRating, models.MyList{})
	if byRating[0].ID != 3 || byRating[2].ID != 1 {
		t.Fatalf("rating sort wrong: %v", byRating)
	}

	byYear := catalog.SortItems(items, catalog.SortByYear, models.MyList{})
	if byYear[0].ID != 2 || byYear[2].ID != 1 {
		t.Fatalf("year sort wrong: %v", byYear)
	}

	// Without membership context every item carries the zero time, so the
	// added sort keeps the catalog order.
	byAdded := catalog.SortItems(items, catalog.SortByAdded, models.MyList{})
	for i := range items {
		if byAdded[i].ID != items[i].ID {
			t.Fatalf("added sort without a list must keep catalog order, got %v", byAdded)
		}
	}
}

func TestSortByAddedUsesMembershipRecency(t *testing.T) {
	items := sampleItems()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Item 3 joined the list after item 1; item 2 is not a member.
	list := models.MyList{
		ContentIDs: []string{"1", "3"},
		AddedTimestamps: map[string]time.Time{
			"1": base,
			"3": base.Add(time.Hour),
		},
	}

	got := catalog.SortItems(items, catalog.SortByAdded, list)
	if got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("expected added-desc order [3 1], got [%d %d]", got[0].ID, got[1].ID)
	}
	if got[2].ID != 2 {
		t.Fatalf("expected the non-member to sort last, got %d", got[2].ID)
	}
}

func TestParseSortKeyDefaultsToAdded(t *testing.T) {
	if key := catalog.ParseSortKey("RATING"); key != catalog.SortByRating {
		t.Fatalf("expected rating, got %s", key)
	}
	if key := catalog.ParseSortKey("bogus"); key != catalog.SortByAdded {
		t.Fatalf("expected added fallback, got %s", key)
	}
}

func TestBuildView(t *testing.T) {
	view := catalog.BuildView(sampleItems(), "the", "", catalog.SortByTitle, models.MyList{})

	if view.Genre != catalog.AllGenres {
		t.Fatalf("expected genre to default to All, got %q", view.Genre)
	}
	if view.ID == "" {
		t.Fatal("expected a view id")
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 matches for 'the', got %d", len(view.Items))
	}
	if view.Items[0].ID != 3 {
		t.Fatalf("expected title sort inside the view, got item %d first", view.Items[0].ID)
	}
	if len(view.Genres) == 0 || view.Genres[0] != catalog.AllGenres {
		t.Fatalf("expected facet list starting with All, got %v", view.Genres)
	}
}
