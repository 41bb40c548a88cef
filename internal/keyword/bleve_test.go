package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vibelabs/vibesearch/internal/models"
)

func testIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "places.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestBleveIndex_IndexAndSearch(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	places := []*models.Place{
		{
			PlaceID:      "p1",
			Name:         "Daily Grind",
			Neighborhood: "Upper West Side",
			Description:  "Quiet espresso bar with single-origin beans.",
			Tags:         []string{"coffee", "wifi"},
			Reviews:      []string{"best espresso in the neighborhood"},
		},
		{
			PlaceID:      "p2",
			Name:         "Noodle House",
			Neighborhood: "Chinatown",
			Description:  "Hand-pulled noodles.",
			Tags:         []string{"noodles"},
		},
	}
	for _, p := range places {
		if err := idx.Index(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	results, err := idx.Search(ctx, "espresso", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "p1" {
		t.Errorf("got %+v", results)
	}
	if results[0].Score <= 0 {
		t.Errorf("expected positive BM25 score, got %v", results[0].Score)
	}

	count, err := idx.DocCount()
	if err != nil || count != 2 {
		t.Errorf("DocCount: %d, %v", count, err)
	}
}

func TestBleveIndex_SearchReviews(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Place{
		PlaceID: "p1",
		Name:    "Corner Bar",
		Reviews: []string{"amazing negroni", "great for dates"},
	})

	results, err := idx.Search(ctx, "negroni", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("review text should be searchable, got %+v", results)
	}
}

func TestBleveIndex_NameBoost(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Place{
		PlaceID:     "named",
		Name:        "Tacos El Rey",
		Description: "Mexican street food.",
	})
	_ = idx.Index(ctx, &models.Place{
		PlaceID:     "mentioned",
		Name:        "Food Court",
		Description: "Has a stall that sells tacos among other things, tacos tacos.",
	})

	results, err := idx.Search(ctx, "tacos", 10, &SearchOptions{NameBoost: 5.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both places, got %+v", results)
	}
	if results[0].ID != "named" {
		t.Errorf("name match should rank first with boost, got %+v", results)
	}
}

func TestBleveIndex_FuzzySearch(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Place{PlaceID: "p1", Name: "Espresso Lab", Description: "coffee"})

	results, err := idx.Search(ctx, "expresso", 10, &SearchOptions{FuzzyEnabled: true, Fuzziness: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("fuzzy search should tolerate the typo, got %+v", results)
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Place{PlaceID: "p1", Name: "Gone Soon"})
	if err := idx.Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	results, _ := idx.Search(ctx, "gone", 10, nil)
	if len(results) != 0 {
		t.Errorf("expected no results after delete, got %+v", results)
	}
}

func TestBleveIndex_TermDictionary(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, &models.Place{PlaceID: "p1", Name: "Ramen Spot", Description: "tonkotsu broth"})

	ok, err := idx.ContainsTerm("tonkotsu")
	if err != nil || !ok {
		t.Errorf("ContainsTerm(tonkotsu): %v, %v", ok, err)
	}
	ok, _ = idx.ContainsTerm("pizza")
	if ok {
		t.Error("pizza should not be in the dictionary")
	}

	terms, err := idx.GetAllTerms()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, term := range terms {
		if term == "ramen" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'ramen' in term dictionary, got %d terms", len(terms))
	}
}
