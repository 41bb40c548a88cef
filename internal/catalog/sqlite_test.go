package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vibelabs/vibesearch/internal/models"
)

func TestSQLiteCatalog_CRUD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	cat, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	lat := 40.786
	lon := -73.975
	place := &models.Place{
		PlaceID:      "p1",
		Name:         "Daily Grind",
		Neighborhood: "Upper West Side",
		Latitude:     &lat,
		Longitude:    &lon,
		Tags:         []string{"coffee", "wifi"},
		Description:  "A quiet espresso bar.",
		Emoji:        "☕",
	}
	if err := cat.UpsertPlace(ctx, place); err != nil {
		t.Fatal(err)
	}

	got, err := cat.GetPlace(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Daily Grind" || got.Neighborhood != "Upper West Side" {
		t.Errorf("got %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Errorf("latitude not round-tripped: %v", got.Latitude)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "coffee" {
		t.Errorf("tags not round-tripped: %v", got.Tags)
	}

	place.Description = "Updated."
	if err := cat.UpsertPlace(ctx, place); err != nil {
		t.Fatal(err)
	}
	got, _ = cat.GetPlace(ctx, "p1")
	if got.Description != "Updated." {
		t.Errorf("upsert did not replace: %s", got.Description)
	}

	list, err := cat.ListPlaces(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 place, got %d", len(list))
	}

	if err := cat.DeletePlace(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.GetPlace(ctx, "p1"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestSQLiteCatalog_Reviews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.db")
	cat, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	_ = cat.UpsertPlace(ctx, &models.Place{PlaceID: "p1", Name: "Spot"})
	if err := cat.AddReviews(ctx, "p1", []string{"great", "cozy", "loud"}); err != nil {
		t.Fatal(err)
	}

	reviews, err := cat.GetReviews(ctx, "p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 3 || reviews[0] != "great" {
		t.Errorf("got %v", reviews)
	}

	limited, _ := cat.GetReviews(ctx, "p1", 2)
	if len(limited) != 2 {
		t.Errorf("expected 2 reviews, got %d", len(limited))
	}

	got, err := cat.GetPlace(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reviews) != 3 {
		t.Errorf("GetPlace should attach reviews, got %d", len(got.Reviews))
	}
}

func TestSQLiteCatalog_GetPlaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.db")
	cat, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	places := []*models.Place{
		{PlaceID: "a", Name: "A"},
		{PlaceID: "b", Name: "B"},
		{PlaceID: "c", Name: "C"},
	}
	if err := cat.BatchUpsertPlaces(ctx, places); err != nil {
		t.Fatal(err)
	}
	_ = cat.AddReviews(ctx, "b", []string{"nice"})

	got, err := cat.GetPlaces(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 places, got %d", len(got))
	}
	if got["b"].Reviews[0] != "nice" {
		t.Errorf("reviews not attached in bulk fetch: %+v", got["b"])
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id should be absent")
	}

	empty, err := cat.GetPlaces(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty id list: %v, %v", empty, err)
	}
}

func TestSQLiteCatalog_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.db")
	cat, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	ctx := context.Background()

	n, err := cat.CountPlaces(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountPlaces: %v, %d", err, n)
	}
	_ = cat.UpsertPlace(ctx, &models.Place{PlaceID: "x", Name: "X"})
	_ = cat.AddReviews(ctx, "x", []string{"one", "two"})
	n, _ = cat.CountPlaces(ctx)
	if n != 1 {
		t.Errorf("expected 1 place, got %d", n)
	}
	n, _ = cat.CountReviews(ctx)
	if n != 2 {
		t.Errorf("expected 2 reviews, got %d", n)
	}
}
