package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vibelabs/vibesearch/internal/models"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPlaces(t *testing.T) {
	path := writeCSV(t, "places.csv",
		"place_id,name,neighborhood,latitude,longitude,tags,description,emoji\n"+
			`p1,Daily Grind,Upper West Side,40.78,-73.97,"[""coffee"",""cafe""]",Cozy espresso bar,☕`+"\n"+
			"p2,Nonna's,West Village,,,\"italian, pasta\",Red sauce joint,🍝\n"+
			"p1,Duplicate,,,,,,\n")

	places, err := LoadPlaces(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places (duplicate dropped), got %d", len(places))
	}
	p := places[0]
	if p.PlaceID != "p1" || p.Name != "Daily Grind" || p.Emoji != "☕" {
		t.Errorf("unexpected place: %+v", p)
	}
	if p.Latitude == nil || *p.Latitude != 40.78 {
		t.Errorf("latitude not parsed: %v", p.Latitude)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "coffee" {
		t.Errorf("JSON tags not parsed: %v", p.Tags)
	}
	if tags := places[1].Tags; len(tags) != 2 || tags[0] != "italian" || tags[1] != "pasta" {
		t.Errorf("comma tags not parsed: %v", tags)
	}
	if places[1].Latitude != nil {
		t.Error("empty latitude should stay nil")
	}
}

func TestLoadPlaces_missingColumn(t *testing.T) {
	path := writeCSV(t, "places.csv", "id,name\n1,x\n")
	if _, err := LoadPlaces(path); err == nil {
		t.Fatal("expected error for missing place_id column")
	}
}

func TestLoadReviews_dedup(t *testing.T) {
	path := writeCSV(t, "reviews.csv",
		"place_id,review_text\n"+
			"p1,Great coffee\n"+
			"p1,Great coffee\n"+
			"p1,Quiet spot\n"+
			"p2,Great coffee\n")

	reviews, err := LoadReviews(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reviews["p1"]; len(got) != 2 {
		t.Errorf("duplicate (place, text) pair should collapse, got %v", got)
	}
	if got := reviews["p2"]; len(got) != 1 {
		t.Errorf("same text for another place must survive, got %v", got)
	}
}

func TestLoadMedia_dedup(t *testing.T) {
	path := writeCSV(t, "media.csv",
		"place_id,media_url\n"+
			"p1,https://img/1.jpg\n"+
			"p1,https://img/1.jpg\n"+
			"p1,https://img/2.jpg\n")

	media, err := LoadMedia(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := media["p1"]; len(got) != 2 {
		t.Errorf("expected 2 urls after dedup, got %v", got)
	}
}

func TestLoadImageEmbeddings(t *testing.T) {
	path := writeCSV(t, "images.csv",
		"place_id,image_embedding\n"+
			`p1,"[0.1, 0.2, 0.3]"`+"\n")

	vecs, err := LoadImageEmbeddings(path)
	if err != nil {
		t.Fatal(err)
	}
	v := vecs["p1"]
	if len(v) != 3 || v[1] != 0.2 {
		t.Errorf("unexpected vector: %v", v)
	}
}

func TestLoadImageEmbeddings_invalid(t *testing.T) {
	path := writeCSV(t, "images.csv", "place_id,image_embedding\np1,not-json\n")
	if _, err := LoadImageEmbeddings(path); err == nil {
		t.Fatal("expected error for malformed embedding")
	}
}

func TestMergeDatasets(t *testing.T) {
	places := []*models.Place{
		{PlaceID: "p1", Name: "Daily Grind"},
		{PlaceID: "p2", Name: "No Reviews"},
		{PlaceID: "p3", Name: "No Media"},
	}
	reviews := map[string][]string{
		"p1": {"Great coffee"},
		"p3": {"Lonely review"},
	}
	media := map[string][]string{
		"p1": {"https://img/1.jpg"},
		"p2": {"https://img/2.jpg"},
	}

	records := MergeDatasets(places, reviews, media)
	if len(records) != 1 {
		t.Fatalf("inner join should keep only p1, got %d records", len(records))
	}
	rec := records[0]
	if rec.Place.PlaceID != "p1" {
		t.Errorf("unexpected record: %+v", rec.Place)
	}
	if len(rec.Place.Reviews) != 1 || rec.Place.Reviews[0] != "Great coffee" {
		t.Errorf("reviews not attached: %v", rec.Place.Reviews)
	}
	if rec.CombinedText == "" {
		t.Error("combined text not built")
	}
}

func TestBuildCombinedText(t *testing.T) {
	lat := 40.78
	p := &models.Place{
		PlaceID:      "p1",
		Name:         "Daily Grind",
		Neighborhood: "Upper West Side",
		Latitude:     &lat,
		Tags:         []string{"coffee", "cafe"},
		Description:  "Cozy espresso bar",
		Reviews:      []string{"Great coffee", "Quiet spot"},
	}
	got := BuildCombinedText(p)
	want := "Daily Grind, Upper West Side. coffee, cafe. Cozy espresso bar. Great coffee Quiet spot"
	if got != want {
		t.Errorf("combined text = %q, want %q", got, want)
	}

	minimal := BuildCombinedText(&models.Place{PlaceID: "p2", Name: "Bare"})
	if minimal != "Bare" {
		t.Errorf("minimal place text = %q", minimal)
	}
}
