// Package e2e exercises the full stack: CSV datasets through the ingest
// pipeline into real indices, served over HTTP.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vibelabs/vibesearch/internal/catalog"
	"github.com/vibelabs/vibesearch/internal/config"
	"github.com/vibelabs/vibesearch/internal/embedding"
	"github.com/vibelabs/vibesearch/internal/ingest"
	"github.com/vibelabs/vibesearch/internal/models"
	"github.com/vibelabs/vibesearch/internal/search"
	"github.com/vibelabs/vibesearch/internal/server"
	"github.com/vibelabs/vibesearch/internal/vector"
)

const placesCSV = `place_id,name,neighborhood,latitude,longitude,tags,description,emoji
p1,Daily Grind,Upper West Side,40.78,-73.97,"[""coffee"",""cafe""]",Cozy espresso bar with single-origin pour overs,☕
p2,Nonna's,West Village,40.73,-74.00,"[""italian"",""pasta""]",Classic red sauce Italian with handmade pasta,🍝
p3,Skyline Lounge,Midtown,40.76,-73.98,"[""bar"",""rooftop""]",Rooftop cocktail bar with skyline views,🍸
`

const reviewsCSV = `place_id,review_text
p1,Great coffee and friendly baristas
p1,Quiet spot to work in the morning
p2,Best carbonara downtown
p3,Stunning views at sunset
`

const mediaCSV = `place_id,media_url
p1,https://img/1.jpg
p2,https://img/2.jpg
p3,https://img/3.jpg
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// buildStack ingests the fixture CSVs and returns a running test server.
func buildStack(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	placesPath := writeFixture(t, dir, "places.csv", placesCSV)
	reviewsPath := writeFixture(t, dir, "reviews.csv", reviewsCSV)
	mediaPath := writeFixture(t, dir, "media.csv", mediaCSV)

	places, err := ingest.LoadPlaces(placesPath)
	if err != nil {
		t.Fatal(err)
	}
	reviews, err := ingest.LoadReviews(reviewsPath)
	if err != nil {
		t.Fatal(err)
	}
	media, err := ingest.LoadMedia(mediaPath)
	if err != nil {
		t.Fatal(err)
	}
	records := ingest.MergeDatasets(places, reviews, media)
	if len(records) != 3 {
		t.Fatalf("expected 3 merged records, got %d", len(records))
	}

	cat, err := catalog.NewSQLiteCatalog(filepath.Join(dir, "places.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cat.Close() })

	embedder := embedding.NewMockEmbedder(16)
	sparseEmbedder := embedding.NewMockSparseEmbedder(256)
	denseIdx, err := vector.NewMemoryIndex(16, vector.MetricInnerProduct)
	if err != nil {
		t.Fatal(err)
	}
	sparseIdx, err := vector.NewSparseIndex(256)
	if err != nil {
		t.Fatal(err)
	}

	pipeline, err := ingest.NewPipeline(cat, embedder, denseIdx, 2, zap.NewNop(),
		ingest.WithSparse(sparseEmbedder, sparseIdx))
	if err != nil {
		t.Fatal(err)
	}
	defer pipeline.Release()
	if _, err := pipeline.Run(context.Background(), records, nil); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Search.ModalityTimeout = 5 * time.Second

	engine := search.NewEngine(
		search.NewDenseRetriever(embedder, denseIdx),
		search.NewSparseRetriever(sparseEmbedder, sparseIdx),
		nil,
		cat,
		&cfg.Search,
		zap.NewNop(),
	)
	srv := server.NewServer(engine, cat, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestE2E_HybridSearch(t *testing.T) {
	ts := buildStack(t)

	resp, err := http.Get(ts.URL + "/search?q=cozy+espresso+bar")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body models.HybridResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) == 0 {
		t.Fatal("expected results")
	}
	top := body.Results[0]
	if top.PlaceID == "" || top.Name == "" {
		t.Errorf("result missing identity fields: %+v", top)
	}
	for i := 1; i < len(body.Results); i++ {
		if body.Results[i].HybridScore > body.Results[i-1].HybridScore {
			t.Errorf("results not sorted by hybrid score at %d", i)
		}
	}
}

func TestE2E_PostSearch(t *testing.T) {
	ts := buildStack(t)

	resp, err := http.Post(ts.URL+"/search", "application/json",
		jsonBody(t, &models.SearchQuery{Query: "rooftop cocktails", TopK: 2}))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Query != "rooftop cocktails" {
		t.Errorf("query echo = %q", body.Query)
	}
	if len(body.Places) > 2 {
		t.Errorf("top_k not honored: %d places", len(body.Places))
	}
}

func TestE2E_PlaceLookupAndStatus(t *testing.T) {
	ts := buildStack(t)

	resp, err := http.Get(ts.URL + "/places/p1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("place lookup status = %d", resp.StatusCode)
	}
	var place models.Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		t.Fatal(err)
	}
	if place.Name != "Daily Grind" || len(place.Reviews) != 2 {
		t.Errorf("place incomplete: %+v", place)
	}

	statusResp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer statusResp.Body.Close()
	var status struct {
		Places  int64 `json:"places"`
		Reviews int64 `json:"reviews"`
	}
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Places != 3 || status.Reviews != 4 {
		t.Errorf("status counts = %+v", status)
	}
}
