// Package ingest builds the catalog and search indices from the raw CSV
// datasets (places, reviews, media, precomputed image embeddings).
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Record is one merged dataset row: a place with its aggregated reviews and
// media, plus the combined text used for embedding.
type Record struct {
	Place        *models.Place
	MediaURLs    []string
	CombinedText string
}

type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSV(path string, required ...string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, name)
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return &csvTable{cols: cols, rows: rows}, nil
}

func (t *csvTable) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadPlaces reads the places CSV. Latitude/longitude and tags are optional;
// tags may be a JSON array or a comma-separated list.
func LoadPlaces(path string) ([]*models.Place, error) {
	t, err := readCSV(path, "place_id", "name")
	if err != nil {
		return nil, err
	}
	places := make([]*models.Place, 0, len(t.rows))
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "place_id")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p := &models.Place{
			PlaceID:      id,
			Name:         t.get(row, "name"),
			Neighborhood: t.get(row, "neighborhood"),
			Description:  t.get(row, "description"),
			Emoji:        t.get(row, "emoji"),
			Tags:         parseTags(t.get(row, "tags")),
		}
		if v, err := strconv.ParseFloat(t.get(row, "latitude"), 64); err == nil {
			p.Latitude = &v
		}
		if v, err := strconv.ParseFloat(t.get(row, "longitude"), 64); err == nil {
			p.Longitude = &v
		}
		places = append(places, p)
	}
	return places, nil
}

func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(s), &tags); err == nil {
			return tags
		}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// LoadReviews reads the reviews CSV and groups review texts by place_id,
// dropping duplicate (place_id, review_text) pairs.
func LoadReviews(path string) (map[string][]string, error) {
	t, err := readCSV(path, "place_id", "review_text")
	if err != nil {
		return nil, err
	}
	reviews := make(map[string][]string)
	seen := make(map[string]bool)
	for _, row := range t.rows {
		id := t.get(row, "place_id")
		text := t.get(row, "review_text")
		if id == "" || text == "" {
			continue
		}
		key := id + "\x00" + text
		if seen[key] {
			continue
		}
		seen[key] = true
		reviews[id] = append(reviews[id], text)
	}
	return reviews, nil
}

// LoadMedia reads the media CSV and groups media URLs by place_id, dropping
// duplicate (place_id, media_url) pairs.
func LoadMedia(path string) (map[string][]string, error) {
	t, err := readCSV(path, "place_id", "media_url")
	if err != nil {
		return nil, err
	}
	media := make(map[string][]string)
	seen := make(map[string]bool)
	for _, row := range t.rows {
		id := t.get(row, "place_id")
		url := t.get(row, "media_url")
		if id == "" || url == "" {
			continue
		}
		key := id + "\x00" + url
		if seen[key] {
			continue
		}
		seen[key] = true
		media[id] = append(media[id], url)
	}
	return media, nil
}

// LoadImageEmbeddings reads the precomputed image-embedding CSV. The
// image_embedding column holds a JSON float array per row.
func LoadImageEmbeddings(path string) (map[string][]float32, error) {
	t, err := readCSV(path, "place_id", "image_embedding")
	if err != nil {
		return nil, err
	}
	vecs := make(map[string][]float32, len(t.rows))
	for _, row := range t.rows {
		id := t.get(row, "place_id")
		raw := t.get(row, "image_embedding")
		if id == "" || raw == "" {
			continue
		}
		var v []float32
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid image embedding for place %s: %w", id, err)
		}
		vecs[id] = v
	}
	return vecs, nil
}

// MergeDatasets joins places with their reviews and media. Only places that
// have at least one review and one media entry survive the merge, matching
// the dataset's coverage guarantee. Order follows the places input.
func MergeDatasets(places []*models.Place, reviews, media map[string][]string) []*Record {
	records := make([]*Record, 0, len(places))
	for _, p := range places {
		revs, hasReviews := reviews[p.PlaceID]
		urls, hasMedia := media[p.PlaceID]
		if !hasReviews || !hasMedia {
			continue
		}
		p.Reviews = revs
		records = append(records, &Record{
			Place:        p,
			MediaURLs:    urls,
			CombinedText: BuildCombinedText(p),
		})
	}
	return records
}

// BuildCombinedText flattens a place's metadata and reviews into the single
// text that the dense and sparse embedders consume.
func BuildCombinedText(p *models.Place) string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Neighborhood != "" {
		b.WriteString(", ")
		b.WriteString(p.Neighborhood)
	}
	if len(p.Tags) > 0 {
		b.WriteString(". ")
		b.WriteString(strings.Join(p.Tags, ", "))
	}
	if p.Description != "" {
		b.WriteString(". ")
		b.WriteString(p.Description)
	}
	if len(p.Reviews) > 0 {
		b.WriteString(". ")
		b.WriteString(strings.Join(p.Reviews, " "))
	}
	return b.String()
}
