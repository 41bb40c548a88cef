// Package keyword provides the Bleve implementation of PlaceIndex.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/vibelabs/vibesearch/internal/models"
)

// BleveIndex implements PlaceIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// indexedPlace is the shape stored in Bleve. Reviews are flattened into one
// field so review language is searchable without per-review scoring.
type indexedPlace struct {
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	Reviews      string   `json:"reviews"`
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused so that
// unchanged places are not re-indexed on restart. If you change the index
// mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	placeMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries like
	// "espresso" match the exact word rather than a stemmed form.
	textFieldMapping.Analyzer = standard.Name
	placeMapping.AddFieldMappingsAt("name", textFieldMapping)
	placeMapping.AddFieldMappingsAt("neighborhood", textFieldMapping)
	placeMapping.AddFieldMappingsAt("description", textFieldMapping)
	placeMapping.AddFieldMappingsAt("tags", textFieldMapping)
	placeMapping.AddFieldMappingsAt("reviews", textFieldMapping)
	im.AddDocumentMapping("place", placeMapping)
	im.DefaultType = "place"
	im.DefaultMapping = placeMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes a place by place_id.
func (b *BleveIndex) Index(ctx context.Context, place *models.Place) error {
	return b.index.Index(place.PlaceID, &indexedPlace{
		Name:         place.Name,
		Neighborhood: place.Neighborhood,
		Description:  place.Description,
		Tags:         place.Tags,
		Reviews:      strings.Join(place.Reviews, " "),
	})
}

// Search runs a match query over all place fields and returns up to limit
// results. With opts.NameBoost > 1 a boosted name query is added so venues
// whose name matches the query rank above venues only mentioned in reviews.
// With opts.FuzzyEnabled, fuzzy term queries provide typo tolerance.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	nameBoost := 1.0
	fuzzyEnabled := false
	fuzziness := 2
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	var base blevequery.Query
	if fuzzyEnabled {
		base = buildFuzzyQuery(query, fuzziness, "")
	} else {
		base = bleve.NewMatchQuery(query)
	}

	q := base
	if nameBoost > 1.0 {
		nameQuery := bleve.NewMatchQuery(query)
		nameQuery.SetField("name")
		nameQuery.SetBoost(nameBoost)
		q = bleve.NewDisjunctionQuery(base, nameQuery)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the
// query. If field is empty, searches all fields.
func buildFuzzyQuery(queryStr string, fuzziness int, field string) blevequery.Query {
	terms := strings.Fields(strings.ToLower(queryStr))
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a place from the index.
func (b *BleveIndex) Delete(ctx context.Context, placeID string) error {
	return b.index.Delete(placeID)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of places in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// GetTermDocFrequency returns the number of places containing the given term.
func (b *BleveIndex) GetTermDocFrequency(term string) (int, error) {
	q := bleve.NewMatchQuery(term)
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// GetAllTerms returns all unique terms from the index dictionary. Used by the
// spell checker to build its term dictionary.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	terms := make([]string, 0)
	seen := make(map[string]struct{})
	for _, field := range []string{"name", "neighborhood", "description", "tags", "reviews"} {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			continue
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				terms = append(terms, entry.Term)
				seen[entry.Term] = struct{}{}
			}
		}
		dict.Close()
	}
	return terms, nil
}

// ContainsTerm checks if a term exists in the index.
func (b *BleveIndex) ContainsTerm(term string) (bool, error) {
	freq, err := b.GetTermDocFrequency(term)
	if err != nil {
		return false, err
	}
	return freq > 0, nil
}

// GetTermFrequency returns the document frequency for a term. Alias for
// GetTermDocFrequency to satisfy the TermDictionary interface.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	return b.GetTermDocFrequency(term)
}
