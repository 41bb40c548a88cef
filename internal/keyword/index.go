// Package keyword provides the lexical (BM25) place index and spell checking.
package keyword

import (
	"context"

	"github.com/vibelabs/vibesearch/internal/models"
)

// SearchOptions optional parameters for lexical search. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score contribution from matches in the place
	// name field. Values > 1 make name matches rank higher. Use 1.0 for no boost.
	NameBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 2 when FuzzyEnabled is true.
	Fuzziness int
}

// PlaceIndex defines lexical search operations over the place catalog.
type PlaceIndex interface {
	Index(ctx context.Context, place *models.Place) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, placeID string) error
	Close() error
	// DocCount returns the total number of places in the index.
	DocCount() (uint64, error)
}

// Result is a single lexical search hit. Score is BM25, higher-is-better,
// unbounded.
type Result struct {
	ID    string
	Score float64
}

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists in the index.
	ContainsTerm(term string) (bool, error)
}
