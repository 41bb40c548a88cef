// Package keyword provides keyword (BM25) search indexing and search.
package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is one candidate correction for a query term, e.g. "espresso"
// for "expresso".
type Suggestion struct {
	Term      string
	Distance  int     // edit distance from the misspelled term
	Frequency int     // document frequency in the place index
	Score     float64 // ranking score, higher is better
}

// SpellCheckResult is the outcome of checking a whole query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	HasCorrections  bool
	MisspelledTerms []string
}

// SpellChecker suggests corrections for query terms that don't appear in the
// place index, so "coffe shop in soho" can come back as "coffee shop in
// soho". The term dictionary is the index itself.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	termsCache []string
	termSet    map[string]struct{}
	cacheMu    sync.RWMutex
	cacheValid bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency drops suggestion terms below the given document
// frequency. Rare index terms are usually noise, not corrections.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a spell checker over the given term dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		termSet:        make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func tokenizeQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}

// RefreshCache reloads the term cache from the dictionary. Call after
// ingesting new places; lookups otherwise serve from a stale snapshot.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.termsCache = terms
	s.termSet = make(map[string]struct{}, len(terms))
	for _, t := range terms {
		s.termSet[strings.ToLower(t)] = struct{}{}
	}
	s.cacheValid = true

	return nil
}

// Check examines each query term and builds a corrected query from the best
// suggestion for every term the index doesn't know.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if !s.cacheValid {
		if err := s.RefreshCache(); err != nil {
			return nil, err
		}
	}

	terms := tokenizeQuery(query)
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     make([]Suggestion, 0),
		MisspelledTerms: make([]string, 0),
	}

	correctedTerms := make([]string, 0, len(terms))

	for _, term := range terms {
		termLower := strings.ToLower(term)

		s.cacheMu.RLock()
		_, exists := s.termSet[termLower]
		s.cacheMu.RUnlock()

		if exists {
			correctedTerms = append(correctedTerms, term)
			continue
		}

		suggestions := s.Suggest(termLower)
		if len(suggestions) > 0 {
			result.HasCorrections = true
			result.MisspelledTerms = append(result.MisspelledTerms, term)
			result.Suggestions = append(result.Suggestions, suggestions...)
			correctedTerms = append(correctedTerms, suggestions[0].Term)
		} else {
			// Nothing close in the index; keep the user's term.
			correctedTerms = append(correctedTerms, term)
		}
	}

	result.CorrectedQuery = strings.Join(correctedTerms, " ")
	return result, nil
}

// Suggest returns index terms within the edit-distance budget of term,
// ranked by closeness and document frequency.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if !s.cacheValid {
		if err := s.RefreshCache(); err != nil {
			return nil
		}
	}

	termLower := strings.ToLower(term)
	suggestions := make([]Suggestion, 0)

	s.cacheMu.RLock()
	terms := s.termsCache
	s.cacheMu.RUnlock()

	for _, dictTerm := range terms {
		dictTermLower := strings.ToLower(dictTerm)
		if dictTermLower == termLower {
			continue
		}

		// A length gap wider than the budget can't be within distance.
		lenDiff := len(dictTermLower) - len(termLower)
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}

		distance := LevenshteinDistance(termLower, dictTermLower)
		if distance > s.maxDistance {
			continue
		}

		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}

		// Closer terms beat more frequent ones; frequency breaks near-ties.
		score := (1.0 / float64(distance+1)) * float64(freq)

		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     score,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}

	return suggestions
}

// IsMisspelled reports whether term is absent from the index dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	if !s.cacheValid {
		if err := s.RefreshCache(); err != nil {
			return false
		}
	}

	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	_, exists := s.termSet[strings.ToLower(term)]
	return !exists
}

// GetSuggestedQuery returns the corrected query, or the original when no
// correction applies.
func (s *SpellChecker) GetSuggestedQuery(query string) string {
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return query
	}
	return result.CorrectedQuery
}

// GetTopSuggestions returns up to n corrected queries for query. Currently a
// single best correction is produced.
func (s *SpellChecker) GetTopSuggestions(query string, n int) []string {
	result, err := s.Check(query)
	if err != nil {
		return nil
	}

	suggestions := make([]string, 0, n)
	if result.HasCorrections && result.CorrectedQuery != result.OriginalQuery {
		suggestions = append(suggestions, result.CorrectedQuery)
	}
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}

	return suggestions
}
