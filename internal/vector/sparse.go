package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vibelabs/vibesearch/internal/models"
)

// SparseIndex is an in-memory index over sparse embeddings. Queries score by
// cosine similarity between sparse vectors, so scores are higher-is-better.
type SparseIndex struct {
	vocabSize uint32
	ids       []string
	vectors   []*SparseVector
	norms     []float64
	metas     []*models.PlaceMeta
	mu        sync.RWMutex
}

// NewSparseIndex creates a sparse index. vocabSize bounds the valid coordinate
// range; it is a property of the sparse embedding vocabulary and comes from
// configuration.
func NewSparseIndex(vocabSize int) (*SparseIndex, error) {
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size must be positive")
	}
	return &SparseIndex{vocabSize: uint32(vocabSize)}, nil
}

// Metric returns MetricInnerProduct; sparse cosine scores are higher-is-better.
func (s *SparseIndex) Metric() Metric {
	return MetricInnerProduct
}

// VocabSize returns the configured vocabulary dimension.
func (s *SparseIndex) VocabSize() int {
	return int(s.vocabSize)
}

// AddSparse appends sparse vectors with the given IDs and optional metadata.
func (s *SparseIndex) AddSparse(ctx context.Context, ids []string, vectors []*SparseVector, metas []*models.PlaceMeta) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		v := vectors[i]
		if v == nil {
			return fmt.Errorf("nil sparse vector for id %s", id)
		}
		if len(v.Indices) != len(v.Values) {
			return fmt.Errorf("indices and values length mismatch for id %s", id)
		}
		for _, idx := range v.Indices {
			if idx >= s.vocabSize {
				return fmt.Errorf("index %d out of vocabulary range %d for id %s", idx, s.vocabSize, id)
			}
		}
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, v)
		s.norms = append(s.norms, SparseNorm(v))
		if metas != nil && i < len(metas) {
			s.metas = append(s.metas, metas[i])
		} else {
			s.metas = append(s.metas, nil)
		}
	}
	return nil
}

// QuerySparse returns the top-k entries by cosine similarity to query.
func (s *SparseIndex) QuerySparse(ctx context.Context, query *SparseVector, k int) ([]*Match, error) {
	if query == nil || len(query.Indices) == 0 {
		return nil, nil
	}
	qNorm := SparseNorm(query)
	if qNorm == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || len(s.ids) == 0 {
		return nil, nil
	}
	scores := make([]*Match, 0, len(s.ids))
	for i, vec := range s.vectors {
		var score float64
		if s.norms[i] > 0 {
			score = SparseDot(query, vec) / (qNorm * s.norms[i])
		}
		scores = append(scores, &Match{ID: s.ids[i], Score: score, Meta: s.metas[i]})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

type sparseIndexFile struct {
	VocabSize uint32              `json:"vocab_size"`
	IDs       []string            `json:"ids"`
	Vectors   []*SparseVector     `json:"vectors"`
	Metas     []*models.PlaceMeta `json:"metas"`
}

// Save persists the index to path as JSON. Directory is created if needed.
func (s *SparseIndex) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(sparseIndexFile{
		VocabSize: s.vocabSize,
		IDs:       s.ids,
		Vectors:   s.vectors,
		Metas:     s.metas,
	})
	if err != nil {
		return fmt.Errorf("marshal sparse index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write sparse index: %w", err)
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// A missing file is not an error. Vocabulary size must match.
func (s *SparseIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read sparse index: %w", err)
	}
	var file sparseIndexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("unmarshal sparse index: %w", err)
	}
	if file.VocabSize != s.vocabSize {
		return fmt.Errorf("vocab size mismatch: file has %d, index expects %d", file.VocabSize, s.vocabSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = file.IDs
	s.vectors = file.Vectors
	s.metas = file.Metas
	s.norms = make([]float64, len(file.Vectors))
	for i, v := range file.Vectors {
		s.norms[i] = SparseNorm(v)
	}
	return nil
}

// Size returns the number of vectors in the index.
func (s *SparseIndex) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Close is a no-op for SparseIndex.
func (s *SparseIndex) Close() error {
	return nil
}
