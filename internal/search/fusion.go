// Package search implements the hybrid retrieval fan-out and score-fusion pipeline.
package search

import (
	"sort"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Weights are the three modality weights used in the hybrid sum.
type Weights struct {
	Dense  float64
	Sparse float64
	Image  float64
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Dense + w.Sparse + w.Image
}

// Redistribute zeroes the weight of each disabled modality and rescales the
// remaining weights proportionally so they sum to 1. With no modality enabled
// (or all enabled weights zero) the zero value is returned.
func (w Weights) Redistribute(denseOn, sparseOn, imageOn bool) Weights {
	out := Weights{}
	if denseOn {
		out.Dense = w.Dense
	}
	if sparseOn {
		out.Sparse = w.Sparse
	}
	if imageOn {
		out.Image = w.Image
	}
	total := out.Sum()
	if total == 0 {
		return Weights{}
	}
	out.Dense /= total
	out.Sparse /= total
	out.Image /= total
	return out
}

// Merged is one deduplicated candidate carrying a normalized score slot per
// modality. A modality that never returned the id contributes 0.
type Merged struct {
	ID          string
	DenseScore  float64
	SparseScore float64
	ImageScore  float64
	Hybrid      float64
	// denseRank is the candidate's position in the dense result set, used as
	// the deterministic tie-break. Candidates absent from the dense set sort
	// after dense-ranked ones, by id.
	denseRank int
	Meta      *models.PlaceMeta
}

const noDenseRank = int(^uint(0) >> 1)

// Merge deduplicates the three normalized result sets by id and computes the
// weighted hybrid score. Weights must already be redistributed. If an id
// recurs within one modality's set the higher normalized score wins; across
// modalities each set fills its own score slot, so the merge is independent
// of modality completion order.
func Merge(dense, sparse, image []Candidate, w Weights) []*Merged {
	byID := make(map[string]*Merged)

	get := func(c Candidate) *Merged {
		m, ok := byID[c.ID]
		if !ok {
			m = &Merged{ID: c.ID, denseRank: noDenseRank}
			byID[c.ID] = m
		}
		// The index owns the candidate's meta pointer; clone before the
		// merged result takes writes.
		if m.Meta == nil {
			m.Meta = c.Meta.Clone()
		} else {
			m.Meta.MergeFrom(c.Meta)
		}
		return m
	}

	for rank, c := range dense {
		m := get(c)
		if c.NormScore > m.DenseScore {
			m.DenseScore = c.NormScore
		}
		if rank < m.denseRank {
			m.denseRank = rank
		}
	}
	for _, c := range sparse {
		m := get(c)
		if c.NormScore > m.SparseScore {
			m.SparseScore = c.NormScore
		}
	}
	for _, c := range image {
		m := get(c)
		if c.NormScore > m.ImageScore {
			m.ImageScore = c.NormScore
		}
	}

	merged := make([]*Merged, 0, len(byID))
	for _, m := range byID {
		m.Hybrid = w.Dense*m.DenseScore + w.Sparse*m.SparseScore + w.Image*m.ImageScore
		merged = append(merged, m)
	}
	return merged
}

// FilterSort drops candidates with hybrid score at or below threshold and
// sorts survivors descending by hybrid score. Ties break by original dense
// rank, then id, so the ordering is deterministic.
func FilterSort(merged []*Merged, threshold float64) []*Merged {
	filtered := make([]*Merged, 0, len(merged))
	for _, m := range merged {
		if m.Hybrid > threshold {
			filtered = append(filtered, m)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Hybrid != b.Hybrid {
			return a.Hybrid > b.Hybrid
		}
		if a.denseRank != b.denseRank {
			return a.denseRank < b.denseRank
		}
		return a.ID < b.ID
	})
	return filtered
}
