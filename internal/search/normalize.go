package search

import "github.com/vibelabs/vibesearch/internal/models"

// Candidate is one match from a single modality. RawScore is on that
// modality's native scale, already oriented higher-is-better; NormScore is
// the min-max rescaled value in [0,1].
type Candidate struct {
	ID        string
	RawScore  float64
	NormScore float64
	Meta      *models.PlaceMeta
}

// Normalize min-max rescales RawScore into NormScore over the given result
// set, in place. The scale is per-set and per-query; it is never comparable
// across queries. When all raw scores are equal the spread is zero and every
// NormScore collapses to 0.
func Normalize(cands []Candidate) {
	if len(cands) == 0 {
		return
	}
	min, max := cands[0].RawScore, cands[0].RawScore
	for _, c := range cands[1:] {
		if c.RawScore < min {
			min = c.RawScore
		}
		if c.RawScore > max {
			max = c.RawScore
		}
	}
	spread := max - min
	if spread == 0 {
		for i := range cands {
			cands[i].NormScore = 0
		}
		return
	}
	for i := range cands {
		cands[i].NormScore = (cands[i].RawScore - min) / spread
	}
}

// InvertScores flips the sign of every raw score. Used for distance metrics
// where lower is better, so that normalization always sees higher-is-better
// input.
func InvertScores(cands []Candidate) {
	for i := range cands {
		cands[i].RawScore = -cands[i].RawScore
	}
}
