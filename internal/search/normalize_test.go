package search

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	cands := []Candidate{
		{ID: "a", RawScore: 0.9},
		{ID: "b", RawScore: 0.3},
		{ID: "c", RawScore: 0.6},
	}
	Normalize(cands)
	if cands[0].NormScore != 1.0 {
		t.Errorf("best raw score should normalize to 1.0, got %v", cands[0].NormScore)
	}
	if cands[1].NormScore != 0.0 {
		t.Errorf("worst raw score should normalize to 0.0, got %v", cands[1].NormScore)
	}
	for _, c := range cands {
		if c.NormScore < 0 || c.NormScore > 1 {
			t.Errorf("normalized score out of [0,1]: %v", c.NormScore)
		}
	}
	if math.Abs(cands[2].NormScore-0.5) > 1e-9 {
		t.Errorf("midpoint should normalize to 0.5, got %v", cands[2].NormScore)
	}
}

func TestNormalize_allEqual(t *testing.T) {
	cands := []Candidate{
		{ID: "a", RawScore: 0.7},
		{ID: "b", RawScore: 0.7},
	}
	Normalize(cands)
	for _, c := range cands {
		if c.NormScore != 0 {
			t.Errorf("all-equal scores should collapse to 0, got %v", c.NormScore)
		}
	}
}

func TestNormalize_empty(t *testing.T) {
	Normalize(nil)
	Normalize([]Candidate{})
}

func TestNormalize_single(t *testing.T) {
	cands := []Candidate{{ID: "a", RawScore: 42}}
	Normalize(cands)
	if cands[0].NormScore != 0 {
		t.Errorf("single candidate has zero spread, got %v", cands[0].NormScore)
	}
}

func TestInvertScores(t *testing.T) {
	// L2 distances: lower is better. After inversion the nearest candidate
	// must carry the highest raw score.
	cands := []Candidate{
		{ID: "near", RawScore: 0.1},
		{ID: "far", RawScore: 0.5},
	}
	InvertScores(cands)
	if cands[0].RawScore != -0.1 || cands[1].RawScore != -0.5 {
		t.Errorf("got %v, %v", cands[0].RawScore, cands[1].RawScore)
	}
	Normalize(cands)
	if cands[0].NormScore != 1.0 {
		t.Errorf("nearest candidate should normalize to 1.0 after inversion, got %v", cands[0].NormScore)
	}
}
