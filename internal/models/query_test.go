package models

import (
	"math"
	"testing"
)

func TestValidateEmptyQuery(t *testing.T) {
	q := &SearchQuery{}
	if err := q.Validate(); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestValidateDefaults(t *testing.T) {
	q := &SearchQuery{Query: "coffee"}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 10 {
		t.Errorf("TopK default: got %d", q.TopK)
	}
	if q.WeightDense != DefaultWeightDense || q.WeightSparse != DefaultWeightSparse || q.WeightImage != DefaultWeightImage {
		t.Errorf("default weights: got (%v, %v, %v)", q.WeightDense, q.WeightSparse, q.WeightImage)
	}
}

func TestValidateNormalizesWeights(t *testing.T) {
	q := &SearchQuery{Query: "coffee", WeightDense: 0.5, WeightSparse: 0.5, WeightImage: 0.5}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	sum := q.WeightDense + q.WeightSparse + q.WeightImage
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights should sum to 1, got %v", sum)
	}
	if math.Abs(q.WeightDense-1.0/3.0) > 1e-9 {
		t.Errorf("dense weight: got %v", q.WeightDense)
	}
}

func TestValidateRejectsOutOfRangeWeight(t *testing.T) {
	q := &SearchQuery{Query: "coffee", WeightDense: 1.5}
	if err := q.Validate(); err == nil {
		t.Error("expected error for weight > 1")
	}
	q = &SearchQuery{Query: "coffee", WeightSparse: -0.1}
	if err := q.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestValidateCapsTopK(t *testing.T) {
	q := &SearchQuery{Query: "coffee", TopK: 500}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 100 {
		t.Errorf("TopK cap: got %d", q.TopK)
	}
}
