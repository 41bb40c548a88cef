// Package vector provides similarity helpers for dense and sparse vectors.
package vector

import "math"

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// SquaredL2 returns the squared L2 distance between two vectors.
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// SparseDot returns the dot product of two sparse vectors. Both must have
// their indices sorted ascending, which the embedders guarantee.
func SparseDot(a, b *SparseVector) float64 {
	if a == nil || b == nil {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += float64(a.Values[i] * b.Values[j])
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// SparseNorm returns the L2 norm of a sparse vector.
func SparseNorm(v *SparseVector) float64 {
	if v == nil {
		return 0
	}
	var sum float64
	for _, x := range v.Values {
		sum += float64(x * x)
	}
	return math.Sqrt(sum)
}
