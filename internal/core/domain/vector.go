package domain

import "math"

// NormalizeVector returns a unit-length copy of v. A zero vector is
// returned as a zero copy.
func NormalizeVector(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := math.Sqrt(Dot(v, v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Dot returns the inner product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
