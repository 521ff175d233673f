package matching

import "math"

// CosineSimilarity returns the cosine of the angle between two vectors, in [-1, 1].
// A zero-magnitude vector yields 0. Vectors of different length are an error.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Left: len(a), Right: len(b)}
	}

	// Components are divided by the largest magnitude so the squared norms
	// neither overflow nor underflow. Cosine is scale invariant.
	scaleA := maxAbs(a)
	scaleB := maxAbs(b)
	if scaleA == 0 || scaleB == 0 {
		return 0, nil
	}

	var dot, normA, normB float64
	for i := range a {
		x := a[i] / scaleA
		y := b[i] / scaleB
		dot += x * y
		normA += x * x
		normB += y * y
	}

	// Parallel vectors scale to identical components
	if dot == normA && dot == normB {
		return 1, nil
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0, nil
	}

	return math.Max(-1, math.Min(1, dot/denominator)), nil
}

// maxAbs returns the largest absolute component of v, or 0 for an empty or zero vector
func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
