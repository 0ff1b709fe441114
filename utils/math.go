package utils

import "math"

// Float64AlmostEqual compares two float64s and returns if their difference is less than epsilon.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) < epsilon
}

// Square is faster than math.Pow(x, 2).
func Square(n float64) float64 {
	return n * n
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
