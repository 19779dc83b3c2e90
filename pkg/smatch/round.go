package smatch

import "math"

// RoundSignificant rounds x to the given number of significant digits, not
// decimal places: 0.66666 at 4 digits is 0.6667, and 1.0 stays 1.0.
func RoundSignificant(x float64, digits int) float64 {
	if digits <= 0 || x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	magnitude := math.Ceil(math.Log10(math.Abs(x)))
	scale := math.Pow(10, float64(digits)-magnitude)
	return math.Round(x*scale) / scale
}
