package statistic

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean.
// The running update scales each term before combining so that finite input
// of mixed sign near the float64 limits stays finite.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrNoData
	}
	mean := 0.0
	for i, x := range xs {
		n := float64(i + 1)
		mean += x/n - mean/n
	}
	return mean, nil
}

// Median returns the middle value of the sorted input, or the average of
// the two central values for an even count. The input is not reordered.
func Median(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrNoData
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return sorted[mid-1]/2 + sorted[mid]/2, nil
}

// Mode returns the most frequent value. Ties resolve to the lowest value.
func Mode(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrNoData
	}
	counts := make(map[float64]int, len(xs))
	for _, x := range xs {
		counts[x]++
	}
	best, bestCount := 0.0, 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return best, nil
}

// Range returns max - min. The result overflows to +Inf when the bounds
// straddle zero and their span exceeds math.MaxFloat64.
func Range(xs []float64) (float64, error) {
	lo, hi, err := bounds(xs)
	if err != nil {
		return 0, err
	}
	return hi - lo, nil
}

// Midrange returns the midpoint between min and max.
func Midrange(xs []float64) (float64, error) {
	lo, hi, err := bounds(xs)
	if err != nil {
		return 0, err
	}
	return lo/2 + hi/2, nil
}

// Min returns the smallest value.
func Min(xs []float64) (float64, error) {
	lo, _, err := bounds(xs)
	return lo, err
}

// Max returns the largest value.
func Max(xs []float64) (float64, error) {
	_, hi, err := bounds(xs)
	return hi, err
}

func bounds(xs []float64) (float64, float64, error) {
	if len(xs) == 0 {
		return 0, 0, ErrNoData
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi, nil
}
