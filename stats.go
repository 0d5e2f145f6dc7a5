package hitgen

import (
	"math"
	"sort"
)

func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	sort.Float64s(dataCopy)

	l := len(dataCopy)
	if l%2 == 0 {
		return (dataCopy[l/2-1] + dataCopy[l/2]) / 2
	}
	return dataCopy[l/2]
}

// Statistics returns the mean and the population variance and standard deviation of data.
// For empty data it returns (0, -1, -1).
func Statistics(data []float64) (mean, variance, stddev float64) {
	if len(data) == 0 {
		return 0, -1, -1
	}

	var sum float64
	n := float64(len(data))
	for _, value := range data {
		sum += value
	}
	mean = sum / n

	for _, value := range data {
		variance += (value - mean) * (value - mean)
	}
	variance /= n
	stddev = math.Sqrt(variance)
	return
}

func FloatsEqualWithTolerance(f1, f2, tolerancePercentage float64) bool {
	absTol1 := math.Abs(f1 * tolerancePercentage / 100)
	if f1-absTol1 <= f2 && f1+absTol1 >= f2 {
		return true
	}
	absTol2 := math.Abs(f2 * tolerancePercentage / 100)
	if f2-absTol2 <= f1 && f2+absTol2 >= f1 {
		return true
	}
	return false
}

// PoissonWithin reports whether observed lies within sigmas standard deviations of a
// Poisson count with the given mean.
func PoissonWithin(observed, expected, sigmas float64) bool {
	return math.Abs(observed-expected) <= sigmas*math.Sqrt(expected)
}

// partition rearranges xs around the pivot xs[high] and returns its final index
func partition(xs []float64, low, high uint64) uint64 {
	pivot := xs[high]
	i := low
	for j := low; j < high; j++ {
		if xs[j] < pivot {
			xs[i], xs[j] = xs[j], xs[i]
			i++
		}
	}
	xs[i], xs[high] = xs[high], xs[i]
	return i
}

// quickselect finds the k-th smallest element (0-based index) in expected O(n) time.
// see https://en.wikipedia.org/wiki/Quickselect
func quickselect(xs []float64, k uint64) float64 {
	rng := NewDPRNG()
	low, high := uint64(0), uint64(len(xs)-1)
	for low <= high {
		pivotIndex := rng.Uint64()%(high-low+1) + low
		xs[pivotIndex], xs[high] = xs[high], xs[pivotIndex] // move pivot to end
		p := partition(xs, low, high)
		if p == k {
			return xs[p]
		} else if p < k {
			low = p + 1
		} else {
			high = p - 1
		}
	}
	return xs[k] // fallback
}

// QuickMedian returns the median in expected O(n) time. For an even number of elements it
// returns the higher of the two middle ones, for no elements NaN.
// Note: This function reorders xs. To avoid this, pass a copy of the slice.
func QuickMedian(xs []float64) float64 {
	n := uint64(len(xs))
	if n == 0 {
		return math.NaN()
	}
	return quickselect(xs, n/2)
}

// Summary condenses a Result into per-module hit statistics.
type Summary struct {
	Hits       int
	Modules    int
	Coincident int
	Truncated  int
	// MeanHits, StdDevHits and MedianHits are taken over the per-module hit counts.
	MeanHits   float64
	StdDevHits float64
	MedianHits float64
	// RateHz is the mean per-module hit rate over the window.
	RateHz float64
	// HitsPerSecond is the generation throughput, 0 if the run was not timed.
	HitsPerSecond float64
}

// Summarize computes a Summary of r.
func Summarize(r *Result) Summary {
	s := Summary{
		Hits:      r.Len(),
		Modules:   len(r.Modules),
		Truncated: r.Truncated(),
	}
	counts := make([]float64, len(r.Modules))
	for i, m := range r.Modules {
		counts[i] = float64(m.Hits())
		s.Coincident += m.Coincident
	}
	s.MeanHits, _, s.StdDevHits = Statistics(counts)
	s.MedianHits = Median(counts)
	if secs := r.Window.Seconds(); secs > 0 {
		s.RateHz = s.MeanHits / secs
	}
	if r.ElapsedNs > 0 {
		s.HitsPerSecond = float64(s.Hits) / (float64(r.ElapsedNs) / 1e9)
	}
	return s
}
