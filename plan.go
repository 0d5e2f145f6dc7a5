package hitgen

import "math"

// chunk is the allocation granule of a module view: value generation writes one
// Box-Muller pair of batches at a time.
const chunk = 2 * BatchWidth

// Plan assigns every module a contiguous, non-overlapping view of the output buffers.
// Module i owns [Offsets[i], Offsets[i]+Reserved[i]). Every reservation is a multiple
// of 2*BatchWidth and Total never exceeds the capacity the plan was made for.
type Plan struct {
	Offsets  []int
	Reserved []int
	Total    int
}

// ExpectedHits returns the expected number of hits of one module in w: the Poisson
// part Duration/tauL0 plus the mean number of coincidence hits.
func ExpectedHits(w Window, tauL0 float64, gens *Generators) float64 {
	if w.Duration() == 0 {
		return 0
	}
	expected := float64(w.Duration()) / tauL0
	for level := range gens.Levels() {
		expected += gens.Rate(level) * w.Seconds() * float64(level+2)
	}
	return expected
}

// PlanCapacity reserves room for expected hits per module: six standard deviations of
// headroom plus four batches for the batch overshoot past the window end and the stop
// margin of the arrival loop. If that does not fit in capacity, every module gets an
// equal share rounded down to a multiple of 2*BatchWidth and generation will stop
// early for modules that run out of room.
func PlanCapacity(modules, capacity int, expected float64) Plan {
	want := expected + 6*math.Sqrt(expected) + 4*BatchWidth
	share := capacity / modules / chunk * chunk
	reserve := share
	if want < float64(share) {
		reserve = min(roundUp(int(math.Ceil(want)), chunk), share)
	}
	p := Plan{
		Offsets:  make([]int, modules),
		Reserved: make([]int, modules),
		Total:    reserve * modules,
	}
	for i := range modules {
		p.Offsets[i] = i * reserve
		p.Reserved[i] = reserve
	}
	return p
}

func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}
