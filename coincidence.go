package hitgen

import "math"

// Window is the half-open time interval [Start, End) in nanoseconds.
type Window struct {
	Start int64
	End   int64
}

// Duration returns End-Start, or 0 for an empty or inverted window. A length that
// does not fit in int64 saturates at math.MaxInt64.
func (w Window) Duration() int64 {
	if w.End <= w.Start {
		return 0
	}
	if d := w.End - w.Start; d > 0 {
		return d
	}
	return math.MaxInt64
}

// Seconds returns the duration in seconds.
func (w Window) Seconds() float64 {
	return float64(w.Duration()) / 1e9
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t int64) bool {
	return t >= w.Start && t < w.End
}

// Injector adds correlated hits to one module.
//
// seg is the module's whole reserved view of the time buffer and seg[:n] holds the
// hits generated so far. Inject may append hits at seg[n:] and returns the new count,
// which must satisfy n <= count <= len(seg). Appended hits need not be ordered.
// Implementations must not keep references to seg, and must not share mutable state
// between calls, since modules may be processed concurrently.
type Injector interface {
	Inject(seg []int64, n int, w Window, gens *Generators, src Source) int
}

// NoInjector never adds hits.
type NoInjector struct{}

func (NoInjector) Inject(_ []int64, n int, _ Window, _ *Generators, _ Source) int { return n }

// DefaultJitter is the default time spread of the hits of one burst, in nanoseconds.
const DefaultJitter = 10

// BurstInjector models correlated noise bursts. For every level i of the rate table it
// draws a Poisson number of bursts with mean rates[i]*window seconds; each burst
// lands at a uniform time in the window and writes i+2 hits within Jitter ns of it.
// Injection stops silently when the view is full.
type BurstInjector struct {
	Jitter int64
}

func (b BurstInjector) Inject(seg []int64, n int, w Window, gens *Generators, src Source) int {
	span := w.Duration()
	if span == 0 {
		return n
	}
	var u [2]float32
	var j [1]int32
	for level := range gens.Levels() {
		bursts := poisson(gens.Rate(level)*w.Seconds(), src)
		multiplicity := level + 2
		for range bursts {
			src.Uniforms(u[:])
			// two 23-bit uniforms give a 46-bit fraction in (0,1)
			frac := float64(u[0]) - 0x1p-24 + float64(u[1])*0x1p-23
			t := w.Start + int64(frac*float64(span))
			for range multiplicity {
				if n == len(seg) {
					return n
				}
				var jitter int64
				if b.Jitter > 1 {
					src.Bounded(j[:], 0, int32(min(b.Jitter, math.MaxInt32))-1)
					jitter = int64(j[0])
				}
				// t <= End, so End-t does not overflow
				if jitter >= w.End-t {
					jitter = w.End - 1 - t
				}
				seg[n] = t + jitter
				n++
			}
		}
	}
	return n
}

// poisson draws a Poisson variate with mean lambda. Below 30 it multiplies uniforms
// (Knuth), above it rounds a normal variate with the same mean and variance.
func poisson(lambda float64, src Source) int {
	if !(lambda > 0) {
		return 0
	}
	var u [2]float32
	if lambda < 30 {
		limit := math.Exp(-lambda)
		k := 0
		p := 1.0
		for {
			src.Uniforms(u[:1])
			p *= float64(u[0])
			if p <= limit {
				return k
			}
			k++
		}
	}
	src.Uniforms(u[:])
	z := math.Sqrt(-2*math.Log(float64(u[0]))) * math.Cos(2*math.Pi*float64(u[1]))
	k := int(math.Round(lambda + math.Sqrt(lambda)*z))
	return max(k, 0)
}
