package hitgen

import (
	"fmt"
	"math"
	"slices"
)

// SpeedupConfidence is the confidence that sample A is faster than sample B by at least
// RelativeSpeedup (0.1 = 10%).
type SpeedupConfidence struct {
	RelativeSpeedup float64
	Confidence      float64
}

// MinimumDataPoints is the smallest sample CompareRuntimes accepts.
const MinimumDataPoints uint64 = 11

// CompareRuntimes computes, for every relative speedup, the bootstrap confidence that
// runtimes in sampleA are faster than those in sampleB by at least that speedup.
// precisionLevel is the number of bootstrap replicates.
func CompareRuntimes(sampleA, sampleB []float64, relativeSpeedupsToTest []float64, precisionLevel uint64) ([]SpeedupConfidence, error) {
	if uint64(len(sampleA)) < MinimumDataPoints || uint64(len(sampleB)) < MinimumDataPoints {
		return nil, fmt.Errorf("not enough data points: need at least %d runtimes for each of A and B", MinimumDataPoints)
	}
	speedups := slices.Clone(relativeSpeedupsToTest)
	if len(speedups) == 0 {
		speedups = []float64{0.0}
	}
	slices.Sort(speedups)

	conf := BootstrapConfidence(sampleA, sampleB, speedups, precisionLevel, 0)
	result := make([]SpeedupConfidence, 0, len(speedups))
	for _, t := range speedups {
		result = append(result, SpeedupConfidence{RelativeSpeedup: t, Confidence: conf[t]})
	}
	return result, nil
}

// bootstrapSample draws len(xs) elements of xs with replacement using rng.
func bootstrapSample(xs []float64, rng *DPRNG) []float64 {
	n := len(xs)
	sample := make([]float64, n)
	for i := range n {
		sample[i] = xs[rng.UInt32N(uint32(n))]
	}
	return sample
}

// BootstrapConfidence estimates, for each threshold t, the fraction of reps bootstrap
// replicates in which 1 - median(A*)/median(B*) >= t.
//
//   - reps == 0 maps every threshold to NaN.
//   - A replicate with a NaN median counts for no threshold.
//   - Equal medians give a delta of 0. A median(B*) close to zero is replaced by a
//     small scale-aware epsilon so delta stays finite.
//
// prngSeed 0 draws a random seed; any other value makes the result reproducible.
func BootstrapConfidence(A, B []float64, thresholds []float64, reps uint64, prngSeed uint64) map[float64]float64 {
	confidence := make(map[float64]float64, len(thresholds))
	if reps == 0 {
		for _, threshold := range thresholds {
			confidence[threshold] = math.NaN()
		}
		return confidence
	}

	rng := NewDPRNG(prngSeed)
	counts := make(map[float64]uint64, len(thresholds))
	for range reps {
		medA := QuickMedian(bootstrapSample(A, rng))
		medB := QuickMedian(bootstrapSample(B, rng))
		delta := relativeDelta(medA, medB)
		for _, threshold := range thresholds {
			if delta >= threshold {
				counts[threshold]++
			}
		}
	}
	for _, threshold := range thresholds {
		confidence[threshold] = float64(counts[threshold]) / float64(reps)
	}
	return confidence
}

func relativeDelta(medA, medB float64) float64 {
	switch {
	case math.IsNaN(medA) || math.IsNaN(medB):
		return math.NaN()
	case medA == medB:
		return 0
	}
	eps := math.Max(math.Abs(medB)*1e-12, math.SmallestNonzeroFloat64)
	denom := medB
	if math.Abs(medB) < eps {
		denom = eps
	}
	return 1.0 - medA/denom
}

// TimeRuns runs g.Generate runs times over w and returns the elapsed nanoseconds of each run.
func TimeRuns(g *Generator, w Window, gens *Generators, runs int) ([]float64, error) {
	out := make([]float64, 0, runs)
	for range runs {
		res, err := g.Generate(w.Start, w.End, gens)
		if err != nil {
			return nil, err
		}
		out = append(out, float64(res.ElapsedNs))
	}
	return out, nil
}
