package hitgen

import (
	"fmt"
	"math"
	"slices"
)

// Generators is the generator state of one generation call: two seeds and the
// background rate table. rates[i] is the per-module rate in Hz of bursts with
// multiplicity i+2 (rates[0] are two-fold coincidences, rates[1] three-fold, ...).
// A Generators value is never mutated after construction.
type Generators struct {
	seeds [2]uint64
	rates []float64
}

// NewGenerators validates the rate table and returns a generator state. If both seeds
// are zero, fresh seeds are drawn from crypto/rand and the run is not reproducible;
// Seeds reports the values actually used.
func NewGenerators(seed0, seed1 uint64, rates []float64) (*Generators, error) {
	for i, r := range rates {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return nil, fmt.Errorf("rate %d is %v: %w", i, r, ErrRates)
		}
	}
	if seed0 == 0 && seed1 == 0 {
		seed0, seed1 = NewCPRNG(16).Seeds()
	}
	return &Generators{
		seeds: [2]uint64{seed0, seed1},
		rates: slices.Clone(rates),
	}, nil
}

// Seeds returns the two seeds of this state.
func (g *Generators) Seeds() [2]uint64 { return g.seeds }

// Rates returns a copy of the background rate table.
func (g *Generators) Rates() []float64 { return slices.Clone(g.rates) }

// Rate returns the rate of burst level i, or 0 if the table has no such level.
func (g *Generators) Rate(i int) float64 {
	if i < 0 || i >= len(g.rates) {
		return 0
	}
	return g.rates[i]
}

// Levels returns the number of burst levels in the rate table.
func (g *Generators) Levels() int { return len(g.rates) }

// Source returns a fresh shared stream seeded from both seeds. Two calls return
// two independent instances that produce the same sequence.
func (g *Generators) Source() *DPRNG {
	return NewSource(g.seeds[0], g.seeds[1])
}

// ModuleSource returns a stream for module index i that does not depend on any other
// module's consumption, so modules can be generated in any order or in parallel.
func (g *Generators) ModuleSource(i int) *DPRNG {
	return NewSource(splitmix64(g.seeds[0]^uint64(i)), g.seeds[1]+uint64(i)*0xD1B54A32D192ED03)
}
