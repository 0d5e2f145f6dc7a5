package hitgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerators(t *testing.T) {
	rates := []float64{600, 60}
	gens, err := NewGenerators(3, 4, rates)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{3, 4}, gens.Seeds())
	assert.Equal(t, 2, gens.Levels())
	assert.Equal(t, 60.0, gens.Rate(1))
	assert.Equal(t, 0.0, gens.Rate(2))
	assert.Equal(t, 0.0, gens.Rate(-1))

	// the state owns its rate table
	rates[0] = 1
	assert.Equal(t, 600.0, gens.Rate(0))
	gens.Rates()[0] = 1
	assert.Equal(t, 600.0, gens.Rate(0))
}

func TestNewGenerators_RandomSeeds(t *testing.T) {
	gens, err := NewGenerators(0, 0, nil)
	require.NoError(t, err)
	s := gens.Seeds()
	assert.NotZero(t, s[0])
	assert.NotZero(t, s[1])
}

func TestNewGenerators_BadRates(t *testing.T) {
	for _, r := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := NewGenerators(1, 2, []float64{1, r})
		assert.ErrorIs(t, err, ErrRates, "rate %v", r)
	}
}

func TestModuleSourcesAreIndependent(t *testing.T) {
	gens, err := NewGenerators(1, 2, nil)
	require.NoError(t, err)
	seen := make(map[uint64]int)
	for i := range 2_000 {
		v := gens.ModuleSource(i).Uint64()
		if j, dup := seen[v]; dup {
			t.Fatalf("modules %d and %d start with the same value", j, i)
		}
		seen[v] = i
	}
	assert.Equal(t, gens.ModuleSource(7).Uint64(), gens.ModuleSource(7).Uint64())
	assert.Equal(t, gens.Source().Uint64(), gens.Source().Uint64())
}
