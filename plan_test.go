package hitgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedHits(t *testing.T) {
	gens, err := NewGenerators(1, 1, []float64{100, 10})
	require.NoError(t, err)
	w := Window{Start: 0, End: 1_000_000_000}
	// 1e9/1000 Poisson hits + 100*2 + 10*3 coincidence hits
	assert.InDelta(t, 1_000_000+230, ExpectedHits(w, 1000, gens), 1e-6)
	assert.Equal(t, 0.0, ExpectedHits(Window{Start: 5, End: 5}, 1000, gens))
}

func TestPlanCapacity_Headroom(t *testing.T) {
	p := PlanCapacity(4, 1<<20, 1000)
	require.Len(t, p.Offsets, 4)
	want := 1000 + 6*math.Sqrt(1000) + 4*BatchWidth
	for i := range 4 {
		assert.Equal(t, 0, p.Reserved[i]%(2*BatchWidth))
		assert.GreaterOrEqual(t, float64(p.Reserved[i]), want)
		assert.Less(t, float64(p.Reserved[i]), want+2*BatchWidth)
		assert.Equal(t, i*p.Reserved[0], p.Offsets[i])
	}
	assert.Equal(t, 4*p.Reserved[0], p.Total)
}

func TestPlanCapacity_SharesWhenTight(t *testing.T) {
	p := PlanCapacity(3, 1600, 1e6)
	// 1600/3 = 533, rounded down to a multiple of 16
	for i := range 3 {
		assert.Equal(t, 528, p.Reserved[i])
	}
	assert.Equal(t, 1584, p.Total)
	assert.LessOrEqual(t, p.Total, 1600)
}

func TestPlanCapacity_HugeExpectation(t *testing.T) {
	p := PlanCapacity(2, 64, math.MaxFloat64)
	assert.Equal(t, []int{32, 32}, p.Reserved)
	p = PlanCapacity(2, 64, math.Inf(1))
	assert.Equal(t, []int{32, 32}, p.Reserved)
}

func TestPlanCapacity_EmptyWindow(t *testing.T) {
	p := PlanCapacity(2, 1<<10, 0)
	assert.Equal(t, []int{32, 32}, p.Reserved)
}
