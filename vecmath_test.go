package hitgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approxEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func backends() []Backend {
	return []Backend{VekBackend{}, PortableBackend{}}
}

func TestBackendByName(t *testing.T) {
	for _, name := range []string{BackendVek, BackendPortable} {
		b, err := BackendByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, b.Name())
	}
	auto, err := BackendByName(BackendAuto)
	require.NoError(t, err)
	assert.Contains(t, []string{BackendVek, BackendPortable}, auto.Name())

	_, err = BackendByName("avx512")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestBackendsAgree(t *testing.T) {
	rng := NewDPRNG(21)
	in := make([]float32, 256)
	rng.Uniforms(in)

	results := make([][5][]float32, 0, 2)
	for _, b := range backends() {
		lg := append([]float32(nil), in...)
		b.Log(lg)
		sq := append([]float32(nil), in...)
		b.Sqrt(sq)
		angle := append([]float32(nil), in...)
		b.Affine(angle, 2*math.Pi, 0)
		sin := make([]float32, len(in))
		cos := make([]float32, len(in))
		b.SinCos(angle, sin, cos)
		rd := append([]float32(nil), in...)
		b.Affine(rd, 100, 0.25)
		b.Round(rd)
		results = append(results, [5][]float32{lg, sq, sin, cos, rd})
	}

	vek, portable := results[0], results[1]
	for i := range in {
		assert.True(t, approxEqual(vek[0][i], portable[0][i], 1e-4), "log(%g): %g vs %g", in[i], vek[0][i], portable[0][i])
		assert.True(t, approxEqual(vek[1][i], portable[1][i], 1e-5), "sqrt(%g)", in[i])
		assert.True(t, approxEqual(vek[2][i], portable[2][i], 1e-4), "sin(2π·%g)", in[i])
		assert.True(t, approxEqual(vek[3][i], portable[3][i], 1e-4), "cos(2π·%g)", in[i])
		// rounding may differ by one at exact .5 ties
		assert.True(t, approxEqual(vek[4][i], portable[4][i], 1), "round(%g)", in[i])
	}
}

func TestPortableBackendValues(t *testing.T) {
	b := PortableBackend{}
	x := []float32{1, float32(math.E), 4}
	b.Log(x)
	assert.InDelta(t, 0, x[0], 1e-7)
	assert.InDelta(t, 1, x[1], 1e-6)

	y := []float32{4, 9}
	b.Sqrt(y)
	assert.Equal(t, []float32{2, 3}, y)

	z := []float32{1, 2}
	b.Affine(z, 3, -1)
	assert.Equal(t, []float32{2, 5}, z)

	m := []float32{2, 3}
	b.Mul(m, []float32{4, 5})
	assert.Equal(t, []float32{8, 15}, m)

	r := []float32{1.4, 1.6, -2.5}
	b.Round(r)
	assert.Equal(t, []float32{1, 2, -3}, r)
}

func TestInfo(t *testing.T) {
	info := Info()
	assert.NotEmpty(t, info.Arch)
	assert.Contains(t, []string{BackendVek, BackendPortable}, info.Auto)
	if info.Accelerated {
		assert.Equal(t, BackendVek, info.Auto)
	}
}
