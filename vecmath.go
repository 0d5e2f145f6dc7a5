package hitgen

import (
	"fmt"
	"math"
	"runtime"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sys/cpu"
)

// Backend evaluates the transcendental functions of the generator on float32 batches.
// All methods work in place and require equally long slices.
type Backend interface {
	Name() string
	// Log sets x[i] = ln(x[i]).
	Log(x []float32)
	// Sqrt sets x[i] = sqrt(x[i]).
	Sqrt(x []float32)
	// SinCos sets sin[i] = sin(x[i]) and cos[i] = cos(x[i]).
	SinCos(x, sin, cos []float32)
	// Affine sets x[i] = a*x[i] + b.
	Affine(x []float32, a, b float32)
	// Mul sets x[i] = x[i] * y[i].
	Mul(x, y []float32)
	// Round rounds x[i] to the nearest integer.
	Round(x []float32)
}

// Backend names accepted by BackendByName.
const (
	BackendAuto     = "auto"
	BackendVek      = "vek"
	BackendPortable = "portable"
)

// VekBackend uses github.com/viterin/vek, which runs AVX2 kernels on amd64 and NEON kernels
// on arm64 and falls back to pure Go elsewhere.
type VekBackend struct{}

func (VekBackend) Name() string { return BackendVek }

func (VekBackend) Log(x []float32) { vek32.Log_Inplace(x) }

func (VekBackend) Sqrt(x []float32) { vek32.Sqrt_Inplace(x) }

func (VekBackend) SinCos(x, sin, cos []float32) {
	copy(sin, x)
	copy(cos, x)
	vek32.Sin_Inplace(sin)
	vek32.Cos_Inplace(cos)
}

func (VekBackend) Affine(x []float32, a, b float32) {
	vek32.MulNumber_Inplace(x, a)
	vek32.AddNumber_Inplace(x, b)
}

func (VekBackend) Mul(x, y []float32) { vek32.Mul_Inplace(x, y) }

func (VekBackend) Round(x []float32) { vek32.Round_Inplace(x) }

// PortableBackend evaluates every lane with the math package. It is the reference the
// vek backend is tested against.
type PortableBackend struct{}

func (PortableBackend) Name() string { return BackendPortable }

func (PortableBackend) Log(x []float32) {
	for i, v := range x {
		x[i] = float32(math.Log(float64(v)))
	}
}

func (PortableBackend) Sqrt(x []float32) {
	for i, v := range x {
		x[i] = float32(math.Sqrt(float64(v)))
	}
}

func (PortableBackend) SinCos(x, sin, cos []float32) {
	for i, v := range x {
		s, c := math.Sincos(float64(v))
		sin[i], cos[i] = float32(s), float32(c)
	}
}

func (PortableBackend) Affine(x []float32, a, b float32) {
	for i := range x {
		x[i] = a*x[i] + b
	}
}

func (PortableBackend) Mul(x, y []float32) {
	for i := range x {
		x[i] *= y[i]
	}
}

func (PortableBackend) Round(x []float32) {
	for i, v := range x {
		x[i] = float32(math.Round(float64(v)))
	}
}

// BackendByName returns the backend for name. "auto" (or "") selects vek when it runs
// accelerated on this CPU and the portable backend otherwise.
func BackendByName(name string) (Backend, error) {
	switch name {
	case BackendAuto, "":
		if vek32.Info().Acceleration {
			return VekBackend{}, nil
		}
		return PortableBackend{}, nil
	case BackendVek:
		return VekBackend{}, nil
	case BackendPortable:
		return PortableBackend{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrBackend)
}

// RuntimeInfo describes the vector hardware seen by the process.
type RuntimeInfo struct {
	// Arch is runtime.GOARCH.
	Arch string
	// Features lists the CPU features vek detected.
	Features []string
	// Accelerated reports whether vek runs SIMD kernels.
	Accelerated bool
	// AVX2 reports AVX2+FMA support on x86.
	AVX2 bool
	// NEON reports Advanced SIMD support on arm64.
	NEON bool
	// Auto is the backend selected by BackendByName("auto").
	Auto string
}

// Info returns information about the vector hardware and the automatically selected backend.
func Info() RuntimeInfo {
	vi := vek32.Info()
	auto, _ := BackendByName(BackendAuto)
	return RuntimeInfo{
		Arch:        runtime.GOARCH,
		Features:    vi.CPUFeatures,
		Accelerated: vi.Acceleration,
		AVX2:        cpu.X86.HasAVX2 && cpu.X86.HasFMA,
		NEON:        cpu.ARM64.HasASIMD,
		Auto:        auto.Name(),
	}
}
