package hitgen

// DPRNG is a Deterministic Pseudo-Random Number Generator based on the xorshift* algorithm
// (see https://en.wikipedia.org/wiki/Xorshift#xorshift*).
// It is the default Source of the hit generator: the same seeds always yield the same
// hit stream, bit for bit.
// This random number generator has a period of 2^64-1.
// This random number generator has a constant runtime per drawn value.
// This random number generator is not cryptographically secure.
// This random number generator is not thread-safe. Give every goroutine its own instance.
// The state must not be zero.
type DPRNG struct {
	State uint64
	Round uint64 // for debugging purposes
}

var _ Source = (*DPRNG)(nil)

// NewDPRNG returns a DPRNG seeded with the given seed. Without a seed, or with a seed of 0,
// the state is drawn from crypto/rand, so the resulting sequence is not reproducible.
func NewDPRNG(seed ...uint64) *DPRNG {
	var s uint64
	if len(seed) > 0 {
		s = seed[0]
	}
	for s == 0 {
		s = NewCPRNG(64).Uint64()
	}
	return &DPRNG{State: s}
}

// NewSource returns a DPRNG whose state is derived from two seeds. Both seeds contribute
// to every bit of the state via splitmix64, so (a,b) and (b,a) yield different streams.
func NewSource(seed0, seed1 uint64) *DPRNG {
	s := splitmix64(seed0) ^ splitmix64(seed1+0x9E3779B97F4A7C15)
	if s == 0 {
		s = 0x2545F4914F6CDD1D
	}
	return &DPRNG{State: s}
}

// splitmix64 is the finalizer of the SplitMix64 generator. It is a bijection on uint64.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// This function returns the next pseudo-random number in the sequence.
// It has a deterministic (i.e. constant) runtime and a high probability to be inlined by the compiler.
func (thisState *DPRNG) Uint64() uint64 {
	x := thisState.State
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	thisState.State = x
	thisState.Round++
	return x * 0x2545F4914F6CDD1D
}

// Uint32 returns the high 32 bits of the next value. The high bits of xorshift* have the best quality.
func (thisState *DPRNG) Uint32() uint32 {
	return uint32(thisState.Uint64() >> 32)
}

// Float64 returns a uniformly distributed float64 in [0.0, 1.0) using 52 random mantissa bits.
func (thisState *DPRNG) Float64() float64 {
	return float64(thisState.Uint64()>>12) / (1 << 52)
}

// OpenFloat32 returns a uniformly distributed float32 in the open interval (0.0, 1.0).
// It uses 23 random bits k and returns (k+0.5)*2^-23, which is exactly representable,
// so it never returns 0.0 (ln(0) = -Inf) and never returns 1.0.
func (thisState *DPRNG) OpenFloat32() float32 {
	k := uint32(thisState.Uint64() >> 41)
	return (float32(k) + 0.5) * 0x1p-23
}

// UInt32N returns a pseudo-random number in the half-open interval [0,n) using
// Lemire's multiply-shift reduction with rejection, so the result is unbiased.
// For n=0 and n=1, UInt32N returns 0.
//
// For implementation details, see:
//
//	https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction
//	https://lemire.me/blog/2016/06/30/fast-random-shuffling
func (thisState *DPRNG) UInt32N(n uint32) uint32 {
	if n <= 1 {
		return 0
	}
	v := thisState.Uint32()
	prod := uint64(v) * uint64(n)
	low := uint32(prod)
	if low < n {
		thresh := -n % n
		for low < thresh {
			v = thisState.Uint32()
			prod = uint64(v) * uint64(n)
			low = uint32(prod)
		}
	}
	return uint32(prod >> 32)
}

// Uniforms fills dst with OpenFloat32 values, one state step per element.
func (thisState *DPRNG) Uniforms(dst []float32) {
	for i := range dst {
		dst[i] = thisState.OpenFloat32()
	}
}

// Bounded fills dst with uniform integers in the closed interval [lo, hi].
// If hi <= lo every element is set to lo and no random values are consumed.
func (thisState *DPRNG) Bounded(dst []int32, lo, hi int32) {
	if hi <= lo {
		for i := range dst {
			dst[i] = lo
		}
		return
	}
	n := uint32(int64(hi) - int64(lo) + 1)
	if n == 0 {
		// [MinInt32, MaxInt32]
		for i := range dst {
			dst[i] = int32(thisState.Uint32())
		}
		return
	}
	for i := range dst {
		dst[i] = lo + int32(thisState.UInt32N(n))
	}
}
