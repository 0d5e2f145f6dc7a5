package hitgen

// Source is the random stream consumed by the generator and by coincidence injectors.
// Implementations are stateful and owned by exactly one caller at a time.
type Source interface {
	// Uniforms fills dst with uniform values in the open interval (0,1).
	Uniforms(dst []float32)
	// Bounded fills dst with uniform integers in the closed interval [lo,hi].
	Bounded(dst []int32, lo, hi int32)
}
