package hitgen

// BatchWidth is the number of lanes processed together: eight int32 or float32
// values, one 256-bit vector.
const BatchWidth = 8

// Lanes is one batch of int32 lanes.
type Lanes [BatchWidth]int32

// Scan returns the inclusive prefix sum of x: out[i] = x[0] + ... + x[i].
//
// It is a Hillis-Steele scan with log2(BatchWidth) = 3 rounds. Each round shifts the
// vector up by 1, 2 and 4 lanes, fills the vacated low lanes with zero and adds.
// Every lane of a round only reads the previous round, so each round maps to one
// permute, one blend with zero and one add on AVX2 hardware.
func Scan(x Lanes) Lanes {
	var t Lanes

	// shift by one
	t = Lanes{0, x[0], x[1], x[2], x[3], x[4], x[5], x[6]}
	for i := range x {
		x[i] += t[i]
	}

	// shift by two
	t = Lanes{0, 0, x[0], x[1], x[2], x[3], x[4], x[5]}
	for i := range x {
		x[i] += t[i]
	}

	// shift by four
	t = Lanes{0, 0, 0, 0, x[0], x[1], x[2], x[3]}
	for i := range x {
		x[i] += t[i]
	}
	return x
}
