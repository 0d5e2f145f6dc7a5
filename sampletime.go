package hitgen

import (
	"math"
	"sync"
)

const timerCalibrationRounds = 1_000_000

var (
	timerPrecision     int64
	timerPrecisionOnce sync.Once
)

// TimerPrecision returns the smallest non-zero difference between two consecutive
// SampleTime calls in nanoseconds, measured once per process. Generation timings in
// Result.ElapsedNs are only meaningful above this value.
func TimerPrecision() int64 {
	timerPrecisionOnce.Do(func() {
		timerPrecision = calcMinTimeSample(timerCalibrationRounds)
	})
	return timerPrecision
}

func calcMinTimeSample(rounds int) int64 {
	var minDiff = int64(math.MaxInt64)
	for range rounds {
		t1 := SampleTime()
		t2 := SampleTime()
		diff := DiffTimeStamps(t1, t2)
		if diff > 0 && diff < minDiff {
			minDiff = diff
		}
	}
	return minDiff
}
