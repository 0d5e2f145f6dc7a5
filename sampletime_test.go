package hitgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleTime(t *testing.T) {
	t1 := SampleTime()
	time.Sleep(20 * time.Millisecond)
	t2 := SampleTime()

	diff := DiffTimeStamps(t1, t2)
	assert.GreaterOrEqual(t, diff, int64(20*time.Millisecond))
	assert.Less(t, diff, int64(2*time.Second))
	assert.Equal(t, -diff, DiffTimeStamps(t2, t1))
}

func TestCalcMinTimeSample(t *testing.T) {
	minDiff := calcMinTimeSample(100_000)
	t.Logf("calcMinTimeSample result: %d ns", minDiff)
	assert.GreaterOrEqual(t, minDiff, int64(1))
	assert.Less(t, minDiff, int64(1_000_000))
}

func TestTimerPrecisionCached(t *testing.T) {
	p1 := TimerPrecision()
	p2 := TimerPrecision()
	assert.Equal(t, p1, p2)
}
