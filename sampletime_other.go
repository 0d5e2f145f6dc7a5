//go:build !windows

package hitgen

import "time"

// TimeStamp is a relative time stamp with the highest precision available on this system.
// Time stamps are only comparable within one process.
type TimeStamp = time.Time

// SampleTime returns the current TimeStamp. On this platform it reads the monotonic clock.
func SampleTime() TimeStamp {
	return time.Now()
}

// DiffTimeStamps returns t_later - t_earlier in nanoseconds. It is negative if the
// arguments are swapped.
func DiffTimeStamps(t_earlier, t_later TimeStamp) int64 {
	return t_later.Sub(t_earlier).Nanoseconds()
}
