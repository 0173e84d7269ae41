package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// Micros is a free-running 32-bit microsecond counter. It wraps roughly
// every 71.6 minutes; compare readings with Reached only.
type Micros func() uint32

// NewMicros returns a counter starting at base.
func NewMicros(base uint32) Micros {
	start := time.Now()
	return func() uint32 {
		return base + uint32(time.Since(start)/time.Microsecond)
	}
}

// Reached reports whether now is at or past deadline, modulo 2^32.
// Valid while the two readings are less than 2^31 µs apart.
func Reached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}
