package regfile

import "lasercode-go/x/mathx"

// NumPeriods is the number of selectable oscillation periods.
const NumPeriods = 10

// periods holds the selectable BLINK/PULSE periods in microseconds.
var periods = [NumPeriods]uint32{
	64_000, 125_000, 250_000, 500_000, 750_000,
	1_000_000, 1_500_000, 2_000_000, 3_000_000, 4_000_000,
}

// Period returns the duration in µs for index i, clamping i into the table.
func Period(i int) uint32 {
	return periods[mathx.Clamp(i, 0, NumPeriods-1)]
}

// PeriodIndexOf returns the table index holding exactly us, or -1.
func PeriodIndexOf(us uint32) int {
	for i, p := range periods {
		if p == us {
			return i
		}
	}
	return -1
}

// Periods returns a copy of the table.
func Periods() [NumPeriods]uint32 { return periods }
