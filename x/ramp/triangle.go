package ramp

import "lasercode-go/x/mathx"

// Bounce advances a triangle wave by one step within [0..top].
// The level is clamped at either bound and the returned step has its sign
// flipped there, so the next call walks back the other way.
// A zero step leaves the level where it is.
func Bounce(level, step, top int16) (int16, int16) {
	if top < 0 {
		top = 0
	}
	next := int32(level) + int32(step)
	switch {
	case next >= int32(top):
		return top, -mathx.Abs(step)
	case next <= 0:
		return 0, mathx.Abs(step)
	}
	return int16(next), step
}
