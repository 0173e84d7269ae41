package mathx

// MapU32 maps x in [inMin,inMax] to [outMin,outMax] with 64-bit intermediates
// and round-to-nearest. Clamps to the out range if input is outside.
func MapU32(x, inMin, inMax, outMin, outMax uint32) uint32 {
	if inMax <= inMin {
		return outMin
	}
	if x <= inMin {
		return outMin
	}
	if x >= inMax {
		return outMax
	}
	if outMax < outMin {
		// Descending range: map onto the mirror and flip.
		return outMin - MapU32(x, inMin, inMax, 0, outMin-outMax)
	}
	num := uint64(x-inMin) * uint64(outMax-outMin)
	den := uint64(inMax - inMin)
	return outMin + uint32(RoundDiv(num, den))
}
