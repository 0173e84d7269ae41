package conv

const hexd = "0123456789abcdef"

// Hex writes the low `digits` nibbles of n as lowercase hex without 0x,
// zero-padded, into the tail of buf and returns the used slice.
func Hex(buf []byte, n uint32, digits int) []byte {
	if digits > 8 {
		digits = 8
	}
	if len(buf) < digits {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// U8Hex is Hex for one byte.
func U8Hex(buf []byte, b byte) []byte { return Hex(buf, uint32(b), 2) }

// U32Hex writes 8 hex digits.
func U32Hex(buf []byte, n uint32) []byte { return Hex(buf, n, 8) }

// AppendHexBytes appends "0x.. 0x.." for each byte of p.
func AppendHexBytes(dst, p []byte) []byte {
	var b [2]byte
	for i, v := range p {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, '0', 'x')
		dst = append(dst, U8Hex(b[:], v)...)
	}
	return dst
}
