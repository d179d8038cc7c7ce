package fingerprint

import "strconv"

// Multiplier is the Murmur2 mixing constant. All products wrap modulo 2^32.
const Multiplier uint32 = 1540483477

// IsWhitespace reports whether b is one of the bytes excluded from the
// fingerprint: tab, line feed, carriage return, or space.
func IsWhitespace(b byte) bool {
	return b == '\t' || b == '\n' || b == '\r' || b == ' '
}

// NormalizedLength returns the number of non-whitespace bytes in buf,
// truncated to 32 bits.
func NormalizedLength(buf []byte) uint32 {
	var n uint32
	for _, b := range buf {
		if !IsWhitespace(b) {
			n++
		}
	}
	return n
}

// Compute returns the fingerprint of buf. It never fails and does not retain
// or modify buf, so it is safe to call concurrently on independent buffers.
func Compute(buf []byte) uint32 {
	h := 1 ^ NormalizedLength(buf)

	var k uint32
	var shift uint
	for _, b := range buf {
		if IsWhitespace(b) {
			continue
		}
		k |= uint32(b) << shift
		shift += 8
		if shift < 32 {
			continue
		}
		k *= Multiplier
		k = (k ^ (k >> 24)) * Multiplier
		h = (h * Multiplier) ^ k
		k, shift = 0, 0
	}

	// 1-3 bytes left over, packed low with zero high bytes.
	if shift > 0 {
		h = (h ^ k) * Multiplier
	}

	h = (h ^ (h >> 13)) * Multiplier
	return h ^ (h >> 15)
}

// Format renders fp the way the lookup service keys it: as a decimal integer.
func Format(fp uint32) string {
	return strconv.FormatUint(uint64(fp), 10)
}
