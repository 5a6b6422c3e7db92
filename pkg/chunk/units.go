package chunk

import (
	"encoding/binary"
	"unicode/utf16"
)

// Positions and chunk sizes count UTF-16 code units, the unit browser
// clients index strings in. A character outside the BMP is two units.

func units(text string) []uint16 {
	return utf16.Encode([]rune(text))
}

// decode turns code units back into text. A surrogate left unpaired by
// clamping becomes U+FFFD.
func decode(u []uint16) string {
	return string(utf16.Decode(u))
}

// slice returns up to n units of text starting at start. Out of range bounds
// are clamped; whole reports whether all n units were available.
func slice(text []uint16, start, n int) (part []uint16, whole bool) {
	if start < 0 || start >= len(text) {
		return nil, false
	}
	if n > len(text)-start {
		return text[start:], false
	}
	return text[start : start+n], true
}

// splitsPair reports whether a boundary before index b falls between the
// two halves of a surrogate pair
func splitsPair(u []uint16, b int) bool {
	return b > 0 && b < len(u) && isHighSurrogate(u[b-1]) && isLowSurrogate(u[b])
}

func isHighSurrogate(v uint16) bool { return v >= 0xD800 && v < 0xDC00 }

func isLowSurrogate(v uint16) bool { return v >= 0xDC00 && v < 0xE000 }

// unitKey is a lossless map key for a run of code units
func unitKey(u []uint16) string {
	b := make([]byte, 2*len(u))
	for i, v := range u {
		binary.BigEndian.PutUint16(b[2*i:], v)
	}
	return string(b)
}
