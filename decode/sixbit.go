package decode

import (
	"fmt"

	"github.com/flegmaatikko/purais/errors"
)

// deArmor expands a six-bit ASCII payload into an unpacked bitstream (one
// bit per byte, MSB first) and strips the trailing fill bits.
func deArmor(payload string, fillBits int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "deArmor", "empty payload")
	}
	if fillBits < 0 || fillBits > 5 {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "deArmor",
			fmt.Sprintf("fill bits %d out of range", fillBits))
	}

	bits := make([]byte, 0, len(payload)*6)
	for i := 0; i < len(payload); i++ {
		v := int(payload[i]) - 48
		if v > 40 {
			v -= 8
		}
		if v < 0 || v > 63 {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "deArmor",
				fmt.Sprintf("character %q outside six-bit alphabet", payload[i]))
		}
		for b := 5; b >= 0; b-- {
			bits = append(bits, byte(v>>b)&1)
		}
	}

	if fillBits >= len(bits) {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "decode", "deArmor", "fill bits exceed payload")
	}
	return bits[:len(bits)-fillBits], nil
}

// bitUint reads an unsigned integer of the given bit length from an
// unpacked bitstream. Returns false when the span runs past the end.
func bitUint(bits []byte, offset, length int) (uint32, bool) {
	if offset < 0 || length <= 0 || offset+length > len(bits) {
		return 0, false
	}
	var v uint32
	for _, b := range bits[offset : offset+length] {
		v = v<<1 | uint32(b)
	}
	return v, true
}
