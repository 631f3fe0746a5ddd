package vcap

// Expand maps a raw 2-bit channel value to its 8-bit equivalent:
//
//	0 -> 0x00, 1 -> 0x40, 2 -> 0xBF, 3 -> 0xFF
//
// The raw value occupies the two most significant bits of the result; when
// the top bit is set, the six low bits are filled in. The mapping is not a
// linear scale; reference images are generated with this exact table.
//
func Expand(c uint8) uint8 {
	v := (c & 3) << 6
	if v&0x80 != 0 {
		v |= 0x3f
	}
	return v
}
