package codec

// ITU-T G.711 companding, ported from the CCITT reference tables.
// Both laws map 16-bit linear samples to 8-bit companded samples.

const (
	ulawBias = 0x84
	ulawClip = 8159 // 14-bit domain
)

var segUEnd = [8]int16{0x3F, 0x7F, 0xFF, 0x1FF, 0x3FF, 0x7FF, 0xFFF, 0x1FFF}
var segAEnd = [8]int16{0x1F, 0x3F, 0x7F, 0xFF, 0x1FF, 0x3FF, 0x7FF, 0xFFF}

func segment(val int16, table [8]int16) int {
	for i, end := range table {
		if val <= end {
			return i
		}
	}
	return 8
}

// linearToULaw converts one 16-bit linear sample to 8-bit mu-law.
func linearToULaw(pcm int16) byte {
	var mask int16
	val := pcm >> 2 // 16 -> 14 bit
	if val < 0 {
		val = -val
		mask = 0x7F
	} else {
		mask = 0xFF
	}
	if val > ulawClip {
		val = ulawClip
	}
	val += ulawBias >> 2

	seg := segment(val, segUEnd)
	if seg >= 8 {
		return byte(0x7F ^ mask)
	}
	uval := int16(seg<<4) | ((val >> (seg + 1)) & 0xF)
	return byte(uval ^ mask)
}

// ulawToLinear converts one 8-bit mu-law sample to 16-bit linear.
func ulawToLinear(u byte) int16 {
	u = ^u
	t := (int16(u&0xF) << 3) + ulawBias
	t <<= (u & 0x70) >> 4
	if u&0x80 != 0 {
		return ulawBias - t
	}
	return t - ulawBias
}

// linearToALaw converts one 16-bit linear sample to 8-bit A-law.
func linearToALaw(pcm int16) byte {
	var mask int16
	val := pcm >> 3 // 16 -> 13 bit
	if val >= 0 {
		mask = 0xD5 // sign (7th) bit = 1
	} else {
		mask = 0x55
		val = -val - 1
	}

	seg := segment(val, segAEnd)
	if seg >= 8 {
		return byte(0x7F ^ mask)
	}
	aval := int16(seg << 4)
	if seg < 2 {
		aval |= (val >> 1) & 0xF
	} else {
		aval |= (val >> seg) & 0xF
	}
	return byte(aval ^ mask)
}

// alawToLinear converts one 8-bit A-law sample to 16-bit linear.
func alawToLinear(a byte) int16 {
	a ^= 0x55
	t := int16(a&0xF) << 4
	seg := (a & 0x70) >> 4
	switch seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if a&0x80 != 0 {
		return t
	}
	return -t
}
