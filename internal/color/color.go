// Package color holds the packed 24-bit RGB value type used throughout the
// controller, plus the hue-wheel mapping used by hue commands.
package color

// Color is a packed 0xRRGGBB value.
type Color uint32

// FromRGB packs three channel bytes into a Color.
func FromRGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB unpacks a Color into its channel bytes.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Channel returns channel i (0=red, 1=green, 2=blue) as an int.
func (c Color) Channel(i int) int {
	return int(uint8(c >> (16 - 8*i)))
}

// WithChannel returns a copy of c with channel i replaced.
func (c Color) WithChannel(i, value int) Color {
	shift := 16 - 8*i
	return c&^(0xff<<shift) | Color(value&0xff)<<shift
}

// Wheel maps a position on the 256-step hue wheel to a color. The wheel
// runs red -> green -> blue -> red; every color it produces has channel
// values summing to 0xff.
func Wheel(pos int) Color {
	pos &= 0xff
	switch {
	case pos < 85:
		return FromRGB(uint8(255-pos*3), uint8(pos*3), 0)
	case pos < 170:
		pos -= 85
		return FromRGB(0, uint8(255-pos*3), uint8(pos*3))
	default:
		pos -= 170
		return FromRGB(uint8(pos*3), 0, uint8(255-pos*3))
	}
}

// Unwheel maps a color back to its hue-wheel position. Colors not on the
// wheel are first normalized: if all three channels are lit the weakest is
// dropped, then the channel sum is corrected toward 0xff. Colors that
// cannot be normalized map to position 0.
func Unwheel(c Color) int {
	r, g, b := c.RGB()
	rgb := [3]int{int(r), int(g), int(b)}
	if rgb[0] != 0 && rgb[1] != 0 && rgb[2] != 0 {
		minIdx := 0
		for i := 1; i < 3; i++ {
			if rgb[i] < rgb[minIdx] {
				minIdx = i
			}
		}
		rgb[minIdx] = 0
	}
	total := rgb[0] + rgb[1] + rgb[2]
	if correct := 0xff - total; correct != 0 {
		for i := range rgb {
			rgb[i] += correct * rgb[i] / 0xff
		}
		total = rgb[0] + rgb[1] + rgb[2]
		if correct = 0xff - total; correct != 0 {
			for i := range rgb {
				if rgb[i] != 0 && rgb[i]+correct >= 0 && rgb[i]+correct <= 0xff {
					rgb[i] += correct
					break
				}
			}
			total = rgb[0] + rgb[1] + rgb[2]
		}
	}
	if total != 0xff {
		return 0
	}
	switch {
	case rgb[2] == 0:
		return rgb[1] / 3
	case rgb[0] == 0:
		return rgb[2]/3 + 85
	default:
		return rgb[0]/3 + 170
	}
}
