package color

// srgb8ToLinear decodes 8-bit sRGB levels without calling math.Pow per pixel.
// 256 entries, 1KB.
var srgb8ToLinear [256]float32

func init() {
	for i := range srgb8ToLinear {
		srgb8ToLinear[i] = float32(SRGBToLinear64(float64(i) / 255.0))
	}
}

// SRGB8ToLinear decodes an 8-bit sRGB level to linear light using a table.
func SRGB8ToLinear(s uint8) float32 {
	return srgb8ToLinear[s]
}

// SRGB16ToLinear decodes a 16-bit sRGB level to linear light.
func SRGB16ToLinear(s uint16) float32 {
	if s&0xff == s>>8 {
		// 8-bit value widened by x*257.
		return srgb8ToLinear[s>>8]
	}
	return float32(SRGBToLinear64(float64(s) / 65535.0))
}
