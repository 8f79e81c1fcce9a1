// Package color provides the transfer functions and quantization helpers
// used to build default calibration curves and to decode source images.
//
// References:
//   - sRGB specification: https://www.w3.org/Graphics/Color/sRGB
package color

import "math"

// sRGB transfer constants.
const (
	srgbEncodeThreshold = 0.0031308
	srgbDecodeThreshold = 0.04045
)

// LinearToSRGB64 is the sRGB inverse EOTF in float64: linear light in
// [0,1] to the display-encoded level.
func LinearToSRGB64(l float64) float64 {
	if l <= srgbEncodeThreshold {
		return 12.92 * l
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// SRGBToLinear64 is the sRGB EOTF in float64.
func SRGBToLinear64(s float64) float64 {
	if s <= srgbDecodeThreshold {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// Quantize8 clamps v to [0,1] and rounds it to an unorm byte.
func Quantize8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// Quantize16 clamps v to [0,1] and rounds it to a 16-bit unorm value.
func Quantize16(v float32) uint16 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint16(v*65535.0 + 0.5)
}
