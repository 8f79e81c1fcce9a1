package colorpass

import (
	"fmt"
	"math"

	"github.com/gogpu/colorpass/internal/color"
)

// Channel identifies one of the three LUT curves. The value is also the
// array layer the curve occupies in the GPU texture.
type Channel int

const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

// NumChannels is the number of curves in a LUT, fixed by the RGB color model.
const NumChannels = 3

// DefaultLUTSize is the width and height of the default LUT grid
// (256x256 = 65536 samples per channel).
const DefaultLUTSize = 256

// LUT holds three independent 1-D calibration curves, one per color
// channel, each mapping a linear level in [0,1] to a display-encoded level
// in [0,1].
//
// Each curve has Width()*Height() uniformly spaced samples laid out
// row-major in a Width x Height grid: sample i sits at column i%Width,
// row i/Width. A LUT must not be modified once it has been handed to a Pass.
type LUT struct {
	width, height int
	curves        [NumChannels][]float32
}

// NewLUT allocates a zero-filled LUT with the given grid dimensions.
func NewLUT(width, height int) (*LUT, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidLUT, width, height)
	}
	if width*height < 2 {
		return nil, fmt.Errorf("%w: %dx%d", ErrLUTTooSmall, width, height)
	}
	l := &LUT{width: width, height: height}
	n := width * height
	for c := range l.curves {
		l.curves[c] = make([]float32, n)
	}
	return l, nil
}

// NewLUTFromFunc builds a LUT whose three curves all follow f, sampled at
// x = i/(N-1) so that the first and last samples hit 0 and 1 exactly.
func NewLUTFromFunc(width, height int, f func(x float64) float64) (*LUT, error) {
	l, err := NewLUT(width, height)
	if err != nil {
		return nil, err
	}
	n := l.Len()
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		y := float32(f(x))
		for c := range l.curves {
			l.curves[c][i] = y
		}
	}
	return l, nil
}

// NewSRGBLUT builds the default calibration: every channel follows the sRGB
// inverse EOTF. Used when LUT correction is requested without a measured LUT.
//
// Sample i encodes i/(N-1), so the table ends exactly at 1. Renderers that
// fill their default table at i/N produce a curve shifted by up to one
// sample; after 8-bit quantization the two tables differ in a small number
// of entries (76 of 65536 for 256x256).
func NewSRGBLUT(width, height int) (*LUT, error) {
	return NewLUTFromFunc(width, height, color.LinearToSRGB64)
}

// NewIdentityLUT builds a LUT that maps every level to itself (up to
// sample quantization).
func NewIdentityLUT(width, height int) (*LUT, error) {
	return NewLUTFromFunc(width, height, func(x float64) float64 { return x })
}

// NewGammaLUT builds a LUT for a pure power-law display with the given
// exponent, encoding x as x^(1/gamma).
func NewGammaLUT(width, height int, gamma float64) (*LUT, error) {
	if gamma <= 0 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return nil, fmt.Errorf("%w: gamma %v", ErrInvalidLUT, gamma)
	}
	inv := 1 / gamma
	return NewLUTFromFunc(width, height, func(x float64) float64 { return math.Pow(x, inv) })
}

// Width returns the grid width in texels.
func (l *LUT) Width() int { return l.width }

// Height returns the grid height in texels.
func (l *LUT) Height() int { return l.height }

// Len returns the number of samples per curve.
func (l *LUT) Len() int { return l.width * l.height }

// Set stores sample i of channel c. Values are clamped to [0,1].
func (l *LUT) Set(c Channel, i int, v float32) {
	l.curves[c][i] = clamp01(v)
}

// At returns the sample stored at texel (col, row) of channel c.
func (l *LUT) At(c Channel, col, row int) float32 {
	return l.curves[c][row*l.width+col]
}

// Curve returns a copy of the samples of channel c in index order.
func (l *LUT) Curve(c Channel) []float32 {
	out := make([]float32, len(l.curves[c]))
	copy(out, l.curves[c])
	return out
}

// Sample returns the corrected value for v using nearest-sample lookup:
// the index is rounded, converted to grid coordinates and read back.
func (l *LUT) Sample(c Channel, v float32) float32 {
	idx := LUTIndex(v, l.Len())
	col, row := LUTCoord(idx, l.width)
	return l.At(c, col, row)
}

// SampleLinear returns the corrected value for v, interpolating linearly
// between the two neighboring samples of the curve.
func (l *LUT) SampleLinear(c Channel, v float32) float32 {
	n := l.Len()
	if !(v > 0) {
		return l.curves[c][0]
	}
	if v >= 1 {
		return l.curves[c][n-1]
	}
	x := v * float32(n-1)
	i0 := int(x)
	if i0 >= n-1 {
		return l.curves[c][n-1]
	}
	t := x - float32(i0)
	a := l.curves[c][i0]
	b := l.curves[c][i0+1]
	return a + (b-a)*t
}

// Clone returns a deep copy of the LUT.
func (l *LUT) Clone() *LUT {
	out := &LUT{width: l.width, height: l.height}
	for c := range l.curves {
		out.curves[c] = make([]float32, len(l.curves[c]))
		copy(out.curves[c], l.curves[c])
	}
	return out
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
