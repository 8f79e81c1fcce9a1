package colorpass

import (
	"fmt"
	"strings"
)

// Interpolation selects how a LUT curve is sampled between grid points.
type Interpolation uint8

const (
	// InterpolationNearest picks the sample at the rounded index. This is
	// the compatibility behavior and the only one the GPU executor runs.
	InterpolationNearest Interpolation = iota

	// InterpolationLinear blends the two neighboring samples of the curve.
	InterpolationLinear
)

// String returns the configuration name.
func (i Interpolation) String() string {
	switch i {
	case InterpolationNearest:
		return "nearest"
	case InterpolationLinear:
		return "linear"
	default:
		return fmt.Sprintf("interpolation(%d)", uint8(i))
	}
}

// ParseInterpolation parses an interpolation name.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return InterpolationNearest, nil
	case "linear":
		return InterpolationLinear, nil
	default:
		return InterpolationNearest, fmt.Errorf("colorpass: unknown interpolation %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interpolation) UnmarshalText(text []byte) error {
	v, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Snapshot is the frame-invariant state of a pass: parameters, LUT, its
// storage format and the sampling policy. A snapshot is taken once per frame and never changes
// while pixels are being processed.
type Snapshot struct {
	Params        Params
	LUT           *LUT
	Format        LUTFormat
	Interpolation Interpolation
}

// Kernel is the per-pixel correction function bound to one snapshot.
// It is a value type with no mutable state and safe for concurrent use.
type Kernel struct {
	params Params
	lut    *LUT
	interp Interpolation
}

// NewKernel validates s and returns the kernel for it.
func NewKernel(s Snapshot) (Kernel, error) {
	if err := s.Params.Validate(s.LUT); err != nil {
		return Kernel{}, err
	}
	return Kernel{params: s.Params, lut: s.LUT, interp: s.Interpolation}, nil
}

// Apply transforms one straight-alpha pixel into a premultiplied display pixel.
func (k Kernel) Apply(c RGBA) RGBA {
	pm := Premultiply(c)
	switch k.params.Mode {
	case ModeLUT:
		if k.lut == nil {
			return pm
		}
		return k.lookup(pm)
	case ModeNone:
		return pm
	default:
		return pm
	}
}

// lookup remaps the premultiplied channels through the three curves.
// The correction deliberately operates on premultiplied values.
func (k Kernel) lookup(pm RGBA) RGBA {
	if k.interp == InterpolationLinear {
		return RGBA{
			R: k.lut.SampleLinear(ChannelRed, pm.R),
			G: k.lut.SampleLinear(ChannelGreen, pm.G),
			B: k.lut.SampleLinear(ChannelBlue, pm.B),
			A: pm.A,
		}
	}
	return RGBA{
		R: k.lut.Sample(ChannelRed, pm.R),
		G: k.lut.Sample(ChannelGreen, pm.G),
		B: k.lut.Sample(ChannelBlue, pm.B),
		A: pm.A,
	}
}
