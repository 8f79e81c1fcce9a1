package colorpass

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/x448/float16"

	"github.com/gogpu/colorpass/internal/color"
)

// LUTFormat is the texel format the LUT is stored in on the GPU.
type LUTFormat uint8

const (
	// LUTFormatR8 stores one unorm byte per sample (256 output levels).
	LUTFormatR8 LUTFormat = iota

	// LUTFormatR16F stores one half float per sample, for displays driven
	// at more than 8 bits per channel.
	LUTFormatR16F
)

// String returns the configuration name.
func (f LUTFormat) String() string {
	switch f {
	case LUTFormatR8:
		return "r8"
	case LUTFormatR16F:
		return "r16f"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseLUTFormat parses a format name.
func ParseLUTFormat(s string) (LUTFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "r8", "r8unorm", "8bit":
		return LUTFormatR8, nil
	case "r16f", "r16float", "half":
		return LUTFormatR16F, nil
	default:
		return LUTFormatR8, fmt.Errorf("%w: unknown LUT format %q", ErrInvalidLUT, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *LUTFormat) UnmarshalText(text []byte) error {
	v, err := ParseLUTFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f LUTFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// TexelSize returns the size of one texel in bytes.
func (f LUTFormat) TexelSize() int {
	if f == LUTFormatR16F {
		return 2
	}
	return 1
}

// Pack returns the texture upload payload for l: three layers (R, G, B),
// each Width x Height texels, row-major, layers back to back.
func (f LUTFormat) Pack(l *LUT) []byte {
	n := l.Len()
	ts := f.TexelSize()
	out := make([]byte, NumChannels*n*ts)
	for c := 0; c < NumChannels; c++ {
		curve := l.curves[c]
		base := c * n * ts
		for i, v := range curve {
			switch f {
			case LUTFormatR16F:
				h := float16.Fromfloat32(v)
				binary.LittleEndian.PutUint16(out[base+i*2:], h.Bits())
			default:
				out[base+i] = color.Quantize8(v)
			}
		}
	}
	return out
}

// Quantize returns a copy of l whose samples are rounded to the precision
// of the texel format, i.e. the values the GPU will actually read.
func (f LUTFormat) Quantize(l *LUT) *LUT {
	out := l.Clone()
	for c := range out.curves {
		for i, v := range out.curves[c] {
			switch f {
			case LUTFormatR16F:
				out.curves[c][i] = float16.Fromfloat32(v).Float32()
			default:
				out.curves[c][i] = float32(color.Quantize8(v)) / 255
			}
		}
	}
	return out
}
