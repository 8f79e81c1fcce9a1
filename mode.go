package colorpass

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// CorrectionMode selects the tone correction applied after premultiplication.
//
// The set is closed but forward compatible: any value other than ModeLUT
// behaves exactly like ModeNone.
type CorrectionMode uint32

const (
	// ModeNone passes premultiplied colors through unchanged.
	ModeNone CorrectionMode = 0

	// ModeLUT remaps each channel through its calibration curve.
	ModeLUT CorrectionMode = 1
)

// String returns the configuration name of the mode.
func (m CorrectionMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeLUT:
		return "lut"
	default:
		return fmt.Sprintf("mode(%d)", uint32(m))
	}
}

// ParseMode parses a mode name as used in configuration files.
func ParseMode(s string) (CorrectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return ModeNone, nil
	case "lut", "gamma":
		return ModeLUT, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m CorrectionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CorrectionMode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParamsSize is the size in bytes of the uniform record bound at binding 1.
// Three u32 fields padded to 16 bytes.
const ParamsSize = 16

// Params is the fixed parameter record consumed by the pass.
type Params struct {
	Mode      CorrectionMode
	LUTWidth  uint32
	LUTHeight uint32
}

// SampleCount returns the number of samples per channel curve (N).
func (p Params) SampleCount() int {
	return int(p.LUTWidth) * int(p.LUTHeight)
}

// ParamsForLUT returns LUT-mode parameters matching the dimensions of lut.
func ParamsForLUT(lut *LUT) Params {
	if lut == nil {
		return Params{Mode: ModeLUT}
	}
	//nolint:gosec // G115: LUT dimensions are validated positive at construction
	return Params{Mode: ModeLUT, LUTWidth: uint32(lut.Width()), LUTHeight: uint32(lut.Height())}
}

// Validate checks the parameters against the LUT that will be bound with them.
// Only LUT mode has requirements; other modes accept any LUT, including nil.
func (p Params) Validate(lut *LUT) error {
	if p.Mode != ModeLUT {
		return nil
	}
	if p.SampleCount() < 2 {
		return fmt.Errorf("%w: %dx%d", ErrLUTTooSmall, p.LUTWidth, p.LUTHeight)
	}
	if lut == nil {
		return ErrLUTMissing
	}
	if lut.Width() != int(p.LUTWidth) || lut.Height() != int(p.LUTHeight) {
		return fmt.Errorf("%w: params %dx%d, LUT %dx%d",
			ErrLUTSizeMismatch, p.LUTWidth, p.LUTHeight, lut.Width(), lut.Height())
	}
	return nil
}

// Bytes returns the little-endian uniform buffer layout:
//
//	offset 0:  mode       u32
//	offset 4:  lut_width  u32
//	offset 8:  lut_height u32
//	offset 12: padding
func (p Params) Bytes() []byte {
	buf := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(p.Mode))
	binary.LittleEndian.PutUint32(buf[4:], p.LUTWidth)
	binary.LittleEndian.PutUint32(buf[8:], p.LUTHeight)
	return buf
}
