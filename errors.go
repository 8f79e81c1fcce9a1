package colorpass

import "errors"

// Setup-time errors. The per-pixel path never fails; everything that can go
// wrong is reported before a frame is dispatched.
var (
	// ErrFallbackToCPU indicates the accelerator cannot run this frame.
	// The pass transparently falls back to the CPU executor.
	ErrFallbackToCPU = errors.New("colorpass: falling back to CPU")

	// ErrLUTTooSmall is returned when LUT correction is requested with fewer
	// than two samples per curve.
	ErrLUTTooSmall = errors.New("colorpass: LUT needs at least 2 samples per channel")

	// ErrLUTMissing is returned when LUT correction is requested without a LUT.
	ErrLUTMissing = errors.New("colorpass: LUT correction requested but no LUT bound")

	// ErrLUTSizeMismatch is returned when the parameter record disagrees with
	// the dimensions of the bound LUT.
	ErrLUTSizeMismatch = errors.New("colorpass: LUT dimensions do not match parameters")

	// ErrInvalidLUT is returned for malformed LUT data.
	ErrInvalidLUT = errors.New("colorpass: invalid LUT")

	// ErrUnknownMode is returned when parsing an unrecognized mode name.
	// Numeric mode values are never rejected.
	ErrUnknownMode = errors.New("colorpass: unknown correction mode")

	// ErrFrameSize is returned when source and destination frames differ in size.
	ErrFrameSize = errors.New("colorpass: frame size mismatch")
)
