package colorpass

// LUTIndex maps a channel value in [0,1] to a flat sample index of a curve
// with n samples: round-half-up of v*(n-1), computed in float32 to match the
// shader bit for bit.
//
// The result is clamped to [0, n-1] explicitly, so out-of-range input (HDR
// values, negatives, NaN) never addresses outside the table.
func LUTIndex(v float32, n int) int {
	if n < 2 {
		return 0
	}
	// !(v > 0) also catches NaN.
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return n - 1
	}
	// The explicit conversion rounds the product before the add, so no
	// platform fuses it into one FMA.
	scaled := float32(v * float32(n-1))
	idx := int(scaled + 0.5)
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// LUTCoord converts a flat sample index to texel coordinates in a grid that
// is width texels wide, row-major.
func LUTCoord(index, width int) (col, row int) {
	return index % width, index / width
}
