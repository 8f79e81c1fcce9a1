package parallel

// Band is a half-open range of rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int { return b.Y1 - b.Y0 }

// Bands splits rows into at most parts contiguous bands of near-equal size.
// Bands never overlap, never are empty, and together cover [0, rows).
func Bands(rows, parts int) []Band {
	if rows <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > rows {
		parts = rows
	}
	out := make([]Band, 0, parts)
	base, extra := rows/parts, rows%parts
	y := 0
	for i := 0; i < parts; i++ {
		n := base
		if i < extra {
			n++
		}
		out = append(out, Band{Y0: y, Y1: y + n})
		y += n
	}
	return out
}
