package colorpass

// RGBA is a float32 color. Whether alpha is straight or premultiplied
// depends on where the value sits in the pass: input pixels are straight,
// output pixels are premultiplied.
type RGBA struct {
	R, G, B, A float32
}

// Premultiply scales the color channels by alpha. Alpha is unchanged.
func Premultiply(c RGBA) RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Correct runs the full per-pixel transform with nearest sampling:
// premultiply, then apply the correction selected by p.Mode.
//
// Correct never fails. Unknown modes pass through. p and lut are expected
// to have passed Params.Validate; a nil LUT in LUT mode degrades to pass-through.
func Correct(c RGBA, p Params, lut *LUT) RGBA {
	k := Kernel{params: p, lut: lut}
	return k.Apply(c)
}
