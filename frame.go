package colorpass

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"strings"

	"github.com/gogpu/colorpass/internal/color"
)

// Encoding describes how the RGB channels of a source image are encoded.
// Alpha is always linear.
type Encoding uint8

const (
	// EncodingLinear means channel values are linear light already.
	EncodingLinear Encoding = iota

	// EncodingSRGB means channel values carry the sRGB transfer function
	// and are decoded to linear light when loaded into a Frame.
	EncodingSRGB
)

// String returns the configuration name.
func (e Encoding) String() string {
	if e == EncodingSRGB {
		return "srgb"
	}
	return "linear"
}

// ParseEncoding parses an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return EncodingLinear, nil
	case "srgb":
		return EncodingSRGB, nil
	default:
		return EncodingLinear, fmt.Errorf("colorpass: unknown encoding %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(text []byte) error {
	v, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Frame is a float32 RGBA image, four values per pixel, rows top to bottom.
//
// As pass input a Frame holds straight alpha in linear encoding; as pass
// output it holds premultiplied, display-encoded values.
type Frame struct {
	Width, Height int
	Pix           []float32
}

// NewFrame allocates a transparent black frame.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) RGBA {
	i := (y*f.Width + x) * 4
	p := f.Pix[i : i+4 : i+4]
	return RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set stores c at (x, y).
func (f *Frame) Set(x, y int, c RGBA) {
	i := (y*f.Width + x) * 4
	p := f.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c RGBA) {
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// SameSize reports whether f and o have identical dimensions.
func (f *Frame) SameSize(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height
}

// Row returns the pixel values of row y.
func (f *Frame) Row(y int) []float32 {
	start := y * f.Width * 4
	return f.Pix[start : start+f.Width*4]
}

// FrameFromImage converts img into a straight-alpha linear frame. Source
// channels are un-premultiplied and, for EncodingSRGB, decoded to linear.
func FrameFromImage(img image.Image, enc Encoding) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := stdcolor.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(stdcolor.NRGBA64)
			var c RGBA
			if enc == EncodingSRGB {
				c = RGBA{
					R: color.SRGB16ToLinear(px.R),
					G: color.SRGB16ToLinear(px.G),
					B: color.SRGB16ToLinear(px.B),
				}
			} else {
				c = RGBA{
					R: float32(px.R) / 0xffff,
					G: float32(px.G) / 0xffff,
					B: float32(px.B) / 0xffff,
				}
			}
			c.A = float32(px.A) / 0xffff
			f.Set(x, y, c)
		}
	}
	return f
}

// PremultipliedImage converts a pass output frame to a 16-bit image.
// image.RGBA64 is alpha-premultiplied, matching the frame contents, so the
// values are quantized without any further conversion. Color channels are
// clamped to alpha, since a LUT may lift a premultiplied value above it.
func (f *Frame) PremultipliedImage() *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			a := color.Quantize16(c.A)
			img.SetRGBA64(x, y, stdcolor.RGBA64{
				R: min(color.Quantize16(c.R), a),
				G: min(color.Quantize16(c.G), a),
				B: min(color.Quantize16(c.B), a),
				A: a,
			})
		}
	}
	return img
}

// OpaqueImage converts a pass output frame to the 16-bit image an opaque
// display surface shows: premultiplied color composited over black, alpha
// dropped.
func (f *Frame) OpaqueImage() *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			img.SetRGBA64(x, y, stdcolor.RGBA64{
				R: color.Quantize16(c.R),
				G: color.Quantize16(c.G),
				B: color.Quantize16(c.B),
				A: 0xffff,
			})
		}
	}
	return img
}
