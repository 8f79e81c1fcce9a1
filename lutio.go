package colorpass

import (
	"fmt"
	"image"
	stdcolor "image/color"

	"github.com/gogpu/colorpass/internal/color"
)

// LUTFromImage reads a calibration LUT stored as an interleaved RGB image:
// pixel (i % w, i / w) carries sample i of the red, green and blue curves
// in its three channels. The image dimensions become the grid dimensions.
//
// 8-bit and 16-bit images are both accepted. Alpha is ignored: channels of
// non-premultiplied images are read as stored, even where alpha is zero.
func LUTFromImage(img image.Image) (*LUT, error) {
	b := img.Bounds()
	l, err := NewLUT(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	w := b.Dx()
	n := l.Len()
	for i := 0; i < n; i++ {
		col, row := LUTCoord(i, w)
		r, g, bl := lutSample(img, b.Min.X+col, b.Min.Y+row)
		l.curves[ChannelRed][i] = float32(r) / 0xffff
		l.curves[ChannelGreen][i] = float32(g) / 0xffff
		l.curves[ChannelBlue][i] = float32(bl) / 0xffff
	}
	return l, nil
}

// lutSample returns the straight 16-bit RGB of the pixel at (x, y).
func lutSample(img image.Image, x, y int) (r, g, b uint16) {
	switch m := img.(type) {
	case *image.NRGBA:
		c := m.NRGBAAt(x, y)
		return uint16(c.R) * 0x101, uint16(c.G) * 0x101, uint16(c.B) * 0x101
	case *image.NRGBA64:
		c := m.NRGBA64At(x, y)
		return c.R, c.G, c.B
	}
	switch c := img.At(x, y).(type) {
	case stdcolor.NRGBA:
		return uint16(c.R) * 0x101, uint16(c.G) * 0x101, uint16(c.B) * 0x101
	case stdcolor.NRGBA64:
		return c.R, c.G, c.B
	default:
		px := stdcolor.NRGBA64Model.Convert(c).(stdcolor.NRGBA64)
		return px.R, px.G, px.B
	}
}

// Image encodes the LUT as an opaque 16-bit interleaved RGB image, the
// inverse of LUTFromImage.
func (l *LUT) Image() *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, l.width, l.height))
	for i := 0; i < l.Len(); i++ {
		col, row := LUTCoord(i, l.width)
		img.SetNRGBA64(col, row, stdcolor.NRGBA64{
			R: color.Quantize16(l.curves[ChannelRed][i]),
			G: color.Quantize16(l.curves[ChannelGreen][i]),
			B: color.Quantize16(l.curves[ChannelBlue][i]),
			A: 0xffff,
		})
	}
	return img
}

// CheckLUTImageSize reports whether img can be used directly as a LUT of the
// given dimensions.
func CheckLUTImageSize(img image.Image, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("%w: image is %dx%d, want %dx%d",
			ErrLUTSizeMismatch, b.Dx(), b.Dy(), width, height)
	}
	return nil
}
