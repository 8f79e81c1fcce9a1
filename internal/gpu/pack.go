//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/colorpass"
)

// frameTexelSize is the size of one Rgba32Float texel in bytes.
const frameTexelSize = 16

// copyPitchAlignment is the WebGPU requirement for BytesPerRow in
// texture-to-buffer copies.
const copyPitchAlignment = 256

func alignedBytesPerRow(width uint32) uint32 {
	bpr := width * frameTexelSize
	return (bpr + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// packFrame lays a float32 frame out as tightly packed Rgba32Float texels.
func packFrame(f *colorpass.Frame, buf []byte) []byte {
	n := f.Width * f.Height * 4
	need := n * 4
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	for i, v := range f.Pix[:n] {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// unpackFrame copies row-padded Rgba32Float readback data into f.
func unpackFrame(data []byte, bytesPerRow uint32, f *colorpass.Frame) {
	rowValues := f.Width * 4
	for y := 0; y < f.Height; y++ {
		src := data[y*int(bytesPerRow):]
		dst := f.Pix[y*rowValues : (y+1)*rowValues]
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	}
}

// vertexData returns the full-screen triangle list as float32x2 vertices.
func vertexData() []byte {
	buf := make([]byte, 0, colorpass.FullscreenVertexCount*8)
	for _, v := range colorpass.FullscreenVertices {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[0]))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[1]))
	}
	return buf
}
