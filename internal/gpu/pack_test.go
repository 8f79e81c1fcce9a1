//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/colorpass"
)

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct {
		width uint32
		want  uint32
	}{
		{1, 256},
		{16, 256},
		{17, 512},
		{64, 1024},
		{1920, 30720},
	}
	for _, tt := range tests {
		if got := alignedBytesPerRow(tt.width); got != tt.want {
			t.Errorf("alignedBytesPerRow(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestPackUnpackFrame(t *testing.T) {
	src := colorpass.NewFrame(3, 2)
	vals := []float32{0, 0.25, 0.5, 1}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			v := vals[(x+y)%len(vals)]
			src.Set(x, y, colorpass.RGBA{R: v, G: 1 - v, B: v / 2, A: 1})
		}
	}

	packed := packFrame(src, nil)
	if len(packed) != 3*2*frameTexelSize {
		t.Fatalf("packed len = %d, want %d", len(packed), 3*2*frameTexelSize)
	}

	// Re-lay the tight rows out with readback padding.
	bpr := alignedBytesPerRow(3)
	padded := make([]byte, int(bpr)*2)
	for y := 0; y < 2; y++ {
		copy(padded[y*int(bpr):], packed[y*3*frameTexelSize:(y+1)*3*frameTexelSize])
	}

	dst := colorpass.NewFrame(3, 2)
	unpackFrame(padded, bpr, dst)
	for i := range src.Pix {
		if dst.Pix[i] != src.Pix[i] {
			t.Fatalf("value %d = %v, want %v", i, dst.Pix[i], src.Pix[i])
		}
	}
}

func TestPackFrameKeepsFloat32Bits(t *testing.T) {
	// Values a half float would round: each must come back bit-identical so
	// the shader sees exactly what the CPU executor sees.
	vals := []float32{0.7, 0.9, 1.0 / 3, 1e-7, 0.99999994, 12.5, -0.25}
	src := colorpass.NewFrame(len(vals), 1)
	for i, v := range vals {
		src.Set(i, 0, colorpass.RGBA{R: v, G: v / 7, B: 1 - v, A: v})
	}

	packed := packFrame(src, nil)
	bpr := alignedBytesPerRow(uint32(src.Width))
	padded := make([]byte, bpr)
	copy(padded, packed)

	dst := colorpass.NewFrame(src.Width, 1)
	unpackFrame(padded, bpr, dst)
	for i := range src.Pix {
		if math.Float32bits(dst.Pix[i]) != math.Float32bits(src.Pix[i]) {
			t.Errorf("value %d = %v, want %v", i, dst.Pix[i], src.Pix[i])
		}
	}
}

func TestPackFrameReusesBuffer(t *testing.T) {
	f := colorpass.NewFrame(4, 4)
	buf := make([]byte, 0, 1024)
	out := packFrame(f, buf)
	if &out[0] != &buf[:1][0] {
		t.Error("packFrame allocated despite sufficient capacity")
	}
}

func TestVertexData(t *testing.T) {
	data := vertexData()
	if len(data) != colorpass.FullscreenVertexCount*vertexStride {
		t.Fatalf("len = %d, want %d", len(data), colorpass.FullscreenVertexCount*vertexStride)
	}
	for i, v := range colorpass.FullscreenVertices {
		x := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+4:]))
		if x != v[0] || y != v[1] {
			t.Errorf("vertex %d = (%v, %v), want %v", i, x, y, v)
		}
	}
}
