package colorpass

import "testing"

func edge(a, b [2]float32, px, py float32) float32 {
	return (b[0]-a[0])*(py-a[1]) - (b[1]-a[1])*(px-a[0])
}

func strictlyInside(tri [3][2]float32, px, py float32) bool {
	e0 := edge(tri[0], tri[1], px, py)
	e1 := edge(tri[1], tri[2], px, py)
	e2 := edge(tri[2], tri[0], px, py)
	return (e0 > 0 && e1 > 0 && e2 > 0) || (e0 < 0 && e1 < 0 && e2 < 0)
}

func TestFullscreenTrianglesCounterClockwise(t *testing.T) {
	if FullscreenVertexCount != 6 {
		t.Fatalf("FullscreenVertexCount = %d, want 6", FullscreenVertexCount)
	}
	for i := 0; i < 2; i++ {
		v := FullscreenVertices[i*3 : i*3+3]
		area := edge(v[0], v[1], v[2][0], v[2][1])
		if area <= 0 {
			t.Errorf("triangle %d has signed area %v, want counter-clockwise", i, area)
		}
	}
}

// pixelCenterNDC returns the normalized device coordinates of the center of
// pixel (x, y) on a width x height surface, y pointing down in pixel space.
func pixelCenterNDC(x, y, width, height int) (float32, float32) {
	nx := (float32(x)+0.5)/float32(width)*2 - 1
	ny := 1 - (float32(y)+0.5)/float32(height)*2
	return nx, ny
}

// Even widths with odd heights keep pixel centers off the shared diagonal,
// so every center lies strictly inside exactly one triangle.
func TestFullscreenCoversEveryPixelOnce(t *testing.T) {
	tris := [2][3][2]float32{
		{FullscreenVertices[0], FullscreenVertices[1], FullscreenVertices[2]},
		{FullscreenVertices[3], FullscreenVertices[4], FullscreenVertices[5]},
	}
	for _, size := range [][2]int{{2, 1}, {4, 3}, {16, 9}, {64, 37}} {
		w, h := size[0], size[1]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				nx, ny := pixelCenterNDC(x, y, w, h)
				hits := 0
				for _, tri := range tris {
					if strictlyInside(tri, nx, ny) {
						hits++
					}
				}
				if hits != 1 {
					t.Fatalf("%dx%d: pixel (%d,%d) at (%v,%v) covered %d times", w, h, x, y, nx, ny, hits)
				}
			}
		}
	}
}

func TestPixelCenterNDC(t *testing.T) {
	x, y := pixelCenterNDC(0, 0, 2, 2)
	if x != -0.5 || y != 0.5 {
		t.Errorf("pixelCenterNDC(0,0,2,2) = (%v,%v), want (-0.5,0.5)", x, y)
	}
	x, y = pixelCenterNDC(1, 1, 2, 2)
	if x != 0.5 || y != -0.5 {
		t.Errorf("pixelCenterNDC(1,1,2,2) = (%v,%v), want (0.5,-0.5)", x, y)
	}
}
