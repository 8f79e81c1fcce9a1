package colorpass

// FullscreenVertices is the geometry the pass is drawn with: two triangles
// in normalized device coordinates covering [-1,1]x[-1,1], six vertices,
// triangle-list topology, counter-clockwise.
var FullscreenVertices = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

// FullscreenVertexCount is the number of vertices drawn per frame.
const FullscreenVertexCount = len(FullscreenVertices)
