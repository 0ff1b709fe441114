package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Mesh is a set of triangles. Triangles may share vertices and there is no
// requirement that the set forms a closed or manifold surface.
type Mesh struct {
	triangles []*Triangle
}

// NewMesh creates a mesh from the given triangles.
func NewMesh(triangles []*Triangle) *Mesh {
	return &Mesh{
		triangles: triangles,
	}
}

// Triangles returns the triangles associated with the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// BoundingBox returns the axis-aligned bounding box of the mesh. An empty mesh
// yields a degenerate box at the origin.
func (m *Mesh) BoundingBox() (r3.Vector, r3.Vector) {
	if len(m.triangles) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, tri := range m.triangles {
		for _, pt := range tri.Points() {
			min = r3.Vector{X: math.Min(min.X, pt.X), Y: math.Min(min.Y, pt.Y), Z: math.Min(min.Z, pt.Z)}
			max = r3.Vector{X: math.Max(max.X, pt.X), Y: math.Max(max.Y, pt.Y), Z: math.Max(max.Z, pt.Z)}
		}
	}
	return min, max
}
