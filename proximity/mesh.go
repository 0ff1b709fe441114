// Package proximity provides an accelerated proximity structure over a
// triangle mesh: nearest-surface-point and ray-intersection queries, plus an
// optional winding-number interior test.
//
// Build once, query many. A Mesh is immutable after construction and may be
// queried concurrently; Copy produces an independent structure for callers
// that need ownership.
package proximity

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/RepRapMorgan/MSlicer/spatialmath"
)

// dedupEpsilon is the relative tolerance under which input vertices are
// considered duplicates and merged, scaled by the bounding-box diagonal.
const dedupEpsilon = 1e-9

// NoFace is the face id reported by queries that found nothing. Callers must
// not index mesh faces with it.
const NoFace = -1

// HitResult is the outcome of a ray query. A miss is a valid terminal state:
// T is +Inf and FaceID is NoFace.
type HitResult struct {
	// T is the parametric hit distance along Dir, +Inf when nothing was hit.
	T      float64
	Origin r3.Vector
	Dir    r3.Vector
	// FaceID is the id of the face that was hit, NoFace otherwise.
	FaceID int
}

// IsHit reports whether the ray actually hit a face.
func (h HitResult) IsHit() bool {
	return !math.IsInf(h.T, 0) && !math.IsNaN(h.T) && h.FaceID >= 0
}

// Position returns the hit point. Only meaningful when IsHit is true.
func (h HitResult) Position() r3.Vector {
	return h.Origin.Add(h.Dir.Mul(h.T))
}

type options struct {
	interiorTest bool
}

// Option configures construction of a Mesh.
type Option func(*options)

// WithInteriorTest builds the secondary winding-number structure so that
// Interior is available. This costs extra memory and build time, so it is
// opt-in.
func WithInteriorTest() Option {
	return func(o *options) { o.interiorTest = true }
}

// Mesh is a proximity structure over a triangle mesh. Duplicate input
// vertices are merged before the acceleration structure is built.
type Mesh struct {
	vertices []r3.Vector
	faces    [][3]int

	groundLevel float64

	bvh    *spatialmath.BVH
	faceOf map[*spatialmath.Triangle]int

	interior *Interior
	opts     options
}

// New builds a proximity structure from vertex positions and triangle
// vertex-index triples. Vertices closer than a relative epsilon are merged
// and face indices remapped. An empty mesh is fine: every query reports its
// no-result sentinel.
func New(vertices []r3.Vector, faces [][3]int, opts ...Option) *Mesh {
	m := &Mesh{}
	for _, opt := range opts {
		opt(&m.opts)
	}
	m.vertices, m.faces = dedupVertices(vertices, faces)
	m.groundLevel = minZ(m.vertices)

	triangles := make([]*spatialmath.Triangle, 0, len(m.faces))
	m.faceOf = make(map[*spatialmath.Triangle]int, len(m.faces))
	for i, f := range m.faces {
		tri := spatialmath.NewTriangle(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]])
		m.faceOf[tri] = i
		triangles = append(triangles, tri)
	}
	m.bvh = spatialmath.NewBVH(triangles)

	if m.opts.interiorTest {
		m.interior = newInterior(m)
	}
	return m
}

// NewFromMesh builds a proximity structure from a triangle-soup mesh,
// deriving the vertex and face buffers from its triangles.
func NewFromMesh(mesh *spatialmath.Mesh, opts ...Option) *Mesh {
	tris := mesh.Triangles()
	vertices := make([]r3.Vector, 0, 3*len(tris))
	faces := make([][3]int, 0, len(tris))
	for i, tri := range tris {
		pts := tri.Points()
		vertices = append(vertices, pts[0], pts[1], pts[2])
		faces = append(faces, [3]int{3 * i, 3*i + 1, 3*i + 2})
	}
	return New(vertices, faces, opts...)
}

// Copy returns an independent proximity structure rebuilt from the same
// deduplicated buffers. This is an explicit, possibly expensive operation;
// nothing is shared with the receiver.
func (m *Mesh) Copy() *Mesh {
	vertices := make([]r3.Vector, len(m.vertices))
	copy(vertices, m.vertices)
	faces := make([][3]int, len(m.faces))
	copy(faces, m.faces)
	if m.opts.interiorTest {
		return New(vertices, faces, WithInteriorTest())
	}
	return New(vertices, faces)
}

// Vertices returns the deduplicated vertex buffer. Callers must not mutate it.
func (m *Mesh) Vertices() []r3.Vector {
	return m.vertices
}

// Faces returns the remapped face buffer. Callers must not mutate it.
func (m *Mesh) Faces() [][3]int {
	return m.faces
}

// GroundLevel returns the minimum Z coordinate of the mesh, the reference
// height the support pipeline grows pillars down to. Zero for an empty mesh.
func (m *Mesh) GroundLevel() float64 {
	return m.groundLevel
}

// QueryClosestRayHit finds the intersection of the ray with the smallest
// non-negative parametric distance. The returned HitResult carries the no-hit
// sentinel when the ray misses or the mesh is empty.
func (m *Mesh) QueryClosestRayHit(origin, dir r3.Vector) HitResult {
	ret := HitResult{T: math.Inf(1), Origin: origin, Dir: dir, FaceID: NoFace}
	hit, ok := m.bvh.ClosestRayHit(origin, dir)
	if !ok {
		return ret
	}
	ret.T = hit.T
	ret.FaceID = m.faceOf[hit.Triangle]
	return ret
}

// QueryAllRayHits returns every intersection of the ray with the mesh,
// ordered by ascending hit distance. Empty on a miss or an empty mesh.
func (m *Mesh) QueryAllRayHits(origin, dir r3.Vector) []HitResult {
	hits := m.bvh.RayHits(origin, dir)
	if len(hits) == 0 {
		return nil
	}
	rets := make([]HitResult, 0, len(hits))
	for _, hit := range hits {
		rets = append(rets, HitResult{T: hit.T, Origin: origin, Dir: dir, FaceID: m.faceOf[hit.Triangle]})
	}
	sort.Slice(rets, func(i, j int) bool { return rets[i].T < rets[j].T })
	return rets
}

// SquaredDistance returns the squared distance from pt to the mesh surface,
// the id of the owning face and the closest surface point. On an empty mesh
// the face id is NoFace and the distance 0; callers must not dereference a
// negative face id.
func (m *Mesh) SquaredDistance(pt r3.Vector) (float64, int, r3.Vector) {
	tri, closest, sqDist, ok := m.bvh.ClosestTriangle(pt)
	if !ok {
		return 0, NoFace, r3.Vector{}
	}
	return sqDist, m.faceOf[tri], closest
}

// Interior returns the winding-number interior tester, or false when the mesh
// was built without WithInteriorTest.
func (m *Mesh) Interior() (*Interior, bool) {
	if m.interior == nil {
		return nil, false
	}
	return m.interior, true
}

func minZ(vertices []r3.Vector) float64 {
	if len(vertices) == 0 {
		return 0
	}
	z := math.Inf(1)
	for _, v := range vertices {
		z = math.Min(z, v.Z)
	}
	return z
}

// dedupVertices merges vertices that quantize to the same grid cell of size
// epsilon relative to the bounding-box diagonal, and remaps face indices onto
// the surviving vertices.
func dedupVertices(vertices []r3.Vector, faces [][3]int) ([]r3.Vector, [][3]int) {
	if len(vertices) == 0 {
		return nil, nil
	}

	diag := boundsDiagonal(vertices)
	tol := dedupEpsilon * diag
	if tol <= 0 {
		tol = dedupEpsilon
	}

	type cell [3]int64
	quantize := func(v r3.Vector) cell {
		return cell{
			int64(math.Round(v.X / tol)),
			int64(math.Round(v.Y / tol)),
			int64(math.Round(v.Z / tol)),
		}
	}

	kept := make([]r3.Vector, 0, len(vertices))
	remap := make([]int, len(vertices))
	seen := make(map[cell]int, len(vertices))
	for i, v := range vertices {
		key := quantize(v)
		if j, ok := seen[key]; ok {
			remap[i] = j
			continue
		}
		seen[key] = len(kept)
		remap[i] = len(kept)
		kept = append(kept, v)
	}

	remapped := make([][3]int, len(faces))
	for i, f := range faces {
		remapped[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	return kept, remapped
}

func boundsDiagonal(vertices []r3.Vector) float64 {
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range vertices {
		min = r3.Vector{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = r3.Vector{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return max.Sub(min).Norm()
}
