package proximity

import (
	"math"

	"github.com/golang/geo/r3"
)

// Interior answers inside/outside and signed-distance queries for a watertight
// mesh using the generalized winding number. Only available when the mesh was
// built with WithInteriorTest.
type Interior struct {
	mesh *Mesh

	// per-face vertex positions flattened out so a winding query never
	// chases the face index buffer
	a, b, c []r3.Vector
}

func newInterior(m *Mesh) *Interior {
	in := &Interior{
		mesh: m,
		a:    make([]r3.Vector, len(m.faces)),
		b:    make([]r3.Vector, len(m.faces)),
		c:    make([]r3.Vector, len(m.faces)),
	}
	for i, f := range m.faces {
		in.a[i] = m.vertices[f[0]]
		in.b[i] = m.vertices[f[1]]
		in.c[i] = m.vertices[f[2]]
	}
	return in
}

// WindingNumber returns the generalized winding number of the mesh around pt:
// the sum of the signed solid angles of all faces divided by 4*pi. For a
// watertight mesh with outward-facing normals this is ~1 inside and ~0
// outside.
func (in *Interior) WindingNumber(pt r3.Vector) float64 {
	total := 0.
	for i := range in.a {
		total += solidAngle(in.a[i], in.b[i], in.c[i], pt)
	}
	return total / (4 * math.Pi)
}

// Inside reports whether pt is inside the mesh.
func (in *Interior) Inside(pt r3.Vector) bool {
	return in.WindingNumber(pt) > 0.5
}

// SignedDistance returns the distance from pt to the mesh surface, negative
// when pt is inside, along with the owning face id and closest surface point.
// An empty mesh yields the NoFace sentinel and distance 0.
func (in *Interior) SignedDistance(pt r3.Vector) (float64, int, r3.Vector) {
	sqDist, faceID, closest := in.mesh.SquaredDistance(pt)
	if faceID < 0 {
		return 0, NoFace, closest
	}
	dist := math.Sqrt(sqDist)
	if in.Inside(pt) {
		dist = -dist
	}
	return dist, faceID, closest
}

// solidAngle is the signed solid angle subtended by triangle (a, b, c) as seen
// from p, by van Oosterom and Strackee.
func solidAngle(a, b, c, p r3.Vector) float64 {
	va := a.Sub(p)
	vb := b.Sub(p)
	vc := c.Sub(p)
	la := va.Norm()
	lb := vb.Norm()
	lc := vc.Norm()

	num := va.Dot(vb.Cross(vc))
	den := la*lb*lc + va.Dot(vb)*lc + vb.Dot(vc)*la + vc.Dot(va)*lb
	return 2 * math.Atan2(num, den)
}
