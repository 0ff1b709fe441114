package support

import (
	"context"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/RepRapMorgan/MSlicer/proximity"
	"github.com/RepRapMorgan/MSlicer/spatialmath"
	"github.com/RepRapMorgan/MSlicer/utils"
)

// DefaultNormalEps is the tolerance, in mesh length units, under which a
// surface point counts as lying on a vertex or edge of its host triangle.
const DefaultNormalEps = 0.05

// normalDedupEps is the per-component tolerance under which two neighbor
// normals count as the same direction and are summed only once.
const normalDedupEps = 1e-3

// EstimateNormals computes an outward normal for each sample point, by index
// into pointFn. The nearest surface point of each sample is classified
// against its host triangle: on a vertex or edge the normal is the average of
// the distinct normals of all faces sharing that vertex or edge, otherwise it
// is the host triangle's own cross-product normal. Normals are not unit
// length; callers needing unit vectors must normalize downstream.
//
// The samples are processed in parallel when there is more than one. The
// result slice is aligned to indices; samples with no resolvable face stay
// zero. Cancelling ctx aborts the batch and returns the context error.
func EstimateNormals(
	ctx context.Context,
	indices []uint,
	pointFn func(uint) r3.Vector,
	mesh *proximity.Mesh,
	eps float64,
) ([]r3.Vector, error) {
	if pointFn == nil {
		panic("support: nil point function")
	}
	if len(indices) == 0 || len(mesh.Vertices()) == 0 || len(mesh.Faces()) == 0 {
		return nil, ctx.Err()
	}
	if eps <= 0 {
		eps = DefaultNormalEps
	}

	ret := make([]r3.Vector, len(indices))
	proc := func(ridx int) {
		sampleNormal(ctx, &ret[ridx], pointFn(indices[ridx]), mesh, eps)
	}

	if len(indices) > 1 {
		if err := utils.GroupWorkParallel(ctx, len(indices),
			func(groupSize int) {},
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				return func(memberNum, workNum int) { proc(workNum) }, nil
			},
		); err != nil {
			return nil, err
		}
	} else {
		proc(0)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// sampleNormal resolves the normal for one sample point into *out. Leaves the
// zero vector when no face is found or ctx fires mid-scan.
func sampleNormal(ctx context.Context, out *r3.Vector, sample r3.Vector, mesh *proximity.Mesh, eps float64) {
	_, faceID, q := mesh.SquaredDistance(sample)
	if faceID < 0 {
		return
	}

	verts := mesh.Vertices()
	faces := mesh.Faces()
	face := faces[faceID]
	p1, p2, p3 := verts[face[0]], verts[face[1]], verts[face[2]]

	// If q sits on a vertex or an edge of the host triangle, the single
	// triangle's normal is ambiguous: every face sharing that vertex (or
	// both edge endpoints) contributes to an aggregated normal. ia/ib mark
	// an edge, ic marks a vertex.
	ia, ib, ic := -1, -1, -1
	switch {
	case q.Sub(p1).Norm() < eps:
		ic = face[0]
	case q.Sub(p2).Norm() < eps:
		ic = face[1]
	case q.Sub(p3).Norm() < eps:
		ic = face[2]
	case spatialmath.DistToLine(p1, p2, q) < eps:
		ia, ib = face[0], face[1]
	case spatialmath.DistToLine(p2, p3, q) < eps:
		ia, ib = face[1], face[2]
	case spatialmath.DistToLine(p1, p3, q) < eps:
		ia, ib = face[0], face[2]
	}

	var neigh [][3]int
	if ic >= 0 {
		for _, f := range faces {
			if ctx.Err() != nil {
				return
			}
			if f[0] == ic || f[1] == ic || f[2] == ic {
				neigh = append(neigh, f)
			}
		}
	} else if ia >= 0 && ib >= 0 {
		for _, f := range faces {
			if ctx.Err() != nil {
				return
			}
			hasA := f[0] == ia || f[1] == ia || f[2] == ia
			hasB := f[0] == ib || f[1] == ib || f[2] == ib
			if hasA && hasB {
				neigh = append(neigh, f)
			}
		}
	}

	if len(neigh) == 0 {
		*out = spatialmath.PlaneNormal(p1, p2, p3)
		return
	}

	normals := make([]r3.Vector, 0, len(neigh))
	for _, f := range neigh {
		normals = append(normals, spatialmath.PlaneNormal(verts[f[0]], verts[f[1]], verts[f[2]]).Normalize())
	}
	*out = averageDistinct(normals)
}

// averageDistinct averages the given unit normals after dropping near-equal
// duplicates, which would otherwise skew the sum. Sorting by component sum
// forces equal entries to be consecutive so a single linear pass suffices.
func averageDistinct(normals []r3.Vector) r3.Vector {
	sum := func(v r3.Vector) float64 { return v.X + v.Y + v.Z }
	sort.Slice(normals, func(i, j int) bool { return sum(normals[i]) < sum(normals[j]) })

	sameDir := func(a, b r3.Vector) bool {
		return scalar.EqualWithinAbs(a.X, b.X, normalDedupEps) &&
			scalar.EqualWithinAbs(a.Y, b.Y, normalDedupEps) &&
			scalar.EqualWithinAbs(a.Z, b.Z, normalDedupEps)
	}

	distinct := normals[:1]
	for _, n := range normals[1:] {
		if !sameDir(distinct[len(distinct)-1], n) {
			distinct = append(distinct, n)
		}
	}

	var total r3.Vector
	for _, n := range distinct {
		total = total.Add(n)
	}
	return total.Mul(1 / float64(len(distinct)))
}
