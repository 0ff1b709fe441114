package spatialmath

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// bvhLeafSize is the number of triangles at which subdivision stops.
const bvhLeafSize = 4

// bvhNode is a node in a bounding volume hierarchy over triangles. Leaf nodes
// hold triangles directly; internal nodes hold only children.
type bvhNode struct {
	min, max r3.Vector

	triangles []*Triangle
	left      *bvhNode
	right     *bvhNode
}

// computeTrianglesAABB returns the axis-aligned bounding box of the given triangles.
func computeTrianglesAABB(triangles []*Triangle) (r3.Vector, r3.Vector) {
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, tri := range triangles {
		for _, pt := range tri.Points() {
			min = r3.Vector{X: math.Min(min.X, pt.X), Y: math.Min(min.Y, pt.Y), Z: math.Min(min.Z, pt.Z)}
			max = r3.Vector{X: math.Max(max.X, pt.X), Y: math.Max(max.Y, pt.Y), Z: math.Max(max.Z, pt.Z)}
		}
	}
	return min, max
}

// buildBVH recursively builds a hierarchy by splitting the triangles at the
// median of their centroids along the longest axis of the node's bounds.
func buildBVH(triangles []*Triangle) *bvhNode {
	if len(triangles) == 0 {
		return nil
	}
	min, max := computeTrianglesAABB(triangles)
	node := &bvhNode{min: min, max: max}
	if len(triangles) <= bvhLeafSize {
		node.triangles = triangles
		return node
	}

	extent := max.Sub(min)
	axis := func(v r3.Vector) float64 { return v.X }
	if extent.Y > extent.X && extent.Y >= extent.Z {
		axis = func(v r3.Vector) float64 { return v.Y }
	} else if extent.Z > extent.X && extent.Z >= extent.Y {
		axis = func(v r3.Vector) float64 { return v.Z }
	}

	sorted := make([]*Triangle, len(triangles))
	copy(sorted, triangles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return axis(sorted[i].Centroid()) < axis(sorted[j].Centroid())
	})

	mid := len(sorted) / 2
	node.left = buildBVH(sorted[:mid])
	node.right = buildBVH(sorted[mid:])
	return node
}

// sqDistToAABB is a lower bound on the squared distance from a point to any
// triangle inside the node's bounds.
func (n *bvhNode) sqDistToAABB(pt r3.Vector) float64 {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	d := r3.Vector{
		X: pt.X - clamp(pt.X, n.min.X, n.max.X),
		Y: pt.Y - clamp(pt.Y, n.min.Y, n.max.Y),
		Z: pt.Z - clamp(pt.Z, n.min.Z, n.max.Z),
	}
	return d.Norm2()
}

// intersectsRay is a slab test of the ray against the node's bounds.
func (n *bvhNode) intersectsRay(origin, invDir r3.Vector) bool {
	t1 := (n.min.X - origin.X) * invDir.X
	t2 := (n.max.X - origin.X) * invDir.X
	tmin := math.Min(t1, t2)
	tmax := math.Max(t1, t2)

	t1 = (n.min.Y - origin.Y) * invDir.Y
	t2 = (n.max.Y - origin.Y) * invDir.Y
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	t1 = (n.min.Z - origin.Z) * invDir.Z
	t2 = (n.max.Z - origin.Z) * invDir.Z
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	return tmax >= math.Max(tmin, 0)
}

// BVH is a bounding volume hierarchy accelerating closest-point and ray
// queries over a fixed set of triangles. Build once, query many; queries do
// not mutate the structure.
type BVH struct {
	root *bvhNode
}

// NewBVH builds a hierarchy over the given triangles. An empty or nil slice
// yields a usable BVH whose queries all report no result.
func NewBVH(triangles []*Triangle) *BVH {
	return &BVH{root: buildBVH(triangles)}
}

// TriangleHit is a single ray-triangle intersection at parametric distance T
// along the ray direction.
type TriangleHit struct {
	Triangle *Triangle
	T        float64
}

// ClosestTriangle returns the triangle nearest to pt, the closest point on it,
// and the squared distance. The last return is false when the BVH is empty.
func (b *BVH) ClosestTriangle(pt r3.Vector) (*Triangle, r3.Vector, float64, bool) {
	if b.root == nil {
		return nil, r3.Vector{}, 0, false
	}
	var best *Triangle
	var bestPt r3.Vector
	bestDist := math.Inf(1)

	var search func(n *bvhNode)
	search = func(n *bvhNode) {
		if n == nil || n.sqDistToAABB(pt) >= bestDist {
			return
		}
		if n.triangles != nil {
			for _, tri := range n.triangles {
				closest := tri.ClosestPointToPoint(pt)
				if d := pt.Sub(closest).Norm2(); d < bestDist {
					best = tri
					bestPt = closest
					bestDist = d
				}
			}
			return
		}
		// visit the nearer child first so the bound tightens early
		dl, dr := math.Inf(1), math.Inf(1)
		if n.left != nil {
			dl = n.left.sqDistToAABB(pt)
		}
		if n.right != nil {
			dr = n.right.sqDistToAABB(pt)
		}
		if dl <= dr {
			search(n.left)
			search(n.right)
		} else {
			search(n.right)
			search(n.left)
		}
	}
	search(b.root)
	return best, bestPt, bestDist, best != nil
}

// RayHits returns every triangle intersection along the ray, unordered.
func (b *BVH) RayHits(origin, dir r3.Vector) []TriangleHit {
	if b.root == nil {
		return nil
	}
	invDir := r3.Vector{X: 1 / dir.X, Y: 1 / dir.Y, Z: 1 / dir.Z}
	var hits []TriangleHit

	var search func(n *bvhNode)
	search = func(n *bvhNode) {
		if n == nil || !n.intersectsRay(origin, invDir) {
			return
		}
		if n.triangles != nil {
			for _, tri := range n.triangles {
				if t, ok := tri.RayIntersection(origin, dir); ok {
					hits = append(hits, TriangleHit{Triangle: tri, T: t})
				}
			}
			return
		}
		search(n.left)
		search(n.right)
	}
	search(b.root)
	return hits
}

// ClosestRayHit returns the intersection with the smallest parametric distance
// along the ray, or false when the ray misses everything.
func (b *BVH) ClosestRayHit(origin, dir r3.Vector) (TriangleHit, bool) {
	best := TriangleHit{T: math.Inf(1)}
	found := false
	for _, hit := range b.RayHits(origin, dir) {
		if hit.T < best.T {
			best = hit
			found = true
		}
	}
	return best, found
}
