// Package support implements the geometric core of SLA support generation:
// estimating outward surface normals at support-candidate points, and
// clustering nearby candidates so a single support structure can serve
// several of them.
package support

import (
	"sort"

	"github.com/golang/geo/r3"

	"github.com/RepRapMorgan/MSlicer/spatialindex"
	"github.com/RepRapMorgan/MSlicer/utils"
)

// ClusteredPoints is a partition of the input: each group lists the payload
// ids of points that were clustered together, ascending within a group. Group
// order follows the input order of the seeds.
type ClusteredPoints [][]uint

// QueryFunc returns the elements of the index reachable from el. What
// "reachable" means is the clustering criterion.
type QueryFunc func(ix *spatialindex.Index, el spatialindex.Element) []spatialindex.Element

// PredicateFunc decides whether two elements are mutually reachable. It is
// expected to be symmetric in intent; only pred(seed, candidate) is ever
// evaluated.
type PredicateFunc func(a, b spatialindex.Element) bool

// ClusterByDistance groups points that are transitively within dist of each
// other. maxPoints caps the size of a group, 0 means no cap. The reachability
// query fetches the maxPoints nearest neighbors first and filters them by
// dist, so in regions denser than maxPoints only the closest neighbors count
// as reachable from any one point.
func ClusterByDistance(indices []uint, pointFn func(uint) r3.Vector, dist float64, maxPoints int) ClusteredPoints {
	if pointFn == nil {
		panic("support: nil point function")
	}
	return clusterElements(toElements(indices, pointFn), maxPoints, distanceQuery(dist, maxPoints))
}

// ClusterByPredicate groups points whose reachability is decided by pred
// instead of a fixed radius. maxPoints caps the size of a group, 0 means no
// cap.
func ClusterByPredicate(indices []uint, pointFn func(uint) r3.Vector, pred PredicateFunc, maxPoints int) ClusteredPoints {
	if pointFn == nil {
		panic("support: nil point function")
	}
	if pred == nil {
		panic("support: nil predicate")
	}
	qfn := func(ix *spatialindex.Index, el spatialindex.Element) []spatialindex.Element {
		return ix.Query(func(other spatialindex.Element) bool {
			return pred(el, other)
		})
	}
	return clusterElements(toElements(indices, pointFn), maxPoints, qfn)
}

// ClusterPoints is ClusterByDistance over a plain point slice; point i gets
// payload id i.
func ClusterPoints(pts []r3.Vector, dist float64, maxPoints int) ClusteredPoints {
	elems := make([]spatialindex.Element, len(pts))
	for i, pt := range pts {
		elems[i] = spatialindex.Element{Pos: pt, ID: uint(i)}
	}
	return clusterElements(elems, maxPoints, distanceQuery(dist, maxPoints))
}

func toElements(indices []uint, pointFn func(uint) r3.Vector) []spatialindex.Element {
	elems := make([]spatialindex.Element, len(indices))
	for i, idx := range indices {
		elems[i] = spatialindex.Element{Pos: pointFn(idx), ID: idx}
	}
	return elems
}

// distanceQuery returns the up-to-maxPoints nearest neighbors of el that lie
// within dist. With maxPoints == 0 every remaining element is considered.
func distanceQuery(dist float64, maxPoints int) QueryFunc {
	return func(ix *spatialindex.Index, el spatialindex.Element) []spatialindex.Element {
		k := maxPoints
		if k <= 0 {
			k = ix.Size()
		}
		near := ix.Nearest(el.Pos, k)
		reachable := near[:0]
		for _, cand := range near {
			if cand.Pos.Sub(el.Pos).Norm2() <= utils.Square(dist) {
				reachable = append(reachable, cand)
			}
		}
		return reachable
	}
}

// clusterElements builds an index over the elements and repeatedly extracts a
// cluster grown from the first not-yet-clustered element, removing each
// finished cluster from the index.
func clusterElements(elems []spatialindex.Element, maxPoints int, qfn QueryFunc) ClusteredPoints {
	ix := spatialindex.New()
	for _, el := range elems {
		ix.Insert(el.Pos, el.ID)
	}

	var result ClusteredPoints
	clustered := make(map[uint]bool, len(elems))
	for _, seed := range elems {
		if clustered[seed.ID] {
			continue
		}
		cluster := growCluster(ix, seed, maxPoints, qfn)

		group := make([]uint, 0, len(cluster))
		for _, el := range cluster {
			clustered[el.ID] = true
			ix.Remove(el.Pos, el.ID)
			group = append(group, el.ID)
		}
		result = append(result, group)
	}
	return result
}

// growCluster expands a worklist frontier from the seed: every frontier
// element queries its reachable neighbors, the ones not yet in the cluster
// are admitted up to the cap (truncated arbitrarily when the cap would be
// exceeded) and become the next frontier. Growth stops when a frontier adds
// nothing or the cluster is full.
func growCluster(ix *spatialindex.Index, seed spatialindex.Element, maxPoints int, qfn QueryFunc) []spatialindex.Element {
	byID := func(elems []spatialindex.Element) {
		sort.Slice(elems, func(i, j int) bool { return elems[i].ID < elems[j].ID })
	}

	cluster := []spatialindex.Element{seed}
	frontier := []spatialindex.Element{seed}
	for len(frontier) > 0 {
		var next []spatialindex.Element
		for _, el := range frontier {
			if maxPoints > 0 && len(cluster) >= maxPoints {
				break
			}
			reachable := qfn(ix, el)
			byID(reachable)

			newpts := diffByID(reachable, cluster)
			admit := len(newpts)
			if maxPoints > 0 {
				admit = utils.MinInt(admit, maxPoints-len(cluster))
			}
			cluster = append(cluster, newpts[:admit]...)
			byID(cluster)
			next = append(next, newpts[:admit]...)
		}
		frontier = next
	}
	return cluster
}

// diffByID returns the elements of a not present in b. Both must be sorted by
// id ascending.
func diffByID(a, b []spatialindex.Element) []spatialindex.Element {
	var out []spatialindex.Element
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i].ID < b[j].ID:
			out = append(out, a[i])
			i++
		case b[j].ID < a[i].ID:
			j++
		default:
			i++
			j++
		}
	}
	return out
}
