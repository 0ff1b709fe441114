// Package spatialindex provides a mutable spatial index over (point, id)
// pairs, backed by an R*-tree.
package spatialindex

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r3"
)

const (
	// R*-tree branching, min 4 / max 16 children per node.
	minBranch = 4
	maxBranch = 16

	// pointTol is the half-extent of the degenerate rectangle a point is
	// stored as.
	pointTol = 1e-9
)

// Element is a 3D point tagged with the id of the payload it stands for. The
// index never interprets the id; duplicate coordinates with different ids are
// distinct elements.
type Element struct {
	Pos r3.Vector
	ID  uint
}

type entry struct {
	pos  r3.Vector
	id   uint
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is a set of Elements supporting insertion, removal by value, k-nearest
// and predicate queries. It is not safe for concurrent mutation.
type Index struct {
	tree *rtreego.Rtree

	// running bounds of everything ever inserted; a superset of the live
	// elements, used to phrase whole-index searches as rectangle queries
	min, max r3.Vector
	seen     bool
}

// New creates an empty index.
func New() *Index {
	return &Index{tree: rtreego.NewTree(3, minBranch, maxBranch)}
}

func toPoint(pos r3.Vector) rtreego.Point {
	return rtreego.Point{pos.X, pos.Y, pos.Z}
}

// Insert adds an element. Duplicates of an already present (point, id) pair
// are permitted and counted separately.
func (ix *Index) Insert(pos r3.Vector, id uint) {
	if !ix.seen {
		ix.min, ix.max = pos, pos
		ix.seen = true
	} else {
		ix.min = r3.Vector{X: math.Min(ix.min.X, pos.X), Y: math.Min(ix.min.Y, pos.Y), Z: math.Min(ix.min.Z, pos.Z)}
		ix.max = r3.Vector{X: math.Max(ix.max.X, pos.X), Y: math.Max(ix.max.Y, pos.Y), Z: math.Max(ix.max.Z, pos.Z)}
	}
	ix.tree.Insert(&entry{pos: pos, id: id, rect: toPoint(pos).ToRect(pointTol)})
}

// Remove deletes exactly one element matching the given point and id, and
// reports whether a removal happened. Removing an absent element is a no-op.
func (ix *Index) Remove(pos r3.Vector, id uint) bool {
	for _, obj := range ix.tree.SearchIntersect(toPoint(pos).ToRect(pointTol)) {
		e := obj.(*entry)
		if e.pos == pos && e.id == id {
			return ix.tree.Delete(e)
		}
	}
	return false
}

// everything returns a rectangle covering all live elements.
func (ix *Index) everything() rtreego.Rect {
	rect, err := rtreego.NewRect(
		rtreego.Point{ix.min.X - 1, ix.min.Y - 1, ix.min.Z - 1},
		[]float64{ix.max.X - ix.min.X + 2, ix.max.Y - ix.min.Y + 2, ix.max.Z - ix.min.Z + 2},
	)
	if err != nil {
		panic(err)
	}
	return rect
}

// Query returns every element satisfying the predicate, in unspecified order.
// A nil predicate is a programming error.
func (ix *Index) Query(pred func(Element) bool) []Element {
	if pred == nil {
		panic("spatialindex: nil predicate")
	}
	if ix.tree.Size() == 0 {
		return nil
	}
	var res []Element
	for _, obj := range ix.tree.SearchIntersect(ix.everything()) {
		e := obj.(*entry)
		el := Element{Pos: e.pos, ID: e.id}
		if pred(el) {
			res = append(res, el)
		}
	}
	return res
}

// Nearest returns up to k elements ordered by ascending distance to pos.
func (ix *Index) Nearest(pos r3.Vector, k int) []Element {
	if k <= 0 || ix.tree.Size() == 0 {
		return nil
	}
	found := ix.tree.NearestNeighbors(k, toPoint(pos))
	res := make([]Element, 0, len(found))
	for _, obj := range found {
		if obj == nil {
			continue
		}
		e := obj.(*entry)
		res = append(res, Element{Pos: e.pos, ID: e.id})
	}
	return res
}

// Size returns the number of live elements.
func (ix *Index) Size() int {
	return ix.tree.Size()
}

// ForEach visits every live element exactly once.
func (ix *Index) ForEach(visit func(Element)) {
	if visit == nil {
		panic("spatialindex: nil visitor")
	}
	if ix.tree.Size() == 0 {
		return
	}
	for _, obj := range ix.tree.SearchIntersect(ix.everything()) {
		e := obj.(*entry)
		visit(Element{Pos: e.pos, ID: e.id})
	}
}
