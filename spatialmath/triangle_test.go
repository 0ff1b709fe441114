package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBasicTriangleFunctions(t *testing.T) {
	expectedPts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 3, Z: 0}, {X: 3, Y: 0, Z: 0}}
	tri := NewTriangle(expectedPts[0], expectedPts[1], expectedPts[2])

	expectedNormal := r3.Vector{X: 0, Y: 0, Z: 1}
	expectedArea := 4.5
	expectedCentroid := r3.Vector{X: 1, Y: 1, Z: 0}

	t.Run("constructor", func(t *testing.T) {
		test.That(t, tri.Points(), test.ShouldResemble, expectedPts)
		// the cross product of the normal with what is expected should result in nothing
		test.That(t, tri.Normal().Cross(expectedNormal), test.ShouldResemble, r3.Vector{})
	})

	t.Run("area", func(t *testing.T) {
		test.That(t, tri.Area(), test.ShouldEqual, expectedArea)
	})

	t.Run("centroid", func(t *testing.T) {
		test.That(t, tri.Centroid(), test.ShouldResemble, expectedCentroid)
	})

	t.Run("closest inside point", func(t *testing.T) {
		// interior
		closestPoint, isInside := tri.ClosestInsidePoint(r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 0})
		test.That(t, isInside, test.ShouldBeTrue)

		// above edge
		closestPoint, isInside = tri.ClosestInsidePoint(r3.Vector{X: 2, Y: 0, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 2, Y: 0, Z: 0})
		test.That(t, isInside, test.ShouldBeTrue)

		// above vertex
		closestPoint, isInside = tri.ClosestInsidePoint(r3.Vector{X: 0, Y: 3, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 0, Y: 3, Z: 0})
		test.That(t, isInside, test.ShouldBeTrue)

		// outside (obtuse with triangle)
		_, isInside = tri.ClosestInsidePoint(r3.Vector{X: 1, Y: -1, Z: 1})
		test.That(t, isInside, test.ShouldBeFalse)

		// outside (straight with triangle)
		_, isInside = tri.ClosestInsidePoint(r3.Vector{X: 0, Y: 4, Z: 0})
		test.That(t, isInside, test.ShouldBeFalse)
	})

	t.Run("closest point", func(t *testing.T) {
		// double check on interior point
		closestPoint := tri.ClosestPointToPoint(r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 0})

		// closest point is edge
		closestPoint = tri.ClosestPointToPoint(r3.Vector{X: 3, Y: 2, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 0})

		// closest point is vertex
		closestPoint = tri.ClosestPointToPoint(r3.Vector{X: -1, Y: -1, Z: 1})
		test.That(t, closestPoint, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})
	})
}

func TestTriangleRayIntersection(t *testing.T) {
	tri := NewTriangle(
		r3.Vector{X: 0, Y: 0, Z: 0},
		r3.Vector{X: 2, Y: 0, Z: 0},
		r3.Vector{X: 0, Y: 2, Z: 0},
	)

	t.Run("hit through interior", func(t *testing.T) {
		dist, ok := tri.RayIntersection(r3.Vector{X: 0.5, Y: 0.5, Z: 3}, r3.Vector{X: 0, Y: 0, Z: -1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 3)
	})

	t.Run("hit from behind", func(t *testing.T) {
		dist, ok := tri.RayIntersection(r3.Vector{X: 0.5, Y: 0.5, Z: -2}, r3.Vector{X: 0, Y: 0, Z: 1})
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 2)
	})

	t.Run("miss to the side", func(t *testing.T) {
		_, ok := tri.RayIntersection(r3.Vector{X: 5, Y: 5, Z: 3}, r3.Vector{X: 0, Y: 0, Z: -1})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("pointing away", func(t *testing.T) {
		_, ok := tri.RayIntersection(r3.Vector{X: 0.5, Y: 0.5, Z: 3}, r3.Vector{X: 0, Y: 0, Z: 1})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("parallel ray", func(t *testing.T) {
		_, ok := tri.RayIntersection(r3.Vector{X: 0.5, Y: 0.5, Z: 3}, r3.Vector{X: 1, Y: 0, Z: 0})
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestGeometryHelpers(t *testing.T) {
	t.Run("plane normal", func(t *testing.T) {
		n := PlaneNormal(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
		test.That(t, n, test.ShouldResemble, r3.Vector{Z: 1})
	})

	t.Run("closest point on segment", func(t *testing.T) {
		a := r3.Vector{X: 0, Y: 0, Z: 0}
		b := r3.Vector{X: 4, Y: 0, Z: 0}
		test.That(t, ClosestPointSegmentPoint(a, b, r3.Vector{X: 2, Y: 3, Z: 0}), test.ShouldResemble, r3.Vector{X: 2})
		test.That(t, ClosestPointSegmentPoint(a, b, r3.Vector{X: -2, Y: 0, Z: 0}), test.ShouldResemble, a)
		test.That(t, ClosestPointSegmentPoint(a, b, r3.Vector{X: 9, Y: 0, Z: 0}), test.ShouldResemble, b)
	})

	t.Run("distance to line", func(t *testing.T) {
		a := r3.Vector{X: 0, Y: 0, Z: 0}
		b := r3.Vector{X: 1, Y: 0, Z: 0}
		test.That(t, DistToLine(a, b, r3.Vector{X: 10, Y: 2, Z: 0}), test.ShouldAlmostEqual, 2)
		// beyond the segment the infinite line still counts
		test.That(t, DistToLine(a, b, r3.Vector{X: -5, Y: 0, Z: 3}), test.ShouldAlmostEqual, 3)
		// degenerate line
		test.That(t, DistToLine(a, a, r3.Vector{X: 0, Y: 4, Z: 0}), test.ShouldAlmostEqual, 4)
	})

	t.Run("mesh bounding box", func(t *testing.T) {
		mesh := NewMesh([]*Triangle{
			NewTriangle(r3.Vector{X: -1, Y: 0, Z: 2}, r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{X: 0, Y: 3, Z: -4}),
		})
		min, max := mesh.BoundingBox()
		test.That(t, min, test.ShouldResemble, r3.Vector{X: -1, Y: 0, Z: -4})
		test.That(t, max, test.ShouldResemble, r3.Vector{X: 1, Y: 3, Z: 2})

		min, max = NewMesh(nil).BoundingBox()
		test.That(t, min, test.ShouldResemble, r3.Vector{})
		test.That(t, max, test.ShouldResemble, r3.Vector{})
	})
}
