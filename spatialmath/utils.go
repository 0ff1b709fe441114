package spatialmath

import (
	"github.com/golang/geo/r3"
)

// floatEpsilon is the tolerance used when comparing floats within this package.
const floatEpsilon = 1e-6

// PlaneNormal returns the plane normal of the plane defined by three points.
// The result is not normalized.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0))
}

// ClosestPointSegmentPoint takes a line segment defined by pt1 and pt2, and returns the point on
// the segment closest to the provided point.
func ClosestPointSegmentPoint(pt1, pt2, point r3.Vector) r3.Vector {
	toPt := point.Sub(pt1)
	segVec := pt2.Sub(pt1)
	segLen2 := segVec.Norm2()
	if segLen2 == 0 {
		// degenerate segment
		return pt1
	}
	t := toPt.Dot(segVec) / segLen2
	if t <= 0 {
		return pt1
	}
	if t >= 1 {
		return pt2
	}
	return pt1.Add(segVec.Mul(t))
}

// DistToLine returns the perpendicular distance from a point to the infinite
// line through pt1 and pt2. A degenerate line collapses to the distance to pt1.
func DistToLine(pt1, pt2, point r3.Vector) float64 {
	segVec := pt2.Sub(pt1)
	segLen := segVec.Norm()
	if segLen == 0 {
		return point.Sub(pt1).Norm()
	}
	return point.Sub(pt1).Cross(segVec).Norm() / segLen
}
