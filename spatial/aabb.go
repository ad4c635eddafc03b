package spatial

import "math"

// AABB is an axis-aligned bounding box in R3.
type AABB struct {
	Min Vec3
	Max Vec3
}

// EmptyAABB returns the sentinel "nothing merged yet" box: Min is
// +MaxFloat32 and Max is -MaxFloat32 componentwise, so merging any concrete
// AABB into it yields that concrete AABB unchanged.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// FromPoint returns the degenerate box containing exactly one point.
func FromPoint(p Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// Merge returns the union of two boxes.
func Merge(a, b AABB) AABB {
	return AABB{
		Min: MinVec3(a.Min, b.Min),
		Max: MaxVec3(a.Max, b.Max),
	}
}

// MergePoint returns the union of a box and a point.
func MergePoint(a AABB, p Vec3) AABB {
	return AABB{
		Min: MinVec3(a.Min, p),
		Max: MaxVec3(a.Max, p),
	}
}

// Volume returns (Max-Min).x * (Max-Min).y * (Max-Min).z. It may be negative
// for the empty sentinel box; callers that need a non-negative volume
// (e.g. the insertion heuristic) clamp it to 0 themselves.
func Volume(a AABB) float32 {
	d := a.Max.Sub(a.Min)
	return d[0] * d[1] * d[2]
}

// SurfaceAreaMetric returns 2*(dx*dy + dy*dz + dz*dx), the cost metric used
// to order the treelet collector's max-heap. Proportional to the standard
// SAH surface area cost.
func SurfaceAreaMetric(a AABB) float32 {
	d := a.Max.Sub(a.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Intersects reports whether two boxes overlap (including touching faces):
// componentwise a.Min <= b.Max and b.Min <= a.Max.
func Intersects(a, b AABB) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

// Center returns the midpoint of the box.
func (a AABB) Center() Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}
