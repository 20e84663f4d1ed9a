// Package motion computes how the planchette travels between two board
// positions: the curved path, its heading, the easing applied to progress
// and how long a hop takes.
package motion

import (
	"math"

	"planchette/vmath"
)

const (
	// BaseCurveFactor is the bulge of a hop of DistanceUnit length, as a
	// fraction of the hop length
	BaseCurveFactor = 0.25
	// DistanceUnit is the hop length at which the bulge equals BaseCurveFactor
	DistanceUnit = 50.0
	// CapRatio bounds how far long hops flatten their bulge
	CapRatio = 3.0
	// Epsilon is the hop length under which a hop is treated as a point
	Epsilon = 1e-6
)

// controlPoint returns the quadratic Bezier control point for a hop. All
// hops bow towards the same side of the start->end direction. ok is false
// for a degenerate hop.
func controlPoint(start, end vmath.Vec2) (ctrl vmath.Vec2, ok bool) {
	delta := end.Sub(start)
	d := delta.Len()
	if d < Epsilon {
		return start, false
	}
	perp := delta.Perpendicular().Scale(1 / d)
	factor := BaseCurveFactor / math.Sqrt(math.Min(d/DistanceUnit, CapRatio))
	return vmath.Mid(start, end).Add(perp.Scale(d * factor)), true
}

// Degenerate reports whether start and end are too close to form a path
func Degenerate(start, end vmath.Vec2) bool {
	return vmath.Dist(start, end) < Epsilon
}

// CurvePosition evaluates the hop's path at progress t
func CurvePosition(start, end vmath.Vec2, t float64) vmath.Vec2 {
	ctrl, ok := controlPoint(start, end)
	if !ok {
		return start
	}
	u := 1 - t
	return start.Scale(u * u).
		Add(ctrl.Scale(2 * u * t)).
		Add(end.Scale(t * t))
}

// CurveTangentAngle returns the planchette heading in degrees at progress t:
// the direction of travel plus 90°, so 0 means facing up the board.
func CurveTangentAngle(start, end vmath.Vec2, t float64) float64 {
	ctrl, ok := controlPoint(start, end)
	if !ok {
		return 90
	}
	d := ctrl.Sub(start).Scale(2 * (1 - t)).
		Add(end.Sub(ctrl).Scale(2 * t))
	return vmath.Degrees(math.Atan2(d.Y, d.X)) + 90
}
