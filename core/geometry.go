package core

import "math"

// DefaultOrbitRadiusPx is the distance from the globe panel centre to the
// satellite marker, in pixels.
const DefaultOrbitRadiusPx = 140.0

// Vec2 is a Cartesian offset from the globe panel centre, in pixels.
// X grows to the right, Y grows upward.
type Vec2 struct {
	X, Y float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec2) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v scaled by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// PointOnCircle maps an angle in degrees and a radius to the Cartesian
// offsets (R·cos θ, R·sin θ). Positions are derived, never stored; the
// mapping is recomputed on every frame.
func PointOnCircle(angleDeg, radius float64) Vec2 {
	rad := DegToRad(angleDeg)
	return Vec2{
		X: radius * math.Cos(rad),
		Y: radius * math.Sin(rad),
	}
}
