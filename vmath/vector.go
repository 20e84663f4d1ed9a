// Package vmath holds the small amount of 2D vector math the board and
// motion packages share. Screen convention: x grows right, y grows down.
package vmath

import "math"

// Vec2 is a 2D point or direction
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale multiplies both components by s
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Len returns the Euclidean length
func (a Vec2) Len() float64 {
	return math.Hypot(a.X, a.Y)
}

// Dist returns the Euclidean distance between a and b
func Dist(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// Mid returns the midpoint of a and b
func Mid(a, b Vec2) Vec2 {
	return Vec2{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Perpendicular returns the vector rotated 90° counter-clockwise in math
// orientation: (-y, x)
func (a Vec2) Perpendicular() Vec2 {
	return Vec2{-a.Y, a.X}
}

// Rotate rotates the vector by deg degrees using the standard rotation
// matrix. With y growing down this reads as clockwise on screen.
func (a Vec2) Rotate(deg float64) Vec2 {
	rad := Radians(deg)
	sin, cos := math.Sincos(rad)
	return Vec2{
		X: a.X*cos - a.Y*sin,
		Y: a.X*sin + a.Y*cos,
	}
}

// ApproxEqual reports whether both components differ by at most eps
func ApproxEqual(a, b Vec2, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
