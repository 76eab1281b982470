// Package math provides the vector, quaternion and matrix types shared by
// the scene builders, the vertex attribute system and the glTF writer.
package math

import "math"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Lerp interpolates linearly between v and other.
func (v Vec2) Lerp(other Vec2, t float32) Vec2 {
	return v.Add(other.Sub(v).Scale(t))
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// ApproxEqual reports whether both components differ by at most tol.
func (v Vec2) ApproxEqual(other Vec2, tol float32) bool {
	return abs32(v.X-other.X) <= tol && abs32(v.Y-other.Y) <= tol
}

// Array returns the components as an array.
func (v Vec2) Array() [2]float32 {
	return [2]float32{v.X, v.Y}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
