// Package geom holds the pose and vector types shared by the placement,
// measuring and steering packages.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or direction in world space, in meters.
type Vec = r3.Vec

// Add returns a+b.
func Add(a, b Vec) Vec { return r3.Add(a, b) }

// Sub returns a-b.
func Sub(a, b Vec) Vec { return r3.Sub(a, b) }

// Scale returns f*v.
func Scale(f float64, v Vec) Vec { return r3.Scale(f, v) }

// Norm returns the Euclidean length of v.
func Norm(v Vec) float64 { return r3.Norm(v) }

// Distance returns the straight-line distance between a and b.
func Distance(a, b Vec) float64 { return r3.Norm(r3.Sub(a, b)) }

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatVec renders v with centimetre precision, e.g. "(0.10, -0.20, 1.00)".
func FormatVec(v Vec) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Point is the JSON form of a Vec.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PointOf converts v to its JSON form.
func PointOf(v Vec) Point { return Point{X: v.X, Y: v.Y, Z: v.Z} }

// Vec converts p back to a Vec.
func (p Point) Vec() Vec { return Vec{X: p.X, Y: p.Y, Z: p.Z} }
