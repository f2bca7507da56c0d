// Package geom provides the 2D value types and numeric helpers shared by
// the stitching, region and clearance packages.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Tolerances used across the analysis.
const (
	// CoincidenceTol is the distance below which two fragment endpoints
	// are treated as the same point while stitching.
	CoincidenceTol = 1e-8

	// ClosureTol decides whether a stitched chain is closed.
	ClosureTol = 1e-5

	// DefaultArcTolerance is the maximum chord deviation used when arcs
	// are discretized into polylines.
	DefaultArcTolerance = 1e-3
)

// Point is a 2D point in drawing units.
type Point = r2.Vec

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Close reports whether a and b are closer than tol.
func Close(a, b Point, tol float64) bool {
	return Dist(a, b) < tol
}

// Mid returns the midpoint of a and b.
func Mid(a, b Point) Point {
	return r2.Scale(0.5, r2.Add(a, b))
}

// Cross returns the z component of (b-a) x (c-a).
func Cross(a, b, c Point) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// Direction returns the unit vector pointing from a to b, or the zero
// vector when the points coincide.
func Direction(a, b Point) Point {
	d := r2.Sub(b, a)
	n := r2.Norm(d)
	if n == 0 {
		return Point{}
	}
	return r2.Scale(1/n, d)
}

// Round rounds both coordinates to the given number of decimal places.
func Round(p Point, places int) Point {
	f := math.Pow(10, float64(places))
	return Point{X: math.Round(p.X*f) / f, Y: math.Round(p.Y*f) / f}
}
