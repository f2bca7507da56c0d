// Package kernel defines the abstract 2D geometry kernel interface.
// Implementations provide face construction, boolean difference and
// containment behind this interface, so the region and clearance code
// never touches a concrete geometry library.
package kernel

import "github.com/chazu/fixturedrc/pkg/geom"

// Face is an opaque handle to a planar face: an outer boundary minus
// zero or more holes. Implementations wrap their internal representation.
type Face interface {
	// Bounds returns the axis-aligned bounding box of the outer boundary.
	Bounds() geom.Box

	// Wires returns the boundary wires, outer first, then holes.
	Wires() []*Wire
}

// Proximity is the result of a nearest-point query between two wires.
// Pairs holds every witness pair found at the minimum distance, first
// point on the first wire.
type Proximity struct {
	Dist  float64
	Pairs [][2]geom.Point
}

// Kernel is the abstract 2D geometry kernel interface.
type Kernel interface {
	// Face builds a face from a closed wire.
	Face(w *Wire) (Face, error)

	// Difference subtracts the union of holes from outer.
	Difference(outer Face, holes ...Face) (Face, error)

	// Inside reports whether p lies in the face, counting points within
	// tol of the boundary as inside. Holes are outside.
	Inside(f Face, p geom.Point, tol float64) bool

	// Discretize samples n points evenly spaced along the wire.
	Discretize(w *Wire, n int) []geom.Point

	// Distance returns the minimum distance between two wires.
	Distance(a, b *Wire) Proximity

	// Area returns the enclosed area of the face, holes subtracted.
	Area(f Face) float64
}
