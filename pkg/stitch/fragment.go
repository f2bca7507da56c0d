// Package stitch reconnects curve fragments whose endpoints coincide into
// ordered chains, closed or open.
//
// A bounding volume hierarchy over the fragments answers "which unjoined
// fragment starts or ends here" queries. The stitcher walks forward from
// every unjoined fragment, runs a turn check on each candidate to avoid
// folding back across the outline, and when the forward walk does not
// close, walks backward from the chain head. Open silkscreen strokes can
// additionally be bridged along their end tangents (see BridgeOpenChains).
package stitch

import (
	"fmt"
	"math"

	"github.com/chazu/fixturedrc/pkg/geom"
)

// ---------------------------------------------------------------------------
// Curve sum type
// ---------------------------------------------------------------------------

// Curve is the geometry of a fragment: Line, Arc or Polyline.
type Curve interface {
	curve()
}

// Line is a straight segment.
type Line struct {
	From, To geom.Point
}

// Arc is a counter-clockwise circular arc. Angles are in radians; an arc
// whose start equals its end is a full circle.
type Arc struct {
	Center geom.Point
	Radius float64
	Start  float64
	End    float64
}

// Polyline is a vertex list with one bulge per segment. Bulges[i] belongs
// to the segment from Vertices[i] to Vertices[i+1]; a missing bulge is 0.
type Polyline struct {
	Vertices []geom.Point
	Bulges   []float64
}

func (Line) curve()     {}
func (Arc) curve()      {}
func (Polyline) curve() {}

// Sweep returns the counter-clockwise included angle of the arc.
func (a Arc) Sweep() float64 {
	return geom.CCWSweep(a.Start, a.End)
}

// Bulge returns the polyline bulge equivalent to the arc.
func (a Arc) Bulge() float64 {
	return geom.BulgeFromSweep(a.Sweep())
}

// StartPoint returns the point at the start angle.
func (a Arc) StartPoint() geom.Point {
	return geom.PointAt(a.Center, a.Radius, a.Start)
}

// EndPoint returns the point at the end angle.
func (a Arc) EndPoint() geom.Point {
	return geom.PointAt(a.Center, a.Radius, a.End)
}

// Bulge returns the bulge of segment i.
func (p Polyline) Bulge(i int) float64 {
	if i < 0 || i >= len(p.Bulges) {
		return 0
	}
	return p.Bulges[i]
}

// Straight reports whether every segment has a zero bulge.
func (p Polyline) Straight() bool {
	for _, b := range p.Bulges {
		if b != 0 {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Fragment
// ---------------------------------------------------------------------------

// JoinState tracks a fragment through the stitcher.
type JoinState int

const (
	Unjoined JoinState = iota
	// Provisional hides a fragment from queries while an alternative
	// candidate is looked up.
	Provisional
	Joined
)

func (s JoinState) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case Provisional:
		return "provisional"
	case Joined:
		return "joined"
	default:
		return fmt.Sprintf("JoinState(%d)", int(s))
	}
}

// Fragment is one source curve in a stitcher working set. Its stored
// vertices never change; Reversed selects the direction of travel once
// the fragment is committed to a chain.
type Fragment struct {
	Curve Curve
	Label string

	State    JoinState
	Reversed bool

	start, end geom.Point
	bounds     geom.Box
}

// NewFragment wraps a curve. It returns an error for curves with fewer
// than two vertices or a non-positive arc radius.
func NewFragment(c Curve, label string) (*Fragment, error) {
	f := &Fragment{Curve: c, Label: label}
	switch c := c.(type) {
	case Line:
		f.start, f.end = c.From, c.To
		f.bounds = geom.BoundsOf(c.From, c.To)
	case Arc:
		if c.Radius <= 0 || math.IsNaN(c.Radius) {
			return nil, fmt.Errorf("stitch: arc radius %v must be positive", c.Radius)
		}
		f.start, f.end = c.StartPoint(), c.EndPoint()
		f.bounds = geom.BoundsOf(f.start, f.end)
	case Polyline:
		if len(c.Vertices) < 2 {
			return nil, fmt.Errorf("stitch: polyline needs at least 2 vertices, got %d", len(c.Vertices))
		}
		f.start, f.end = c.Vertices[0], c.Vertices[len(c.Vertices)-1]
		f.bounds = geom.BoundsOf(c.Vertices...)
	default:
		return nil, fmt.Errorf("stitch: unsupported curve %T", c)
	}
	return f, nil
}

// MustFragment is like NewFragment but panics on error. Used by tests and
// for synthesized bridge lines.
func MustFragment(c Curve, label string) *Fragment {
	f, err := NewFragment(c, label)
	if err != nil {
		panic(err)
	}
	return f
}

// Start returns the stored first vertex.
func (f *Fragment) Start() geom.Point { return f.start }

// End returns the stored last vertex.
func (f *Fragment) End() geom.Point { return f.end }

// Bounds returns the bounding box of the stored vertices. Arcs contribute
// their endpoints only.
func (f *Fragment) Bounds() geom.Box { return f.bounds }

// EffectiveStart returns where travel begins given the reversed flag.
func (f *Fragment) EffectiveStart(reversed bool) geom.Point {
	if reversed {
		return f.end
	}
	return f.start
}

// EffectiveEnd returns where travel ends given the reversed flag.
func (f *Fragment) EffectiveEnd(reversed bool) geom.Point {
	if reversed {
		return f.start
	}
	return f.end
}

// IsClosed reports whether the fragment alone forms a loop, such as a
// full-circle arc or a closed polyline.
func (f *Fragment) IsClosed() bool {
	return geom.Close(f.start, f.end, geom.ClosureTol)
}

// LineLike reports whether the fragment has no curvature: a Line, or a
// Polyline whose bulges are all zero.
func (f *Fragment) LineLike() bool {
	switch c := f.Curve.(type) {
	case Line:
		return true
	case Polyline:
		return c.Straight()
	default:
		return false
	}
}

// turnBulge returns the bulge used by the single-fragment turn check: the
// arc bulge, or the bulge of a polyline's last segment.
func (f *Fragment) turnBulge() float64 {
	switch c := f.Curve.(type) {
	case Arc:
		return c.Bulge()
	case Polyline:
		return c.Bulge(len(c.Vertices) - 2)
	default:
		return 0
	}
}

// vertices returns the stored vertex list (arcs: both endpoints).
func (f *Fragment) vertices() []geom.Point {
	if p, ok := f.Curve.(Polyline); ok {
		return p.Vertices
	}
	return []geom.Point{f.start, f.end}
}
