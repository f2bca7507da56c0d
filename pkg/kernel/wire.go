package kernel

import (
	"fmt"
	"math"

	"github.com/chazu/fixturedrc/pkg/geom"
)

// EdgeKind distinguishes straight edges from circular ones.
type EdgeKind int

const (
	EdgeLine EdgeKind = iota
	EdgeArc
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLine:
		return "line"
	case EdgeArc:
		return "arc"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Edge is one curve of a wire. Arcs keep their exact parameters next to
// the discretized Points, which always start at Start and end at End.
type Edge struct {
	Kind   EdgeKind     `json:"kind"`
	Start  geom.Point   `json:"start"`
	End    geom.Point   `json:"end"`
	Center geom.Point   `json:"center,omitempty"`
	Radius float64      `json:"radius,omitempty"`
	Sweep  float64      `json:"sweep,omitempty"` // signed, radians
	Points []geom.Point `json:"-"`
}

// LineEdge returns the straight edge from a to b.
func LineEdge(a, b geom.Point) Edge {
	return Edge{Kind: EdgeLine, Start: a, End: b, Points: []geom.Point{a, b}}
}

// ArcEdge returns the arc around center starting at angle start and
// sweeping by sweep (positive is counter-clockwise), discretized within tol.
func ArcEdge(center geom.Point, r, start, sweep, tol float64) Edge {
	pts := geom.SampleArc(center, r, start, sweep, tol)
	return Edge{
		Kind:   EdgeArc,
		Start:  pts[0],
		End:    pts[len(pts)-1],
		Center: center,
		Radius: r,
		Sweep:  sweep,
		Points: pts,
	}
}

// BulgeEdge returns the edge from p0 to p1 described by a polyline bulge.
func BulgeEdge(p0, p1 geom.Point, bulge, tol float64) Edge {
	if bulge == 0 || p0 == p1 {
		return LineEdge(p0, p1)
	}
	c, r, _, sweep := geom.ArcFromBulge(p0, p1, bulge)
	return Edge{
		Kind:   EdgeArc,
		Start:  p0,
		End:    p1,
		Center: c,
		Radius: r,
		Sweep:  sweep,
		Points: geom.SampleBulge(p0, p1, bulge, tol),
	}
}

// Length returns the exact length of the edge.
func (e Edge) Length() float64 {
	if e.Kind == EdgeArc {
		return e.Radius * math.Abs(e.Sweep)
	}
	return geom.Dist(e.Start, e.End)
}

// Reversed returns the edge traversed from End to Start.
func (e Edge) Reversed() Edge {
	pts := append([]geom.Point(nil), e.Points...)
	geom.Reverse(pts)
	e.Start, e.End = e.End, e.Start
	e.Sweep = -e.Sweep
	e.Points = pts
	return e
}

// Tangent returns the unit direction of travel at the start of the edge.
func (e Edge) Tangent() geom.Point {
	if e.Kind != EdgeArc || e.Radius == 0 {
		return geom.Direction(e.Start, e.End)
	}
	dx, dy := (e.Start.X-e.Center.X)/e.Radius, (e.Start.Y-e.Center.Y)/e.Radius
	if e.Sweep < 0 {
		return geom.Pt(dy, -dx)
	}
	return geom.Pt(-dy, dx)
}

// IsFullCircle reports whether the edge is a complete circle.
func (e Edge) IsFullCircle() bool {
	return e.Kind == EdgeArc && math.Abs(math.Abs(e.Sweep)-2*math.Pi) < 1e-9
}

// Wire is a connected sequence of edges. Wires are immutable once built;
// use NewWire so the cached discretization is populated.
type Wire struct {
	Edges  []Edge `json:"edges"`
	Closed bool   `json:"closed"`

	path []geom.Point
}

// NewWire assembles edges into a wire. The wire is closed when the end of
// the last edge meets the start of the first within geom.ClosureTol.
func NewWire(edges []Edge) *Wire {
	w := &Wire{Edges: edges}
	if len(edges) > 0 {
		w.Closed = geom.Close(edges[0].Start, edges[len(edges)-1].End, geom.ClosureTol)
	}
	w.path = w.buildPath()
	return w
}

// PolygonWire returns the closed wire through pts. The first point must
// not be repeated at the end.
func PolygonWire(pts []geom.Point) *Wire {
	edges := make([]Edge, 0, len(pts))
	for i := range pts {
		edges = append(edges, LineEdge(pts[i], pts[(i+1)%len(pts)]))
	}
	return NewWire(edges)
}

// PathWire returns the open wire through pts.
func PathWire(pts []geom.Point) *Wire {
	edges := make([]Edge, 0, len(pts))
	for i := 1; i < len(pts); i++ {
		edges = append(edges, LineEdge(pts[i-1], pts[i]))
	}
	return NewWire(edges)
}

// CircleWire returns a one-edge closed wire.
func CircleWire(center geom.Point, r, tol float64) *Wire {
	return NewWire([]Edge{ArcEdge(center, r, 0, 2*math.Pi, tol)})
}

func (w *Wire) buildPath() []geom.Point {
	var pts []geom.Point
	for i, e := range w.Edges {
		if i == 0 {
			pts = append(pts, e.Points...)
			continue
		}
		pts = append(pts, e.Points[1:]...)
	}
	return pts
}

// Path returns the discretized polyline of the wire. For a closed wire the
// last point repeats the first.
func (w *Wire) Path() []geom.Point {
	if w.path == nil {
		return w.buildPath()
	}
	return w.path
}

// Ring returns the discretized boundary of a closed wire without the
// repeated closing point.
func (w *Wire) Ring() []geom.Point {
	p := w.Path()
	if w.Closed && len(p) > 1 {
		return p[:len(p)-1]
	}
	return p
}

// Vertices returns the edge endpoints in order, the topological vertices
// of the wire. A closed wire does not repeat its first vertex.
func (w *Wire) Vertices() []geom.Point {
	if len(w.Edges) == 0 {
		return nil
	}
	out := make([]geom.Point, 0, len(w.Edges)+1)
	for _, e := range w.Edges {
		out = append(out, e.Start)
	}
	if !w.Closed {
		out = append(out, w.Edges[len(w.Edges)-1].End)
	}
	return out
}

// Bounds returns the bounding box of the discretized wire.
func (w *Wire) Bounds() geom.Box {
	return geom.BoundsOf(w.Path()...)
}

// Length returns the total edge length.
func (w *Wire) Length() float64 {
	var l float64
	for _, e := range w.Edges {
		l += e.Length()
	}
	return l
}

// Centroid returns the length-weighted center of mass of the wire.
func (w *Wire) Centroid() geom.Point {
	return geom.CurveCentroid(w.Path())
}

// Area returns the area enclosed by a closed wire, zero when open.
func (w *Wire) Area() float64 {
	if !w.Closed {
		return 0
	}
	return geom.Area(w.Ring())
}

// EdgeCount returns the number of edges.
func (w *Wire) EdgeCount() int {
	return len(w.Edges)
}

// IsCircle reports whether the wire is a single full-circle edge.
func (w *Wire) IsCircle() bool {
	return len(w.Edges) == 1 && w.Edges[0].IsFullCircle()
}

// Reversed returns the wire traversed in the opposite direction.
func (w *Wire) Reversed() *Wire {
	edges := make([]Edge, len(w.Edges))
	for i, e := range w.Edges {
		edges[len(w.Edges)-1-i] = e.Reversed()
	}
	return NewWire(edges)
}

// Sample returns n points evenly spaced by arc length along the
// discretized wire, both ends included. On a closed wire the last sample
// coincides with the first.
func (w *Wire) Sample(n int) []geom.Point {
	path := w.Path()
	if n <= 0 || len(path) == 0 {
		return nil
	}
	if n == 1 || len(path) == 1 {
		return []geom.Point{path[0]}
	}
	total := geom.PathLength(path)
	out := make([]geom.Point, 0, n)
	seg, acc := 1, 0.0
	for i := 0; i < n; i++ {
		target := total * float64(i) / float64(n-1)
		for seg < len(path)-1 && acc+geom.Dist(path[seg-1], path[seg]) < target {
			acc += geom.Dist(path[seg-1], path[seg])
			seg++
		}
		a, b := path[seg-1], path[seg]
		l := geom.Dist(a, b)
		t := 0.0
		if l > 0 {
			t = math.Min(1, math.Max(0, (target-acc)/l))
		}
		out = append(out, geom.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t))
	}
	return out
}
