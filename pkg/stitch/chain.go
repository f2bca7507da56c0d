package stitch

import (
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
)

// Link is one fragment of a chain together with its direction of travel.
type Link struct {
	Fragment *Fragment
	Reversed bool
}

// Start returns the point where travel along the link begins.
func (l Link) Start() geom.Point { return l.Fragment.EffectiveStart(l.Reversed) }

// End returns the point where travel along the link ends.
func (l Link) End() geom.Point { return l.Fragment.EffectiveEnd(l.Reversed) }

// Chain is an ordered, directed sequence of linked fragments. Chains are
// not modified after the stitcher returns them.
type Chain struct {
	Links []Link
}

// Len returns the number of links.
func (c *Chain) Len() int { return len(c.Links) }

// Start returns the effective start of the first link.
func (c *Chain) Start() geom.Point { return c.Links[0].Start() }

// End returns the effective end of the last link.
func (c *Chain) End() geom.Point { return c.Links[len(c.Links)-1].End() }

// IsClosed reports whether the chain ends where it starts, within
// geom.ClosureTol.
func (c *Chain) IsClosed() bool {
	if len(c.Links) == 0 {
		return false
	}
	return geom.Close(c.Start(), c.End(), geom.ClosureTol)
}

// Label returns the first non-empty fragment label of the chain.
func (c *Chain) Label() string {
	for _, l := range c.Links {
		if l.Fragment.Label != "" {
			return l.Fragment.Label
		}
	}
	return ""
}

// Reversed returns the chain traversed in the opposite direction.
func (c *Chain) Reversed() *Chain {
	out := make([]Link, len(c.Links))
	for i, l := range c.Links {
		out[len(c.Links)-1-i] = Link{Fragment: l.Fragment, Reversed: !l.Reversed}
	}
	return &Chain{Links: out}
}

// Vertices returns the effective link endpoints in travel order. A closed
// chain does not repeat its first point.
func (c *Chain) Vertices() []geom.Point {
	if len(c.Links) == 0 {
		return nil
	}
	out := make([]geom.Point, 0, len(c.Links)+1)
	for _, l := range c.Links {
		out = append(out, l.Start())
	}
	if !c.IsClosed() {
		out = append(out, c.End())
	}
	return out
}

// Wire converts the chain to a kernel wire with typed edges. Arcs are
// discretized within arcTol.
func (c *Chain) Wire(arcTol float64) *kernel.Wire {
	var edges []kernel.Edge
	for _, l := range c.Links {
		edges = append(edges, linkEdges(l, arcTol)...)
	}
	return kernel.NewWire(edges)
}

func linkEdges(l Link, arcTol float64) []kernel.Edge {
	var edges []kernel.Edge
	switch cv := l.Fragment.Curve.(type) {
	case Line:
		edges = []kernel.Edge{kernel.LineEdge(cv.From, cv.To)}
	case Arc:
		e := kernel.ArcEdge(cv.Center, cv.Radius, cv.Start, cv.Sweep(), arcTol)
		// Pin the endpoints to the stored vertices so joints stay exact.
		e.Start, e.End = l.Fragment.Start(), l.Fragment.End()
		e.Points[0], e.Points[len(e.Points)-1] = e.Start, e.End
		edges = []kernel.Edge{e}
	case Polyline:
		for i := 1; i < len(cv.Vertices); i++ {
			edges = append(edges, kernel.BulgeEdge(cv.Vertices[i-1], cv.Vertices[i], cv.Bulge(i-1), arcTol))
		}
	}
	if !l.Reversed {
		return edges
	}
	out := make([]kernel.Edge, len(edges))
	for i, e := range edges {
		out[len(edges)-1-i] = e.Reversed()
	}
	return out
}

// PolylineOut is a chain flattened for DXF-style emission: Bulges[i]
// belongs to the segment starting at Vertices[i]. For a closed polyline the
// last bulge is that of the closing segment.
type PolylineOut struct {
	Vertices []geom.Point
	Bulges   []float64
	Closed   bool
}

// Polyline flattens the chain into vertices and bulges. Reversed arcs and
// polylines get negated bulges.
func (c *Chain) Polyline() PolylineOut {
	var out PolylineOut
	for _, l := range c.Links {
		pts, bulges := linkSegments(l)
		if len(out.Vertices) == 0 {
			out.Vertices = append(out.Vertices, pts[0])
		}
		out.Vertices = append(out.Vertices, pts[1:]...)
		out.Bulges = append(out.Bulges, bulges...)
	}
	if c.IsClosed() && len(out.Vertices) > 1 {
		out.Vertices = out.Vertices[:len(out.Vertices)-1]
		out.Closed = true
		return out
	}
	// Trailing vertex of an open polyline carries no segment.
	out.Bulges = append(out.Bulges, 0)
	return out
}

// linkSegments returns the vertices of a link in travel order with one
// bulge per segment.
func linkSegments(l Link) ([]geom.Point, []float64) {
	var pts []geom.Point
	var bulges []float64
	switch cv := l.Fragment.Curve.(type) {
	case Line:
		pts = []geom.Point{cv.From, cv.To}
		bulges = []float64{0}
	case Arc:
		pts = []geom.Point{l.Fragment.Start(), l.Fragment.End()}
		bulges = []float64{cv.Bulge()}
	case Polyline:
		pts = append(pts, cv.Vertices...)
		for i := 1; i < len(cv.Vertices); i++ {
			bulges = append(bulges, cv.Bulge(i-1))
		}
	}
	if l.Reversed {
		geom.Reverse(pts)
		rev := make([]float64, len(bulges))
		for i, b := range bulges {
			rev[len(bulges)-1-i] = -b
		}
		bulges = rev
	}
	return pts, bulges
}
