package analysis

import (
	"math"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
)

// A connect groove is a tab cut into a board sink outline: nine edges
// alternating line and arc, starting on an axis-aligned line, with the
// lines at offsets 4 and 8 running in the same direction as the first.
const grooveSpan = 8

const (
	tangentTol  = 1e-9
	grooveAlign = 1e-5
	probeOffset = 0.1
	probeTol    = 1e-7
)

var axisTangents = []geom.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

func sameDirection(a, b geom.Point) bool {
	return geom.Dist(a, b) < tangentTol
}

func axisAligned(t geom.Point) bool {
	for _, a := range axisTangents {
		if sameDirection(t, a) {
			return true
		}
	}
	return false
}

// rotate90 turns v a quarter turn counter-clockwise.
func rotate90(v geom.Point) geom.Point {
	return geom.Pt(-v.Y, v.X)
}

// orientation returns +1 when the interior of w lies to the left of its
// first line edge, probed next to the edge midpoint, and -1 otherwise. ok
// is false when w has no line edge or no face can be built.
func orientation(k kernel.Kernel, w *kernel.Wire) (ccw float64, ok bool) {
	for _, e := range w.Edges {
		if e.Kind != kernel.EdgeLine {
			continue
		}
		face, err := k.Face(w)
		if err != nil {
			return 0, false
		}
		probe := r2.Add(geom.Mid(e.Start, e.End), r2.Scale(probeOffset, rotate90(e.Tangent())))
		if k.Inside(face, probe, probeTol) {
			return 1, true
		}
		return -1, true
	}
	return 0, false
}

// findGrooves returns the index of the first edge of every connect groove
// on w, together with the orientation of w.
func findGrooves(k kernel.Kernel, w *kernel.Wire) ([]int, float64) {
	edges := w.Edges
	n := len(edges)
	if n <= grooveSpan {
		return nil, 0
	}
	ccw, ok := orientation(k, w)
	if !ok {
		return nil, 0
	}
	at := func(i int) kernel.Edge { return edges[i%n] }

	var idxes []int
	for i := 0; i < n; {
		t := at(i).Tangent()
		if !grooveShape(at, i) || !axisAligned(t) ||
			!sameDirection(at(i+4).Tangent(), t) || !sameDirection(at(i+8).Tangent(), t) {
			i++
			continue
		}
		first, mid, last := at(i).Start, at(i+4).Start, at(i+8).Start
		var inward, aligned bool
		if math.Abs(t.X) < tangentTol {
			inward = first.X*t.Y*ccw < mid.X*t.Y*ccw
			aligned = math.Abs(first.X-last.X) < grooveAlign
		} else {
			inward = first.Y*t.X*ccw > mid.Y*t.X*ccw
			aligned = math.Abs(first.Y-last.Y) < grooveAlign
		}
		if inward && aligned {
			idxes = append(idxes, i)
			i += grooveSpan
		} else {
			i += 4
		}
	}
	return idxes, ccw
}

// grooveShape checks the line/arc alternation of the nine edges from i.
func grooveShape(at func(int) kernel.Edge, i int) bool {
	for j := 0; j <= grooveSpan; j++ {
		want := kernel.EdgeLine
		if j%2 == 1 {
			want = kernel.EdgeArc
		}
		if at(i+j).Kind != want {
			return false
		}
	}
	return true
}

// pointWireDistance returns the distance from p to the discretized wire.
func pointWireDistance(w *kernel.Wire, p geom.Point) float64 {
	path := w.Path()
	if len(path) == 1 {
		return geom.Dist(p, path[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		if d := geom.Dist(p, geom.ClosestOnSegment(p, path[i-1], path[i])); d < best {
			best = d
		}
	}
	return best
}
