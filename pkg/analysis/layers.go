package analysis

import (
	"fmt"
	"math"

	"github.com/chazu/fixturedrc/pkg/drawing"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/chazu/fixturedrc/pkg/stitch"
)

// entityLabel names the wire built from entity i of layer.
func entityLabel(layer string, i int, e drawing.Entity) string {
	if l := e.EntityLabel(); l != "" {
		return l + "_exp"
	}
	return fmt.Sprintf("%s_%d_exp", layer, i)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// fragmentOf converts a non-circle entity to a stitch fragment. Closed
// polylines repeat their first vertex so the fragment closes on itself.
func fragmentOf(e drawing.Entity, label string) (*stitch.Fragment, error) {
	switch e := e.(type) {
	case drawing.Line:
		return stitch.NewFragment(stitch.Line{From: geom.Pt(e.X0, e.Y0), To: geom.Pt(e.X1, e.Y1)}, label)
	case drawing.Arc:
		return stitch.NewFragment(stitch.Arc{
			Center: geom.Pt(e.CX, e.CY),
			Radius: e.Radius,
			Start:  radians(e.StartAngle),
			End:    radians(e.EndAngle),
		}, label)
	case drawing.Polyline:
		pl := stitch.Polyline{}
		for i, v := range e.Vertices {
			pl.Vertices = append(pl.Vertices, geom.Pt(v.X, v.Y))
			if i < len(e.Vertices)-1 {
				pl.Bulges = append(pl.Bulges, v.Bulge)
			}
		}
		if e.Closed && len(e.Vertices) > 1 {
			first, last := e.Vertices[0], e.Vertices[len(e.Vertices)-1]
			if first.X != last.X || first.Y != last.Y {
				pl.Vertices = append(pl.Vertices, geom.Pt(first.X, first.Y))
				pl.Bulges = append(pl.Bulges, last.Bulge)
			}
		}
		return stitch.NewFragment(pl, label)
	}
	return nil, fmt.Errorf("unsupported entity %T", e)
}

// allEdgesShorter reports whether every edge of w is shorter than limit.
func allEdgesShorter(w *kernel.Wire, limit float64) bool {
	for _, e := range w.Edges {
		if e.Length() >= limit {
			return false
		}
	}
	return true
}

// prepareLayer stitches the entities of one drawing layer into closed
// wires. Silkscreen layers drop text-sized strokes and bridge the open
// strokes that remain.
func (c *Context) prepareLayer(dl *drawing.Layer, silk bool) (*region.Layer, []Warning, error) {
	cfg := c.Config.Stitch
	tol := cfg.ArcTolerance
	if tol <= 0 {
		tol = geom.DefaultArcTolerance
	}
	opts := stitch.Options{MaxJoins: cfg.MaxJoins, RaySearchLength: cfg.RaySearchLength}

	l := region.NewLayer(dl.Name)
	var warns []Warning
	var frags []*stitch.Fragment
	closed := 0

	for i, e := range dl.Entities {
		label := entityLabel(dl.Name, i, e)
		if ci, ok := e.(drawing.Circle); ok {
			l.Wires = append(l.Wires, region.Labeled{
				Wire:  kernel.CircleWire(geom.Pt(ci.CX, ci.CY), ci.Radius, tol),
				Label: label,
			})
			closed++
			continue
		}
		f, err := fragmentOf(e, label)
		if err != nil {
			return nil, nil, fmt.Errorf("analysis: layer %q entity %d: %w", dl.Name, i, err)
		}
		if f.IsClosed() {
			ch := &stitch.Chain{Links: []stitch.Link{{Fragment: f}}}
			l.Wires = append(l.Wires, region.Labeled{Wire: ch.Wire(tol), Label: label})
			closed++
			continue
		}
		frags = append(frags, f)
	}

	res := stitch.StitchAll(frags, opts)
	for _, w := range res.Warnings {
		warns = append(warns, Warning{
			Kind:    WarnChainCapped,
			Layer:   dl.Name,
			Message: fmt.Sprintf("%s at (%g, %g)", w.Message, w.At.X, w.At.Y),
		})
	}
	for _, ch := range res.Closed {
		l.Wires = append(l.Wires, region.Labeled{Wire: ch.Wire(tol), Label: ch.Label()})
	}
	closed += len(res.Closed)
	open := res.Open

	if silk {
		minEdge := cfg.SilkMinEdge
		kept := l.Wires[:0]
		for _, w := range l.Wires {
			if w.Wire.IsCircle() || !allEdgesShorter(w.Wire, minEdge) {
				kept = append(kept, w)
			}
		}
		l.Wires = kept

		var strokes []*stitch.Chain
		for _, ch := range open {
			if !allEdgesShorter(ch.Wire(tol), minEdge) {
				strokes = append(strokes, ch)
			}
		}
		bridged, rest := stitch.BridgeOpenChains(strokes, opts)
		for _, ch := range bridged {
			l.Wires = append(l.Wires, region.Labeled{Wire: ch.Wire(tol)})
		}
		closed += len(bridged)
		open = rest
	}
	l.Open = open
	countChains(closed, len(open))

	Logger().Debug("layer prepared",
		"layer", dl.Name, "count", len(l.Wires), "open", len(l.Open), "silk", silk)
	return l, warns, nil
}

// layerBounds returns the union of the wire bounds of l.
func layerBounds(l *region.Layer) geom.Box {
	b := geom.EmptyBox()
	for _, w := range l.Wires {
		b = b.Union(w.Wire.Bounds())
	}
	return b
}
