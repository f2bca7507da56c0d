// Package export writes analysis reports and stitched layers to DXF, JSON
// and PNG files.
package export

import (
	"fmt"
	"math"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/chazu/fixturedrc/pkg/stitch"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// TextHeight is the height of marker labels in drawing units.
const TextHeight = 0.5

// dxfWriter tracks the layers already added to a DXF drawing.
type dxfWriter struct {
	d      *drawing.Drawing
	layers map[string]bool
}

func newDXFWriter() *dxfWriter {
	return &dxfWriter{d: dxf.NewDrawing(), layers: make(map[string]bool)}
}

// use switches to layer name, creating it with cl the first time.
func (w *dxfWriter) use(name string, cl color.ColorNumber) error {
	if w.layers[name] {
		return w.d.ChangeLayer(name)
	}
	if _, err := w.d.AddLayer(name, cl, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("export: add layer %q: %w", name, err)
	}
	w.layers[name] = true
	return nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func (w *dxfWriter) edge(e kernel.Edge) error {
	if e.Kind == kernel.EdgeLine {
		_, err := w.d.Line(e.Start.X, e.Start.Y, 0, e.End.X, e.End.Y, 0)
		return err
	}
	if e.IsFullCircle() {
		_, err := w.d.Circle(e.Center.X, e.Center.Y, 0, e.Radius)
		return err
	}
	a0 := math.Atan2(e.Start.Y-e.Center.Y, e.Start.X-e.Center.X)
	return w.arc(e.Center, e.Radius, a0, e.Sweep)
}

// arc writes a signed arc. DXF arcs run counter-clockwise from start to end
// with both angles in [0, 360).
func (w *dxfWriter) arc(center geom.Point, r, start, sweep float64) error {
	a0, a1 := start, start+sweep
	if sweep < 0 {
		a0, a1 = a1, a0
	}
	_, err := w.d.Arc(center.X, center.Y, 0, r, normDegrees(a0), normDegrees(a1))
	return err
}

func normDegrees(rad float64) float64 {
	d := math.Mod(degrees(rad), 360)
	if d < 0 {
		d += 360
	}
	return d
}

func (w *dxfWriter) wire(wr *kernel.Wire) error {
	for _, e := range wr.Edges {
		if err := w.edge(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *dxfWriter) text(s string, x, y float64) error {
	if s == "" {
		return nil
	}
	_, err := w.d.Text(s, x, y, 0, TextHeight)
	return err
}

// polyline writes a bulged polyline. LWPOLYLINE entities carry no bulges
// here, so straight runs become LWPOLYLINEs and every bulged segment is
// written as an ARC between the same vertices.
func (w *dxfWriter) polyline(out stitch.PolylineOut) error {
	n := len(out.Vertices)
	if n < 2 {
		return nil
	}
	bulge := func(i int) float64 {
		if i < len(out.Bulges) {
			return out.Bulges[i]
		}
		return 0
	}
	segs := n - 1
	if out.Closed {
		segs = n
	}
	straight := true
	for i := 0; i < segs; i++ {
		if bulge(i) != 0 {
			straight = false
			break
		}
	}
	if straight {
		return w.run(out.Vertices, out.Closed)
	}

	var run []geom.Point
	for i := 0; i < segs; i++ {
		p0, p1 := out.Vertices[i], out.Vertices[(i+1)%n]
		b := bulge(i)
		if b == 0 {
			if len(run) == 0 {
				run = append(run, p0)
			}
			run = append(run, p1)
			continue
		}
		if err := w.run(run, false); err != nil {
			return err
		}
		run = run[:0]
		center, r, start, sweep := geom.ArcFromBulge(p0, p1, b)
		if err := w.arc(center, r, start, sweep); err != nil {
			return err
		}
	}
	return w.run(run, false)
}

// run writes pts as one LWPOLYLINE. Fewer than two points write nothing.
func (w *dxfWriter) run(pts []geom.Point, closed bool) error {
	if len(pts) < 2 {
		return nil
	}
	vs := make([][]float64, len(pts))
	for i, v := range pts {
		vs[i] = []float64{v.X, v.Y}
	}
	_, err := w.d.LwPolyline(closed, vs...)
	return err
}

func (w *dxfWriter) layer(l *region.Layer, cl color.ColorNumber) error {
	if err := w.use(l.Name, cl); err != nil {
		return err
	}
	for _, lw := range l.Wires {
		if err := w.wire(lw.Wire); err != nil {
			return fmt.Errorf("export: layer %q: %w", l.Name, err)
		}
	}
	for _, ch := range l.Open {
		if err := w.polyline(ch.Polyline()); err != nil {
			return fmt.Errorf("export: layer %q: %w", l.Name, err)
		}
	}
	return nil
}

func markerText(m analysis.Marker) string {
	if !m.HasDistance {
		return m.Label
	}
	d := fmt.Sprintf("%.4f", m.Distance)
	if m.Label == "" {
		return d
	}
	return m.Label + " " + d
}

func (w *dxfWriter) marker(m analysis.Marker) error {
	switch m.Kind {
	case analysis.MarkerCircle:
		if _, err := w.d.Circle(m.Center.X, m.Center.Y, 0, m.Radius); err != nil {
			return err
		}
		return w.text(markerText(m), m.Center.X+m.Radius, m.Center.Y)
	case analysis.MarkerSegment:
		if _, err := w.d.Line(m.From.X, m.From.Y, 0, m.To.X, m.To.Y, 0); err != nil {
			return err
		}
		return w.text(markerText(m), m.To.X, m.To.Y)
	}
	for _, wr := range m.Wires {
		if err := w.wire(wr); err != nil {
			return err
		}
	}
	b := m.Bounds()
	return w.text(markerText(m), b.Min.X, b.Max.Y)
}

func groupColor(g *analysis.Group) color.ColorNumber {
	if g.Errors() > 0 {
		return color.Red
	}
	return color.Cyan
}

// DXF writes the report to path: one DXF layer per source layer, then one
// per group named after its category label.
func DXF(rep *analysis.Report, path string) error {
	w := newDXFWriter()
	for _, l := range rep.Layers {
		if err := w.layer(l, color.White); err != nil {
			return err
		}
	}
	for _, g := range rep.Groups {
		if len(g.Markers) == 0 {
			continue
		}
		if err := w.use(g.DisplayName(), groupColor(g)); err != nil {
			return err
		}
		for _, m := range g.Markers {
			if err := w.marker(m); err != nil {
				return fmt.Errorf("export: group %q: %w", g.Name, err)
			}
		}
	}
	if err := w.d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// wirePolyline flattens a wire into vertices and bulges.
func wirePolyline(wr *kernel.Wire) stitch.PolylineOut {
	out := stitch.PolylineOut{Closed: wr.Closed}
	for _, e := range wr.Edges {
		out.Vertices = append(out.Vertices, e.Start)
		b := 0.0
		if e.Kind == kernel.EdgeArc {
			b = geom.BulgeFromSweep(e.Sweep)
		}
		out.Bulges = append(out.Bulges, b)
	}
	if !wr.Closed && len(wr.Edges) > 0 {
		out.Vertices = append(out.Vertices, wr.Edges[len(wr.Edges)-1].End)
		out.Bulges = append(out.Bulges, 0)
	}
	return out
}

// ChainsDXF writes the stitched layers with every chain as a bulged
// polyline. Circles stay circles.
func ChainsDXF(layers []*region.Layer, path string) error {
	w := newDXFWriter()
	for _, l := range layers {
		if err := w.use(l.Name, color.White); err != nil {
			return err
		}
		for _, lw := range l.Wires {
			var err error
			if lw.Wire.IsCircle() {
				err = w.edge(lw.Wire.Edges[0])
			} else {
				err = w.polyline(wirePolyline(lw.Wire))
			}
			if err != nil {
				return fmt.Errorf("export: layer %q: %w", l.Name, err)
			}
		}
		for _, ch := range l.Open {
			if err := w.polyline(ch.Polyline()); err != nil {
				return fmt.Errorf("export: layer %q: %w", l.Name, err)
			}
		}
	}
	if err := w.d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
