// Package drawing defines the raw drawing model produced by the DSL engine:
// named layers of lines, arcs, circles and bulged polylines.
package drawing

import "math"

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

// Entity is the interface for drawable layer content.
type Entity interface {
	entity() // marker method restricting implementations to this package
	EntityLabel() string
}

// Line is a straight segment.
type Line struct {
	X0, Y0, X1, Y1 float64
	Label          string
}

// Arc is a counter-clockwise arc. Angles are in degrees, DXF style.
type Arc struct {
	CX, CY     float64
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Label      string
}

// Circle is a full circle.
type Circle struct {
	CX, CY float64
	Radius float64
	Label  string
}

// Vertex is a polyline vertex. Bulge describes the segment leaving it.
type Vertex struct {
	X, Y  float64
	Bulge float64
}

// Polyline is a sequence of vertices, optionally closed back to the first.
type Polyline struct {
	Vertices []Vertex
	Closed   bool
	Label    string
}

func (Line) entity()     {}
func (Arc) entity()      {}
func (Circle) entity()   {}
func (Polyline) entity() {}

func (e Line) EntityLabel() string     { return e.Label }
func (e Arc) EntityLabel() string      { return e.Label }
func (e Circle) EntityLabel() string   { return e.Label }
func (e Polyline) EntityLabel() string { return e.Label }

// Length returns the length of the line.
func (e Line) Length() float64 {
	return math.Hypot(e.X1-e.X0, e.Y1-e.Y0)
}

// Rect returns the closed polyline of the axis-aligned rectangle with
// corners (x0, y0) and (x1, y1).
func Rect(x0, y0, x1, y1 float64, label string) Polyline {
	return Polyline{
		Vertices: []Vertex{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}},
		Closed:   true,
		Label:    label,
	}
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

// Layer is a named, ordered list of entities.
type Layer struct {
	Name     string
	Entities []Entity
}

// Drawing is the result of one evaluation. It is never mutated once the
// engine returns it.
type Drawing struct {
	Layers []*Layer
}

// New creates an empty Drawing.
func New() *Drawing {
	return &Drawing{}
}

// AddLayer appends a layer. Duplicate names are kept; Validate reports them.
func (d *Drawing) AddLayer(l *Layer) {
	d.Layers = append(d.Layers, l)
}

// Layer returns the first layer with the given name, or nil.
func (d *Drawing) Layer(name string) *Layer {
	for _, l := range d.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Names returns the layer names in drawing order.
func (d *Drawing) Names() []string {
	names := make([]string, 0, len(d.Layers))
	for _, l := range d.Layers {
		names = append(names, l.Name)
	}
	return names
}

// EntityCount returns the total number of entities.
func (d *Drawing) EntityCount() int {
	n := 0
	for _, l := range d.Layers {
		n += len(l.Entities)
	}
	return n
}
