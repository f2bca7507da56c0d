package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/google/uuid"
)

// Severity of a marker.
type Severity int

const (
	SeverityError Severity = iota
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarkerKind is the shape of a marker.
type MarkerKind int

const (
	MarkerFace MarkerKind = iota
	MarkerCircle
	MarkerSegment
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerFace:
		return "face"
	case MarkerCircle:
		return "circle"
	case MarkerSegment:
		return "segment"
	default:
		return fmt.Sprintf("MarkerKind(%d)", int(k))
	}
}

// Marker is one highlighted shape of a group.
type Marker struct {
	ID       uuid.UUID
	Kind     MarkerKind
	Severity Severity
	Label    string

	// Wires bound a face marker, outer first.
	Wires []*kernel.Wire
	// Center and Radius describe a circle marker.
	Center geom.Point
	Radius float64
	// From and To describe a segment marker.
	From, To geom.Point

	Distance    float64
	HasDistance bool
}

// Bounds returns the extent of the marker.
func (m Marker) Bounds() geom.Box {
	switch m.Kind {
	case MarkerCircle:
		return geom.Around(m.Center, 2*m.Radius)
	case MarkerSegment:
		return geom.BoundsOf(m.From, m.To)
	}
	b := geom.EmptyBox()
	for _, w := range m.Wires {
		b = b.Union(w.Bounds())
	}
	return b
}

func faceMarker(w *kernel.Wire, label string, sev Severity) Marker {
	return Marker{ID: uuid.New(), Kind: MarkerFace, Severity: sev, Label: label, Wires: []*kernel.Wire{w}}
}

func circleMarker(c geom.Point, r float64, label string, sev Severity) Marker {
	return Marker{ID: uuid.New(), Kind: MarkerCircle, Severity: sev, Label: label, Center: c, Radius: r}
}

func segmentMarker(a, b geom.Point, sev Severity) Marker {
	return Marker{
		ID: uuid.New(), Kind: MarkerSegment, Severity: sev,
		From: a, To: b, Distance: geom.Dist(a, b), HasDistance: true,
	}
}

// Group is the output of one check. Name is a stable identifier and Label
// the category shown to the user.
type Group struct {
	Name    string
	Label   string
	Markers []Marker
}

// Errors returns the number of error markers.
func (g *Group) Errors() int {
	n := 0
	for _, m := range g.Markers {
		if m.Severity == SeverityError {
			n++
		}
	}
	return n
}

// DisplayName returns the label, or the name when the group has none.
func (g *Group) DisplayName() string {
	if g.Label != "" {
		return g.Label
	}
	return g.Name
}

// Report is the outcome of a run.
type Report struct {
	RunID    uuid.UUID
	Mode     Mode
	Params   Params
	Started  time.Time
	Duration time.Duration

	// Layers are the source layers in export order.
	Layers   []*region.Layer
	Groups   []*Group
	Warnings []Warning
}

// Group returns the group with the given name, or nil.
func (r *Report) Group(name string) *Group {
	for _, g := range r.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Violations returns the number of error markers over all groups.
func (r *Report) Violations() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Errors()
	}
	return n
}

// Bounds returns the extent of every layer wire and marker.
func (r *Report) Bounds() geom.Box {
	b := geom.EmptyBox()
	for _, l := range r.Layers {
		for _, w := range l.Wires {
			b = b.Union(w.Wire.Bounds())
		}
		for _, c := range l.Open {
			b = b.Union(geom.BoundsOf(c.Vertices()...))
		}
	}
	for _, g := range r.Groups {
		for _, m := range g.Markers {
			b = b.Union(m.Bounds())
		}
	}
	return b
}

// Group names.
const (
	GroupInterference       = "Problem"
	GroupWithoutGrooving    = "Problem_Interference"
	GroupOpenComponent      = "OPEN_component"
	GroupBoard              = "board"
	GroupBoardGap           = "ERROR_Board_gap"
	GroupThruThickness      = "ERROR_Thru_thickness"
	GroupConnectGroove      = "ERROR_ConnectGroove"
	GroupStopBlock          = "Problem_keep_dist_stopBlock"
	GroupPinKeep            = "Problem_keep_dist_fixed_support"
	GroupPressfitGrooving   = "PressfitPin_Interference"
	GroupPressfitSupportGap = "press_pins_support"
)

// formatDist renders a rule distance the way the category labels have
// always shown it: integral values keep one decimal.
func formatDist(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
