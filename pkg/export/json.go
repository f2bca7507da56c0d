package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/segmentio/encoding/json"
)

// Summary is the JSON form of a report. Geometry is reduced to marker
// positions and bounds.
type Summary struct {
	RunID      string           `json:"run_id"`
	Mode       analysis.Mode    `json:"mode"`
	Started    time.Time        `json:"started"`
	DurationMS float64          `json:"duration_ms"`
	Params     analysis.Params  `json:"params"`
	Violations int              `json:"violations"`
	Layers     []LayerSummary   `json:"layers"`
	Groups     []GroupSummary   `json:"groups"`
	Warnings   []WarningSummary `json:"warnings,omitempty"`
}

type LayerSummary struct {
	Name string `json:"name"`
	// Depth is omitted for through layers.
	Depth   *float64 `json:"depth,omitempty"`
	Through bool     `json:"through,omitempty"`
	Wires   int      `json:"wires"`
	Open    int      `json:"open"`
}

type GroupSummary struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Errors  int             `json:"errors"`
	Markers []MarkerSummary `json:"markers"`
}

type MarkerSummary struct {
	ID       string      `json:"id"`
	Kind     string      `json:"kind"`
	Severity string      `json:"severity"`
	Label    string      `json:"label,omitempty"`
	Bounds   [4]float64  `json:"bounds"`
	Center   *geom.Point `json:"center,omitempty"`
	Radius   float64     `json:"radius,omitempty"`
	From     *geom.Point `json:"from,omitempty"`
	To       *geom.Point `json:"to,omitempty"`
	Distance *float64    `json:"distance,omitempty"`
}

type WarningSummary struct {
	Kind    string `json:"kind"`
	Layer   string `json:"layer"`
	Message string `json:"message"`
}

func boxArray(b geom.Box) [4]float64 {
	return [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
}

func markerSummary(m analysis.Marker) MarkerSummary {
	s := MarkerSummary{
		ID:       m.ID.String(),
		Kind:     m.Kind.String(),
		Severity: m.Severity.String(),
		Label:    m.Label,
		Bounds:   boxArray(m.Bounds()),
	}
	switch m.Kind {
	case analysis.MarkerCircle:
		c := m.Center
		s.Center, s.Radius = &c, m.Radius
	case analysis.MarkerSegment:
		from, to := m.From, m.To
		s.From, s.To = &from, &to
	}
	if m.HasDistance && !math.IsInf(m.Distance, 0) {
		d := m.Distance
		s.Distance = &d
	}
	return s
}

// NewSummary reduces rep to its JSON form.
func NewSummary(rep *analysis.Report) Summary {
	s := Summary{
		RunID:      rep.RunID.String(),
		Mode:       rep.Mode,
		Started:    rep.Started,
		DurationMS: float64(rep.Duration) / float64(time.Millisecond),
		Params:     rep.Params,
		Violations: rep.Violations(),
		Layers:     []LayerSummary{},
		Groups:     []GroupSummary{},
	}
	for _, l := range rep.Layers {
		ls := LayerSummary{Name: l.Name, Wires: len(l.Wires), Open: len(l.Open)}
		if math.IsInf(l.Depth, 1) {
			ls.Through = true
		} else {
			d := l.Depth
			ls.Depth = &d
		}
		s.Layers = append(s.Layers, ls)
	}
	for _, g := range rep.Groups {
		gs := GroupSummary{Name: g.Name, Label: g.DisplayName(), Errors: g.Errors(), Markers: []MarkerSummary{}}
		for _, m := range g.Markers {
			gs.Markers = append(gs.Markers, markerSummary(m))
		}
		s.Groups = append(s.Groups, gs)
	}
	for _, w := range rep.Warnings {
		s.Warnings = append(s.Warnings, WarningSummary{Kind: w.Kind.String(), Layer: w.Layer, Message: w.Message})
	}
	return s
}

// JSON writes the indented summary of rep to w.
func JSON(rep *analysis.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewSummary(rep)); err != nil {
		return fmt.Errorf("export: encode summary: %w", err)
	}
	return nil
}
