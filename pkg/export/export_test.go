package export

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/chazu/fixturedrc/pkg/stitch"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, size float64) *kernel.Wire {
	return kernel.PolygonWire([]geom.Point{
		geom.Pt(x0, y0), geom.Pt(x0+size, y0), geom.Pt(x0+size, y0+size), geom.Pt(x0, y0+size),
	})
}

func sampleReport() *analysis.Report {
	pocket := region.NewLayer("POCKET_3")
	pocket.Wires = []region.Labeled{{Wire: square(0, 0, 10), Label: "pocket_exp"}}

	open := region.NewLayer("OPEN")
	open.Wires = []region.Labeled{{Wire: kernel.CircleWire(geom.Pt(20, 5), 2, geom.DefaultArcTolerance)}}
	open.Open = stitch.StitchAll([]*stitch.Fragment{
		stitch.MustFragment(stitch.Arc{Center: geom.Pt(30, 5), Radius: 2, Start: 0, End: math.Pi / 2}, "stroke"),
	}, stitch.DefaultOptions()).Open

	return &analysis.Report{
		RunID:    uuid.New(),
		Mode:     analysis.ModeUnloader,
		Params:   analysis.DefaultConfig().Params,
		Started:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration: 1500 * time.Microsecond,
		Layers:   []*region.Layer{pocket, open},
		Groups: []*analysis.Group{
			{
				Name:  analysis.GroupInterference,
				Label: "[ERROR]Interference Within 3.0mm",
				Markers: []analysis.Marker{{
					ID: uuid.New(), Kind: analysis.MarkerFace, Severity: analysis.SeverityError,
					Label: "U1_exp", Wires: []*kernel.Wire{square(1, 1, 2)},
					Distance: 1, HasDistance: true,
				}},
			},
			{
				Name: analysis.GroupOpenComponent,
				Markers: []analysis.Marker{{
					ID: uuid.New(), Kind: analysis.MarkerCircle, Severity: analysis.SeverityInfo,
					Center: geom.Pt(20, 5), Radius: 0.5,
				}},
			},
			{
				Name:  analysis.GroupConnectGroove,
				Label: "[ERROR]Connect Groove Dimension Violation",
				Markers: []analysis.Marker{{
					ID: uuid.New(), Kind: analysis.MarkerSegment, Severity: analysis.SeverityError,
					From: geom.Pt(0, 12), To: geom.Pt(8, 12), Distance: 8, HasDistance: true,
				}},
			},
			{Name: analysis.GroupBoard, Label: analysis.GroupBoard},
		},
		Warnings: []analysis.Warning{{Kind: analysis.WarnCoincidentGap, Layer: "OPEN", Message: "touching"}},
	}
}

func TestDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dxf")
	require.NoError(t, DXF(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	for _, want := range []string{
		"POCKET_3", "OPEN",
		"[ERROR]Interference Within 3.0mm",
		"OPEN_component",
		"[ERROR]Connect Groove Dimension Violation",
		"LWPOLYLINE", "CIRCLE", "TEXT",
		"U1_exp 1.0000",
	} {
		assert.Contains(t, s, want)
	}
	// empty groups get no layer
	assert.NotContains(t, s, "\nboard\n")
}

func TestChainsDXF(t *testing.T) {
	l := region.NewLayer("SILK")
	arc := kernel.ArcEdge(geom.Pt(5, 10), 5, 0, math.Pi, geom.DefaultArcTolerance)
	l.Wires = []region.Labeled{
		{Wire: kernel.NewWire([]kernel.Edge{
			kernel.LineEdge(geom.Pt(0, 0), geom.Pt(10, 0)),
			kernel.LineEdge(geom.Pt(10, 0), arc.Start),
			arc,
			kernel.LineEdge(arc.End, geom.Pt(0, 0)),
		})},
		{Wire: kernel.CircleWire(geom.Pt(30, 30), 1, geom.DefaultArcTolerance)},
	}

	path := filepath.Join(t.TempDir(), "chains.dxf")
	require.NoError(t, ChainsDXF([]*region.Layer{l}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LWPOLYLINE")
	assert.Contains(t, string(data), "ARC")
	assert.Contains(t, string(data), "CIRCLE")
	assert.Contains(t, string(data), "SILK")
}

// dxfEntities reads the group code pairs of a DXF file and returns every
// entity of the given type as a code to value map (first occurrence wins).
func dxfEntities(t *testing.T, path, typ string) []map[int]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var out []map[int]string
	var cur map[int]string
	for i := 0; i+1 < len(lines); i += 2 {
		code, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		require.NoError(t, err, "line %d", i+1)
		val := strings.TrimSpace(lines[i+1])
		if code == 0 {
			cur = nil
			if val == typ {
				cur = make(map[int]string)
				out = append(out, cur)
			}
			continue
		}
		if cur != nil {
			if _, ok := cur[code]; !ok {
				cur[code] = val
			}
		}
	}
	return out
}

func groupFloat(t *testing.T, e map[int]string, code int) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(e[code], 64)
	require.NoError(t, err, "group %d", code)
	return v
}

func TestChainsDXFWritesBulgesAsArcs(t *testing.T) {
	l := region.NewLayer("SILK")
	l.Open = stitch.StitchAll([]*stitch.Fragment{
		stitch.MustFragment(stitch.Arc{Center: geom.Pt(30, 5), Radius: 2, Start: 0, End: math.Pi / 2}, "a"),
		stitch.MustFragment(stitch.Polyline{
			Vertices: []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10)},
			Bulges:   []float64{0, 1},
		}, "p"),
	}, stitch.DefaultOptions()).Open
	require.Len(t, l.Open, 2)

	path := filepath.Join(t.TempDir(), "arcs.dxf")
	require.NoError(t, ChainsDXF([]*region.Layer{l}, path))

	arcs := dxfEntities(t, path, "ARC")
	require.Len(t, arcs, 2)
	byRadius := make(map[float64]map[int]string)
	for _, a := range arcs {
		byRadius[math.Round(groupFloat(t, a, 40))] = a
	}

	quarter := byRadius[2]
	require.NotNil(t, quarter)
	assert.InDelta(t, 30, groupFloat(t, quarter, 10), 1e-9)
	assert.InDelta(t, 5, groupFloat(t, quarter, 20), 1e-9)
	assert.InDelta(t, 0, groupFloat(t, quarter, 50), 1e-9)
	assert.InDelta(t, 90, groupFloat(t, quarter, 51), 1e-9)

	// A positive bulge turns counter-clockwise: the semicircle from (10,0)
	// to (10,10) runs from 270 to 90 degrees.
	half := byRadius[5]
	require.NotNil(t, half)
	assert.InDelta(t, 10, groupFloat(t, half, 10), 1e-9)
	assert.InDelta(t, 5, groupFloat(t, half, 20), 1e-9)
	assert.InDelta(t, 270, groupFloat(t, half, 50), 1e-9)
	assert.InDelta(t, 90, groupFloat(t, half, 51), 1e-9)

	// The straight run before the bulge stays a polyline.
	assert.Len(t, dxfEntities(t, path, "LWPOLYLINE"), 1)
}

func TestWirePolylineBulges(t *testing.T) {
	arc := kernel.ArcEdge(geom.Pt(0, 0), 1, 0, math.Pi, geom.DefaultArcTolerance)
	w := kernel.NewWire([]kernel.Edge{arc, kernel.LineEdge(arc.End, arc.Start)})
	out := wirePolyline(w)

	assert.True(t, out.Closed)
	require.Len(t, out.Vertices, 2)
	assert.InDelta(t, 1, out.Bulges[0], 1e-12)
	assert.Equal(t, 0.0, out.Bulges[1])

	out = wirePolyline(w.Reversed())
	assert.InDelta(t, -1, out.Bulges[1], 1e-12)
}

func TestJSON(t *testing.T) {
	rep := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, JSON(rep, &buf))

	var got Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, rep.RunID.String(), got.RunID)
	assert.Equal(t, analysis.ModeUnloader, got.Mode)
	assert.Equal(t, 2, got.Violations)
	assert.InDelta(t, 1.5, got.DurationMS, 1e-9)

	require.Len(t, got.Layers, 2)
	require.NotNil(t, got.Layers[0].Depth)
	assert.Equal(t, 3.0, *got.Layers[0].Depth)
	assert.Equal(t, 1, got.Layers[1].Open)

	require.Len(t, got.Groups, 4)
	assert.Equal(t, analysis.GroupOpenComponent, got.Groups[1].Label)
	assert.Equal(t, "circle", got.Groups[1].Markers[0].Kind)
	assert.Equal(t, "info", got.Groups[1].Markers[0].Severity)
	assert.Nil(t, got.Groups[1].Markers[0].Distance)
	seg := got.Groups[2].Markers[0]
	require.NotNil(t, seg.From)
	assert.Equal(t, geom.Pt(8, 12), *seg.To)
	assert.Equal(t, 8.0, *seg.Distance)
	assert.NotNil(t, got.Groups[3].Markers)

	require.Len(t, got.Warnings, 1)
	assert.Equal(t, "coincident-gap", got.Warnings[0].Kind)
}

func TestJSONThroughLayer(t *testing.T) {
	rep := sampleReport()
	rep.Layers = []*region.Layer{region.NewLayer("OPEN")}
	s := NewSummary(rep)
	assert.True(t, s.Layers[0].Through)
	assert.Nil(t, s.Layers[0].Depth)
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(sampleReport(), &buf, 4))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), 2*pngMargin)
	assert.Greater(t, b.Dy(), 2*pngMargin)
}

func TestPNGScalesDownLargeDrawings(t *testing.T) {
	defer func(v float64) { pngMaxSide = v }(pngMaxSide)
	pngMaxSide = 256

	rep := sampleReport()
	big := region.NewLayer("BIG")
	big.Wires = []region.Labeled{{Wire: square(0, 0, 100000)}}
	rep.Layers = append(rep.Layers, big)

	var buf bytes.Buffer
	require.NoError(t, PNG(rep, &buf, 4))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 256+2*pngMargin+1)
}

func TestPNGEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, PNG(&analysis.Report{}, &buf, 4))
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Write(sampleReport(), analysis.OutputConfig{Dir: dir, DXF: true, JSON: true, PNG: true, PNGScale: 2}, "board")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, fi.Size(), int64(0))
	}
	assert.Equal(t, filepath.Join(dir, "board_result.dxf"), paths[0])
}
