package analysis

import (
	"fmt"
	"sort"

	"github.com/chazu/fixturedrc/pkg/clearance"
	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/quadtree"
	"github.com/chazu/fixturedrc/pkg/region"
)

const (
	// boardSearchSize is the side of the box searched for the board
	// around each board sink centroid.
	boardSearchSize = 10.0
	// sliceLen is the sampling step of selected wires for the thru
	// thickness check.
	sliceLen = 2.0
	// keepSearchMargin widens the stop block and pin searches.
	keepSearchMargin = 20.0
	// coincidentGap is the distance below which a gap is degenerate.
	coincidentGap = 1e-9
)

// run carries the indexes and intermediate results shared by the checks
// of one mode.
type run struct {
	c   *Context
	rep *Report

	candidates *clearance.Index // botsilk + botpaste
	botmask    *clearance.Index
	boards     []boardPair
}

type boardPair struct {
	sink  region.Labeled
	board *clearance.Feature
}

func (r *run) add(g *Group) {
	r.rep.Groups = append(r.rep.Groups, g)
}

func violationMarker(v clearance.Violation) Marker {
	m := faceMarker(v.Feature.Wire, v.Label, SeverityError)
	m.ID = v.ID
	m.Distance, m.HasDistance = v.Distance, v.HasDistance
	return m
}

func featureMarkers(fs []*clearance.Feature) []Marker {
	out := make([]Marker, 0, len(fs))
	for _, f := range fs {
		out = append(out, faceMarker(f.Wire, f.Label, SeverityError))
	}
	return out
}

// gapMarkers appends one circle marker per witness pair of gap.
func (r *run) gapMarkers(g *Group, gap clearance.Gap, layer string) {
	if gap.Dist < coincidentGap {
		r.c.warn(Warning{
			Kind:    WarnCoincidentGap,
			Layer:   layer,
			Message: fmt.Sprintf("wires touch or overlap (gap %g) in %s", gap.Dist, g.Name),
		})
	}
	for _, c := range gap.Markers {
		m := circleMarker(c.Center, c.Radius, "", SeverityError)
		m.Distance, m.HasDistance = gap.Dist, true
		g.Markers = append(g.Markers, m)
	}
}

// supportBlock returns the bounds of the first support block wire.
func (r *run) supportBlock() (geom.Box, bool) {
	name := r.c.Config.Layers.SupportBlock
	l := r.c.Layer(name)
	if l == nil || len(l.Wires) == 0 {
		r.c.warn(Warning{Kind: WarnFaceFailed, Layer: name, Message: "support block has no closed wire"})
		return geom.Box{}, false
	}
	return l.Wires[0].Wire.Bounds(), true
}

// ---------------------------------------------------------------------------
// Interference
// ---------------------------------------------------------------------------

// interference indexes the botsilk and botpaste features and sweeps the
// selected layers over them. Features left unvisited never sat inside a
// grooved region.
func (r *run) interference() {
	p := r.c.Config.Params
	names := r.c.Config.Layers
	r.candidates = r.c.index(
		layerBounds(r.c.Layer(names.Botsilk)),
		clearance.SkipPolicy{SkipCircles: true, AreaBound: p.AreaBound},
		r.c.features(names.Botsilk), r.c.features(names.Botpaste),
	)

	within := &Group{
		Name:  GroupInterference,
		Label: fmt.Sprintf("[ERROR]Interference Within %smm", formatDist(p.DR)),
	}
	for _, v := range r.c.checker.CheckAgainstLayers(r.c.selectedLayers(), r.candidates, p.DR) {
		within.Markers = append(within.Markers, violationMarker(v))
	}
	r.add(within)

	var rest []*clearance.Feature
	if r.c.Config.Mode.fixture() {
		if box, ok := r.supportBlock(); ok {
			for _, f := range r.candidates.Query(box) {
				if !f.Visited() {
					rest = append(rest, f)
				}
			}
		}
	} else {
		rest = r.candidates.Unvisited()
	}
	r.add(&Group{
		Name:    GroupWithoutGrooving,
		Label:   "[ERROR]Interference without Grooving",
		Markers: featureMarkers(rest),
	})
}

// ---------------------------------------------------------------------------
// Unloader and wave
// ---------------------------------------------------------------------------

// openComponents lists every botmask feature inside an OPEN region. Those
// closer than dr to the region boundary are errors, the rest information.
func (r *run) openComponents() {
	p := r.c.Config.Params
	names := r.c.Config.Layers
	r.botmask = r.c.index(
		layerBounds(r.c.Layer(names.Botmask)),
		clearance.SkipPolicy{AreaBound: p.AreaBound},
		r.c.features(names.Botmask),
	)

	g := &Group{Name: GroupOpenComponent, Label: GroupOpenComponent}
	r.c.checker.Sweep(r.c.flatRegions(names.Open), r.botmask, func(_ *region.Region, f *clearance.Feature, d float64) {
		sev := SeverityInfo
		if d < p.DR-clearance.GapTolerance {
			sev = SeverityError
		}
		var m Marker
		if f.IsCircle() {
			m = circleMarker(f.Centroid, geom.Dist(f.Wire.Edges[0].Start, f.Centroid), f.Label, sev)
		} else {
			m = faceMarker(f.Wire, f.Label, sev)
		}
		m.Distance, m.HasDistance = d, true
		g.Markers = append(g.Markers, m)
	})
	r.add(g)
}

// boardGap finds the board around each board sink and checks every board
// edge keeps d_board from the sink.
func (r *run) boardGap() {
	p := r.c.Config.Params
	sinkName := r.c.Config.Layers.BoardSink
	sinks := r.c.Layer(sinkName)

	boards := &Group{Name: GroupBoard, Label: GroupBoard}
	gaps := &Group{
		Name:  GroupBoardGap,
		Label: fmt.Sprintf("[ERROR]Fixture Board Gap Less Than %smm", formatDist(p.DBoard)),
	}
	for _, sink := range sinks.Wires {
		board := firstBoard(r.botmask.Query(geom.Around(sink.Wire.Centroid(), boardSearchSize)), p.AreaBound)
		if board == nil {
			continue
		}
		r.boards = append(r.boards, boardPair{sink: sink, board: board})
		boards.Markers = append(boards.Markers, faceMarker(board.Wire, board.Label, SeverityInfo))
		for _, e := range board.Wire.Edges {
			gap, short := r.c.checker.GapCheck(sink.Wire, kernel.NewWire([]kernel.Edge{e}), p.DBoard)
			if short {
				r.gapMarkers(gaps, gap, sinkName)
			}
		}
	}
	r.add(boards)
	r.add(gaps)
}

// firstBoard returns the first feature larger than areaBound.
func firstBoard(fs []*clearance.Feature, areaBound float64) *clearance.Feature {
	for _, f := range fs {
		if f.Area > areaBound {
			return f
		}
	}
	return nil
}

// samplePoint is a point sampled along a selected layer wire.
type samplePoint struct {
	pos         geom.Point
	layer, wire int
	visited     bool
}

func (s *samplePoint) Position() geom.Point { return s.pos }
func (s *samplePoint) Visited() bool        { return s.visited }
func (s *samplePoint) SetVisited(v bool)    { s.visited = v }

// Compile-time interface check.
var _ quadtree.Item = (*samplePoint)(nil)

// thruThickness checks that every OPEN wire keeps do from the selected
// layer wires around it. Candidate wires are found through points sampled
// every sliceLen along them.
func (r *run) thruThickness() {
	p := r.c.Config.Params
	names := r.c.Config.Layers
	selected := r.c.selectedLayers()

	tree := quadtree.New[*samplePoint](layerBounds(r.c.Layer(names.Botmask)))
	for i, l := range selected {
		for j, w := range l.Wires {
			// two samples at least so wires shorter than sliceLen still
			// leave their start point in the tree
			n := max(int(w.Wire.Length()/sliceLen)+1, 2)
			pts := r.c.Kernel.Discretize(w.Wire, n)
			for k := 0; k < len(pts)-1; k++ {
				tree.Insert(&samplePoint{pos: pts[k], layer: i, wire: j})
			}
		}
	}

	g := &Group{
		Name:  GroupThruThickness,
		Label: fmt.Sprintf("[ERROR]Thru Thickness Less Than %smm", formatDist(p.DO)),
	}
	for _, ow := range r.c.Layer(names.Open).Wires {
		type key struct{ layer, wire int }
		seen := make(map[key]bool)
		var keys []key
		for _, s := range tree.QueryRange(ow.Wire.Bounds().Expand(p.DO)) {
			k := key{s.layer, s.wire}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(a, b int) bool {
			if keys[a].layer != keys[b].layer {
				return keys[a].layer < keys[b].layer
			}
			return keys[a].wire < keys[b].wire
		})
		for _, k := range keys {
			l := selected[k.layer]
			if gap, short := r.c.checker.GapCheck(ow.Wire, l.Wires[k.wire].Wire, p.DO); short {
				r.gapMarkers(g, gap, l.Name)
			}
		}
	}
	r.add(g)
}

// connectGroove measures the neck length and the width to the board of
// every connect groove on the board sinks paired with a board.
func (r *run) connectGroove() {
	p := r.c.Config.Params
	g := &Group{Name: GroupConnectGroove, Label: "[ERROR]Connect Groove Dimension Violation"}
	for _, bp := range r.boards {
		edges := bp.sink.Wire.Edges
		n := len(edges)
		idxes, ccw := findGrooves(r.c.Kernel, bp.sink.Wire)
		for _, i := range idxes {
			neckStart, neckEnd := edges[i].End, edges[(i+grooveSpan)%n].Start
			if geom.Dist(neckStart, neckEnd) < p.DL {
				g.Markers = append(g.Markers, segmentMarker(neckStart, neckEnd, SeverityError))
			}
			tip := edges[(i+4)%n]
			width := pointWireDistance(bp.board.Wire, tip.Start)
			if width < p.DW {
				mid := geom.Mid(tip.Start, tip.End)
				norm := rotate90(tip.Tangent())
				to := geom.Pt(mid.X+ccw*width*norm.X, mid.Y+ccw*width*norm.Y)
				g.Markers = append(g.Markers, segmentMarker(mid, to, SeverityError))
			}
		}
	}
	r.add(g)
}

// ---------------------------------------------------------------------------
// Router and press
// ---------------------------------------------------------------------------

// outermost keeps the wires whose bounds no other wire's bounds contain.
func outermost(wires []region.Labeled) []region.Labeled {
	enclosed := make([]bool, len(wires))
	for i := range wires {
		if enclosed[i] {
			continue
		}
		bi := wires[i].Wire.Bounds()
		for j := range wires {
			if i == j || enclosed[j] {
				continue
			}
			if bi.ContainsBox(wires[j].Wire.Bounds()) {
				enclosed[j] = true
			}
		}
	}
	var out []region.Labeled
	for i, w := range wires {
		if !enclosed[i] {
			out = append(out, w)
		}
	}
	return out
}

// keepable reports whether a candidate takes part in the keep distance
// checks. Holes and vias (one or two edges) and large areas do not.
func keepable(f *clearance.Feature, areaBound float64) bool {
	return f.Edges > 2 && f.Area < areaBound
}

// keepDistance reports the candidates around boundary closer than dist.
func (r *run) keepDistance(g *Group, boundary *kernel.Wire, dist float64) {
	p := r.c.Config.Params
	for _, f := range r.candidates.Query(boundary.Bounds().Expand(dist + keepSearchMargin)) {
		if !keepable(f, p.AreaBound) {
			continue
		}
		if d := r.c.checker.MinDistanceBetween([]*kernel.Wire{boundary}, f.Wire); d < dist {
			m := faceMarker(f.Wire, f.Label, SeverityError)
			m.Distance, m.HasDistance = d, true
			g.Markers = append(g.Markers, m)
		}
	}
}

// stopBlock checks the candidates keep block_keep_dist from the outermost
// stop block outlines.
func (r *run) stopBlock() {
	p := r.c.Config.Params
	r.candidates.ResetVisited()
	g := &Group{
		Name:  GroupStopBlock,
		Label: fmt.Sprintf("[ERROR]Not keep enough dist %s mm with the stop_block", formatDist(p.BlockKeepDist)),
	}
	for _, sb := range outermost(r.c.Layer(r.c.Config.Layers.StopBlock).Wires) {
		r.keepDistance(g, sb.Wire, p.BlockKeepDist)
	}
	r.add(g)
}

// pinRadius returns the largest support pin radius: the vertex distance of
// hexagonal pins or the radius of round ones.
func pinRadius(pins []region.Labeled) (float64, bool) {
	best, ok := -1.0, false
	for _, pin := range pins {
		w := pin.Wire
		var rad float64
		switch {
		case w.EdgeCount() == 6:
			rad = geom.Dist(w.Edges[0].Start, w.Centroid())
		case w.EdgeCount() > 0 && w.Edges[0].Kind == kernel.EdgeArc:
			rad = w.Edges[0].Radius
		default:
			continue
		}
		if rad >= best {
			best, ok = rad, true
		}
	}
	return best, ok
}

// pins checks the candidates keep dist_support from a circle of the pin
// radius around every distinct fixed or support pin center.
func (r *run) pins() {
	p := r.c.Config.Params
	names := r.c.Config.Layers
	g := &Group{
		Name: GroupPinKeep,
		Label: fmt.Sprintf("[ERROR]Not keep enough dist %s mm with the Fixed_Pin and Support_Pin",
			formatDist(p.DistSupport)),
	}
	defer r.add(g)

	support := r.c.Layer(names.SupportPin).Wires
	rad, ok := pinRadius(support)
	if !ok {
		r.c.warn(Warning{Kind: WarnFaceFailed, Layer: names.SupportPin, Message: "no hexagonal or round pin to take the radius from"})
		return
	}

	seen := make(map[geom.Point]bool)
	var centers []geom.Point
	for _, pins := range [][]region.Labeled{support, r.c.Layer(names.FixedPin).Wires} {
		for _, pin := range pins {
			c := geom.Round(pin.Wire.Centroid(), 5)
			if !seen[c] {
				seen[c] = true
				centers = append(centers, c)
			}
		}
	}
	tol := r.c.Config.Stitch.ArcTolerance
	if tol <= 0 {
		tol = geom.DefaultArcTolerance
	}
	for _, c := range centers {
		r.keepDistance(g, kernel.CircleWire(c, rad, tol), p.DistSupport)
	}
}

// pressfit checks that every pressfit pin on the support block sits in a
// grooved selected region, then that the pins keep sb_keep_dist from the
// support block outline.
func (r *run) pressfit() {
	p := r.c.Config.Params
	names := r.c.Config.Layers

	box, onBlock := r.supportBlock()
	var pins []*clearance.Feature
	for _, f := range r.c.features(names.Pressfit) {
		if f.Area >= p.AreaBound || !onBlock || !box.Contains(f.Centroid) {
			continue
		}
		pins = append(pins, f)
	}
	idx := r.c.index(layerBounds(r.c.Layer(names.Pressfit)), clearance.SkipPolicy{}, pins)

	for _, l := range r.c.selectedLayers() {
		r.c.checker.Sweep(r.c.flatRegions(l.Name), idx, nil)
	}
	r.add(&Group{
		Name:    GroupPressfitGrooving,
		Label:   "[ERROR]Pressfit Interference without Grooving",
		Markers: featureMarkers(idx.Unvisited()),
	})

	idx.ResetVisited()
	g := &Group{
		Name: GroupPressfitSupportGap,
		Label: fmt.Sprintf("[ERROR]Pressfit Pins do not keep safe Distance with Support_Block in %smm",
			formatDist(p.SBKeepDist)),
	}
	block := r.c.nestedLayer(names.SupportBlock)
	for _, v := range r.c.checker.CheckAgainstLayers([]*region.Layer{block}, idx, p.SBKeepDist) {
		g.Markers = append(g.Markers, violationMarker(v))
	}
	r.add(g)
}
