// Package clearance checks candidate features against layer regions for
// interference and minimum-distance violations.
//
// Candidates live in a quadtree keyed by their centroid. Each sweep marks
// the candidates it has settled as visited, so a candidate is judged by the
// first region that contains it, and whatever is still unvisited after all
// sweeps is, by construction, outside every region.
package clearance

import (
	"fmt"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/quadtree"
)

// Feature is a closed candidate wire indexed by its centroid.
type Feature struct {
	Wire     *kernel.Wire
	Face     kernel.Face
	Label    string
	Layer    string
	Area     float64
	Edges    int
	Centroid geom.Point

	visited bool
}

// NewFeature builds the face of w and caches the measures used by the
// index and the checks.
func NewFeature(k kernel.Kernel, w *kernel.Wire, label, layer string) (*Feature, error) {
	f, err := k.Face(w)
	if err != nil {
		return nil, fmt.Errorf("clearance: feature %q: %w", label, err)
	}
	return &Feature{
		Wire:     w,
		Face:     f,
		Label:    label,
		Layer:    layer,
		Area:     k.Area(f),
		Edges:    w.EdgeCount(),
		Centroid: w.Centroid(),
	}, nil
}

func (f *Feature) Position() geom.Point { return f.Centroid }
func (f *Feature) Visited() bool        { return f.visited }
func (f *Feature) SetVisited(v bool)    { f.visited = v }

// Compile-time interface check.
var _ quadtree.Item = (*Feature)(nil)

// IsCircle reports whether the feature is bounded by a single edge.
func (f *Feature) IsCircle() bool {
	return f.Edges == 1
}

// SkipPolicy decides which features never take part in a sweep. Skipped
// features are stored already visited.
type SkipPolicy struct {
	SkipCircles bool
	// AreaBound skips features with at least this area. Zero disables it.
	AreaBound float64
}

// Skips reports whether the policy excludes f.
func (p SkipPolicy) Skips(f *Feature) bool {
	if p.SkipCircles && f.IsCircle() {
		return true
	}
	return p.AreaBound > 0 && f.Area >= p.AreaBound
}

// State is the lifecycle of an Index.
type State int

const (
	Idle State = iota
	IndexBuilt
	Scanning
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case IndexBuilt:
		return "index-built"
	case Scanning:
		return "scanning"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Index is a quadtree of candidate features plus the sweep state.
type Index struct {
	tree    *quadtree.Tree[*Feature]
	policy  SkipPolicy
	state   State
	layer   int
	dropped int
}

// NewIndex returns an empty index over bounds.
func NewIndex(bounds geom.Box, policy SkipPolicy) *Index {
	return &Index{tree: quadtree.New[*Feature](bounds), policy: policy}
}

// Add inserts f, marking it visited when the skip policy excludes it. It
// returns false when the centroid lies outside the index bounds.
func (x *Index) Add(f *Feature) bool {
	f.visited = x.policy.Skips(f)
	if !x.tree.Insert(f) {
		x.dropped++
		return false
	}
	if x.state == Idle {
		x.state = IndexBuilt
	}
	return true
}

// Len returns the number of stored features.
func (x *Index) Len() int { return x.tree.Len() }

// Dropped returns how many features fell outside the bounds.
func (x *Index) Dropped() int { return x.dropped }

// Phase returns the current state and, while scanning, the index of the
// layer being swept.
func (x *Index) Phase() (State, int) { return x.state, x.layer }

// Query returns the features whose centroid lies in box.
func (x *Index) Query(box geom.Box) []*Feature { return x.tree.QueryRange(box) }

// Unvisited returns every feature no sweep has settled.
func (x *Index) Unvisited() []*Feature { return x.tree.QueryUnvisited() }

// All returns every stored feature.
func (x *Index) All() []*Feature { return x.tree.All() }

// ResetVisited clears the visited flags, re-applies the skip policy and
// returns the index to IndexBuilt.
func (x *Index) ResetVisited() {
	x.tree.ResetVisited()
	for _, f := range x.tree.All() {
		if x.policy.Skips(f) {
			f.visited = true
		}
	}
	if x.state != Idle {
		x.state = IndexBuilt
	}
	x.layer = 0
}

func (x *Index) beginLayer(i int) {
	x.state = Scanning
	x.layer = i
}

func (x *Index) finish() {
	x.state = Done
}
