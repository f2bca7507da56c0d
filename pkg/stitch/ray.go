package stitch

import (
	"math"
	"sort"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// rayEps offsets the search box from its origin and is the collinearity
// threshold for accepted dots.
const rayEps = 1e-8

// dot is an endpoint of an open chain, pointing outward along the chain's
// end tangent.
type dot struct {
	pos       geom.Point
	dir       geom.Point
	atEnd     bool
	chain     int
	paired    *dot
	connected bool
}

func (d *dot) Position() geom.Point { return d.pos }
func (d *dot) Visited() bool        { return d.connected }
func (d *dot) SetVisited(v bool)    { d.connected = v }

// Compile-time interface check.
var _ quadtree.Item = (*dot)(nil)

// rayBox returns the search box along dir from origin. Axis-aligned rays
// get a thin pad across the ray so the box is never empty.
func rayBox(origin, dir geom.Point, length float64) geom.Box {
	b := geom.BoundsOf(
		r2.Add(origin, r2.Scale(rayEps, dir)),
		r2.Add(origin, r2.Scale(length, dir)),
	)
	pad := 0.5 * rayEps
	switch {
	case dir.Y == 0:
		b.Min.Y -= pad
		b.Max.Y += pad
	case dir.X == 0:
		b.Min.X -= pad
		b.Max.X += pad
	}
	return b
}

// findAlongRay returns the nearest unconnected dot lying on the ray from
// d, or nil.
func findAlongRay(d *dot, tree *quadtree.Tree[*dot], length float64) *dot {
	found := tree.QueryRange(rayBox(d.pos, d.dir, length))
	if len(found) == 0 {
		return nil
	}
	sort.SliceStable(found, func(i, j int) bool {
		return r2.Dot(r2.Sub(found[i].pos, d.pos), d.dir) < r2.Dot(r2.Sub(found[j].pos, d.pos), d.dir)
	})
	// Line through d along dir: a*x + b*y + c = 0.
	a, b := -d.dir.Y, d.dir.X
	c := -a*d.pos.X - b*d.pos.Y
	for _, f := range found {
		if f.pos == d.pos {
			continue
		}
		if math.Abs(a*f.pos.X+b*f.pos.Y+c) < rayEps && !f.connected {
			return f
		}
	}
	return nil
}

// endTangent returns the unit vector from the vertex next to an endpoint
// of path towards that endpoint. Vertices coincident with the endpoint are
// skipped.
func endTangent(path []geom.Point, atEnd bool, tol float64) (geom.Point, bool) {
	n := len(path)
	for i := 1; i < n; i++ {
		p, q := path[i], path[0]
		if atEnd {
			p, q = path[n-1-i], path[n-1]
		}
		if !geom.Close(p, q, tol) {
			return geom.Direction(p, q), true
		}
	}
	return geom.Point{}, false
}

// BridgeOpenChains closes loops of open chains whose end tangents point at
// each other, inserting straight bridge lines across the gaps. It returns
// the closed chains built and the open chains left untouched.
func BridgeOpenChains(open []*Chain, opts Options) (closed, rest []*Chain) {
	opts = opts.withDefaults()

	paths := make([][]geom.Point, len(open))
	bounds := geom.EmptyBox()
	for i, c := range open {
		paths[i] = c.Polyline().Vertices
		for _, v := range paths[i] {
			bounds = bounds.Add(v)
		}
	}
	if bounds.IsEmpty() {
		return nil, open
	}
	tree := quadtree.New[*dot](bounds)
	for i, c := range open {
		v := paths[i]
		if len(v) < 2 || geom.Close(c.Start(), c.End(), opts.Tol) {
			continue
		}
		startDir, ok1 := endTangent(v, false, opts.Tol)
		endDir, ok2 := endTangent(v, true, opts.Tol)
		if !ok1 || !ok2 {
			continue
		}
		start := &dot{pos: v[0], dir: startDir, chain: i}
		end := &dot{pos: v[len(v)-1], dir: endDir, atEnd: true, chain: i}
		start.paired, end.paired = end, start
		tree.Insert(end)
		tree.Insert(start)
	}

	used := make([]bool, len(open))
	for _, first := range tree.All() {
		if first.connected {
			continue
		}
		var links []Link
		var record []*dot
		cur := first
		next := findAlongRay(cur, tree, opts.RaySearchLength)
		for i := 0; next != nil; i++ {
			if i > opts.MaxJoins {
				break
			}
			c := open[cur.chain]
			if !cur.atEnd {
				c = c.Reversed()
			}
			links = append(links, c.Links...)
			bridge := MustFragment(Line{From: cur.pos, To: next.pos}, "")
			bridge.State = Joined
			links = append(links, Link{Fragment: bridge})
			record = append(record, cur, next)
			if next.paired == first {
				for _, d := range record {
					d.connected = true
					used[d.chain] = true
				}
				closed = append(closed, &Chain{Links: links})
				break
			}
			cur = next.paired
			next = findAlongRay(cur, tree, opts.RaySearchLength)
		}
	}

	for i, c := range open {
		if !used[i] {
			rest = append(rest, c)
		}
	}
	return closed, rest
}
