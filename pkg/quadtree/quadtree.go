// Package quadtree implements the point index used by the clearance sweeps
// and by ray bridging of open silkscreen strokes.
//
// Capacity is lazy and non-retroactive: a node keeps appending while it
// holds at most MaxPointsPerNode items, so it ends up holding one more than
// that before the next insert is routed into a child. Items already stored
// in a node are never moved down when the node subdivides. Query results
// depend on this layout, so it is kept as is.
package quadtree

import "github.com/chazu/fixturedrc/pkg/geom"

// MaxPointsPerNode is the node capacity threshold.
const MaxPointsPerNode = 4

// Quadrant indices of a node's children.
const (
	BottomLeft = iota
	BottomRight
	TopLeft
	TopRight
)

// Item is anything with a fixed position and a visited flag.
type Item interface {
	Position() geom.Point
	Visited() bool
	SetVisited(v bool)
}

type node[T Item] struct {
	bounds   geom.Box
	items    []T
	children [4]*node[T]
	depth    int
}

// Tree is a point quadtree over a fixed extent. It is not safe for
// concurrent use.
type Tree[T Item] struct {
	root *node[T]
	size int
}

// New returns an empty tree covering bounds. The extent never changes.
func New[T Item](bounds geom.Box) *Tree[T] {
	return &Tree[T]{root: &node[T]{bounds: bounds}}
}

// Bounds returns the extent of the tree.
func (t *Tree[T]) Bounds() geom.Box {
	return t.root.bounds
}

// Len returns the number of stored items.
func (t *Tree[T]) Len() int {
	return t.size
}

// Insert stores it. It returns false, without storing anything, when the
// item's position lies outside the tree's bounds.
func (t *Tree[T]) Insert(it T) bool {
	if !t.root.insert(it, it.Position()) {
		return false
	}
	t.size++
	return true
}

func (n *node[T]) insert(it T, p geom.Point) bool {
	if !n.bounds.Contains(p) {
		return false
	}
	if len(n.items) <= MaxPointsPerNode {
		n.items = append(n.items, it)
		return true
	}
	if n.children[0] == nil {
		n.subdivide()
	}
	return n.children[n.quadrant(p)].insert(it, p)
}

func (n *node[T]) subdivide() {
	mid := n.bounds.Center()
	lo, hi := n.bounds.Min, n.bounds.Max
	d := n.depth + 1
	n.children[BottomLeft] = &node[T]{bounds: geom.NewBox(lo.X, lo.Y, mid.X, mid.Y), depth: d}
	n.children[BottomRight] = &node[T]{bounds: geom.NewBox(mid.X, lo.Y, hi.X, mid.Y), depth: d}
	n.children[TopLeft] = &node[T]{bounds: geom.NewBox(lo.X, mid.Y, mid.X, hi.Y), depth: d}
	n.children[TopRight] = &node[T]{bounds: geom.NewBox(mid.X, mid.Y, hi.X, hi.Y), depth: d}
}

// quadrant picks the child for p. The midpoint belongs to the lower and
// left quadrants.
func (n *node[T]) quadrant(p geom.Point) int {
	mid := n.bounds.Center()
	if p.X <= mid.X {
		if p.Y <= mid.Y {
			return BottomLeft
		}
		return TopLeft
	}
	if p.Y <= mid.Y {
		return BottomRight
	}
	return TopRight
}

// QueryRange returns the items whose position lies inside box, bounds
// inclusive. Items come out node first, then children in quadrant order.
func (t *Tree[T]) QueryRange(box geom.Box) []T {
	var out []T
	t.root.queryRange(box, &out)
	return out
}

func (n *node[T]) queryRange(box geom.Box, out *[]T) {
	if n == nil || !n.bounds.Intersects(box) {
		return
	}
	for _, it := range n.items {
		if box.Contains(it.Position()) {
			*out = append(*out, it)
		}
	}
	for _, c := range n.children {
		c.queryRange(box, out)
	}
}

// QueryUnvisited returns every item whose visited flag is clear.
func (t *Tree[T]) QueryUnvisited() []T {
	var out []T
	t.root.walk(func(it T) {
		if !it.Visited() {
			out = append(out, it)
		}
	})
	return out
}

// ResetVisited clears the visited flag of every item. A sweep that reuses
// the tree after another sweep must call it first.
func (t *Tree[T]) ResetVisited() {
	t.root.walk(func(it T) { it.SetVisited(false) })
}

// All returns every item in traversal order.
func (t *Tree[T]) All() []T {
	out := make([]T, 0, t.size)
	t.root.walk(func(it T) { out = append(out, it) })
	return out
}

// Depth returns the depth of the deepest node.
func (t *Tree[T]) Depth() int {
	deepest := 0
	var visit func(n *node[T])
	visit = func(n *node[T]) {
		if n == nil {
			return
		}
		if n.depth > deepest {
			deepest = n.depth
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(t.root)
	return deepest
}

func (n *node[T]) walk(fn func(T)) {
	if n == nil {
		return
	}
	for _, it := range n.items {
		fn(it)
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}
