package stitch

import (
	"sort"

	"github.com/chazu/fixturedrc/pkg/geom"
)

// bvhNode is a node of the static bounds hierarchy. Leaves hold exactly one
// fragment; interior nodes hold the union bounds of their subtree.
type bvhNode struct {
	left, right *bvhNode
	frag        *Fragment
	bounds      geom.Box
}

// bvh answers endpoint adjacency queries over one working set.
type bvh struct {
	root *bvhNode
	tol  float64
}

func newBVH(frags []*Fragment, tol float64) *bvh {
	b := &bvh{tol: tol}
	if len(frags) > 0 {
		b.root = buildBVH(append([]*Fragment(nil), frags...))
	}
	return b
}

// buildBVH splits at the median of the fragments sorted by bounds center
// along the wider axis of the center bounds.
func buildBVH(frags []*Fragment) *bvhNode {
	switch len(frags) {
	case 1:
		return &bvhNode{frag: frags[0], bounds: frags[0].Bounds()}
	case 2:
		l := &bvhNode{frag: frags[0], bounds: frags[0].Bounds()}
		r := &bvhNode{frag: frags[1], bounds: frags[1].Bounds()}
		return &bvhNode{left: l, right: r, bounds: l.bounds.Union(r.bounds)}
	}

	centers := geom.EmptyBox()
	for _, f := range frags {
		centers = centers.Add(f.Bounds().Center())
	}
	if centers.Width() > centers.Height() {
		sort.SliceStable(frags, func(i, j int) bool {
			return frags[i].Bounds().Center().X < frags[j].Bounds().Center().X
		})
	} else {
		sort.SliceStable(frags, func(i, j int) bool {
			return frags[i].Bounds().Center().Y < frags[j].Bounds().Center().Y
		})
	}

	median := (len(frags) + 1) / 2
	n := &bvhNode{
		left:  buildBVH(frags[:median]),
		right: buildBVH(frags[median:]),
	}
	n.bounds = n.left.bounds.Union(n.right.bounds)
	return n
}

// matchFunc inspects a leaf fragment and reports whether it connects,
// and in which direction.
type matchFunc func(cand *Fragment) (reversed, ok bool)

// find descends into every child whose tolerance-expanded bounds contain
// p, left first, and returns the first leaf accepted by match.
func (b *bvh) find(n *bvhNode, p geom.Point, match matchFunc) (*Fragment, bool) {
	if n == nil {
		return nil, false
	}
	if n.frag != nil {
		if rev, ok := match(n.frag); ok {
			return n.frag, rev
		}
		return nil, false
	}
	if n.left.bounds.Expand(b.tol).Contains(p) {
		if f, rev := b.find(n.left, p, match); f != nil {
			return f, rev
		}
	}
	if n.right.bounds.Expand(b.tol).Contains(p) {
		return b.find(n.right, p, match)
	}
	return nil, false
}

// findNext returns an unjoined fragment whose start or end coincides with
// the effective end of tail. It does not change any fragment state.
func (b *bvh) findNext(tail *Fragment, tailReversed bool) (*Fragment, bool) {
	end := tail.EffectiveEnd(tailReversed)
	other := tail.EffectiveStart(tailReversed)
	return b.find(b.root, end, func(c *Fragment) (bool, bool) {
		if c == tail || c.State != Unjoined {
			return false, false
		}
		switch {
		case geom.Close(c.Start(), end, b.tol):
			if geom.Close(c.End(), other, b.tol) && degenerateLoop(tail, c) {
				return false, false
			}
			return false, true
		case geom.Close(c.End(), end, b.tol):
			if geom.Close(c.Start(), other, b.tol) && degenerateLoop(tail, c) {
				return false, false
			}
			return true, true
		}
		return false, false
	})
}

// findPrevious returns an unjoined fragment whose end or start coincides
// with the effective start of head.
func (b *bvh) findPrevious(head *Fragment, headReversed bool) (*Fragment, bool) {
	start := head.EffectiveStart(headReversed)
	other := head.EffectiveEnd(headReversed)
	return b.find(b.root, start, func(c *Fragment) (bool, bool) {
		if c == head || c.State != Unjoined {
			return false, false
		}
		switch {
		case geom.Close(c.End(), start, b.tol):
			if geom.Close(c.Start(), other, b.tol) && degenerateLoop(head, c) {
				return false, false
			}
			return false, true
		case geom.Close(c.Start(), start, b.tol):
			if geom.Close(c.End(), other, b.tol) && degenerateLoop(head, c) {
				return false, false
			}
			return true, true
		}
		return false, false
	})
}

// degenerateLoop reports whether two fragments that meet at both ends
// would enclose nothing: both are straight and the loop has zero area.
func degenerateLoop(a, b *Fragment) bool {
	if !a.LineLike() || !b.LineLike() {
		return false
	}
	ring := append([]geom.Point(nil), a.vertices()...)
	bv := append([]geom.Point(nil), b.vertices()...)
	// b runs from a's end back to a's start when it closes the loop.
	if geom.Close(bv[0], a.Start(), geom.ClosureTol) {
		geom.Reverse(bv)
	}
	ring = append(ring, bv[1:len(bv)-1]...)
	return geom.Area(ring) < 1e-9
}
