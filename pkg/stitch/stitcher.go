package stitch

import (
	"fmt"

	"github.com/chazu/fixturedrc/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMaxJoins caps how many fragments one chain may absorb.
const DefaultMaxJoins = 20

// DefaultRaySearchLength is how far bridging looks along an end tangent.
const DefaultRaySearchLength = 30.0

// Options controls stitching and bridging.
type Options struct {
	// MaxJoins caps the joins of a single chain, both directions counted.
	MaxJoins int
	// Tol is the endpoint coincidence tolerance.
	Tol float64
	// RaySearchLength bounds the bridging search along a tangent.
	RaySearchLength float64
}

// DefaultOptions returns the stitching defaults.
func DefaultOptions() Options {
	return Options{
		MaxJoins:        DefaultMaxJoins,
		Tol:             geom.CoincidenceTol,
		RaySearchLength: DefaultRaySearchLength,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxJoins <= 0 {
		o.MaxJoins = d.MaxJoins
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	if o.RaySearchLength <= 0 {
		o.RaySearchLength = d.RaySearchLength
	}
	return o
}

// Warning records a degeneracy met while stitching. Warnings never stop
// the stitcher.
type Warning struct {
	At      geom.Point
	Message string
}

// Result is the outcome of StitchAll, chains in creation order.
type Result struct {
	Closed   []*Chain
	Open     []*Chain
	Warnings []Warning
}

// StitchAll joins the fragments into chains. Every fragment ends up in
// exactly one chain and in state Joined. Fragment state from earlier calls
// is respected: only Unjoined fragments start or extend chains.
func StitchAll(frags []*Fragment, opts Options) Result {
	opts = opts.withDefaults()
	s := &stitcher{bvh: newBVH(frags, opts.Tol), opts: opts}

	var res Result
	for _, f := range frags {
		if f.State != Unjoined {
			continue
		}
		c, w := s.stitchFrom(f)
		if w != nil {
			res.Warnings = append(res.Warnings, *w)
		}
		if c.IsClosed() {
			res.Closed = append(res.Closed, c)
		} else {
			res.Open = append(res.Open, c)
		}
	}
	return res
}

type stitcher struct {
	bvh  *bvh
	opts Options
}

func (s *stitcher) commit(f *Fragment, reversed bool) Link {
	f.State = Joined
	f.Reversed = reversed
	return Link{Fragment: f, Reversed: reversed}
}

// stitchFrom grows a chain from first, forward then backward.
func (s *stitcher) stitchFrom(first *Fragment) (*Chain, *Warning) {
	links := []Link{s.commit(first, false)}
	if first.IsClosed() {
		return &Chain{Links: links}, nil
	}

	joins := 0
	capped := false
	closed := false
	for {
		tail := links[len(links)-1]
		cand, rev := s.bvh.findNext(tail.Fragment, tail.Reversed)
		if cand == nil {
			break
		}
		if joins >= s.opts.MaxJoins {
			capped = true
			break
		}
		if s.suspicious(links, cand, rev) {
			cand.State = Provisional
			alt, altRev := s.bvh.findNext(tail.Fragment, tail.Reversed)
			cand.State = Unjoined
			if alt != nil {
				cand, rev = alt, altRev
			}
		}
		links = append(links, s.commit(cand, rev))
		joins++
		if geom.Close(cand.EffectiveEnd(rev), first.Start(), s.opts.Tol) {
			closed = true
			break
		}
	}

	if !closed && !capped {
		var prefix []Link
		head := links[0]
		for {
			cand, rev := s.bvh.findPrevious(head.Fragment, head.Reversed)
			if cand == nil {
				break
			}
			if joins >= s.opts.MaxJoins {
				capped = true
				break
			}
			head = s.commit(cand, rev)
			prefix = append(prefix, head)
			joins++
		}
		if len(prefix) > 0 {
			out := make([]Link, 0, len(prefix)+len(links))
			for i := len(prefix) - 1; i >= 0; i-- {
				out = append(out, prefix[i])
			}
			links = append(out, links...)
		}
	}

	c := &Chain{Links: links}
	if capped {
		return c, &Warning{
			At:      c.End(),
			Message: fmt.Sprintf("chain stopped after %d joins without closing", s.opts.MaxJoins),
		}
	}
	return c, nil
}

// suspicious runs the turn check for a candidate about to be appended. A
// candidate that bends the chain back across itself returns true. A lone
// seed is measured along its chord from stored start to stored end, even
// when it is a multi-vertex polyline.
func (s *stitcher) suspicious(links []Link, cand *Fragment, rev bool) bool {
	candEnd := cand.EffectiveEnd(rev)
	if len(links) == 1 {
		f := links[0].Fragment
		b := f.turnBulge()
		if b == 0 {
			return false
		}
		v0, v1 := f.Start(), f.End()
		return b*r2.Cross(r2.Sub(v1, v0), r2.Sub(candEnd, v1)) <= 0
	}
	prev := links[len(links)-2]
	tail := links[len(links)-1].Fragment
	a, b := tail.Start(), tail.End()
	return geom.PointLineSide(a, b, prev.Start())*geom.PointLineSide(a, b, candEnd) <= 0
}
