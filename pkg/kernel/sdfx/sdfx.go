// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// ErrOpenWire is returned when a face is requested for an open wire.
var ErrOpenWire = errors.New("sdfx: wire is not closed")

// sdfxFace wraps an sdf.SDF2 to implement kernel.Face. The boundary
// wires are kept for distance queries, which sdfx does not answer with
// witness points.
type sdfxFace struct {
	s      sdf.SDF2
	wires  []*kernel.Wire
	bounds geom.Box
	area   float64
}

// Bounds returns the bounding box of the outer boundary.
func (f *sdfxFace) Bounds() geom.Box {
	return f.bounds
}

// Wires returns the outer boundary followed by the holes.
func (f *sdfxFace) Wires() []*kernel.Wire {
	return f.wires
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the concrete face from a kernel.Face.
func unwrap(f kernel.Face) *sdfxFace {
	return f.(*sdfxFace)
}

func toV2(pts []geom.Point) []v2.Vec {
	out := make([]v2.Vec, len(pts))
	for i, p := range pts {
		out[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

// Face builds a polygon SDF from the discretized ring of a closed wire.
// The ring is normalized to counter-clockwise order first.
func (k *SdfxKernel) Face(w *kernel.Wire) (kernel.Face, error) {
	if !w.Closed {
		return nil, ErrOpenWire
	}
	ring := append([]geom.Point(nil), w.Ring()...)
	if len(ring) < 3 {
		return nil, fmt.Errorf("sdfx: face needs at least 3 vertices, got %d", len(ring))
	}
	if geom.SignedArea(ring) < 0 {
		geom.Reverse(ring)
	}
	s, err := sdf.Polygon2D(toV2(ring))
	if err != nil {
		return nil, fmt.Errorf("sdfx: polygon: %w", err)
	}
	return &sdfxFace{
		s:      s,
		wires:  []*kernel.Wire{w},
		bounds: w.Bounds(),
		area:   geom.Area(ring),
	}, nil
}

// Difference returns outer minus the union of holes. Holes are expected
// to lie inside outer; their area is subtracted as is.
func (k *SdfxKernel) Difference(outer kernel.Face, holes ...kernel.Face) (kernel.Face, error) {
	o := unwrap(outer)
	if len(holes) == 0 {
		return o, nil
	}
	cut := make([]sdf.SDF2, 0, len(holes))
	wires := append([]*kernel.Wire(nil), o.wires...)
	area := o.area
	for _, h := range holes {
		hf := unwrap(h)
		cut = append(cut, hf.s)
		// Only the hole's outer boundary bounds the remaining material.
		wires = append(wires, hf.wires[0])
		area -= hf.area
	}
	var tool sdf.SDF2
	if len(cut) == 1 {
		tool = cut[0]
	} else {
		tool = sdf.Union2D(cut...)
	}
	return &sdfxFace{
		s:      sdf.Difference2D(o.s, tool),
		wires:  wires,
		bounds: o.bounds,
		area:   area,
	}, nil
}

// Inside evaluates the signed distance at p. The SDF is negative inside,
// so points up to tol outside the boundary still count.
func (k *SdfxKernel) Inside(f kernel.Face, p geom.Point, tol float64) bool {
	return unwrap(f).s.Evaluate(v2.Vec{X: p.X, Y: p.Y}) <= tol
}

// Discretize samples n points evenly along the wire.
func (k *SdfxKernel) Discretize(w *kernel.Wire, n int) []geom.Point {
	return w.Sample(n)
}

// Distance returns the nearest points between the discretized wires.
func (k *SdfxKernel) Distance(a, b *kernel.Wire) kernel.Proximity {
	return kernel.NearestPoints(a, b)
}

// Area returns the face area with holes subtracted.
func (k *SdfxKernel) Area(f kernel.Face) float64 {
	return unwrap(f).area
}
