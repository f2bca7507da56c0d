package kernel

import (
	"math"

	"github.com/chazu/fixturedrc/pkg/geom"
)

// witnessTol groups segment pairs whose distance ties with the minimum.
const witnessTol = 1e-9

// NearestPoints computes the minimum distance between the discretized
// paths of two wires, together with every witness pair at that distance.
// Segment pairs whose bounding boxes are already farther apart than the
// best distance found are skipped.
func NearestPoints(a, b *Wire) Proximity {
	pa, pb := a.Path(), b.Path()
	res := Proximity{Dist: math.Inf(1)}
	if len(pa) == 0 || len(pb) == 0 {
		return res
	}
	if len(pa) == 1 {
		pa = []geom.Point{pa[0], pa[0]}
	}
	if len(pb) == 1 {
		pb = []geom.Point{pb[0], pb[0]}
	}

	boxes := make([]geom.Box, len(pb)-1)
	for j := 1; j < len(pb); j++ {
		boxes[j-1] = geom.BoundsOf(pb[j-1], pb[j])
	}

	for i := 1; i < len(pa); i++ {
		sa := geom.BoundsOf(pa[i-1], pa[i])
		for j := 1; j < len(pb); j++ {
			if boxGap(sa, boxes[j-1]) > res.Dist+witnessTol {
				continue
			}
			d, wa, wb := geom.SegmentDistance(pa[i-1], pa[i], pb[j-1], pb[j])
			switch {
			case d < res.Dist-witnessTol:
				res.Dist = d
				res.Pairs = append(res.Pairs[:0], [2]geom.Point{wa, wb})
			case d <= res.Dist+witnessTol:
				res.Pairs = append(res.Pairs, [2]geom.Point{wa, wb})
				res.Dist = math.Min(res.Dist, d)
			}
		}
	}
	return res
}

// boxGap returns the distance between two boxes, zero when they overlap.
func boxGap(a, b geom.Box) float64 {
	dx := math.Max(0, math.Max(a.Min.X-b.Max.X, b.Min.X-a.Max.X))
	dy := math.Max(0, math.Max(a.Min.Y-b.Max.Y, b.Min.Y-a.Max.Y))
	return math.Hypot(dx, dy)
}
