package clearance

import (
	"math"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/region"
	"github.com/google/uuid"
)

// GapTolerance is subtracted from the required gap before comparing.
const GapTolerance = 1e-5

// Violation is one candidate that broke a rule. Containment-only findings
// carry no distance.
type Violation struct {
	ID          uuid.UUID
	Feature     *Feature
	Label       string
	Distance    float64
	HasDistance bool
}

// NewViolation records f, with a distance when d is not NaN.
func NewViolation(f *Feature, d float64) Violation {
	v := Violation{ID: uuid.New(), Feature: f, Label: f.Label}
	if !math.IsNaN(d) {
		v.Distance = d
		v.HasDistance = true
	}
	return v
}

// Checker sweeps layer regions over a candidate index.
type Checker struct {
	Kernel kernel.Kernel
}

// NewChecker returns a Checker backed by k.
func NewChecker(k kernel.Kernel) *Checker {
	return &Checker{Kernel: k}
}

// CheckAgainstLayers visits every candidate whose centroid falls inside a
// region of the layers, in layer order. A candidate inside a region is
// marked visited and reported when its distance to the region boundary is
// below minDistance. Candidates outside every region stay unvisited.
func (c *Checker) CheckAgainstLayers(layers []*region.Layer, idx *Index, minDistance float64) []Violation {
	var out []Violation
	for i, l := range layers {
		idx.beginLayer(i)
		out = append(out, c.CheckRegions(l.Regions, idx, minDistance)...)
	}
	idx.finish()
	return out
}

// CheckRegions runs one sweep over the given regions.
func (c *Checker) CheckRegions(regions []*region.Region, idx *Index, minDistance float64) []Violation {
	var out []Violation
	c.Sweep(regions, idx, func(_ *region.Region, f *Feature, d float64) {
		if d < minDistance {
			out = append(out, NewViolation(f, d))
		}
	})
	return out
}

// Visit receives each candidate a sweep settles together with its distance
// to the boundary of the region containing it.
type Visit func(r *region.Region, f *Feature, dist float64)

// Sweep settles every unvisited candidate whose centroid lies inside one of
// the regions. Candidates outside all of them are left untouched. A nil
// visit only marks candidates and skips the distance computation.
func (c *Checker) Sweep(regions []*region.Region, idx *Index, visit Visit) {
	for _, r := range regions {
		for _, f := range idx.Query(r.Bounds()) {
			if f.Visited() {
				continue
			}
			if !c.Kernel.Inside(r.Face, f.Centroid, 0) {
				continue
			}
			f.SetVisited(true)
			if visit != nil {
				visit(r, f, c.MinDistanceBetween(r.Boundaries(), f.Wire))
			}
		}
	}
}

// MinDistanceBetween returns the smallest distance from w to any of the
// boundary wires.
func (c *Checker) MinDistanceBetween(boundaries []*kernel.Wire, w *kernel.Wire) float64 {
	best := math.Inf(1)
	for _, b := range boundaries {
		if d := c.Kernel.Distance(b, w).Dist; d < best {
			best = d
		}
	}
	return best
}

// Circle is a violation marker.
type Circle struct {
	Center geom.Point
	Radius float64
}

// Gap is the result of a failed GapCheck.
type Gap struct {
	Dist    float64
	Pairs   [][2]geom.Point
	Markers []Circle
}

// GapCheck measures the distance between a and b. When it is below
// required (less GapTolerance) it returns the distinct witness pairs,
// rounded to 5 decimals, each with a circle spanning the pair.
func (c *Checker) GapCheck(a, b *kernel.Wire, required float64) (Gap, bool) {
	p := c.Kernel.Distance(a, b)
	if !(p.Dist < required-GapTolerance) {
		return Gap{Dist: p.Dist}, false
	}
	g := Gap{Dist: p.Dist}
	seen := make(map[[2]geom.Point]bool, len(p.Pairs))
	for _, pair := range p.Pairs {
		key := [2]geom.Point{geom.Round(pair[0], 5), geom.Round(pair[1], 5)}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.Pairs = append(g.Pairs, key)
		g.Markers = append(g.Markers, Circle{
			Center: geom.Mid(key[0], key[1]),
			Radius: geom.Dist(key[0], key[1]) / 2,
		})
	}
	return g, true
}
