// Package region turns closed wires into faces. Wires found inside another
// wire of the same layer become holes of that outer region.
package region

import (
	"fmt"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
)

// Default containment sampling parameters.
const (
	DefaultSamples   = 40
	DefaultInsideTol = 1e-7
)

// Labeled is a closed wire with the label of the entity it came from.
type Labeled struct {
	Wire  *kernel.Wire
	Label string
}

// Region is one outer wire minus the wires it contains.
type Region struct {
	Outer Labeled
	Holes []Labeled
	Face  kernel.Face
}

// Bounds returns the bounding box of the outer wire.
func (r *Region) Bounds() geom.Box {
	return r.Outer.Wire.Bounds()
}

// Boundaries returns the outer wire followed by the hole wires.
func (r *Region) Boundaries() []*kernel.Wire {
	out := make([]*kernel.Wire, 0, 1+len(r.Holes))
	out = append(out, r.Outer.Wire)
	for _, h := range r.Holes {
		out = append(out, h.Wire)
	}
	return out
}

// Warning describes a geometry degeneracy found while building regions.
type Warning struct {
	Label   string
	Message string
	// Ambiguous is set when the wire is only partly inside another one.
	Ambiguous bool
}

// Builder constructs regions with a geometry kernel.
type Builder struct {
	Kernel    kernel.Kernel
	Samples   int
	InsideTol float64
}

// NewBuilder returns a Builder with the default sampling parameters.
func NewBuilder(k kernel.Kernel) *Builder {
	return &Builder{Kernel: k, Samples: DefaultSamples, InsideTol: DefaultInsideTol}
}

// faces builds one kernel face per wire. Wires the kernel rejects get a nil
// face and a warning.
func (b *Builder) faces(wires []Labeled) ([]kernel.Face, []Warning) {
	faces := make([]kernel.Face, len(wires))
	var warns []Warning
	for i, w := range wires {
		f, err := b.Kernel.Face(w.Wire)
		if err != nil {
			warns = append(warns, Warning{
				Label:   w.Label,
				Message: fmt.Sprintf("face construction failed: %v", err),
			})
			continue
		}
		faces[i] = f
	}
	return faces, warns
}

// Flat builds one holeless region per wire without any overlap check.
func (b *Builder) Flat(wires []Labeled) ([]*Region, []Warning) {
	faces, warns := b.faces(wires)
	regions := make([]*Region, 0, len(wires))
	for i, w := range wires {
		if faces[i] == nil {
			continue
		}
		regions = append(regions, &Region{Outer: w, Face: faces[i]})
	}
	return regions, warns
}

// Build nests the wires one level deep. A wire j is a hole of wire i when
// the bounds of i contain the bounds of j and every sample of j is inside
// the face of i. Every contained wire is dropped from the top level, so a
// wire nested two deep is a hole of both of its containers.
func (b *Builder) Build(wires []Labeled) ([]*Region, []Warning) {
	faces, warns := b.faces(wires)
	samples := b.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}

	bounds := make([]geom.Box, len(wires))
	for i, w := range wires {
		bounds[i] = w.Wire.Bounds()
	}

	holes := make([][]int, len(wires))
	contained := make([]bool, len(wires))
	for i := range wires {
		if faces[i] == nil {
			continue
		}
		for j := range wires {
			if i == j || faces[j] == nil || !bounds[i].ContainsBox(bounds[j]) {
				continue
			}
			in, total := b.countInside(faces[i], wires[j].Wire, samples)
			switch {
			case in == total:
				holes[i] = append(holes[i], j)
				contained[j] = true
			case in > 0:
				warns = append(warns, Warning{
					Label: wires[j].Label,
					Message: fmt.Sprintf("ambiguous containment in %q: %d of %d samples inside",
						wires[i].Label, in, total),
					Ambiguous: true,
				})
			}
		}
	}

	var regions []*Region
	for i, w := range wires {
		if faces[i] == nil || contained[i] {
			continue
		}
		r := &Region{Outer: w, Face: faces[i]}
		if len(holes[i]) > 0 {
			cut := make([]kernel.Face, 0, len(holes[i]))
			for _, j := range holes[i] {
				r.Holes = append(r.Holes, wires[j])
				cut = append(cut, faces[j])
			}
			f, err := b.Kernel.Difference(faces[i], cut...)
			if err != nil {
				warns = append(warns, Warning{
					Label:   w.Label,
					Message: fmt.Sprintf("hole subtraction failed: %v", err),
				})
				r.Holes = nil
			} else {
				r.Face = f
			}
		}
		regions = append(regions, r)
	}
	return regions, warns
}

func (b *Builder) countInside(f kernel.Face, w *kernel.Wire, n int) (in, total int) {
	pts := b.Kernel.Discretize(w, n)
	for _, p := range pts {
		if b.Kernel.Inside(f, p, b.InsideTol) {
			in++
		}
	}
	return in, len(pts)
}
