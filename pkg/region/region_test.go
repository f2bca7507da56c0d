package region

import (
	"math"
	"testing"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/chazu/fixturedrc/pkg/kernel"
	"github.com/chazu/fixturedrc/pkg/kernel/sdfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, size float64, label string) Labeled {
	return Labeled{
		Wire: kernel.PolygonWire([]geom.Point{
			geom.Pt(x0, y0), geom.Pt(x0+size, y0), geom.Pt(x0+size, y0+size), geom.Pt(x0, y0+size),
		}),
		Label: label,
	}
}

func TestBuildNesting(t *testing.T) {
	b := NewBuilder(sdfx.New())

	t.Run("outer with inner", func(t *testing.T) {
		regions, warns := b.Build([]Labeled{square(0, 0, 10, "outer"), square(3, 3, 2, "inner")})
		assert.Empty(t, warns)
		require.Len(t, regions, 1)
		r := regions[0]
		assert.Equal(t, "outer", r.Outer.Label)
		require.Len(t, r.Holes, 1)
		assert.Equal(t, "inner", r.Holes[0].Label)
		assert.Len(t, r.Boundaries(), 2)
		assert.False(t, b.Kernel.Inside(r.Face, geom.Pt(4, 4), 0))
		assert.True(t, b.Kernel.Inside(r.Face, geom.Pt(1, 1), 0))
		assert.InDelta(t, 96, b.Kernel.Area(r.Face), 1e-9)
	})

	t.Run("inner listed first", func(t *testing.T) {
		regions, _ := b.Build([]Labeled{square(3, 3, 2, "inner"), square(0, 0, 10, "outer")})
		require.Len(t, regions, 1)
		assert.Equal(t, "outer", regions[0].Outer.Label)
	})

	t.Run("disjoint squares", func(t *testing.T) {
		regions, warns := b.Build([]Labeled{square(0, 0, 10, "a"), square(20, 0, 10, "b")})
		assert.Empty(t, warns)
		require.Len(t, regions, 2)
		for _, r := range regions {
			assert.Empty(t, r.Holes)
		}
	})

	t.Run("three levels", func(t *testing.T) {
		regions, _ := b.Build([]Labeled{
			square(0, 0, 30, "outer"),
			square(5, 5, 20, "middle"),
			square(10, 10, 5, "inner"),
		})
		require.Len(t, regions, 1)
		assert.Len(t, regions[0].Holes, 2)
	})
}

func TestBuildAmbiguousContainment(t *testing.T) {
	b := NewBuilder(sdfx.New())
	// An L-shaped outer whose bounding box contains the probe square while
	// only part of the square lies inside the L.
	l := Labeled{
		Wire: kernel.PolygonWire([]geom.Point{
			geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 2), geom.Pt(2, 2), geom.Pt(2, 10), geom.Pt(0, 10),
		}),
		Label: "L",
	}
	regions, warns := b.Build([]Labeled{l, square(1, 1, 4, "probe")})
	assert.Len(t, regions, 2)
	require.Len(t, warns, 1)
	assert.Equal(t, "probe", warns[0].Label)
	assert.Contains(t, warns[0].Message, "ambiguous")
	assert.True(t, warns[0].Ambiguous)
}

func TestFlatIgnoresNesting(t *testing.T) {
	b := NewBuilder(sdfx.New())
	regions, warns := b.Flat([]Labeled{square(0, 0, 10, "outer"), square(3, 3, 2, "inner")})
	assert.Empty(t, warns)
	require.Len(t, regions, 2)
	assert.True(t, b.Kernel.Inside(regions[0].Face, geom.Pt(4, 4), 0))
}

func TestDegenerateWireWarns(t *testing.T) {
	b := NewBuilder(sdfx.New())
	open := Labeled{Wire: kernel.PathWire([]geom.Point{geom.Pt(0, 0), geom.Pt(1, 0)}), Label: "stub"}
	regions, warns := b.Build([]Labeled{square(0, 0, 10, "ok"), open})
	assert.Len(t, regions, 1)
	require.Len(t, warns, 1)
	assert.Equal(t, "stub", warns[0].Label)
}

func TestParseDepth(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"GROOVE_2.5MM", 2.5},
		{"pocket12", 12},
		{"layer 3. deep", 3},
		{"open", math.Inf(1)},
		{"thru_cut", math.Inf(1)},
		{"through-hole", math.Inf(1)},
		{"top_silk", 0},
		{"OPEN", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDepth(tt.name))
		})
	}
}

func TestSortByDepth(t *testing.T) {
	layers := []*Layer{
		NewLayer("top"),
		NewLayer("depth1"),
		NewLayer("thru"),
		NewLayer("other"),
		NewLayer("depth3.5"),
	}
	SortByDepth(layers)
	var names []string
	for _, l := range layers {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"thru", "depth3.5", "depth1", "top", "other"}, names)
}
