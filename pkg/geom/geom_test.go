package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxOps(t *testing.T) {
	b := NewBox(10, 10, 0, 0)
	assert.Equal(t, Pt(0, 0), b.Min)
	assert.Equal(t, Pt(10, 10), b.Max)

	assert.True(t, b.Contains(Pt(0, 5)), "edges are inclusive")
	assert.False(t, b.Contains(Pt(-0.1, 5)))
	assert.True(t, b.ContainsBox(NewBox(1, 1, 9, 9)))
	assert.False(t, b.ContainsBox(NewBox(1, 1, 11, 9)))
	assert.True(t, b.Intersects(NewBox(10, 10, 20, 20)), "touching corners intersect")
	assert.False(t, b.Intersects(NewBox(10.5, 0, 20, 20)))

	e := EmptyBox()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, b, e.Union(b))
	assert.Equal(t, b, BoundsOf(Pt(0, 10), Pt(10, 0)))
	assert.Equal(t, NewBox(-1, -1, 11, 11), b.Expand(1))
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d Point
		want       float64
	}{
		{"parallel", Pt(0, 0), Pt(10, 0), Pt(0, 2), Pt(10, 2), 2},
		{"crossing", Pt(0, 0), Pt(10, 10), Pt(0, 10), Pt(10, 0), 0},
		{"endpoint to interior", Pt(0, 0), Pt(10, 0), Pt(5, 3), Pt(5, 8), 3},
		{"disjoint ends", Pt(0, 0), Pt(1, 0), Pt(4, 4), Pt(5, 4), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pa, pb := SegmentDistance(tt.a, tt.b, tt.c, tt.d)
			assert.InDelta(t, tt.want, d, 1e-12)
			assert.InDelta(t, d, Dist(pa, pb), 1e-12)
		})
	}
}

func TestArcFromBulge(t *testing.T) {
	// Quarter circle of the unit circle, counter-clockwise.
	c, r, start, sweep := ArcFromBulge(Pt(1, 0), Pt(0, 1), BulgeFromSweep(math.Pi/2))
	assert.InDelta(t, 0, c.X, 1e-12)
	assert.InDelta(t, 0, c.Y, 1e-12)
	assert.InDelta(t, 1, r, 1e-12)
	assert.InDelta(t, 0, start, 1e-12)
	assert.InDelta(t, math.Pi/2, sweep, 1e-12)

	// Semicircle: bulge 1 puts the center on the chord midpoint.
	c, r, _, _ = ArcFromBulge(Pt(0, 0), Pt(2, 0), 1)
	assert.InDelta(t, 1, c.X, 1e-12)
	assert.InDelta(t, 0, c.Y, 1e-12)
	assert.InDelta(t, 1, r, 1e-12)
}

func TestSampleBulgeKeepsEndpoints(t *testing.T) {
	pts := SampleBulge(Pt(0, 0), Pt(2, 0), -1, DefaultArcTolerance)
	require.Greater(t, len(pts), 2)
	assert.Equal(t, Pt(0, 0), pts[0])
	assert.Equal(t, Pt(2, 0), pts[len(pts)-1])
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.Y, -1e-12, "negative bulge turns clockwise, above a chord run along +x")
	}
}

func TestArcSegments(t *testing.T) {
	assert.GreaterOrEqual(t, ArcSegments(1, 2*math.Pi, 10), 4)
	assert.Equal(t, maxArcSegments, ArcSegments(1e6, 2*math.Pi, 1e-9))
	fine := ArcSegments(1, math.Pi, 1e-4)
	coarse := ArcSegments(1, math.Pi, 1e-2)
	assert.Greater(t, fine, coarse)
}

func TestAreaAndCentroid(t *testing.T) {
	sq := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	assert.InDelta(t, 100, SignedArea(sq), 1e-12)
	Reverse(sq)
	assert.InDelta(t, -100, SignedArea(sq), 1e-12)
	assert.InDelta(t, 100, Area(sq), 1e-12)

	ring := append(append([]Point{}, sq...), sq[0])
	c := CurveCentroid(ring)
	assert.InDelta(t, 5, c.X, 1e-12)
	assert.InDelta(t, 5, c.Y, 1e-12)
	assert.InDelta(t, 40, PathLength(ring), 1e-12)
}

func TestCCWSweep(t *testing.T) {
	assert.InDelta(t, math.Pi/2, CCWSweep(0, math.Pi/2), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, CCWSweep(math.Pi/2, 0), 1e-12)
	assert.InDelta(t, 2*math.Pi, CCWSweep(1, 1), 1e-12)
}
