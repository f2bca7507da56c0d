package kernel

import (
	"math"
	"testing"

	"github.com/chazu/fixturedrc/pkg/geom"
)

func square(x0, y0, size float64) *Wire {
	return PolygonWire([]geom.Point{
		geom.Pt(x0, y0), geom.Pt(x0+size, y0), geom.Pt(x0+size, y0+size), geom.Pt(x0, y0+size),
	})
}

// --- Wire helper method tests ---

func TestWireClosure(t *testing.T) {
	tests := []struct {
		name string
		w    *Wire
		want bool
	}{
		{"square", square(0, 0, 10), true},
		{"open path", PathWire([]geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(1, 1)}), false},
		{"circle", CircleWire(geom.Pt(0, 0), 1, geom.DefaultArcTolerance), true},
		{"empty", NewWire(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Closed; got != tt.want {
				t.Errorf("Closed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWireMeasures(t *testing.T) {
	w := square(0, 0, 10)
	if got := w.Length(); math.Abs(got-40) > 1e-12 {
		t.Errorf("Length() = %v, want 40", got)
	}
	if got := w.Area(); math.Abs(got-100) > 1e-12 {
		t.Errorf("Area() = %v, want 100", got)
	}
	c := w.Centroid()
	if math.Abs(c.X-5) > 1e-12 || math.Abs(c.Y-5) > 1e-12 {
		t.Errorf("Centroid() = %v, want (5,5)", c)
	}
	if got := len(w.Vertices()); got != 4 {
		t.Errorf("len(Vertices()) = %d, want 4", got)
	}
	if got := len(w.Ring()); got != 4 {
		t.Errorf("len(Ring()) = %d, want 4", got)
	}
}

func TestCircleWire(t *testing.T) {
	w := CircleWire(geom.Pt(5, 5), 2, geom.DefaultArcTolerance)
	if !w.IsCircle() {
		t.Fatal("expected a single full-circle edge")
	}
	if got := w.Length(); math.Abs(got-4*math.Pi) > 1e-9 {
		t.Errorf("Length() = %v, want 4π", got)
	}
	if got := w.Area(); math.Abs(got-4*math.Pi) > 0.01 {
		t.Errorf("Area() = %v, want about 4π", got)
	}
	b := w.Bounds()
	if b.Min.X < 3-1e-9 || b.Max.X > 7+1e-9 {
		t.Errorf("Bounds() = %+v, want within [3,7]", b)
	}
}

func TestSampleEvenlySpaced(t *testing.T) {
	w := square(0, 0, 10)
	pts := w.Sample(41)
	if len(pts) != 41 {
		t.Fatalf("len = %d, want 41", len(pts))
	}
	if pts[0] != pts[40] {
		t.Errorf("closed wire sample should end where it starts: %v vs %v", pts[0], pts[40])
	}
	for i := 1; i < len(pts); i++ {
		if d := geom.Dist(pts[i-1], pts[i]); math.Abs(d-1) > 1e-9 {
			t.Fatalf("sample %d spacing = %v, want 1", i, d)
		}
	}
}

func TestEdgeReversedAndTangent(t *testing.T) {
	e := ArcEdge(geom.Pt(0, 0), 1, 0, math.Pi/2, geom.DefaultArcTolerance)
	tan := e.Tangent()
	if math.Abs(tan.X) > 1e-12 || math.Abs(tan.Y-1) > 1e-12 {
		t.Errorf("ccw tangent at angle 0 = %v, want (0,1)", tan)
	}
	r := e.Reversed()
	if r.Start != e.End || r.End != e.Start || r.Sweep != -e.Sweep {
		t.Errorf("Reversed() did not swap ends and sweep: %+v", r)
	}
	tan = r.Tangent()
	if math.Abs(tan.X-1) > 1e-9 || math.Abs(tan.Y) > 1e-9 {
		t.Errorf("cw tangent at angle π/2 = %v, want (1,0)", tan)
	}
}

func TestNearestPoints(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *Wire
		want      float64
		wantPairs int
	}{
		{"nested squares", square(0, 0, 10), square(2, 3, 2), 2, 1},
		{"parallel edges", square(0, 0, 10), square(12, 0, 10), 2, 2},
		{"overlapping", square(0, 0, 10), square(5, 5, 10), 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NearestPoints(tt.a, tt.b)
			if math.Abs(got.Dist-tt.want) > 1e-9 {
				t.Errorf("Dist = %v, want %v", got.Dist, tt.want)
			}
			if len(got.Pairs) < tt.wantPairs {
				t.Errorf("len(Pairs) = %d, want at least %d", len(got.Pairs), tt.wantPairs)
			}
			for _, p := range got.Pairs {
				if math.Abs(geom.Dist(p[0], p[1])-got.Dist) > 1e-9 {
					t.Errorf("witness pair %v is not at the minimum distance", p)
				}
			}
		})
	}
}
