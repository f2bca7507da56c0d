package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// maxArcSegments caps the discretization of a single arc.
const maxArcSegments = 1024

// PointAt returns the point at angle a on the circle (center, r).
func PointAt(center Point, r, a float64) Point {
	return Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
}

// CCWSweep returns the counter-clockwise sweep from angle start to angle
// end, in (0, 2π]. Equal angles describe a full turn.
func CCWSweep(start, end float64) float64 {
	s := math.Mod(end-start, 2*math.Pi)
	if s <= 0 {
		s += 2 * math.Pi
	}
	return s
}

// BulgeFromSweep converts a signed included angle to a polyline bulge.
func BulgeFromSweep(sweep float64) float64 {
	return math.Tan(sweep / 4)
}

// ArcFromBulge reconstructs the arc joining p0 to p1 with the given bulge.
// Positive bulges turn counter-clockwise. The returned sweep is signed.
func ArcFromBulge(p0, p1 Point, bulge float64) (center Point, radius, start, sweep float64) {
	chord := r2.Sub(p1, p0)
	c := r2.Norm(chord)
	sweep = 4 * math.Atan(bulge)
	if c == 0 || bulge == 0 {
		return Mid(p0, p1), 0, 0, 0
	}
	// Left normal of the chord; the center sits on it at a signed offset.
	n := Point{X: -chord.Y / c, Y: chord.X / c}
	offset := (c / 2) * (1 - bulge*bulge) / (2 * bulge)
	center = r2.Add(Mid(p0, p1), r2.Scale(offset, n))
	radius = Dist(center, p0)
	start = math.Atan2(p0.Y-center.Y, p0.X-center.X)
	return center, radius, start, sweep
}

// ArcSegments returns how many chords approximate an arc of radius r and
// the given sweep within tol. A full turn never gets fewer than 4.
func ArcSegments(r, sweep, tol float64) int {
	sweep = math.Abs(sweep)
	minSeg := int(math.Ceil(sweep / (math.Pi / 2)))
	if minSeg < 1 {
		minSeg = 1
	}
	if r <= tol || tol <= 0 {
		return minSeg
	}
	step := 2 * math.Acos(1-tol/r)
	n := int(math.Ceil(sweep / step))
	if n < minSeg {
		n = minSeg
	}
	if n > maxArcSegments {
		n = maxArcSegments
	}
	return n
}

// SampleArc discretizes an arc into points, both ends included.
func SampleArc(center Point, r, start, sweep, tol float64) []Point {
	n := ArcSegments(r, sweep, tol)
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, PointAt(center, r, start+sweep*float64(i)/float64(n)))
	}
	return pts
}

// SampleBulge discretizes the bulged segment p0 to p1. A zero bulge yields
// the straight segment.
func SampleBulge(p0, p1 Point, bulge, tol float64) []Point {
	if bulge == 0 || p0 == p1 {
		return []Point{p0, p1}
	}
	c, r, a0, sweep := ArcFromBulge(p0, p1, bulge)
	pts := SampleArc(c, r, a0, sweep, tol)
	// Pin the exact endpoints so joints stay coincident.
	pts[0], pts[len(pts)-1] = p0, p1
	return pts
}
