package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ClosestOnSegment returns the point of segment ab closest to p.
func ClosestOnSegment(p, a, b Point) Point {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return r2.Add(a, r2.Scale(t, ab))
}

// SegmentIntersection returns the intersection point of segments ab and cd
// if they cross or touch. Collinear overlaps report no single point.
func SegmentIntersection(a, b, c, d Point) (Point, bool) {
	r := r2.Sub(b, a)
	s := r2.Sub(d, c)
	den := r2.Cross(r, s)
	if den == 0 {
		return Point{}, false
	}
	qp := r2.Sub(c, a)
	t := r2.Cross(qp, s) / den
	u := r2.Cross(qp, r) / den
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return r2.Add(a, r2.Scale(t, r)), true
}

// SegmentDistance returns the minimum distance between segments ab and cd
// together with the witness points on each segment.
func SegmentDistance(a, b, c, d Point) (float64, Point, Point) {
	if p, ok := SegmentIntersection(a, b, c, d); ok {
		return 0, p, p
	}

	best := math.Inf(1)
	var pa, pb Point
	try := func(p, q Point) {
		if dd := Dist(p, q); dd < best {
			best, pa, pb = dd, p, q
		}
	}
	try(a, ClosestOnSegment(a, c, d))
	try(b, ClosestOnSegment(b, c, d))
	try(ClosestOnSegment(c, a, b), c)
	try(ClosestOnSegment(d, a, b), d)
	return best, pa, pb
}

// PointLineSide returns the signed area term that tells on which side of
// the infinite line through a and b the point p lies.
func PointLineSide(a, b, p Point) float64 {
	return Cross(a, b, p)
}
