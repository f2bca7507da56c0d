package geom

import "math"

// SignedArea returns the shoelace area of the ring. Counter-clockwise rings
// are positive. The ring may or may not repeat its first point.
func SignedArea(ring []Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}

// Area returns the absolute area of the ring.
func Area(ring []Point) float64 {
	return math.Abs(SignedArea(ring))
}

// PathLength returns the length of the open path through pts.
func PathLength(pts []Point) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += Dist(pts[i-1], pts[i])
	}
	return l
}

// CurveCentroid returns the length-weighted center of mass of the path
// through pts. Degenerate paths fall back to the vertex average.
func CurveCentroid(pts []Point) Point {
	var sx, sy, total float64
	for i := 1; i < len(pts); i++ {
		l := Dist(pts[i-1], pts[i])
		m := Mid(pts[i-1], pts[i])
		sx += m.X * l
		sy += m.Y * l
		total += l
	}
	if total == 0 {
		return VertexAverage(pts)
	}
	return Point{X: sx / total, Y: sy / total}
}

// VertexAverage returns the arithmetic mean of pts.
func VertexAverage(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

// Reverse reverses pts in place.
func Reverse(pts []Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
