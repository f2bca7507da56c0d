package geom

import "math"

// Box is an axis-aligned bounding box. A Box with Min > Max on either axis
// is empty; EmptyBox returns the canonical empty value, which acts as the
// identity for Union and Add.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// EmptyBox returns a box containing nothing.
func EmptyBox() Box {
	return Box{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// NewBox returns the box spanned by the corners (x0, y0) and (x1, y1) in
// any order.
func NewBox(x0, y0, x1, y1 float64) Box {
	return Box{
		Min: Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)},
		Max: Point{X: math.Max(x0, x1), Y: math.Max(y0, y1)},
	}
}

// BoundsOf returns the smallest box containing every point.
func BoundsOf(pts ...Point) Box {
	b := EmptyBox()
	for _, p := range pts {
		b = b.Add(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y
}

// Add returns the box extended to contain p.
func (b Box) Add(p Point) Box {
	return Box{
		Min: Point{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y)},
		Max: Point{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y)},
	}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Add(o.Min).Add(o.Max)
}

// Intersects reports whether the boxes overlap. Touching edges count.
func (b Box) Intersects(o Box) bool {
	return !(o.Max.X < b.Min.X || o.Min.X > b.Max.X ||
		o.Max.Y < b.Min.Y || o.Min.Y > b.Max.Y)
}

// Contains reports whether p lies inside the box, bounds inclusive.
func (b Box) Contains(p Point) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y
}

// ContainsBox reports whether o lies entirely inside b, bounds inclusive.
func (b Box) ContainsBox(o Box) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Expand grows the box by d on every side.
func (b Box) Expand(d float64) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{
		Min: Point{X: b.Min.X - d, Y: b.Min.Y - d},
		Max: Point{X: b.Max.X + d, Y: b.Max.Y + d},
	}
}

// Center returns the center of the box.
func (b Box) Center() Point {
	return Mid(b.Min, b.Max)
}

// Width returns the x extent.
func (b Box) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the y extent.
func (b Box) Height() float64 {
	return b.Max.Y - b.Min.Y
}

// Around returns the size x size box centered on p.
func Around(p Point, size float64) Box {
	h := size / 2
	return NewBox(p.X-h, p.Y-h, p.X+h, p.Y+h)
}
