package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/chazu/fixturedrc/pkg/analysis"
	"github.com/chazu/fixturedrc/pkg/geom"
	"golang.org/x/image/vector"
)

const (
	pngMargin = 16
	strokeW   = 1.0
)

// pngMaxSide caps the longer side of the drawing area in pixels.
var pngMaxSide = 4096.0

var (
	colBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colLayer      = color.RGBA{0x60, 0x60, 0x60, 0xff}
	colOpen       = color.RGBA{0xc0, 0x80, 0x00, 0xff}
	colError      = color.RGBA{0xd0, 0x20, 0x20, 0xa0}
	colInfo       = color.RGBA{0x20, 0x60, 0xd0, 0x80}
)

// canvas maps drawing coordinates to pixels, y up.
type canvas struct {
	img   *image.RGBA
	z     *vector.Rasterizer
	box   geom.Box
	scale float64
}

func newCanvas(box geom.Box, scale float64) (*canvas, error) {
	if box.IsEmpty() {
		return nil, errors.New("export: nothing to draw")
	}
	if scale <= 0 {
		scale = 1
	}
	side := math.Max(box.Width(), box.Height()) * scale
	if side > pngMaxSide {
		scale *= pngMaxSide / side
	}
	w := int(math.Ceil(box.Width()*scale)) + 2*pngMargin
	h := int(math.Ceil(box.Height()*scale)) + 2*pngMargin
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)
	return &canvas{img: img, z: vector.NewRasterizer(w, h), box: box, scale: scale}, nil
}

func (c *canvas) px(p geom.Point) (float32, float32) {
	x := (p.X-c.box.Min.X)*c.scale + pngMargin
	y := float64(c.img.Bounds().Dy()) - ((p.Y-c.box.Min.Y)*c.scale + pngMargin)
	return float32(x), float32(y)
}

func (c *canvas) begin() {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
}

func (c *canvas) paint(col color.Color) {
	c.z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

// fill paints the closed ring.
func (c *canvas) fill(ring []geom.Point, col color.Color) {
	if len(ring) < 3 {
		return
	}
	c.begin()
	c.z.MoveTo(c.px(ring[0]))
	for _, p := range ring[1:] {
		c.z.LineTo(c.px(p))
	}
	c.z.ClosePath()
	c.paint(col)
}

// stroke paints each segment of path as a thin quad.
func (c *canvas) stroke(path []geom.Point, col color.Color) {
	if len(path) < 2 {
		return
	}
	c.begin()
	half := float32(strokeW / 2)
	for i := 1; i < len(path); i++ {
		x0, y0 := c.px(path[i-1])
		x1, y1 := c.px(path[i])
		dx, dy := x1-x0, y1-y0
		n := float32(math.Hypot(float64(dx), float64(dy)))
		if n == 0 {
			continue
		}
		nx, ny := -dy/n*half, dx/n*half
		c.z.MoveTo(x0+nx, y0+ny)
		c.z.LineTo(x1+nx, y1+ny)
		c.z.LineTo(x1-nx, y1-ny)
		c.z.LineTo(x0-nx, y0-ny)
		c.z.ClosePath()
	}
	c.paint(col)
}

func severityColor(s analysis.Severity) color.Color {
	if s == analysis.SeverityError {
		return colError
	}
	return colInfo
}

func (c *canvas) marker(m analysis.Marker) {
	col := severityColor(m.Severity)
	switch m.Kind {
	case analysis.MarkerCircle:
		// at least a few pixels wide so tiny gaps stay visible
		r := math.Max(m.Radius, 3/c.scale)
		c.fill(geom.SampleArc(m.Center, r, 0, 2*math.Pi, r/50), col)
	case analysis.MarkerSegment:
		c.stroke([]geom.Point{m.From, m.To}, col)
	default:
		for _, w := range m.Wires {
			c.fill(w.Ring(), col)
		}
	}
}

// PNG renders the source layers and every marker of rep to w at scale
// pixels per drawing unit. Large drawings are scaled down to fit.
func PNG(rep *analysis.Report, w io.Writer, scale float64) error {
	c, err := newCanvas(rep.Bounds(), scale)
	if err != nil {
		return err
	}
	for _, l := range rep.Layers {
		for _, lw := range l.Wires {
			c.stroke(lw.Wire.Path(), colLayer)
		}
		for _, ch := range l.Open {
			c.stroke(ch.Vertices(), colOpen)
		}
	}
	for _, g := range rep.Groups {
		for _, m := range g.Markers {
			c.marker(m)
		}
	}
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("export: encode png: %w", err)
	}
	return nil
}
