// Package export rasterizes persisted drawings to PNG.
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
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
	"github.com/inamate/shapedraw/backend-go/internal/scene"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MaxDimension  = 4096

	strokeWidth = 1.0
	// ovalSegments is the number of edges used to approximate an ellipse.
	ovalSegments = 64
	// coverageThreshold turns rasterizer coverage into hard pixels.
	coverageThreshold = 0x80
)

var (
	ErrInvalidSize = errors.New("invalid image size")
	// ErrInvalidCoordinate marks a vertex the rasterizer cannot draw.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Options controls the output image.
type Options struct {
	Width      int
	Height     int
	Background color.Color
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Background == nil {
		o.Background = color.White
	}
	return o
}

// ParseBackground accepts a colour name such as "white" or a hex colour.
func ParseBackground(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	c, err := document.ParseColor(name)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// Render draws d onto a new image. Shapes are painted in document order.
func Render(d document.Drawing, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	if opts.Width < 0 || opts.Height < 0 || opts.Width > MaxDimension || opts.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	p := &painter{
		dst:  img,
		z:    vector.NewRasterizer(opts.Width, opts.Height),
		mask: image.NewAlpha(img.Bounds()),
	}
	for i, e := range d {
		if err := p.entry(e); err != nil {
			return nil, fmt.Errorf("render entry %d: %w", i, err)
		}
	}
	return img, nil
}

// WritePNG renders d and encodes it as PNG.
func WritePNG(w io.Writer, d document.Drawing, opts Options) error {
	img, err := Render(d, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type painter struct {
	dst  *image.RGBA
	z    *vector.Rasterizer
	mask *image.Alpha
}

func (p *painter) entry(e document.Entry) error {
	kind, err := e.Type.Kind()
	if err != nil {
		return err
	}
	pts, err := e.Points()
	if err != nil {
		return err
	}
	for _, pt := range pts {
		if !document.ValidCoordinate(pt.X) || !document.ValidCoordinate(pt.Y) {
			return fmt.Errorf("%w: (%g, %g)", ErrInvalidCoordinate, pt.X, pt.Y)
		}
	}
	pts = expand(kind, pts)
	if len(pts) == 0 {
		return geometry.ErrDegenerateShape
	}

	prim := scene.PrimitiveFor(kind)
	outline := outlineOf(prim, pts)

	if e.Fill != "" && prim != scene.PrimitiveLine {
		c, err := document.ParseColor(e.Fill)
		if err != nil {
			return fmt.Errorf("fill: %w", err)
		}
		p.clearMask()
		p.fillPolygon(outline)
		p.paint(c)
	}
	if e.Color != "" {
		c, err := document.ParseColor(e.Color)
		if err != nil {
			return fmt.Errorf("stroke: %w", err)
		}
		p.clearMask()
		p.strokePolyline(outline, prim != scene.PrimitiveLine)
		p.paint(c)
	}
	return nil
}

// expand turns bare anchor pairs into the kind's full vertex list.
func expand(kind geometry.Kind, pts []geometry.Point) []geometry.Point {
	switch {
	case len(pts) == 1:
		return kind.Vertices(pts[0], pts[0])
	case len(pts) == 2 && kind.VertexCount() != 2:
		return kind.Vertices(pts[0], pts[1])
	}
	return pts
}

// outlineOf returns the closed outline (or open path for lines) of a
// primitive in canvas space.
func outlineOf(prim scene.Primitive, pts []geometry.Point) []geometry.Point {
	switch prim {
	case scene.PrimitiveOval:
		b := geometry.BoundsOf(pts)
		c := b.Center()
		rx, ry := b.Width/2, b.Height/2
		out := make([]geometry.Point, ovalSegments)
		for i := range out {
			theta := 2 * math.Pi * float64(i) / ovalSegments
			out[i] = geometry.Pt(c.X+rx*math.Cos(theta), c.Y+ry*math.Sin(theta))
		}
		return out
	case scene.PrimitiveRectangle:
		b := geometry.BoundsOf(pts)
		return []geometry.Point{
			{X: b.X, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y},
			{X: b.X + b.Width, Y: b.Y + b.Height},
			{X: b.X, Y: b.Y + b.Height},
		}
	}
	return pts
}

func (p *painter) clearMask() {
	clear(p.mask.Pix)
}

func (p *painter) fillPolygon(pts []geometry.Point) {
	if len(pts) < 3 {
		return
	}
	p.z.Reset(p.dst.Bounds().Dx(), p.dst.Bounds().Dy())
	p.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		p.z.LineTo(float32(pt.X), float32(pt.Y))
	}
	p.z.ClosePath()
	p.z.Draw(p.mask, p.mask.Bounds(), image.Opaque, image.Point{})
}

// strokePolyline rasterizes each segment as its own quad so overlapping
// joints do not cancel under the winding rule.
func (p *painter) strokePolyline(pts []geometry.Point, closed bool) {
	n := len(pts)
	segments := n - 1
	if closed {
		segments = n
	}
	if n == 1 || segments <= 0 {
		p.segment(pts[0], pts[0])
		return
	}
	for i := 0; i < segments; i++ {
		p.segment(pts[i], pts[(i+1)%n])
	}
}

func (p *painter) segment(a, b geometry.Point) {
	const hw = strokeWidth / 2
	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)

	// Unit direction and normal, padded at both ends by half the width.
	ux, uy := 1.0, 0.0
	if length > 0 {
		ux, uy = d.X/length, d.Y/length
	}
	nx, ny := -uy*hw, ux*hw
	a = geometry.Pt(a.X-ux*hw, a.Y-uy*hw)
	b = geometry.Pt(b.X+ux*hw, b.Y+uy*hw)

	p.z.Reset(p.dst.Bounds().Dx(), p.dst.Bounds().Dy())
	p.z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	p.z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	p.z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	p.z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	p.z.ClosePath()
	p.z.Draw(p.mask, p.mask.Bounds(), image.Opaque, image.Point{})
}

// paint thresholds the coverage mask to hard edges and composites c through
// it.
func (p *painter) paint(c color.RGBA) {
	for i, a := range p.mask.Pix {
		if a >= coverageThreshold {
			p.mask.Pix[i] = 0xff
		} else {
			p.mask.Pix[i] = 0
		}
	}
	draw.DrawMask(p.dst, p.dst.Bounds(), image.NewUniform(c), image.Point{}, p.mask, image.Point{}, draw.Over)
}
