// Package render rasterizes copper, exposure paths, and bloom energy
// grids into PNG images for visual inspection.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"laserresist/internal/bloom"
	"laserresist/internal/fill"
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// Options configures rasterization.
type Options struct {
	// PixelsPerMM sets the rendering resolution.
	PixelsPerMM float64
	// MaxDimension caps the longer image side in pixels; larger
	// renders are downscaled.
	MaxDimension int
	// DrawCopper shades the copper regions behind the paths.
	DrawCopper bool
}

// DefaultOptions returns rendering defaults suitable for on-screen
// inspection of small boards.
func DefaultOptions() Options {
	return Options{
		PixelsPerMM:  20,
		MaxDimension: 4096,
		DrawCopper:   true,
	}
}

var (
	backgroundColor = color.RGBA{18, 18, 24, 255}
	copperColor     = color.RGBA{60, 48, 30, 255}
	kindColors      = map[fill.PathKind]color.RGBA{
		fill.ContourRing: {80, 200, 120, 255},
		fill.Centerline:  {90, 160, 255, 255},
		fill.PadMarker:   {255, 200, 60, 255},
		fill.AnnularRing: {230, 110, 250, 255},
	}
	doubleExposeColor = color.RGBA{255, 80, 80, 255}
)

// Paths renders copper and exposure paths over the given board bounds.
// Paths with ExposureCount greater than one are drawn in a highlight
// color regardless of kind.
func Paths(copper []poly.Polygon, paths []fill.Path, bounds geometry.Rect, opts Options) *image.RGBA {
	c := newCanvas(bounds, opts)

	if opts.DrawCopper {
		c.fillPolygons(copper, copperColor)
	}
	for _, p := range paths {
		col, ok := kindColors[p.Kind]
		if !ok {
			col = color.RGBA{200, 200, 200, 255}
		}
		if p.ExposureCount > 1 {
			col = doubleExposeColor
		}
		c.strokePath(p, col)
	}
	return c.finish(opts)
}

// Heatmap renders a bloom energy grid with a blue to red ramp. The
// color scale saturates at the 95th percentile of positive cells so a
// few hot pads do not wash out the traces.
func Heatmap(grid *bloom.Grid, opts Options) *image.RGBA {
	w, h := grid.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	values := grid.Positive()
	scale := 1.0
	if len(values) > 0 {
		sort.Float64s(values)
		if q := stat.Quantile(0.95, stat.Empirical, values, nil); q > 0 {
			scale = q
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grid.Cell(x, y) / scale
			if v > 1 {
				v = 1
			}
			// Image rows run top-down, grid rows bottom-up.
			img.SetRGBA(x, h-1-y, rampColor(v))
		}
	}
	return fitToMax(img, opts.MaxDimension)
}

// SavePNG writes an image to disk.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// rampColor maps a normalized energy to the blue-red ramp.
func rampColor(v float64) color.RGBA {
	if v <= 0 {
		return backgroundColor
	}
	r := uint8(255 * v)
	b := uint8(255 * (1 - v))
	return color.RGBA{r, uint8(40 * v), b, 255}
}

// canvas is an mm-addressed drawing surface.
type canvas struct {
	img    *image.RGBA
	bounds geometry.Rect
	ppmm   float64
}

func newCanvas(bounds geometry.Rect, opts Options) *canvas {
	ppmm := opts.PixelsPerMM
	if ppmm <= 0 {
		ppmm = DefaultOptions().PixelsPerMM
	}
	w := int(bounds.Width*ppmm) + 1
	h := int(bounds.Height*ppmm) + 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		switch i % 4 {
		case 0:
			img.Pix[i] = backgroundColor.R
		case 1:
			img.Pix[i] = backgroundColor.G
		case 2:
			img.Pix[i] = backgroundColor.B
		case 3:
			img.Pix[i] = 255
		}
	}
	return &canvas{img: img, bounds: bounds, ppmm: ppmm}
}

func (c *canvas) toPixel(p geometry.Point2D) (int, int) {
	x := int((p.X - c.bounds.X) * c.ppmm)
	y := c.img.Bounds().Dy() - 1 - int((p.Y-c.bounds.Y)*c.ppmm)
	return x, y
}

func (c *canvas) fillPolygons(polys []poly.Polygon, col color.RGBA) {
	w := c.img.Bounds().Dx()
	h := c.img.Bounds().Dy()
	for _, pg := range polys {
		pb := pg.Bounds()
		x0, y1 := c.toPixel(geometry.Point2D{X: pb.X, Y: pb.Y})
		x1, y0 := c.toPixel(geometry.Point2D{X: pb.X + pb.Width, Y: pb.Y + pb.Height})
		for y := clamp(y0, 0, h-1); y <= clamp(y1, 0, h-1); y++ {
			for x := clamp(x0, 0, w-1); x <= clamp(x1, 0, w-1); x++ {
				mx := c.bounds.X + (float64(x)+0.5)/c.ppmm
				my := c.bounds.Y + (float64(h-1-y)+0.5)/c.ppmm
				if pg.ContainsPoint(geometry.Point2D{X: mx, Y: my}) {
					c.img.SetRGBA(x, y, col)
				}
			}
		}
	}
}

func (c *canvas) strokePath(p fill.Path, col color.RGBA) {
	pts := p.Points
	if len(pts) < 2 {
		return
	}
	for i := 1; i < len(pts); i++ {
		c.line(pts[i-1], pts[i], col)
	}
	if p.Closed {
		c.line(pts[len(pts)-1], pts[0], col)
	}
}

// line draws a Bresenham segment between two board points.
func (c *canvas) line(a, b geometry.Point2D, col color.RGBA) {
	x1, y1 := c.toPixel(a)
	x2, y2 := c.toPixel(b)

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	bounds := c.img.Bounds()
	for {
		if image.Pt(x1, y1).In(bounds) {
			c.img.SetRGBA(x1, y1, col)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) finish(opts Options) *image.RGBA {
	return fitToMax(c.img, opts.MaxDimension)
}

// MarkPin draws a ring marker over a rendered board image. The image is
// assumed to cover exactly the given bounds, as Paths output does even
// after downscaling.
func MarkPin(img *image.RGBA, bounds geometry.Rect, center geometry.Point2D, radius float64, col color.RGBA) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	scale := float64(w) / bounds.Width
	cx := (center.X - bounds.X) * scale
	cy := float64(h-1) - (center.Y-bounds.Y)*scale

	// Three nested rings make the marker readable at any zoom.
	for ring := 0; ring < 3; ring++ {
		r := radius*scale - float64(ring)
		if r <= 0 {
			return
		}
		steps := int(2*math.Pi*r) + 8
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			x := int(cx + r*math.Cos(a))
			y := int(cy - r*math.Sin(a))
			if x >= 0 && y >= 0 && x < w && y < h {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// CloneRGBA copies an image so markers can be drawn without losing the
// base render.
func CloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// fitToMax downscales an image whose longer side exceeds the cap.
func fitToMax(img *image.RGBA, maxDim int) *image.RGBA {
	if maxDim <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(longer)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
