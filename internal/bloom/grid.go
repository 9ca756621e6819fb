package bloom

import (
	"math"

	"laserresist/pkg/geometry"
)

// maxGridCells caps the energy grid size; boards whose padded bounds
// exceed it at the configured resolution trigger ComputeUnavailableError
// rather than an unbounded allocation.
const maxGridCells = 64 << 20

// Grid is the 2D exposure-energy raster covering the padded board
// bounds. It is created fresh per simulation run, owned by the
// simulator, and discarded after classification (apart from an optional
// heatmap export).
type Grid struct {
	bounds geometry.Rect // padded world bounds, mm
	res    float64       // mm per cell
	w, h   int
	cells  []float32
}

// newGrid builds a zeroed grid over bounds padded for the scatter halo:
// three scatter sigmas or 2 mm, whichever is larger.
func newGrid(bounds geometry.Rect, opts Options) (*Grid, error) {
	padding := math.Max(opts.ScatterSigma*3, 2.0)
	b := bounds.Expand(padding)

	w := int(math.Ceil(b.Width / opts.Resolution))
	h := int(math.Ceil(b.Height / opts.Resolution))
	if w <= 0 || h <= 0 {
		return nil, &ComputeUnavailableError{Reason: "empty board bounds"}
	}
	if w*h > maxGridCells {
		return nil, &ComputeUnavailableError{Reason: "energy grid exceeds size cap"}
	}

	return &Grid{
		bounds: b,
		res:    opts.Resolution,
		w:      w,
		h:      h,
		cells:  make([]float32, w*h),
	}, nil
}

// Size returns the grid dimensions in cells.
func (g *Grid) Size() (w, h int) { return g.w, g.h }

// Bounds returns the padded world bounds the grid covers.
func (g *Grid) Bounds() geometry.Rect { return g.bounds }

// Resolution returns the cell size in mm.
func (g *Grid) Resolution() float64 { return g.res }

// cellAt maps a world point to grid indices.
func (g *Grid) cellAt(p geometry.Point2D) (x, y int) {
	x = int(math.Round((p.X - g.bounds.X) / g.res))
	y = int(math.Round((p.Y - g.bounds.Y) / g.res))
	return x, y
}

func (g *Grid) inRange(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// add deposits energy at a world point. Points outside the grid are
// dropped silently.
func (g *Grid) add(p geometry.Point2D, energy float32) {
	x, y := g.cellAt(p)
	if g.inRange(x, y) {
		g.cells[y*g.w+x] += energy
	}
}

// At returns the cell value at a world point, or 0 outside the grid.
func (g *Grid) At(p geometry.Point2D) float64 {
	x, y := g.cellAt(p)
	if !g.inRange(x, y) {
		return 0
	}
	return float64(g.cells[y*g.w+x])
}

// Cell returns the raw cell value at grid indices, or 0 out of range.
func (g *Grid) Cell(x, y int) float64 {
	if !g.inRange(x, y) {
		return 0
	}
	return float64(g.cells[y*g.w+x])
}

// Max returns the largest cell value.
func (g *Grid) Max() float64 {
	var max float32
	for _, v := range g.cells {
		if v > max {
			max = v
		}
	}
	return float64(max)
}

// Positive returns all strictly positive cell values, for percentile
// scaling in heatmap exports.
func (g *Grid) Positive() []float64 {
	var out []float64
	for _, v := range g.cells {
		if v > 0 {
			out = append(out, float64(v))
		}
	}
	return out
}
