package fill

import (
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// addTraceCenterlines emits the input trace centerlines, clipped against
// copper already covered by contour and annular paths so pads are not
// exposed twice. Traces forced by option (and narrow enough) keep their
// full centerline regardless of overlap.
func (g *generator) addTraceCenterlines(traces []Trace) {
	for _, tr := range traces {
		if len(tr.Points) < 2 {
			continue
		}

		forced := g.opts.ForceTraceCenterlines && tr.Width <= g.opts.ForceTraceMaxThickness

		var segments [][]geometry.Point2D
		if forced {
			segments = [][]geometry.Point2D{tr.Points}
		} else {
			clip := g.ringBandsNear(geometry.BoundingBox(tr.Points).Expand(g.opts.LineSpacing))
			segments = poly.SubtractFromPolyline(tr.Points, clip)
		}

		root := g.regionContaining(geometry.Interpolate(tr.Points, 0.5))

		for _, seg := range segments {
			if g.opts.OffsetCenterlines {
				seg = geometry.TrimEnds(seg, g.opts.LineSpacing)
			}
			if len(seg) < 2 {
				continue
			}
			g.emitOpen(root, Centerline, seg)
		}
	}
}

// regionContaining finds the top-level copper region holding pt.
// Returns the first region when no region contains it (a clipped
// fragment hanging just outside rounded geometry).
func (g *generator) regionContaining(pt geometry.Point2D) int {
	for i, f := range g.features {
		if f.Bounds().Contains(pt) && f.ContainsPoint(pt) {
			return i
		}
	}
	return 0
}
