package fill

import (
	"laserresist/internal/poly"
)

// UncoveredArea measures the coverage guarantee: it thickens every
// generated path by the line spacing (the laser kerf), subtracts the
// result from the offset-compensated copper, and returns the area in mm²
// left unexposed. A correct path set leaves at most a sliver within
// tolerance of the spacing.
func UncoveredArea(copper []poly.Polygon, paths []Path, opts Options) float64 {
	var target []poly.Polygon
	for _, p := range copper {
		if opts.InitialOffset > 0 {
			target = append(target, initialOffset(p, opts.InitialOffset)...)
		} else {
			target = append(target, p)
		}
	}
	if len(target) == 0 {
		return 0
	}

	var exposed []poly.Polygon
	for _, p := range paths {
		if p.Closed {
			exposed = append(exposed, poly.BufferRing(p.Points, opts.LineSpacing)...)
		} else {
			exposed = append(exposed, poly.BufferPolyline(p.Points, opts.LineSpacing)...)
		}
	}

	remaining := poly.Difference(target, exposed)
	return poly.TotalArea(remaining)
}
