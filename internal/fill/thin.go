package fill

import (
	"math"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// isThin reports whether the region's minimum local width has dropped
// below the line spacing, meaning further contour rings would gap or
// degenerate. Two approximations are combined: erosion by half a spacing
// coming up empty (everywhere narrow), and the effective width estimate
// 2·area/perimeter falling under the tunable factor (long narrow strips
// whose erosion survives only in slivers).
func (g *generator) isThin(p poly.Polygon) bool {
	spacing := g.opts.LineSpacing
	if len(poly.OffsetInward(p, spacing/2)) == 0 {
		return true
	}
	perim := p.Perimeter()
	if perim <= 0 {
		return true
	}
	effWidth := 2 * p.Area() / perim
	return effWidth < g.opts.ThinWidthFactor*spacing
}

// annulus describes a thin copper ring around a single hole.
type annulus struct {
	center      geometry.Point2D
	meanRadius  float64
	outerRadius float64
	innerRadius float64
}

// detectAnnulus checks whether the region is a thin ring around exactly
// one hole: the hole is near-circular, the outer boundary is concentric
// with it, and the radial gap has narrowed below twice the line spacing.
// Emitting one closed ring at the mean radius is simpler than a skeleton
// and exact for this common pad shape.
//
// The outer radius is the minimum centroid distance (the apothem for
// rectangular pads), so the mean radius lands midway across the narrow
// part of the gap.
func (g *generator) detectAnnulus(p poly.Polygon) (annulus, bool) {
	if len(p.Holes) != 1 || len(p.Outer) < 3 {
		return annulus{}, false
	}
	hole := p.Holes[0]
	if len(hole) < 3 {
		return annulus{}, false
	}

	if circularity(hole) < 0.85 {
		return annulus{}, false
	}

	center := geometry.AreaCentroid(hole)
	innerR := meanRadius(hole, center)
	if innerR <= 0 || radialDeviation(hole, center, innerR) > 0.15*innerR {
		return annulus{}, false
	}
	outerR := minRadius(p.Outer, center)

	gap := outerR - innerR
	if gap <= 0 || gap >= 2*g.opts.LineSpacing {
		return annulus{}, false
	}

	// Concentric within tolerance: the outer center may not drift by more
	// than 20% of the radial gap, or the mean ring leaves the copper. The
	// area centroid is used because eroded boundaries carry much denser
	// vertices along corner arcs than along straight edges, which skews
	// the vertex centroid.
	if geometry.AreaCentroid(p.Outer).Distance(center) > 0.2*gap {
		return annulus{}, false
	}

	return annulus{
		center:      center,
		meanRadius:  (outerR + innerR) / 2,
		outerRadius: outerR,
		innerRadius: innerR,
	}, true
}

func (g *generator) emitAnnulus(root int, a annulus) {
	ring := geometry.GenerateCirclePoints(a.center.X, a.center.Y, a.meanRadius, annulusSegments(a.meanRadius))
	pts := make([]geometry.Point2D, len(ring))
	copy(pts, ring)
	g.paths = append(g.paths, Path{
		Points:        pts,
		Kind:          AnnularRing,
		Closed:        true,
		ExposureCount: 1,
		Region:        root,
	})
	g.addCoveredRing(AnnularRing, pts)
}

func annulusSegments(radius float64) int {
	n := int(radius * 48)
	if n < 24 {
		n = 24
	}
	if n > 192 {
		n = 192
	}
	return n
}

// circularity returns 4πA/P², which is 1 for a circle and lower for
// everything else.
func circularity(r poly.Ring) float64 {
	perim := r.Perimeter()
	if perim <= 0 {
		return 0
	}
	return 4 * math.Pi * r.Area() / (perim * perim)
}

func meanRadius(r poly.Ring, center geometry.Point2D) float64 {
	if len(r) == 0 {
		return 0
	}
	var sum float64
	for _, p := range r {
		sum += p.Distance(center)
	}
	return sum / float64(len(r))
}

// radialDeviation returns the largest distance between any vertex radius
// and the mean radius.
func radialDeviation(r poly.Ring, center geometry.Point2D, mean float64) float64 {
	var worst float64
	for _, p := range r {
		if d := math.Abs(p.Distance(center) - mean); d > worst {
			worst = d
		}
	}
	return worst
}

func minRadius(r poly.Ring, center geometry.Point2D) float64 {
	if len(r) == 0 {
		return 0
	}
	best := math.Inf(1)
	for i := range r {
		a := r[i]
		b := r[(i+1)%len(r)]
		if d := geometry.PointToSegmentDistance(center.X, center.Y, a, b); d < best {
			best = d
		}
	}
	return best
}
