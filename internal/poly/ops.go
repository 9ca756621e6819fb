package poly

import (
	"laserresist/pkg/geometry"

	clipper "github.com/ctessum/go.clipper"
)

// Union merges a polygon set, dissolving overlaps and rebuilding hole
// topology.
func Union(polys []Polygon) []Polygon {
	if len(polys) == 0 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(allClipperPaths(polys), clipper.PtSubject, true)
	tree, ok := c.Execute2(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return polygonsFromTree(tree)
}

// Difference subtracts the clip set from the subject set.
func Difference(subject, clip []Polygon) []Polygon {
	if len(subject) == 0 {
		return nil
	}
	if len(clip) == 0 {
		return Union(subject)
	}
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(allClipperPaths(subject), clipper.PtSubject, true)
	c.AddPaths(allClipperPaths(clip), clipper.PtClip, true)
	tree, ok := c.Execute2(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return polygonsFromTree(tree)
}

// Intersection returns the overlap of the subject and clip sets.
func Intersection(subject, clip []Polygon) []Polygon {
	if len(subject) == 0 || len(clip) == 0 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(allClipperPaths(subject), clipper.PtSubject, true)
	c.AddPaths(allClipperPaths(clip), clipper.PtClip, true)
	tree, ok := c.Execute2(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return polygonsFromTree(tree)
}

// OffsetInward erodes the polygon by distance d (mm). The result may be
// empty (region vanished) or contain several disjoint child polygons
// (region split).
func OffsetInward(p Polygon, d float64) []Polygon {
	return offset(p, -d)
}

// OffsetOutward dilates the polygon by distance d (mm).
func OffsetOutward(p Polygon, d float64) []Polygon {
	return offset(p, d)
}

func offset(p Polygon, delta float64) []Polygon {
	if p.IsEmpty() {
		return nil
	}
	co := clipper.NewClipperOffset()
	co.AddPaths(clipperPaths(p), clipper.JtRound, clipper.EtClosedPolygon)
	tree := co.Execute2(delta * Scale)
	return polygonsFromTree(tree)
}

// BufferPolyline thickens an open polyline to a polygon of the given
// width (mm) with round caps and joins. Used to model the laser kerf and
// to reconstruct trace copper from a centerline.
func BufferPolyline(points []geometry.Point2D, width float64) []Polygon {
	if len(points) < 2 || width <= 0 {
		return nil
	}
	path := make(clipper.Path, len(points))
	for i, pt := range points {
		path[i] = toIntPoint(pt)
	}
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtOpenRound)
	tree := co.Execute2(width / 2 * Scale)
	return polygonsFromTree(tree)
}

// BufferRing thickens a closed ring path to an annular polygon of the
// given stroke width (mm).
func BufferRing(ring []geometry.Point2D, width float64) []Polygon {
	if len(ring) < 3 || width <= 0 {
		return nil
	}
	co := clipper.NewClipperOffset()
	co.AddPath(toClipperPath(ring), clipper.JtRound, clipper.EtClosedLine)
	tree := co.Execute2(width / 2 * Scale)
	return polygonsFromTree(tree)
}

// Repair rebuilds a polygon whose rings may self-intersect or carry
// zero-area spikes, the integer-clipping equivalent of a zero-distance
// buffer. Returns nil if nothing usable remains.
func Repair(p Polygon) []Polygon {
	if len(p.Outer) < 3 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoStrictlySimple)
	paths := make(clipper.Paths, 0, 1+len(p.Holes))
	paths = append(paths, toClipperPath(p.Outer))
	for _, h := range p.Holes {
		if len(h) >= 3 {
			paths = append(paths, toClipperPath(h))
		}
	}
	c.AddPaths(paths, clipper.PtSubject, true)
	// EvenOdd resolves self-intersections the way a zero-buffer does:
	// every enclosed region keeps its parity.
	tree, ok := c.Execute2(clipper.CtUnion, clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return nil
	}
	repaired := polygonsFromTree(tree)
	out := repaired[:0]
	for _, rp := range repaired {
		if rp.Area() > 1e-9 {
			out = append(out, rp)
		}
	}
	return out
}

// Circle builds a polygonal approximation of a circle. Segment count
// scales with radius so the chord error stays below the Clipper grid.
func Circle(center geometry.Point2D, radius float64) Polygon {
	n := circleSegments(radius)
	return Polygon{Outer: geometry.GenerateCirclePoints(center.X, center.Y, radius, n)}
}

func circleSegments(radius float64) int {
	n := int(radius * 64)
	if n < 16 {
		n = 16
	}
	if n > 256 {
		n = 256
	}
	return n
}

// SamplePoints returns interior points of the polygon on a square grid of
// the given spacing. Used by coverage verification.
func SamplePoints(p Polygon, spacing float64) []geometry.Point2D {
	if p.IsEmpty() || spacing <= 0 {
		return nil
	}
	b := p.Bounds()
	var pts []geometry.Point2D
	for y := b.Y + spacing/2; y < b.Y+b.Height; y += spacing {
		for x := b.X + spacing/2; x < b.X+b.Width; x += spacing {
			pt := geometry.Point2D{X: x, Y: y}
			if p.ContainsPoint(pt) {
				pts = append(pts, pt)
			}
		}
	}
	return pts
}
