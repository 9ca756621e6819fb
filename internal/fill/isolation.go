package fill

import (
	"math"

	"laserresist/pkg/geometry"
)

// splitIsolated partitions the generated paths by isolation: a path whose
// minimum distance to every *other* copper feature exceeds the threshold
// receives less scattered exposure from its surroundings and is tagged
// for double exposure. Bounding boxes filter cheaply before the exact
// segment-distance check.
func (g *generator) splitIsolated() (normal, isolated []Path) {
	outlines := make([][]geometry.Point2D, len(g.features))
	boxes := make([]geometry.Rect, len(g.features))
	for i, f := range g.features {
		outlines[i] = closeRing(f.Outer)
		boxes[i] = f.Bounds()
	}

	threshold := g.opts.IsolationThreshold
	for _, p := range g.paths {
		if g.minFeatureDistance(p, outlines, boxes) > threshold {
			p.ExposureCount = 2
			isolated = append(isolated, p)
		} else {
			normal = append(normal, p)
		}
	}
	return normal, isolated
}

// minFeatureDistance returns the distance from the path to the nearest
// copper feature other than its own.
func (g *generator) minFeatureDistance(p Path, outlines [][]geometry.Point2D, boxes []geometry.Rect) float64 {
	pathBox := geometry.BoundingBox(p.Points)
	best := math.Inf(1)
	for i := range g.features {
		if i == p.Region {
			continue
		}
		if d := pathBox.DistanceTo(boxes[i]); d >= best {
			continue
		}
		if d := geometry.PolylineDistance(p.Points, outlines[i]); d < best {
			best = d
		}
	}
	return best
}

// closeRing appends the first point so segment iteration covers the
// closing edge.
func closeRing(ring []geometry.Point2D) []geometry.Point2D {
	if len(ring) == 0 {
		return nil
	}
	out := make([]geometry.Point2D, len(ring)+1)
	copy(out, ring)
	out[len(ring)] = ring[0]
	return out
}
