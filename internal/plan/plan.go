// Package plan orders exposure paths to reduce unexposed travel. The
// beam is off between paths, so travel is pure overhead; a greedy
// nearest-neighbour pass with endpoint flipping and ring rotation
// removes most of it without changing any path geometry.
package plan

import (
	"laserresist/internal/fill"
	"laserresist/pkg/geometry"
)

// Order returns the paths rearranged for short travel, starting from
// the given point. Open paths may be reversed and closed rings rotated
// to a different start vertex; the traced geometry is unchanged.
func Order(paths []fill.Path, start geometry.Point2D) []fill.Path {
	if len(paths) == 0 {
		return paths
	}

	remaining := make([]fill.Path, len(paths))
	copy(remaining, paths)
	ordered := make([]fill.Path, 0, len(paths))
	pos := start

	for len(remaining) > 0 {
		best := 0
		bestDist := -1.0
		bestEntry := 0
		for i, p := range remaining {
			entry, d := nearestEntry(p, pos)
			if bestDist < 0 || d < bestDist {
				best, bestDist, bestEntry = i, d, entry
			}
		}

		p := enterAt(remaining[best], bestEntry)
		ordered = append(ordered, p)
		pos = exitPoint(p)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

// TravelLength is the total beam-off distance of an ordered sequence
// starting from the given point.
func TravelLength(paths []fill.Path, start geometry.Point2D) float64 {
	pos := start
	var total float64
	for _, p := range paths {
		if len(p.Points) == 0 {
			continue
		}
		total += pos.Distance(p.Points[0])
		pos = exitPoint(p)
	}
	return total
}

// nearestEntry finds the cheapest way into a path from pos. For open
// paths the candidates are the two endpoints; for closed rings every
// vertex is a candidate start.
func nearestEntry(p fill.Path, pos geometry.Point2D) (entry int, dist float64) {
	if len(p.Points) == 0 {
		return 0, 0
	}
	if !p.Closed {
		d0 := pos.Distance(p.Points[0])
		d1 := pos.Distance(p.Points[len(p.Points)-1])
		if d1 < d0 {
			return len(p.Points) - 1, d1
		}
		return 0, d0
	}
	entry, dist = 0, pos.Distance(p.Points[0])
	for i := 1; i < len(p.Points); i++ {
		if d := pos.Distance(p.Points[i]); d < dist {
			entry, dist = i, d
		}
	}
	return entry, dist
}

// enterAt rewrites the path to begin at the chosen entry: open paths
// are reversed when entered from the far end, closed rings are rotated.
func enterAt(p fill.Path, entry int) fill.Path {
	if entry == 0 || len(p.Points) < 2 {
		return p
	}
	pts := make([]geometry.Point2D, len(p.Points))
	if !p.Closed {
		for i, pt := range p.Points {
			pts[len(pts)-1-i] = pt
		}
	} else {
		copy(pts, p.Points[entry:])
		copy(pts[len(p.Points)-entry:], p.Points[:entry])
	}
	p.Points = pts
	return p
}

func exitPoint(p fill.Path) geometry.Point2D {
	if p.Closed || len(p.Points) == 0 {
		if len(p.Points) > 0 {
			return p.Points[0]
		}
		return geometry.Point2D{}
	}
	return p.Points[len(p.Points)-1]
}
