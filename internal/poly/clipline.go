package poly

import (
	"laserresist/pkg/geometry"

	clipper "github.com/ctessum/go.clipper"
)

// SubtractFromPolyline clips an open polyline against a polygon set and
// returns the sub-polylines lying outside it. Open-path clipping needs
// the PolyTree execute variant.
func SubtractFromPolyline(line []geometry.Point2D, clip []Polygon) [][]geometry.Point2D {
	return clipPolyline(line, clip, clipper.CtDifference)
}

// IntersectPolyline returns the sub-polylines of an open polyline that
// lie inside the polygon set.
func IntersectPolyline(line []geometry.Point2D, clip []Polygon) [][]geometry.Point2D {
	return clipPolyline(line, clip, clipper.CtIntersection)
}

func clipPolyline(line []geometry.Point2D, clip []Polygon, op clipper.ClipType) [][]geometry.Point2D {
	if len(line) < 2 {
		return nil
	}
	if len(clip) == 0 {
		if op == clipper.CtDifference {
			return [][]geometry.Point2D{line}
		}
		return nil
	}

	path := make(clipper.Path, len(line))
	for i, pt := range line {
		path[i] = toIntPoint(pt)
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(path, clipper.PtSubject, false)
	c.AddPaths(allClipperPaths(clip), clipper.PtClip, true)
	tree, ok := c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}

	open := c.OpenPathsFromPolyTree(tree)
	out := make([][]geometry.Point2D, 0, len(open))
	for _, p := range open {
		if len(p) < 2 {
			continue
		}
		seg := make([]geometry.Point2D, len(p))
		for i, ip := range p {
			seg[i] = fromIntPoint(ip)
		}
		out = append(out, seg)
	}
	return out
}
