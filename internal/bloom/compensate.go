package bloom

import (
	"laserresist/internal/fill"
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// mergeTolerance is the endpoint gap (mm) under which adjacent flagged
// sub-segments are fused into one path to save travel moves.
const mergeTolerance = 1e-6

// Compensate emits duplicate-exposure centerline paths for the flagged
// traces. Segments crossing drill holes are clipped out so the laser
// never re-exposes over a hole, and touching sub-segments are merged.
// The returned paths are new entries; existing fill paths are never
// edited.
func Compensate(flagged []fill.Trace, drills []poly.Polygon, opts Options) []fill.Path {
	var out []fill.Path
	for _, tr := range flagged {
		if len(tr.Points) < 2 {
			continue
		}
		segments := poly.SubtractFromPolyline(tr.Points, drills)
		for _, seg := range mergeAdjacent(segments) {
			if geometry.PathLength(seg) <= 0 {
				continue
			}
			out = append(out, fill.Path{
				Points:        seg,
				Kind:          fill.Centerline,
				Closed:        false,
				ExposureCount: 2,
			})
		}
	}
	return out
}

// mergeAdjacent joins polylines whose endpoints touch, in either
// orientation. The clipper can split one centerline into pieces that
// share an endpoint exactly; re-joining them keeps one travel move per
// trace.
func mergeAdjacent(segments [][]geometry.Point2D) [][]geometry.Point2D {
	if len(segments) < 2 {
		return segments
	}

	merged := make([][]geometry.Point2D, 0, len(segments))
	used := make([]bool, len(segments))

	for i := range segments {
		if used[i] {
			continue
		}
		used[i] = true
		cur := append([]geometry.Point2D{}, segments[i]...)

		for {
			extended := false
			for j := range segments {
				if used[j] {
					continue
				}
				next, ok := join(cur, segments[j])
				if ok {
					cur = next
					used[j] = true
					extended = true
				}
			}
			if !extended {
				break
			}
		}
		merged = append(merged, cur)
	}
	return merged
}

// join appends b onto a if any endpoint pair touches, reversing b as
// needed. Returns false when the segments are not adjacent.
func join(a, b []geometry.Point2D) ([]geometry.Point2D, bool) {
	aEnd := a[len(a)-1]
	aStart := a[0]
	bStart := b[0]
	bEnd := b[len(b)-1]

	switch {
	case aEnd.Distance(bStart) <= mergeTolerance:
		return append(a, b[1:]...), true
	case aEnd.Distance(bEnd) <= mergeTolerance:
		return append(a, reversed(b)[1:]...), true
	case aStart.Distance(bEnd) <= mergeTolerance:
		return append(append([]geometry.Point2D{}, b...), a[1:]...), true
	case aStart.Distance(bStart) <= mergeTolerance:
		return append(reversed(b), a[1:]...), true
	}
	return nil, false
}

func reversed(pts []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
