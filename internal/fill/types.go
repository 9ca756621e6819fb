// Package fill generates laser exposure paths that cover copper geometry.
//
// Copper regions are filled with concentric inward-offset contour rings.
// Regions too narrow for rings fall back to centerline extraction, and
// thin rings around a single hole become exact annular paths. The
// generated path set satisfies a coverage guarantee: every part of the
// (offset-compensated) copper lies within half a line spacing of some
// emitted path.
package fill

import (
	"laserresist/pkg/geometry"
)

// PathKind describes how an exposure path was produced.
type PathKind int

const (
	// ContourRing is a closed boundary ring at some erosion depth.
	ContourRing PathKind = iota
	// Centerline is an open medial path through a region too narrow
	// for contour rings, or a trace centerline.
	Centerline
	// PadMarker is a forced marker guaranteeing center-of-pad exposure.
	PadMarker
	// AnnularRing is a single closed path through the middle of a thin
	// ring of copper around a hole.
	AnnularRing
)

func (k PathKind) String() string {
	switch k {
	case ContourRing:
		return "contour"
	case Centerline:
		return "centerline"
	case PadMarker:
		return "pad-marker"
	case AnnularRing:
		return "annular"
	default:
		return "unknown"
	}
}

// Path is a single exposure path. Paths are never mutated after creation;
// compensation stages add new paths instead of editing existing ones.
type Path struct {
	Points []geometry.Point2D
	Kind   PathKind
	Closed bool
	// ExposureCount is the number of times the laser traces this path.
	// 1 for normal paths, 2 for isolated or compensated ones.
	ExposureCount int
	// Region identifies the copper region the path was generated from.
	Region int
}

// Length returns the drawn length of the path in mm, including the
// closing segment for closed paths.
func (p Path) Length() float64 {
	if p.Closed {
		return geometry.RingLength(p.Points)
	}
	return geometry.PathLength(p.Points)
}

// Trace is an input conductor centerline with its drawn width.
type Trace struct {
	Points []geometry.Point2D
	Width  float64
}

// Length returns the centerline length in mm.
func (t Trace) Length() float64 {
	return geometry.PathLength(t.Points)
}

// Result is the fixed-shape output of fill generation.
type Result struct {
	// Normal holds single-exposure paths in generation order.
	Normal []Path
	// Isolated holds paths tagged for double exposure because they sit
	// farther than the isolation threshold from any other copper.
	Isolated []Path
	// Warnings records regions that were skipped or degraded. Partial
	// output is valid as long as it is flagged here.
	Warnings []RegionWarning
}

// All returns every generated path, normal first, in a stable order.
func (r *Result) All() []Path {
	out := make([]Path, 0, len(r.Normal)+len(r.Isolated))
	out = append(out, r.Normal...)
	out = append(out, r.Isolated...)
	return out
}

// Summary holds user-facing counters for a path set.
type Summary struct {
	Count       int     `json:"count"`
	TotalLength float64 `json:"total_length_mm"`
	ByKind      map[string]int `json:"by_kind"`
}

// Summarize computes counters over a path set. Lengths count double
// exposure once; the emitter reports machine time separately.
func Summarize(paths []Path) Summary {
	s := Summary{ByKind: make(map[string]int)}
	for _, p := range paths {
		s.Count++
		s.TotalLength += p.Length()
		s.ByKind[p.Kind.String()]++
	}
	return s
}
