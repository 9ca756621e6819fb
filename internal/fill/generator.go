package fill

import (
	"fmt"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// Generate produces the exposure path set for the given copper polygons
// and trace centerlines. Copper must already be drill-subtracted and in
// millimeters.
//
// Returns InvalidParameterError before touching geometry if options are
// out of range, and DegenerateGeometryError if no copper survives the
// repair pass. Individual bad regions are skipped and reported in
// Result.Warnings instead of failing the run.
func Generate(copper []poly.Polygon, traces []Trace, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g := &generator{opts: opts}

	// Repair pass: one zero-distance rebuild per input region. Regions
	// that stay broken are dropped with a warning, not a fatal error.
	var regions []poly.Polygon
	for i, p := range copper {
		repaired := poly.Repair(p)
		if len(repaired) == 0 {
			g.warnings = append(g.warnings, RegionWarning{
				Region: i,
				Reason: "unrepairable ring, region skipped",
			})
			continue
		}
		regions = append(regions, repaired...)
	}
	if len(regions) == 0 {
		return nil, &DegenerateGeometryError{Reason: "no copper remains after repair"}
	}

	g.features = poly.Union(regions)
	if len(g.features) == 0 {
		return nil, &DegenerateGeometryError{Reason: "copper union is empty"}
	}

	for i, region := range g.features {
		g.fillRegion(i, region)
	}

	g.addTraceCenterlines(traces)

	if opts.ForcedPadCenterlines {
		g.addPadMarkers()
	}

	res := &Result{Warnings: g.warnings}
	if opts.DoubleExposeIsolated {
		res.Normal, res.Isolated = g.splitIsolated()
	} else {
		res.Normal = g.paths
	}
	return res, nil
}

// generator holds per-run state. It is discarded when Generate returns;
// only the Result escapes.
type generator struct {
	opts     Options
	features []poly.Polygon // merged top-level copper regions
	paths    []Path
	covered  []coveredBand // kerf-thick bands around emitted paths
	terminal []terminalRegion
	warnings []RegionWarning
}

// coveredBand is the copper area a single emitted path exposes, used to
// clip redundant trace centerlines.
type coveredBand struct {
	kind   PathKind
	bounds geometry.Rect
	area   []poly.Polygon
}

// terminalRegion is an innermost non-thin region whose next erosion came
// up empty. Pad markers are placed on these.
type terminalRegion struct {
	root int
	poly poly.Polygon
}

type regionTask struct {
	poly  poly.Polygon
	depth int
}

// fillRegion runs the contour-offset iteration for one top-level copper
// region. Erosion results go through an explicit work queue: one region
// may split into several disjoint children, each carrying its own depth
// counter against the hard level cap.
func (g *generator) fillRegion(root int, region poly.Polygon) {
	start := []poly.Polygon{region}
	if g.opts.InitialOffset > 0 {
		start = initialOffset(region, g.opts.InitialOffset)
		if len(start) == 0 {
			g.warnings = append(g.warnings, RegionWarning{
				Region: root,
				Reason: fmt.Sprintf("region vanished under initial offset %.3f mm, no coverage emitted", g.opts.InitialOffset),
			})
			return
		}
	}

	queue := make([]regionTask, 0, len(start))
	for _, p := range start {
		queue = append(queue, regionTask{poly: p, depth: 0})
	}

	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]

		if task.depth >= g.opts.MaxOffsetLevels {
			g.warnings = append(g.warnings, RegionWarning{
				Region: root,
				Reason: fmt.Sprintf("offset level cap %d reached, remainder abandoned", g.opts.MaxOffsetLevels),
			})
			continue
		}

		if ann, ok := g.detectAnnulus(task.poly); ok {
			g.emitAnnulus(root, ann)
			continue
		}

		if g.isThin(task.poly) {
			g.emitSkeleton(root, task.poly)
			continue
		}

		g.emitRings(root, task.poly)

		children := poly.OffsetInward(task.poly, g.opts.LineSpacing)
		if len(children) == 0 {
			g.terminal = append(g.terminal, terminalRegion{root: root, poly: task.poly})
			continue
		}
		for _, child := range children {
			queue = append(queue, regionTask{poly: child, depth: task.depth + 1})
		}
	}
}

// initialOffset shrinks only the outermost boundary by d (laser-spot
// compensation). Hole boundaries are left where they are; later
// line-spacing erosions move every boundary.
func initialOffset(p poly.Polygon, d float64) []poly.Polygon {
	shrunk := poly.OffsetInward(poly.Polygon{Outer: p.Outer}, d)
	if len(p.Holes) == 0 {
		return shrunk
	}
	holes := make([]poly.Polygon, 0, len(p.Holes))
	for _, h := range p.Holes {
		holes = append(holes, poly.Polygon{Outer: h})
	}
	return poly.Difference(shrunk, holes)
}

// emitRings emits the region boundary (outer ring and every hole ring)
// as closed contour paths at the current erosion depth.
func (g *generator) emitRings(root int, p poly.Polygon) {
	g.emitClosed(root, ContourRing, p.Outer)
	for _, h := range p.Holes {
		g.emitClosed(root, ContourRing, h)
	}
}

func (g *generator) emitClosed(root int, kind PathKind, ring []geometry.Point2D) {
	if len(ring) < 3 {
		return
	}
	pts := make([]geometry.Point2D, len(ring))
	copy(pts, ring)
	g.paths = append(g.paths, Path{
		Points:        pts,
		Kind:          kind,
		Closed:        true,
		ExposureCount: 1,
		Region:        root,
	})
	g.addCoveredRing(kind, pts)
}

func (g *generator) emitOpen(root int, kind PathKind, pts []geometry.Point2D) {
	if len(pts) < 2 {
		return
	}
	g.paths = append(g.paths, Path{
		Points:        pts,
		Kind:          kind,
		Closed:        false,
		ExposureCount: 1,
		Region:        root,
	})
	g.addCoveredLine(kind, pts)
}

func (g *generator) addCoveredRing(kind PathKind, ring []geometry.Point2D) {
	band := poly.BufferRing(ring, g.opts.LineSpacing)
	if len(band) == 0 {
		return
	}
	g.covered = append(g.covered, coveredBand{kind: kind, bounds: poly.Bounds(band), area: band})
}

func (g *generator) addCoveredLine(kind PathKind, pts []geometry.Point2D) {
	band := poly.BufferPolyline(pts, g.opts.LineSpacing)
	if len(band) == 0 {
		return
	}
	g.covered = append(g.covered, coveredBand{kind: kind, bounds: poly.Bounds(band), area: band})
}

// ringBandsNear collects the covered bands of contour and annular rings
// whose bounds intersect r. Skeleton centerlines and pad markers are left
// out: a trace centerline crossing its own thin strip must survive, it is
// only redundant where it runs into ring-filled pads and pours.
func (g *generator) ringBandsNear(r geometry.Rect) []poly.Polygon {
	var out []poly.Polygon
	for _, band := range g.covered {
		if band.kind != ContourRing && band.kind != AnnularRing {
			continue
		}
		if band.bounds.Intersects(r) {
			out = append(out, band.area...)
		}
	}
	return out
}
