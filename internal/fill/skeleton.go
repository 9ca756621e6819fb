package fill

import (
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// maxSkeletonCells bounds the raster used for centerline extraction so a
// pathological thin region cannot allocate an oversized grid.
const maxSkeletonCells = 4 << 20

// emitSkeleton extracts the medial centerline of a thin region and emits
// it as open Centerline paths. Regions too small to skeletonize get a
// short stroke through their centroid so no copper is left uncovered;
// regions too large to rasterize fall back to their boundary rings,
// which still span a sub-spacing wall, and are reported as degraded.
func (g *generator) emitSkeleton(root int, p poly.Polygon) {
	paths, ok := skeletonPaths(p, g.opts.LineSpacing)
	if !ok {
		g.warnings = append(g.warnings, RegionWarning{
			Region: root,
			Reason: "thin region too large to skeletonize, boundary rings emitted instead of a centerline",
		})
		g.emitRings(root, p)
		return
	}
	if len(paths) == 0 {
		g.emitOpen(root, Centerline, centroidStroke(p))
		return
	}
	for _, pts := range paths {
		g.emitOpen(root, Centerline, pts)
	}
}

// centroidStroke builds a minimal stroke across a sub-spacing blob,
// aligned with its longer bounding-box axis.
func centroidStroke(p poly.Polygon) []geometry.Point2D {
	b := p.Bounds()
	c := b.Center()
	if b.Width >= b.Height {
		half := b.Width / 4
		return []geometry.Point2D{{X: c.X - half, Y: c.Y}, {X: c.X + half, Y: c.Y}}
	}
	half := b.Height / 4
	return []geometry.Point2D{{X: c.X, Y: c.Y - half}, {X: c.X, Y: c.Y + half}}
}

// skeletonPaths rasterizes the region, thins the mask to single-cell
// width, and walks the remaining cells into polylines in millimeter
// coordinates. Resolution is a quarter of the line spacing, coarsened to
// half spacing when the raster would exceed the cell cap; the walk and
// thinning orders are fixed so output is deterministic. The second
// return is false when the region does not fit the cap even coarsened,
// so the caller can fall back instead of silently dropping coverage.
func skeletonPaths(p poly.Polygon, spacing float64) ([][]geometry.Point2D, bool) {
	res := spacing / 4
	b := p.Bounds().Expand(res)
	w := int(b.Width/res) + 1
	h := int(b.Height/res) + 1
	if w*h > maxSkeletonCells {
		res = spacing / 2
		b = p.Bounds().Expand(res)
		w = int(b.Width/res) + 1
		h = int(b.Height/res) + 1
		if w*h > maxSkeletonCells {
			return nil, false
		}
	}
	if w < 3 || h < 3 {
		return nil, true
	}

	mask := make([][]bool, h)
	any := false
	for y := 0; y < h; y++ {
		mask[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			pt := geometry.Point2D{
				X: b.X + (float64(x)+0.5)*res,
				Y: b.Y + (float64(y)+0.5)*res,
			}
			if p.ContainsPoint(pt) {
				mask[y][x] = true
				any = true
			}
		}
	}
	if !any {
		return nil, true
	}

	thinMask(mask)

	cellPaths := walkSkeleton(mask)

	var out [][]geometry.Point2D
	for _, cells := range cellPaths {
		pts := make([]geometry.Point2D, len(cells))
		for i, c := range cells {
			pts[i] = geometry.Point2D{
				X: b.X + (float64(c.x)+0.5)*res,
				Y: b.Y + (float64(c.y)+0.5)*res,
			}
		}
		pts = geometry.Simplify(pts, res)
		if len(pts) >= 2 {
			out = append(out, pts)
		}
	}
	return out, true
}

type cell struct{ x, y int }

// thinMask reduces the mask to single-cell-wide lines using Zhang-Suen
// thinning: two alternating sub-passes delete boundary cells that have
// 2..6 neighbors and exactly one 0→1 transition around them, until no
// cell changes.
func thinMask(mask [][]bool) {
	h := len(mask)
	w := len(mask[0])

	at := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && mask[y][x]
	}

	// Clockwise neighborhood starting north: P2..P9.
	neighborhood := func(x, y int) [8]bool {
		return [8]bool{
			at(x, y-1), at(x+1, y-1), at(x+1, y), at(x+1, y+1),
			at(x, y+1), at(x-1, y+1), at(x-1, y), at(x-1, y-1),
		}
	}

	for {
		changed := false
		for sub := 0; sub < 2; sub++ {
			var deletions []cell
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if !mask[y][x] {
						continue
					}
					n := neighborhood(x, y)
					count := 0
					for _, v := range n {
						if v {
							count++
						}
					}
					if count < 2 || count > 6 {
						continue
					}
					transitions := 0
					for i := 0; i < 8; i++ {
						if !n[i] && n[(i+1)%8] {
							transitions++
						}
					}
					if transitions != 1 {
						continue
					}
					// P2, P4, P6, P8 conditions per sub-pass.
					if sub == 0 {
						if (n[0] && n[2] && n[4]) || (n[2] && n[4] && n[6]) {
							continue
						}
					} else {
						if (n[0] && n[2] && n[6]) || (n[0] && n[4] && n[6]) {
							continue
						}
					}
					deletions = append(deletions, cell{x, y})
				}
			}
			for _, c := range deletions {
				mask[c.y][c.x] = false
			}
			if len(deletions) > 0 {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

var walkDirs = [8]cell{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}

// walkSkeleton traces the thinned mask into cell paths. Endpoints (cells
// with at most one neighbor) seed open walks first; whatever remains
// belongs to loops, seeded from the first unvisited cell in row-major
// order. Axis-aligned steps are preferred over diagonals so the walk
// follows the skeleton spine.
func walkSkeleton(mask [][]bool) [][]cell {
	h := len(mask)
	w := len(mask[0])

	at := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && mask[y][x]
	}
	degree := func(x, y int) int {
		d := 0
		for _, dir := range walkDirs {
			if at(x+dir.x, y+dir.y) {
				d++
			}
		}
		return d
	}

	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}

	walk := func(start cell) []cell {
		path := []cell{start}
		visited[start.y][start.x] = true
		cur := start
		for {
			advanced := false
			for _, dir := range walkDirs {
				nx, ny := cur.x+dir.x, cur.y+dir.y
				if at(nx, ny) && !visited[ny][nx] {
					cur = cell{nx, ny}
					visited[ny][nx] = true
					path = append(path, cur)
					advanced = true
					break
				}
			}
			if !advanced {
				return path
			}
		}
	}

	var paths [][]cell
	// Open strands first, from their endpoints.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y][x] && !visited[y][x] && degree(x, y) <= 1 {
				if p := walk(cell{x, y}); len(p) >= 2 {
					paths = append(paths, p)
				}
			}
		}
	}
	// Remaining cells form loops or branch stubs.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y][x] && !visited[y][x] {
				if p := walk(cell{x, y}); len(p) >= 2 {
					paths = append(paths, p)
				}
			}
		}
	}
	return paths
}
