// Package poly provides polygon-with-holes geometry built on the Clipper
// integer clipping engine. All coordinates are board-local millimeters;
// conversion to Clipper's fixed-point space happens at the package boundary.
package poly

import (
	"math"

	"laserresist/pkg/geometry"

	clipper "github.com/ctessum/go.clipper"
)

// Scale is the number of Clipper integer units per millimeter (0.1 µm
// resolution). All boolean and offset operations round to this grid.
const Scale = 10000

// Ring is a closed loop of points. The closing edge from the last point
// back to the first is implicit.
type Ring []geometry.Point2D

// Polygon is a single connected region: one outer ring plus zero or more
// hole rings. Outer rings wind counter-clockwise, holes clockwise.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Area returns the area of the ring in mm², always positive.
func (r Ring) Area() float64 {
	return math.Abs(geometry.ShoelaceArea(r))
}

// Perimeter returns the closed length of the ring in mm.
func (r Ring) Perimeter() float64 {
	return geometry.RingLength(r)
}

// Centroid returns the vertex centroid of the ring.
func (r Ring) Centroid() geometry.Point2D {
	return geometry.Centroid(r)
}

// Area returns the polygon area in mm²: outer area minus hole areas.
func (p Polygon) Area() float64 {
	a := p.Outer.Area()
	for _, h := range p.Holes {
		a -= h.Area()
	}
	return a
}

// Perimeter returns the total boundary length: outer ring plus all holes.
func (p Polygon) Perimeter() float64 {
	total := p.Outer.Perimeter()
	for _, h := range p.Holes {
		total += h.Perimeter()
	}
	return total
}

// Bounds returns the axis-aligned bounding box of the outer ring.
func (p Polygon) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Outer)
}

// IsEmpty reports whether the polygon has no usable outer ring.
func (p Polygon) IsEmpty() bool {
	return len(p.Outer) < 3
}

// ContainsPoint reports whether pt lies inside the polygon (outside all
// holes). Boundary points count as inside.
func (p Polygon) ContainsPoint(pt geometry.Point2D) bool {
	ip := toIntPoint(pt)
	if clipper.PointInPolygon(ip, toClipperPath(p.Outer)) == 0 {
		return false
	}
	for _, h := range p.Holes {
		if clipper.PointInPolygon(ip, toClipperPath(h)) == 1 {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of a polygon set, or the zero Rect for
// an empty set.
func Bounds(polys []Polygon) geometry.Rect {
	if len(polys) == 0 {
		return geometry.Rect{}
	}
	r := polys[0].Bounds()
	for _, p := range polys[1:] {
		r = r.Union(p.Bounds())
	}
	return r
}

// TotalArea returns the summed area of a polygon set in mm².
func TotalArea(polys []Polygon) float64 {
	var a float64
	for _, p := range polys {
		a += p.Area()
	}
	return a
}

func toIntPoint(p geometry.Point2D) *clipper.IntPoint {
	return &clipper.IntPoint{
		X: clipper.CInt(math.Round(p.X * Scale)),
		Y: clipper.CInt(math.Round(p.Y * Scale)),
	}
}

func fromIntPoint(ip *clipper.IntPoint) geometry.Point2D {
	return geometry.Point2D{
		X: float64(ip.X) / Scale,
		Y: float64(ip.Y) / Scale,
	}
}

func toClipperPath(r Ring) clipper.Path {
	path := make(clipper.Path, len(r))
	for i, p := range r {
		path[i] = toIntPoint(p)
	}
	return path
}

func fromClipperPath(path clipper.Path) Ring {
	ring := make(Ring, len(path))
	for i, ip := range path {
		ring[i] = fromIntPoint(ip)
	}
	return ring
}

// clipperPaths flattens a polygon to its rings with the orientations
// Clipper expects: outer counter-clockwise, holes clockwise.
func clipperPaths(p Polygon) clipper.Paths {
	paths := make(clipper.Paths, 0, 1+len(p.Holes))
	paths = append(paths, oriented(toClipperPath(p.Outer), true))
	for _, h := range p.Holes {
		paths = append(paths, oriented(toClipperPath(h), false))
	}
	return paths
}

func allClipperPaths(polys []Polygon) clipper.Paths {
	var paths clipper.Paths
	for _, p := range polys {
		paths = append(paths, clipperPaths(p)...)
	}
	return paths
}

// oriented returns the path wound counter-clockwise when ccw is true,
// clockwise otherwise.
func oriented(path clipper.Path, ccw bool) clipper.Path {
	if len(path) < 3 || clipper.Orientation(path) == ccw {
		return path
	}
	rev := make(clipper.Path, len(path))
	for i, ip := range path {
		rev[len(path)-1-i] = ip
	}
	return rev
}

// polygonsFromTree rebuilds hole topology from a Clipper PolyTree. Outer
// nodes become polygons, their children become holes, and any nodes nested
// inside holes (islands) start new polygons.
func polygonsFromTree(tree *clipper.PolyTree) []Polygon {
	var out []Polygon
	for _, node := range tree.Childs() {
		out = append(out, polygonsFromNode(node)...)
	}
	return out
}

func polygonsFromNode(node *clipper.PolyNode) []Polygon {
	p := Polygon{Outer: fromClipperPath(node.Contour())}
	var out []Polygon
	for _, hole := range node.Childs() {
		p.Holes = append(p.Holes, fromClipperPath(hole.Contour()))
		for _, island := range hole.Childs() {
			out = append(out, polygonsFromNode(island)...)
		}
	}
	if !p.IsEmpty() {
		out = append([]Polygon{p}, out...)
	}
	return out
}
