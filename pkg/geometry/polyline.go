package geometry

import "math"

// PathLength calculates the total length of a polyline.
func PathLength(points []Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Distance(points[i-1])
	}
	return total
}

// RingLength calculates the perimeter of a closed ring, including the
// closing segment from the last point back to the first.
func RingLength(points []Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	return PathLength(points) + points[len(points)-1].Distance(points[0])
}

// Interpolate returns the point at normalized position t (0..1) along the
// polyline, measured by arc length.
func Interpolate(points []Point2D, t float64) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	if len(points) == 1 || t <= 0 {
		return points[0]
	}
	if t >= 1 {
		return points[len(points)-1]
	}

	target := t * PathLength(points)
	var walked float64
	for i := 1; i < len(points); i++ {
		seg := points[i].Distance(points[i-1])
		if walked+seg >= target && seg > 0 {
			f := (target - walked) / seg
			return Point2D{
				X: points[i-1].X + f*(points[i].X-points[i-1].X),
				Y: points[i-1].Y + f*(points[i].Y-points[i-1].Y),
			}
		}
		walked += seg
	}
	return points[len(points)-1]
}

// Resample returns n points evenly spaced by arc length along the polyline.
// For n < 2 the endpoints are returned.
func Resample(points []Point2D, n int) []Point2D {
	if len(points) == 0 {
		return nil
	}
	if n < 2 || len(points) == 1 {
		return []Point2D{points[0], points[len(points)-1]}
	}
	out := make([]Point2D, n)
	for i := 0; i < n; i++ {
		out[i] = Interpolate(points, float64(i)/float64(n-1))
	}
	return out
}

// TrimEnds removes length d from both free ends of an open polyline.
// Returns nil if the polyline is shorter than 2d.
func TrimEnds(points []Point2D, d float64) []Point2D {
	if d <= 0 {
		return points
	}
	total := PathLength(points)
	if total <= 2*d {
		return nil
	}
	t0 := d / total
	t1 := 1 - d/total

	start := Interpolate(points, t0)
	end := Interpolate(points, t1)

	out := []Point2D{start}
	var walked float64
	for i := 1; i < len(points); i++ {
		walked += points[i].Distance(points[i-1])
		f := walked / total
		if f > t0 && f < t1 {
			out = append(out, points[i])
		}
	}
	out = append(out, end)
	return out
}

// Simplify reduces the number of vertices using the Douglas-Peucker algorithm.
func Simplify(path []Point2D, epsilon float64) []Point2D {
	if len(path) <= 2 {
		return path
	}

	// Find point with maximum distance from line between first and last points
	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := PerpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := Simplify(path[:index+1], epsilon)
		right := Simplify(path[index:], epsilon)

		// Avoid duplicating the middle point
		result := make([]Point2D, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []Point2D{path[0], path[end]}
}

// PerpendicularDistance calculates the perpendicular distance from point p
// to the line through a and b.
func PerpendicularDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}

// PointToSegmentDistance calculates the minimum distance from point (px, py)
// to the line segment a-b.
func PointToSegmentDistance(px, py float64, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return Point2D{X: px, Y: py}.Distance(a)
	}

	t := ((px-a.X)*dx + (py-a.Y)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closestX := a.X + t*dx
	closestY := a.Y + t*dy
	return math.Sqrt((px-closestX)*(px-closestX) + (py-closestY)*(py-closestY))
}

// PolylineDistance computes the minimum distance between two polylines,
// checking every segment pair endpoint-to-segment both ways.
func PolylineDistance(a, b []Point2D) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	check := func(pts, segs []Point2D) {
		for _, p := range pts {
			if len(segs) == 1 {
				if d := p.Distance(segs[0]); d < best {
					best = d
				}
				continue
			}
			for i := 0; i < len(segs)-1; i++ {
				if d := PointToSegmentDistance(p.X, p.Y, segs[i], segs[i+1]); d < best {
					best = d
				}
			}
		}
	}
	check(a, b)
	check(b, a)
	return best
}

// ShoelaceArea computes the signed area of a closed ring. Positive for
// counter-clockwise winding.
func ShoelaceArea(ring []Point2D) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}
