package geometry

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point2D
		want float64
	}{
		{"same point", Point2D{1, 2}, Point2D{1, 2}, 0},
		{"unit x", Point2D{0, 0}, Point2D{1, 0}, 1},
		{"3-4-5", Point2D{0, 0}, Point2D{3, 4}, 5},
		{"negative coords", Point2D{-1, -1}, Point2D{2, 3}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Distance(tt.b); math.Abs(got-tt.want) > tol {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectDistanceTo(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	tests := []struct {
		name  string
		other Rect
		want  float64
	}{
		{"overlapping", NewRect(5, 5, 10, 10), 0},
		{"touching edge", NewRect(10, 0, 5, 5), 0},
		{"to the right", NewRect(13, 0, 5, 5), 3},
		{"diagonal 3-4", NewRect(13, 14, 5, 5), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.DistanceTo(tt.other); math.Abs(got-tt.want) > tol {
				t.Errorf("DistanceTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectExpand(t *testing.T) {
	r := NewRect(2, 3, 4, 5).Expand(1)
	if r.X != 1 || r.Y != 2 || r.Width != 6 || r.Height != 7 {
		t.Errorf("Expand(1) = %+v", r)
	}
}

func TestPathLength(t *testing.T) {
	pts := []Point2D{{0, 0}, {3, 0}, {3, 4}}
	if got := PathLength(pts); math.Abs(got-7) > tol {
		t.Errorf("PathLength = %v, want 7", got)
	}
	if got := RingLength(pts); math.Abs(got-12) > tol {
		t.Errorf("RingLength = %v, want 12", got)
	}
}

func TestInterpolate(t *testing.T) {
	pts := []Point2D{{0, 0}, {10, 0}}
	tests := []struct {
		t    float64
		want Point2D
	}{
		{0, Point2D{0, 0}},
		{0.5, Point2D{5, 0}},
		{1, Point2D{10, 0}},
	}
	for _, tt := range tests {
		got := Interpolate(pts, tt.t)
		if got.Distance(tt.want) > tol {
			t.Errorf("Interpolate(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestResample(t *testing.T) {
	pts := []Point2D{{0, 0}, {1, 0}, {10, 0}}
	got := Resample(pts, 11)
	if len(got) != 11 {
		t.Fatalf("Resample returned %d points, want 11", len(got))
	}
	for i, p := range got {
		want := float64(i)
		if math.Abs(p.X-want) > 1e-6 || math.Abs(p.Y) > 1e-6 {
			t.Errorf("point %d = %v, want (%v, 0)", i, p, want)
		}
	}
}

func TestTrimEnds(t *testing.T) {
	pts := []Point2D{{0, 0}, {10, 0}}

	got := TrimEnds(pts, 2)
	if got == nil {
		t.Fatal("TrimEnds returned nil for a long segment")
	}
	if got[0].Distance(Point2D{2, 0}) > 1e-6 {
		t.Errorf("start = %v, want (2, 0)", got[0])
	}
	if got[len(got)-1].Distance(Point2D{8, 0}) > 1e-6 {
		t.Errorf("end = %v, want (8, 0)", got[len(got)-1])
	}

	if got := TrimEnds(pts, 5); got != nil {
		t.Errorf("TrimEnds past the midpoint = %v, want nil", got)
	}
}

func TestSimplify(t *testing.T) {
	// Collinear middle points collapse.
	pts := []Point2D{{0, 0}, {1, 0.001}, {2, -0.001}, {3, 0}}
	got := Simplify(pts, 0.01)
	if len(got) != 2 {
		t.Errorf("Simplify kept %d points, want 2", len(got))
	}

	// A real corner survives.
	corner := []Point2D{{0, 0}, {5, 0}, {5, 5}}
	got = Simplify(corner, 0.01)
	if len(got) != 3 {
		t.Errorf("Simplify dropped a corner, kept %d points", len(got))
	}
}

func TestPolylineDistance(t *testing.T) {
	a := []Point2D{{0, 0}, {10, 0}}
	b := []Point2D{{0, 3}, {10, 3}}
	if got := PolylineDistance(a, b); math.Abs(got-3) > 1e-6 {
		t.Errorf("parallel lines distance = %v, want 3", got)
	}

	// Distance is measured vertex-to-segment, so for crossing lines it
	// is the closest vertex approach, not zero.
	crossing := []Point2D{{5, -1}, {5, 1}}
	if got := PolylineDistance(a, crossing); math.Abs(got-1) > 1e-6 {
		t.Errorf("crossing lines distance = %v, want 1", got)
	}
}

func TestShoelaceArea(t *testing.T) {
	ccw := []Point2D{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	if got := ShoelaceArea(ccw); math.Abs(got-12) > tol {
		t.Errorf("ccw area = %v, want 12", got)
	}
	cw := []Point2D{{0, 0}, {0, 3}, {4, 3}, {4, 0}}
	if got := ShoelaceArea(cw); math.Abs(got+12) > tol {
		t.Errorf("cw area = %v, want -12", got)
	}
}

func TestCentroid(t *testing.T) {
	pts := []Point2D{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	c := Centroid(pts)
	if c.Distance(Point2D{2, 2}) > tol {
		t.Errorf("Centroid = %v, want (2, 2)", c)
	}
}
