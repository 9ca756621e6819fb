package fill

import (
	"math"
	"testing"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

func TestCircularity(t *testing.T) {
	circle := poly.Circle(geometry.Point2D{}, 2)
	if got := circularity(circle.Outer); got < 0.98 {
		t.Errorf("circle circularity = %v, want near 1", got)
	}

	sq := square(0, 0, 4)
	want := math.Pi / 4
	if got := circularity(sq.Outer); math.Abs(got-want) > 0.01 {
		t.Errorf("square circularity = %v, want %v", got, want)
	}

	thin := poly.Polygon{Outer: poly.Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0.1}, {X: 0, Y: 0.1},
	}}
	if got := circularity(thin.Outer); got > 0.1 {
		t.Errorf("strip circularity = %v, want near 0", got)
	}
}

func TestIsThin(t *testing.T) {
	g := &generator{opts: DefaultOptions()}
	g.opts.LineSpacing = 0.5

	tests := []struct {
		name string
		p    poly.Polygon
		want bool
	}{
		{"wide square", square(0, 0, 5), false},
		{"narrow strip", poly.Polygon{Outer: poly.Ring{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0.3}, {X: 0, Y: 0.3},
		}}, true},
		{"sub-spacing blob", square(0, 0, 0.2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.isThin(tt.p); got != tt.want {
				t.Errorf("isThin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectAnnulus(t *testing.T) {
	g := &generator{opts: DefaultOptions()}
	g.opts.LineSpacing = 0.1

	ringAround := func(outerR, innerR float64) poly.Polygon {
		outer := poly.Circle(geometry.Point2D{}, outerR)
		inner := poly.Circle(geometry.Point2D{}, innerR)
		diff := poly.Difference([]poly.Polygon{outer}, []poly.Polygon{inner})
		if len(diff) != 1 {
			t.Fatalf("ring construction produced %d polygons", len(diff))
		}
		return diff[0]
	}

	t.Run("narrow concentric ring", func(t *testing.T) {
		a, ok := g.detectAnnulus(ringAround(5.1, 5.0))
		if !ok {
			t.Fatal("narrow ring not detected as annulus")
		}
		if math.Abs(a.meanRadius-5.05) > 0.01 {
			t.Errorf("mean radius = %v, want 5.05", a.meanRadius)
		}
	})

	t.Run("wide ring rejected", func(t *testing.T) {
		if _, ok := g.detectAnnulus(ringAround(6, 5)); ok {
			t.Error("gap of 10 spacings detected as annulus")
		}
	})

	t.Run("no hole rejected", func(t *testing.T) {
		if _, ok := g.detectAnnulus(square(0, 0, 5)); ok {
			t.Error("solid square detected as annulus")
		}
	})

	t.Run("square hole rejected", func(t *testing.T) {
		p := square(0, 0, 10)
		p.Holes = []poly.Ring{square(2, 2, 6).Outer}
		if _, ok := g.detectAnnulus(p); ok {
			t.Error("square hole detected as annulus")
		}
	})

	t.Run("uneven outer vertex density", func(t *testing.T) {
		// Eroded boundaries carry much denser vertex runs along corner
		// arcs than along straight edges. The concentricity check must
		// not mistake that sampling bias for eccentricity.
		var outer poly.Ring
		for i := 0; i < 300; i++ {
			a := float64(i) * (math.Pi / 2) / 300
			outer = append(outer, geometry.Point2D{X: 5.1 * math.Cos(a), Y: 5.1 * math.Sin(a)})
		}
		for i := 0; i < 90; i++ {
			a := math.Pi/2 + float64(i)*(3*math.Pi/2)/90
			outer = append(outer, geometry.Point2D{X: 5.1 * math.Cos(a), Y: 5.1 * math.Sin(a)})
		}
		p := poly.Polygon{
			Outer: outer,
			Holes: []poly.Ring{poly.Circle(geometry.Point2D{}, 5.0).Outer},
		}

		a, ok := g.detectAnnulus(p)
		if !ok {
			t.Fatal("concentric ring with uneven vertex density not detected as annulus")
		}
		if math.Abs(a.meanRadius-5.05) > 0.02 {
			t.Errorf("mean radius = %v, want near 5.05", a.meanRadius)
		}
	})

	t.Run("eccentric hole rejected", func(t *testing.T) {
		outer := poly.Circle(geometry.Point2D{}, 5.1)
		inner := poly.Circle(geometry.Point2D{X: 0.08}, 5.0)
		diff := poly.Difference([]poly.Polygon{outer}, []poly.Polygon{inner})
		if len(diff) != 1 {
			t.Skip("eccentric ring did not survive as one region")
		}
		if _, ok := g.detectAnnulus(diff[0]); ok {
			t.Error("eccentric ring detected as annulus")
		}
	})
}

func TestSkeletonOfThinStrip(t *testing.T) {
	strip := poly.Polygon{Outer: poly.Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0.3}, {X: 0, Y: 0.3},
	}}

	paths, ok := skeletonPaths(strip, 0.5)
	if !ok || len(paths) == 0 {
		t.Fatal("no skeleton extracted")
	}

	var total float64
	for _, pts := range paths {
		total += geometry.PathLength(pts)
		for _, p := range pts {
			if p.Y < -0.2 || p.Y > 0.5 {
				t.Fatalf("skeleton point %v strays from the strip", p)
			}
		}
	}
	if total < 8 || total > 11 {
		t.Errorf("skeleton length = %v, want close to 10", total)
	}
}

func TestSkeletonOfLShape(t *testing.T) {
	l := poly.Polygon{Outer: poly.Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0.3},
		{X: 0.3, Y: 0.3}, {X: 0.3, Y: 10}, {X: 0, Y: 10},
	}}

	paths, ok := skeletonPaths(l, 0.5)
	if !ok || len(paths) == 0 {
		t.Fatal("no skeleton extracted")
	}
	var total float64
	for _, pts := range paths {
		total += geometry.PathLength(pts)
	}
	// Both legs are about 10 mm long.
	if total < 15 || total > 22 {
		t.Errorf("skeleton length = %v, want close to 20", total)
	}
}

func TestCentroidStroke(t *testing.T) {
	wide := square(0, 0, 0.2)
	pts := centroidStroke(wide)
	if len(pts) != 2 {
		t.Fatalf("centroidStroke returned %d points", len(pts))
	}
	mid := geometry.Point2D{X: 0.1, Y: 0.1}
	if geometry.Interpolate(pts, 0.5).Distance(mid) > 1e-9 {
		t.Errorf("stroke not centered on %v", mid)
	}
}
