package poly

import (
	"math"
	"testing"

	"laserresist/pkg/geometry"
)

func square(x, y, size float64) Polygon {
	return Polygon{Outer: Ring{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}}
}

func TestRingArea(t *testing.T) {
	sq := square(0, 0, 4)
	if got := sq.Outer.Area(); math.Abs(got-16) > 1e-9 {
		t.Errorf("square area = %v, want 16", got)
	}
	if got := sq.Outer.Perimeter(); math.Abs(got-16) > 1e-9 {
		t.Errorf("square perimeter = %v, want 16", got)
	}
}

func TestPolygonAreaWithHole(t *testing.T) {
	p := square(0, 0, 10)
	hole := square(4, 4, 2)
	p.Holes = []Ring{hole.Outer}
	if got := p.Area(); math.Abs(got-96) > 1e-9 {
		t.Errorf("area with hole = %v, want 96", got)
	}
}

func TestContainsPoint(t *testing.T) {
	p := square(0, 0, 10)
	p.Holes = []Ring{square(4, 4, 2).Outer}

	tests := []struct {
		name string
		pt   geometry.Point2D
		want bool
	}{
		{"inside", geometry.Point2D{X: 1, Y: 1}, true},
		{"outside", geometry.Point2D{X: 11, Y: 5}, false},
		{"inside hole", geometry.Point2D{X: 5, Y: 5}, false},
		{"between hole and edge", geometry.Point2D{X: 2, Y: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ContainsPoint(tt.pt); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestUnionMergesOverlapping(t *testing.T) {
	polys := []Polygon{square(0, 0, 10), square(5, 0, 10)}
	got := Union(polys)
	if len(got) != 1 {
		t.Fatalf("Union produced %d polygons, want 1", len(got))
	}
	if area := got[0].Area(); math.Abs(area-150) > 0.1 {
		t.Errorf("union area = %v, want 150", area)
	}
}

func TestUnionKeepsDisjoint(t *testing.T) {
	polys := []Polygon{square(0, 0, 5), square(20, 0, 5)}
	got := Union(polys)
	if len(got) != 2 {
		t.Errorf("Union produced %d polygons, want 2", len(got))
	}
}

func TestDifferenceCreatesHole(t *testing.T) {
	got := Difference([]Polygon{square(0, 0, 10)}, []Polygon{square(4, 4, 2)})
	if len(got) != 1 {
		t.Fatalf("Difference produced %d polygons, want 1", len(got))
	}
	if len(got[0].Holes) != 1 {
		t.Fatalf("Difference produced %d holes, want 1", len(got[0].Holes))
	}
	if area := got[0].Area(); math.Abs(area-96) > 0.1 {
		t.Errorf("area after subtraction = %v, want 96", area)
	}
}

func TestDifferenceSplitsRegion(t *testing.T) {
	// A bar cut through the middle splits the square in two.
	bar := Polygon{Outer: Ring{
		{X: 4, Y: -1}, {X: 6, Y: -1}, {X: 6, Y: 11}, {X: 4, Y: 11},
	}}
	got := Difference([]Polygon{square(0, 0, 10)}, []Polygon{bar})
	if len(got) != 2 {
		t.Errorf("Difference produced %d polygons, want 2", len(got))
	}
}

func TestOffsetInward(t *testing.T) {
	got := OffsetInward(square(0, 0, 10), 1)
	if len(got) != 1 {
		t.Fatalf("OffsetInward produced %d polygons, want 1", len(got))
	}
	if area := got[0].Area(); math.Abs(area-64) > 0.1 {
		t.Errorf("eroded area = %v, want 64", area)
	}
	b := got[0].Bounds()
	if math.Abs(b.X-1) > 0.01 || math.Abs(b.Width-8) > 0.02 {
		t.Errorf("eroded bounds = %+v, want x=1 width=8", b)
	}
}

func TestOffsetInwardVanishes(t *testing.T) {
	got := OffsetInward(square(0, 0, 2), 1.5)
	if len(got) != 0 {
		t.Errorf("over-erosion produced %d polygons, want 0", len(got))
	}
}

func TestOffsetInwardSplitsDumbbell(t *testing.T) {
	// Two 10x10 lobes joined by a 1-wide neck. Eroding by 1 removes
	// the neck and leaves two separate regions.
	dumbbell := Polygon{Outer: Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4.5}, {X: 20, Y: 4.5},
		{X: 20, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 10}, {X: 20, Y: 10},
		{X: 20, Y: 5.5}, {X: 10, Y: 5.5}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}}
	got := OffsetInward(dumbbell, 1)
	if len(got) != 2 {
		t.Errorf("neck erosion produced %d polygons, want 2", len(got))
	}
}

func TestCircleArea(t *testing.T) {
	c := Circle(geometry.Point2D{X: 3, Y: 4}, 2)
	want := math.Pi * 4
	// Inscribed polygon area is slightly under pi*r^2.
	if got := c.Area(); got > want || got < want*0.98 {
		t.Errorf("circle area = %v, want slightly under %v", got, want)
	}
	if !c.ContainsPoint(geometry.Point2D{X: 3, Y: 4}) {
		t.Error("circle does not contain its center")
	}
}

func TestBufferPolyline(t *testing.T) {
	line := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}
	got := BufferPolyline(line, 2)
	if len(got) != 1 {
		t.Fatalf("BufferPolyline produced %d polygons, want 1", len(got))
	}
	// 10x2 rectangle body plus two radius-1 end caps.
	want := 20 + math.Pi
	if area := got[0].Area(); math.Abs(area-want) > 0.5 {
		t.Errorf("buffered area = %v, want about %v", area, want)
	}
}

func TestBufferRing(t *testing.T) {
	ring := square(0, 0, 10).Outer
	got := BufferRing(ring, 1)
	if len(got) != 1 {
		t.Fatalf("BufferRing produced %d polygons, want 1", len(got))
	}
	if len(got[0].Holes) != 1 {
		t.Errorf("buffered ring has %d holes, want 1", len(got[0].Holes))
	}
	// The band should cover the outline but not the interior.
	if !got[0].ContainsPoint(geometry.Point2D{X: 0, Y: 5}) {
		t.Error("band does not cover the outline")
	}
	if got[0].ContainsPoint(geometry.Point2D{X: 5, Y: 5}) {
		t.Error("band covers the interior")
	}
}

func TestRepairSelfIntersecting(t *testing.T) {
	// Bowtie: two triangles sharing a crossing point.
	bowtie := Polygon{Outer: Ring{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
	}}
	got := Repair(bowtie)
	if len(got) != 2 {
		t.Fatalf("Repair produced %d polygons, want 2", len(got))
	}
	total := TotalArea(got)
	if math.Abs(total-50) > 0.5 {
		t.Errorf("repaired area = %v, want 50", total)
	}
}

func TestSubtractFromPolyline(t *testing.T) {
	line := []geometry.Point2D{{X: 0, Y: 5}, {X: 30, Y: 5}}
	blocker := []Polygon{square(10, 0, 10)}

	segs := SubtractFromPolyline(line, blocker)
	if len(segs) != 2 {
		t.Fatalf("SubtractFromPolyline produced %d segments, want 2", len(segs))
	}
	var total float64
	for _, s := range segs {
		total += geometry.PathLength(s)
	}
	if math.Abs(total-20) > 0.1 {
		t.Errorf("surviving length = %v, want 20", total)
	}
}

func TestSubtractFromPolylineNoClip(t *testing.T) {
	line := []geometry.Point2D{{X: 0, Y: 0}, {X: 5, Y: 0}}
	segs := SubtractFromPolyline(line, nil)
	if len(segs) != 1 {
		t.Fatalf("empty clip produced %d segments, want 1", len(segs))
	}
	if geometry.PathLength(segs[0]) != 5 {
		t.Errorf("surviving length = %v, want 5", geometry.PathLength(segs[0]))
	}
}

func TestIntersectPolyline(t *testing.T) {
	line := []geometry.Point2D{{X: 0, Y: 5}, {X: 30, Y: 5}}
	clip := []Polygon{square(10, 0, 10)}

	segs := IntersectPolyline(line, clip)
	if len(segs) != 1 {
		t.Fatalf("IntersectPolyline produced %d segments, want 1", len(segs))
	}
	if got := geometry.PathLength(segs[0]); math.Abs(got-10) > 0.1 {
		t.Errorf("kept length = %v, want 10", got)
	}
}

func TestBoundsAndTotalArea(t *testing.T) {
	polys := []Polygon{square(0, 0, 5), square(10, 10, 5)}
	b := Bounds(polys)
	if b.X != 0 || b.Y != 0 || b.Width != 15 || b.Height != 15 {
		t.Errorf("Bounds = %+v", b)
	}
	if got := TotalArea(polys); math.Abs(got-50) > 1e-9 {
		t.Errorf("TotalArea = %v, want 50", got)
	}
}

func TestSamplePoints(t *testing.T) {
	pts := SamplePoints(square(0, 0, 10), 1)
	if len(pts) == 0 {
		t.Fatal("SamplePoints returned no points")
	}
	for _, pt := range pts {
		if pt.X < 0 || pt.X > 10 || pt.Y < 0 || pt.Y > 10 {
			t.Fatalf("sample %v outside the polygon", pt)
		}
	}
}
