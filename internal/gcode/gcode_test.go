package gcode

import (
	"errors"
	"strings"
	"testing"

	"laserresist/internal/fill"
	"laserresist/pkg/geometry"
)

func TestWriteBasicProgram(t *testing.T) {
	paths := []fill.Path{{
		Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Kind:   fill.Centerline,
	}}

	var buf strings.Builder
	if err := Write(&buf, paths, DefaultOptions()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"G21", "G90", "M3 S1000", "G1 X10.0000 Y0.0000", "M5", "M2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Laser must be off before the first rapid.
	m3 := strings.Index(out, "M3")
	g0 := strings.Index(out, "G0 ")
	if g0 < 0 || m3 < 0 || g0 > m3 {
		t.Error("first rapid does not precede laser on")
	}
}

func TestWriteClosedPathReturnsToStart(t *testing.T) {
	paths := []fill.Path{{
		Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}},
		Kind:   fill.ContourRing,
		Closed: true,
	}}

	var buf strings.Builder
	if err := Write(&buf, paths, DefaultOptions()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// The closing G1 back to the start must be present.
	lines := strings.Split(buf.String(), "\n")
	var closing bool
	for i, line := range lines {
		if strings.HasPrefix(line, "G1 X0.0000 Y0.0000") && i > 2 {
			closing = true
		}
	}
	if !closing {
		t.Error("closed path does not return to its start point")
	}
}

func TestWriteDoubleExposure(t *testing.T) {
	paths := []fill.Path{{
		Points:        []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Kind:          fill.Centerline,
		ExposureCount: 2,
	}}

	var buf strings.Builder
	if err := Write(&buf, paths, DefaultOptions()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, "M3 S1000"); got != 2 {
		t.Errorf("laser-on count = %d, want 2 passes", got)
	}
	if got := strings.Count(out, "G1 X10.0000 Y0.0000"); got != 2 {
		t.Errorf("exposure move count = %d, want 2", got)
	}
}

func TestWriteSkipsDegeneratePaths(t *testing.T) {
	paths := []fill.Path{
		{Points: []geometry.Point2D{{X: 1, Y: 1}}, Kind: fill.PadMarker},
		{Points: nil, Kind: fill.Centerline},
	}

	var buf strings.Builder
	if err := Write(&buf, paths, DefaultOptions()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.Contains(buf.String(), "G1 ") {
		t.Error("degenerate paths produced exposure moves")
	}
}

func TestWriteComments(t *testing.T) {
	paths := []fill.Path{{
		Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}},
		Kind:   fill.AnnularRing,
		Closed: true,
	}}

	opts := DefaultOptions()
	var buf strings.Builder
	if err := Write(&buf, paths, opts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "; path 1: annular") {
		t.Error("path comment missing")
	}

	opts.PathComments = false
	buf.Reset()
	if err := Write(&buf, paths, opts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.Contains(buf.String(), "; path 1") {
		t.Error("path comment emitted with comments disabled")
	}
}

func TestWritePropagatesWriterError(t *testing.T) {
	paths := []fill.Path{{
		Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}},
	}}
	if err := Write(failWriter{}, paths, DefaultOptions()); err == nil {
		t.Fatal("writer failure not propagated")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
