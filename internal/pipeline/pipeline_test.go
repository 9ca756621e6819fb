package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"laserresist/internal/config"
	"laserresist/pkg/geometry"
)

const testGerber = `%FSLAX35Y35*%
%MOMM*%
%ADD10C,2.0*%
%ADD11C,0.3*%
D10*
X0Y0D03*
X1000000Y0D03*
D11*
X0Y0D02*
X1000000Y0D01*
M02*
`

const testDrill = `M48
METRIC
T1C0.8
%
T1
X0.0Y0.0
X10.0Y0.0
M30
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bloom.Enabled = false
	cfg.Fill.LineSpacing = 0.2
	cfg.Fill.InitialOffset = 0.1

	in := Inputs{
		GerberPath: writeFile(t, dir, "board.gbr", testGerber),
		DrillPath:  writeFile(t, dir, "board.drl", testDrill),
		OutputPath: filepath.Join(dir, "board.gcode"),
		ImagePath:  filepath.Join(dir, "board.png"),
		ReportPath: filepath.Join(dir, "report.json"),
	}

	report, err := Run(in, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.CopperRegions == 0 {
		t.Error("no copper regions in report")
	}
	if report.DrillCount != 2 {
		t.Errorf("drill count = %d, want 2", report.DrillCount)
	}
	if report.PathCount == 0 {
		t.Error("no paths generated")
	}
	if report.TotalLength <= 0 {
		t.Error("total length not positive")
	}

	gcodeOut, err := os.ReadFile(in.OutputPath)
	if err != nil {
		t.Fatalf("read gcode output: %v", err)
	}
	for _, want := range []string{"G21", "M3", "M5", "M2"} {
		if !strings.Contains(string(gcodeOut), want) {
			t.Errorf("gcode missing %q", want)
		}
	}

	if _, err := os.Stat(in.ImagePath); err != nil {
		t.Errorf("preview image not written: %v", err)
	}

	data, err := os.ReadFile(in.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var roundTrip Report
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if roundTrip.PathCount != report.PathCount {
		t.Errorf("report path count %d does not match run %d", roundTrip.PathCount, report.PathCount)
	}
}

func TestRunPinAligned(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bloom.Enabled = false
	cfg.Fill.LineSpacing = 0.2
	cfg.Fill.InitialOffset = 0.1

	in := Inputs{
		GerberPath:   writeFile(t, dir, "board.gbr", testGerber),
		DrillPath:    writeFile(t, dir, "board.drl", testDrill),
		OutputPath:   filepath.Join(dir, "board.gcode"),
		TemplatePath: filepath.Join(dir, "template.scad"),
		// Marks sit slightly off the drill centers and must snap.
		PinMarks: []geometry.Point2D{{X: 0.2, Y: 0.1}, {X: 9.8, Y: -0.1}},
	}

	report, err := Run(in, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.PinAligned {
		t.Error("report does not record pin alignment")
	}
	// Both pins sit at the same height, so the first counts as the top
	// pin and the board is spun half a turn.
	if !report.Rotated180 {
		t.Error("equal-height pins should rotate the board")
	}
	if report.TemplateFile != in.TemplatePath {
		t.Errorf("template file = %q, want %q", report.TemplateFile, in.TemplatePath)
	}

	scad, err := os.ReadFile(in.TemplatePath)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	for _, want := range []string{"pin1_hole_d = 1.0000;", "cylinder"} {
		if !strings.Contains(string(scad), want) {
			t.Errorf("template missing %q", want)
		}
	}
}

func TestRunPinMarkFarFromDrill(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bloom.Enabled = false
	cfg.Fill.LineSpacing = 0.2

	_, err := Run(Inputs{
		GerberPath: writeFile(t, dir, "board.gbr", testGerber),
		DrillPath:  writeFile(t, dir, "board.drl", testDrill),
		OutputPath: filepath.Join(dir, "board.gcode"),
		PinMarks:   []geometry.Point2D{{X: 50, Y: 50}, {X: 0, Y: 0}},
	}, cfg)
	if err == nil {
		t.Fatal("pin mark far from every drill did not error")
	}
}

func TestRunMissingGerber(t *testing.T) {
	cfg := config.Default()
	cfg.Bloom.Enabled = false
	_, err := Run(Inputs{
		GerberPath: filepath.Join(t.TempDir(), "absent.gbr"),
		OutputPath: filepath.Join(t.TempDir(), "out.gcode"),
	}, cfg)
	if err == nil {
		t.Fatal("missing gerber file did not error")
	}
}

func TestRunWithoutDrill(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Bloom.Enabled = false
	cfg.Fill.LineSpacing = 0.2

	report, err := Run(Inputs{
		GerberPath: writeFile(t, dir, "board.gbr", testGerber),
		OutputPath: filepath.Join(dir, "board.gcode"),
	}, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.DrillCount != 0 {
		t.Errorf("drill count = %d, want 0", report.DrillCount)
	}
	if report.PathCount == 0 {
		t.Error("no paths generated")
	}
}
