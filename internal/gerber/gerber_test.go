package gerber

import (
	"math"
	"strings"
	"testing"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

const sampleGerber = `%FSLAX35Y35*%
%MOMM*%
%ADD10C,0.8*%
%ADD11R,2.0X1.0*%
%ADD12C,0.2*%
G01*
D10*
X0Y0D03*
D11*
X1000000Y0D03*
D12*
X0Y500000D02*
X1000000Y500000D01*
M02*
`

func parseSample(t *testing.T, src string) *Layer {
	t.Helper()
	layer, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return layer
}

func TestParseFlashes(t *testing.T) {
	layer := parseSample(t, sampleGerber)

	// Circle pad at origin, rectangle pad at (10, 0), one drawn trace.
	if len(layer.Copper) == 0 {
		t.Fatal("no copper parsed")
	}

	total := poly.TotalArea(layer.Copper)
	// Circle 0.8 dia + 2.0x1.0 rectangle + 10 mm of 0.2 wide stroke.
	want := math.Pi*0.16 + 2.0 + 10*0.2
	if math.Abs(total-want) > 0.1 {
		t.Errorf("copper area = %v, want about %v", total, want)
	}

	found := false
	for _, p := range layer.Copper {
		if p.ContainsPoint(geometry.Point2D{X: 10, Y: 0}) {
			found = true
		}
	}
	if !found {
		t.Error("rectangle flash at (10, 0) missing")
	}
}

func TestParseTraces(t *testing.T) {
	layer := parseSample(t, sampleGerber)

	if len(layer.Traces) != 1 {
		t.Fatalf("parsed %d traces, want 1", len(layer.Traces))
	}
	tr := layer.Traces[0]
	if math.Abs(tr.Width-0.2) > 1e-9 {
		t.Errorf("trace width = %v, want 0.2", tr.Width)
	}
	wantStart := geometry.Point2D{X: 0, Y: 5}
	wantEnd := geometry.Point2D{X: 10, Y: 5}
	if tr.Points[0].Distance(wantStart) > 1e-6 || tr.Points[len(tr.Points)-1].Distance(wantEnd) > 1e-6 {
		t.Errorf("trace runs %v..%v, want %v..%v", tr.Points[0], tr.Points[len(tr.Points)-1], wantStart, wantEnd)
	}
}

func TestParseChainedDraws(t *testing.T) {
	src := `%FSLAX35Y35*%
%MOMM*%
%ADD10C,0.3*%
D10*
X0Y0D02*
X500000Y0D01*
X500000Y500000D01*
M02*
`
	layer := parseSample(t, src)
	if len(layer.Traces) != 1 {
		t.Fatalf("parsed %d traces, want 1 chained polyline", len(layer.Traces))
	}
	if len(layer.Traces[0].Points) != 3 {
		t.Errorf("chained trace has %d points, want 3", len(layer.Traces[0].Points))
	}
}

func TestParseRegion(t *testing.T) {
	src := `%FSLAX35Y35*%
%MOMM*%
G36*
X0Y0D02*
X1000000Y0D01*
X1000000Y1000000D01*
X0Y1000000D01*
G37*
M02*
`
	layer := parseSample(t, src)
	if len(layer.Copper) != 1 {
		t.Fatalf("region produced %d polygons, want 1", len(layer.Copper))
	}
	if area := layer.Copper[0].Area(); math.Abs(area-100) > 0.1 {
		t.Errorf("region area = %v, want 100", area)
	}
}

func TestParseClearPolarity(t *testing.T) {
	src := `%FSLAX35Y35*%
%MOMM*%
%ADD10C,4.0*%
%ADD11C,1.0*%
D10*
X0Y0D03*
%LPC*%
D11*
X0Y0D03*
%LPD*%
M02*
`
	layer := parseSample(t, src)
	if len(layer.Copper) != 1 {
		t.Fatalf("polarity fold produced %d polygons, want 1", len(layer.Copper))
	}
	if len(layer.Copper[0].Holes) != 1 {
		t.Errorf("cleared center left %d holes, want 1", len(layer.Copper[0].Holes))
	}
}

func TestParseInches(t *testing.T) {
	src := `%FSLAX24Y24*%
%MOIN*%
%ADD10C,0.1*%
D10*
X10000Y0D03*
M02*
`
	layer := parseSample(t, src)
	if len(layer.Copper) != 1 {
		t.Fatalf("parsed %d polygons, want 1", len(layer.Copper))
	}
	// 1.0 inch flash position, 0.1 inch diameter.
	c := layer.Copper[0].Bounds().Center()
	if c.Distance(geometry.Point2D{X: 25.4, Y: 0}) > 0.01 {
		t.Errorf("flash center = %v, want (25.4, 0)", c)
	}
	want := math.Pi * math.Pow(0.05*25.4, 2)
	if area := layer.Copper[0].Area(); math.Abs(area-want) > want*0.05 {
		t.Errorf("flash area = %v, want about %v", area, want)
	}
}

func TestParseUnsupportedWarns(t *testing.T) {
	src := `%FSLAX35Y35*%
%MOMM*%
%AMOUTLINE*1,1,0.5,0,0*%
%ADD10C,0.5*%
D10*
G02*
X100000Y0D01*
M02*
`
	layer := parseSample(t, src)
	if len(layer.Warnings) < 2 {
		t.Errorf("got %d warnings, want at least 2 (macro and arc)", len(layer.Warnings))
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks("%FSLAX35Y35*%G01*X1Y2D01*")
	want := []string{"%FSLAX35Y35*%", "G01", "X1Y2D01"}
	if len(blocks) != len(want) {
		t.Fatalf("splitBlocks returned %d blocks, want %d: %v", len(blocks), len(want), blocks)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %q, want %q", i, blocks[i], want[i])
		}
	}
}

func TestParseDrill(t *testing.T) {
	src := `M48
METRIC
T1C1.016
T2C3.2
%
T1
X10.0Y20.0
X15.0Y20.0
T2
X30.0Y30.0
M30
`
	df, err := ParseDrill(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseDrill() error = %v", err)
	}
	if len(df.Drills) != 3 {
		t.Fatalf("parsed %d drills, want 3", len(df.Drills))
	}
	if df.Drills[0].Diameter != 1.016 {
		t.Errorf("drill 0 diameter = %v, want 1.016", df.Drills[0].Diameter)
	}
	if df.Drills[2].Diameter != 3.2 {
		t.Errorf("drill 2 diameter = %v, want 3.2", df.Drills[2].Diameter)
	}
	if df.Drills[1].Center.Distance(geometry.Point2D{X: 15, Y: 20}) > 1e-9 {
		t.Errorf("drill 1 center = %v, want (15, 20)", df.Drills[1].Center)
	}

	polys := df.Polygons()
	if len(polys) != 3 {
		t.Fatalf("Polygons() returned %d, want 3", len(polys))
	}
	want := math.Pi * math.Pow(1.6, 2)
	if area := polys[2].Area(); math.Abs(area-want) > want*0.05 {
		t.Errorf("drill polygon area = %v, want about %v", area, want)
	}
}

func TestParseDrillInches(t *testing.T) {
	src := `M48
INCH
T1C0.04
%
T1
X1.0Y0.5
M30
`
	df, err := ParseDrill(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseDrill() error = %v", err)
	}
	if len(df.Drills) != 1 {
		t.Fatalf("parsed %d drills, want 1", len(df.Drills))
	}
	d := df.Drills[0]
	if math.Abs(d.Diameter-1.016) > 1e-9 {
		t.Errorf("diameter = %v, want 1.016", d.Diameter)
	}
	if d.Center.Distance(geometry.Point2D{X: 25.4, Y: 12.7}) > 1e-9 {
		t.Errorf("center = %v, want (25.4, 12.7)", d.Center)
	}
}

func TestParseDrillTrailingZero(t *testing.T) {
	src := `M48
METRIC
T1C0.8
%
T1
X10000Y20000
M30
`
	df, err := ParseDrill(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseDrill() error = %v", err)
	}
	if len(df.Drills) != 1 {
		t.Fatalf("parsed %d drills, want 1", len(df.Drills))
	}
	if df.Drills[0].Center.Distance(geometry.Point2D{X: 10, Y: 20}) > 1e-9 {
		t.Errorf("center = %v, want (10, 20)", df.Drills[0].Center)
	}
}

func TestParseDrillUndefinedTool(t *testing.T) {
	src := `M48
METRIC
%
T9
X1.0Y1.0
M30
`
	if _, err := ParseDrill(strings.NewReader(src)); err == nil {
		t.Fatal("selecting an undefined tool did not error")
	}
}
