// Package pipeline runs the full exposure workflow: parse the board
// inputs, generate the contour fill, simulate bloom, order the paths,
// and emit G-code plus optional preview images and a run report.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"laserresist/internal/bloom"
	"laserresist/internal/config"
	"laserresist/internal/fill"
	"laserresist/internal/gcode"
	"laserresist/internal/gerber"
	"laserresist/internal/plan"
	"laserresist/internal/poly"
	"laserresist/internal/render"
	"laserresist/internal/template"
	"laserresist/pkg/geometry"
)

// Inputs names the files of one run. Everything except GerberPath and
// OutputPath is optional.
type Inputs struct {
	GerberPath  string
	DrillPath   string
	OutlinePath string
	OutputPath  string
	ImagePath   string
	HeatmapPath string
	ReportPath  string

	// PinMarks holds zero or two approximate alignment pin positions.
	// Each is snapped to the nearest drill hole; the run output is then
	// transformed so the first pin becomes the machine origin.
	PinMarks []geometry.Point2D
	// TemplatePath receives an OpenSCAD drilling template for the
	// selected pins.
	TemplatePath string
}

// Report summarizes a completed run. It is written as JSON when
// ReportPath is set.
type Report struct {
	Generated time.Time `json:"generated"`

	GerberFile string `json:"gerber_file"`
	DrillFile  string `json:"drill_file,omitempty"`
	OutputFile string `json:"output_file"`

	CopperRegions int `json:"copper_regions"`
	DrillCount    int `json:"drill_count"`
	TraceCount    int `json:"trace_count"`

	PathCount     int            `json:"path_count"`
	PathsByKind   map[string]int `json:"paths_by_kind"`
	IsolatedPaths int            `json:"isolated_paths"`
	TotalLength   float64        `json:"total_length_mm"`
	TravelLength  float64        `json:"travel_length_mm"`
	UncoveredArea float64        `json:"uncovered_area_mm2"`

	PinAligned   bool   `json:"pin_aligned,omitempty"`
	Rotated180   bool   `json:"board_rotated_180,omitempty"`
	TemplateFile string `json:"template_file,omitempty"`

	BloomEnabled      bool     `json:"bloom_enabled"`
	BloomSkipped      bool     `json:"bloom_skipped,omitempty"`
	FlaggedTraces     int      `json:"flagged_traces"`
	EnergyThreshold   float64  `json:"energy_threshold,omitempty"`
	CompensationPaths int      `json:"compensation_paths"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Run executes the full workflow and returns its report. Bloom
// simulation failures due to an unavailable compute backend degrade to
// a warning; every other stage error aborts the run.
func Run(in Inputs, cfg config.Config) (*Report, error) {
	report := &Report{
		Generated:  time.Now(),
		GerberFile: in.GerberPath,
		DrillFile:  in.DrillPath,
		OutputFile: in.OutputPath,
	}

	log.Printf("Parsing copper layer %s", in.GerberPath)
	layer, err := gerber.ParseFile(in.GerberPath)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(report.Warnings, layer.Warnings...)

	copper := layer.Copper
	var drills []poly.Polygon
	var drillHoles []gerber.Drill
	if in.DrillPath != "" {
		log.Printf("Parsing drill file %s", in.DrillPath)
		drillFile, err := gerber.ParseDrillFile(in.DrillPath)
		if err != nil {
			return nil, err
		}
		report.Warnings = append(report.Warnings, drillFile.Warnings...)
		report.DrillCount = len(drillFile.Drills)
		drillHoles = drillFile.Drills
		drills = drillFile.Polygons()
		copper = poly.Difference(copper, drills)
	}
	report.CopperRegions = len(copper)
	report.TraceCount = len(layer.Traces)

	traces := make([]fill.Trace, len(layer.Traces))
	for i, t := range layer.Traces {
		traces[i] = fill.Trace{Points: t.Points, Width: t.Width}
	}

	log.Printf("Generating contour fill for %d copper regions", len(copper))
	fillOpts := cfg.FillOptions()
	result, err := fill.Generate(copper, traces, fillOpts)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		report.Warnings = append(report.Warnings, w.String())
	}
	report.IsolatedPaths = len(result.Isolated)

	paths := result.All()
	bounds := poly.Bounds(copper)
	if in.OutlinePath != "" {
		log.Printf("Parsing board outline %s", in.OutlinePath)
		outline, err := gerber.ParseFile(in.OutlinePath)
		if err != nil {
			return nil, err
		}
		report.Warnings = append(report.Warnings, outline.Warnings...)
		// The outline only fixes the working area; copper stays as parsed.
		if outline.Bounds.Width > 0 && outline.Bounds.Height > 0 {
			bounds = outline.Bounds
		}
	}

	report.BloomEnabled = cfg.Bloom.Enabled
	if cfg.Bloom.Enabled {
		log.Printf("Simulating bloom over %d paths", len(paths))
		outcome, err := bloom.Run(paths, traces, bounds, drills, cfg.BloomOptions())
		var unavailable *bloom.ComputeUnavailableError
		switch {
		case errors.As(err, &unavailable):
			report.BloomSkipped = true
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("bloom simulation skipped: %s", unavailable.Reason))
			log.Printf("Bloom simulation skipped: %s", unavailable.Reason)
		case err != nil:
			return nil, err
		default:
			report.FlaggedTraces = len(outcome.Classification.Flagged)
			report.EnergyThreshold = outcome.Classification.Threshold
			report.CompensationPaths = len(outcome.Compensation)
			paths = append(paths, outcome.Compensation...)
			if in.HeatmapPath != "" {
				log.Printf("Writing energy heatmap to %s", in.HeatmapPath)
				img := render.Heatmap(outcome.Grid, cfg.RenderOptions())
				if err := render.SavePNG(in.HeatmapPath, img); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(in.PinMarks) == 2 {
		pin1, err := snapPin(drillHoles, in.PinMarks[0])
		if err != nil {
			return nil, err
		}
		pin2, err := snapPin(drillHoles, in.PinMarks[1])
		if err != nil {
			return nil, err
		}
		if in.TemplatePath != "" {
			// The template is drilled in board coordinates, before the
			// table transform moves everything to the pin origin.
			log.Printf("Writing drilling template to %s", in.TemplatePath)
			if err := template.WriteSCADFile(in.TemplatePath, bounds, pin1, pin2, template.DefaultOptions()); err != nil {
				return nil, err
			}
			report.TemplateFile = in.TemplatePath
		}
		tr := template.AlignPins(pin1, pin2)
		paths = tr.Apply(paths)
		copper = tr.Polygons(copper)
		bounds = tr.Rect(bounds)
		report.PinAligned = true
		report.Rotated180 = tr.Rotate180
		log.Printf("Aligned to pin at (%.2f, %.2f), rotated 180: %v",
			tr.Origin.X, tr.Origin.Y, tr.Rotate180)
	} else if len(in.PinMarks) != 0 {
		return nil, fmt.Errorf("pin alignment needs exactly 2 pin marks, got %d", len(in.PinMarks))
	}

	origin := geometry.Point2D{X: bounds.X, Y: bounds.Y}
	paths = plan.Order(paths, origin)
	report.TravelLength = plan.TravelLength(paths, origin)

	summary := fill.Summarize(paths)
	report.PathCount = summary.Count
	report.TotalLength = summary.TotalLength
	report.PathsByKind = summary.ByKind
	report.UncoveredArea = fill.UncoveredArea(copper, paths, fillOpts)

	log.Printf("Writing G-code to %s", in.OutputPath)
	out, err := os.Create(in.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", in.OutputPath, err)
	}
	defer out.Close()
	if err := gcode.Write(out, paths, cfg.GCodeOptions()); err != nil {
		return nil, fmt.Errorf("write gcode: %w", err)
	}

	if in.ImagePath != "" {
		log.Printf("Writing path preview to %s", in.ImagePath)
		img := render.Paths(copper, paths, bounds, cfg.RenderOptions())
		if err := render.SavePNG(in.ImagePath, img); err != nil {
			return nil, err
		}
	}

	if in.ReportPath != "" {
		if err := report.Save(in.ReportPath); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// snapPin resolves an approximate pin mark to the nearest drill hole.
func snapPin(drills []gerber.Drill, mark geometry.Point2D) (template.Pin, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, d := range drills {
		if dist := mark.Distance(d.Center); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 || bestDist > 5 {
		return template.Pin{}, fmt.Errorf("no drill hole near pin mark (%.2f, %.2f)", mark.X, mark.Y)
	}
	return template.Pin{Center: drills[best].Center, Diameter: drills[best].Diameter}, nil
}
