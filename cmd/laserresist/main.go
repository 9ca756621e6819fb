// Command laserresist converts a copper Gerber layer into a laser
// exposure G-code program using contour-offset fill with bloom
// compensation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"laserresist/internal/config"
	"laserresist/internal/pipeline"
	"laserresist/internal/template"
	"laserresist/internal/version"
	"laserresist/pkg/geometry"
)

func main() {
	gerberPath := flag.String("gerber", "", "Path to copper Gerber file (RS-274X)")
	drillPath := flag.String("drill", "", "Path to Excellon drill file (optional)")
	outlinePath := flag.String("outline", "", "Path to board outline Gerber, sets the working area (optional)")
	outputPath := flag.String("o", "", "Output G-code path (default: <gerber>.gcode)")
	configPath := flag.String("config", "laserresist.toml", "Configuration file")
	imagePath := flag.String("image", "", "Write a path preview PNG to this path")
	heatmapPath := flag.String("heatmap", "", "Write a bloom energy heatmap PNG to this path")
	reportPath := flag.String("report", "", "Write a JSON run report to this path")
	spacing := flag.Float64("spacing", 0, "Override fill line spacing in mm")
	pin1 := flag.String("pin1", "", "First alignment pin as x,y in mm, snapped to the nearest drill hole")
	pin2 := flag.String("pin2", "", "Second alignment pin as x,y in mm")
	templatePath := flag.String("template", "", "Write an OpenSCAD drilling template to this path (needs -pin1 and -pin2)")
	stlPath := flag.String("stl", "", "Render the drilling template to STL with openscad (needs -template)")
	noBloom := flag.Bool("no-bloom", false, "Skip bloom simulation and compensation")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("laserresist %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *gerberPath == "" {
		fmt.Println("Usage: laserresist -gerber <path> [-drill <path>] [-o out.gcode]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadIfExists(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *spacing > 0 {
		cfg.Fill.LineSpacing = *spacing
	}
	if *noBloom {
		cfg.Bloom.Enabled = false
	}

	var pinMarks []geometry.Point2D
	if (*pin1 == "") != (*pin2 == "") {
		fmt.Fprintln(os.Stderr, "Pin alignment needs both -pin1 and -pin2")
		os.Exit(1)
	}
	if *pin1 != "" {
		for _, s := range []string{*pin1, *pin2} {
			p, err := parsePoint(s)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Bad pin position %q: %v\n", s, err)
				os.Exit(1)
			}
			pinMarks = append(pinMarks, p)
		}
	}
	if *templatePath != "" && len(pinMarks) == 0 {
		fmt.Fprintln(os.Stderr, "-template needs -pin1 and -pin2")
		os.Exit(1)
	}

	out := *outputPath
	if out == "" {
		out = *gerberPath + ".gcode"
	}

	report, err := pipeline.Run(pipeline.Inputs{
		GerberPath:   *gerberPath,
		DrillPath:    *drillPath,
		OutlinePath:  *outlinePath,
		OutputPath:   out,
		ImagePath:    *imagePath,
		HeatmapPath:  *heatmapPath,
		ReportPath:   *reportPath,
		PinMarks:     pinMarks,
		TemplatePath: *templatePath,
	}, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}

	if *stlPath != "" {
		scad := *templatePath
		if scad == "" {
			fmt.Fprintln(os.Stderr, "-stl needs -template")
			os.Exit(1)
		}
		log.Printf("Rendering drilling template STL to %s", *stlPath)
		if err := template.RenderSTL(context.Background(), scad, *stlPath, ""); err != nil {
			fmt.Fprintf(os.Stderr, "STL rendering failed: %v\n", err)
		}
	}

	fmt.Printf("\nExposure program written to %s\n", out)
	fmt.Printf("  Copper regions: %d\n", report.CopperRegions)
	fmt.Printf("  Paths: %d (%.1f mm exposure, %.1f mm travel)\n",
		report.PathCount, report.TotalLength, report.TravelLength)
	kinds := make([]string, 0, len(report.PathsByKind))
	for kind := range report.PathsByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("    %s: %d\n", kind, report.PathsByKind[kind])
	}
	if report.BloomEnabled && !report.BloomSkipped {
		fmt.Printf("  Bloom: %d traces flagged, %d compensation paths (threshold %.4f)\n",
			report.FlaggedTraces, report.CompensationPaths, report.EnergyThreshold)
	}
	if report.PinAligned {
		fmt.Printf("  Pin aligned, board rotated 180: %v\n", report.Rotated180)
	}
	if report.TemplateFile != "" {
		fmt.Printf("  Drilling template: %s\n", report.TemplateFile)
	}
	if report.UncoveredArea > 0 {
		fmt.Printf("  Uncovered copper: %.3f mm2\n", report.UncoveredArea)
	}
	for _, w := range report.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
}

// parsePoint reads an "x,y" millimeter coordinate pair.
func parsePoint(s string) (geometry.Point2D, error) {
	var p geometry.Point2D
	if _, err := fmt.Sscanf(s, "%f,%f", &p.X, &p.Y); err != nil {
		return geometry.Point2D{}, err
	}
	return p, nil
}
