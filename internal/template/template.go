// Package template supports pin alignment: two drill holes are chosen
// as physical pins on the laser table, the exposure is transformed so
// the first pin becomes the machine origin, and a 3D-printable drilling
// template is generated to hold the board on those pins.
package template

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"time"

	"laserresist/internal/fill"
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// Pin is a drill hole selected as an alignment pin.
type Pin struct {
	Center   geometry.Point2D
	Diameter float64
}

// Transform maps board coordinates onto the pin table. The first pin
// becomes the origin; when the first pin sits above the second the
// board lies upside down on the pins and is spun half a turn around the
// first pin.
type Transform struct {
	Rotate180 bool
	Origin    geometry.Point2D
}

// AlignPins derives the table transform from the selected pins. The
// first pin is the bottom pin on the laser table.
func AlignPins(pin1, pin2 Pin) Transform {
	return Transform{
		Rotate180: pin1.Center.Y >= pin2.Center.Y,
		Origin:    pin1.Center,
	}
}

// Point maps one board point into table coordinates.
func (t Transform) Point(p geometry.Point2D) geometry.Point2D {
	if t.Rotate180 {
		p = geometry.Point2D{X: 2*t.Origin.X - p.X, Y: 2*t.Origin.Y - p.Y}
	}
	return geometry.Point2D{X: p.X - t.Origin.X, Y: p.Y - t.Origin.Y}
}

// Apply returns the paths mapped into table coordinates. Kinds, flags,
// and exposure counts carry over; the input is not modified.
func (t Transform) Apply(paths []fill.Path) []fill.Path {
	out := make([]fill.Path, len(paths))
	for i, p := range paths {
		pts := make([]geometry.Point2D, len(p.Points))
		for j, pt := range p.Points {
			pts[j] = t.Point(pt)
		}
		p.Points = pts
		out[i] = p
	}
	return out
}

// Polygons maps copper polygons into table coordinates.
func (t Transform) Polygons(polys []poly.Polygon) []poly.Polygon {
	out := make([]poly.Polygon, len(polys))
	for i, p := range polys {
		q := poly.Polygon{Outer: t.ring(p.Outer)}
		for _, h := range p.Holes {
			q.Holes = append(q.Holes, t.ring(h))
		}
		out[i] = q
	}
	return out
}

func (t Transform) ring(r poly.Ring) poly.Ring {
	mapped := make(poly.Ring, len(r))
	for i, p := range r {
		mapped[i] = t.Point(p)
	}
	return mapped
}

// Rect maps a bounding box into table coordinates.
func (t Transform) Rect(b geometry.Rect) geometry.Rect {
	a := t.Point(geometry.Point2D{X: b.X, Y: b.Y})
	c := t.Point(geometry.Point2D{X: b.X + b.Width, Y: b.Y + b.Height})
	return geometry.Rect{
		X:      math.Min(a.X, c.X),
		Y:      math.Min(a.Y, c.Y),
		Width:  b.Width,
		Height: b.Height,
	}
}

// Options sizes the printed drilling template.
type Options struct {
	// BlockHeight is the base block thickness in mm.
	BlockHeight float64
	// WallThickness is the rim thickness around the board in mm.
	WallThickness float64
	// WallExtraHeight is how far the rim rises above the block in mm.
	WallExtraHeight float64
	// HolePrintTolerance widens the pin hole diameters to compensate
	// for FDM shrinkage, in mm.
	HolePrintTolerance float64
	// SafetyOffset adds clearance around the board footprint on every
	// side, in mm.
	SafetyOffset float64
}

// DefaultOptions returns template dimensions for a 1.6 mm board held by
// press-fit pins.
func DefaultOptions() Options {
	return Options{
		BlockHeight:        4,
		WallThickness:      2,
		WallExtraHeight:    1.75,
		HolePrintTolerance: 0.2,
	}
}

// WriteSCAD emits an OpenSCAD program for the drilling template: a base
// block the size of the board with a raised rim, and one hole per pin
// at the drill position. Pin positions are given in board coordinates
// and written relative to the board's lower-left corner.
func WriteSCAD(w io.Writer, bounds geometry.Rect, pin1, pin2 Pin, opts Options) error {
	ew := &errWriter{w: w}

	width := bounds.Width + 2*opts.SafetyOffset
	height := bounds.Height + 2*opts.SafetyOffset

	ew.printf("// drilling template, board %.2f x %.2f mm\n", bounds.Width, bounds.Height)
	ew.printf("// pin 1 at (%.2f, %.2f), pin 2 at (%.2f, %.2f)\n\n",
		pin1.Center.X, pin1.Center.Y, pin2.Center.X, pin2.Center.Y)

	ew.printf("board_width = %.4f;\n", width)
	ew.printf("board_height = %.4f;\n", height)
	ew.printf("block_height = %.4f;\n", opts.BlockHeight)
	ew.printf("wall_thickness = %.4f;\n", opts.WallThickness)
	ew.printf("wall_extra_height = %.4f;\n", opts.WallExtraHeight)
	ew.printf("pin1_x = %.4f;\n", pin1.Center.X-bounds.X+opts.SafetyOffset)
	ew.printf("pin1_y = %.4f;\n", pin1.Center.Y-bounds.Y+opts.SafetyOffset)
	ew.printf("pin1_hole_d = %.4f;\n", pin1.Diameter+opts.HolePrintTolerance)
	ew.printf("pin2_x = %.4f;\n", pin2.Center.X-bounds.X+opts.SafetyOffset)
	ew.printf("pin2_y = %.4f;\n", pin2.Center.Y-bounds.Y+opts.SafetyOffset)
	ew.printf("pin2_hole_d = %.4f;\n", pin2.Diameter+opts.HolePrintTolerance)
	ew.printf("$fn = 64;\n\n")

	ew.printf("difference() {\n")
	ew.printf("    union() {\n")
	ew.printf("        cube([board_width + 2*wall_thickness, board_height + 2*wall_thickness, block_height]);\n")
	ew.printf("        difference() {\n")
	ew.printf("            cube([board_width + 2*wall_thickness, board_height + 2*wall_thickness, block_height + wall_extra_height]);\n")
	ew.printf("            translate([wall_thickness, wall_thickness, block_height])\n")
	ew.printf("                cube([board_width, board_height, wall_extra_height + 1]);\n")
	ew.printf("        }\n")
	ew.printf("    }\n")
	ew.printf("    translate([wall_thickness + pin1_x, wall_thickness + pin1_y, -1])\n")
	ew.printf("        cylinder(h = block_height + wall_extra_height + 2, d = pin1_hole_d);\n")
	ew.printf("    translate([wall_thickness + pin2_x, wall_thickness + pin2_y, -1])\n")
	ew.printf("        cylinder(h = block_height + wall_extra_height + 2, d = pin2_hole_d);\n")
	ew.printf("}\n")
	return ew.err
}

// WriteSCADFile writes the template program to a file.
func WriteSCADFile(path string, bounds geometry.Rect, pin1, pin2 Pin, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create template %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteSCAD(f, bounds, pin1, pin2, opts); err != nil {
		return fmt.Errorf("write template %s: %w", path, err)
	}
	return nil
}

// RenderSTL renders a written template program to STL with the openscad
// binary. Rendering is cut off after one minute.
func RenderSTL(ctx context.Context, scadPath, stlPath, binary string) error {
	if binary == "" {
		binary = "openscad"
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-o", stlPath, scadPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("openscad: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
