package gerber

import (
	"fmt"
	"strconv"
	"strings"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

type apertureShape int

const (
	apCircle apertureShape = iota
	apRectangle
	apObround
	apPolygon
	apMacro
)

// aperture is one %ADD definition. Dimensions are in mm.
type aperture struct {
	shape  apertureShape
	params []float64 // circle: d; rect/obround: w,h; polygon: d,sides
}

// parseAperture handles %ADDnn<shape>,<params>*%.
func (p *parser) parseAperture(body string) error {
	// e.g. ADD10C,0.8 or ADD11R,1.2X0.6
	rest := strings.TrimPrefix(body, "ADD")
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(rest) {
		return fmt.Errorf("malformed aperture definition %q", body)
	}
	code, err := strconv.Atoi(rest[:i])
	if err != nil || code < 10 {
		return fmt.Errorf("malformed aperture definition %q", body)
	}

	spec := rest[i:]
	name := spec
	var params []float64
	if ci := strings.IndexByte(spec, ','); ci >= 0 {
		name = spec[:ci]
		for _, tok := range strings.Split(spec[ci+1:], "X") {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("malformed aperture parameters %q", body)
			}
			params = append(params, p.toMM(v))
		}
	}

	ap := aperture{params: params}
	switch name {
	case "C":
		ap.shape = apCircle
	case "R":
		ap.shape = apRectangle
	case "O":
		ap.shape = apObround
	case "P":
		ap.shape = apPolygon
		// Polygon sides parameter is a count, undo the unit conversion.
		if len(params) >= 2 {
			ap.params[1] = params[1]
			if !p.unitsMM {
				ap.params[1] = params[1] / 25.4
			}
		}
	default:
		// Macro aperture. Flashes using it are skipped with a warning.
		ap.shape = apMacro
	}

	p.apertures[code] = ap
	return nil
}

// strokeWidth is the pen width a draw with this aperture deposits.
// Rectangular strokes are approximated with their smaller dimension.
func (a aperture) strokeWidth() float64 {
	switch a.shape {
	case apCircle, apPolygon:
		if len(a.params) >= 1 {
			return a.params[0]
		}
	case apRectangle, apObround:
		if len(a.params) >= 2 {
			if a.params[0] < a.params[1] {
				return a.params[0]
			}
			return a.params[1]
		}
	}
	return 0
}

// flashAt builds the copper stamped by a D03 at the given center.
// Returns nil for apertures that cannot be flashed.
func (a aperture) flashAt(c geometry.Point2D) []poly.Polygon {
	switch a.shape {
	case apCircle:
		if len(a.params) >= 1 && a.params[0] > 0 {
			return []poly.Polygon{poly.Circle(c, a.params[0]/2)}
		}
	case apRectangle:
		if len(a.params) >= 2 {
			return []poly.Polygon{rectanglePolygon(c, a.params[0], a.params[1])}
		}
	case apObround:
		if len(a.params) >= 2 {
			return obroundPolygon(c, a.params[0], a.params[1])
		}
	case apPolygon:
		if len(a.params) >= 2 && a.params[0] > 0 {
			sides := int(a.params[1])
			if sides < 3 {
				sides = 3
			}
			return []poly.Polygon{{Outer: geometry.GenerateCirclePoints(c.X, c.Y, a.params[0]/2, sides)}}
		}
	}
	return nil
}

func rectanglePolygon(c geometry.Point2D, w, h float64) poly.Polygon {
	hw, hh := w/2, h/2
	return poly.Polygon{Outer: poly.Ring{
		{X: c.X - hw, Y: c.Y - hh},
		{X: c.X + hw, Y: c.Y - hh},
		{X: c.X + hw, Y: c.Y + hh},
		{X: c.X - hw, Y: c.Y + hh},
	}}
}

// obroundPolygon builds a stadium shape as a stroked segment along the
// longer axis.
func obroundPolygon(c geometry.Point2D, w, h float64) []poly.Polygon {
	if w == h {
		return []poly.Polygon{poly.Circle(c, w/2)}
	}
	var a, b geometry.Point2D
	var width float64
	if w > h {
		half := (w - h) / 2
		a = geometry.Point2D{X: c.X - half, Y: c.Y}
		b = geometry.Point2D{X: c.X + half, Y: c.Y}
		width = h
	} else {
		half := (h - w) / 2
		a = geometry.Point2D{X: c.X, Y: c.Y - half}
		b = geometry.Point2D{X: c.X, Y: c.Y + half}
		width = w
	}
	return poly.BufferPolyline([]geometry.Point2D{a, b}, width)
}
