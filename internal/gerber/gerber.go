// Package gerber parses RS-274X copper layers and Excellon drill files
// into board-local millimeter geometry: unified copper polygons, trace
// centerlines, and drill holes.
//
// The supported subset covers what PCB CAD tools emit for copper layers:
// FS/MO format headers, standard circle/rectangle/obround apertures,
// draw/move/flash operations, G36/G37 region blocks, and LPD/LPC
// polarity. Aperture macros and arc interpolation are reported as
// warnings and approximated.
package gerber

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// minTraceLength filters out zero-ish draws that would produce
// meaningless centerlines (mm).
const minTraceLength = 0.01

// TraceSegment is one drawn conductor centerline: an open polyline of
// consecutive draw operations with the same circular aperture.
type TraceSegment struct {
	Points []geometry.Point2D
	Width  float64
}

// Layer is the parsed content of one copper Gerber file.
type Layer struct {
	// Copper is the unified copper geometry, not yet drill-subtracted.
	Copper []poly.Polygon
	// Traces are the conductor centerlines recorded from draw
	// operations, for fill supplementation and bloom classification.
	Traces []TraceSegment
	// Bounds is the bounding box of all copper.
	Bounds geometry.Rect
	// Warnings lists constructs the parser skipped or approximated.
	Warnings []string
}

// ParseFile parses a copper Gerber file from disk.
func ParseFile(path string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gerber file: %w", err)
	}
	defer f.Close()
	layer, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return layer, nil
}

// Parse parses a copper Gerber stream.
func Parse(r io.Reader) (*Layer, error) {
	p := newParser()
	if err := p.run(r); err != nil {
		return nil, err
	}
	return p.finish()
}

// polarityEvent is one batch of shapes under a single layer polarity.
// Copper is folded event by event: dark unions, clear subtracts.
type polarityEvent struct {
	dark   bool
	shapes []poly.Polygon
}

type parser struct {
	format   coordFormat
	unitsMM  bool
	unitsSet bool

	apertures map[int]aperture
	current   int // selected aperture D-code

	x, y      float64 // current position, mm
	inRegion  bool
	region    []geometry.Point2D
	trace     []geometry.Point2D // open centerline chain being drawn
	traceWide float64

	events   []polarityEvent
	traces   []TraceSegment
	warnings []string
}

func newParser() *parser {
	return &parser{
		apertures: make(map[int]aperture),
		current:   -1,
		unitsMM:   true,
		events:    []polarityEvent{{dark: true}},
	}
}

// coordFormat is the FS specification: digit counts after the decimal
// point for X and Y.
type coordFormat struct {
	xDec, yDec int
	set        bool
}

func (p *parser) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read gerber stream: %w", err)
	}

	for _, block := range splitBlocks(buf.String()) {
		if err := p.command(block); err != nil {
			return err
		}
	}
	return nil
}

// splitBlocks cuts the concatenated file into commands: %...% extended
// blocks kept whole, everything else split on '*'.
func splitBlocks(s string) []string {
	var blocks []string
	for len(s) > 0 {
		if s[0] == '%' {
			end := strings.IndexByte(s[1:], '%')
			if end < 0 {
				blocks = append(blocks, s)
				break
			}
			blocks = append(blocks, s[:end+2])
			s = s[end+2:]
			continue
		}
		cut := strings.IndexByte(s, '*')
		if cut < 0 {
			if s != "" {
				blocks = append(blocks, s)
			}
			break
		}
		if cmd := s[:cut]; cmd != "" {
			blocks = append(blocks, cmd)
		}
		s = s[cut+1:]
	}
	return blocks
}

func (p *parser) command(block string) error {
	switch {
	case block == "":
		return nil
	case strings.HasPrefix(block, "%"):
		return p.extended(strings.Trim(block, "%*"))
	case strings.HasPrefix(block, "G04"):
		return nil // comment
	case block == "G36":
		p.flushTrace()
		p.inRegion = true
		p.region = nil
		return nil
	case block == "G37":
		p.closeRegion()
		return nil
	case block == "G01" || block == "G1":
		return nil // linear interpolation is the only mode we draw
	case block == "G02" || block == "G03" || block == "G2" || block == "G3":
		p.warnf("arc interpolation %s approximated as line", block)
		return nil
	case block == "G74" || block == "G75":
		return nil // arc quadrant modes, no effect on line subset
	case block == "M02" || block == "M00":
		p.flushTrace()
		return nil
	case strings.HasPrefix(block, "D") && !strings.ContainsAny(block, "XY"):
		return p.selectAperture(block)
	case strings.HasPrefix(block, "X") || strings.HasPrefix(block, "Y") ||
		strings.HasPrefix(block, "I") || strings.HasPrefix(block, "J"):
		return p.operation(block)
	case strings.HasPrefix(block, "G54D"):
		return p.selectAperture(block[3:]) // legacy aperture select
	default:
		p.warnf("unsupported command %q skipped", block)
		return nil
	}
}

func (p *parser) extended(body string) error {
	switch {
	case strings.HasPrefix(body, "FS"):
		return p.parseFormat(body)
	case strings.HasPrefix(body, "MO"):
		p.unitsMM = strings.Contains(body, "MM")
		p.unitsSet = true
		return nil
	case strings.HasPrefix(body, "ADD"):
		return p.parseAperture(body)
	case strings.HasPrefix(body, "LP"):
		p.flushTrace()
		p.events = append(p.events, polarityEvent{dark: strings.Contains(body, "D")})
		return nil
	case strings.HasPrefix(body, "AM"):
		p.warnf("aperture macro %q not supported, flashes using it are skipped", firstLine(body))
		return nil
	case strings.HasPrefix(body, "IP") || strings.HasPrefix(body, "LN") ||
		strings.HasPrefix(body, "TF") || strings.HasPrefix(body, "TA") ||
		strings.HasPrefix(body, "TO") || strings.HasPrefix(body, "TD") ||
		strings.HasPrefix(body, "SR"):
		return nil // image/attribute commands with no geometric effect here
	default:
		p.warnf("unsupported extended command %q skipped", firstLine(body))
		return nil
	}
}

func (p *parser) parseFormat(body string) error {
	// e.g. FSLAX35Y35
	xi := strings.IndexByte(body, 'X')
	yi := strings.IndexByte(body, 'Y')
	if xi < 0 || yi < 0 || xi+2 >= len(body) || yi+2 >= len(body) {
		return fmt.Errorf("malformed format specification %q", body)
	}
	xDec, err := strconv.Atoi(string(body[xi+2]))
	if err != nil {
		return fmt.Errorf("malformed format specification %q", body)
	}
	yDec, err := strconv.Atoi(string(body[yi+2]))
	if err != nil {
		return fmt.Errorf("malformed format specification %q", body)
	}
	p.format = coordFormat{xDec: xDec, yDec: yDec, set: true}
	return nil
}

func (p *parser) selectAperture(block string) error {
	code, err := strconv.Atoi(strings.TrimPrefix(block, "D"))
	if err != nil {
		return fmt.Errorf("malformed aperture select %q", block)
	}
	if code < 10 {
		return nil // D01/D02/D03 without coordinates, nothing to do
	}
	p.flushTrace()
	p.current = code
	return nil
}

// operation handles coordinate blocks: XnnnYnnn[Dnn].
func (p *parser) operation(block string) error {
	op := 1 // modal: missing D-code repeats the previous operation class
	if di := strings.LastIndexByte(block, 'D'); di >= 0 {
		d, err := strconv.Atoi(block[di+1:])
		if err != nil {
			return fmt.Errorf("malformed operation %q", block)
		}
		op = d
		block = block[:di]
	}

	x, y, err := p.parseCoords(block)
	if err != nil {
		return err
	}

	switch op {
	case 1: // draw
		if p.inRegion {
			p.region = append(p.region, geometry.Point2D{X: x, Y: y})
		} else {
			p.draw(x, y)
		}
	case 2: // move
		p.flushTrace()
		if p.inRegion {
			p.closeRegionRing()
			p.region = append(p.region, geometry.Point2D{X: x, Y: y})
		}
	case 3: // flash
		p.flushTrace()
		p.flash(x, y)
	default:
		p.warnf("operation D%02d skipped", op)
	}

	p.x, p.y = x, y
	return nil
}

// parseCoords decodes the X/Y/I/J fields, applying the FS decimal format
// and unit conversion. Missing axes keep the current position (modal).
func (p *parser) parseCoords(block string) (x, y float64, err error) {
	x, y = p.x, p.y
	for len(block) > 0 {
		axis := block[0]
		rest := block[1:]
		end := 0
		for end < len(rest) && (rest[end] == '-' || rest[end] == '+' || rest[end] == '.' ||
			(rest[end] >= '0' && rest[end] <= '9')) {
			end++
		}
		token := rest[:end]
		block = rest[end:]

		v, convErr := p.coordValue(token, axis)
		if convErr != nil {
			return 0, 0, convErr
		}
		switch axis {
		case 'X':
			x = v
		case 'Y':
			y = v
		case 'I', 'J':
			// Arc offsets; arcs are approximated as lines.
		default:
			return 0, 0, fmt.Errorf("unexpected coordinate axis %q", string(axis))
		}
	}
	return x, y, nil
}

func (p *parser) coordValue(token string, axis byte) (float64, error) {
	if token == "" {
		return 0, fmt.Errorf("empty coordinate for axis %q", string(axis))
	}
	if strings.ContainsRune(token, '.') {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed coordinate %q", token)
		}
		return p.toMM(v), nil
	}
	if !p.format.set {
		return 0, fmt.Errorf("coordinate %q before format specification", token)
	}
	iv, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed coordinate %q", token)
	}
	dec := p.format.xDec
	if axis == 'Y' || axis == 'J' {
		dec = p.format.yDec
	}
	return p.toMM(float64(iv) / math.Pow10(dec)), nil
}

func (p *parser) toMM(v float64) float64 {
	if p.unitsMM {
		return v
	}
	return v * 25.4
}

// draw extends the current trace chain and deposits the stroked copper.
func (p *parser) draw(x, y float64) {
	ap, ok := p.apertures[p.current]
	if !ok {
		p.warnf("draw with unknown aperture D%d skipped", p.current)
		return
	}

	from := geometry.Point2D{X: p.x, Y: p.y}
	to := geometry.Point2D{X: x, Y: y}

	width := ap.strokeWidth()
	if width <= 0 {
		p.warnf("draw with zero-width aperture D%d skipped", p.current)
		return
	}

	copper := poly.BufferPolyline([]geometry.Point2D{from, to}, width)
	p.addShapes(copper)

	if ap.shape == apCircle && from.Distance(to) > minTraceLength {
		if len(p.trace) == 0 || p.traceWide != width || p.trace[len(p.trace)-1] != from {
			p.flushTrace()
			p.trace = []geometry.Point2D{from}
			p.traceWide = width
		}
		p.trace = append(p.trace, to)
	}
}

// flash stamps the selected aperture at the given position.
func (p *parser) flash(x, y float64) {
	ap, ok := p.apertures[p.current]
	if !ok {
		p.warnf("flash with unknown aperture D%d skipped", p.current)
		return
	}
	shape := ap.flashAt(geometry.Point2D{X: x, Y: y})
	if shape == nil {
		p.warnf("flash with unsupported aperture D%d skipped", p.current)
		return
	}
	p.addShapes(shape)
}

// closeRegionRing finishes the ring being collected inside a G36 block.
func (p *parser) closeRegionRing() {
	if len(p.region) >= 3 {
		p.addShapes([]poly.Polygon{{Outer: append(poly.Ring{}, p.region...)}})
	}
	p.region = nil
}

func (p *parser) closeRegion() {
	p.closeRegionRing()
	p.inRegion = false
}

func (p *parser) flushTrace() {
	if len(p.trace) >= 2 {
		p.traces = append(p.traces, TraceSegment{
			Points: p.trace,
			Width:  p.traceWide,
		})
	}
	p.trace = nil
}

func (p *parser) addShapes(shapes []poly.Polygon) {
	if len(shapes) == 0 {
		return
	}
	ev := &p.events[len(p.events)-1]
	ev.shapes = append(ev.shapes, shapes...)
}

func (p *parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// finish folds the polarity events into unified copper.
func (p *parser) finish() (*Layer, error) {
	p.flushTrace()
	if p.inRegion {
		p.closeRegion()
	}

	var copper []poly.Polygon
	for _, ev := range p.events {
		if len(ev.shapes) == 0 {
			continue
		}
		if ev.dark {
			copper = poly.Union(append(copper, ev.shapes...))
		} else {
			copper = poly.Difference(copper, ev.shapes)
		}
	}

	layer := &Layer{
		Copper:   copper,
		Traces:   p.traces,
		Bounds:   poly.Bounds(copper),
		Warnings: p.warnings,
	}
	return layer, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '*'); i >= 0 {
		return s[:i]
	}
	return s
}
