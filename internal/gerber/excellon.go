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

// Drill is one drilled hole.
type Drill struct {
	Center   geometry.Point2D
	Diameter float64
}

// DrillFile is the parsed content of an Excellon drill file.
type DrillFile struct {
	Drills   []Drill
	Warnings []string
}

// Polygons returns the drill holes as circle polygons for subtraction
// from copper and for compensation-path exclusion zones.
func (d *DrillFile) Polygons() []poly.Polygon {
	out := make([]poly.Polygon, 0, len(d.Drills))
	for _, hole := range d.Drills {
		out = append(out, poly.Circle(hole.Center, hole.Diameter/2))
	}
	return out
}

// ParseDrillFile parses an Excellon drill file from disk.
func ParseDrillFile(path string) (*DrillFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drill file: %w", err)
	}
	defer f.Close()
	df, err := ParseDrill(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return df, nil
}

// ParseDrill parses an Excellon drill stream. The supported subset is
// the common CAM output: M48 header with Tn tool definitions,
// METRIC/INCH units, and XY hit coordinates in decimal or fixed 3.3
// trailing-zero format.
func ParseDrill(r io.Reader) (*DrillFile, error) {
	p := &drillParser{
		tools:   make(map[int]float64),
		unitsMM: true,
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read drill stream: %w", err)
	}
	return &DrillFile{Drills: p.drills, Warnings: p.warnings}, nil
}

type drillParser struct {
	tools    map[int]float64 // tool number -> diameter, mm
	current  float64         // selected tool diameter
	unitsMM  bool
	inHeader bool
	x, y     float64

	drills   []Drill
	warnings []string
}

func (p *drillParser) line(line string) error {
	switch {
	case line == "" || strings.HasPrefix(line, ";"):
		return nil
	case line == "M48":
		p.inHeader = true
		return nil
	case line == "%" || line == "M95":
		p.inHeader = false
		return nil
	case line == "M30" || line == "M00":
		return nil
	case strings.HasPrefix(line, "METRIC"):
		p.unitsMM = true
		return nil
	case strings.HasPrefix(line, "INCH"):
		p.unitsMM = false
		return nil
	case line == "G90" || line == "G05" || line == "G81" || line == "FMAT,2":
		return nil
	case strings.HasPrefix(line, "T"):
		return p.tool(line)
	case strings.HasPrefix(line, "X") || strings.HasPrefix(line, "Y"):
		return p.hit(line)
	default:
		p.warnings = append(p.warnings, fmt.Sprintf("unsupported drill command %q skipped", line))
		return nil
	}
}

// tool handles both header definitions (T1C1.016) and body selections (T1).
func (p *drillParser) tool(line string) error {
	body := line[1:]
	ci := strings.IndexByte(body, 'C')
	if ci < 0 {
		num, err := strconv.Atoi(body)
		if err != nil {
			return fmt.Errorf("malformed tool select %q", line)
		}
		if num == 0 {
			return nil // T0 deselects
		}
		d, ok := p.tools[num]
		if !ok {
			return fmt.Errorf("tool T%d selected before definition", num)
		}
		p.current = d
		return nil
	}

	num, err := strconv.Atoi(body[:ci])
	if err != nil {
		return fmt.Errorf("malformed tool definition %q", line)
	}
	// Feed/speed modifiers may trail the diameter.
	dia := body[ci+1:]
	if end := strings.IndexAny(dia, "FSB"); end >= 0 {
		dia = dia[:end]
	}
	d, err := strconv.ParseFloat(dia, 64)
	if err != nil {
		return fmt.Errorf("malformed tool diameter %q", line)
	}
	if !p.unitsMM {
		d *= 25.4
	}
	p.tools[num] = d
	return nil
}

func (p *drillParser) hit(line string) error {
	if p.inHeader {
		return nil
	}
	if p.current <= 0 {
		p.warnings = append(p.warnings, fmt.Sprintf("drill hit %q before tool select skipped", line))
		return nil
	}

	x, y := p.x, p.y
	rest := line
	for len(rest) > 0 {
		axis := rest[0]
		rest = rest[1:]
		end := 0
		for end < len(rest) && (rest[end] == '-' || rest[end] == '+' || rest[end] == '.' ||
			(rest[end] >= '0' && rest[end] <= '9')) {
			end++
		}
		v, err := p.coordValue(rest[:end])
		if err != nil {
			return fmt.Errorf("malformed drill coordinate %q: %w", line, err)
		}
		rest = rest[end:]
		switch axis {
		case 'X':
			x = v
		case 'Y':
			y = v
		default:
			return fmt.Errorf("unexpected drill axis %q in %q", string(axis), line)
		}
	}

	p.x, p.y = x, y
	p.drills = append(p.drills, Drill{
		Center:   geometry.Point2D{X: x, Y: y},
		Diameter: p.current,
	})
	return nil
}

// coordValue decodes one drill coordinate. Tokens with an explicit
// decimal point are taken verbatim; bare integers use the common 3.3
// trailing-zero convention.
func (p *drillParser) coordValue(token string) (float64, error) {
	if token == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	var v float64
	if strings.ContainsRune(token, '.') {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, err
		}
		v = f
	} else {
		iv, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return 0, err
		}
		v = float64(iv) / math.Pow10(3)
	}
	if !p.unitsMM {
		v *= 25.4
	}
	return v, nil
}
