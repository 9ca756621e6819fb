// Command exposurepreview renders a copper layer's exposure paths and
// bloom heatmap in a window for inspection before burning the board,
// and lets the user pick two drill holes as alignment pins to generate
// a drilling template.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"laserresist/internal/bloom"
	"laserresist/internal/config"
	"laserresist/internal/fill"
	"laserresist/internal/gerber"
	"laserresist/internal/poly"
	"laserresist/internal/render"
	"laserresist/internal/template"
	"laserresist/pkg/geometry"
)

func main() {
	gerberPath := flag.String("gerber", "", "Path to copper Gerber file (RS-274X)")
	drillPath := flag.String("drill", "", "Path to Excellon drill file (optional)")
	configPath := flag.String("config", "laserresist.toml", "Configuration file")
	flag.Parse()

	if *gerberPath == "" {
		fmt.Println("Usage: exposurepreview -gerber <path> [-drill <path>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadIfExists(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	pre, err := buildPreviews(*gerberPath, *drillPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preview failed: %v\n", err)
		os.Exit(1)
	}

	fyneApp := app.New()
	win := fyneApp.NewWindow("Exposure Preview")

	pathsCanvas := fynecanvas.NewImageFromImage(pre.pathImg)
	pathsCanvas.FillMode = fynecanvas.ImageFillContain
	pathsCanvas.ScaleMode = fynecanvas.ImageScalePixels

	tabs := container.NewAppTabs(
		container.NewTabItem("Paths", pathsCanvas),
	)
	if pre.heatImg != nil {
		heatCanvas := fynecanvas.NewImageFromImage(pre.heatImg)
		heatCanvas.FillMode = fynecanvas.ImageFillContain
		tabs.Append(container.NewTabItem("Bloom Energy", heatCanvas))
	}
	if len(pre.drills) > 0 {
		tabs.Append(container.NewTabItem("Pin Alignment",
			pinAlignmentTab(pre, *gerberPath, cfg)))
	}

	statusBar := widget.NewLabel(pre.status)
	win.SetContent(container.NewBorder(nil, statusBar, nil, nil, tabs))
	win.Resize(fyne.NewSize(1000, 800))
	win.ShowAndRun()
}

// preview carries the rendered images plus the geometry the pin picker
// needs to map taps back to board coordinates.
type preview struct {
	pathImg image.Image
	heatImg image.Image
	status  string
	copper  []poly.Polygon
	bounds  geometry.Rect
	drills  []gerber.Drill
}

// buildPreviews runs the front half of the pipeline and rasterizes the
// results. The heatmap image is nil when bloom is disabled or its
// compute backend is unavailable.
func buildPreviews(gerberPath, drillPath string, cfg config.Config) (*preview, error) {
	layer, err := gerber.ParseFile(gerberPath)
	if err != nil {
		return nil, err
	}

	copper := layer.Copper
	var drills []poly.Polygon
	var drillHoles []gerber.Drill
	if drillPath != "" {
		drillFile, err := gerber.ParseDrillFile(drillPath)
		if err != nil {
			return nil, err
		}
		drillHoles = drillFile.Drills
		drills = drillFile.Polygons()
		copper = poly.Difference(copper, drills)
	}

	traces := make([]fill.Trace, len(layer.Traces))
	for i, t := range layer.Traces {
		traces[i] = fill.Trace{Points: t.Points, Width: t.Width}
	}

	result, err := fill.Generate(copper, traces, cfg.FillOptions())
	if err != nil {
		return nil, err
	}
	paths := result.All()
	bounds := poly.Bounds(copper)

	pre := &preview{
		copper: copper,
		bounds: bounds,
		drills: drillHoles,
		status: fmt.Sprintf("%d copper regions, %d paths", len(copper), len(paths)),
	}
	if cfg.Bloom.Enabled {
		outcome, err := bloom.Run(paths, traces, bounds, drills, cfg.BloomOptions())
		if err == nil {
			paths = append(paths, outcome.Compensation...)
			pre.heatImg = render.Heatmap(outcome.Grid, cfg.RenderOptions())
			pre.status = fmt.Sprintf("%s, %d traces flagged, %d compensation paths",
				pre.status, len(outcome.Classification.Flagged), len(outcome.Compensation))
		} else {
			pre.status = fmt.Sprintf("%s, bloom unavailable", pre.status)
		}
	}

	pre.pathImg = render.Paths(copper, paths, bounds, cfg.RenderOptions())
	return pre, nil
}

// pinAlignmentTab builds the interactive pin selection view with its
// status line and template button.
func pinAlignmentTab(pre *preview, gerberPath string, cfg config.Config) fyne.CanvasObject {
	status := widget.NewLabel("")
	base := render.Paths(pre.copper, nil, pre.bounds, cfg.RenderOptions())
	picker := newPinPicker(base, pre.bounds, pre.drills, status)

	write := widget.NewButton("Write drilling template", func() {
		pin1, pin2, ok := picker.pins()
		if !ok {
			status.SetText("Select two pin holes first")
			return
		}
		out := gerberPath + ".template.scad"
		if err := template.WriteSCADFile(out, pre.bounds, pin1, pin2, template.DefaultOptions()); err != nil {
			status.SetText(err.Error())
			return
		}
		tr := template.AlignPins(pin1, pin2)
		status.SetText(fmt.Sprintf("Template written to %s, board rotated 180: %v", out, tr.Rotate180))
	})

	return container.NewBorder(nil, container.NewVBox(status, write), nil, nil, picker)
}

var (
	drillMarkColor = color.RGBA{0, 190, 255, 255}
	firstPinColor  = color.RGBA{0, 255, 0, 255}
	secondPinColor = color.RGBA{90, 90, 255, 255}
)

// pinPicker shows the board with every drill hole marked and lets the
// user tap two of them to use as alignment pins. Tapping a selected
// hole deselects it again.
type pinPicker struct {
	widget.BaseWidget
	base     *image.RGBA
	view     *fynecanvas.Image
	bounds   geometry.Rect
	drills   []gerber.Drill
	selected []int
	status   *widget.Label
}

func newPinPicker(base *image.RGBA, bounds geometry.Rect, drills []gerber.Drill, status *widget.Label) *pinPicker {
	p := &pinPicker{base: base, bounds: bounds, drills: drills, status: status}
	p.view = fynecanvas.NewImageFromImage(base)
	p.view.FillMode = fynecanvas.ImageFillContain
	p.view.ScaleMode = fynecanvas.ImageScalePixels
	p.ExtendBaseWidget(p)
	p.redraw()
	return p
}

func (p *pinPicker) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.view)
}

func (p *pinPicker) Tapped(ev *fyne.PointEvent) {
	mm, ok := p.toBoard(ev.Position)
	if !ok {
		return
	}

	hit := -1
	best := math.Inf(1)
	for i, d := range p.drills {
		dist := mm.Distance(d.Center)
		if dist <= math.Max(1.5, d.Diameter) && dist < best {
			hit, best = i, dist
		}
	}
	if hit < 0 {
		return
	}

	for i, s := range p.selected {
		if s == hit {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			p.redraw()
			return
		}
	}
	if len(p.selected) < 2 {
		p.selected = append(p.selected, hit)
	}
	p.redraw()
}

func (p *pinPicker) redraw() {
	img := render.CloneRGBA(p.base)
	for i, d := range p.drills {
		col := drillMarkColor
		switch {
		case len(p.selected) > 0 && p.selected[0] == i:
			col = firstPinColor
		case len(p.selected) > 1 && p.selected[1] == i:
			col = secondPinColor
		}
		render.MarkPin(img, p.bounds, d.Center, math.Max(d.Diameter, 0.8), col)
	}
	p.view.Image = img
	p.view.Refresh()

	switch len(p.selected) {
	case 0:
		p.status.SetText("Tap the first pin hole (bottom pin on the laser table)")
	case 1:
		d := p.drills[p.selected[0]]
		p.status.SetText(fmt.Sprintf("First pin (%.2f, %.2f) d %.2f mm, tap the second pin hole",
			d.Center.X, d.Center.Y, d.Diameter))
	default:
		d1 := p.drills[p.selected[0]]
		d2 := p.drills[p.selected[1]]
		p.status.SetText(fmt.Sprintf("Pins (%.2f, %.2f) and (%.2f, %.2f) selected",
			d1.Center.X, d1.Center.Y, d2.Center.X, d2.Center.Y))
	}
}

// toBoard maps a tap through the contain-fit scaling back to board
// millimeter coordinates.
func (p *pinPicker) toBoard(pos fyne.Position) (geometry.Point2D, bool) {
	sz := p.Size()
	iw := float64(p.base.Bounds().Dx())
	ih := float64(p.base.Bounds().Dy())
	if iw <= 0 || ih <= 0 || sz.Width <= 0 || sz.Height <= 0 {
		return geometry.Point2D{}, false
	}

	scale := math.Min(float64(sz.Width)/iw, float64(sz.Height)/ih)
	ix := (float64(pos.X) - (float64(sz.Width)-iw*scale)/2) / scale
	iy := (float64(pos.Y) - (float64(sz.Height)-ih*scale)/2) / scale
	if ix < 0 || iy < 0 || ix >= iw || iy >= ih {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{
		X: p.bounds.X + ix/iw*p.bounds.Width,
		Y: p.bounds.Y + (1-iy/ih)*p.bounds.Height,
	}, true
}

func (p *pinPicker) pins() (template.Pin, template.Pin, bool) {
	if len(p.selected) != 2 {
		return template.Pin{}, template.Pin{}, false
	}
	d1 := p.drills[p.selected[0]]
	d2 := p.drills[p.selected[1]]
	return template.Pin{Center: d1.Center, Diameter: d1.Diameter},
		template.Pin{Center: d2.Center, Diameter: d2.Diameter}, true
}
