package bloom

import (
	"fmt"
	"image"
	"math"

	"laserresist/internal/fill"
	"laserresist/pkg/geometry"

	"gocv.io/x/gocv"
)

// Simulate rasterizes the exposure paths onto an energy grid and applies
// the two-kernel bloom convolution. Grid accumulation is pure addition,
// so the result depends only on the path set, not its traversal order.
//
// Returns ComputeUnavailableError when the OpenCV backend cannot run or
// the grid would exceed its size cap; callers skip compensation and
// continue.
func Simulate(paths []fill.Path, bounds geometry.Rect, opts Options) (*Grid, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := convolveAvailable(); err != nil {
		return nil, err
	}

	grid, err := newGrid(bounds, opts)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		depositPath(grid, p, opts)
	}

	if err := convolve(grid, opts); err != nil {
		return nil, err
	}
	return grid, nil
}

// depositPath drops unit energy at evenly spaced samples along the path.
// Paths traced multiple times deposit proportionally more.
func depositPath(g *Grid, p fill.Path, opts Options) {
	pts := p.Points
	if p.Closed && len(pts) > 1 {
		pts = append(append([]geometry.Point2D{}, pts...), pts[0])
	}
	if len(pts) < 2 {
		return
	}

	length := geometry.PathLength(pts)
	n := int(math.Ceil(length / opts.SampleDistance))
	if n < opts.MinSamples {
		n = opts.MinSamples
	}

	energy := float32(1)
	if p.ExposureCount > 1 {
		energy = float32(p.ExposureCount)
	}

	for _, sample := range geometry.Resample(pts, n) {
		g.add(sample, energy)
	}
}

// convolve replaces the raw hit grid with the bloom energy field:
// spot-blurred energy weighted (1−scatter_fraction) plus scatter-blurred
// energy weighted scatter_fraction.
func convolve(g *Grid, opts Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputeUnavailableError{Reason: fmt.Sprintf("convolution failed: %v", r)}
		}
	}()

	src := gocv.NewMatWithSize(g.h, g.w, gocv.MatTypeCV32F)
	defer src.Close()
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			if v := g.cells[y*g.w+x]; v != 0 {
				src.SetFloatAt(y, x, v)
			}
		}
	}

	spotSigma := opts.SpotSigma / opts.Resolution
	scatterSigma := opts.ScatterSigma / opts.Resolution

	spot := gocv.NewMat()
	defer spot.Close()
	gocv.GaussianBlur(src, &spot, image.Pt(0, 0), spotSigma, spotSigma, gocv.BorderConstant)

	scatter := gocv.NewMat()
	defer scatter.Close()
	gocv.GaussianBlur(src, &scatter, image.Pt(0, 0), scatterSigma, scatterSigma, gocv.BorderConstant)

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.AddWeighted(spot, 1-opts.ScatterFraction, scatter, opts.ScatterFraction, 0, &combined)

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			g.cells[y*g.w+x] = combined.GetFloatAt(y, x)
		}
	}
	return nil
}

// convolveAvailable probes the OpenCV runtime with a minimal blur. A
// missing or broken native library surfaces as a panic from the binding,
// converted here into ComputeUnavailableError.
func convolveAvailable() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputeUnavailableError{Reason: fmt.Sprintf("OpenCV backend missing: %v", r)}
		}
	}()

	probe := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV32F)
	defer probe.Close()
	out := gocv.NewMat()
	defer out.Close()
	gocv.GaussianBlur(probe, &out, image.Pt(3, 3), 1, 1, gocv.BorderConstant)
	return nil
}
