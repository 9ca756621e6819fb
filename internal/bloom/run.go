package bloom

import (
	"laserresist/internal/fill"
	"laserresist/internal/poly"
	"laserresist/pkg/geometry"
)

// Outcome is the result of a full bloom pass.
type Outcome struct {
	// Compensation holds the new double-exposure paths to append to the
	// machine program.
	Compensation []fill.Path
	// Classification carries per-trace scores and the threshold, for
	// reporting and visualization.
	Classification ClassifyResult
	// Grid is the simulated energy field, retained for the optional
	// heatmap export.
	Grid *Grid
}

// Run simulates bloom over the generated paths, classifies the traces,
// and produces compensation paths. Identical inputs always produce
// identical output.
func Run(paths []fill.Path, traces []fill.Trace, bounds geometry.Rect, drills []poly.Polygon, opts Options) (*Outcome, error) {
	grid, err := Simulate(paths, bounds, opts)
	if err != nil {
		return nil, err
	}

	classification := Classify(grid, traces, opts)

	return &Outcome{
		Compensation:   Compensate(classification.Flagged, drills, opts),
		Classification: classification,
		Grid:           grid,
	}, nil
}
