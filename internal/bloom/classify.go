package bloom

import (
	"math"
	"sort"

	"laserresist/internal/fill"
	"laserresist/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Assessment is one trace's exposure score: the minimum energy the
// simulated field delivers anywhere along its centerline. The minimum is
// the conservative reduction, since a single under-exposed point is
// enough to break the resist.
type Assessment struct {
	Trace  fill.Trace
	Energy float64
}

// ClassifyResult reports the under-exposure classification of all
// meaningful traces.
type ClassifyResult struct {
	// Flagged holds the traces below the percentile threshold, in input
	// order.
	Flagged []fill.Trace
	// Assessed is every trace long enough to score, in input order.
	Assessed []Assessment
	// Threshold is the energy value at the configured percentile.
	Threshold float64
}

// Classify scores each trace against the simulated energy grid and flags
// those whose score falls below the threshold percentile of all scores.
// Traces shorter than MinTraceLength are ignored.
func Classify(grid *Grid, traces []fill.Trace, opts Options) ClassifyResult {
	var res ClassifyResult

	for _, tr := range traces {
		if tr.Length() < opts.MinTraceLength || len(tr.Points) < 2 {
			continue
		}
		res.Assessed = append(res.Assessed, Assessment{
			Trace:  tr,
			Energy: traceEnergy(grid, tr, opts),
		})
	}
	if len(res.Assessed) == 0 {
		return res
	}

	values := make([]float64, len(res.Assessed))
	for i, a := range res.Assessed {
		values[i] = a.Energy
	}
	sort.Float64s(values)
	res.Threshold = stat.Quantile(opts.ThresholdPercentile/100, stat.Empirical, values, nil)

	for _, a := range res.Assessed {
		if a.Energy < res.Threshold {
			res.Flagged = append(res.Flagged, a.Trace)
		}
	}
	return res
}

// traceEnergy samples the grid along the centerline and returns the
// minimum observed value.
func traceEnergy(grid *Grid, tr fill.Trace, opts Options) float64 {
	n := int(math.Ceil(tr.Length() / opts.SampleDistance))
	if n < opts.MinSamples {
		n = opts.MinSamples
	}
	min := math.Inf(1)
	for _, p := range geometry.Resample(tr.Points, n) {
		if v := grid.At(p); v < min {
			min = v
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}
