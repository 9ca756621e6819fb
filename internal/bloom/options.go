// Package bloom simulates secondary light scatter (bloom) across the
// board and generates duplicate-exposure compensation for traces that
// would come out under-exposed.
//
// The exposure paths are rasterized onto an energy grid, convolved with
// two Gaussian kernels (a tight laser spot plus a wide scatter halo),
// and every trace centerline is scored by the minimum energy it sees.
// Traces below a percentile threshold get their centerline re-emitted
// with a doubled exposure count.
package bloom

import "fmt"

// Options configures the bloom simulation. Construct with DefaultOptions;
// the zero value is not valid.
type Options struct {
	// Resolution is the energy grid cell size in mm.
	Resolution float64

	// SpotSigma is the standard deviation of the tight laser spot
	// Gaussian in mm.
	SpotSigma float64

	// ScatterSigma is the standard deviation of the scatter halo
	// Gaussian in mm.
	ScatterSigma float64

	// ScatterFraction is the fraction of deposited energy that goes into
	// the scatter halo; the rest stays in the spot. Range [0, 1].
	ScatterFraction float64

	// ThresholdPercentile classifies a trace as under-exposed when its
	// energy score falls below this percentile of all trace scores.
	// Range [0, 100].
	ThresholdPercentile float64

	// MinTraceLength excludes stub traces from classification (mm).
	MinTraceLength float64

	// SampleDistance is the spacing of energy deposits along each path
	// (mm); every path gets at least MinSamples deposits.
	SampleDistance float64
	MinSamples     int
}

// DefaultOptions returns bloom parameters matched to a 0.1 mm kerf
// process: a tight 0.05 mm spot with a 2 mm scatter halo carrying 35% of
// the energy.
func DefaultOptions() Options {
	return Options{
		Resolution:          0.05,
		SpotSigma:           0.05,
		ScatterSigma:        2.0,
		ScatterFraction:     0.35,
		ThresholdPercentile: 30,
		MinTraceLength:      0.2,
		SampleDistance:      0.05,
		MinSamples:          10,
	}
}

// Validate checks parameter ranges. The simulator refuses to start on
// the first violation.
func (o Options) Validate() error {
	switch {
	case o.Resolution <= 0:
		return paramErr("bloom_resolution", o.Resolution, "must be > 0")
	case o.SpotSigma <= 0:
		return paramErr("bloom_spot_sigma", o.SpotSigma, "must be > 0")
	case o.ScatterSigma <= 0:
		return paramErr("bloom_scatter_sigma", o.ScatterSigma, "must be > 0")
	case o.ScatterFraction < 0 || o.ScatterFraction > 1:
		return paramErr("bloom_scatter_fraction", o.ScatterFraction, "must be in [0, 1]")
	case o.ThresholdPercentile < 0 || o.ThresholdPercentile > 100:
		return paramErr("bloom_threshold_percentile", o.ThresholdPercentile, "must be in [0, 100]")
	case o.MinTraceLength < 0:
		return paramErr("bloom_min_trace_length", o.MinTraceLength, "must be >= 0")
	case o.SampleDistance <= 0:
		return paramErr("bloom_sample_distance", o.SampleDistance, "must be > 0")
	case o.MinSamples < 2:
		return paramErr("bloom_min_samples", float64(o.MinSamples), "must be >= 2")
	}
	return nil
}

func paramErr(name string, value float64, reason string) error {
	return fmt.Errorf("invalid parameter %s=%g: %s", name, value, reason)
}

// ComputeUnavailableError reports that the convolution backend cannot
// run (missing OpenCV runtime or an oversized grid). Bloom compensation
// is skipped with a warning; the rest of the pipeline proceeds.
type ComputeUnavailableError struct {
	Reason string
}

func (e *ComputeUnavailableError) Error() string {
	return fmt.Sprintf("bloom compute unavailable: %s", e.Reason)
}
