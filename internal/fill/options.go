package fill

// Options configures fill generation. Construct with DefaultOptions and
// adjust; the zero value is not valid.
type Options struct {
	// LineSpacing is the distance between adjacent contour rings in mm,
	// equal to the effective laser kerf. Must be > 0.
	LineSpacing float64

	// InitialOffset shrinks the copper boundary inward before the first
	// ring to compensate for the laser spot radius. Must be >= 0.
	InitialOffset float64

	// OffsetCenterlines trims LineSpacing from each free end of trace
	// centerlines to avoid overshooting past trace ends.
	OffsetCenterlines bool

	// ForcedPadCenterlines appends a marker path at the center of every
	// terminal pad region regardless of existing coverage.
	ForcedPadCenterlines bool

	// ForceTraceCenterlines keeps full trace centerlines (no clipping
	// against covered pad areas) for traces no wider than
	// ForceTraceMaxThickness.
	ForceTraceCenterlines  bool
	ForceTraceMaxThickness float64

	// DoubleExposeIsolated tags paths farther than IsolationThreshold mm
	// from any other copper feature for double exposure.
	DoubleExposeIsolated bool
	IsolationThreshold   float64

	// ThinWidthFactor scales the thin-region switch: a region whose
	// effective width drops below ThinWidthFactor×LineSpacing stops
	// emitting rings and falls back to centerline extraction. The exact
	// switch point is heuristic; this factor is the tuning knob.
	ThinWidthFactor float64

	// MaxOffsetLevels bounds erosion depth per region to guarantee
	// termination on numerically degenerate input.
	MaxOffsetLevels int
}

// DefaultOptions returns fill parameters tuned for 0.1 mm laser kerf.
func DefaultOptions() Options {
	return Options{
		LineSpacing:            0.1,
		InitialOffset:          0.05,
		OffsetCenterlines:      true,
		ForcedPadCenterlines:   false,
		ForceTraceCenterlines:  false,
		ForceTraceMaxThickness: 0.3,
		DoubleExposeIsolated:   false,
		IsolationThreshold:     2.0,
		ThinWidthFactor:        1.0,
		MaxOffsetLevels:        10000,
	}
}

// Validate checks parameter ranges. The generator refuses to start on
// the first violation.
func (o Options) Validate() error {
	if o.LineSpacing <= 0 {
		return &InvalidParameterError{Name: "line_spacing", Value: o.LineSpacing, Reason: "must be > 0"}
	}
	if o.InitialOffset < 0 {
		return &InvalidParameterError{Name: "initial_offset", Value: o.InitialOffset, Reason: "must be >= 0"}
	}
	if o.ForceTraceCenterlines && o.ForceTraceMaxThickness <= 0 {
		return &InvalidParameterError{Name: "force_trace_max_thickness", Value: o.ForceTraceMaxThickness, Reason: "must be > 0"}
	}
	if o.DoubleExposeIsolated && o.IsolationThreshold <= 0 {
		return &InvalidParameterError{Name: "isolation_threshold", Value: o.IsolationThreshold, Reason: "must be > 0"}
	}
	if o.ThinWidthFactor <= 0 {
		return &InvalidParameterError{Name: "thin_width_factor", Value: o.ThinWidthFactor, Reason: "must be > 0"}
	}
	if o.MaxOffsetLevels <= 0 {
		return &InvalidParameterError{Name: "max_offset_levels", Value: float64(o.MaxOffsetLevels), Reason: "must be > 0"}
	}
	return nil
}
