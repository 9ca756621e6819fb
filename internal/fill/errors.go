package fill

import "fmt"

// InvalidParameterError reports an out-of-range numeric parameter. It is
// fatal and raised before any geometry work starts.
type InvalidParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

// DegenerateGeometryError reports that no usable copper remained after
// the repair pass.
type DegenerateGeometryError struct {
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate copper geometry: %s", e.Reason)
}

// RegionWarning records a copper region that was skipped or degraded.
// Warnings are data, not errors: the generator produces as much valid
// geometry as it can and reports the rest here.
type RegionWarning struct {
	Region int    `json:"region"`
	Reason string `json:"reason"`
}

func (w RegionWarning) String() string {
	return fmt.Sprintf("region %d: %s", w.Region, w.Reason)
}
