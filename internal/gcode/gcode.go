// Package gcode writes laser exposure programs for the generated fill
// and compensation paths. Output targets GRBL-style controllers: the
// laser is driven with M3/M5 around each G1 pass, rapids between paths
// use G0 with the beam off.
package gcode

import (
	"fmt"
	"io"
	"sort"

	"laserresist/internal/fill"
)

// Options controls G-code emission.
type Options struct {
	// FeedRate is the exposure feed in mm/min.
	FeedRate float64
	// TravelRate is the rapid feed in mm/min, 0 leaves G0 unparameterized.
	TravelRate float64
	// LaserPower is the S value sent with M3.
	LaserPower int
	// PathComments adds a comment line before each path naming its kind.
	PathComments bool
}

// DefaultOptions returns emission settings for a typical 5W diode
// exposure head.
func DefaultOptions() Options {
	return Options{
		FeedRate:     600,
		TravelRate:   3000,
		LaserPower:   1000,
		PathComments: true,
	}
}

// Write emits the full exposure program for the given paths in order.
// Paths with ExposureCount above one are traced that many times before
// moving on.
func Write(w io.Writer, paths []fill.Path, opts Options) error {
	ew := &errWriter{w: w}

	ew.printf("; laser exposure program, focus the beam at board height before running\n")
	ew.printf("G21 ; units mm\n")
	ew.printf("G90 ; absolute coordinates\n")
	ew.printf("M5 ; laser off\n")

	var totalLength float64
	kindCount := map[string]int{}
	kindLength := map[string]float64{}
	for i, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		if opts.PathComments {
			ew.printf("\n; path %d: %s", i+1, p.Kind)
			if p.ExposureCount > 1 {
				ew.printf(" x%d", p.ExposureCount)
			}
			ew.printf("\n")
		}
		writePath(ew, p, opts)
		length := p.Length() * float64(max(p.ExposureCount, 1))
		totalLength += length
		kindCount[p.Kind.String()]++
		kindLength[p.Kind.String()] += length
	}

	ew.printf("\nM5 ; laser off\n")
	if opts.TravelRate > 0 {
		ew.printf("G0 X0 Y0 F%.3f\n", opts.TravelRate)
	} else {
		ew.printf("G0 X0 Y0\n")
	}
	kinds := make([]string, 0, len(kindCount))
	for k := range kindCount {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		ew.printf("; %s: %d paths, %.1f mm\n", k, kindCount[k], kindLength[k])
	}
	ew.printf("; total exposure length %.1f mm over %d paths\n", totalLength, len(paths))
	ew.printf("M2\n")
	return ew.err
}

func writePath(ew *errWriter, p fill.Path, opts Options) {
	start := p.Points[0]
	if opts.TravelRate > 0 {
		ew.printf("G0 X%.4f Y%.4f F%.3f\n", start.X, start.Y, opts.TravelRate)
	} else {
		ew.printf("G0 X%.4f Y%.4f\n", start.X, start.Y)
	}

	passes := max(p.ExposureCount, 1)
	for pass := 0; pass < passes; pass++ {
		ew.printf("M3 S%d\n", opts.LaserPower)
		for _, pt := range p.Points[1:] {
			ew.printf("G1 X%.4f Y%.4f F%.3f\n", pt.X, pt.Y, opts.FeedRate)
		}
		if p.Closed {
			ew.printf("G1 X%.4f Y%.4f F%.3f\n", start.X, start.Y, opts.FeedRate)
		}
		ew.printf("M5\n")
		// Open paths are retraced from the same start, closed paths
		// already sit at the start point.
		if pass+1 < passes && !p.Closed {
			if opts.TravelRate > 0 {
				ew.printf("G0 X%.4f Y%.4f F%.3f\n", start.X, start.Y, opts.TravelRate)
			} else {
				ew.printf("G0 X%.4f Y%.4f\n", start.X, start.Y)
			}
		}
	}
}

// errWriter collects the first write error so emission code stays flat.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
