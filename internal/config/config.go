// Package config loads pipeline settings from TOML files layered over
// built-in defaults.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"laserresist/internal/bloom"
	"laserresist/internal/fill"
	"laserresist/internal/gcode"
	"laserresist/internal/render"
)

// Config holds the settings for a full exposure run.
type Config struct {
	Fill   FillConfig   `toml:"fill"`
	Bloom  BloomConfig  `toml:"bloom"`
	GCode  GCodeConfig  `toml:"gcode"`
	Render RenderConfig `toml:"render"`
}

// FillConfig maps the fill generator options.
type FillConfig struct {
	LineSpacing           float64 `toml:"line_spacing"`
	InitialOffset         float64 `toml:"initial_offset"`
	OffsetCenterlines     bool    `toml:"offset_centerlines"`
	ForcedPadCenterlines  bool    `toml:"forced_pad_centerlines"`
	ForceTraceCenterlines bool    `toml:"force_trace_centerlines"`
	ForceTraceMaxThick    float64 `toml:"force_trace_max_thickness"`
	DoubleExposeIsolated  bool    `toml:"double_expose_isolated"`
	IsolationThreshold    float64 `toml:"isolation_threshold"`
	ThinWidthFactor       float64 `toml:"thin_width_factor"`
}

// BloomConfig maps the bloom simulator options.
type BloomConfig struct {
	Enabled             bool    `toml:"enabled"`
	Resolution          float64 `toml:"resolution"`
	SpotSigma           float64 `toml:"spot_sigma"`
	ScatterSigma        float64 `toml:"scatter_sigma"`
	ScatterFraction     float64 `toml:"scatter_fraction"`
	ThresholdPercentile float64 `toml:"threshold_percentile"`
	MinTraceLength      float64 `toml:"min_trace_length"`
}

// GCodeConfig maps the G-code emission options.
type GCodeConfig struct {
	FeedRate     float64 `toml:"feed_rate"`
	TravelRate   float64 `toml:"travel_rate"`
	LaserPower   int     `toml:"laser_power"`
	PathComments bool    `toml:"path_comments"`
}

// RenderConfig maps the preview rendering options.
type RenderConfig struct {
	PixelsPerMM  float64 `toml:"pixels_per_mm"`
	MaxDimension int     `toml:"max_dimension"`
	DrawCopper   bool    `toml:"draw_copper"`
}

// Default returns the built-in configuration.
func Default() Config {
	f := fill.DefaultOptions()
	b := bloom.DefaultOptions()
	g := gcode.DefaultOptions()
	r := render.DefaultOptions()
	return Config{
		Fill: FillConfig{
			LineSpacing:           f.LineSpacing,
			InitialOffset:         f.InitialOffset,
			OffsetCenterlines:     f.OffsetCenterlines,
			ForcedPadCenterlines:  f.ForcedPadCenterlines,
			ForceTraceCenterlines: f.ForceTraceCenterlines,
			ForceTraceMaxThick:    f.ForceTraceMaxThickness,
			DoubleExposeIsolated:  f.DoubleExposeIsolated,
			IsolationThreshold:    f.IsolationThreshold,
			ThinWidthFactor:       f.ThinWidthFactor,
		},
		Bloom: BloomConfig{
			Enabled:             true,
			Resolution:          b.Resolution,
			SpotSigma:           b.SpotSigma,
			ScatterSigma:        b.ScatterSigma,
			ScatterFraction:     b.ScatterFraction,
			ThresholdPercentile: b.ThresholdPercentile,
			MinTraceLength:      b.MinTraceLength,
		},
		GCode: GCodeConfig{
			FeedRate:     g.FeedRate,
			TravelRate:   g.TravelRate,
			LaserPower:   g.LaserPower,
			PathComments: g.PathComments,
		},
		Render: RenderConfig{
			PixelsPerMM:  r.PixelsPerMM,
			MaxDimension: r.MaxDimension,
			DrawCopper:   r.DrawCopper,
		},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadIfExists behaves like Load but returns defaults when the file is
// absent.
func LoadIfExists(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the configuration by round-tripping through the
// option validators of the stages it configures.
func (c Config) Validate() error {
	if err := c.FillOptions().Validate(); err != nil {
		return err
	}
	if err := c.BloomOptions().Validate(); err != nil {
		return err
	}
	if c.GCode.FeedRate <= 0 {
		return fmt.Errorf("gcode feed_rate must be positive, got %g", c.GCode.FeedRate)
	}
	if c.GCode.LaserPower <= 0 {
		return fmt.Errorf("gcode laser_power must be positive, got %d", c.GCode.LaserPower)
	}
	if c.Render.PixelsPerMM <= 0 {
		return fmt.Errorf("render pixels_per_mm must be positive, got %g", c.Render.PixelsPerMM)
	}
	return nil
}

// FillOptions converts the fill section to generator options.
func (c Config) FillOptions() fill.Options {
	o := fill.DefaultOptions()
	o.LineSpacing = c.Fill.LineSpacing
	o.InitialOffset = c.Fill.InitialOffset
	o.OffsetCenterlines = c.Fill.OffsetCenterlines
	o.ForcedPadCenterlines = c.Fill.ForcedPadCenterlines
	o.ForceTraceCenterlines = c.Fill.ForceTraceCenterlines
	o.ForceTraceMaxThickness = c.Fill.ForceTraceMaxThick
	o.DoubleExposeIsolated = c.Fill.DoubleExposeIsolated
	o.IsolationThreshold = c.Fill.IsolationThreshold
	o.ThinWidthFactor = c.Fill.ThinWidthFactor
	return o
}

// BloomOptions converts the bloom section to simulator options.
func (c Config) BloomOptions() bloom.Options {
	o := bloom.DefaultOptions()
	o.Resolution = c.Bloom.Resolution
	o.SpotSigma = c.Bloom.SpotSigma
	o.ScatterSigma = c.Bloom.ScatterSigma
	o.ScatterFraction = c.Bloom.ScatterFraction
	o.ThresholdPercentile = c.Bloom.ThresholdPercentile
	o.MinTraceLength = c.Bloom.MinTraceLength
	return o
}

// GCodeOptions converts the gcode section to emitter options.
func (c Config) GCodeOptions() gcode.Options {
	return gcode.Options{
		FeedRate:     c.GCode.FeedRate,
		TravelRate:   c.GCode.TravelRate,
		LaserPower:   c.GCode.LaserPower,
		PathComments: c.GCode.PathComments,
	}
}

// RenderOptions converts the render section to rasterizer options.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		PixelsPerMM:  c.Render.PixelsPerMM,
		MaxDimension: c.Render.MaxDimension,
		DrawCopper:   c.Render.DrawCopper,
	}
}
