package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/banshee-data/phaseplot/internal/phase"
	"github.com/banshee-data/phaseplot/internal/phaseplot"
	"github.com/banshee-data/phaseplot/internal/surface"
)

// DefaultConfigPath is the path to the canonical plot defaults file.
const DefaultConfigPath = "config/plot.defaults.json"

// PlotConfig is the JSON form of the options accepted by the plot command.
// Every field is optional; the Get* methods supply defaults for fields left
// out of the file.
type PlotConfig struct {
	// Binning
	GridSize *int    `json:"grid_size,omitempty"`
	Binning  *string `json:"binning,omitempty"` // colour scaling: "log" or "linear"
	XScale   *string `json:"xscale,omitempty"`
	YScale   *string `json:"yscale,omitempty"`
	Cmap     *string `json:"cmap,omitempty"`

	// Output
	WidthIn  *float64 `json:"width_in,omitempty"`
	HeightIn *float64 `json:"height_in,omitempty"`
	Format   *string  `json:"format,omitempty"`
	Title    *string  `json:"title,omitempty"`

	// Plot kinds
	RadialCutoffPC *float64 `json:"radial_cutoff_pc,omitempty"`
	CMBLine        *bool    `json:"cmb_line,omitempty"`
}

// EmptyPlotConfig returns a PlotConfig with all fields set to nil.
func EmptyPlotConfig() *PlotConfig {
	return &PlotConfig{}
}

// LoadPlotConfig loads a PlotConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPlotConfig(path string) (*PlotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlotConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *PlotConfig) Validate() error {
	if c.GridSize != nil && *c.GridSize < 2 {
		return fmt.Errorf("%w: grid_size must be at least 2, got %d", phase.ErrInvalidConfiguration, *c.GridSize)
	}
	for name, s := range map[string]*string{"binning": c.Binning, "xscale": c.XScale, "yscale": c.YScale} {
		if s == nil {
			continue
		}
		if _, err := phase.ParseScale(*s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Cmap != nil {
		if _, err := surface.Palette(*c.Cmap); err != nil {
			return err
		}
	}
	if c.WidthIn != nil && *c.WidthIn <= 0 {
		return fmt.Errorf("%w: width_in must be positive, got %g", phase.ErrInvalidConfiguration, *c.WidthIn)
	}
	if c.HeightIn != nil && *c.HeightIn <= 0 {
		return fmt.Errorf("%w: height_in must be positive, got %g", phase.ErrInvalidConfiguration, *c.HeightIn)
	}
	if c.Format != nil && !slices.Contains(surface.Formats, strings.ToLower(*c.Format)) {
		return fmt.Errorf("%w: format %q (want one of %s)", phase.ErrInvalidConfiguration, *c.Format, strings.Join(surface.Formats, ", "))
	}
	if c.RadialCutoffPC != nil && *c.RadialCutoffPC <= 0 {
		return fmt.Errorf("%w: radial_cutoff_pc must be positive, got %g", phase.ErrInvalidConfiguration, *c.RadialCutoffPC)
	}
	return nil
}

// GetGridSize returns grid_size or the default.
func (c *PlotConfig) GetGridSize() int {
	if c.GridSize == nil {
		return phase.DefaultGridSize
	}
	return *c.GridSize
}

func scaleOr(s *string, def phase.Scale) phase.Scale {
	if s == nil || *s == "" {
		return def
	}
	return phase.Scale(*s)
}

// GetBinning returns binning or the default.
func (c *PlotConfig) GetBinning() phase.Scale { return scaleOr(c.Binning, phase.Log) }

// GetXScale returns xscale or the default.
func (c *PlotConfig) GetXScale() phase.Scale { return scaleOr(c.XScale, phase.Log) }

// GetYScale returns yscale or the default.
func (c *PlotConfig) GetYScale() phase.Scale { return scaleOr(c.YScale, phase.Log) }

// GetCmap returns cmap or the default.
func (c *PlotConfig) GetCmap() string {
	if c.Cmap == nil || *c.Cmap == "" {
		return phase.DefaultCmap
	}
	return *c.Cmap
}

// GetSize returns the output size in inches.
func (c *PlotConfig) GetSize() surface.Size {
	size := surface.DefaultSize
	if c.WidthIn != nil {
		size.WidthIn = *c.WidthIn
	}
	if c.HeightIn != nil {
		size.HeightIn = *c.HeightIn
	}
	return size
}

// GetFormat returns format or "png".
func (c *PlotConfig) GetFormat() string {
	if c.Format == nil || *c.Format == "" {
		return "png"
	}
	return strings.ToLower(*c.Format)
}

// GetTitle returns title or the empty string.
func (c *PlotConfig) GetTitle() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

// GetRadialCutoffPC returns radial_cutoff_pc or zero, which leaves the
// radial plot at its own default.
func (c *PlotConfig) GetRadialCutoffPC() float64 {
	if c.RadialCutoffPC == nil {
		return 0
	}
	return *c.RadialCutoffPC
}

// GetCMBLine returns cmb_line or the default.
func (c *PlotConfig) GetCMBLine() bool {
	if c.CMBLine == nil {
		return true
	}
	return *c.CMBLine
}

// ToOptions converts the binning fields to render options. A nil grid_size
// is left at zero so each plot kind can apply its own default.
func (c *PlotConfig) ToOptions() phase.Options {
	opts := phase.Options{
		Binning: c.GetBinning(),
		XScale:  c.GetXScale(),
		YScale:  c.GetYScale(),
		Cmap:    c.GetCmap(),
	}
	if c.GridSize != nil {
		opts.GridSize = *c.GridSize
	}
	return opts
}

// ToParams converts the configuration to per-plot parameters.
func (c *PlotConfig) ToParams() phaseplot.Params {
	cmb := c.GetCMBLine()
	return phaseplot.Params{
		Options:      c.ToOptions(),
		CMBLine:      &cmb,
		RadialCutoff: c.GetRadialCutoffPC(),
	}
}
