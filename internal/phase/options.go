package phase

import "fmt"

// Scale selects linear or logarithmic spacing. It is used for bin edges on
// each axis and for the colour-intensity normalization.
type Scale string

const (
	Linear Scale = "linear"
	Log    Scale = "log"
)

// Valid reports whether s is one of the recognised scales.
func (s Scale) Valid() bool {
	return s == Linear || s == Log
}

// ParseScale converts a user-supplied string to a Scale.
func ParseScale(s string) (Scale, error) {
	sc := Scale(s)
	if !sc.Valid() {
		return "", fmt.Errorf("%w: scale %q must be %q or %q", ErrInvalidConfiguration, s, Linear, Log)
	}
	return sc, nil
}

const (
	DefaultGridSize = 500
	DefaultCmap     = "Blues_r"
)

// DefaultXLims is accepted for compatibility with older plotting scripts.
// The renderer does not use it.
var DefaultXLims = [2]float64{-3.5, 12}

// Options configures a single Render call. Zero fields are replaced by
// their defaults, so Options{} is equivalent to DefaultOptions().
type Options struct {
	// GridSize is the number of bin edges per axis. The grid therefore has
	// GridSize-1 bins along each axis.
	GridSize int

	// Binning controls colour-intensity scaling of the bin counts.
	Binning Scale

	XScale Scale
	YScale Scale

	XLims [2]float64

	// Cmap names the colour palette, e.g. "Blues_r". Resolution of the name
	// is left to the drawing surface.
	Cmap string
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		GridSize: DefaultGridSize,
		Binning:  Log,
		XScale:   Log,
		YScale:   Log,
		XLims:    DefaultXLims,
		Cmap:     DefaultCmap,
	}
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.GridSize == 0 {
		o.GridSize = d.GridSize
	}
	if o.Binning == "" {
		o.Binning = d.Binning
	}
	if o.XScale == "" {
		o.XScale = d.XScale
	}
	if o.YScale == "" {
		o.YScale = d.YScale
	}
	if o.XLims == [2]float64{} {
		o.XLims = d.XLims
	}
	if o.Cmap == "" {
		o.Cmap = d.Cmap
	}
	return o
}

// Validate checks o after defaults have been applied.
func (o Options) Validate() error {
	if o.GridSize < 2 {
		return fmt.Errorf("%w: gridsize must be at least 2, got %d", ErrInvalidConfiguration, o.GridSize)
	}
	if !o.XScale.Valid() {
		return fmt.Errorf("%w: xscale %q", ErrInvalidConfiguration, o.XScale)
	}
	if !o.YScale.Valid() {
		return fmt.Errorf("%w: yscale %q", ErrInvalidConfiguration, o.YScale)
	}
	if !o.Binning.Valid() {
		return fmt.Errorf("%w: binning %q", ErrInvalidConfiguration, o.Binning)
	}
	return nil
}
