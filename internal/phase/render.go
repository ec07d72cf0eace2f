// Package phase bins paired samples into 2D histograms and paints them on
// a drawing surface as phase plots.
package phase

import (
	"fmt"

	"github.com/banshee-data/phaseplot/internal/monitoring"
)

// Bin validates x and y against opts and returns their histogram.
func Bin(x, y []float64, opts Options) (*Histogram, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	xedges, err := BinEdges(x, opts.XScale, opts.GridSize)
	if err != nil {
		return nil, fmt.Errorf("x edges: %w", err)
	}
	yedges, err := BinEdges(y, opts.YScale, opts.GridSize)
	if err != nil {
		return nil, fmt.Errorf("y edges: %w", err)
	}
	return Histogram2D(x, y, xedges, yedges)
}

// Render bins (x, y), draws the result on ax and sets the axis scales to
// match the binning. It returns ax so callers can keep configuring it.
func Render(ax Axes, x, y []float64, opts Options) (Axes, error) {
	opts = opts.WithDefaults()
	h, err := Bin(x, y, opts)
	if err != nil {
		return ax, err
	}

	r := Raster{
		Hist:   h,
		Extent: h.Extent(),
		Norm:   AutoNormalization(opts.Binning, h),
		Cmap:   opts.Cmap,
	}
	if err := ax.Image(r); err != nil {
		return ax, fmt.Errorf("draw raster: %w", err)
	}
	ax.SetXScale(opts.XScale)
	ax.SetYScale(opts.YScale)
	ax.SetAspectAuto()

	rows, cols := h.Dims()
	monitoring.Debugf("phase: binned %d samples into %dx%d grid (%s/%s, %s colour)",
		len(x), cols, rows, opts.XScale, opts.YScale, opts.Binning)
	return ax, nil
}
