package phase

import "image/color"

// Axes is a 2D drawing surface. Implementations live in internal/surface.
type Axes interface {
	SetXScale(s Scale)
	SetYScale(s Scale)
	SetXLim(min, max float64)
	SetYLim(min, max float64)
	SetXLabel(label string)
	SetYLabel(label string)

	// SetAspectAuto lets the data rectangle stretch to fill the surface.
	SetAspectAuto()

	// Image draws r as a colour-mapped raster with its first row at the
	// bottom of the extent.
	Image(r Raster) error

	// AxHLine draws a horizontal line spanning the full x range.
	AxHLine(y float64, style LineStyle)

	// Draw is a redraw hint. Backends with nothing to refresh return nil.
	Draw() error
}

// Raster is everything a surface needs to paint a histogram.
type Raster struct {
	Hist   *Histogram
	Extent Extent
	Norm   Normalization
	Cmap   string
}

// LineStyle describes a reference line.
type LineStyle struct {
	Color  color.Color
	Dashed bool
}

// DashedBlack is the style used for reference temperatures.
var DashedBlack = LineStyle{Color: color.Black, Dashed: true}
