package surface

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// Size is the output size of a surface in inches.
type Size struct {
	WidthIn  float64
	HeightIn float64
}

// DefaultSize matches the figure size used for single phase plots.
var DefaultSize = Size{WidthIn: 8, HeightIn: 6}

func (s Size) lengths() (vg.Length, vg.Length) {
	if s.WidthIn <= 0 || s.HeightIn <= 0 {
		s = DefaultSize
	}
	return vg.Length(s.WidthIn) * vg.Inch, vg.Length(s.HeightIn) * vg.Inch
}

// Plot is a phase.Axes backed by gonum/plot. It writes PNG, SVG, PDF and
// the other formats gonum/plot supports.
type Plot struct {
	p      *plot.Plot
	size   Size
	xscale phase.Scale
	yscale phase.Scale
	redraw int
}

// NewPlot returns an empty plot with linear axes.
func NewPlot(size Size) *Plot {
	pl := &Plot{p: plot.New(), size: size}
	pl.SetXScale(phase.Linear)
	pl.SetYScale(phase.Linear)
	return pl
}

// Plot exposes the underlying gonum plot for further customisation.
func (pl *Plot) Plot() *plot.Plot { return pl.p }

// SetTitle sets the plot title.
func (pl *Plot) SetTitle(title string) { pl.p.Title.Text = title }

func setAxisScale(ax *plot.Axis, s phase.Scale) {
	if s == phase.Log {
		ax.Scale = plot.LogScale{}
		ax.Tick.Marker = plot.LogTicks{Prec: -1}
		return
	}
	ax.Scale = plot.LinearScale{}
	ax.Tick.Marker = plot.DefaultTicks{}
}

func (pl *Plot) SetXScale(s phase.Scale) {
	pl.xscale = s
	setAxisScale(&pl.p.X, s)
}

func (pl *Plot) SetYScale(s phase.Scale) {
	pl.yscale = s
	setAxisScale(&pl.p.Y, s)
}

func (pl *Plot) SetXLim(min, max float64) { pl.p.X.Min, pl.p.X.Max = min, max }
func (pl *Plot) SetYLim(min, max float64) { pl.p.Y.Min, pl.p.Y.Max = min, max }

func (pl *Plot) SetXLabel(label string) { pl.p.X.Label.Text = label }
func (pl *Plot) SetYLabel(label string) { pl.p.Y.Label.Text = label }

// SetAspectAuto is a no-op: gonum/plot never locks the aspect ratio.
func (pl *Plot) SetAspectAuto() {}

// Image adds the histogram with every bin filled over its own edges and
// sets the limits to r.Extent.
func (pl *Plot) Image(r phase.Raster) error {
	pal, err := Palette(r.Cmap)
	if err != nil {
		return err
	}
	pl.p.Add(newBinGrid(r, pal))
	ext := r.Extent
	pl.SetXLim(ext.XMin, ext.XMax)
	pl.SetYLim(ext.YMin, ext.YMax)
	return nil
}

// AxHLine adds a line across the whole x range at y.
func (pl *Plot) AxHLine(y float64, style phase.LineStyle) {
	ls := draw.LineStyle{Color: style.Color, Width: vg.Points(1)}
	if style.Dashed {
		ls.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	}
	pl.p.Add(hLine{y: y, style: ls})
}

// Draw counts redraw requests; gonum/plot renders only on Save.
func (pl *Plot) Draw() error {
	pl.redraw++
	return nil
}

func (pl *Plot) checkRanges() error {
	for _, ax := range []struct {
		name  string
		scale phase.Scale
		a     *plot.Axis
	}{{"x", pl.xscale, &pl.p.X}, {"y", pl.yscale, &pl.p.Y}} {
		if math.IsInf(ax.a.Min, 0) || math.IsInf(ax.a.Max, 0) {
			return fmt.Errorf("%s axis has no range; draw something first", ax.name)
		}
		if ax.scale == phase.Log && (ax.a.Min <= 0 || ax.a.Max <= 0) {
			return fmt.Errorf("%w: %s axis range [%g, %g]", phase.ErrNonPositiveLogInput, ax.name, ax.a.Min, ax.a.Max)
		}
	}
	return nil
}

// Save writes the plot to path; the format follows the file extension.
func (pl *Plot) Save(path string) error {
	if err := pl.checkRanges(); err != nil {
		return err
	}
	w, h := pl.size.lengths()
	if err := pl.p.Save(w, h, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// Encode renders the plot in the given format ("png", "svg", "pdf", ...).
func (pl *Plot) Encode(out io.Writer, format string) error {
	if err := pl.checkRanges(); err != nil {
		return err
	}
	w, h := pl.size.lengths()
	wt, err := pl.p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// hLine is a plot.Plotter drawing a horizontal rule across the data area.
type hLine struct {
	y     float64
	style draw.LineStyle
}

func (l hLine) Plot(c draw.Canvas, plt *plot.Plot) {
	if l.y < plt.Y.Min || l.y > plt.Y.Max {
		return
	}
	_, trY := plt.Transforms(&c)
	y := trY(l.y)
	c.StrokeLine2(l.style, c.Min.X, y, c.Max.X, y)
}
