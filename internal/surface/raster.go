package surface

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// binGrid is a plot.Plotter that fills each histogram bin over its own
// edges, so log-spaced bins land where a log axis puts them. Row 0 of the
// histogram is the lowest y bin. Bins the normalization masks are skipped.
type binGrid struct {
	hist    *phase.Histogram
	norm    phase.Normalization
	colours []color.Color
}

func newBinGrid(r phase.Raster, pal palette.Palette) *binGrid {
	return &binGrid{hist: r.Hist, norm: r.Norm, colours: pal.Colors()}
}

// colour returns the fill for bin (i, j), or false when the bin is masked.
func (g *binGrid) colour(i, j int) (color.Color, bool) {
	t, ok := g.norm.Apply(g.hist.Counts.At(i, j))
	if !ok {
		return nil, false
	}
	return colourAt(g.colours, t), true
}

func finitePoint(p vg.Point) bool {
	for _, v := range []float64{float64(p.X), float64(p.Y)} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (g *binGrid) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	rows, cols := g.hist.Dims()
	for i := 0; i < rows; i++ {
		y0, y1 := trY(g.hist.YEdges[i]), trY(g.hist.YEdges[i+1])
		for j := 0; j < cols; j++ {
			col, ok := g.colour(i, j)
			if !ok {
				continue
			}
			x0, x1 := trX(g.hist.XEdges[j]), trX(g.hist.XEdges[j+1])
			lo, hi := vg.Point{X: x0, Y: y0}, vg.Point{X: x1, Y: y1}
			if !finitePoint(lo) || !finitePoint(hi) {
				continue
			}
			pts := c.ClipPolygonXY([]vg.Point{lo, {X: x1, Y: y0}, hi, {X: x0, Y: y1}})
			if len(pts) > 0 {
				c.FillPolygon(col, pts)
			}
		}
	}
}

// DataRange reports the edge extent so autoscaled axes cover every bin.
func (g *binGrid) DataRange() (xmin, xmax, ymin, ymax float64) {
	x, y := g.hist.XEdges, g.hist.YEdges
	return x[0], x[len(x)-1], y[0], y[len(y)-1]
}
