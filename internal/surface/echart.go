package surface

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// EChart is a phase.Axes that renders an interactive HTML heatmap with
// go-echarts. Bins become categories labelled by their centre value, so
// axis limits and reference lines snap to the nearest bin.
type EChart struct {
	title  string
	size   Size
	raster *phase.Raster
	xscale phase.Scale
	yscale phase.Scale
	xlim   *[2]float64
	ylim   *[2]float64
	xlabel string
	ylabel string
	hlines []float64
}

// NewEChart returns an empty HTML surface.
func NewEChart(size Size) *EChart {
	return &EChart{size: size, xscale: phase.Linear, yscale: phase.Linear}
}

func (e *EChart) SetTitle(title string) { e.title = title }
func (e *EChart) SetXScale(s phase.Scale) { e.xscale = s }
func (e *EChart) SetYScale(s phase.Scale) { e.yscale = s }
func (e *EChart) SetXLim(min, max float64) { e.xlim = &[2]float64{min, max} }
func (e *EChart) SetYLim(min, max float64) { e.ylim = &[2]float64{min, max} }
func (e *EChart) SetXLabel(label string) { e.xlabel = label }
func (e *EChart) SetYLabel(label string) { e.ylabel = label }
func (e *EChart) SetAspectAuto() {}
func (e *EChart) Draw() error { return nil }
func (e *EChart) AxHLine(y float64, _ phase.LineStyle) { e.hlines = append(e.hlines, y) }

// Image keeps r for rendering. A later call replaces the earlier raster.
func (e *EChart) Image(r phase.Raster) error {
	if _, err := Palette(r.Cmap); err != nil {
		return err
	}
	e.raster = &r
	return nil
}

// binCentres returns the midpoint of each bin; geometric for log scales.
func binCentres(edges []float64, s phase.Scale) []float64 {
	out := make([]float64, len(edges)-1)
	for i := range out {
		if s == phase.Log {
			out[i] = math.Sqrt(edges[i] * edges[i+1])
		} else {
			out[i] = (edges[i] + edges[i+1]) / 2
		}
	}
	return out
}

func labels(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%.3g", v)
	}
	return out
}

// indexRange maps a data-space limit onto category indices.
func indexRange(centres []float64, lim [2]float64) (lo, hi int) {
	lo, hi = 0, len(centres)-1
	for lo < hi && centres[lo] < lim[0] {
		lo++
	}
	for hi > lo && centres[hi] > lim[1] {
		hi--
	}
	return lo, hi
}

// nearestIndex finds the bin whose edges contain v, or -1.
func nearestIndex(edges []float64, v float64) int {
	if v < edges[0] || v > edges[len(edges)-1] {
		return -1
	}
	for i := 1; i < len(edges); i++ {
		if v <= edges[i] {
			return i - 1
		}
	}
	return len(edges) - 2
}

// Chart builds the go-echarts heatmap for the current state.
func (e *EChart) Chart() (*charts.HeatMap, error) {
	if e.raster == nil {
		return nil, errors.New("echart: no raster drawn")
	}
	r := e.raster
	pal, err := Palette(r.Cmap)
	if err != nil {
		return nil, err
	}

	xc := binCentres(r.Hist.XEdges, e.xscale)
	yc := binCentres(r.Hist.YEdges, e.yscale)
	xl, yl := labels(xc), labels(yc)

	rows, cols := r.Hist.Dims()
	data := make([]opts.HeatMapData, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := r.Hist.Counts.At(i, j)
			if _, ok := r.Norm.Apply(v); !ok {
				continue
			}
			if r.Norm.Mode == phase.Log {
				v = math.Log10(v)
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}})
		}
	}

	vmin, vmax := r.Norm.VMin, r.Norm.VMax
	valueName := "count"
	if r.Norm.Mode == phase.Log {
		vmin, vmax = math.Log10(vmin), math.Log10(vmax)
		valueName = "log10(count)"
	}

	xAxis := opts.XAxis{Type: "category", Name: e.xlabel, Data: xl, NameLocation: "middle", NameGap: 30}
	if e.xlim != nil {
		lo, hi := indexRange(xc, *e.xlim)
		xAxis.Min, xAxis.Max = lo, hi
	}
	yAxis := opts.YAxis{Type: "category", Name: e.ylabel, Data: yl, NameLocation: "middle", NameGap: 45}
	if e.ylim != nil {
		lo, hi := indexRange(yc, *e.ylim)
		yAxis.Min, yAxis.Max = lo, hi
	}

	w, h := e.size.lengths()
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: e.title,
			Width:     fmt.Sprintf("%dpx", int(w.Points()*96/72)),
			Height:    fmt.Sprintf("%dpx", int(h.Points()*96/72)),
		}),
		charts.WithTitleOpts(opts.Title{Title: e.title, Subtitle: fmt.Sprintf("%dx%d bins, %s", cols, rows, valueName)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(vmin),
			Max:        float32(vmax),
			InRange:    &opts.VisualMapInRange{Color: hexColours(pal)},
		}),
	)

	var lines []opts.MarkLineNameYAxisItem
	for _, y := range e.hlines {
		idx := nearestIndex(r.Hist.YEdges, y)
		if idx < 0 {
			continue
		}
		lines = append(lines, opts.MarkLineNameYAxisItem{Name: fmt.Sprintf("%.4g", y), YAxis: idx})
	}
	var series []charts.SeriesOpts
	if len(lines) > 0 {
		series = append(series, charts.WithMarkLineNameYAxisItemOpts(lines...))
	}
	hm.SetXAxis(xl).AddSeries(valueName, data, series...)
	return hm, nil
}

// Render writes the HTML page to w.
func (e *EChart) Render(w io.Writer) error {
	hm, err := e.Chart()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Encode writes the HTML page to w. The format is ignored.
func (e *EChart) Encode(w io.Writer, _ string) error { return e.Render(w) }

// Save writes the HTML page to path.
func (e *EChart) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := e.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
