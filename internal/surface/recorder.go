package surface

import (
	"io"

	"github.com/banshee-data/phaseplot/internal/phase"
)

// HLine is a reference line captured by Recorder.
type HLine struct {
	Y     float64
	Style phase.LineStyle
}

// Recorder is a phase.Axes that only records what was asked of it.
type Recorder struct {
	Title      string
	XScale     phase.Scale
	YScale     phase.Scale
	XLim       [2]float64
	YLim       [2]float64
	XLabel     string
	YLabel     string
	AspectAuto bool
	Rasters    []phase.Raster
	HLines     []HLine
	Draws      int
	Saved      []string
	Encoded    []string
}

func (r *Recorder) SetTitle(title string) { r.Title = title }
func (r *Recorder) SetXScale(s phase.Scale) { r.XScale = s }
func (r *Recorder) SetYScale(s phase.Scale) { r.YScale = s }
func (r *Recorder) SetXLim(min, max float64) { r.XLim = [2]float64{min, max} }
func (r *Recorder) SetYLim(min, max float64) { r.YLim = [2]float64{min, max} }
func (r *Recorder) SetXLabel(label string) { r.XLabel = label }
func (r *Recorder) SetYLabel(label string) { r.YLabel = label }
func (r *Recorder) SetAspectAuto() { r.AspectAuto = true }

func (r *Recorder) Image(ra phase.Raster) error {
	r.Rasters = append(r.Rasters, ra)
	return nil
}

func (r *Recorder) AxHLine(y float64, style phase.LineStyle) {
	r.HLines = append(r.HLines, HLine{Y: y, Style: style})
}

func (r *Recorder) Draw() error {
	r.Draws++
	return nil
}

// Save records path without touching the filesystem.
func (r *Recorder) Save(path string) error {
	r.Saved = append(r.Saved, path)
	return nil
}

// Encode records format and writes nothing.
func (r *Recorder) Encode(_ io.Writer, format string) error {
	r.Encoded = append(r.Encoded, format)
	return nil
}
