// Package phaseplot draws the standard gas phase diagrams of a snapshot:
// temperature, radial temperature, electron fraction and the H2 and HD
// molecular fractions, each against number density or radius.
package phaseplot

import (
	"fmt"
	"sort"

	"github.com/banshee-data/phaseplot/internal/phase"
	"github.com/banshee-data/phaseplot/internal/snapshot"
)

const (
	// TCMB0 is the CMB temperature today in kelvin.
	TCMB0 = 2.725

	// DefaultRadialCutoff bounds the radial plot, in parsecs.
	DefaultRadialCutoff = 70.0

	// RadialGridSize replaces the usual default gridsize for radial plots.
	RadialGridSize = 250
)

// CMBTemperature returns the CMB temperature at redshift z.
func CMBTemperature(z float64) float64 {
	return TCMB0 * (z + 1)
}

// Params carries the per-call options shared by every plot kind.
type Params struct {
	Options phase.Options
	Select  *Selection

	// CMBLine toggles the CMB reference line on the temperature plot.
	// Nil means on. The radial plot always draws it.
	CMBLine *bool

	// RadialCutoff is the largest radius kept by RadialTemperature, in
	// parsecs. Zero means DefaultRadialCutoff.
	RadialCutoff float64
}

func (p Params) cmbLine() bool {
	return p.CMBLine == nil || *p.CMBLine
}

// Func draws one kind of phase plot on ax.
type Func func(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error)

// frame holds the fixed axis limits and labels of a plot kind.
type frame struct {
	xlim, ylim     [2]float64
	xlabel, ylabel string
}

var densityLim = [2]float64{2e-3, 1e12}

const (
	densityLabel     = "n [cm^-3]"
	temperatureLabel = "Temperature [K]"
)

var (
	temperatureFrame = frame{densityLim, [2]float64{10, 2e4}, densityLabel, temperatureLabel}
	radialFrame      = frame{[2]float64{5e-5, 70}, [2]float64{10, 2e4}, "Radius [pc]", temperatureLabel}
	electronFrame    = frame{densityLim, [2]float64{2e-11, 5e-2}, densityLabel, "f_e-"}
	h2Frame          = frame{densityLim, [2]float64{5e-7, 2}, densityLabel, "f_H2"}
	hdFrame          = frame{densityLim, [2]float64{5e-11, 1e-4}, densityLabel, "f_HD"}
)

func (f frame) limits(ax phase.Axes) {
	ax.SetXScale(phase.Log)
	ax.SetYScale(phase.Log)
	ax.SetXLim(f.xlim[0], f.xlim[1])
	ax.SetYLim(f.ylim[0], f.ylim[1])
}

func (f frame) labels(ax phase.Axes) {
	ax.SetXLabel(f.xlabel)
	ax.SetYLabel(f.ylabel)
}

// densityPlot is the shared body of the plots with number density on x.
func densityPlot(snap snapshot.Snapshot, ax phase.Axes, p Params, yget func() ([]float64, error), f frame, cmb bool) (phase.Axes, error) {
	dens, err := snap.NumberDensity()
	if err != nil {
		return ax, err
	}
	y, err := yget()
	if err != nil {
		return ax, err
	}
	dens, y, err = p.Select.applyPair(dens, y)
	if err != nil {
		return ax, err
	}

	if ax, err = phase.Render(ax, dens, y, p.Options); err != nil {
		return ax, err
	}
	f.limits(ax)
	if cmb {
		ax.AxHLine(CMBTemperature(snap.Redshift()), phase.DashedBlack)
	}
	f.labels(ax)
	return ax, ax.Draw()
}

// Temperature plots temperature against number density with an optional
// CMB reference line.
func Temperature(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error) {
	return densityPlot(snap, ax, p, snap.Temperature, temperatureFrame, p.cmbLine())
}

// ElectronFraction plots the free electron fraction against number density.
func ElectronFraction(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error) {
	return densityPlot(snap, ax, p, snap.ElectronFraction, electronFrame, false)
}

// H2Fraction plots the molecular hydrogen fraction against number density.
func H2Fraction(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error) {
	return densityPlot(snap, ax, p, snap.H2Fraction, h2Frame, false)
}

// HDFraction plots the deuterated hydrogen fraction against number density.
func HDFraction(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error) {
	return densityPlot(snap, ax, p, snap.HDFraction, hdFrame, false)
}

// RadialTemperature plots temperature against distance from the mean gas
// position, keeping particles within the radial cutoff.
func RadialTemperature(snap snapshot.Snapshot, ax phase.Axes, p Params) (phase.Axes, error) {
	pos, err := snap.Positions()
	if err != nil {
		return ax, err
	}
	r, err := snapshot.SphericalRadii(pos, snapshot.CenterAverage)
	if err != nil {
		return ax, err
	}
	temp, err := snap.Temperature()
	if err != nil {
		return ax, err
	}
	r, temp, err = p.Select.applyPair(r, temp)
	if err != nil {
		return ax, err
	}

	cutoff := p.RadialCutoff
	if cutoff <= 0 {
		cutoff = DefaultRadialCutoff
	}
	keep := make([]bool, len(r))
	for i, ri := range r {
		keep[i] = ri <= cutoff
	}
	r, temp, err = MaskSelection(keep).applyPair(r, temp)
	if err != nil {
		return ax, err
	}

	opts := p.Options
	if opts.GridSize == 0 {
		opts.GridSize = RadialGridSize
	}
	if ax, err = phase.Render(ax, r, temp, opts); err != nil {
		return ax, err
	}
	radialFrame.limits(ax)
	ax.AxHLine(CMBTemperature(snap.Redshift()), phase.DashedBlack)
	radialFrame.labels(ax)
	return ax, ax.Draw()
}

var kinds = map[string]Func{
	"temperature":        Temperature,
	"radial-temperature": RadialTemperature,
	"electron-fraction":  ElectronFraction,
	"h2-fraction":        H2Fraction,
	"hd-fraction":        HDFraction,
}

// Kinds lists the plot kind names accepted by Lookup.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the plot function registered under name.
func Lookup(name string) (Func, error) {
	f, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown plot kind %q (want one of %v)", name, Kinds())
	}
	return f, nil
}
