package phaseplot

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/phaseplot/internal/phase"
	"github.com/banshee-data/phaseplot/internal/snapshot"
	"github.com/banshee-data/phaseplot/internal/surface"
)

func testSnapshot() *snapshot.Memory {
	n := 40
	m := &snapshot.Memory{
		Z:      19,
		Pos:    make([][3]float64, n),
		NH:     make([]float64, n),
		Temp:   make([]float64, n),
		EFrac:  make([]float64, n),
		H2Frac: make([]float64, n),
		HDFrac: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f := float64(i + 1)
		m.Pos[i] = [3]float64{f, -f, 0.5 * f}
		m.NH[i] = math.Pow(10, -2+f*0.3)
		m.Temp[i] = 20 + 10*f
		m.EFrac[i] = 1e-4 / f
		m.H2Frac[i] = 1e-5 * f
		m.HDFrac[i] = 1e-8 * f
	}
	return m
}

func TestCMBTemperature(t *testing.T) {
	assert.InDelta(t, 2.725, CMBTemperature(0), 1e-12)
	assert.InDelta(t, 54.5, CMBTemperature(19), 1e-12)
}

func TestTemperature(t *testing.T) {
	snap := testSnapshot()
	rec := &surface.Recorder{}

	ax, err := Temperature(snap, rec, Params{Options: phase.Options{GridSize: 20}})
	require.NoError(t, err)
	assert.Same(t, rec, ax)

	require.Len(t, rec.Rasters, 1)
	rows, cols := rec.Rasters[0].Hist.Dims()
	assert.Equal(t, 19, rows)
	assert.Equal(t, 19, cols)
	assert.Equal(t, float64(len(snap.NH)), rec.Rasters[0].Hist.Total())

	assert.Equal(t, phase.Log, rec.XScale)
	assert.Equal(t, phase.Log, rec.YScale)
	assert.Equal(t, [2]float64{2e-3, 1e12}, rec.XLim)
	assert.Equal(t, [2]float64{10, 2e4}, rec.YLim)
	assert.Equal(t, "n [cm^-3]", rec.XLabel)
	assert.Equal(t, "Temperature [K]", rec.YLabel)
	assert.True(t, rec.AspectAuto)

	require.Len(t, rec.HLines, 1)
	assert.InDelta(t, 2.725*20, rec.HLines[0].Y, 1e-9)
	assert.True(t, rec.HLines[0].Style.Dashed)
	assert.Equal(t, 1, rec.Draws)
}

func TestTemperature_NoCMBLine(t *testing.T) {
	off := false
	rec := &surface.Recorder{}
	_, err := Temperature(testSnapshot(), rec, Params{Options: phase.Options{GridSize: 10}, CMBLine: &off})
	require.NoError(t, err)
	assert.Empty(t, rec.HLines)
}

func TestFractionPlots(t *testing.T) {
	tests := []struct {
		name   string
		fn     Func
		ylim   [2]float64
		ylabel string
	}{
		{"electron", ElectronFraction, [2]float64{2e-11, 5e-2}, "f_e-"},
		{"h2", H2Fraction, [2]float64{5e-7, 2}, "f_H2"},
		{"hd", HDFraction, [2]float64{5e-11, 1e-4}, "f_HD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &surface.Recorder{}
			_, err := tt.fn(testSnapshot(), rec, Params{Options: phase.Options{GridSize: 12}})
			require.NoError(t, err)
			assert.Equal(t, [2]float64{2e-3, 1e12}, rec.XLim)
			assert.Equal(t, tt.ylim, rec.YLim)
			assert.Equal(t, tt.ylabel, rec.YLabel)
			assert.Empty(t, rec.HLines)
			assert.Equal(t, 1, rec.Draws)
		})
	}
}

func TestRadialTemperature(t *testing.T) {
	snap := testSnapshot()
	rec := &surface.Recorder{}

	_, err := RadialTemperature(snap, rec, Params{RadialCutoff: 20})
	require.NoError(t, err)

	require.Len(t, rec.Rasters, 1)
	h := rec.Rasters[0].Hist
	rows, cols := h.Dims()
	assert.Equal(t, RadialGridSize-1, rows)
	assert.Equal(t, RadialGridSize-1, cols)
	assert.LessOrEqual(t, h.XEdges[len(h.XEdges)-1], 20.0)
	assert.Less(t, h.Total(), float64(len(snap.Temp)))

	assert.Equal(t, [2]float64{5e-5, 70}, rec.XLim)
	assert.Equal(t, "Radius [pc]", rec.XLabel)
	require.Len(t, rec.HLines, 1)
	assert.InDelta(t, CMBTemperature(snap.Z), rec.HLines[0].Y, 1e-9)
}

func TestSelectionApplied(t *testing.T) {
	snap := testSnapshot()
	rec := &surface.Recorder{}
	p := Params{
		Options: phase.Options{GridSize: 8},
		Select:  IndexSelection([]int{0, 5, 10, 15}),
	}
	_, err := Temperature(snap, rec, p)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rec.Rasters[0].Hist.Total())
	assert.Equal(t, snap.NH[0], rec.Rasters[0].Hist.XEdges[0])
	assert.Equal(t, snap.NH[15], rec.Rasters[0].Hist.XEdges[7])
}

func TestSelection_Apply(t *testing.T) {
	vals := []float64{1, 2, 3, 4}

	var none *Selection
	got, err := none.Apply(vals)
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	got, err = MaskSelection([]bool{true, false, false, true}).Apply(vals)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, got)

	got, err = IndexSelection([]int{3, 0}).Apply(vals)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, got)

	_, err = MaskSelection([]bool{true}).Apply(vals)
	assert.Error(t, err)
	_, err = IndexSelection([]int{4}).Apply(vals)
	assert.Error(t, err)
	_, err = (&Selection{Mask: []bool{true}, Indices: []int{0}}).Apply(vals)
	assert.Error(t, err)
}

func TestMissingField(t *testing.T) {
	snap := &snapshot.Memory{NH: []float64{1, 2}}
	_, err := H2Fraction(snap, &surface.Recorder{}, Params{})
	assert.True(t, errors.Is(err, snapshot.ErrMissingField))

	_, err = RadialTemperature(snap, &surface.Recorder{}, Params{})
	assert.True(t, errors.Is(err, snapshot.ErrMissingField))
}

func TestNonPositiveFraction(t *testing.T) {
	snap := testSnapshot()
	snap.H2Frac[3] = 0
	rec := &surface.Recorder{}
	_, err := H2Fraction(snap, rec, Params{Options: phase.Options{GridSize: 10}})
	assert.ErrorIs(t, err, phase.ErrNonPositiveLogInput)
	assert.Zero(t, rec.Draws)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"electron-fraction", "h2-fraction", "hd-fraction", "radial-temperature", "temperature"}, Kinds())

	fn, err := Lookup("hd-fraction")
	require.NoError(t, err)
	rec := &surface.Recorder{}
	_, err = fn(testSnapshot(), rec, Params{Options: phase.Options{GridSize: 5}})
	require.NoError(t, err)
	assert.Equal(t, "f_HD", rec.YLabel)

	_, err = Lookup("pressure")
	assert.Error(t, err)
}
