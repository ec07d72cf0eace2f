package phase

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stubAxes captures what Render asks of a surface.
type stubAxes struct {
	xscale, yscale Scale
	aspectAuto     bool
	rasters        []Raster
	imageErr       error
}

func (s *stubAxes) SetXScale(sc Scale) { s.xscale = sc }
func (s *stubAxes) SetYScale(sc Scale) { s.yscale = sc }
func (s *stubAxes) SetXLim(min, max float64) {}
func (s *stubAxes) SetYLim(min, max float64) {}
func (s *stubAxes) SetXLabel(string) {}
func (s *stubAxes) SetYLabel(string) {}
func (s *stubAxes) SetAspectAuto() { s.aspectAuto = true }
func (s *stubAxes) AxHLine(y float64, st LineStyle) {}
func (s *stubAxes) Draw() error { return nil }
func (s *stubAxes) Image(r Raster) error {
	if s.imageErr != nil {
		return s.imageErr
	}
	s.rasters = append(s.rasters, r)
	return nil
}

func TestRender_ConfiguresSurface(t *testing.T) {
	ax := &stubAxes{}
	x := []float64{1e-2, 1, 1e3, 1e6}
	y := []float64{0.5, 1.5, 2.5, 3.5}

	got, err := Render(ax, x, y, Options{GridSize: 20, YScale: Linear, Binning: Linear, Cmap: "heat"})
	require.NoError(t, err)
	assert.Same(t, ax, got, "Render should return the surface it was given")

	assert.Equal(t, Log, ax.xscale)
	assert.Equal(t, Linear, ax.yscale)
	assert.True(t, ax.aspectAuto)

	require.Len(t, ax.rasters, 1)
	r := ax.rasters[0]
	assert.Equal(t, "heat", r.Cmap)
	assert.Equal(t, Linear, r.Norm.Mode)
	assert.Equal(t, Extent{XMin: 1e-2, XMax: 1e6, YMin: 0.5, YMax: 3.5}, r.Extent)
	assert.Equal(t, 4.0, r.Hist.Total())
}

func TestRender_Defaults(t *testing.T) {
	ax := &stubAxes{}
	_, err := Render(ax, []float64{1, 10}, []float64{1, 10}, Options{})
	require.NoError(t, err)

	r := ax.rasters[0]
	rows, cols := r.Hist.Dims()
	assert.Equal(t, DefaultGridSize-1, rows)
	assert.Equal(t, DefaultGridSize-1, cols)
	assert.Equal(t, DefaultCmap, r.Cmap)
	assert.Equal(t, Log, r.Norm.Mode)
	assert.Equal(t, Log, ax.xscale)
	assert.Equal(t, Log, ax.yscale)
}

func TestRender_InvalidScale(t *testing.T) {
	x := []float64{1, 2, 3}
	for _, opts := range []Options{
		{XScale: "bogus"},
		{YScale: "bogus"},
		{Binning: "cubic"},
		{GridSize: -3},
	} {
		ax := &stubAxes{}
		_, err := Render(ax, x, x, opts)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Render(%+v) error = %v, want ErrInvalidConfiguration", opts, err)
		}
		if len(ax.rasters) != 0 {
			t.Errorf("Render(%+v) drew despite invalid options", opts)
		}
	}
}

func TestRender_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		opts Options
		want error
	}{
		{"empty", nil, nil, Options{}, ErrEmptyInput},
		{"mismatch", []float64{1, 2}, []float64{1}, Options{}, ErrLengthMismatch},
		{"zero on log x", []float64{0, 2}, []float64{1, 2}, Options{}, ErrNonPositiveLogInput},
		{"negative on log y", []float64{1, 2}, []float64{-1, 2}, Options{XScale: Linear}, ErrNonPositiveLogInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(&stubAxes{}, tt.x, tt.y, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRender_SurfaceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Render(&stubAxes{imageErr: boom}, []float64{1, 2}, []float64{1, 2}, Options{})
	if !errors.Is(err, boom) {
		t.Errorf("Render() error = %v, want wrapped boom", err)
	}
}

func TestRender_Deterministic(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	y := []float64{2, 7, 1, 8, 2, 8, 1, 8, 2, 8, 4}
	opts := Options{GridSize: 8}

	a, b := &stubAxes{}, &stubAxes{}
	_, err := Render(a, x, y, opts)
	require.NoError(t, err)
	_, err = Render(b, x, y, opts)
	require.NoError(t, err)

	ra, rb := a.rasters[0], b.rasters[0]
	if diff := cmp.Diff(ra.Hist.XEdges, rb.Hist.XEdges); diff != "" {
		t.Errorf("x edges differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(ra.Hist.YEdges, rb.Hist.YEdges); diff != "" {
		t.Errorf("y edges differ (-first +second):\n%s", diff)
	}
	if !mat.Equal(ra.Hist.Counts, rb.Hist.Counts) {
		t.Error("histogram counts differ between identical calls")
	}
	assert.Equal(t, ra.Norm, rb.Norm)
}

func TestParseScale(t *testing.T) {
	s, err := ParseScale("linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, s)

	_, err = ParseScale("semilog")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
